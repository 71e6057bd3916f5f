package models

import "gorm.io/gorm"

// Activity records a user-visible action for the profile activity feed.
// Rows are written best-effort; a failed insert never fails the request.
type Activity struct {
	gorm.Model
	UserID uint `gorm:"not null;index" json:"user_id"`

	Action     string `gorm:"not null" json:"action"` // task_created, comment_added, team_created, ...
	TargetType string `gorm:"not null" json:"target_type"`
	TargetID   uint   `gorm:"not null" json:"target_id"`
	Detail     string `json:"detail"`

	// Relations
	User User `json:"-"`
}
