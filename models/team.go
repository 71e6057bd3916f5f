package models

import (
	"time"

	"gorm.io/gorm"
)

// Team represents a group of users collaborating on tasks
type Team struct {
	gorm.Model
	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description"`
	CreatedByID uint   `gorm:"not null;index" json:"created_by_id"`

	// Relations
	CreatedBy User         `json:"-"`
	Members   []TeamMember `gorm:"foreignKey:TeamID" json:"members,omitempty"`
}

// TeamMember is the single source of membership truth: a team's member
// list and a user's team-role assignments are both views of these rows.
// No soft delete: a removed member must be re-addable, and the unique
// index would otherwise still hold the old row.
type TeamMember struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	TeamID uint `gorm:"not null;index;uniqueIndex:idx_team_user" json:"team_id"`
	UserID uint `gorm:"not null;index;uniqueIndex:idx_team_user" json:"user_id"`

	// Role: leader, member, viewer
	Role string `gorm:"default:'member'" json:"role"`

	// Relations
	Team Team `json:"-"`
	User User `json:"-"`
}
