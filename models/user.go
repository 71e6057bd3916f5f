package models

import (
	"gorm.io/gorm"
)

// User represents a user account in the system
type User struct {
	gorm.Model

	// Authentication fields
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`

	// Profile information
	Name      string  `gorm:"not null" json:"name"`
	AvatarURL *string `json:"avatar_url,omitempty"`

	// Global role: admin, team_leader, team_member, viewer
	Role string `gorm:"default:'team_member'" json:"role"`

	// Relations
	Memberships []TeamMember `gorm:"foreignKey:UserID" json:"team_roles,omitempty"`
	Activities  []Activity   `gorm:"foreignKey:UserID" json:"-"`
}

// PublicUser is the reduced representation embedded in team and task
// responses.
type PublicUser struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Public returns the reduced representation of the user.
func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Name: u.Name, Email: u.Email}
}
