package models

import (
	"time"

	"gorm.io/gorm"
)

// Task represents a unit of work owned by a team
type Task struct {
	gorm.Model
	Title       string `gorm:"not null" json:"title"`
	Description string `json:"description"`

	// Status: open, in_progress, completed
	Status string `gorm:"default:'open'" json:"status"`
	// Priority: low, medium, high
	Priority string `gorm:"default:'medium'" json:"priority"`

	DueDate *time.Time `json:"due_date,omitempty"`

	TeamID       uint  `gorm:"not null;index" json:"team_id"`
	CreatedByID  uint  `gorm:"not null;index" json:"created_by_id"`
	AssignedToID *uint `gorm:"index" json:"assigned_to_id,omitempty"`

	// Relations
	Team        Team             `json:"-"`
	CreatedBy   User             `json:"-"`
	AssignedTo  *User            `json:"-"`
	Comments    []TaskComment    `gorm:"foreignKey:TaskID" json:"comments,omitempty"`
	Attachments []TaskAttachment `gorm:"foreignKey:TaskID" json:"attachments,omitempty"`
}

// TaskComment is a comment on a task, with its own attachments
type TaskComment struct {
	gorm.Model
	TaskID   uint   `gorm:"not null;index" json:"task_id"`
	AuthorID uint   `gorm:"not null;index" json:"author_id"`
	Content  string `gorm:"not null" json:"content"`

	// Relations
	Task        Task                `json:"-"`
	Author      User                `json:"-"`
	Attachments []CommentAttachment `gorm:"foreignKey:CommentID" json:"attachments,omitempty"`
}

// TaskAttachment is a stored file attached to a task
type TaskAttachment struct {
	gorm.Model
	TaskID      uint   `gorm:"not null;index" json:"task_id"`
	Filename    string `gorm:"not null" json:"filename"`
	StoragePath string `gorm:"not null" json:"path"`
}

// CommentAttachment is a stored file attached to a comment
type CommentAttachment struct {
	gorm.Model
	CommentID   uint   `gorm:"not null;index" json:"comment_id"`
	Filename    string `gorm:"not null" json:"filename"`
	StoragePath string `gorm:"not null" json:"path"`
}
