package models

import "time"

// Todo belongs to exactly one user and is removed with it.
type Todo struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      string    `gorm:"type:uuid;index;not null" json:"user_id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description *string   `gorm:"size:1024" json:"description,omitempty"`
	IsDone      bool      `gorm:"default:false;not null" json:"is_done"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
