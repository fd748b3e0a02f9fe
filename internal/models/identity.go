package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AccountModel gives users and roles a random UUID key, assigned on insert when unset.
type AccountModel struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (m *AccountModel) BeforeCreate(*gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}
