package models

import (
	"time"

	"gorm.io/datatypes"
)

// Item is the public catalogue entity served through the cached listing and processed by the worker.
type Item struct {
	ID              uint              `gorm:"primaryKey" json:"id"`
	Slug            string            `gorm:"uniqueIndex;size:100;not null" json:"slug"`
	Name            string            `gorm:"size:255;not null" json:"name"`
	Description     *string           `gorm:"size:1024" json:"description,omitempty"`
	Attributes      datatypes.JSONMap `json:"attributes,omitempty"`
	LastProcessedAt *time.Time        `json:"last_processed_at,omitempty"`
	CreatedAt       time.Time         `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}
