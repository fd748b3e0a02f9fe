package database

import (
	"gorm.io/gorm"

	"github.com/charlesng35/stackapp/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Role{},
		&models.Todo{},
		&models.Item{},
		&models.CacheEntry{},
	)
}

// SeedData ensures the built-in roles exist.
func SeedData(db *gorm.DB) error {
	roles := []models.Role{
		{Name: models.RoleAdmin, Description: "Manage users and catalogue items"},
		{Name: models.RoleEditor, Description: "Create catalogue items"},
	}

	for _, role := range roles {
		if err := db.Where(models.Role{Name: role.Name}).Attrs(role).FirstOrCreate(&models.Role{}).Error; err != nil {
			return err
		}
	}
	return nil
}
