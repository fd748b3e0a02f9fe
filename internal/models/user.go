package models

import "strings"

// User is an account that can sign in. Email is unique; inactive users cannot authenticate.
type User struct {
	AccountModel

	Email       string `gorm:"uniqueIndex;size:320;not null" json:"email"`
	Password    string `gorm:"not null" json:"-"`
	IsActive    bool   `gorm:"default:true;not null" json:"is_active"`
	IsSuperuser bool   `gorm:"default:false;not null" json:"is_superuser"`

	Roles []Role `gorm:"many2many:user_roles;constraint:OnDelete:CASCADE" json:"roles,omitempty"`
	Todos []Todo `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// RoleNames returns the names of the loaded roles.
func (u *User) RoleNames() []string {
	if u == nil {
		return nil
	}
	names := make([]string, 0, len(u.Roles))
	for _, role := range u.Roles {
		names = append(names, role.Name)
	}
	return names
}

// NormalizeEmail lowercases and trims an address so uniqueness is case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
