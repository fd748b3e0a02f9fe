package models

const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
)

type Role struct {
	AccountModel

	Name        string `gorm:"uniqueIndex;size:64;not null" json:"name"`
	Description string `json:"description"`

	Users []User `gorm:"many2many:user_roles;" json:"-"`
}
