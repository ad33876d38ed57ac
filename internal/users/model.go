package users

import (
	"strings"
	"time"
)

// User models a registered account. The password is stored as a bcrypt hash
// and never leaves this package in serialized form.
type User struct {
	ID           string    `gorm:"column:id;primaryKey;size:190;not null" json:"id"`
	Name         string    `gorm:"column:name;size:320;not null" json:"name"`
	Email        string    `gorm:"column:email;size:320;not null;uniqueIndex" json:"email"`
	PasswordHash string    `gorm:"column:password_hash;size:190;not null" json:"-"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

// TableName provides the explicit table binding for GORM.
func (User) TableName() string {
	return "users"
}

func normalizeEmail(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
