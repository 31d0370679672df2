package models

import (
	"time"
)

// AdminUser is the operator account used to sign in to the admin API
// (spec.md §8's authentication surface for triggering recomputes and
// reviewing duplicate exposure).
type AdminUser struct {
	ID           string     `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Username     string     `json:"username" gorm:"uniqueIndex;not null"`
	Email        string     `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string     `json:"-" gorm:"column:password_hash;not null"`
	Role         string     `json:"role" gorm:"default:'admin'"`
	Active       bool       `json:"active" gorm:"default:true"`
	LastLogin    *time.Time `json:"last_login"`
	LoginCount   int        `json:"login_count" gorm:"default:0"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (AdminUser) TableName() string {
	return "admin_users"
}
