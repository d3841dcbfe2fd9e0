package models

import (
	"time"

	"gorm.io/gorm"
)

// User is an account. Email is stored lowercased, which keeps the unique index case-insensitive.
type User struct {
	gorm.Model
	Email       string `json:"email" gorm:"uniqueIndex;type:varchar(255);not null"`
	Name        string `json:"name" gorm:"type:varchar(255)"`
	Password    string `json:"-" gorm:"type:varchar(255);not null"` // bcrypt hash, never serialized
	IsActive    bool   `json:"-" gorm:"not null;default:true"`
	IsStaff     bool   `json:"-" gorm:"not null;default:false"`
	IsSuperuser bool   `json:"-" gorm:"not null;default:false"`
}

// Token is the opaque bearer credential of a user. A user holds at most one.
type Token struct {
	Key       string    `gorm:"primaryKey;type:varchar(64)"`
	UserID    uint      `gorm:"uniqueIndex;not null"`
	User      User      `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt time.Time `gorm:"not null"`
}
