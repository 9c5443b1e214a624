package models

import (
	"time"
)

// AppUser represents a business owner or administrator. Owners register with
// enabled=false and four mandatory document assets; only an admin flips the
// flag. Rejection deletes the row outright (no soft state).
type AppUser struct {
	ID             uint `gorm:"primaryKey"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Name           string `gorm:"size:50;not null"`
	Lastname       string `gorm:"size:50;not null"`
	Phone          string `gorm:"size:15;not null"`
	Address        string `gorm:"size:255"`
	Username       string `gorm:"size:255;not null;unique"`
	HashedPassword []byte `gorm:"not null"`
	Email          string `gorm:"size:255;not null;unique"`
	IDType         string `gorm:"column:id_type;size:16;not null"` // cedula | pasaporte
	Identification string `gorm:"size:20;not null;unique"`
	Enabled        bool   `gorm:"default:false;not null;index"`
	RoleID         *uint  `gorm:"index"`
	Role           Role   `gorm:"foreignKey:RoleID;references:ID"`
}

// Role represents user roles with numeric primary key
type Role struct {
	ID          uint `gorm:"primaryKey"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Name        string `gorm:"size:32;uniqueIndex;not null"`
	Description string `gorm:"size:255"`
}

// RefreshToken stores a hashed representation of a refresh token for session rotation and revocation.
type RefreshToken struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	UserID    uint      `gorm:"index;not null"`
	TokenHash string    `gorm:"size:128;not null;uniqueIndex"`
	ExpiresAt time.Time `gorm:"index;not null"`
	Revoked   bool      `gorm:"default:false"`
}
