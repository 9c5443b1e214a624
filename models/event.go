package models

import "time"

// Event is a municipal event published by admins. Its images are uploaded to
// the remote store under events/<eventID>.
type Event struct {
	ID          uint `gorm:"primaryKey"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Title       string    `gorm:"size:100;not null"`
	Description string    `gorm:"size:1000"`
	Location    string    `gorm:"size:255"`
	DateStart   time.Time `gorm:"not null"`
	DateEnd     time.Time `gorm:"not null"`
	Contacts    []EventContact `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE"`
	Services    []EventService `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE"`
}

// EventContact is a contact channel (phone, email, social) for an event.
type EventContact struct {
	ID          uint   `gorm:"primaryKey"`
	EventID     uint   `gorm:"index;not null"`
	Type        string `gorm:"size:32;not null"`
	Description string `gorm:"size:255;not null"`
}

// EventService is an amenity offered at an event (parking, food, ...).
type EventService struct {
	ID      uint   `gorm:"primaryKey"`
	EventID uint   `gorm:"index;not null"`
	Service string `gorm:"size:100;not null"`
}
