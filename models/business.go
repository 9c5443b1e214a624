package models

import "time"

// Business validation lifecycle.
const (
	ValidationPending   = "PENDING"
	ValidationValidated = "VALIDATED"
	ValidationRejected  = "REJECTED"
)

// Business is a municipal business registered by its owner. It is created
// PENDING and only an admin moves it to VALIDATED or REJECTED; a rejected
// business goes back to PENDING when the owner resubmits a full update.
type Business struct {
	ID                    uint `gorm:"primaryKey"`
	CreatedAt             time.Time
	UpdatedAt             time.Time
	UserID                uint             `gorm:"index;not null"`
	User                  AppUser          `gorm:"foreignKey:UserID;references:ID"`
	CategoryID            uint             `gorm:"index;not null"`
	Category              BusinessCategory `gorm:"foreignKey:CategoryID;references:ID"`
	ParishID              uint             `gorm:"index;not null"`
	Parish                Parish           `gorm:"foreignKey:ParishID;references:ID"`
	CommercialName        string           `gorm:"size:50;not null"`
	Description           string           `gorm:"size:500"`
	ParishCommunitySector string           `gorm:"size:100;not null"`
	Facebook              string           `gorm:"size:255"`
	Instagram             string           `gorm:"size:255"`
	Tiktok                string           `gorm:"size:255"`
	Website               string           `gorm:"size:255"`
	Phone                 string           `gorm:"size:20"`
	AcceptsWhatsappOrders bool             `gorm:"not null"`
	WhatsappNumber        string           `gorm:"size:20"`
	DeliveryService       string           `gorm:"size:32;not null"` // SI | NO | BAJO_PEDIDO
	SalePlace             string           `gorm:"size:32;not null"` // LOCAL | DOMICILIO | AMBOS
	ReceivedUdelSupport   bool             `gorm:"not null"`
	RegistrationDate      *time.Time
	Address               string `gorm:"size:255"`
	GoogleMapsCoordinates string `gorm:"size:64"`
	Schedules             string `gorm:"size:512"` // JSON array of day ranges
	ValidationStatus      string `gorm:"size:16;not null;index"`
	RejectionReason       string `gorm:"size:500"` // set iff REJECTED
}

// BusinessCategory is seeded master data.
type BusinessCategory struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	Name      string `gorm:"size:64;uniqueIndex;not null"`
}

// Parish is seeded master data (URBANA / RURAL).
type Parish struct {
	ID         uint `gorm:"primaryKey"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Name       string `gorm:"size:64;not null"`
	ParishType string `gorm:"size:16;not null;index"` // URBANA | RURAL
}
