package models

import "time"

// Promotion types offered by businesses.
const (
	PromoDiscount = "DESCUENTO"
	PromoTwoForOne = "DOS_POR_UNO"
	PromoFreeShipping = "ENVIO_GRATIS"
	PromoOther = "OTRO"
)

// BusinessPromo is a time-bound promotion published by a validated business.
// Its photo lives in the remote store under the "promociones" folder.
type BusinessPromo struct {
	ID         uint `gorm:"primaryKey"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
	BusinessID uint     `gorm:"index;not null"`
	Business   Business `gorm:"foreignKey:BusinessID;references:ID"`
	PromoType  string   `gorm:"size:32;not null"`
	Title      string   `gorm:"size:100;not null"`
	StartDate  time.Time `gorm:"not null"`
	EndDate    time.Time `gorm:"not null"`
	Conditions string   `gorm:"size:500"`
}
