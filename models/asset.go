package models

import "time"

// Asset resource types as stored in the remote object store.
const (
	ResourceImage = "image"
	ResourceRaw   = "raw"
)

// Asset roles: what the binary is for within its owning entity.
const (
	RoleLogo           = "logo"
	RoleSlide          = "slide"
	RolePromotionPhoto = "promotion-photo"
	RoleIdentityDoc    = "identity-doc"
	RoleCertificate    = "certificate"
	RoleSignedDoc      = "signed-doc"
	RolePaymentReceipt = "payment-receipt"
	RoleEventImage     = "event-image"
)

// Owner types for the polymorphic asset back-reference.
const (
	OwnerBusiness = "business"
	OwnerPromo    = "promo"
	OwnerUser     = "user"
	OwnerEvent    = "event"
)

// Asset is a relationally-tracked reference to one binary object in the
// remote store. PublicID is the join key to the store; a row without a
// reachable remote object is an invariant violation, so rows are only
// written after the upload succeeded.
type Asset struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	URL       string `gorm:"size:512;not null"`
	PublicID  string `gorm:"column:public_id;size:255;not null;uniqueIndex"`
	FileType  string `gorm:"size:16;not null"` // image | raw
	Role      string `gorm:"size:32;not null;index"`
	OwnerType string `gorm:"size:16;not null;index:idx_asset_owner"`
	OwnerID   uint   `gorm:"not null;index:idx_asset_owner"`
}
