package models

import "time"

// Deletion request lifecycle. APPROVED and REJECTED are terminal.
const (
	DeletionPending  = "PENDING"
	DeletionApproved = "APPROVED"
	DeletionRejected = "REJECTED"
)

// BusinessDeletionRequest records an owner's (or admin's) request to remove a
// business. At most one PENDING request may exist per business; the partial
// unique index below makes the precondition check atomic instead of relying
// on read-then-insert.
type BusinessDeletionRequest struct {
	ID            uint `gorm:"primaryKey"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
	BusinessID    uint     `gorm:"index;not null"`
	Business      Business `gorm:"foreignKey:BusinessID;references:ID"`
	RequesterID   uint     `gorm:"index;not null"`
	Requester     AppUser  `gorm:"foreignKey:RequesterID;references:ID"`
	Motive        string   `gorm:"type:text;not null"`
	Justification string   `gorm:"type:text;not null"`
	Status        string   `gorm:"size:16;not null;index"`
	DecidedByID   *uint
	DecidedAt     *time.Time
}
