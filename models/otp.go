package models

import "time"

// OtpRecovery holds a single-use password recovery code. At most one row per
// user: requesting a new code deletes the previous one. The UUID is the
// opaque handle returned to the caller; the code itself only travels by
// email. The row survives validation solely to authorize one password change
// and is deleted the moment that change succeeds.
//
// There is no expiry on these rows: a validated code stays usable until
// consumed or superseded.
type OtpRecovery struct {
	UUID      string `gorm:"primaryKey;size:36"`
	CreatedAt time.Time
	UpdatedAt time.Time
	UserID    uint    `gorm:"index;not null"`
	User      AppUser `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
	Otp       string  `gorm:"size:6;not null"`
	Validated bool    `gorm:"default:false;not null"`
}

// TableName keeps the table aligned with its purpose rather than the struct name.
func (OtpRecovery) TableName() string { return "recovery_password_otps" }
