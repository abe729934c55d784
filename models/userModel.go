package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"-"`

	// Always written and cleared together, see SetOTP / ClearOTP.
	OTPCode      *string    `gorm:"column:otp" json:"-"`
	OTPExpiresAt *time.Time `gorm:"column:otp_expires" json:"-"`
}

// OTP is a one-time password-reset code and the instant it stops being valid.
type OTP struct {
	Code      string
	ExpiresAt time.Time
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// PendingOTP returns the stored code, or nil when either half of the pair is
// missing.
func (u *User) PendingOTP() *OTP {
	if u.OTPCode == nil || u.OTPExpiresAt == nil || *u.OTPCode == "" {
		return nil
	}
	return &OTP{Code: *u.OTPCode, ExpiresAt: *u.OTPExpiresAt}
}

// ActiveOTP is PendingOTP with expiry applied: a code is usable strictly
// before its expiry instant.
func (u *User) ActiveOTP(now time.Time) *OTP {
	otp := u.PendingOTP()
	if otp == nil || !now.Before(otp.ExpiresAt) {
		return nil
	}
	return otp
}

func (u *User) SetOTP(otp OTP) {
	code, expires := otp.Code, otp.ExpiresAt
	u.OTPCode = &code
	u.OTPExpiresAt = &expires
}

func (u *User) ClearOTP() {
	u.OTPCode = nil
	u.OTPExpiresAt = nil
}
