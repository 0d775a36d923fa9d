package models

import "time"

// OtpExpiry is how long a challenge stays valid after creation.
const OtpExpiry = 5 * time.Minute

// OtpMaxAttempts is the number of wrong codes accepted before a challenge locks.
const OtpMaxAttempts = 3

// OtpChallenge represents a one-time login code delivered over WhatsApp.
// At most one unverified challenge exists per phone: creating a new one
// deletes prior unverified challenges for that number.
type OtpChallenge struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Phone     string    `gorm:"size:20;not null;index" json:"phone"`
	Code      string    `gorm:"size:6;not null" json:"-"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`
	Attempts  int       `gorm:"not null;default:0" json:"attempts"`
	Verified  bool      `gorm:"not null;default:false" json:"verified"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

// IsExpired checks if the challenge has passed its expiry time
func (o *OtpChallenge) IsExpired() bool {
	return time.Now().After(o.ExpiresAt)
}

// IsLocked reports whether the challenge has used up its attempts.
func (o *OtpChallenge) IsLocked() bool {
	return o.Attempts >= OtpMaxAttempts
}

// TableName specifies the table name for the OtpChallenge model
func (OtpChallenge) TableName() string {
	return "otp_challenge"
}

// OtpRequest represents a request for a new login code
type OtpRequest struct {
	Phone string `json:"phone" binding:"required"`
}

// OtpVerifyRequest represents a code verification attempt
type OtpVerifyRequest struct {
	Phone string `json:"phone" binding:"required"`
	Code  string `json:"code" binding:"required,len=6"`
}
