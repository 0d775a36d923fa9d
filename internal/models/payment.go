package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentStatus is the canonical payment status vocabulary. It is the only
// form persisted to the database; Indonesian wording is display-only and
// produced through Display().
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentApproved PaymentStatus = "approved"
	PaymentRejected PaymentStatus = "rejected"
)

// Valid reports whether s is one of the known statuses.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentApproved, PaymentRejected:
		return true
	}
	return false
}

// Display returns the Indonesian wording used in messages and the UI.
func (s PaymentStatus) Display() string {
	switch s {
	case PaymentApproved:
		return "disetujui"
	case PaymentRejected:
		return "ditolak"
	default:
		return "menunggu verifikasi"
	}
}

// PaymentType is a fee category. Mandatory + active types define which
// obligations generate due-date reminders.
type PaymentType struct {
	ID            uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	Name          string         `gorm:"size:100;not null" json:"name"`
	Code          string         `gorm:"uniqueIndex;size:30;not null" json:"code"`
	DefaultAmount int64          `gorm:"not null" json:"default_amount"`
	IsMandatory   bool           `gorm:"not null;default:false" json:"is_mandatory"`
	IsActive      bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt     time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the PaymentType model
func (PaymentType) TableName() string {
	return "payment_type"
}

// Payment is a submitted payment proof and its validation state.
type Payment struct {
	ID            uint          `gorm:"primaryKey;autoIncrement" json:"id"`
	Reference     string        `gorm:"uniqueIndex;size:40;not null" json:"reference"`
	StudentID     uint          `gorm:"not null;index" json:"student_id"`
	Student       Student       `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	PaymentTypeID uint          `gorm:"not null;index" json:"payment_type_id"`
	PaymentType   PaymentType   `gorm:"foreignKey:PaymentTypeID" json:"payment_type,omitempty"`
	Amount        int64         `gorm:"not null" json:"amount"`
	ProofURL      string        `gorm:"size:255" json:"proof_url"`
	PaidDate      time.Time     `gorm:"not null;index" json:"paid_date"`
	Status        PaymentStatus `gorm:"size:10;not null;default:'pending';index" json:"status"`
	Note          string        `gorm:"size:255" json:"note"`
	CreatedAt     time.Time     `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time     `gorm:"not null" json:"updated_at"`
}

// BeforeCreate hook assigns a reference number and default status
func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.Reference == "" {
		p.Reference = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = PaymentPending
	}
	if p.PaidDate.IsZero() {
		p.PaidDate = time.Now()
	}
	return nil
}

// TableName specifies the table name for the Payment model
func (Payment) TableName() string {
	return "payment"
}

// SubmitPaymentRequest represents the form fields accompanying a proof upload
type SubmitPaymentRequest struct {
	StudentID     uint  `form:"student_id" binding:"required"`
	PaymentTypeID uint  `form:"payment_type_id" binding:"required"`
	Amount        int64 `form:"amount" binding:"required,min=1"`
}

// ValidatePaymentRequest represents a staff validation decision
type ValidatePaymentRequest struct {
	Status PaymentStatus `json:"status" binding:"required,oneof=approved rejected"`
	Note   string        `json:"note"`
}
