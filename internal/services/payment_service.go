package services

import (
	"errors"
	"fmt"
	"log"

	"sekolahpay/internal/models"
	"sekolahpay/internal/reminder"

	"gorm.io/gorm"
)

var (
	ErrPaymentNotFound   = errors.New("payment not found")
	ErrPaymentNotPending = errors.New("payment has already been validated")
	ErrInvalidStatus     = errors.New("status must be approved or rejected")
)

// PaymentService handles payment validation. A status transition to
// approved or rejected enqueues exactly one confirmation message; delivery
// happens asynchronously in the notification worker and a delivery failure
// never rolls back the validation.
type PaymentService struct {
	db     *gorm.DB
	policy *reminder.Policy
}

// NewPaymentService creates a payment service
func NewPaymentService(db *gorm.DB, policy *reminder.Policy) *PaymentService {
	return &PaymentService{db: db, policy: policy}
}

// Validate applies a staff decision to a pending payment and enqueues the
// guardian confirmation message in the same transaction.
func (s *PaymentService) Validate(paymentID uint, status models.PaymentStatus, note string) (*models.Payment, error) {
	if status != models.PaymentApproved && status != models.PaymentRejected {
		return nil, ErrInvalidStatus
	}

	var payment models.Payment
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Student").Preload("PaymentType").
			First(&payment, paymentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPaymentNotFound
			}
			return fmt.Errorf("failed to load payment: %w", err)
		}

		if payment.Status != models.PaymentPending {
			return ErrPaymentNotPending
		}

		payment.Status = status
		payment.Note = note
		if err := tx.Save(&payment).Error; err != nil {
			return fmt.Errorf("failed to update payment: %w", err)
		}

		if !payment.Student.HasPhone() {
			log.Printf("Payment %s validated, no guardian phone for %s, skipping confirmation",
				payment.Reference, payment.Student.Name)
			return nil
		}

		task := reminder.BuildConfirmationTask(s.policy, payment)
		if err := tx.Create(task).Error; err != nil {
			return fmt.Errorf("failed to enqueue confirmation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Payment %s marked %s", payment.Reference, payment.Status)
	return &payment, nil
}
