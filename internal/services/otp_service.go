package services

import (
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"time"

	"sekolahpay/internal/config"
	"sekolahpay/internal/models"
	"sekolahpay/internal/reminder"
	"sekolahpay/internal/wablas"

	"gorm.io/gorm"
)

var (
	ErrOtpNotFound    = errors.New("no active challenge for this phone")
	ErrOtpExpired     = errors.New("challenge has expired")
	ErrOtpLocked      = errors.New("too many wrong attempts")
	ErrOtpWrongCode   = errors.New("wrong code")
	ErrOtpSendFailure = errors.New("failed to deliver code")
)

// OtpStore is the persistence surface the OTP service needs.
type OtpStore interface {
	DeleteUnverifiedChallenges(phone string) error
	CreateChallenge(challenge *models.OtpChallenge) error
	LatestChallenge(phone string) (*models.OtpChallenge, error)
	SaveChallenge(challenge *models.OtpChallenge) error
}

// OtpService manages WhatsApp login challenges: 6-digit codes with a
// 5-minute expiry and at most 3 attempts. Creating a challenge replaces
// any prior unverified one for the same phone.
type OtpService struct {
	cfg    *config.Config
	store  OtpStore
	sender reminder.Sender
}

// NewOtpService creates an OTP service delivering codes over the gateway
func NewOtpService(cfg *config.Config, store OtpStore, sender reminder.Sender) *OtpService {
	return &OtpService{cfg: cfg, store: store, sender: sender}
}

// RequestChallenge creates a fresh challenge for the phone and sends the
// code over WhatsApp.
func (s *OtpService) RequestChallenge(phone string) error {
	normalized := wablas.NormalizePhone(phone)
	if normalized == "" {
		return fmt.Errorf("invalid phone number %q", phone)
	}

	if err := s.store.DeleteUnverifiedChallenges(normalized); err != nil {
		return fmt.Errorf("failed to clear previous challenges: %w", err)
	}

	code, err := generateOtpCode()
	if err != nil {
		return fmt.Errorf("failed to generate code: %w", err)
	}

	challenge := &models.OtpChallenge{
		Phone:     normalized,
		Code:      code,
		ExpiresAt: time.Now().Add(models.OtpExpiry),
	}
	if err := s.store.CreateChallenge(challenge); err != nil {
		return fmt.Errorf("failed to store challenge: %w", err)
	}

	message := fmt.Sprintf("*%s*\n\nKode verifikasi Anda: *%s*\n\nKode berlaku selama 5 menit. Jangan bagikan kode ini kepada siapa pun.",
		s.cfg.SchoolName, code)

	result := s.sender.SendMessage(normalized, message)
	if !result.Succeeded {
		log.Printf("OTP delivery to %s failed: %s", normalized, result.ErrorDetail)
		return ErrOtpSendFailure
	}
	return nil
}

// VerifyChallenge checks a submitted code against the active challenge.
func (s *OtpService) VerifyChallenge(phone, code string) error {
	normalized := wablas.NormalizePhone(phone)

	challenge, err := s.store.LatestChallenge(normalized)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOtpNotFound
		}
		return fmt.Errorf("failed to load challenge: %w", err)
	}

	if challenge.IsExpired() {
		return ErrOtpExpired
	}
	if challenge.IsLocked() {
		return ErrOtpLocked
	}

	if challenge.Code != code {
		challenge.Attempts++
		if err := s.store.SaveChallenge(challenge); err != nil {
			return fmt.Errorf("failed to record attempt: %w", err)
		}
		if challenge.IsLocked() {
			return ErrOtpLocked
		}
		return ErrOtpWrongCode
	}

	challenge.Verified = true
	if err := s.store.SaveChallenge(challenge); err != nil {
		return fmt.Errorf("failed to mark verified: %w", err)
	}
	return nil
}

// generateOtpCode produces a 6-digit code using crypto/rand.
func generateOtpCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
