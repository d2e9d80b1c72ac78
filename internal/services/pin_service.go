package services

import (
	"errors"
	"time"

	"github.com/knightquest/kq-api/internal/models"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// PinService verifies one-time login PINs. A PIN row is written by the device
// pairing flow and consumed (deleted) on first successful verification.
type PinService struct {
	db     *gorm.DB
	logger zerolog.Logger
}

func NewPinService(db *gorm.DB, logger zerolog.Logger) *PinService {
	return &PinService{db: db, logger: logger.With().Str("component", "pin").Logger()}
}

// Verify resolves a 6-digit PIN to its stored session data and deletes the
// row so it cannot be replayed. Expired or unknown PINs fail with
// ErrInvalidPin.
func (s *PinService) Verify(pin string) (*models.AuthPin, error) {
	if len(pin) != 6 {
		return nil, ErrValidation
	}

	var row models.AuthPin
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("pin = ? AND expires_at > ?", pin, time.Now()).
			First(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidPin
			}
			return err
		}
		return tx.Delete(&models.AuthPin{}, row.ID).Error
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("username", row.Username).Msg("pin verified and consumed")
	return &row, nil
}

// CreatePin stores a new one-time PIN. Exposed for the pairing flow and for
// tests; the PIN value is generated by the caller.
func (s *PinService) CreatePin(pin, token, username, firstName, lastName string, ttl time.Duration) (*models.AuthPin, error) {
	row := models.AuthPin{
		Pin:       pin,
		Token:     token,
		Username:  username,
		FirstName: firstName,
		LastName:  lastName,
		ExpiresAt: time.Now().Add(ttl),
	}
	if err := s.db.Create(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}
