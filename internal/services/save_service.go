package services

import (
	"errors"

	"github.com/knightquest/kq-api/internal/models"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// SaveService is the save store: exactly one opaque JSON document per user.
//
// There is no version column. Concurrent Replace calls for the same user
// race and the last write wins; that is the accepted consistency policy for
// game-client autosaves, where a version conflict would surface to players
// as lost progress.
type SaveService struct {
	db     *gorm.DB
	logger zerolog.Logger
}

func NewSaveService(db *gorm.DB, logger zerolog.Logger) *SaveService {
	return &SaveService{db: db, logger: logger.With().Str("component", "save").Logger()}
}

// Get returns the user's save, or (nil, nil) when none exists. Absence is a
// designed empty state: callers check for nil, they do not get an error.
func (s *SaveService) Get(userID uint64) (*models.Save, error) {
	var save models.Save
	if err := s.db.Where("user_id = ?", userID).First(&save).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &save, nil
}

// Replace overwrites the entire document. The store never auto-creates on
// update: a Replace against a missing save is a client error (ErrNotFound).
func (s *SaveService) Replace(userID uint64, data models.JSON) (*models.Save, error) {
	var save models.Save
	if err := s.db.Where("user_id = ?", userID).First(&save).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if err := s.db.Model(&save).Update("data", data).Error; err != nil {
		return nil, err
	}
	save.Data = data

	s.logger.Info().Uint64("user_id", userID).Int("bytes", len(data.JSON)).Msg("save replaced")
	return &save, nil
}

// Reset restores the system default skeleton document, discarding whatever
// was stored. Idempotent: resetting twice yields the same default.
func (s *SaveService) Reset(userID uint64) error {
	var save models.Save
	if err := s.db.Where("user_id = ?", userID).First(&save).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	if err := s.db.Model(&save).Update("data", models.DefaultSaveData()).Error; err != nil {
		return err
	}

	s.logger.Info().Uint64("user_id", userID).Msg("save reset to default")
	return nil
}

// Ensure creates the save with the supplied default document when the user
// has none. It NEVER overwrites an existing save; repeated logins must not
// lose player data. Returns true when a row was created.
func (s *SaveService) Ensure(userID uint64, defaultData models.JSON) (bool, error) {
	var save models.Save
	err := s.db.Where("user_id = ?", userID).First(&save).Error
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	save = models.Save{UserID: userID, Data: defaultData}
	if err := s.db.Create(&save).Error; err != nil {
		return false, err
	}

	s.logger.Info().Uint64("user_id", userID).Msg("save created on first login")
	return true, nil
}
