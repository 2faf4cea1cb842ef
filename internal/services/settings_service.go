package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "coinkeep/internal/errors"
	"coinkeep/internal/events"
	"coinkeep/internal/models"
)

// settingsService stores per-user key/value preferences.
type settingsService struct {
	db  *gorm.DB
	bus *events.Bus
}

// NewSettingsService creates a new SettingsServicer.
func NewSettingsService(db *gorm.DB, bus *events.Bus) SettingsServicer {
	return &settingsService{db: db, bus: bus}
}

// GetSettings returns the user's settings with defaults filled in.
func (s *settingsService) GetSettings(userID string) (*UserSettings, error) {
	baseCurrency, err := getSetting(s.db, userID, models.SettingBaseCurrency, models.DefaultBaseCurrency)
	if err != nil {
		return nil, err
	}
	onboarding, err := getSetting(s.db, userID, models.SettingOnboardingCompleted, "false")
	if err != nil {
		return nil, err
	}

	return &UserSettings{
		BaseCurrency:        baseCurrency,
		OnboardingCompleted: onboarding == "true",
	}, nil
}

// BaseCurrency returns the user's base currency code, defaulting to USD.
func (s *settingsService) BaseCurrency(userID string) (string, error) {
	return getSetting(s.db, userID, models.SettingBaseCurrency, models.DefaultBaseCurrency)
}

// SetOnboardingCompleted flips the onboarding flag.
func (s *settingsService) SetOnboardingCompleted(userID string, completed bool) error {
	value := "false"
	if completed {
		value = "true"
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		return setSetting(tx, userID, models.SettingOnboardingCompleted, value)
	})
	if err != nil {
		return err
	}

	s.bus.Publish(events.TopicSettings, userID)
	return nil
}

// getSetting reads one setting value, falling back when the row is absent.
func getSetting(db *gorm.DB, userID, key, fallback string) (string, error) {
	var setting models.Setting
	err := db.Where("user_id = ? AND key = ?", userID, key).First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fallback, nil
	}
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return setting.Value, nil
}

// setSetting upserts one setting row inside the caller's transaction.
func setSetting(tx *gorm.DB, userID, key, value string) error {
	var setting models.Setting
	err := tx.Where("user_id = ? AND key = ?", userID, key).First(&setting).Error
	switch {
	case err == nil:
		setting.Value = value
		if err := tx.Save(&setting).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		setting = models.Setting{UserID: userID, Key: key, Value: value}
		if err := tx.Create(&setting).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	default:
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
