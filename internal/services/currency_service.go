package services

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/semaphore"
	"gorm.io/gorm"

	apperrors "coinkeep/internal/errors"
	"coinkeep/internal/events"
	"coinkeep/internal/logger"
	"coinkeep/internal/models"
)

// fallbackRates is seeded on the first-ever refresh attempt that fails with an
// empty local table, so the app is usable offline.
var fallbackRates = []models.Currency{
	{Code: "USD", Rate: 1.0},
	{Code: "EUR", Rate: 0.92},
	{Code: "SEK", Rate: 10.45},
}

// currencyService maintains the per-user exchange-rate table.
type currencyService struct {
	db       *gorm.DB
	bus      *events.Bus
	settings SettingsServicer
	rates    RateSource

	// inFlight guards Refresh: at most one refresh runs at a time, and
	// concurrent requests are dropped rather than queued.
	inFlight *semaphore.Weighted
}

// NewCurrencyService creates a new CurrencyServicer.
func NewCurrencyService(db *gorm.DB, bus *events.Bus, settings SettingsServicer, rates RateSource) CurrencyServicer {
	return &currencyService{
		db:       db,
		bus:      bus,
		settings: settings,
		rates:    rates,
		inFlight: semaphore.NewWeighted(1),
	}
}

// ListCurrencies returns the user's full currency table.
func (s *currencyService) ListCurrencies(userID string) ([]models.Currency, error) {
	var currencies []models.Currency
	if err := s.db.Where("user_id = ?", userID).Order("code").Find(&currencies).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return currencies, nil
}

// UpsertCurrency inserts or updates one rate row by hand.
func (s *currencyService) UpsertCurrency(userID, code string, rate float64) (*models.Currency, error) {
	if rate <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "rate must be greater than zero")
	}

	var currency *models.Currency
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		currency, txErr = upsertRate(tx, userID, code, rate)
		return txErr
	})
	if err != nil {
		return nil, err
	}

	s.bus.Publish(events.TopicCurrencies, userID)
	return currency, nil
}

// Rebase makes the given currency the new base. Every stored rate is divided
// by the new base's old rate and the base-currency setting is flipped, all in
// one database transaction so readers never observe a half-rebased table.
func (s *currencyService) Rebase(userID, code string) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var base models.Currency
		if err := tx.Where("user_id = ? AND code = ?", userID, code).First(&base).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrCurrencyNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if base.Rate <= 0 {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "cannot rebase to a currency with a non-positive rate")
		}

		if err := tx.Model(&models.Currency{}).Where("user_id = ?", userID).
			Update("rate", gorm.Expr("rate / ?", base.Rate)).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		return setSetting(tx, userID, models.SettingBaseCurrency, code)
	})
	if err != nil {
		return err
	}

	s.bus.Publish(events.TopicCurrencies, userID)
	s.bus.Publish(events.TopicSettings, userID)
	return nil
}

// Refresh fetches the latest quote from the rates feed and upserts every
// returned code, re-expressed relative to the user's base currency.
//
// At most one refresh runs at a time; a request arriving while one is in
// flight is dropped. A failed fetch keeps the stale table and only logs the
// error, except on a completely empty table, where the fixed fallback set is
// seeded instead.
func (s *currencyService) Refresh(ctx context.Context, userID string) error {
	if !s.inFlight.TryAcquire(1) {
		logger.Get().Debugw("currency refresh already in flight, dropping request", "user_id", userID)
		return nil
	}
	defer s.inFlight.Release(1)

	quote, err := s.rates.Latest(ctx)
	if err != nil {
		return s.recoverRefreshFailure(userID, err)
	}

	baseCode, err := s.settings.BaseCurrency(userID)
	if err != nil {
		return err
	}

	// The feed's rates are relative to its own base. Re-express them against
	// the user's base by dividing by the observed rate of the user's base.
	observedBase := 1.0
	if baseCode != quote.Base {
		r, ok := quote.Rates[baseCode]
		if !ok {
			return s.recoverRefreshFailure(userID, fmt.Errorf("feed quote has no rate for base currency %s", baseCode))
		}
		observedBase = r
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := upsertRate(tx, userID, baseCode, 1.0); err != nil {
			return err
		}
		if quote.Base != baseCode {
			if _, err := upsertRate(tx, userID, quote.Base, 1.0/observedBase); err != nil {
				return err
			}
		}
		for code, rate := range quote.Rates {
			if code == baseCode {
				continue
			}
			if _, err := upsertRate(tx, userID, code, rate/observedBase); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Get().Infow("currency table refreshed",
		"user_id", userID,
		"feed_base", quote.Base,
		"feed_date", quote.Date,
		"codes", len(quote.Rates),
	)
	s.bus.Publish(events.TopicCurrencies, userID)
	return nil
}

// recoverRefreshFailure applies the offline fallback policy: stale data is
// retained silently, and only a completely empty table is seeded.
func (s *currencyService) recoverRefreshFailure(userID string, cause error) error {
	var count int64
	if err := s.db.Model(&models.Currency{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if count > 0 {
		logger.Get().Warnw("currency refresh failed, keeping stale rates",
			"user_id", userID, "error", cause.Error())
		return nil
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, fallback := range fallbackRates {
			row := models.Currency{UserID: userID, Code: fallback.Code, Rate: fallback.Rate}
			if err := tx.Create(&row).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Get().Warnw("currency refresh failed on empty table, seeded fallback rates",
		"user_id", userID, "error", cause.Error())
	s.bus.Publish(events.TopicCurrencies, userID)
	return nil
}

// upsertRate inserts or updates one (user, code) rate row.
func upsertRate(tx *gorm.DB, userID, code string, rate float64) (*models.Currency, error) {
	var currency models.Currency
	err := tx.Where("user_id = ? AND code = ?", userID, code).First(&currency).Error
	switch {
	case err == nil:
		currency.Rate = rate
		if err := tx.Save(&currency).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		currency = models.Currency{UserID: userID, Code: code, Rate: rate}
		if err := tx.Create(&currency).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	default:
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &currency, nil
}
