package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "coinkeep/internal/errors"
	"coinkeep/internal/models"
	"coinkeep/internal/services"
)

// --- mock currency service ---

type mockCurrencyService struct {
	listCurrenciesFn func(userID string) ([]models.Currency, error)
	upsertCurrencyFn func(userID, code string, rate float64) (*models.Currency, error)
	rebaseFn         func(userID, code string) error
	refreshFn        func(ctx context.Context, userID string) error
}

func (m *mockCurrencyService) ListCurrencies(userID string) ([]models.Currency, error) {
	if m.listCurrenciesFn != nil {
		return m.listCurrenciesFn(userID)
	}
	return []models.Currency{}, nil
}

func (m *mockCurrencyService) UpsertCurrency(userID, code string, rate float64) (*models.Currency, error) {
	if m.upsertCurrencyFn != nil {
		return m.upsertCurrencyFn(userID, code, rate)
	}
	return &models.Currency{}, nil
}

func (m *mockCurrencyService) Rebase(userID, code string) error {
	if m.rebaseFn != nil {
		return m.rebaseFn(userID, code)
	}
	return nil
}

func (m *mockCurrencyService) Refresh(ctx context.Context, userID string) error {
	if m.refreshFn != nil {
		return m.refreshFn(ctx, userID)
	}
	return nil
}

// verify interface compliance
var _ services.CurrencyServicer = (*mockCurrencyService)(nil)

func setupCurrencyRouter(handler *CurrencyHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(testUserID))
	auth.GET("/currencies", handler.GetCurrencies)
	auth.PUT("/currencies", handler.UpsertCurrency)
	auth.POST("/currencies/refresh", handler.RefreshCurrencies)
	auth.POST("/currencies/rebase", handler.Rebase)
	return r
}

// --- tests ---

func TestCurrencyHandler_UpsertCurrency(t *testing.T) {
	t.Run("returns 200 on success", func(t *testing.T) {
		svc := &mockCurrencyService{
			upsertCurrencyFn: func(userID, code string, rate float64) (*models.Currency, error) {
				return &models.Currency{UserID: userID, Code: code, Rate: rate}, nil
			},
		}
		handler := NewCurrencyHandler(svc)
		r := setupCurrencyRouter(handler)

		rec := doRequest(r, "PUT", "/currencies", `{"code":"EUR","rate":0.92}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		currency := result["currency"].(map[string]interface{})
		if currency["code"] != "EUR" {
			t.Errorf("expected EUR, got %v", currency["code"])
		}
	})

	t.Run("returns 400 on unknown code", func(t *testing.T) {
		handler := NewCurrencyHandler(&mockCurrencyService{})
		r := setupCurrencyRouter(handler)

		rec := doRequest(r, "PUT", "/currencies", `{"code":"NOPE","rate":1.0}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 400 on negative rate", func(t *testing.T) {
		handler := NewCurrencyHandler(&mockCurrencyService{})
		r := setupCurrencyRouter(handler)

		rec := doRequest(r, "PUT", "/currencies", `{"code":"EUR","rate":-1}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestCurrencyHandler_Rebase(t *testing.T) {
	t.Run("returns 204 on success", func(t *testing.T) {
		var gotCode string
		svc := &mockCurrencyService{
			rebaseFn: func(userID, code string) error {
				gotCode = code
				return nil
			},
		}
		handler := NewCurrencyHandler(svc)
		r := setupCurrencyRouter(handler)

		rec := doRequest(r, "POST", "/currencies/rebase", `{"code":"EUR"}`)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotCode != "EUR" {
			t.Errorf("expected rebase to EUR, got %q", gotCode)
		}
	})

	t.Run("returns 404 on unknown currency", func(t *testing.T) {
		svc := &mockCurrencyService{
			rebaseFn: func(userID, code string) error {
				return apperrors.ErrCurrencyNotFound
			},
		}
		handler := NewCurrencyHandler(svc)
		r := setupCurrencyRouter(handler)

		rec := doRequest(r, "POST", "/currencies/rebase", `{"code":"EUR"}`)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "CURRENCY_NOT_FOUND")
	})
}

func TestCurrencyHandler_Refresh(t *testing.T) {
	t.Run("returns 202", func(t *testing.T) {
		called := false
		svc := &mockCurrencyService{
			refreshFn: func(ctx context.Context, userID string) error {
				called = true
				return nil
			},
		}
		handler := NewCurrencyHandler(svc)
		r := setupCurrencyRouter(handler)

		rec := doRequest(r, "POST", "/currencies/refresh", "")

		if rec.Code != http.StatusAccepted {
			t.Fatalf("expected 202, got %d", rec.Code)
		}
		if !called {
			t.Error("expected refresh to be invoked")
		}
	})
}
