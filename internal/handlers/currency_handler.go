package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "coinkeep/internal/errors"
	"coinkeep/internal/services"
)

// CurrencyHandler handles exchange-rate requests.
type CurrencyHandler struct {
	currencyService services.CurrencyServicer
}

// NewCurrencyHandler creates a new CurrencyHandler.
func NewCurrencyHandler(currencyService services.CurrencyServicer) *CurrencyHandler {
	return &CurrencyHandler{currencyService: currencyService}
}

// UpsertCurrencyRequest represents the request payload for setting a rate by hand.
type UpsertCurrencyRequest struct {
	Code string  `json:"code" binding:"required,iso4217"`
	Rate float64 `json:"rate" binding:"required,gt=0"`
}

// RebaseRequest represents the request payload for changing the base currency.
type RebaseRequest struct {
	Code string `json:"code" binding:"required,iso4217"`
}

// GetCurrencies handles retrieval of the user's stored rates
// @Summary     List currencies
// @Description Get the user's stored exchange rates, expressed per one unit of the base currency
// @Tags        currencies
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array} models.Currency "Stored rates"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /currencies [get]
func (h *CurrencyHandler) GetCurrencies(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	currencies, err := h.currencyService.ListCurrencies(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"currencies": currencies})
}

// UpsertCurrency handles setting one rate by hand
// @Summary     Upsert a currency rate
// @Description Insert or overwrite the stored rate for one currency code
// @Tags        currencies
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body UpsertCurrencyRequest true "Currency code and rate"
// @Success     200 {object} models.Currency "Stored rate"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /currencies [put]
func (h *CurrencyHandler) UpsertCurrency(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpsertCurrencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	currency, err := h.currencyService.UpsertCurrency(userID, req.Code, req.Rate)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"currency": currency})
}

// RefreshCurrencies handles a refresh from the remote rates feed
// @Summary     Refresh currency rates
// @Description Fetch the latest rates from the remote feed. Concurrent refreshes are dropped; a failed fetch keeps stale rates.
// @Tags        currencies
// @Produce     json
// @Security    BearerAuth
// @Success     202 "Refresh completed or dropped"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /currencies/refresh [post]
func (h *CurrencyHandler) RefreshCurrencies(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.currencyService.Refresh(c.Request.Context(), userID); err != nil {
		respondWithError(c, err)
		return
	}

	c.Status(http.StatusAccepted)
}

// Rebase handles switching the base currency
// @Summary     Change the base currency
// @Description Make the given currency the new base. All stored rates are re-expressed against it atomically.
// @Tags        currencies
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body RebaseRequest true "New base currency code"
// @Success     204 "Base currency changed"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Currency not found"
// @Router      /currencies/rebase [post]
func (h *CurrencyHandler) Rebase(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req RebaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	if err := h.currencyService.Rebase(userID, req.Code); err != nil {
		respondWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
