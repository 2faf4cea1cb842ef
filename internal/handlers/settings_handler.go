package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "coinkeep/internal/errors"
	"coinkeep/internal/services"
)

// SettingsHandler handles user-settings requests.
type SettingsHandler struct {
	settingsService services.SettingsServicer
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(settingsService services.SettingsServicer) *SettingsHandler {
	return &SettingsHandler{settingsService: settingsService}
}

// UpdateOnboardingRequest represents the request payload for the onboarding flag.
type UpdateOnboardingRequest struct {
	Completed *bool `json:"completed" binding:"required"`
}

// GetSettings handles retrieval of the user's settings
// @Summary     Get settings
// @Description Get the authenticated user's settings with defaults filled in
// @Tags        settings
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.UserSettings "Settings"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /settings [get]
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	settings, err := h.settingsService.GetSettings(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, settings)
}

// UpdateOnboarding handles flipping the onboarding flag
// @Summary     Update onboarding state
// @Description Mark onboarding as completed or reset it
// @Tags        settings
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body UpdateOnboardingRequest true "Onboarding state"
// @Success     204 "Onboarding state updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /settings/onboarding [put]
func (h *SettingsHandler) UpdateOnboarding(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateOnboardingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	if err := h.settingsService.SetOnboardingCompleted(userID, *req.Completed); err != nil {
		respondWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
