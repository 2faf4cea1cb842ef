package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "coinkeep/internal/errors"
	"coinkeep/internal/models"
	"coinkeep/internal/pagination"
	"coinkeep/internal/services"
)

// PlannedHandler handles planned-transaction requests.
type PlannedHandler struct {
	plannedService services.PlannedServicer
}

// NewPlannedHandler creates a new PlannedHandler.
func NewPlannedHandler(plannedService services.PlannedServicer) *PlannedHandler {
	return &PlannedHandler{plannedService: plannedService}
}

// CreatePlannedRequest represents the request payload for creating a planned transaction
type CreatePlannedRequest struct {
	Name       string     `json:"name" binding:"required,min=1,max=200"`
	Type       string     `json:"type" binding:"required,transaction_type"`
	CategoryID *string    `json:"category_id" binding:"omitempty,uuid"`
	Currency   string     `json:"currency" binding:"omitempty,iso4217"`
	Amount     int64      `json:"amount" binding:"required,gt=0"`
	StartDate  time.Time  `json:"start_date" binding:"required"`
	EndDate    *time.Time `json:"end_date"`
	Recurrence string     `json:"recurrence" binding:"required,recurrence_type"`
	Every      int        `json:"every" binding:"omitempty,min=1"`
}

// UpdatePlannedRequest represents the request payload for updating a planned
// transaction. ClearEndDate removes the end date and wins over EndDate.
type UpdatePlannedRequest struct {
	Name         *string    `json:"name" binding:"omitempty,min=1,max=200"`
	CategoryID   *string    `json:"category_id" binding:"omitempty,uuid"`
	Amount       *int64     `json:"amount" binding:"omitempty,gt=0"`
	StartDate    *time.Time `json:"start_date"`
	EndDate      *time.Time `json:"end_date"`
	ClearEndDate bool       `json:"clear_end_date"`
	Recurrence   *string    `json:"recurrence" binding:"omitempty,recurrence_type"`
	Every        *int       `json:"every" binding:"omitempty,min=1"`
}

// CreatePlanned handles the creation of a planned transaction
// @Summary     Create a planned transaction
// @Description Create a template for a future or recurring transaction
// @Tags        planned
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreatePlannedRequest true "Planned transaction details"
// @Success     201 {object} models.PlannedTransaction "Planned transaction created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Router      /planned [post]
func (h *PlannedHandler) CreatePlanned(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreatePlannedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	planned, err := h.plannedService.CreatePlanned(userID, services.PlannedInput{
		Name:       req.Name,
		Type:       models.TransactionType(req.Type),
		CategoryID: req.CategoryID,
		Currency:   req.Currency,
		Amount:     req.Amount,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
		Recurrence: models.RecurrenceType(req.Recurrence),
		Every:      req.Every,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"planned": planned})
}

// GetPlanned handles retrieval of the user's planned transactions
// @Summary     List planned transactions
// @Description Get a paginated list of the user's planned transaction templates
// @Tags        planned
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.PlannedTransaction] "Paginated planned transactions"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /planned [get]
func (h *PlannedHandler) GetPlanned(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.plannedService.GetUserPlanned(userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetPlannedByID handles retrieval of a single planned transaction
// @Summary     Get a planned transaction
// @Description Get one of the authenticated user's planned transactions by ID
// @Tags        planned
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Planned transaction ID"
// @Success     200 {object} models.PlannedTransaction "Planned transaction"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Planned transaction not found"
// @Router      /planned/{id} [get]
func (h *PlannedHandler) GetPlannedByID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	plannedID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	planned, err := h.plannedService.GetPlannedByID(userID, plannedID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"planned": planned})
}

// GetOccurrences handles projecting planned transactions over a window
// @Summary     Project planned occurrences
// @Description Expand every planned transaction into concrete dated occurrences inside [from, to]
// @Tags        planned
// @Produce     json
// @Security    BearerAuth
// @Param       from query string true "Window start (RFC3339 or YYYY-MM-DD)"
// @Param       to   query string true "Window end (RFC3339 or YYYY-MM-DD)"
// @Success     200 {array} services.PlannedOccurrence "Occurrences sorted by date"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /planned/occurrences [get]
func (h *PlannedHandler) GetOccurrences(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	from, to, err := parseWindow(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	occurrences, err := h.plannedService.Project(userID, from, to)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"occurrences": occurrences})
}

// UpdatePlanned handles updating a planned transaction
// @Summary     Update a planned transaction
// @Description Update a planned transaction template
// @Tags        planned
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string               true "Planned transaction ID"
// @Param       request body UpdatePlannedRequest true "Fields to update"
// @Success     200 {object} models.PlannedTransaction "Updated planned transaction"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Planned transaction not found"
// @Router      /planned/{id} [put]
func (h *PlannedHandler) UpdatePlanned(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	plannedID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdatePlannedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	fields := services.PlannedUpdateFields{
		Name:         req.Name,
		CategoryID:   req.CategoryID,
		Amount:       req.Amount,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		ClearEndDate: req.ClearEndDate,
		Every:        req.Every,
	}
	if req.Recurrence != nil {
		recurrence := models.RecurrenceType(*req.Recurrence)
		fields.Recurrence = &recurrence
	}

	planned, err := h.plannedService.UpdatePlanned(userID, plannedID, fields)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"planned": planned})
}

// DeletePlanned handles deleting a planned transaction
// @Summary     Delete a planned transaction
// @Description Delete a planned transaction template
// @Tags        planned
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Planned transaction ID"
// @Success     204 "Planned transaction deleted"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Planned transaction not found"
// @Router      /planned/{id} [delete]
func (h *PlannedHandler) DeletePlanned(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	plannedID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.plannedService.DeletePlanned(userID, plannedID); err != nil {
		respondWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// parseWindow reads the required from/to window query parameters.
func parseWindow(c *gin.Context) (time.Time, time.Time, error) {
	from, err := parseDateQuery(c, "from")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := parseDateQuery(c, "to")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if from == nil || to == nil {
		return time.Time{}, time.Time{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "from and to are required")
	}
	return *from, *to, nil
}
