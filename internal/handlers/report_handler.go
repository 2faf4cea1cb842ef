package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"coinkeep/internal/services"
)

// ReportHandler handles aggregated report requests.
type ReportHandler struct {
	reportService services.ReportServicer
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportService services.ReportServicer) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// GetNetWorth handles retrieval of the net-worth report
// @Summary     Get net worth
// @Description Get the total balance of all accounts expressed in the base currency, with per-currency subtotals
// @Tags        reports
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.NetWorthReport "Net worth"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Missing exchange rate"
// @Router      /reports/net-worth [get]
func (h *ReportHandler) GetNetWorth(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	report, err := h.reportService.NetWorth(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// GetCategoryBreakdown handles retrieval of the per-category breakdown
// @Summary     Get category breakdown
// @Description Get per-month, per-category signed nets over a window, filtered to one polarity
// @Tags        reports
// @Produce     json
// @Security    BearerAuth
// @Param       from     query string true  "Window start (RFC3339 or YYYY-MM-DD)"
// @Param       to       query string true  "Window end (RFC3339 or YYYY-MM-DD)"
// @Param       polarity query string false "Which nets to keep: income or expense (default expense)"
// @Success     200 {object} services.CategoryBreakdown "Breakdown keyed by YYYY-MM period"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /reports/categories [get]
func (h *ReportHandler) GetCategoryBreakdown(c *gin.Context) {
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

	positive := c.DefaultQuery("polarity", "expense") == "income"
	breakdown, err := h.reportService.CategoryBreakdown(userID, from, to, positive)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, breakdown)
}

// GetProjection handles retrieval of the cash-flow projection
// @Summary     Get cash-flow projection
// @Description Expand planned transactions over a window and express the expected net in the base currency
// @Tags        reports
// @Produce     json
// @Security    BearerAuth
// @Param       from query string true "Window start (RFC3339 or YYYY-MM-DD)"
// @Param       to   query string true "Window end (RFC3339 or YYYY-MM-DD)"
// @Success     200 {object} services.ProjectionReport "Projection"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Missing exchange rate"
// @Router      /reports/projection [get]
func (h *ReportHandler) GetProjection(c *gin.Context) {
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

	report, err := h.reportService.Projection(userID, from, to)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}
