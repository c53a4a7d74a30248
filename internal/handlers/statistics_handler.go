package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"finledger/internal/services"
)

// StatisticsHandler serves monthly category reports.
type StatisticsHandler struct {
	statisticsService services.StatisticsServicer
}

// NewStatisticsHandler creates a new StatisticsHandler
func NewStatisticsHandler(statisticsService services.StatisticsServicer) *StatisticsHandler {
	return &StatisticsHandler{statisticsService: statisticsService}
}

// MonthBucketResponse is one month of a report.
type MonthBucketResponse struct {
	Month string `json:"month"`
	Total string `json:"total"`
}

// ReportResponse is the monthly report of one category.
type ReportResponse struct {
	CategoryID   string                `json:"category_id"`
	CategoryName string                `json:"category_name"`
	Buckets      []MonthBucketResponse `json:"buckets"`
	MaxValue     string                `json:"max_value"`
}

func newReportResponse(r *services.Report) ReportResponse {
	buckets := make([]MonthBucketResponse, len(r.Buckets))
	for i, b := range r.Buckets {
		buckets[i] = MonthBucketResponse{Month: b.Month, Total: formatAmount(b.Total)}
	}
	return ReportResponse{
		CategoryID:   r.CategoryID,
		CategoryName: r.CategoryName,
		Buckets:      buckets,
		MaxValue:     formatAmount(r.MaxValue),
	}
}

// GetMonthlyReport handles the monthly statistics of a category
// @Summary     Monthly report
// @Description Sum the transactions of the selected category, and of every category with the same name and type, per month. The range applies only when both dates are given.
// @Tags        statistics
// @Produce     json
// @Security    BearerAuth
// @Param       category_id query string true  "Category ID"
// @Param       start_date  query string false "Inclusive start date (YYYY-MM-DD)"
// @Param       end_date    query string false "Inclusive end date (YYYY-MM-DD)"
// @Success     200 {object} ReportResponse "Monthly totals"
// @Failure     400 {object} ErrorResponse "Missing category, invalid input or range"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Router      /statistics [get]
func (h *StatisticsHandler) GetMonthlyReport(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	req := services.ReportRequest{CategoryID: c.Query("category_id")}
	if req.CategoryID != "" {
		if _, err := parseQueryID(req.CategoryID); err != nil {
			respondWithError(c, err)
			return
		}
	}
	if req.StartDate, err = optionalDate(c, "start_date"); err != nil {
		respondWithError(c, err)
		return
	}
	if req.EndDate, err = optionalDate(c, "end_date"); err != nil {
		respondWithError(c, err)
		return
	}

	report, err := h.statisticsService.MonthlyReport(c.Request.Context(), userID, req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, newReportResponse(report))
}
