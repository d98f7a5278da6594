package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "spendtree/internal/errors"
	"spendtree/internal/services"
)

// ReportHandler serves period reports grouped by category path.
type ReportHandler struct {
	reportService services.ReportServicer
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(reportService services.ReportServicer) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// GetPeriodReport totals every expense of the period by category path
// @Summary     Period report
// @Tags        reports
// @Produce     json
// @Security    BearerAuth
// @Param       start query string true "Period start (RFC3339 or YYYY-MM-DD)"
// @Param       end   query string true "Period end, inclusive (RFC3339 or YYYY-MM-DD)"
// @Success     200 {object} services.Report "Report"
// @Failure     400 {object} ErrorResponse "Invalid period"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /reports/period [get]
func (h *ReportHandler) GetPeriodReport(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	start, end, err := parsePeriod(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	report, err := h.reportService.Generate(c.Request.Context(), userID, start, end)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"report": report})
}

// GetCategoryTreeReport restricts the period report to one category subtree
// @Summary     Category subtree report
// @Tags        reports
// @Produce     json
// @Security    BearerAuth
// @Param       start            query string true "Period start (RFC3339 or YYYY-MM-DD)"
// @Param       end              query string true "Period end, inclusive (RFC3339 or YYYY-MM-DD)"
// @Param       root_category_id query string true "Subtree root category ID"
// @Success     200 {object} services.Report "Report"
// @Failure     400 {object} ErrorResponse "Invalid period or category ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Router      /reports/category-tree [get]
func (h *ReportHandler) GetCategoryTreeReport(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	start, end, err := parsePeriod(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	raw := c.Query("root_category_id")
	rootID, err := parseOptionalID(&raw, "root_category_id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	if rootID == nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "root_category_id is required"))
		return
	}

	report, err := h.reportService.GenerateForCategoryTree(c.Request.Context(), userID, start, end, *rootID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"report": report})
}

// parsePeriod reads start and end. A plain end date covers that whole day.
func parsePeriod(c *gin.Context) (time.Time, time.Time, error) {
	rawStart, rawEnd := c.Query("start"), c.Query("end")
	if rawStart == "" || rawEnd == "" {
		return time.Time{}, time.Time{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "start and end are required")
	}

	start, err := parseFlexibleTime(rawStart)
	if err != nil {
		return time.Time{}, time.Time{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid start format, use RFC3339 or YYYY-MM-DD")
	}
	end, err := parseFlexibleTime(rawEnd)
	if err != nil {
		return time.Time{}, time.Time{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid end format, use RFC3339 or YYYY-MM-DD")
	}
	if len(rawEnd) == len("2006-01-02") {
		end = end.Add(24*time.Hour - time.Nanosecond)
	}
	return start, end, nil
}
