package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campuspay/fee-ledger-api/internal/dto"
	"github.com/campuspay/fee-ledger-api/internal/models"
	"github.com/campuspay/fee-ledger-api/internal/service"
	appErrors "github.com/campuspay/fee-ledger-api/pkg/errors"
	"github.com/campuspay/fee-ledger-api/pkg/response"
)

type summaryService interface {
	Dashboard(ctx context.Context) (*dto.SummaryResponse, error)
	Filtered(ctx context.Context, query service.SummaryQuery) (*dto.SummaryResponse, error)
	ExportCSV(ctx context.Context, query service.SummaryQuery) ([]byte, string, error)
	ExportPDF(ctx context.Context, query service.SummaryQuery) ([]byte, string, error)
	SearchStudents(ctx context.Context, name string) ([]models.StudentSearchResult, error)
	Courses(ctx context.Context) ([]models.Course, error)
	Batches(ctx context.Context) ([]models.Batch, error)
}

type historyService interface {
	GetByID(ctx context.Context, id string) (*models.LedgerEntry, error)
}

// SummaryHandler wires the reporting service to HTTP endpoints.
type SummaryHandler struct {
	service summaryService
	ledger  historyService
}

// NewSummaryHandler constructs the handler.
func NewSummaryHandler(service summaryService, ledger historyService) *SummaryHandler {
	return &SummaryHandler{service: service, ledger: ledger}
}

// Dashboard godoc
// @Summary Unfiltered financial summary
// @Tags FeeSummary
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /fee-summary/dashboard [get]
func (h *SummaryHandler) Dashboard(c *gin.Context) {
	summary, err := h.service.Dashboard(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// Analytics godoc
// @Summary Filtered financial summary
// @Tags FeeSummary
// @Produce json
// @Param courseName query string false "Course name"
// @Param batchStartYear query int false "Batch start year"
// @Param batchEndYear query int false "Batch end year"
// @Param section query string false "Section ID"
// @Param semester query int false "Semester"
// @Param status query string false "Status filter"
// @Param startDate query string false "Start of payment date range (YYYY-MM-DD)"
// @Param endDate query string false "End of payment date range (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /fee-summary/analytics [get]
func (h *SummaryHandler) Analytics(c *gin.Context) {
	query, err := parseSummaryQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	summary, err := h.service.Filtered(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// Export godoc
// @Summary Export the filtered summary as CSV or PDF
// @Tags FeeSummary
// @Produce text/csv
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} file
// @Router /fee-summary/export [get]
func (h *SummaryHandler) Export(c *gin.Context) {
	query, err := parseSummaryQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	format := strings.ToLower(c.DefaultQuery("format", "csv"))
	var payload []byte
	var filename, contentType string
	switch format {
	case "csv":
		payload, filename, err = h.service.ExportCSV(c.Request.Context(), query)
		contentType = "text/csv"
	case "pdf":
		payload, filename, err = h.service.ExportPDF(c.Request.Context(), query)
		contentType = "application/pdf"
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf"))
		return
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, contentType, payload)
}

// History godoc
// @Summary Payment history of a fee payment record
// @Tags FeeSummary
// @Produce json
// @Param feePaymentId path string true "Fee payment ID"
// @Success 200 {object} response.Envelope
// @Router /fee-summary/{feePaymentId}/history [get]
func (h *SummaryHandler) History(c *gin.Context) {
	entry, err := h.ledger.GetByID(c.Request.Context(), c.Param("feePaymentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.HistoryResponse{
		PaymentHistory: entry.PaymentHistory,
		Transactions:   entry.Transactions,
	}, nil)
}

// SearchStudents godoc
// @Summary Search students with their fee status
// @Tags FeeSummary
// @Produce json
// @Param name query string false "Name fragment"
// @Success 200 {object} response.Envelope
// @Router /fee-summary/students/search [get]
func (h *SummaryHandler) SearchStudents(c *gin.Context) {
	results, err := h.service.SearchStudents(c.Request.Context(), strings.TrimSpace(c.Query("name")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, results, nil)
}

// Courses godoc
// @Summary List courses for report filters
// @Tags FeeSummary
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /fee-summary/courses [get]
func (h *SummaryHandler) Courses(c *gin.Context) {
	courses, err := h.service.Courses(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, nil)
}

// Batches godoc
// @Summary List batches for report filters
// @Tags FeeSummary
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /fee-summary/batches [get]
func (h *SummaryHandler) Batches(c *gin.Context) {
	batches, err := h.service.Batches(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, batches, nil)
}

func parseSummaryQuery(c *gin.Context) (service.SummaryQuery, error) {
	query := service.SummaryQuery{
		CourseName: strings.TrimSpace(c.Query("courseName")),
		SectionID:  strings.TrimSpace(c.Query("section")),
		Status:     models.LedgerStatus(strings.TrimSpace(c.Query("status"))),
	}
	if query.Status != "" && !query.Status.Valid() {
		return query, appErrors.Clone(appErrors.ErrValidation, "invalid status filter")
	}

	if raw := strings.TrimSpace(c.Query("batchStartYear")); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			return query, appErrors.Clone(appErrors.ErrValidation, "invalid batchStartYear")
		}
		query.BatchStartYear = year
	}
	if raw := strings.TrimSpace(c.Query("batchEndYear")); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			return query, appErrors.Clone(appErrors.ErrValidation, "invalid batchEndYear")
		}
		query.BatchEndYear = year
	}
	if (query.BatchStartYear == 0) != (query.BatchEndYear == 0) {
		return query, appErrors.Clone(appErrors.ErrValidation, "batchStartYear and batchEndYear must be provided together")
	}
	if raw := strings.TrimSpace(c.Query("semester")); raw != "" {
		semester, err := strconv.Atoi(raw)
		if err != nil {
			return query, appErrors.Clone(appErrors.ErrValidation, "invalid semester")
		}
		query.Semester = &semester
	}
	if raw := strings.TrimSpace(c.Query("startDate")); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return query, appErrors.Clone(appErrors.ErrValidation, "invalid startDate, expected YYYY-MM-DD")
		}
		query.StartDate = &parsed
	}
	if raw := strings.TrimSpace(c.Query("endDate")); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return query, appErrors.Clone(appErrors.ErrValidation, "invalid endDate, expected YYYY-MM-DD")
		}
		end := parsed.Add(24*time.Hour - time.Nanosecond)
		query.EndDate = &end
	}
	if query.StartDate != nil && query.EndDate != nil && query.EndDate.Before(*query.StartDate) {
		return query, appErrors.Clone(appErrors.ErrValidation, "endDate is before startDate")
	}
	return query, nil
}
