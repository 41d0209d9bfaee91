package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/campuspay/fee-ledger-api/internal/middleware"
	"github.com/campuspay/fee-ledger-api/internal/models"
	"github.com/campuspay/fee-ledger-api/internal/service"
	appErrors "github.com/campuspay/fee-ledger-api/pkg/errors"
	"github.com/campuspay/fee-ledger-api/pkg/response"
)

type ledgerService interface {
	Create(ctx context.Context, req service.CreateLedgerRequest, actor string) (*models.LedgerEntry, string, error)
	AddTransaction(ctx context.Context, req service.AddTransactionRequest, actor string) (*models.LedgerEntry, error)
	ApplyAdjustment(ctx context.Context, req service.ApplyAdjustmentRequest, actor string) (*models.LedgerEntry, error)
	ApplyLateFee(ctx context.Context, req service.ApplyLateFeeRequest, actor string) (*models.LedgerEntry, error)
	Update(ctx context.Context, id string, req service.UpdateLedgerRequest, actor string) (*models.LedgerEntry, error)
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*models.LedgerEntry, error)
	ListByStudent(ctx context.Context, filter models.LedgerFilter) ([]models.LedgerEntry, *models.Pagination, error)
}

// LedgerHandler wires the fee payment service to HTTP endpoints.
type LedgerHandler struct {
	service ledgerService
}

// NewLedgerHandler constructs the handler.
func NewLedgerHandler(service ledgerService) *LedgerHandler {
	return &LedgerHandler{service: service}
}

// Create godoc
// @Summary Create a fee payment record
// @Tags FeePayments
// @Accept json
// @Produce json
// @Param payload body service.CreateLedgerRequest true "Fee payment payload"
// @Success 201 {object} response.Envelope
// @Router /fee-payments [post]
func (h *LedgerHandler) Create(c *gin.Context) {
	var req service.CreateLedgerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid fee payment payload"))
		return
	}
	entry, warning, err := h.service.Create(c.Request.Context(), req, middleware.Actor(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	var meta map[string]interface{}
	if warning != "" {
		meta = map[string]interface{}{"warning": warning}
	}
	response.JSON(c, http.StatusCreated, entry, nil, meta)
}

// AddTransaction godoc
// @Summary Record a payment transaction
// @Tags FeePayments
// @Accept json
// @Produce json
// @Param payload body service.AddTransactionRequest true "Transaction payload"
// @Success 200 {object} response.Envelope
// @Router /fee-payments/transaction [put]
func (h *LedgerHandler) AddTransaction(c *gin.Context) {
	var req service.AddTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "transaction must include amount and paymentMethod"))
		return
	}
	entry, err := h.service.AddTransaction(c.Request.Context(), req, middleware.Actor(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}

// ApplyAdjustment godoc
// @Summary Apply a manual scholarship or discount
// @Tags FeePayments
// @Accept json
// @Produce json
// @Param payload body service.ApplyAdjustmentRequest true "Adjustment payload"
// @Success 200 {object} response.Envelope
// @Router /fee-payments/apply-discount [put]
func (h *LedgerHandler) ApplyAdjustment(c *gin.Context) {
	var req service.ApplyAdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, `type must be either "scholarship" or "discount"`))
		return
	}
	entry, err := h.service.ApplyAdjustment(c.Request.Context(), req, middleware.Actor(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}

// ApplyLateFee godoc
// @Summary Apply a manual late fee
// @Tags FeePayments
// @Accept json
// @Produce json
// @Param payload body service.ApplyLateFeeRequest true "Late fee payload"
// @Success 200 {object} response.Envelope
// @Router /fee-payments/apply-late-fee [put]
func (h *LedgerHandler) ApplyLateFee(c *gin.Context) {
	var req service.ApplyLateFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "valid fine amount is required"))
		return
	}
	entry, err := h.service.ApplyLateFee(c.Request.Context(), req, middleware.Actor(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}

// ListByStudent godoc
// @Summary List a student's fee payment records
// @Tags FeePayments
// @Produce json
// @Param studentId path string true "Student ID"
// @Param status query string false "Status filter"
// @Param course query string false "Course ID filter"
// @Param batch query string false "Batch ID filter"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /fee-payments/student/{studentId} [get]
func (h *LedgerHandler) ListByStudent(c *gin.Context) {
	filter := models.LedgerFilter{
		StudentID: c.Param("studentId"),
		Status:    models.LedgerStatus(strings.TrimSpace(c.Query("status"))),
		CourseID:  strings.TrimSpace(c.Query("course")),
		BatchID:   strings.TrimSpace(c.Query("batch")),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid status filter"))
		return
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("limit", "10"))

	entries, pagination, err := h.service.ListByStudent(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, pagination)
}

// GetByID godoc
// @Summary Get a fee payment record
// @Tags FeePayments
// @Produce json
// @Param id path string true "Fee payment ID"
// @Success 200 {object} response.Envelope
// @Router /fee-payments/{id} [get]
func (h *LedgerHandler) GetByID(c *gin.Context) {
	entry, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}

// Update godoc
// @Summary Update a fee payment record
// @Tags FeePayments
// @Accept json
// @Produce json
// @Param id path string true "Fee payment ID"
// @Param payload body service.UpdateLedgerRequest true "Update payload"
// @Success 200 {object} response.Envelope
// @Router /fee-payments/{id} [put]
func (h *LedgerHandler) Update(c *gin.Context) {
	var req service.UpdateLedgerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid fee payment update"))
		return
	}
	entry, err := h.service.Update(c.Request.Context(), c.Param("id"), req, middleware.Actor(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}

// Delete godoc
// @Summary Delete a fee payment record
// @Tags FeePayments
// @Param id path string true "Fee payment ID"
// @Success 204
// @Router /fee-payments/{id} [delete]
func (h *LedgerHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
