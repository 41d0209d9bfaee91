package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/campuspay/fee-ledger-api/internal/models"
	"github.com/campuspay/fee-ledger-api/internal/service"
	appErrors "github.com/campuspay/fee-ledger-api/pkg/errors"
	"github.com/campuspay/fee-ledger-api/pkg/response"
)

type feePlanService interface {
	Create(ctx context.Context, req service.FeePlanRequest) (*models.FeePlan, error)
	Update(ctx context.Context, id string, req service.FeePlanRequest) (*models.FeePlan, error)
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*models.FeePlan, error)
	List(ctx context.Context, filter models.FeePlanFilter) ([]models.FeePlan, *models.Pagination, error)
}

// FeePlanHandler wires fee plan management to HTTP endpoints.
type FeePlanHandler struct {
	service feePlanService
}

// NewFeePlanHandler constructs the handler.
func NewFeePlanHandler(service feePlanService) *FeePlanHandler {
	return &FeePlanHandler{service: service}
}

// Create godoc
// @Summary Create a fee plan
// @Tags FeePlans
// @Accept json
// @Produce json
// @Param payload body service.FeePlanRequest true "Fee plan payload"
// @Success 201 {object} response.Envelope
// @Router /fee-plans [post]
func (h *FeePlanHandler) Create(c *gin.Context) {
	var req service.FeePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid fee plan payload"))
		return
	}
	plan, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, plan)
}

// Update godoc
// @Summary Update a fee plan
// @Tags FeePlans
// @Accept json
// @Produce json
// @Param id path string true "Fee plan ID"
// @Param payload body service.FeePlanRequest true "Fee plan payload"
// @Success 200 {object} response.Envelope
// @Router /fee-plans/{id} [put]
func (h *FeePlanHandler) Update(c *gin.Context) {
	var req service.FeePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid fee plan payload"))
		return
	}
	plan, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plan, nil)
}

// Delete godoc
// @Summary Delete a fee plan
// @Tags FeePlans
// @Param id path string true "Fee plan ID"
// @Success 204
// @Router /fee-plans/{id} [delete]
func (h *FeePlanHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// GetByID godoc
// @Summary Get a fee plan
// @Tags FeePlans
// @Produce json
// @Param id path string true "Fee plan ID"
// @Success 200 {object} response.Envelope
// @Router /fee-plans/{id} [get]
func (h *FeePlanHandler) GetByID(c *gin.Context) {
	plan, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plan, nil)
}

// List godoc
// @Summary List fee plans
// @Tags FeePlans
// @Produce json
// @Param course query string false "Course ID filter"
// @Param batch query string false "Batch ID filter"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /fee-plans [get]
func (h *FeePlanHandler) List(c *gin.Context) {
	filter := models.FeePlanFilter{
		CourseID: strings.TrimSpace(c.Query("course")),
		BatchID:  strings.TrimSpace(c.Query("batch")),
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))

	plans, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plans, pagination)
}
