package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campuspay/fee-ledger-api/internal/models"
	appErrors "github.com/campuspay/fee-ledger-api/pkg/errors"
)

type feePlanRepo interface {
	FindByID(ctx context.Context, id string) (*models.FeePlan, error)
	Create(ctx context.Context, plan *models.FeePlan) error
	Update(ctx context.Context, plan *models.FeePlan) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter models.FeePlanFilter) ([]models.FeePlan, int, error)
}

type studentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

// LateFeeRuleInput is one late fee window of a plan payload.
type LateFeeRuleInput struct {
	FineAmount float64   `json:"fineAmount" validate:"required,gt=0"`
	FromDate   time.Time `json:"fromDate" validate:"required"`
	ToDate     time.Time `json:"toDate" validate:"required"`
}

// ScholarshipGrantInput is one scholarship window of a plan payload.
type ScholarshipGrantInput struct {
	StudentID string    `json:"studentId" validate:"required"`
	Type      string    `json:"type" validate:"required"`
	Amount    float64   `json:"amount" validate:"required,gt=0"`
	FromDate  time.Time `json:"fromDate" validate:"required"`
	ToDate    time.Time `json:"toDate" validate:"required"`
}

// FeePlanRequest is the create/update payload for a fee plan.
type FeePlanRequest struct {
	Name         string                  `json:"name" validate:"required"`
	CourseID     string                  `json:"course" validate:"required"`
	BatchID      string                  `json:"batch" validate:"required"`
	Amount       float64                 `json:"amount" validate:"gte=0"`
	Components   models.FeeComponents    `json:"components"`
	DueDate      time.Time               `json:"dueDate" validate:"required"`
	LateFees     []LateFeeRuleInput      `json:"lateFees" validate:"dive"`
	Scholarships []ScholarshipGrantInput `json:"scholarships" validate:"dive"`
}

// FeePlanService manages the pricing templates ledger entries derive from.
type FeePlanService struct {
	repo      feePlanRepo
	students  studentReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewFeePlanService constructs FeePlanService.
func NewFeePlanService(repo feePlanRepo, students studentReader, validate *validator.Validate, logger *zap.Logger) *FeePlanService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeePlanService{repo: repo, students: students, validator: validate, logger: logger}
}

// Create persists a new fee plan.
func (s *FeePlanService) Create(ctx context.Context, req FeePlanRequest) (*models.FeePlan, error) {
	plan, err := s.buildPlan(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, plan); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create fee plan")
	}
	return plan, nil
}

// Update replaces an existing fee plan's definition.
func (s *FeePlanService) Update(ctx context.Context, id string, req FeePlanRequest) (*models.FeePlan, error) {
	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	plan, err := s.buildPlan(ctx, req)
	if err != nil {
		return nil, err
	}
	plan.ID = existing.ID
	plan.CreatedAt = existing.CreatedAt
	if err := s.repo.Update(ctx, plan); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update fee plan")
	}
	return plan, nil
}

// Delete removes a fee plan. Ledger entries referencing it stay intact; the
// derivation engine treats the missing plan as having no rules.
func (s *FeePlanService) Delete(ctx context.Context, id string) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete fee plan")
	}
	return nil
}

// GetByID returns a fee plan.
func (s *FeePlanService) GetByID(ctx context.Context, id string) (*models.FeePlan, error) {
	plan, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "fee plan not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load fee plan")
	}
	return plan, nil
}

// List returns fee plans with pagination metadata.
func (s *FeePlanService) List(ctx context.Context, filter models.FeePlanFilter) ([]models.FeePlan, *models.Pagination, error) {
	plans, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list fee plans")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return plans, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

func (s *FeePlanService) buildPlan(ctx context.Context, req FeePlanRequest) (*models.FeePlan, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid fee plan payload")
	}

	lateFees := make(models.LateFeeRules, 0, len(req.LateFees))
	for i, rule := range req.LateFees {
		if rule.ToDate.Before(rule.FromDate) {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("late fee window %d ends before it starts", i+1))
		}
		lateFees = append(lateFees, models.LateFeeRule(rule))
	}

	scholarships := make(models.ScholarshipGrants, 0, len(req.Scholarships))
	for i, grant := range req.Scholarships {
		if grant.ToDate.Before(grant.FromDate) {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("scholarship window %d ends before it starts", i+1))
		}
		if _, err := s.students.FindByID(ctx, grant.StudentID); err != nil {
			if err == sql.ErrNoRows {
				return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("scholarship %d references an unknown student", i+1))
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate scholarship student")
		}
		scholarships = append(scholarships, models.ScholarshipGrant(grant))
	}

	amount := req.Amount
	if amount == 0 {
		amount = req.Components.Total()
	}

	return &models.FeePlan{
		Name:         req.Name,
		CourseID:     req.CourseID,
		BatchID:      req.BatchID,
		Amount:       amount,
		Components:   req.Components,
		DueDate:      req.DueDate,
		LateFees:     lateFees,
		Scholarships: scholarships,
	}, nil
}
