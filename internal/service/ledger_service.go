package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campuspay/fee-ledger-api/internal/ledger"
	"github.com/campuspay/fee-ledger-api/internal/models"
	"github.com/campuspay/fee-ledger-api/internal/repository"
	appErrors "github.com/campuspay/fee-ledger-api/pkg/errors"
)

// writes that lose the optimistic-lock race reload and retry this many times
const maxWriteRetries = 3

type ledgerRepo interface {
	FindByID(ctx context.Context, id string) (*models.LedgerEntry, error)
	ExistsForStudentAndPlan(ctx context.Context, studentID, planID string) (bool, error)
	Create(ctx context.Context, entry *models.LedgerEntry) error
	Update(ctx context.Context, entry *models.LedgerEntry) error
	Delete(ctx context.Context, id string) error
	ListByStudent(ctx context.Context, filter models.LedgerFilter) ([]models.LedgerEntry, int, error)
}

type feePlanReader interface {
	FindByID(ctx context.Context, id string) (*models.FeePlan, error)
}

type studentStore interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	AppendFeePaymentRef(ctx context.Context, studentID, paymentID string) error
	RemoveFeePaymentRef(ctx context.Context, studentID, paymentID string) error
}

type summaryInvalidator interface {
	InvalidateSummaries(ctx context.Context) error
}

// TransactionInput is the payment payload accepted at creation and when
// recording further transactions.
type TransactionInput struct {
	TransactionID string                   `json:"transactionId"`
	Amount        float64                  `json:"amount" validate:"gte=0"`
	PaymentMethod models.PaymentMethod     `json:"paymentMethod" validate:"required"`
	Status        models.TransactionStatus `json:"status" validate:"omitempty,oneof=pending completed failed refunded"`
	ReceiptURL    string                   `json:"receiptUrl"`
	Notes         string                   `json:"notes"`
}

// CreateLedgerRequest opens a fee payment record for a student on a plan.
// Cohort fields and amounts default from the plan when omitted.
type CreateLedgerRequest struct {
	StudentID   string                    `json:"student" validate:"required"`
	FeePlanID   string                    `json:"feePlan" validate:"required"`
	CourseID    string                    `json:"course"`
	BatchID     string                    `json:"batch"`
	SectionID   *string                   `json:"section"`
	TotalAmount *float64                  `json:"totalAmount" validate:"omitempty,gte=0"`
	DueDate     *time.Time                `json:"dueDate"`
	Transaction *TransactionInput         `json:"transaction"`
	Custom      *models.CustomScholarship `json:"customScholarship"`
}

// AddTransactionRequest records a payment against an existing record.
type AddTransactionRequest struct {
	FeePaymentID string           `json:"feePaymentId" validate:"required"`
	Transaction  TransactionInput `json:"transaction" validate:"required"`
}

// AdjustmentKind is either a manual scholarship or a discount.
type AdjustmentKind string

const (
	AdjustScholarship AdjustmentKind = "scholarship"
	AdjustDiscount    AdjustmentKind = "discount"
)

// ApplyAdjustmentRequest applies a manual scholarship or discount.
type ApplyAdjustmentRequest struct {
	FeePaymentID string         `json:"feePaymentId" validate:"required"`
	Amount       float64        `json:"amount" validate:"required,gt=0"`
	Kind         AdjustmentKind `json:"type" validate:"required,oneof=scholarship discount"`
	Description  string         `json:"description"`
	CustomType   string         `json:"customScholarshipType"`
}

// ApplyLateFeeRequest applies a manual fine on top of any plan-derived one.
type ApplyLateFeeRequest struct {
	FeePaymentID string  `json:"feePaymentId" validate:"required"`
	FineAmount   float64 `json:"fineAmount" validate:"required,gt=0"`
	Description  string  `json:"description"`
}

// UpdateLedgerRequest patches administrative fields of a record.
type UpdateLedgerRequest struct {
	Status  models.LedgerStatus `json:"status" validate:"omitempty,oneof=pending partially_paid fully_paid overdue waived"`
	DueDate *time.Time          `json:"dueDate"`
}

// LedgerService orchestrates fee payment record workflows. Every write path
// funnels through the derivation engine before persisting, guarded by the
// record version.
type LedgerService struct {
	repo      ledgerRepo
	plans     feePlanReader
	students  studentStore
	summaries summaryInvalidator
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewLedgerService constructs LedgerService.
func NewLedgerService(repo ledgerRepo, plans feePlanReader, students studentStore, summaries summaryInvalidator, validate *validator.Validate, logger *zap.Logger) *LedgerService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerService{
		repo:      repo,
		plans:     plans,
		students:  students,
		summaries: summaries,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the service clock. Test helper.
func (s *LedgerService) WithClock(now func() time.Time) *LedgerService {
	s.now = now
	return s
}

// WithMetrics attaches the instrumentation sink. Optional.
func (s *LedgerService) WithMetrics(metrics *MetricsService) *LedgerService {
	s.metrics = metrics
	return s
}

// Create opens a fee payment record. The returned warning is non-empty when
// the record was created but the student back-reference could not be written.
func (s *LedgerService) Create(ctx context.Context, req CreateLedgerRequest, actor string) (*models.LedgerEntry, string, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid fee payment payload")
	}
	if req.Transaction != nil {
		if err := s.validator.Struct(req.Transaction); err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid transaction data: non-negative amount and paymentMethod are required")
		}
		if !req.Transaction.PaymentMethod.Valid() {
			return nil, "", appErrors.Clone(appErrors.ErrValidation, "unrecognized payment method")
		}
	}
	if req.Custom != nil && req.Custom.Amount < 0 {
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "invalid customScholarship amount")
	}

	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	plan, err := s.plans.FindByID(ctx, req.FeePlanID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "fee plan not found")
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load fee plan")
	}
	exists, err := s.repo.ExistsForStudentAndPlan(ctx, req.StudentID, req.FeePlanID)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate fee payment")
	}
	if exists {
		return nil, "", appErrors.Clone(appErrors.ErrConflict, "payment already exists for this student and fee plan")
	}

	now := s.now()
	entry := &models.LedgerEntry{
		StudentID: req.StudentID,
		FeePlanID: req.FeePlanID,
		CourseID:  req.CourseID,
		BatchID:   req.BatchID,
		SectionID: req.SectionID,
		DueDate:   plan.DueDate,
		Status:    models.LedgerStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if entry.CourseID == "" {
		entry.CourseID = plan.CourseID
	}
	if entry.BatchID == "" {
		entry.BatchID = plan.BatchID
	}
	if entry.SectionID == nil {
		entry.SectionID = student.SectionID
	}
	entry.TotalAmount = plan.Amount
	if req.TotalAmount != nil {
		entry.TotalAmount = *req.TotalAmount
	}
	if req.DueDate != nil {
		entry.DueDate = *req.DueDate
	}
	if req.Custom != nil {
		entry.CustomScholarship = *req.Custom
	}
	if req.Transaction != nil {
		tx := buildTransaction(*req.Transaction, now)
		entry.Transactions = models.Transactions{tx}
		if tx.Status == models.TransactionCompleted {
			entry.PaymentHistory = append(entry.PaymentHistory, models.HistoryEntry{
				Amount:      tx.Amount,
				Date:        now,
				Type:        models.HistoryPayment,
				Description: "Initial payment via " + string(tx.PaymentMethod),
				RecordedBy:  actor,
			})
		}
	}

	ledger.Recompute(entry, plan, now)
	s.metrics.RecordRecompute()

	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create fee payment")
	}

	warning := ""
	if err := s.students.AppendFeePaymentRef(ctx, entry.StudentID, entry.ID); err != nil {
		s.logger.Warn("failed to link fee payment to student",
			zap.String("student_id", entry.StudentID),
			zap.String("fee_payment_id", entry.ID),
			zap.Error(err))
		warning = "fee payment created but could not be linked to the student record"
	}

	s.invalidateSummaries(ctx)
	return entry, warning, nil
}

// AddTransaction records a payment transaction on an existing record.
func (s *LedgerService) AddTransaction(ctx context.Context, req AddTransactionRequest, actor string) (*models.LedgerEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "transaction must include a non-negative amount and a paymentMethod")
	}
	if !req.Transaction.PaymentMethod.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unrecognized payment method")
	}

	entry, err := s.mutate(ctx, req.FeePaymentID, func(entry *models.LedgerEntry, now time.Time) error {
		tx := buildTransaction(req.Transaction, now)
		if entry.Transactions.HasID(tx.TransactionID) {
			return appErrors.Clone(appErrors.ErrConflict, "transaction with this ID already exists")
		}
		entry.Transactions = append(entry.Transactions, tx)
		if tx.Status == models.TransactionCompleted {
			entry.PaymentHistory = append(entry.PaymentHistory, models.HistoryEntry{
				Amount:      tx.Amount,
				Date:        now,
				Type:        models.HistoryPayment,
				Description: "Payment via " + string(tx.PaymentMethod),
				RecordedBy:  actor,
			})
		}
		return nil
	}, true)
	if err != nil {
		return nil, err
	}

	s.invalidateSummaries(ctx)
	return entry, nil
}

// ApplyAdjustment applies a manual scholarship or discount to a record.
func (s *LedgerService) ApplyAdjustment(ctx context.Context, req ApplyAdjustmentRequest, actor string) (*models.LedgerEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, `type must be either "scholarship" or "discount"`)
	}

	entry, err := s.mutate(ctx, req.FeePaymentID, func(entry *models.LedgerEntry, now time.Time) error {
		historyType := models.HistoryDiscount
		switch req.Kind {
		case AdjustScholarship:
			customType := req.CustomType
			if customType == "" {
				customType = "Manual"
			}
			// A new manual scholarship replaces any previous one.
			entry.CustomScholarship = models.CustomScholarship{Type: customType, Amount: req.Amount}
			entry.ScholarshipApplied += req.Amount
			historyType = models.HistoryScholarship
		case AdjustDiscount:
			entry.DiscountApplied += req.Amount
		}

		description := req.Description
		if description == "" {
			description = "Manual " + string(req.Kind) + " applied"
		}
		entry.PaymentHistory = append(entry.PaymentHistory, models.HistoryEntry{
			Amount:      req.Amount,
			Date:        now,
			Type:        historyType,
			Description: description,
			RecordedBy:  actor,
		})
		return nil
	}, true)
	if err != nil {
		return nil, err
	}

	s.invalidateSummaries(ctx)
	return entry, nil
}

// ApplyLateFee applies a manual fine. Unlike plan-derived fines it is always
// additive, with no duplicate suppression.
func (s *LedgerService) ApplyLateFee(ctx context.Context, req ApplyLateFeeRequest, actor string) (*models.LedgerEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "valid fine amount is required")
	}

	entry, err := s.mutate(ctx, req.FeePaymentID, func(entry *models.LedgerEntry, now time.Time) error {
		entry.LateFeeApplied += req.FineAmount
		description := req.Description
		if description == "" {
			description = "Late fee applied"
		}
		entry.PaymentHistory = append(entry.PaymentHistory, models.HistoryEntry{
			Amount:      req.FineAmount,
			Date:        now,
			Type:        models.HistoryLateFee,
			Description: description,
			RecordedBy:  actor,
		})
		return nil
	}, true)
	if err != nil {
		return nil, err
	}

	s.invalidateSummaries(ctx)
	return entry, nil
}

// Update patches the due date and/or status. An explicit status is an
// administrative override and skips recomputation; changing only the due date
// re-derives the record against the plan rules.
func (s *LedgerService) Update(ctx context.Context, id string, req UpdateLedgerRequest, actor string) (*models.LedgerEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid fee payment update")
	}

	recompute := req.Status == ""
	entry, err := s.mutate(ctx, id, func(entry *models.LedgerEntry, now time.Time) error {
		if req.DueDate != nil {
			entry.DueDate = *req.DueDate
		}
		if req.Status != "" {
			entry.Status = req.Status
			if req.Status == models.LedgerStatusWaived {
				entry.PaymentHistory = append(entry.PaymentHistory, models.HistoryEntry{
					Amount:      0,
					Date:        now,
					Type:        models.HistoryWaived,
					Description: "Waived by admin",
					RecordedBy:  actor,
				})
			}
		}
		return nil
	}, recompute)
	if err != nil {
		return nil, err
	}

	s.invalidateSummaries(ctx)
	return entry, nil
}

// Delete removes a record and drops the student back-reference.
func (s *LedgerService) Delete(ctx context.Context, id string) error {
	entry, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "fee payment record not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete fee payment")
	}
	if err := s.students.RemoveFeePaymentRef(ctx, entry.StudentID, entry.ID); err != nil {
		s.logger.Warn("failed to unlink fee payment from student",
			zap.String("student_id", entry.StudentID),
			zap.String("fee_payment_id", entry.ID),
			zap.Error(err))
	}
	s.invalidateSummaries(ctx)
	return nil
}

// GetByID returns a single record.
func (s *LedgerService) GetByID(ctx context.Context, id string) (*models.LedgerEntry, error) {
	return s.load(ctx, id)
}

// ListByStudent returns a student's records with pagination metadata.
func (s *LedgerService) ListByStudent(ctx context.Context, filter models.LedgerFilter) ([]models.LedgerEntry, *models.Pagination, error) {
	if _, err := s.students.FindByID(ctx, filter.StudentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	entries, total, err := s.repo.ListByStudent(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list fee payments")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return entries, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// GetHistory returns a record's payment history.
func (s *LedgerService) GetHistory(ctx context.Context, id string) (models.PaymentHistory, error) {
	entry, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return entry.PaymentHistory, nil
}

func (s *LedgerService) load(ctx context.Context, id string) (*models.LedgerEntry, error) {
	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "fee payment record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load fee payment")
	}
	return entry, nil
}

// mutate loads the record, applies fn, optionally re-derives cached fields and
// persists under the version guard, retrying lost races from a fresh load.
func (s *LedgerService) mutate(ctx context.Context, id string, fn func(*models.LedgerEntry, time.Time) error, recompute bool) (*models.LedgerEntry, error) {
	for attempt := 0; attempt < maxWriteRetries; attempt++ {
		entry, err := s.load(ctx, id)
		if err != nil {
			return nil, err
		}

		now := s.now()
		if err := fn(entry, now); err != nil {
			return nil, err
		}

		if recompute {
			plan, err := s.loadPlan(ctx, entry.FeePlanID)
			if err != nil {
				return nil, err
			}
			ledger.Recompute(entry, plan, now)
			s.metrics.RecordRecompute()
		} else {
			entry.UpdatedAt = now
		}

		err = s.repo.Update(ctx, entry)
		if err == nil {
			return entry, nil
		}
		if !errors.Is(err, repository.ErrVersionConflict) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save fee payment")
		}
		s.logger.Debug("fee payment write conflict, retrying",
			zap.String("fee_payment_id", id),
			zap.Int("attempt", attempt+1))
	}
	return nil, appErrors.Clone(appErrors.ErrConflict, "fee payment record was modified concurrently, please retry")
}

// loadPlan tolerates a missing plan so that records referencing deleted plans
// stay writable; the engine treats a nil plan as having no rules.
func (s *LedgerService) loadPlan(ctx context.Context, planID string) (*models.FeePlan, error) {
	plan, err := s.plans.FindByID(ctx, planID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load fee plan")
	}
	return plan, nil
}

func (s *LedgerService) invalidateSummaries(ctx context.Context) {
	if s.summaries == nil {
		return
	}
	if err := s.summaries.InvalidateSummaries(ctx); err != nil {
		s.logger.Warn("failed to invalidate summary cache", zap.Error(err))
	}
}

func buildTransaction(in TransactionInput, now time.Time) models.Transaction {
	id := in.TransactionID
	if id == "" {
		id = uuid.NewString()
	}
	status := in.Status
	if status == "" {
		status = models.TransactionPending
	}
	return models.Transaction{
		TransactionID: id,
		Amount:        in.Amount,
		PaymentMethod: in.PaymentMethod,
		PaymentDate:   now,
		Status:        status,
		ReceiptURL:    in.ReceiptURL,
		Notes:         in.Notes,
	}
}
