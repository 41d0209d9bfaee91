package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuspay/fee-ledger-api/internal/models"
	"github.com/campuspay/fee-ledger-api/internal/repository"
	appErrors "github.com/campuspay/fee-ledger-api/pkg/errors"
)

type mockLedgerRepo struct {
	entries       map[string]models.LedgerEntry
	exists        bool
	created       *models.LedgerEntry
	deleted       []string
	conflictsLeft int
	updates       int
}

func (m *mockLedgerRepo) FindByID(ctx context.Context, id string) (*models.LedgerEntry, error) {
	if e, ok := m.entries[id]; ok {
		return &e, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockLedgerRepo) ExistsForStudentAndPlan(ctx context.Context, studentID, planID string) (bool, error) {
	return m.exists, nil
}

func (m *mockLedgerRepo) Create(ctx context.Context, entry *models.LedgerEntry) error {
	if m.entries == nil {
		m.entries = make(map[string]models.LedgerEntry)
	}
	if entry.ID == "" {
		entry.ID = "new-payment"
	}
	entry.Version = 1
	m.entries[entry.ID] = *entry
	m.created = entry
	return nil
}

func (m *mockLedgerRepo) Update(ctx context.Context, entry *models.LedgerEntry) error {
	m.updates++
	if m.conflictsLeft > 0 {
		m.conflictsLeft--
		return repository.ErrVersionConflict
	}
	entry.Version++
	m.entries[entry.ID] = *entry
	return nil
}

func (m *mockLedgerRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.entries[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.entries, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockLedgerRepo) ListByStudent(ctx context.Context, filter models.LedgerFilter) ([]models.LedgerEntry, int, error) {
	var out []models.LedgerEntry
	for _, e := range m.entries {
		if e.StudentID == filter.StudentID {
			out = append(out, e)
		}
	}
	return out, len(out), nil
}

type mockPlanReader struct {
	plans map[string]models.FeePlan
}

func (m *mockPlanReader) FindByID(ctx context.Context, id string) (*models.FeePlan, error) {
	if p, ok := m.plans[id]; ok {
		return &p, nil
	}
	return nil, sql.ErrNoRows
}

type mockStudentStore struct {
	students map[string]models.Student
	appended []string
	removed  []string
	linkErr  error
}

func (m *mockStudentStore) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentStore) AppendFeePaymentRef(ctx context.Context, studentID, paymentID string) error {
	if m.linkErr != nil {
		return m.linkErr
	}
	m.appended = append(m.appended, paymentID)
	return nil
}

func (m *mockStudentStore) RemoveFeePaymentRef(ctx context.Context, studentID, paymentID string) error {
	m.removed = append(m.removed, paymentID)
	return nil
}

type mockInvalidator struct {
	calls int
}

func (m *mockInvalidator) InvalidateSummaries(ctx context.Context) error {
	m.calls++
	return nil
}

var serviceNow = time.Date(2024, 8, 15, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return serviceNow }

func newLedgerFixture() (*LedgerService, *mockLedgerRepo, *mockStudentStore, *mockInvalidator) {
	repo := &mockLedgerRepo{entries: map[string]models.LedgerEntry{}}
	plans := &mockPlanReader{plans: map[string]models.FeePlan{
		"plan-1": {
			ID:       "plan-1",
			Name:     "BTech 2024",
			CourseID: "course-1",
			BatchID:  "batch-1",
			Amount:   10000,
			DueDate:  serviceNow.AddDate(0, 1, 0),
		},
	}}
	students := &mockStudentStore{students: map[string]models.Student{
		"stu-1": {ID: "stu-1", Name: "Asha", Email: "asha@example.com"},
	}}
	invalidator := &mockInvalidator{}
	svc := NewLedgerService(repo, plans, students, invalidator, nil, nil).WithClock(fixedClock)
	return svc, repo, students, invalidator
}

func TestLedgerServiceCreate(t *testing.T) {
	svc, repo, students, invalidator := newLedgerFixture()

	entry, warning, err := svc.Create(context.Background(), CreateLedgerRequest{
		StudentID: "stu-1",
		FeePlanID: "plan-1",
	}, "admin")
	require.NoError(t, err)
	assert.Empty(t, warning)
	assert.Equal(t, "course-1", entry.CourseID)
	assert.Equal(t, "batch-1", entry.BatchID)
	assert.Equal(t, 10000.0, entry.TotalAmount)
	assert.Equal(t, models.LedgerStatusPending, entry.Status)
	require.NotNil(t, repo.created)
	assert.Contains(t, students.appended, entry.ID)
	assert.Equal(t, 1, invalidator.calls)
}

func TestLedgerServiceCreateWithInitialPayment(t *testing.T) {
	svc, _, _, _ := newLedgerFixture()

	entry, _, err := svc.Create(context.Background(), CreateLedgerRequest{
		StudentID: "stu-1",
		FeePlanID: "plan-1",
		Transaction: &TransactionInput{
			Amount:        4000,
			PaymentMethod: models.MethodUPI,
			Status:        models.TransactionCompleted,
		},
	}, "admin")
	require.NoError(t, err)
	assert.Equal(t, 4000.0, entry.AmountPaid)
	assert.Equal(t, models.LedgerStatusPartiallyPaid, entry.Status)
	require.Len(t, entry.Transactions, 1)
	assert.NotEmpty(t, entry.Transactions[0].TransactionID)
	require.Len(t, entry.PaymentHistory, 1)
	assert.Equal(t, "Initial payment via UPI", entry.PaymentHistory[0].Description)
	assert.Equal(t, "admin", entry.PaymentHistory[0].RecordedBy)
}

func TestLedgerServiceCreateDefaultsTransactionToPending(t *testing.T) {
	svc, _, _, _ := newLedgerFixture()

	entry, _, err := svc.Create(context.Background(), CreateLedgerRequest{
		StudentID: "stu-1",
		FeePlanID: "plan-1",
		Transaction: &TransactionInput{
			Amount:        4000,
			PaymentMethod: models.MethodUPI,
		},
	}, "admin")
	require.NoError(t, err)
	require.Len(t, entry.Transactions, 1)
	assert.Equal(t, models.TransactionPending, entry.Transactions[0].Status)
	// pending money is not collected: no ledger movement, no history entry
	assert.Zero(t, entry.AmountPaid)
	assert.Equal(t, models.LedgerStatusPending, entry.Status)
	assert.Empty(t, entry.PaymentHistory)
}

func TestLedgerServiceCreateZeroAmountTransaction(t *testing.T) {
	svc, _, _, _ := newLedgerFixture()

	entry, _, err := svc.Create(context.Background(), CreateLedgerRequest{
		StudentID: "stu-1",
		FeePlanID: "plan-1",
		Transaction: &TransactionInput{
			Amount:        0,
			PaymentMethod: models.MethodCash,
			Status:        models.TransactionCompleted,
		},
	}, "admin")
	require.NoError(t, err)
	require.Len(t, entry.Transactions, 1)
	assert.Zero(t, entry.AmountPaid)

	_, _, err = svc.Create(context.Background(), CreateLedgerRequest{
		StudentID: "stu-1",
		FeePlanID: "plan-1",
		Transaction: &TransactionInput{
			Amount:        -50,
			PaymentMethod: models.MethodCash,
		},
	}, "admin")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestLedgerServiceCreateRejectsUnknownMethod(t *testing.T) {
	svc, _, _, _ := newLedgerFixture()

	_, _, err := svc.Create(context.Background(), CreateLedgerRequest{
		StudentID: "stu-1",
		FeePlanID: "plan-1",
		Transaction: &TransactionInput{
			Amount:        100,
			PaymentMethod: "Bitcoin",
		},
	}, "admin")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestLedgerServiceCreateDuplicate(t *testing.T) {
	svc, repo, _, _ := newLedgerFixture()
	repo.exists = true

	_, _, err := svc.Create(context.Background(), CreateLedgerRequest{
		StudentID: "stu-1",
		FeePlanID: "plan-1",
	}, "admin")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestLedgerServiceCreateUnknownStudent(t *testing.T) {
	svc, _, _, _ := newLedgerFixture()

	_, _, err := svc.Create(context.Background(), CreateLedgerRequest{
		StudentID: "ghost",
		FeePlanID: "plan-1",
	}, "admin")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestLedgerServiceCreateLinkWarning(t *testing.T) {
	svc, _, students, _ := newLedgerFixture()
	students.linkErr = errors.New("students table unavailable")

	entry, warning, err := svc.Create(context.Background(), CreateLedgerRequest{
		StudentID: "stu-1",
		FeePlanID: "plan-1",
	}, "admin")
	require.NoError(t, err)
	assert.NotNil(t, entry)
	assert.NotEmpty(t, warning)
}

func TestLedgerServiceAddTransaction(t *testing.T) {
	svc, repo, _, invalidator := newLedgerFixture()
	repo.entries["fp-1"] = models.LedgerEntry{
		ID:          "fp-1",
		StudentID:   "stu-1",
		FeePlanID:   "plan-1",
		TotalAmount: 10000,
		Status:      models.LedgerStatusPending,
		DueDate:     serviceNow.AddDate(0, 1, 0),
		Version:     1,
	}

	entry, err := svc.AddTransaction(context.Background(), AddTransactionRequest{
		FeePaymentID: "fp-1",
		Transaction: TransactionInput{
			TransactionID: "tx-1",
			Amount:        6000,
			PaymentMethod: models.MethodCash,
			Status:        models.TransactionCompleted,
		},
	}, "clerk")
	require.NoError(t, err)
	assert.Equal(t, 6000.0, entry.AmountPaid)
	assert.Equal(t, models.LedgerStatusPartiallyPaid, entry.Status)
	require.Len(t, entry.PaymentHistory, 1)
	assert.Equal(t, "Payment via Cash", entry.PaymentHistory[0].Description)
	assert.Equal(t, 1, invalidator.calls)
}

func TestLedgerServiceAddTransactionDefaultsToPending(t *testing.T) {
	svc, repo, _, _ := newLedgerFixture()
	repo.entries["fp-1"] = models.LedgerEntry{
		ID:          "fp-1",
		StudentID:   "stu-1",
		FeePlanID:   "plan-1",
		TotalAmount: 10000,
		Status:      models.LedgerStatusPending,
		DueDate:     serviceNow.AddDate(0, 1, 0),
		Version:     1,
	}

	entry, err := svc.AddTransaction(context.Background(), AddTransactionRequest{
		FeePaymentID: "fp-1",
		Transaction: TransactionInput{
			Amount:        6000,
			PaymentMethod: models.MethodCash,
		},
	}, "clerk")
	require.NoError(t, err)
	require.Len(t, entry.Transactions, 1)
	assert.Equal(t, models.TransactionPending, entry.Transactions[0].Status)
	assert.Zero(t, entry.AmountPaid)
	assert.Equal(t, models.LedgerStatusPending, entry.Status)
	assert.Empty(t, entry.PaymentHistory)
}

func TestLedgerServiceAddTransactionRejectsUnknownMethod(t *testing.T) {
	svc, repo, _, _ := newLedgerFixture()
	repo.entries["fp-1"] = models.LedgerEntry{ID: "fp-1", StudentID: "stu-1", FeePlanID: "plan-1", Version: 1}

	_, err := svc.AddTransaction(context.Background(), AddTransactionRequest{
		FeePaymentID: "fp-1",
		Transaction: TransactionInput{
			Amount:        100,
			PaymentMethod: "Bitcoin",
		},
	}, "clerk")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestLedgerServiceAddTransactionDuplicateID(t *testing.T) {
	svc, repo, _, _ := newLedgerFixture()
	repo.entries["fp-1"] = models.LedgerEntry{
		ID:        "fp-1",
		StudentID: "stu-1",
		FeePlanID: "plan-1",
		Transactions: models.Transactions{
			{TransactionID: "tx-1", Amount: 1000, Status: models.TransactionCompleted},
		},
		Version: 1,
	}

	_, err := svc.AddTransaction(context.Background(), AddTransactionRequest{
		FeePaymentID: "fp-1",
		Transaction: TransactionInput{
			TransactionID: "tx-1",
			Amount:        500,
			PaymentMethod: models.MethodUPI,
		},
	}, "clerk")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestLedgerServiceAddTransactionRetriesConflicts(t *testing.T) {
	svc, repo, _, _ := newLedgerFixture()
	repo.entries["fp-1"] = models.LedgerEntry{
		ID:          "fp-1",
		StudentID:   "stu-1",
		FeePlanID:   "plan-1",
		TotalAmount: 10000,
		DueDate:     serviceNow.AddDate(0, 1, 0),
		Version:     1,
	}
	repo.conflictsLeft = 2

	_, err := svc.AddTransaction(context.Background(), AddTransactionRequest{
		FeePaymentID: "fp-1",
		Transaction: TransactionInput{
			Amount:        500,
			PaymentMethod: models.MethodUPI,
		},
	}, "clerk")
	require.NoError(t, err)
	assert.Equal(t, 3, repo.updates)
}

func TestLedgerServiceAddTransactionExhaustsRetries(t *testing.T) {
	svc, repo, _, _ := newLedgerFixture()
	repo.entries["fp-1"] = models.LedgerEntry{
		ID:        "fp-1",
		StudentID: "stu-1",
		FeePlanID: "plan-1",
		Version:   1,
	}
	repo.conflictsLeft = 10

	_, err := svc.AddTransaction(context.Background(), AddTransactionRequest{
		FeePaymentID: "fp-1",
		Transaction: TransactionInput{
			Amount:        500,
			PaymentMethod: models.MethodUPI,
		},
	}, "clerk")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestLedgerServiceApplyScholarship(t *testing.T) {
	svc, repo, _, _ := newLedgerFixture()
	repo.entries["fp-1"] = models.LedgerEntry{
		ID:          "fp-1",
		StudentID:   "stu-1",
		FeePlanID:   "plan-1",
		TotalAmount: 10000,
		DueDate:     serviceNow.AddDate(0, 1, 0),
		Version:     1,
	}

	entry, err := svc.ApplyAdjustment(context.Background(), ApplyAdjustmentRequest{
		FeePaymentID: "fp-1",
		Amount:       2000,
		Kind:         AdjustScholarship,
		CustomType:   "Need-Based",
	}, "admin")
	require.NoError(t, err)
	assert.Equal(t, models.CustomScholarship{Type: "Need-Based", Amount: 2000}, entry.CustomScholarship)

	// Manual entry plus the engine's custom scholarship log.
	require.Len(t, entry.PaymentHistory, 2)
	assert.Equal(t, "Manual scholarship applied", entry.PaymentHistory[0].Description)
}

func TestLedgerServiceApplyDiscountAccumulates(t *testing.T) {
	svc, repo, _, _ := newLedgerFixture()
	repo.entries["fp-1"] = models.LedgerEntry{
		ID:              "fp-1",
		StudentID:       "stu-1",
		FeePlanID:       "plan-1",
		TotalAmount:     10000,
		DiscountApplied: 500,
		DueDate:         serviceNow.AddDate(0, 1, 0),
		Version:         1,
	}

	entry, err := svc.ApplyAdjustment(context.Background(), ApplyAdjustmentRequest{
		FeePaymentID: "fp-1",
		Amount:       300,
		Kind:         AdjustDiscount,
	}, "admin")
	require.NoError(t, err)
	assert.Equal(t, 800.0, entry.DiscountApplied)
}

func TestLedgerServiceApplyLateFeeAlwaysAdds(t *testing.T) {
	svc, repo, _, _ := newLedgerFixture()
	repo.entries["fp-1"] = models.LedgerEntry{
		ID:             "fp-1",
		StudentID:      "stu-1",
		FeePlanID:      "plan-1",
		TotalAmount:    10000,
		LateFeeApplied: 200,
		DueDate:        serviceNow.AddDate(0, 1, 0),
		Version:        1,
	}

	entry, err := svc.ApplyLateFee(context.Background(), ApplyLateFeeRequest{
		FeePaymentID: "fp-1",
		FineAmount:   200,
	}, "admin")
	require.NoError(t, err)
	assert.Equal(t, 400.0, entry.LateFeeApplied)
	require.Len(t, entry.PaymentHistory, 1)
	assert.Equal(t, "Late fee applied", entry.PaymentHistory[0].Description)
}

func TestLedgerServiceUpdateWaived(t *testing.T) {
	svc, repo, _, _ := newLedgerFixture()
	repo.entries["fp-1"] = models.LedgerEntry{
		ID:          "fp-1",
		StudentID:   "stu-1",
		FeePlanID:   "plan-1",
		TotalAmount: 10000,
		Status:      models.LedgerStatusOverdue,
		DueDate:     serviceNow.AddDate(0, -1, 0),
		Version:     1,
	}

	entry, err := svc.Update(context.Background(), "fp-1", UpdateLedgerRequest{
		Status: models.LedgerStatusWaived,
	}, "admin")
	require.NoError(t, err)
	assert.Equal(t, models.LedgerStatusWaived, entry.Status)
	require.Len(t, entry.PaymentHistory, 1)
	assert.Equal(t, models.HistoryWaived, entry.PaymentHistory[0].Type)
	assert.Equal(t, "Waived by admin", entry.PaymentHistory[0].Description)
	assert.Zero(t, entry.PaymentHistory[0].Amount)
}

func TestLedgerServiceUpdateDueDateRecomputes(t *testing.T) {
	svc, repo, _, _ := newLedgerFixture()
	repo.entries["fp-1"] = models.LedgerEntry{
		ID:          "fp-1",
		StudentID:   "stu-1",
		FeePlanID:   "plan-1",
		TotalAmount: 10000,
		Status:      models.LedgerStatusPending,
		DueDate:     serviceNow.AddDate(0, 1, 0),
		Version:     1,
	}

	past := serviceNow.AddDate(0, -1, 0)
	entry, err := svc.Update(context.Background(), "fp-1", UpdateLedgerRequest{
		DueDate: &past,
	}, "admin")
	require.NoError(t, err)
	assert.Equal(t, models.LedgerStatusOverdue, entry.Status)
}

func TestLedgerServiceDelete(t *testing.T) {
	svc, repo, students, _ := newLedgerFixture()
	repo.entries["fp-1"] = models.LedgerEntry{ID: "fp-1", StudentID: "stu-1", Version: 1}

	require.NoError(t, svc.Delete(context.Background(), "fp-1"))
	assert.Contains(t, repo.deleted, "fp-1")
	assert.Contains(t, students.removed, "fp-1")

	err := svc.Delete(context.Background(), "fp-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestLedgerServiceGetHistory(t *testing.T) {
	svc, repo, _, _ := newLedgerFixture()
	repo.entries["fp-1"] = models.LedgerEntry{
		ID:        "fp-1",
		StudentID: "stu-1",
		PaymentHistory: models.PaymentHistory{
			{Amount: 500, Type: models.HistoryPayment, Description: "Payment via UPI"},
		},
		Version: 1,
	}

	history, err := svc.GetHistory(context.Background(), "fp-1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.HistoryPayment, history[0].Type)
}
