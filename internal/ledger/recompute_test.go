package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuspay/fee-ledger-api/internal/models"
)

var (
	testNow = time.Date(2024, 8, 15, 10, 0, 0, 0, time.UTC)
	dueSoon = time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	duePast = time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
)

func baseEntry(due time.Time) *models.LedgerEntry {
	return &models.LedgerEntry{
		ID:          "fp-1",
		StudentID:   "stu-1",
		FeePlanID:   "plan-1",
		TotalAmount: 10000,
		Status:      models.LedgerStatusPending,
		DueDate:     due,
	}
}

func TestRecompute_NoPlanNoTransactions(t *testing.T) {
	entry := baseEntry(dueSoon)

	Recompute(entry, nil, testNow)

	assert.Equal(t, models.LedgerStatusPending, entry.Status)
	assert.Zero(t, entry.AmountPaid)
	assert.Zero(t, entry.ScholarshipApplied)
	assert.Empty(t, entry.PaymentHistory)
	assert.Equal(t, testNow, entry.UpdatedAt)
}

func TestRecompute_CompletedTransactionsOnly(t *testing.T) {
	entry := baseEntry(dueSoon)
	entry.Transactions = models.Transactions{
		{TransactionID: "tx-1", Amount: 3000, Status: models.TransactionCompleted},
		{TransactionID: "tx-2", Amount: 2000, Status: models.TransactionPending},
		{TransactionID: "tx-3", Amount: 1000, Status: models.TransactionFailed},
	}

	Recompute(entry, nil, testNow)

	assert.Equal(t, 3000.0, entry.AmountPaid)
	assert.Equal(t, models.LedgerStatusPartiallyPaid, entry.Status)
}

func TestRecompute_FullyPaid(t *testing.T) {
	entry := baseEntry(dueSoon)
	entry.Transactions = models.Transactions{
		{TransactionID: "tx-1", Amount: 6000, Status: models.TransactionCompleted},
		{TransactionID: "tx-2", Amount: 4000, Status: models.TransactionCompleted},
	}

	Recompute(entry, nil, testNow)

	assert.Equal(t, 10000.0, entry.AmountPaid)
	assert.Equal(t, models.LedgerStatusFullyPaid, entry.Status)
}

func TestRecompute_OverdueWhenUnpaidPastDue(t *testing.T) {
	entry := baseEntry(duePast)

	Recompute(entry, nil, testNow)

	assert.Equal(t, models.LedgerStatusOverdue, entry.Status)
}

func TestRecompute_PlanScholarshipWithinWindow(t *testing.T) {
	entry := baseEntry(dueSoon)
	plan := &models.FeePlan{
		ID: "plan-1",
		Scholarships: models.ScholarshipGrants{
			{
				StudentID: "stu-1",
				Type:      "Merit",
				Amount:    2000,
				FromDate:  testNow.AddDate(0, -1, 0),
				ToDate:    testNow.AddDate(0, 1, 0),
			},
		},
	}

	Recompute(entry, plan, testNow)

	assert.Equal(t, 2000.0, entry.ScholarshipApplied)
	require.Len(t, entry.PaymentHistory, 1)
	assert.Equal(t, models.HistoryScholarship, entry.PaymentHistory[0].Type)
	assert.Equal(t, "Merit Scholarship from FeePlan", entry.PaymentHistory[0].Description)
}

func TestRecompute_PlanScholarshipOutsideWindow(t *testing.T) {
	entry := baseEntry(dueSoon)
	plan := &models.FeePlan{
		ID: "plan-1",
		Scholarships: models.ScholarshipGrants{
			{
				StudentID: "stu-1",
				Type:      "Merit",
				Amount:    2000,
				FromDate:  testNow.AddDate(0, -3, 0),
				ToDate:    testNow.AddDate(0, -2, 0),
			},
		},
	}

	Recompute(entry, plan, testNow)

	assert.Zero(t, entry.ScholarshipApplied)
	assert.Empty(t, entry.PaymentHistory)
}

func TestRecompute_PlanScholarshipFirstMatchWins(t *testing.T) {
	entry := baseEntry(dueSoon)
	plan := &models.FeePlan{
		ID: "plan-1",
		Scholarships: models.ScholarshipGrants{
			{StudentID: "stu-1", Type: "Merit", Amount: 2000, FromDate: testNow.AddDate(0, -1, 0), ToDate: testNow.AddDate(0, 1, 0)},
			{StudentID: "stu-1", Type: "Sports", Amount: 5000, FromDate: testNow.AddDate(0, -1, 0), ToDate: testNow.AddDate(0, 1, 0)},
		},
	}

	Recompute(entry, plan, testNow)

	assert.Equal(t, 2000.0, entry.ScholarshipApplied)
	require.Len(t, entry.PaymentHistory, 1)
}

func TestRecompute_ScholarshipReducesAmountDue(t *testing.T) {
	entry := baseEntry(dueSoon)
	entry.Transactions = models.Transactions{
		{TransactionID: "tx-1", Amount: 8000, Status: models.TransactionCompleted},
	}
	plan := &models.FeePlan{
		ID: "plan-1",
		Scholarships: models.ScholarshipGrants{
			{StudentID: "stu-1", Type: "Merit", Amount: 2000, FromDate: testNow.AddDate(0, -1, 0), ToDate: testNow.AddDate(0, 1, 0)},
		},
	}

	Recompute(entry, plan, testNow)

	// 8000 paid against 10000 - 2000 due.
	assert.Equal(t, models.LedgerStatusFullyPaid, entry.Status)
}

func TestRecompute_CustomScholarshipLoggedOnce(t *testing.T) {
	entry := baseEntry(dueSoon)
	entry.CustomScholarship = models.CustomScholarship{Type: "Need-Based", Amount: 1500}

	Recompute(entry, nil, testNow)
	Recompute(entry, nil, testNow.Add(time.Hour))

	require.Len(t, entry.PaymentHistory, 1)
	assert.Equal(t, "Custom Scholarship - Need-Based", entry.PaymentHistory[0].Description)
	assert.Equal(t, 1500.0, entry.PaymentHistory[0].Amount)
}

func TestRecompute_LateFeeAppliedOncePastDue(t *testing.T) {
	entry := baseEntry(duePast)
	plan := &models.FeePlan{
		ID: "plan-1",
		LateFees: models.LateFeeRules{
			{FineAmount: 500, FromDate: duePast.AddDate(0, -1, 0), ToDate: duePast.AddDate(0, 1, 0)},
		},
	}

	Recompute(entry, plan, testNow)
	Recompute(entry, plan, testNow.Add(24*time.Hour))

	assert.Equal(t, 500.0, entry.LateFeeApplied)
	require.Len(t, entry.PaymentHistory, 1)
	assert.Equal(t, models.HistoryLateFee, entry.PaymentHistory[0].Type)
}

func TestRecompute_LateFeeWindowAnchoredOnDueDate(t *testing.T) {
	// The rule window lapsed before "now" but covers the due date, so the
	// fine still applies on the first touch after the deadline.
	entry := baseEntry(duePast)
	plan := &models.FeePlan{
		ID: "plan-1",
		LateFees: models.LateFeeRules{
			{FineAmount: 500, FromDate: duePast.AddDate(0, 0, -7), ToDate: duePast.AddDate(0, 0, 7)},
		},
	}

	Recompute(entry, plan, testNow)

	assert.Equal(t, 500.0, entry.LateFeeApplied)
}

func TestRecompute_NoLateFeeWhenAlreadyFullyPaid(t *testing.T) {
	entry := baseEntry(duePast)
	entry.Status = models.LedgerStatusFullyPaid
	entry.Transactions = models.Transactions{
		{TransactionID: "tx-1", Amount: 10000, Status: models.TransactionCompleted},
	}
	plan := &models.FeePlan{
		ID: "plan-1",
		LateFees: models.LateFeeRules{
			{FineAmount: 500, FromDate: duePast.AddDate(0, -1, 0), ToDate: duePast.AddDate(0, 1, 0)},
		},
	}

	Recompute(entry, plan, testNow)

	assert.Zero(t, entry.LateFeeApplied)
	assert.Equal(t, models.LedgerStatusFullyPaid, entry.Status)
}

func TestRecompute_LateFeeAppliesWhenPaymentCompletesSameWrite(t *testing.T) {
	// The entry was partially paid before the deadline; the closing payment
	// lands after it. The fine applies because the pre-write status was not
	// fully paid, and the entry stays partially paid until the fine is
	// covered.
	entry := baseEntry(duePast)
	entry.Status = models.LedgerStatusPartiallyPaid
	entry.Transactions = models.Transactions{
		{TransactionID: "tx-1", Amount: 4000, Status: models.TransactionCompleted},
		{TransactionID: "tx-2", Amount: 6000, Status: models.TransactionCompleted},
	}
	plan := &models.FeePlan{
		ID: "plan-1",
		LateFees: models.LateFeeRules{
			{FineAmount: 500, FromDate: duePast.AddDate(0, -1, 0), ToDate: duePast.AddDate(0, 1, 0)},
		},
	}

	Recompute(entry, plan, testNow)

	assert.Equal(t, 500.0, entry.LateFeeApplied)
	assert.Equal(t, 10000.0, entry.AmountPaid)
	assert.Equal(t, models.LedgerStatusPartiallyPaid, entry.Status)
}

func TestRecompute_WaivedStatusPreserved(t *testing.T) {
	entry := baseEntry(duePast)
	entry.Status = models.LedgerStatusWaived
	plan := &models.FeePlan{
		ID: "plan-1",
		LateFees: models.LateFeeRules{
			{FineAmount: 500, FromDate: duePast.AddDate(0, -1, 0), ToDate: duePast.AddDate(0, 1, 0)},
		},
	}

	Recompute(entry, plan, testNow)

	assert.Equal(t, models.LedgerStatusWaived, entry.Status)
	assert.Zero(t, entry.LateFeeApplied)
}

func TestRecompute_DiscountReducesAmountDue(t *testing.T) {
	entry := baseEntry(dueSoon)
	entry.DiscountApplied = 1000
	entry.Transactions = models.Transactions{
		{TransactionID: "tx-1", Amount: 9000, Status: models.TransactionCompleted},
	}

	Recompute(entry, nil, testNow)

	assert.Equal(t, models.LedgerStatusFullyPaid, entry.Status)
}

func TestRecompute_Idempotent(t *testing.T) {
	plan := &models.FeePlan{
		ID: "plan-1",
		Scholarships: models.ScholarshipGrants{
			{StudentID: "stu-1", Type: "Merit", Amount: 2000, FromDate: testNow.AddDate(0, -1, 0), ToDate: testNow.AddDate(0, 1, 0)},
		},
		LateFees: models.LateFeeRules{
			{FineAmount: 500, FromDate: duePast.AddDate(0, -1, 0), ToDate: duePast.AddDate(0, 1, 0)},
		},
	}

	entry := baseEntry(duePast)
	entry.Transactions = models.Transactions{
		{TransactionID: "tx-1", Amount: 3000, Status: models.TransactionCompleted},
	}

	Recompute(entry, plan, testNow)
	once := *entry
	onceHistory := len(entry.PaymentHistory)

	Recompute(entry, plan, testNow)

	assert.Equal(t, once.AmountPaid, entry.AmountPaid)
	assert.Equal(t, once.ScholarshipApplied, entry.ScholarshipApplied)
	assert.Equal(t, once.LateFeeApplied, entry.LateFeeApplied)
	assert.Equal(t, once.Status, entry.Status)
	assert.Len(t, entry.PaymentHistory, onceHistory)
}

func TestOutstanding(t *testing.T) {
	entry := baseEntry(dueSoon)
	entry.ScholarshipApplied = 2000
	entry.CustomScholarship = models.CustomScholarship{Amount: 1000}
	entry.LateFeeApplied = 500
	entry.DiscountApplied = 250
	entry.AmountPaid = 4000

	assert.Equal(t, 3000.0, EffectiveScholarship(entry))
	// 10000 - 3000 + 500 - 250 - 4000
	assert.Equal(t, 3250.0, Outstanding(entry))
}
