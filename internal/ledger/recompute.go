// Package ledger holds the pure derivation engine for fee payment records.
// All cached ledger fields (amountPaid, scholarshipApplied, lateFeeApplied,
// status) are owned by Recompute; write paths mutate raw inputs and then call
// it before persisting.
package ledger

import (
	"fmt"
	"time"

	"github.com/campuspay/fee-ledger-api/internal/models"
)

// History description markers used to deduplicate plan-derived entries. The
// duplicate check is deliberately loose (type + amount + substring): two
// distinct rules with identical amounts collapse into one history entry, which
// matches the established audit-log behaviour downstream consumers rely on.
const (
	planScholarshipMarker = "FeePlan"
	customScholarshipMark = "Custom"
	lateFeeMarker         = "overdue"
)

const lateFeeDescription = "Late fee applied due to overdue"

// Recompute derives every cached field of the entry from its transaction list,
// the plan rules and the supplied clock. It is idempotent for a fixed
// (entry, plan, now) input and performs no I/O; the caller loads the plan and
// persists the result.
//
// Evaluation order is significant: the late fee check reads the status the
// entry had before this recomputation, so a payment that completes the balance
// in the same write still incurs the fine if the entry was not already
// fully paid.
func Recompute(entry *models.LedgerEntry, plan *models.FeePlan, now time.Time) {
	var effectiveScholarship float64

	if grant, ok := plan.FindScholarship(entry.StudentID, now); ok {
		entry.ScholarshipApplied = grant.Amount
		effectiveScholarship += grant.Amount

		if !entry.PaymentHistory.Contains(models.HistoryScholarship, grant.Amount, planScholarshipMarker) {
			entry.PaymentHistory = append(entry.PaymentHistory, models.HistoryEntry{
				Amount:      grant.Amount,
				Date:        now,
				Type:        models.HistoryScholarship,
				Description: fmt.Sprintf("%s Scholarship from FeePlan", grant.Type),
			})
		}
	}

	if entry.CustomScholarship.Amount > 0 {
		effectiveScholarship += entry.CustomScholarship.Amount

		if !entry.PaymentHistory.Contains(models.HistoryScholarship, entry.CustomScholarship.Amount, customScholarshipMark) {
			description := "Custom Scholarship"
			if entry.CustomScholarship.Type != "" {
				description += " - " + entry.CustomScholarship.Type
			}
			entry.PaymentHistory = append(entry.PaymentHistory, models.HistoryEntry{
				Amount:      entry.CustomScholarship.Amount,
				Date:        now,
				Type:        models.HistoryScholarship,
				Description: description,
			})
		}
	}

	// The fine window is anchored on the due date, not the clock, so a rule
	// whose window has lapsed by the time the entry is touched still applies.
	waived := entry.Status == models.LedgerStatusWaived
	if now.After(entry.DueDate) && entry.Status != models.LedgerStatusFullyPaid && !waived {
		if rule, ok := plan.FindLateFee(entry.DueDate); ok {
			if !entry.PaymentHistory.Contains(models.HistoryLateFee, rule.FineAmount, lateFeeMarker) {
				entry.LateFeeApplied += rule.FineAmount
				entry.PaymentHistory = append(entry.PaymentHistory, models.HistoryEntry{
					Amount:      rule.FineAmount,
					Date:        now,
					Type:        models.HistoryLateFee,
					Description: lateFeeDescription,
				})
			}
		}
	}

	entry.AmountPaid = entry.Transactions.CompletedTotal()

	totalDue := entry.TotalAmount - effectiveScholarship + entry.LateFeeApplied - entry.DiscountApplied

	// Waived is an administrative override, never derived and never cleared
	// here. Clearing it requires an explicit status update.
	if !waived {
		switch {
		case entry.AmountPaid >= totalDue:
			entry.Status = models.LedgerStatusFullyPaid
		case entry.AmountPaid > 0:
			entry.Status = models.LedgerStatusPartiallyPaid
		case now.After(entry.DueDate):
			entry.Status = models.LedgerStatusOverdue
		default:
			entry.Status = models.LedgerStatusPending
		}
	}

	entry.UpdatedAt = now
}

// EffectiveScholarship is the scholarship total the reporting layer exposes:
// the cached plan amount plus any custom grant.
func EffectiveScholarship(entry *models.LedgerEntry) float64 {
	return entry.ScholarshipApplied + entry.CustomScholarship.Amount
}

// Outstanding is the remaining balance after adjustments and payments. It can
// be negative when a record was overpaid.
func Outstanding(entry *models.LedgerEntry) float64 {
	due := entry.TotalAmount - EffectiveScholarship(entry) + entry.LateFeeApplied - entry.DiscountApplied
	return due - entry.AmountPaid
}
