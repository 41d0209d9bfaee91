// Package dto holds the wire shapes of the reporting surface.
package dto

import "github.com/campuspay/fee-ledger-api/internal/models"

// SummaryResponse is the financial roll-up served by the dashboard and
// filtered analytics endpoints.
type SummaryResponse struct {
	TotalFees              float64                     `json:"totalFees"`
	TotalCollected         float64                     `json:"totalCollected"`
	TotalOutstanding       float64                     `json:"totalOutstanding"`
	TotalFines             float64                     `json:"totalFines"`
	NumberOfFines          int                         `json:"numberOfFines"`
	TotalScholarships      float64                     `json:"totalScholarships"`
	TotalDiscounts         float64                     `json:"totalDiscounts"`
	PaymentMethodBreakdown []models.PaymentMethodTotal `json:"paymentMethodBreakdown"`
	StatusDistribution     []models.StatusCount        `json:"statusDistribution"`
	StudentsByStatus       []models.StudentStatusGroup `json:"studentsByStatus"`
}

// HistoryResponse pairs a record's audit log with its raw transactions.
type HistoryResponse struct {
	PaymentHistory models.PaymentHistory `json:"paymentHistory"`
	Transactions   models.Transactions   `json:"transactions"`
}
