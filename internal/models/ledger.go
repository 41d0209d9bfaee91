package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// LedgerStatus classifies a fee payment record.
type LedgerStatus string

const (
	LedgerStatusPending       LedgerStatus = "pending"
	LedgerStatusPartiallyPaid LedgerStatus = "partially_paid"
	LedgerStatusFullyPaid     LedgerStatus = "fully_paid"
	LedgerStatusOverdue       LedgerStatus = "overdue"
	LedgerStatusWaived        LedgerStatus = "waived"
)

// Valid reports whether the status is a known value.
func (s LedgerStatus) Valid() bool {
	switch s {
	case LedgerStatusPending, LedgerStatusPartiallyPaid, LedgerStatusFullyPaid, LedgerStatusOverdue, LedgerStatusWaived:
		return true
	}
	return false
}

// TransactionStatus classifies an individual payment transaction.
type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "pending"
	TransactionCompleted TransactionStatus = "completed"
	TransactionFailed    TransactionStatus = "failed"
	TransactionRefunded  TransactionStatus = "refunded"
)

// Valid reports whether the transaction status is a known value.
func (s TransactionStatus) Valid() bool {
	switch s {
	case TransactionPending, TransactionCompleted, TransactionFailed, TransactionRefunded:
		return true
	}
	return false
}

// PaymentMethod enumerates accepted payment channels.
type PaymentMethod string

const (
	MethodCreditCard   PaymentMethod = "Credit Card"
	MethodDebitCard    PaymentMethod = "Debit Card"
	MethodUPI          PaymentMethod = "UPI"
	MethodBankTransfer PaymentMethod = "Bank Transfer"
	MethodCash         PaymentMethod = "Cash"
	MethodOther        PaymentMethod = "Other"
)

// Valid reports whether the payment method is a known value.
func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCreditCard, MethodDebitCard, MethodUPI, MethodBankTransfer, MethodCash, MethodOther:
		return true
	}
	return false
}

// HistoryType classifies a payment history entry.
type HistoryType string

const (
	HistoryPayment     HistoryType = "payment"
	HistoryScholarship HistoryType = "scholarship"
	HistoryLateFee     HistoryType = "late_fee"
	HistoryDiscount    HistoryType = "discount"
	HistoryRefund      HistoryType = "refund"
	HistoryWaived      HistoryType = "waived"
)

// Transaction is a single payment attempt against a ledger entry.
type Transaction struct {
	TransactionID string            `json:"transactionId"`
	Amount        float64           `json:"amount"`
	PaymentMethod PaymentMethod     `json:"paymentMethod"`
	PaymentDate   time.Time         `json:"paymentDate"`
	Status        TransactionStatus `json:"status"`
	ReceiptURL    string            `json:"receiptUrl,omitempty"`
	Notes         string            `json:"notes,omitempty"`
}

// Transactions is the JSONB-backed transaction list of a ledger entry.
type Transactions []Transaction

// CompletedTotal sums the amounts of completed transactions.
func (ts Transactions) CompletedTotal() float64 {
	var total float64
	for _, tx := range ts {
		if tx.Status == TransactionCompleted {
			total += tx.Amount
		}
	}
	return total
}

// HasID reports whether a transaction with the given id exists.
func (ts Transactions) HasID(id string) bool {
	for _, tx := range ts {
		if tx.TransactionID == id {
			return true
		}
	}
	return false
}

// HistoryEntry is one immutable audit-log row for a financial event.
type HistoryEntry struct {
	Amount      float64     `json:"amount"`
	Date        time.Time   `json:"date"`
	Type        HistoryType `json:"type"`
	Description string      `json:"description,omitempty"`
	RecordedBy  string      `json:"recordedBy,omitempty"`
}

// PaymentHistory is the JSONB-backed append-only audit log of a ledger entry.
type PaymentHistory []HistoryEntry

// Contains reports whether an entry of the given type and amount exists whose
// description includes marker. This is the duplicate check used when applying
// plan-derived rules.
func (h PaymentHistory) Contains(t HistoryType, amount float64, marker string) bool {
	for _, entry := range h {
		if entry.Type == t && entry.Amount == amount && strings.Contains(entry.Description, marker) {
			return true
		}
	}
	return false
}

// CustomScholarship is an ad-hoc scholarship override independent of the plan
// schedule. At most one exists per ledger entry; applying a new one replaces it.
type CustomScholarship struct {
	Type   string  `json:"type,omitempty"`
	Amount float64 `json:"amount"`
}

// LedgerEntry is the per student+plan fee payment record. AmountPaid and Status
// are cached derived values: they are recomputed from the transaction list and
// the plan rules on every write path and must never be trusted independently.
type LedgerEntry struct {
	ID                 string            `db:"id" json:"id"`
	StudentID          string            `db:"student_id" json:"student"`
	FeePlanID          string            `db:"fee_plan_id" json:"feePlan"`
	CourseID           string            `db:"course_id" json:"course"`
	BatchID            string            `db:"batch_id" json:"batch"`
	SectionID          *string           `db:"section_id" json:"section,omitempty"`
	TotalAmount        float64           `db:"total_amount" json:"totalAmount"`
	AmountPaid         float64           `db:"amount_paid" json:"amountPaid"`
	ScholarshipApplied float64           `db:"scholarship_applied" json:"scholarshipApplied"`
	CustomScholarship  CustomScholarship `db:"custom_scholarship" json:"customScholarship"`
	LateFeeApplied     float64           `db:"late_fee_applied" json:"lateFeeApplied"`
	DiscountApplied    float64           `db:"discount_applied" json:"discountApplied"`
	Status             LedgerStatus      `db:"status" json:"status"`
	DueDate            time.Time         `db:"due_date" json:"dueDate"`
	Transactions       Transactions      `db:"transactions" json:"transactions"`
	PaymentHistory     PaymentHistory    `db:"payment_history" json:"paymentHistory"`
	Version            int               `db:"version" json:"-"`
	CreatedAt          time.Time         `db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time         `db:"updated_at" json:"updatedAt"`
}

// LedgerFilter narrows student-scoped ledger listings.
type LedgerFilter struct {
	StudentID string
	Status    LedgerStatus
	CourseID  string
	BatchID   string
	Page      int
	PageSize  int
}

// Value implements driver.Valuer for JSONB storage.
func (ts Transactions) Value() (driver.Value, error) {
	if ts == nil {
		ts = Transactions{}
	}
	return json.Marshal(ts)
}

// Scan implements sql.Scanner for JSONB storage.
func (ts *Transactions) Scan(src interface{}) error {
	return scanJSON(src, ts)
}

// Value implements driver.Valuer for JSONB storage.
func (h PaymentHistory) Value() (driver.Value, error) {
	if h == nil {
		h = PaymentHistory{}
	}
	return json.Marshal(h)
}

// Scan implements sql.Scanner for JSONB storage.
func (h *PaymentHistory) Scan(src interface{}) error {
	return scanJSON(src, h)
}

// Value implements driver.Valuer for JSONB storage.
func (c CustomScholarship) Value() (driver.Value, error) {
	return json.Marshal(c)
}

// Scan implements sql.Scanner for JSONB storage.
func (c *CustomScholarship) Scan(src interface{}) error {
	return scanJSON(src, c)
}

func scanJSON(src, dest interface{}) error {
	if src == nil {
		return nil
	}
	switch data := src.(type) {
	case []byte:
		return json.Unmarshal(data, dest)
	case string:
		return json.Unmarshal([]byte(data), dest)
	default:
		return fmt.Errorf("unsupported jsonb source type %T", src)
	}
}
