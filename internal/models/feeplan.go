package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// FeeComponent is one line item of a fee plan (tuition, lab, hostel and so on).
type FeeComponent struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
	Tax    float64 `json:"tax,omitempty"`
}

// FeeComponents is the JSONB-backed component list of a fee plan.
type FeeComponents []FeeComponent

// Total sums the component amounts.
func (cs FeeComponents) Total() float64 {
	var total float64
	for _, c := range cs {
		total += c.Amount
	}
	return total
}

// LateFeeRule defines a fine amount active inside a date window. The window is
// evaluated against the entry due date, not the wall clock.
type LateFeeRule struct {
	FineAmount float64   `json:"fineAmount"`
	FromDate   time.Time `json:"fromDate"`
	ToDate     time.Time `json:"toDate"`
}

// LateFeeRules is the JSONB-backed late fee schedule of a fee plan.
type LateFeeRules []LateFeeRule

// ScholarshipGrant awards a scholarship amount to a specific student inside a
// date window.
type ScholarshipGrant struct {
	StudentID string    `json:"studentId"`
	Type      string    `json:"type"`
	Amount    float64   `json:"amount"`
	FromDate  time.Time `json:"fromDate"`
	ToDate    time.Time `json:"toDate"`
}

// ScholarshipGrants is the JSONB-backed scholarship schedule of a fee plan.
type ScholarshipGrants []ScholarshipGrant

// FeePlan is the pricing template shared by the ledger entries of a cohort.
type FeePlan struct {
	ID           string            `db:"id" json:"id"`
	Name         string            `db:"name" json:"name"`
	CourseID     string            `db:"course_id" json:"course"`
	BatchID      string            `db:"batch_id" json:"batch"`
	Amount       float64           `db:"amount" json:"amount"`
	Components   FeeComponents     `db:"components" json:"components"`
	DueDate      time.Time         `db:"due_date" json:"dueDate"`
	LateFees     LateFeeRules      `db:"late_fees" json:"lateFees"`
	Scholarships ScholarshipGrants `db:"scholarships" json:"scholarships"`
	CreatedAt    time.Time         `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time         `db:"updated_at" json:"updatedAt"`
}

// FindScholarship returns the first grant for the student whose window covers
// now. Only the first match applies even when several windows overlap.
func (p *FeePlan) FindScholarship(studentID string, now time.Time) (ScholarshipGrant, bool) {
	if p == nil {
		return ScholarshipGrant{}, false
	}
	for _, grant := range p.Scholarships {
		if grant.StudentID == studentID && !now.Before(grant.FromDate) && !now.After(grant.ToDate) {
			return grant, true
		}
	}
	return ScholarshipGrant{}, false
}

// FindLateFee returns the first rule whose window covers the entry due date.
func (p *FeePlan) FindLateFee(dueDate time.Time) (LateFeeRule, bool) {
	if p == nil {
		return LateFeeRule{}, false
	}
	for _, rule := range p.LateFees {
		if !dueDate.Before(rule.FromDate) && !dueDate.After(rule.ToDate) {
			return rule, true
		}
	}
	return LateFeeRule{}, false
}

// FeePlanFilter narrows fee plan listings.
type FeePlanFilter struct {
	CourseID string
	BatchID  string
	Page     int
	PageSize int
}

// Value implements driver.Valuer for JSONB storage.
func (cs FeeComponents) Value() (driver.Value, error) {
	if cs == nil {
		cs = FeeComponents{}
	}
	return json.Marshal(cs)
}

// Scan implements sql.Scanner for JSONB storage.
func (cs *FeeComponents) Scan(src interface{}) error {
	return scanJSON(src, cs)
}

// Value implements driver.Valuer for JSONB storage.
func (rs LateFeeRules) Value() (driver.Value, error) {
	if rs == nil {
		rs = LateFeeRules{}
	}
	return json.Marshal(rs)
}

// Scan implements sql.Scanner for JSONB storage.
func (rs *LateFeeRules) Scan(src interface{}) error {
	return scanJSON(src, rs)
}

// Value implements driver.Valuer for JSONB storage.
func (gs ScholarshipGrants) Value() (driver.Value, error) {
	if gs == nil {
		gs = ScholarshipGrants{}
	}
	return json.Marshal(gs)
}

// Scan implements sql.Scanner for JSONB storage.
func (gs *ScholarshipGrants) Scan(src interface{}) error {
	return scanJSON(src, gs)
}
