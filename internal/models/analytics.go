package models

import (
	"database/sql"
	"time"
)

// SummaryFilter narrows aggregate queries. Zero values mean no filtering on
// that dimension. The date range matches on completed transaction dates.
type SummaryFilter struct {
	CourseID  string
	BatchID   string
	SectionID string
	Status    LedgerStatus
	Semester  *int
	StartDate *time.Time
	EndDate   *time.Time
}

// Empty reports whether no filter dimension is set.
func (f SummaryFilter) Empty() bool {
	return f.CourseID == "" && f.BatchID == "" && f.SectionID == "" && f.Status == "" &&
		f.Semester == nil && f.StartDate == nil && f.EndDate == nil
}

// LedgerAggregateRow is one ledger entry joined with the student and catalog
// labels the reporting layer needs. Joined labels are nullable because the
// student record may have been removed after the ledger entry was created.
type LedgerAggregateRow struct {
	LedgerEntry
	StudentName sql.NullString `db:"student_name"`
	CourseName  sql.NullString `db:"course_name"`
	StartYear   sql.NullInt64  `db:"start_year"`
	EndYear     sql.NullInt64  `db:"end_year"`
	SectionName sql.NullString `db:"section_name"`
	Semester    sql.NullInt64  `db:"semester"`
}

// PaymentMethodTotal aggregates completed transactions for one payment method.
type PaymentMethodTotal struct {
	Method       PaymentMethod `json:"paymentMethod"`
	Total        float64       `json:"total"`
	Transactions int           `json:"transactions"`
}

// StatusCount is the ledger entry count for one status.
type StatusCount struct {
	Status LedgerStatus `json:"status"`
	Count  int          `json:"count"`
}

// StudentSummary is one student's labels inside a status group.
type StudentSummary struct {
	Name      string `json:"name"`
	StudentID string `json:"studentId"`
	Course    string `json:"course"`
	Batch     string `json:"batch"`
	Semester  string `json:"semester"`
	Section   string `json:"section"`
}

// StudentStatusGroup groups student summaries under one ledger status.
type StudentStatusGroup struct {
	Status   LedgerStatus     `json:"status"`
	Students []StudentSummary `json:"students"`
}

// SystemMetrics is a lightweight runtime snapshot exposed alongside the
// financial summaries.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cacheHitRatio"`
	CacheHits                uint64    `json:"cacheHits"`
	CacheMisses              uint64    `json:"cacheMisses"`
	RequestsTotal            uint64    `json:"requestsTotal"`
	AverageRequestDurationMs float64   `json:"averageRequestDurationMs"`
	DBQueryCount             uint64    `json:"dbQueryCount"`
	AverageDBQueryDurationMs float64   `json:"averageDbQueryDurationMs"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generatedAt"`
}

// StudentSearchResult is a student search hit with their latest fee standing.
// Status is a string so students without any ledger entry can carry the
// "No payment record" marker.
type StudentSearchResult struct {
	StudentID string `json:"studentId"`
	Name      string `json:"name"`
	Status    string `json:"status"`
}
