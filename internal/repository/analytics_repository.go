package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/campuspay/fee-ledger-api/internal/models"
)

// AnalyticsRepository serves the reporting layer with ledger rows joined to
// their student and catalog labels.
type AnalyticsRepository struct {
	db *sqlx.DB
}

// NewAnalyticsRepository constructs the repository.
func NewAnalyticsRepository(db *sqlx.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

// ListAggregateRows streams every ledger entry matching the filter together
// with display labels. Labels are LEFT JOINed so entries survive the deletion
// of their student or catalog rows; the service substitutes placeholders.
//
// The date range matches entries that hold at least one completed transaction
// inside the window, probed through the JSONB transaction list.
func (r *AnalyticsRepository) ListAggregateRows(ctx context.Context, filter models.SummaryFilter) ([]models.LedgerAggregateRow, error) {
	base := `SELECT fp.id, fp.student_id, fp.fee_plan_id, fp.course_id, fp.batch_id, fp.section_id,
        fp.total_amount, fp.amount_paid, fp.scholarship_applied, fp.custom_scholarship,
        fp.late_fee_applied, fp.discount_applied, fp.status, fp.due_date,
        fp.transactions, fp.payment_history, fp.version, fp.created_at, fp.updated_at,
        s.name AS student_name, s.semester, c.name AS course_name,
        b.start_year, b.end_year, sec.name AS section_name
        FROM fee_payments fp
        LEFT JOIN students s ON s.id = fp.student_id
        LEFT JOIN courses c ON c.id = fp.course_id
        LEFT JOIN batches b ON b.id = fp.batch_id
        LEFT JOIN sections sec ON sec.id = fp.section_id`

	var conditions []string
	var args []interface{}

	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("fp.course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.BatchID != "" {
		conditions = append(conditions, fmt.Sprintf("fp.batch_id = $%d", len(args)+1))
		args = append(args, filter.BatchID)
	}
	if filter.SectionID != "" {
		conditions = append(conditions, fmt.Sprintf("fp.section_id = $%d", len(args)+1))
		args = append(args, filter.SectionID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("fp.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Semester != nil {
		conditions = append(conditions, fmt.Sprintf("s.semester = $%d", len(args)+1))
		args = append(args, *filter.Semester)
	}
	if filter.StartDate != nil || filter.EndDate != nil {
		probe := "tx->>'status' = 'completed'"
		if filter.StartDate != nil {
			probe += fmt.Sprintf(" AND (tx->>'paymentDate')::timestamptz >= $%d", len(args)+1)
			args = append(args, *filter.StartDate)
		}
		if filter.EndDate != nil {
			probe += fmt.Sprintf(" AND (tx->>'paymentDate')::timestamptz <= $%d", len(args)+1)
			args = append(args, *filter.EndDate)
		}
		conditions = append(conditions, fmt.Sprintf(`EXISTS (
            SELECT 1 FROM jsonb_array_elements(fp.transactions) tx
            WHERE %s)`, probe))
	}

	query := base
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY fp.created_at ASC"

	var rows []models.LedgerAggregateRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list aggregate rows: %w", err)
	}
	return rows, nil
}

// ListAggregateRowsByStudents returns joined rows for a fixed set of students.
// Used by the student search endpoint.
func (r *AnalyticsRepository) ListAggregateRowsByStudents(ctx context.Context, studentIDs []string) ([]models.LedgerAggregateRow, error) {
	if len(studentIDs) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(studentIDs))
	args := make([]interface{}, len(studentIDs))
	for i, id := range studentIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT fp.id, fp.student_id, fp.fee_plan_id, fp.course_id, fp.batch_id, fp.section_id,
        fp.total_amount, fp.amount_paid, fp.scholarship_applied, fp.custom_scholarship,
        fp.late_fee_applied, fp.discount_applied, fp.status, fp.due_date,
        fp.transactions, fp.payment_history, fp.version, fp.created_at, fp.updated_at,
        s.name AS student_name, s.semester, c.name AS course_name,
        b.start_year, b.end_year, sec.name AS section_name
        FROM fee_payments fp
        LEFT JOIN students s ON s.id = fp.student_id
        LEFT JOIN courses c ON c.id = fp.course_id
        LEFT JOIN batches b ON b.id = fp.batch_id
        LEFT JOIN sections sec ON sec.id = fp.section_id
        WHERE fp.student_id IN (%s)
        ORDER BY fp.updated_at DESC`, strings.Join(placeholders, ","))

	var rows []models.LedgerAggregateRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list aggregate rows by students: %w", err)
	}
	return rows, nil
}
