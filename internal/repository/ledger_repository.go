package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campuspay/fee-ledger-api/internal/models"
)

// ErrVersionConflict is returned when an optimistic-lock update loses the
// race: the row was modified between read and write.
var ErrVersionConflict = errors.New("ledger entry version conflict")

const ledgerColumns = `id, student_id, fee_plan_id, course_id, batch_id, section_id,
        total_amount, amount_paid, scholarship_applied, custom_scholarship,
        late_fee_applied, discount_applied, status, due_date,
        transactions, payment_history, version, created_at, updated_at`

// LedgerRepository handles persistence of fee payment ledger entries.
type LedgerRepository struct {
	db *sqlx.DB
}

// NewLedgerRepository constructs the repository.
func NewLedgerRepository(db *sqlx.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// FindByID returns a ledger entry by its ID.
func (r *LedgerRepository) FindByID(ctx context.Context, id string) (*models.LedgerEntry, error) {
	query := fmt.Sprintf("SELECT %s FROM fee_payments WHERE id = $1", ledgerColumns)
	var entry models.LedgerEntry
	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		return nil, err
	}
	return &entry, nil
}

// ExistsForStudentAndPlan checks whether a ledger entry already exists for
// the student and fee plan combination.
func (r *LedgerRepository) ExistsForStudentAndPlan(ctx context.Context, studentID, planID string) (bool, error) {
	const query = `SELECT 1 FROM fee_payments WHERE student_id = $1 AND fee_plan_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, studentID, planID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check ledger entry: %w", err)
	}
	return true, nil
}

// Create persists a new ledger entry.
func (r *LedgerRepository) Create(ctx context.Context, entry *models.LedgerEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if entry.UpdatedAt.IsZero() {
		entry.UpdatedAt = entry.CreatedAt
	}
	entry.Version = 1
	const query = `INSERT INTO fee_payments (id, student_id, fee_plan_id, course_id, batch_id, section_id,
        total_amount, amount_paid, scholarship_applied, custom_scholarship,
        late_fee_applied, discount_applied, status, due_date,
        transactions, payment_history, version, created_at, updated_at)
        VALUES (:id, :student_id, :fee_plan_id, :course_id, :batch_id, :section_id,
        :total_amount, :amount_paid, :scholarship_applied, :custom_scholarship,
        :late_fee_applied, :discount_applied, :status, :due_date,
        :transactions, :payment_history, :version, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("create ledger entry: %w", err)
	}
	return nil
}

// Update persists a recomputed ledger entry guarded by its version. The write
// only lands when no concurrent writer bumped the version first; losing the
// race returns ErrVersionConflict and the caller reloads and retries.
func (r *LedgerRepository) Update(ctx context.Context, entry *models.LedgerEntry) error {
	const query = `UPDATE fee_payments SET
        total_amount = :total_amount,
        amount_paid = :amount_paid,
        scholarship_applied = :scholarship_applied,
        custom_scholarship = :custom_scholarship,
        late_fee_applied = :late_fee_applied,
        discount_applied = :discount_applied,
        status = :status,
        due_date = :due_date,
        transactions = :transactions,
        payment_history = :payment_history,
        version = version + 1,
        updated_at = :updated_at
        WHERE id = :id AND version = :version`
	result, err := r.db.NamedExecContext(ctx, query, entry)
	if err != nil {
		return fmt.Errorf("update ledger entry: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update ledger entry rows: %w", err)
	}
	if affected == 0 {
		return ErrVersionConflict
	}
	entry.Version++
	return nil
}

// Delete removes a ledger entry.
func (r *LedgerRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM fee_payments WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete ledger entry: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete ledger entry rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListByStudent returns a student's ledger entries filtered and paginated.
func (r *LedgerRepository) ListByStudent(ctx context.Context, filter models.LedgerFilter) ([]models.LedgerEntry, int, error) {
	conditions := []string{"student_id = $1"}
	args := []interface{}{filter.StudentID}

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.BatchID != "" {
		conditions = append(conditions, fmt.Sprintf("batch_id = $%d", len(args)+1))
		args = append(args, filter.BatchID)
	}

	clause := " WHERE " + strings.Join(conditions, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s FROM fee_payments%s ORDER BY created_at DESC LIMIT %d OFFSET %d",
		ledgerColumns, clause, size, offset)

	var entries []models.LedgerEntry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list ledger entries: %w", err)
	}

	countQuery := "SELECT COUNT(*) FROM fee_payments" + clause
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count ledger entries: %w", err)
	}
	return entries, total, nil
}

// ListOverdue returns entries past their due date that are neither fully paid
// nor waived. Used by the reminder sweep.
func (r *LedgerRepository) ListOverdue(ctx context.Context, asOf time.Time) ([]models.LedgerEntry, error) {
	query := fmt.Sprintf(`SELECT %s FROM fee_payments
        WHERE due_date < $1 AND status NOT IN ($2, $3)
        ORDER BY due_date ASC`, ledgerColumns)
	var entries []models.LedgerEntry
	if err := r.db.SelectContext(ctx, &entries, query, asOf, models.LedgerStatusFullyPaid, models.LedgerStatusWaived); err != nil {
		return nil, fmt.Errorf("list overdue entries: %w", err)
	}
	return entries, nil
}
