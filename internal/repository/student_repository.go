package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/campuspay/fee-ledger-api/internal/models"
)

const studentColumns = `id, name, email, course_id, batch_id, section_id, semester,
        fee_payment_ids, created_at, updated_at`

// StudentRepository handles reads and back-reference writes on the student
// records the fee service depends on.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByID returns a student by ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students WHERE id = $1", studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// AppendFeePaymentRef records a ledger entry back-reference on the student.
func (r *StudentRepository) AppendFeePaymentRef(ctx context.Context, studentID, paymentID string) error {
	const query = `UPDATE students
        SET fee_payment_ids = array_append(fee_payment_ids, $2), updated_at = NOW()
        WHERE id = $1 AND NOT ($2 = ANY(fee_payment_ids))`
	if _, err := r.db.ExecContext(ctx, query, studentID, paymentID); err != nil {
		return fmt.Errorf("append fee payment ref: %w", err)
	}
	return nil
}

// RemoveFeePaymentRef drops a ledger entry back-reference from the student.
func (r *StudentRepository) RemoveFeePaymentRef(ctx context.Context, studentID, paymentID string) error {
	const query = `UPDATE students
        SET fee_payment_ids = array_remove(fee_payment_ids, $2), updated_at = NOW()
        WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, studentID, paymentID); err != nil {
		return fmt.Errorf("remove fee payment ref: %w", err)
	}
	return nil
}

// SearchByName returns students whose name matches the query, capped to limit.
func (r *StudentRepository) SearchByName(ctx context.Context, name string, limit int) ([]models.Student, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	query := fmt.Sprintf("SELECT %s FROM students WHERE name ILIKE $1 ORDER BY name ASC LIMIT %d",
		studentColumns, limit)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, "%"+name+"%"); err != nil {
		return nil, fmt.Errorf("search students: %w", err)
	}
	return students, nil
}
