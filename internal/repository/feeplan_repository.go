package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campuspay/fee-ledger-api/internal/models"
)

const feePlanColumns = `id, name, course_id, batch_id, amount, components, due_date,
        late_fees, scholarships, created_at, updated_at`

// FeePlanRepository handles persistence of fee plans.
type FeePlanRepository struct {
	db *sqlx.DB
}

// NewFeePlanRepository constructs the repository.
func NewFeePlanRepository(db *sqlx.DB) *FeePlanRepository {
	return &FeePlanRepository{db: db}
}

// FindByID returns a fee plan by its ID.
func (r *FeePlanRepository) FindByID(ctx context.Context, id string) (*models.FeePlan, error) {
	query := fmt.Sprintf("SELECT %s FROM fee_plans WHERE id = $1", feePlanColumns)
	var plan models.FeePlan
	if err := r.db.GetContext(ctx, &plan, query, id); err != nil {
		return nil, err
	}
	return &plan, nil
}

// Create persists a new fee plan.
func (r *FeePlanRepository) Create(ctx context.Context, plan *models.FeePlan) error {
	if plan.ID == "" {
		plan.ID = uuid.NewString()
	}
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = time.Now().UTC()
	}
	plan.UpdatedAt = plan.CreatedAt
	const query = `INSERT INTO fee_plans (id, name, course_id, batch_id, amount, components, due_date,
        late_fees, scholarships, created_at, updated_at)
        VALUES (:id, :name, :course_id, :batch_id, :amount, :components, :due_date,
        :late_fees, :scholarships, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, plan); err != nil {
		return fmt.Errorf("create fee plan: %w", err)
	}
	return nil
}

// Update persists fee plan changes.
func (r *FeePlanRepository) Update(ctx context.Context, plan *models.FeePlan) error {
	plan.UpdatedAt = time.Now().UTC()
	const query = `UPDATE fee_plans SET name = :name, course_id = :course_id, batch_id = :batch_id,
        amount = :amount, components = :components, due_date = :due_date,
        late_fees = :late_fees, scholarships = :scholarships, updated_at = :updated_at
        WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, plan); err != nil {
		return fmt.Errorf("update fee plan: %w", err)
	}
	return nil
}

// Delete removes a fee plan.
func (r *FeePlanRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM fee_plans WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete fee plan: %w", err)
	}
	return nil
}

// List returns fee plans filtered and paginated.
func (r *FeePlanRepository) List(ctx context.Context, filter models.FeePlanFilter) ([]models.FeePlan, int, error) {
	var conditions []string
	var args []interface{}

	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.BatchID != "" {
		conditions = append(conditions, fmt.Sprintf("batch_id = $%d", len(args)+1))
		args = append(args, filter.BatchID)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s FROM fee_plans%s ORDER BY created_at DESC LIMIT %d OFFSET %d",
		feePlanColumns, clause, size, offset)

	var plans []models.FeePlan
	if err := r.db.SelectContext(ctx, &plans, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list fee plans: %w", err)
	}

	countQuery := "SELECT COUNT(*) FROM fee_plans" + clause
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count fee plans: %w", err)
	}
	return plans, total, nil
}
