package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/campuspay/fee-ledger-api/internal/models"
)

// CatalogRepository reads the course/batch/section reference data used to
// resolve human-friendly report filters.
type CatalogRepository struct {
	db *sqlx.DB
}

// NewCatalogRepository constructs the repository.
func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// FindCourseByName resolves a course by exact name, case-insensitively.
func (r *CatalogRepository) FindCourseByName(ctx context.Context, name string) (*models.Course, error) {
	const query = `SELECT id, name, code, created_at FROM courses WHERE LOWER(name) = LOWER($1)`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, name); err != nil {
		return nil, err
	}
	return &course, nil
}

// FindBatchByYears resolves a batch by its start and end years.
func (r *CatalogRepository) FindBatchByYears(ctx context.Context, startYear, endYear int) (*models.Batch, error) {
	const query = `SELECT id, start_year, end_year, created_at FROM batches WHERE start_year = $1 AND end_year = $2`
	var batch models.Batch
	if err := r.db.GetContext(ctx, &batch, query, startYear, endYear); err != nil {
		return nil, err
	}
	return &batch, nil
}

// ListCourses returns all courses ordered by name.
func (r *CatalogRepository) ListCourses(ctx context.Context) ([]models.Course, error) {
	const query = `SELECT id, name, code, created_at FROM courses ORDER BY name ASC`
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// ListBatches returns all batches ordered by start year.
func (r *CatalogRepository) ListBatches(ctx context.Context) ([]models.Batch, error) {
	const query = `SELECT id, start_year, end_year, created_at FROM batches ORDER BY start_year DESC`
	var batches []models.Batch
	if err := r.db.SelectContext(ctx, &batches, query); err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	return batches, nil
}
