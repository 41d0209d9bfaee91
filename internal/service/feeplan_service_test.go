package service

import (
	"context"
	"database/sql"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuspay/fee-ledger-api/internal/models"
	appErrors "github.com/campuspay/fee-ledger-api/pkg/errors"
)

type mockFeePlanRepo struct {
	plans   map[string]models.FeePlan
	deleted []string
}

func (m *mockFeePlanRepo) FindByID(ctx context.Context, id string) (*models.FeePlan, error) {
	if p, ok := m.plans[id]; ok {
		return &p, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockFeePlanRepo) Create(ctx context.Context, plan *models.FeePlan) error {
	if m.plans == nil {
		m.plans = make(map[string]models.FeePlan)
	}
	if plan.ID == "" {
		plan.ID = "new-plan"
	}
	m.plans[plan.ID] = *plan
	return nil
}

func (m *mockFeePlanRepo) Update(ctx context.Context, plan *models.FeePlan) error {
	m.plans[plan.ID] = *plan
	return nil
}

func (m *mockFeePlanRepo) Delete(ctx context.Context, id string) error {
	delete(m.plans, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockFeePlanRepo) List(ctx context.Context, filter models.FeePlanFilter) ([]models.FeePlan, int, error) {
	var out []models.FeePlan
	for _, p := range m.plans {
		out = append(out, p)
	}
	return out, len(out), nil
}

func planRequest() FeePlanRequest {
	return FeePlanRequest{
		Name:     "BTech 2024",
		CourseID: "course-1",
		BatchID:  "batch-1",
		Amount:   10000,
		DueDate:  time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC),
	}
}

func newFeePlanFixture() (*FeePlanService, *mockFeePlanRepo) {
	repo := &mockFeePlanRepo{plans: map[string]models.FeePlan{}}
	students := &mockStudentStore{students: map[string]models.Student{
		"stu-1": {ID: "stu-1", Name: "Asha"},
	}}
	return NewFeePlanService(repo, students, nil, nil), repo
}

func TestFeePlanServiceCreate(t *testing.T) {
	svc, repo := newFeePlanFixture()

	plan, err := svc.Create(context.Background(), planRequest())
	require.NoError(t, err)
	assert.Equal(t, float64(10000), plan.Amount)
	assert.Contains(t, repo.plans, plan.ID)
}

func TestFeePlanServiceCreateAmountFromComponents(t *testing.T) {
	svc, _ := newFeePlanFixture()

	req := planRequest()
	req.Amount = 0
	req.Components = models.FeeComponents{
		{Name: "Tuition", Amount: 8000},
		{Name: "Library", Amount: 1500},
	}
	plan, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, float64(9500), plan.Amount)
}

func TestFeePlanServiceCreateRejectsInvertedLateFeeWindow(t *testing.T) {
	svc, _ := newFeePlanFixture()

	req := planRequest()
	req.LateFees = []LateFeeRuleInput{{
		FineAmount: 200,
		FromDate:   time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC),
		ToDate:     time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC),
	}}
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status)
}

func TestFeePlanServiceCreateRejectsUnknownScholarshipStudent(t *testing.T) {
	svc, _ := newFeePlanFixture()

	req := planRequest()
	req.Scholarships = []ScholarshipGrantInput{{
		StudentID: "ghost",
		Type:      "Merit",
		Amount:    1000,
		FromDate:  time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC),
		ToDate:    time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC),
	}}
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Contains(t, appErrors.FromError(err).Message, "unknown student")
}

func TestFeePlanServiceUpdatePreservesIdentity(t *testing.T) {
	svc, repo := newFeePlanFixture()
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.plans["plan-1"] = models.FeePlan{ID: "plan-1", Name: "Old", CreatedAt: created}

	req := planRequest()
	plan, err := svc.Update(context.Background(), "plan-1", req)
	require.NoError(t, err)
	assert.Equal(t, "plan-1", plan.ID)
	assert.Equal(t, created, plan.CreatedAt)
	assert.Equal(t, "BTech 2024", plan.Name)
}

func TestFeePlanServiceDeleteMissing(t *testing.T) {
	svc, _ := newFeePlanFixture()

	err := svc.Delete(context.Background(), "ghost")
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, appErrors.FromError(err).Status)
}

func TestFeePlanServiceDelete(t *testing.T) {
	svc, repo := newFeePlanFixture()
	repo.plans["plan-1"] = models.FeePlan{ID: "plan-1", Name: "BTech 2024"}

	require.NoError(t, svc.Delete(context.Background(), "plan-1"))
	assert.Equal(t, []string{"plan-1"}, repo.deleted)
}
