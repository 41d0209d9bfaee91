package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuspay/fee-ledger-api/internal/dto"
	"github.com/campuspay/fee-ledger-api/internal/models"
	"github.com/campuspay/fee-ledger-api/internal/service"
)

type fakeSummarySrv struct {
	summary   *dto.SummaryResponse
	csv       []byte
	pdf       []byte
	err       error
	lastQuery service.SummaryQuery
	lastName  string
}

func (f *fakeSummarySrv) Dashboard(_ context.Context) (*dto.SummaryResponse, error) {
	return f.summary, f.err
}

func (f *fakeSummarySrv) Filtered(_ context.Context, query service.SummaryQuery) (*dto.SummaryResponse, error) {
	f.lastQuery = query
	return f.summary, f.err
}

func (f *fakeSummarySrv) ExportCSV(_ context.Context, query service.SummaryQuery) ([]byte, string, error) {
	f.lastQuery = query
	return f.csv, "fee-report-2024-08-15.csv", f.err
}

func (f *fakeSummarySrv) ExportPDF(_ context.Context, query service.SummaryQuery) ([]byte, string, error) {
	f.lastQuery = query
	return f.pdf, "fee-report-2024-08-15.pdf", f.err
}

func (f *fakeSummarySrv) SearchStudents(_ context.Context, name string) ([]models.StudentSearchResult, error) {
	f.lastName = name
	return []models.StudentSearchResult{{StudentID: "stu-1", Name: "Asha", Status: "pending"}}, f.err
}

func (f *fakeSummarySrv) Courses(_ context.Context) ([]models.Course, error) {
	return []models.Course{{ID: "course-1", Name: "BTech"}}, f.err
}

func (f *fakeSummarySrv) Batches(_ context.Context) ([]models.Batch, error) {
	return []models.Batch{{ID: "batch-1", StartYear: 2023, EndYear: 2027}}, f.err
}

type fakeHistorySrv struct {
	entry *models.LedgerEntry
	err   error
}

func (f *fakeHistorySrv) GetByID(_ context.Context, id string) (*models.LedgerEntry, error) {
	return f.entry, f.err
}

func TestSummaryHandlerDashboard(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeSummarySrv{summary: &dto.SummaryResponse{TotalFees: 18000, TotalCollected: 14000}}
	handler := NewSummaryHandler(srv, &fakeHistorySrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/fee-summary/dashboard", nil)

	handler.Dashboard(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	var summary dto.SummaryResponse
	require.NoError(t, json.Unmarshal(envelope.Data, &summary))
	assert.Equal(t, float64(18000), summary.TotalFees)
}

func TestSummaryHandlerAnalyticsParsesQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeSummarySrv{summary: &dto.SummaryResponse{}}
	handler := NewSummaryHandler(srv, &fakeHistorySrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet,
		"/fee-summary/analytics?courseName=BTech&batchStartYear=2023&batchEndYear=2027&semester=3&status=pending&startDate=2024-01-01&endDate=2024-06-30", nil)

	handler.Analytics(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "BTech", srv.lastQuery.CourseName)
	assert.Equal(t, 2023, srv.lastQuery.BatchStartYear)
	assert.Equal(t, 2027, srv.lastQuery.BatchEndYear)
	require.NotNil(t, srv.lastQuery.Semester)
	assert.Equal(t, 3, *srv.lastQuery.Semester)
	assert.Equal(t, models.LedgerStatusPending, srv.lastQuery.Status)
	require.NotNil(t, srv.lastQuery.StartDate)
	require.NotNil(t, srv.lastQuery.EndDate)
	// endDate covers the whole day
	assert.Equal(t, 23, srv.lastQuery.EndDate.Hour())
}

func TestSummaryHandlerAnalyticsBatchYearsMustPair(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewSummaryHandler(&fakeSummarySrv{}, &fakeHistorySrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/fee-summary/analytics?batchStartYear=2023", nil)

	handler.Analytics(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSummaryHandlerAnalyticsInvalidStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewSummaryHandler(&fakeSummarySrv{}, &fakeHistorySrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/fee-summary/analytics?status=bogus", nil)

	handler.Analytics(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSummaryHandlerAnalyticsEndBeforeStart(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewSummaryHandler(&fakeSummarySrv{}, &fakeHistorySrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/fee-summary/analytics?startDate=2024-06-30&endDate=2024-01-01", nil)

	handler.Analytics(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSummaryHandlerExportCSV(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeSummarySrv{csv: []byte("Type,TotalFees\nSummary,18000.00\n")}
	handler := NewSummaryHandler(srv, &fakeHistorySrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/fee-summary/export", nil)

	handler.Export(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=fee-report-2024-08-15.csv", rec.Header().Get("Content-Disposition"))
	assert.Contains(t, rec.Body.String(), "Summary,18000.00")
}

func TestSummaryHandlerExportPDF(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeSummarySrv{pdf: []byte("%PDF-1.3")}
	handler := NewSummaryHandler(srv, &fakeHistorySrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/fee-summary/export?format=pdf", nil)

	handler.Export(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=fee-report-2024-08-15.pdf", rec.Header().Get("Content-Disposition"))
}

func TestSummaryHandlerExportUnknownFormat(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewSummaryHandler(&fakeSummarySrv{}, &fakeHistorySrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/fee-summary/export?format=xlsx", nil)

	handler.Export(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSummaryHandlerHistory(t *testing.T) {
	gin.SetMode(gin.TestMode)
	entry := &models.LedgerEntry{
		ID: "fp-1",
		PaymentHistory: models.PaymentHistory{
			{Amount: 500, Type: models.HistoryPayment, Description: "Payment via UPI"},
		},
		Transactions: models.Transactions{
			{TransactionID: "txn-1", Amount: 500, PaymentMethod: models.MethodUPI, Status: models.TransactionCompleted},
		},
	}
	handler := NewSummaryHandler(&fakeSummarySrv{}, &fakeHistorySrv{entry: entry})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/fee-summary/fp-1/history", nil)
	c.Params = gin.Params{{Key: "feePaymentId", Value: "fp-1"}}

	handler.History(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	var history dto.HistoryResponse
	require.NoError(t, json.Unmarshal(envelope.Data, &history))
	require.Len(t, history.PaymentHistory, 1)
	require.Len(t, history.Transactions, 1)
	assert.Equal(t, "txn-1", history.Transactions[0].TransactionID)
}

func TestSummaryHandlerSearchStudents(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeSummarySrv{}
	handler := NewSummaryHandler(srv, &fakeHistorySrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/fee-summary/students/search?name=ash", nil)

	handler.SearchStudents(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ash", srv.lastName)
}
