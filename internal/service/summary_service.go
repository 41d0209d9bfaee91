package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/campuspay/fee-ledger-api/internal/dto"
	"github.com/campuspay/fee-ledger-api/internal/models"
	appErrors "github.com/campuspay/fee-ledger-api/pkg/errors"
	"github.com/campuspay/fee-ledger-api/pkg/export"
)

const (
	summaryCachePrefix  = "fees:summary"
	dashboardCacheKey   = summaryCachePrefix + ":dashboard"
	missingLabel        = "N/A"
	noPaymentRecordNote = "No payment record"
)

// statusOrder fixes the emission order of status-keyed aggregates so repeated
// queries over the same data produce identical payloads.
var statusOrder = []models.LedgerStatus{
	models.LedgerStatusPending,
	models.LedgerStatusPartiallyPaid,
	models.LedgerStatusFullyPaid,
	models.LedgerStatusOverdue,
	models.LedgerStatusWaived,
}

type analyticsRepo interface {
	ListAggregateRows(ctx context.Context, filter models.SummaryFilter) ([]models.LedgerAggregateRow, error)
	ListAggregateRowsByStudents(ctx context.Context, studentIDs []string) ([]models.LedgerAggregateRow, error)
}

type catalogReader interface {
	FindCourseByName(ctx context.Context, name string) (*models.Course, error)
	FindBatchByYears(ctx context.Context, startYear, endYear int) (*models.Batch, error)
	ListCourses(ctx context.Context) ([]models.Course, error)
	ListBatches(ctx context.Context) ([]models.Batch, error)
}

type studentSearcher interface {
	SearchByName(ctx context.Context, name string, limit int) ([]models.Student, error)
}

// SummaryQuery carries the human-friendly filter inputs of the reporting
// endpoints. Course and batch arrive as labels and are resolved against the
// catalog before aggregation.
type SummaryQuery struct {
	CourseName     string
	BatchStartYear int
	BatchEndYear   int
	SectionID      string
	Status         models.LedgerStatus
	Semester       *int
	StartDate      *time.Time
	EndDate        *time.Time
}

// SummaryService computes the financial roll-ups served by the reporting
// endpoints. Aggregation happens in a single pass over joined ledger rows,
// cached behind Redis when enabled.
type SummaryService struct {
	analytics analyticsRepo
	catalog   catalogReader
	students  studentSearcher
	cache     *CacheService
	metrics   *MetricsService
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	cacheTTL  time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// NewSummaryService constructs SummaryService.
func NewSummaryService(analytics analyticsRepo, catalog catalogReader, students studentSearcher, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *SummaryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SummaryService{
		analytics: analytics,
		catalog:   catalog,
		students:  students,
		cache:     cache,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		cacheTTL:  cacheTTL,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the service clock. Test helper.
func (s *SummaryService) WithClock(now func() time.Time) *SummaryService {
	s.now = now
	return s
}

// WithMetrics attaches the instrumentation sink. Optional.
func (s *SummaryService) WithMetrics(metrics *MetricsService) *SummaryService {
	s.metrics = metrics
	return s
}

// Dashboard returns the unfiltered financial summary.
func (s *SummaryService) Dashboard(ctx context.Context) (*dto.SummaryResponse, error) {
	var cached dto.SummaryResponse
	if hit, _ := s.cache.Get(ctx, dashboardCacheKey, &cached); hit {
		return &cached, nil
	}

	summary, err := s.compute(ctx, models.SummaryFilter{})
	if err != nil {
		return nil, err
	}
	_ = s.cache.Set(ctx, dashboardCacheKey, summary, s.cacheTTL)
	return summary, nil
}

// Filtered returns a summary narrowed by the query dimensions.
func (s *SummaryService) Filtered(ctx context.Context, query SummaryQuery) (*dto.SummaryResponse, error) {
	filter, err := s.resolveFilter(ctx, query)
	if err != nil {
		return nil, err
	}

	key := filteredCacheKey(filter)
	var cached dto.SummaryResponse
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, nil
	}

	summary, err := s.compute(ctx, filter)
	if err != nil {
		return nil, err
	}
	_ = s.cache.Set(ctx, key, summary, s.cacheTTL)
	return summary, nil
}

// InvalidateSummaries drops every cached summary payload. Ledger writes call
// this so the dashboards never serve stale totals past the next request.
func (s *SummaryService) InvalidateSummaries(ctx context.Context) error {
	return s.cache.Invalidate(ctx, summaryCachePrefix+":*")
}

// ExportCSV renders the filtered summary as a CSV attachment.
func (s *SummaryService) ExportCSV(ctx context.Context, query SummaryQuery) ([]byte, string, error) {
	summary, err := s.Filtered(ctx, query)
	if err != nil {
		return nil, "", err
	}
	payload, err := s.csv.Render(buildReportDataset(summary))
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv report")
	}
	filename := fmt.Sprintf("fee-report-%s.csv", s.now().Format("2006-01-02"))
	return payload, filename, nil
}

// ExportPDF renders the filtered summary as a PDF attachment.
func (s *SummaryService) ExportPDF(ctx context.Context, query SummaryQuery) ([]byte, string, error) {
	summary, err := s.Filtered(ctx, query)
	if err != nil {
		return nil, "", err
	}
	payload, err := s.pdf.Render(buildReportDataset(summary), "Fee Report")
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf report")
	}
	filename := fmt.Sprintf("fee-report-%s.pdf", s.now().Format("2006-01-02"))
	return payload, filename, nil
}

// SearchStudents returns students matching the name together with their most
// recently updated fee status.
func (s *SummaryService) SearchStudents(ctx context.Context, name string) ([]models.StudentSearchResult, error) {
	students, err := s.students.SearchByName(ctx, name, 0)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to search students")
	}
	if len(students) == 0 {
		return []models.StudentSearchResult{}, nil
	}

	ids := make([]string, len(students))
	for i, student := range students {
		ids[i] = student.ID
	}
	rows, err := s.analytics.ListAggregateRowsByStudents(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load fee payments")
	}

	// Rows arrive newest first; keep the first status per student.
	latest := make(map[string]models.LedgerStatus, len(rows))
	for _, row := range rows {
		if _, ok := latest[row.StudentID]; !ok {
			latest[row.StudentID] = row.Status
		}
	}

	results := make([]models.StudentSearchResult, 0, len(students))
	for _, student := range students {
		status := noPaymentRecordNote
		if st, ok := latest[student.ID]; ok {
			status = string(st)
		}
		results = append(results, models.StudentSearchResult{
			StudentID: student.ID,
			Name:      student.Name,
			Status:    status,
		})
	}
	return results, nil
}

// Courses lists the course catalog for filter pickers.
func (s *SummaryService) Courses(ctx context.Context) ([]models.Course, error) {
	courses, err := s.catalog.ListCourses(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, nil
}

// Batches lists the batch catalog for filter pickers.
func (s *SummaryService) Batches(ctx context.Context) ([]models.Batch, error) {
	batches, err := s.catalog.ListBatches(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list batches")
	}
	return batches, nil
}

func (s *SummaryService) resolveFilter(ctx context.Context, query SummaryQuery) (models.SummaryFilter, error) {
	filter := models.SummaryFilter{
		SectionID: query.SectionID,
		Status:    query.Status,
		Semester:  query.Semester,
		StartDate: query.StartDate,
		EndDate:   query.EndDate,
	}
	if query.CourseName != "" {
		course, err := s.catalog.FindCourseByName(ctx, query.CourseName)
		if err != nil {
			if err == sql.ErrNoRows {
				return filter, appErrors.Clone(appErrors.ErrNotFound, "course not found")
			}
			return filter, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve course")
		}
		filter.CourseID = course.ID
	}
	if query.BatchStartYear != 0 && query.BatchEndYear != 0 {
		batch, err := s.catalog.FindBatchByYears(ctx, query.BatchStartYear, query.BatchEndYear)
		if err != nil {
			if err == sql.ErrNoRows {
				return filter, appErrors.Clone(appErrors.ErrNotFound, "batch not found")
			}
			return filter, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve batch")
		}
		filter.BatchID = batch.ID
	}
	return filter, nil
}

func (s *SummaryService) compute(ctx context.Context, filter models.SummaryFilter) (*dto.SummaryResponse, error) {
	start := time.Now()
	rows, err := s.analytics.ListAggregateRows(ctx, filter)
	s.metrics.ObserveDBQuery("fee_summary_aggregate", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate fee payments")
	}
	return buildSummary(rows), nil
}

// buildSummary folds joined ledger rows into the summary payload in a single
// pass, then orders every grouped section deterministically.
func buildSummary(rows []models.LedgerAggregateRow) *dto.SummaryResponse {
	summary := &dto.SummaryResponse{
		PaymentMethodBreakdown: []models.PaymentMethodTotal{},
		StatusDistribution:     []models.StatusCount{},
		StudentsByStatus:       []models.StudentStatusGroup{},
	}

	methodTotals := make(map[models.PaymentMethod]*models.PaymentMethodTotal)
	statusCounts := make(map[models.LedgerStatus]int)
	studentGroups := make(map[models.LedgerStatus][]models.StudentSummary)

	for i := range rows {
		row := &rows[i]
		summary.TotalFees += row.TotalAmount
		summary.TotalCollected += row.AmountPaid
		summary.TotalFines += row.LateFeeApplied
		if row.LateFeeApplied > 0 {
			summary.NumberOfFines++
		}
		summary.TotalScholarships += row.ScholarshipApplied + row.CustomScholarship.Amount
		summary.TotalDiscounts += row.DiscountApplied

		for _, tx := range row.Transactions {
			if tx.Status != models.TransactionCompleted {
				continue
			}
			entry, ok := methodTotals[tx.PaymentMethod]
			if !ok {
				entry = &models.PaymentMethodTotal{Method: tx.PaymentMethod}
				methodTotals[tx.PaymentMethod] = entry
			}
			entry.Total += tx.Amount
			entry.Transactions++
		}

		statusCounts[row.Status]++
		studentGroups[row.Status] = append(studentGroups[row.Status], models.StudentSummary{
			Name:      labelOrNA(row.StudentName.Valid, row.StudentName.String),
			StudentID: row.StudentID,
			Course:    labelOrNA(row.CourseName.Valid, row.CourseName.String),
			Batch:     batchLabel(row.StartYear, row.EndYear),
			Semester:  semesterLabel(row.Semester),
			Section:   labelOrNA(row.SectionName.Valid, row.SectionName.String),
		})
	}

	summary.TotalOutstanding = summary.TotalFees - summary.TotalCollected

	methods := make([]models.PaymentMethodTotal, 0, len(methodTotals))
	for _, entry := range methodTotals {
		methods = append(methods, *entry)
	}
	sort.Slice(methods, func(i, j int) bool { return methods[i].Method < methods[j].Method })
	summary.PaymentMethodBreakdown = methods

	for _, status := range statusOrder {
		if count, ok := statusCounts[status]; ok {
			summary.StatusDistribution = append(summary.StatusDistribution, models.StatusCount{Status: status, Count: count})
		}
		if students, ok := studentGroups[status]; ok {
			summary.StudentsByStatus = append(summary.StudentsByStatus, models.StudentStatusGroup{Status: status, Students: students})
		}
	}

	return summary
}

// reportColumns is the fixed column set of the exported report. Rows only
// populate the columns relevant to their Type.
var reportColumns = []string{
	"Type", "TotalFees", "TotalCollected", "TotalOutstanding", "TotalFines",
	"NumberOfFines", "TotalScholarships", "TotalDiscounts", "PaymentMethod",
	"Total", "Transactions", "Status", "Count", "StudentName", "StudentId",
	"Course", "Batch", "Semester", "Section",
}

func buildReportDataset(summary *dto.SummaryResponse) export.Dataset {
	rows := []map[string]string{{
		"Type":              "Summary",
		"TotalFees":         formatAmount(summary.TotalFees),
		"TotalCollected":    formatAmount(summary.TotalCollected),
		"TotalOutstanding":  formatAmount(summary.TotalOutstanding),
		"TotalFines":        formatAmount(summary.TotalFines),
		"NumberOfFines":     strconv.Itoa(summary.NumberOfFines),
		"TotalScholarships": formatAmount(summary.TotalScholarships),
		"TotalDiscounts":    formatAmount(summary.TotalDiscounts),
	}}

	for _, method := range summary.PaymentMethodBreakdown {
		rows = append(rows, map[string]string{
			"Type":          "Payment Method",
			"PaymentMethod": string(method.Method),
			"Total":         formatAmount(method.Total),
			"Transactions":  strconv.Itoa(method.Transactions),
		})
	}

	for _, status := range summary.StatusDistribution {
		rows = append(rows, map[string]string{
			"Type":   "Status Breakdown",
			"Status": string(status.Status),
			"Count":  strconv.Itoa(status.Count),
		})
	}

	for _, group := range summary.StudentsByStatus {
		for _, student := range group.Students {
			rows = append(rows, map[string]string{
				"Type":        "Student",
				"Status":      string(group.Status),
				"StudentName": student.Name,
				"StudentId":   student.StudentID,
				"Course":      student.Course,
				"Batch":       student.Batch,
				"Semester":    student.Semester,
				"Section":     student.Section,
			})
		}
	}

	return export.Dataset{Headers: reportColumns, Rows: rows}
}

func filteredCacheKey(filter models.SummaryFilter) string {
	parts := []string{
		summaryCachePrefix + ":filtered",
		filter.CourseID, filter.BatchID, filter.SectionID, string(filter.Status),
	}
	if filter.Semester != nil {
		parts = append(parts, strconv.Itoa(*filter.Semester))
	} else {
		parts = append(parts, "")
	}
	if filter.StartDate != nil {
		parts = append(parts, filter.StartDate.Format("2006-01-02"))
	} else {
		parts = append(parts, "")
	}
	if filter.EndDate != nil {
		parts = append(parts, filter.EndDate.Format("2006-01-02"))
	} else {
		parts = append(parts, "")
	}
	return strings.Join(parts, ":")
}

func labelOrNA(valid bool, value string) string {
	if !valid || value == "" {
		return missingLabel
	}
	return value
}

func batchLabel(start, end sql.NullInt64) string {
	if !start.Valid || !end.Valid {
		return missingLabel
	}
	return fmt.Sprintf("%d-%d", start.Int64, end.Int64)
}

func semesterLabel(semester sql.NullInt64) string {
	if !semester.Valid {
		return missingLabel
	}
	return strconv.FormatInt(semester.Int64, 10)
}

func formatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', 2, 64)
}
