package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/campuspay/fee-ledger-api/internal/models"
	"github.com/campuspay/fee-ledger-api/pkg/jobs"
)

type overdueLister interface {
	ListOverdue(ctx context.Context, asOf time.Time) ([]models.LedgerEntry, error)
}

// Notification is an outbound reminder message.
type Notification struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// Notifier delivers reminder notifications.
type Notifier interface {
	Send(ctx context.Context, notification Notification) error
}

// LogNotifier writes notifications to the structured log. Stands in until a
// mail or messaging integration is wired.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier constructs a LogNotifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

// Send logs the notification.
func (n *LogNotifier) Send(_ context.Context, notification Notification) error {
	n.logger.Info("fee reminder",
		zap.String("to", notification.To),
		zap.String("subject", notification.Subject),
		zap.String("message", notification.Message))
	return nil
}

// ReminderService periodically sweeps overdue ledger entries and dispatches
// reminder notifications through a background worker queue.
type ReminderService struct {
	repo     overdueLister
	students studentReader
	plans    feePlanReader
	notifier Notifier
	queue    *jobs.Queue
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time

	stop chan struct{}
}

// NewReminderService constructs ReminderService.
func NewReminderService(repo overdueLister, students studentReader, plans feePlanReader, notifier Notifier, interval time.Duration, workers int, logger *zap.Logger) *ReminderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	s := &ReminderService{
		repo:     repo,
		students: students,
		plans:    plans,
		notifier: notifier,
		interval: interval,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
		stop:     make(chan struct{}),
	}
	s.queue = jobs.NewQueue("fee-reminders", s.handleJob, workers, logger)
	return s
}

// WithClock overrides the service clock. Test helper.
func (s *ReminderService) WithClock(now func() time.Time) *ReminderService {
	s.now = now
	return s
}

// Start launches the worker queue and the periodic sweep.
func (s *ReminderService) Start(ctx context.Context) {
	s.queue.Start(ctx)
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stop:
				return
			case <-ticker.C:
				if err := s.Sweep(ctx); err != nil {
					s.logger.Error("overdue sweep failed", zap.Error(err))
				}
			}
		}
	}()
}

// Stop halts the sweep loop and drains the queue workers.
func (s *ReminderService) Stop() {
	close(s.stop)
	s.queue.Stop()
}

type reminderPayload struct {
	EntryID     string
	StudentID   string
	FeePlanID   string
	TotalAmount float64
	DueDate     time.Time
}

// Sweep enqueues a reminder job for every overdue entry.
func (s *ReminderService) Sweep(ctx context.Context) error {
	entries, err := s.repo.ListOverdue(ctx, s.now())
	if err != nil {
		return err
	}
	for _, entry := range entries {
		job := jobs.Job{
			ID:   entry.ID,
			Type: "overdue-reminder",
			Payload: reminderPayload{
				EntryID:     entry.ID,
				StudentID:   entry.StudentID,
				FeePlanID:   entry.FeePlanID,
				TotalAmount: entry.TotalAmount,
				DueDate:     entry.DueDate,
			},
		}
		if err := s.queue.Enqueue(job); err != nil {
			s.logger.Warn("failed to enqueue reminder",
				zap.String("fee_payment_id", entry.ID),
				zap.Error(err))
		}
	}
	s.logger.Info("overdue sweep complete", zap.Int("entries", len(entries)))
	return nil
}

func (s *ReminderService) handleJob(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(reminderPayload)
	if !ok {
		return fmt.Errorf("unexpected reminder payload %T", job.Payload)
	}

	student, err := s.students.FindByID(ctx, payload.StudentID)
	if err != nil || student.Email == "" {
		s.logger.Warn("skipping reminder without student email",
			zap.String("fee_payment_id", payload.EntryID),
			zap.Error(err))
		return nil
	}

	planName := "fee plan"
	if plan, err := s.plans.FindByID(ctx, payload.FeePlanID); err == nil {
		planName = plan.Name
	}

	notification := Notification{
		To:      student.Email,
		Subject: fmt.Sprintf("Overdue Fee: %s", planName),
		Message: fmt.Sprintf("Your fee of %.2f was due on %s", payload.TotalAmount, payload.DueDate.Format("Mon Jan 2 2006")),
	}
	return s.notifier.Send(ctx, notification)
}
