package services

import (
	"context"
	"fmt"
	"time"

	"hr-loanengine/internal/core/domain"
	"hr-loanengine/internal/pkg/metrics"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// ReminderService periodically warns about overdue installments.
// It writes nothing; OVERDUE stays a derived status.
type ReminderService struct {
	store  Store
	notify *NotificationService
	log    *logrus.Logger
	cron   *cron.Cron
	now    func() time.Time
}

// NewReminderService schedules the overdue scan on a standard 5-field cron spec
func NewReminderService(store Store, notify *NotificationService, log *logrus.Logger, spec string) (*ReminderService, error) {
	s := &ReminderService{
		store:  store,
		notify: notify,
		log:    log,
		cron:   cron.New(),
		now:    time.Now,
	}
	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return nil, fmt.Errorf("invalid reminder schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start launches the scheduler in its own goroutine
func (s *ReminderService) Start() {
	s.cron.Start()
	s.log.Info("reminder service started")
}

// Stop stops the scheduler and waits for a running scan to finish
func (s *ReminderService) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("reminder service stopped")
}

func (s *ReminderService) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if _, err := s.RunOnce(ctx); err != nil {
		s.log.WithError(err).Error("overdue scan failed")
	}
}

// RunOnce scans for overdue installments, publishes one warning per entry
// and returns how many were found
func (s *ReminderService) RunOnce(ctx context.Context) (int, error) {
	today := domain.DateOf(s.now())
	entries, err := s.store.Schedules().ListPendingDueBefore(ctx, today)
	if err != nil {
		return 0, err
	}
	metrics.OverdueInstallments.Set(float64(len(entries)))

	loans := make(map[string]*domain.Loan)
	for _, e := range entries {
		loan, ok := loans[e.LoanID]
		if !ok {
			loan, err = s.store.Loans().GetByID(ctx, e.LoanID)
			if err != nil {
				s.log.WithError(err).WithField("loan_id", e.LoanID).Warn("skipping overdue entry")
				continue
			}
			loans[e.LoanID] = loan
		}
		s.notify.NotifyInstallmentOverdue(ctx, *loan, e)
	}

	if len(entries) > 0 {
		s.log.WithFields(logrus.Fields{
			"overdue": len(entries),
			"loans":   len(loans),
		}).Info("overdue installments found")
	}
	return len(entries), nil
}
