package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hr-loanengine/internal/core/domain"
	"hr-loanengine/internal/pkg/metrics"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// RepaymentResult is the outcome of a repayment posting
type RepaymentResult struct {
	Entry     domain.RepaymentScheduleEntry
	Loan      domain.Loan
	Repayment domain.Repayment
	// Replayed is set when the idempotency key matched an earlier posting
	Replayed bool
}

// RepaymentService posts payments against schedule entries
type RepaymentService struct {
	store  Store
	notify *NotificationService
	log    *logrus.Logger
	now    func() time.Time
}

// NewRepaymentService creates a new repayment service
func NewRepaymentService(store Store, notify *NotificationService, log *logrus.Logger) *RepaymentService {
	return &RepaymentService{
		store:  store,
		notify: notify,
		log:    log,
		now:    time.Now,
	}
}

// Pay applies amount to the schedule entry and reconciles the loan.
// A non-empty idempotencyKey that was already used for this entry returns the
// earlier result without applying the amount again.
func (s *RepaymentService) Pay(ctx context.Context, scheduleID string, amount decimal.Decimal, idempotencyKey string, actor Actor) (*RepaymentResult, error) {
	if idempotencyKey != "" {
		result, err := s.replay(ctx, scheduleID, idempotencyKey)
		if err != nil || result != nil {
			return result, err
		}
	}

	var result RepaymentResult
	var completed bool
	err := s.store.WithinTransaction(ctx, func(tx Store) error {
		entry, err := tx.Schedules().GetByID(ctx, scheduleID)
		if err != nil {
			return err
		}
		loan, err := tx.Loans().GetByID(ctx, entry.LoanID)
		if err != nil {
			return err
		}

		now := s.now()
		posted, err := domain.PostRepayment(*entry, amount, now)
		if err != nil {
			return err
		}
		if err := loan.EnsureRepayable(); err != nil {
			return err
		}
		if err := tx.Schedules().Update(ctx, &posted); err != nil {
			return err
		}

		entries, err := tx.Schedules().GetByLoanID(ctx, loan.ID)
		if err != nil {
			return err
		}
		reconciled, err := domain.ReconcileLoan(*loan, entries, now)
		if err != nil {
			return err
		}
		if err := tx.Loans().Update(ctx, &reconciled); err != nil {
			return err
		}

		repayment := domain.Repayment{
			ScheduleEntryID: posted.ID,
			LoanID:          loan.ID,
			Amount:          amount,
			IdempotencyKey:  idempotencyKey,
			PostedBy:        actor.name(),
			PostedAt:        now,
		}
		if err := tx.Repayments().Create(ctx, &repayment); err != nil {
			return err
		}

		desc := fmt.Sprintf("installment %d: %s", posted.InstallmentNumber, posted.Status)
		if err := recordHistory(ctx, tx, loan.ID, domain.HistoryRepayment, loan.Status, loan.Status, &amount, desc, actor, now); err != nil {
			return err
		}
		if reconciled.Status == domain.LoanStatusCompleted {
			completed = true
			if err := recordHistory(ctx, tx, loan.ID, domain.HistoryComplete, loan.Status, reconciled.Status, nil, "all installments paid", actor, now); err != nil {
				return err
			}
		}

		result = RepaymentResult{Entry: posted, Loan: reconciled, Repayment: repayment}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RepaymentsPosted.Inc()
	metrics.RepaymentAmount.Add(amount.InexactFloat64())
	s.log.WithFields(logrus.Fields{
		"loan_id":     result.Loan.ID,
		"schedule_id": result.Entry.ID,
		"installment": result.Entry.InstallmentNumber,
		"amount":      amount.StringFixed(2),
		"status":      result.Entry.Status,
	}).Info("repayment posted")
	s.notify.NotifyRepaymentPosted(ctx, result.Loan, result.Entry, amount, actor.name())

	if completed {
		metrics.LoanTransitions.WithLabelValues(string(domain.EventComplete)).Inc()
		s.log.WithField("loan_id", result.Loan.ID).Info("loan completed")
		s.notify.NotifyLoanCompleted(ctx, result.Loan)
	}
	return &result, nil
}

// replay returns the stored outcome for a known idempotency key, or nil when the key is new
func (s *RepaymentService) replay(ctx context.Context, scheduleID, key string) (*RepaymentResult, error) {
	prior, err := s.store.Repayments().GetByIdempotencyKey(ctx, key)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if prior.ScheduleEntryID != scheduleID {
		return nil, &domain.ValidationError{Field: "Idempotency-Key", Reason: "was already used for another installment"}
	}

	entry, err := s.store.Schedules().GetByID(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	loan, err := s.store.Loans().GetByID(ctx, entry.LoanID)
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"loan_id":     loan.ID,
		"schedule_id": scheduleID,
	}).Info("repayment replayed for idempotency key")
	return &RepaymentResult{Entry: *entry, Loan: *loan, Repayment: *prior, Replayed: true}, nil
}

// recordHistory appends an audit row inside tx
func recordHistory(ctx context.Context, tx Store, loanID string, t domain.HistoryType, from, to domain.LoanStatus, amount *decimal.Decimal, desc string, actor Actor, at time.Time) error {
	h := &domain.HistoryEntry{
		LoanID:      loanID,
		Type:        t,
		FromStatus:  from,
		ToStatus:    to,
		Amount:      amount,
		Description: desc,
		PerformedBy: actor.name(),
		IPAddress:   actor.IPAddress,
		CreatedAt:   at,
	}
	if err := tx.History().Create(ctx, h); err != nil {
		return fmt.Errorf("record %s history: %w", t, err)
	}
	return nil
}
