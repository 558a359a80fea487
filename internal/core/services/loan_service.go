package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"hr-loanengine/internal/core/domain"
	"hr-loanengine/internal/pkg/metrics"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// LoanInput represents the loan terms submitted by a client
type LoanInput struct {
	EmployeeID                string          `json:"employee_id" validate:"omitempty,max=64"`
	Principal                 decimal.Decimal `json:"principal"`
	AnnualInterestRatePercent decimal.Decimal `json:"annual_interest_rate_percent"`
	Frequency                 string          `json:"installment_frequency" validate:"required,oneof=MONTHLY WEEKLY"`
	TotalInstallments         int             `json:"total_installments"`
	StartDate                 string          `json:"start_date" validate:"required,datetime=2006-01-02"`
	Description               string          `json:"description,omitempty"`
}

// Draft converts the input into a domain draft
func (in LoanInput) Draft() (domain.LoanDraft, error) {
	freq, err := domain.ParseFrequency(strings.ToUpper(strings.TrimSpace(in.Frequency)))
	if err != nil {
		return domain.LoanDraft{}, err
	}
	var start time.Time
	if in.StartDate != "" {
		start, err = time.Parse("2006-01-02", in.StartDate)
		if err != nil {
			return domain.LoanDraft{}, &domain.ValidationError{Field: "start_date", Reason: "must be formatted as YYYY-MM-DD"}
		}
	}
	return domain.LoanDraft{
		EmployeeID:                strings.TrimSpace(in.EmployeeID),
		Principal:                 in.Principal,
		AnnualInterestRatePercent: in.AnnualInterestRatePercent,
		Frequency:                 freq,
		TotalInstallments:         in.TotalInstallments,
		StartDate:                 start,
		Description:               strings.TrimSpace(in.Description),
	}, nil
}

// LoanDetail is a loan with its schedule as seen today
type LoanDetail struct {
	Loan     domain.Loan
	Schedule []domain.RepaymentScheduleEntry
}

// LoanService handles loan business logic
type LoanService struct {
	store     Store
	directory EmployeeDirectory
	notify    *NotificationService
	policy    domain.Policy
	log       *logrus.Logger
	now       func() time.Time
}

// NewLoanService creates a new loan service
func NewLoanService(store Store, directory EmployeeDirectory, notify *NotificationService, policy domain.Policy, log *logrus.Logger) *LoanService {
	return &LoanService{
		store:     store,
		directory: directory,
		notify:    notify,
		policy:    policy,
		log:       log,
		now:       time.Now,
	}
}

// Policy returns the lending limits in effect
func (s *LoanService) Policy() domain.Policy {
	return s.policy
}

func (a Actor) name() string {
	if a.Username != "" {
		return a.Username
	}
	return a.UserID
}

func (s *LoanService) history(ctx context.Context, tx Store, loanID string, t domain.HistoryType, from, to domain.LoanStatus, amount *decimal.Decimal, desc string, actor Actor) error {
	return recordHistory(ctx, tx, loanID, t, from, to, amount, desc, actor, s.now())
}

// Preview validates the terms and returns the recomputed draft without persisting anything
func (s *LoanService) Preview(ctx context.Context, input LoanInput) (domain.LoanDraft, error) {
	draft, err := input.Draft()
	if err != nil {
		return domain.LoanDraft{}, err
	}
	if err := draft.Validate(s.policy, s.now()); err != nil {
		return domain.LoanDraft{}, err
	}
	return draft.Recompute(s.policy.RateMode)
}

// employee resolves an active borrower from the directory
func (s *LoanService) employee(ctx context.Context, employeeID string) (*domain.Employee, error) {
	if employeeID == "" {
		return nil, &domain.ValidationError{Field: "employee_id", Reason: "is required"}
	}
	emp, err := s.directory.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if !emp.IsActive {
		return nil, &domain.EligibilityError{EmployeeID: employeeID, Reason: domain.ReasonEmployeeInactive}
	}
	return emp, nil
}

func (s *LoanService) eligibilityFailed(ctx context.Context, err error, requested decimal.Decimal, actor Actor) {
	var eligErr *domain.EligibilityError
	if !errors.As(err, &eligErr) {
		return
	}
	metrics.EligibilityRejections.WithLabelValues(eligErr.Reason).Inc()
	s.log.WithFields(logrus.Fields{
		"employee_id": eligErr.EmployeeID,
		"reason":      eligErr.Reason,
	}).Info("loan request not eligible")
	s.notify.NotifyEligibilityRejected(ctx, eligErr.EmployeeID, requested, eligErr.Reason, actor.name())
}

// Create validates the terms, re-checks eligibility against the current portfolio
// and stores a PENDING loan together with its schedule
func (s *LoanService) Create(ctx context.Context, input LoanInput, actor Actor) (*domain.Loan, error) {
	draft, err := input.Draft()
	if err != nil {
		return nil, err
	}
	if err := draft.Validate(s.policy, s.now()); err != nil {
		return nil, err
	}

	emp, err := s.employee(ctx, draft.EmployeeID)
	if err != nil {
		s.eligibilityFailed(ctx, err, draft.Principal, actor)
		return nil, err
	}

	var created domain.Loan
	err = s.store.WithinTransaction(ctx, func(tx Store) error {
		if err := tx.Loans().LockEmployee(ctx, draft.EmployeeID); err != nil {
			return err
		}
		existing, err := tx.Loans().GetByEmployeeID(ctx, draft.EmployeeID)
		if err != nil {
			return err
		}
		portfolio := domain.Summarize(existing, emp.MonthlySalary)

		loan, entries, err := domain.NewLoan(draft, portfolio, actor.name(), s.policy, s.now())
		if err != nil {
			return err
		}
		if err := tx.Loans().Create(ctx, &loan); err != nil {
			return err
		}
		for i := range entries {
			entries[i].LoanID = loan.ID
		}
		if err := tx.Schedules().CreateBatch(ctx, entries); err != nil {
			return err
		}
		amount := loan.Principal
		if err := s.history(ctx, tx, loan.ID, domain.HistoryCreate, "", loan.Status, &amount, loan.Description, actor); err != nil {
			return err
		}
		created = loan
		return nil
	})
	if err != nil {
		s.eligibilityFailed(ctx, err, draft.Principal, actor)
		return nil, err
	}

	metrics.LoanTransitions.WithLabelValues(string(domain.EventCreate)).Inc()
	s.log.WithFields(logrus.Fields{
		"loan_id":     created.ID,
		"employee_id": created.EmployeeID,
		"principal":   created.Principal.StringFixed(2),
	}).Info("loan created")
	s.notify.NotifyLoanCreated(ctx, created, actor.name())
	return &created, nil
}

// GetByID returns a loan with its schedule, OVERDUE derived for today
func (s *LoanService) GetByID(ctx context.Context, id string) (*LoanDetail, error) {
	loan, err := s.store.Loans().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	entries, err := s.store.Schedules().GetByLoanID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &LoanDetail{Loan: *loan, Schedule: s.withEffectiveStatus(entries)}, nil
}

func (s *LoanService) withEffectiveStatus(entries []domain.RepaymentScheduleEntry) []domain.RepaymentScheduleEntry {
	today := s.now()
	for i := range entries {
		entries[i].Status = domain.EffectiveStatus(entries[i], today)
	}
	return entries
}

// Update replaces the terms of a PENDING loan and regenerates its schedule
func (s *LoanService) Update(ctx context.Context, id string, input LoanInput, actor Actor) (*domain.Loan, error) {
	draft, err := input.Draft()
	if err != nil {
		return nil, err
	}

	current, err := s.store.Loans().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	emp, err := s.employee(ctx, current.EmployeeID)
	if err != nil {
		return nil, err
	}

	var updated domain.Loan
	err = s.store.WithinTransaction(ctx, func(tx Store) error {
		if err := tx.Loans().LockEmployee(ctx, current.EmployeeID); err != nil {
			return err
		}
		loan, err := tx.Loans().GetByID(ctx, id)
		if err != nil {
			return err
		}
		next, err := loan.ApplyTerms(draft, s.policy, s.now())
		if err != nil {
			return err
		}

		existing, err := tx.Loans().GetByEmployeeID(ctx, loan.EmployeeID)
		if err != nil {
			return err
		}
		others := existing[:0]
		for _, l := range existing {
			if l.ID != loan.ID {
				others = append(others, l)
			}
		}
		portfolio := domain.Summarize(others, emp.MonthlySalary)
		if err := domain.EvaluateEligibility(loan.EmployeeID, next.Principal, portfolio, s.policy).Err(); err != nil {
			return err
		}

		if err := tx.Loans().Update(ctx, &next); err != nil {
			return err
		}
		if err := tx.Schedules().DeleteByLoanID(ctx, loan.ID); err != nil {
			return err
		}
		if err := tx.Schedules().CreateBatch(ctx, domain.GenerateSchedule(next)); err != nil {
			return err
		}
		amount := next.Principal
		desc := fmt.Sprintf("terms changed: %s over %d %s installments", next.Principal.StringFixed(2), next.TotalInstallments, next.Frequency)
		if err := s.history(ctx, tx, loan.ID, domain.HistoryUpdate, loan.Status, next.Status, &amount, desc, actor); err != nil {
			return err
		}
		updated = next
		return nil
	})
	if err != nil {
		s.eligibilityFailed(ctx, err, draft.Principal, actor)
		return nil, err
	}

	metrics.LoanTransitions.WithLabelValues(string(domain.EventEdit)).Inc()
	s.log.WithField("loan_id", updated.ID).Info("loan terms updated")
	s.notify.NotifyLoanUpdated(ctx, updated, actor.name())
	return &updated, nil
}

// transition loads a loan, applies fn and stores the result with a history row
func (s *LoanService) transition(ctx context.Context, id string, event domain.Event, t domain.HistoryType, actor Actor, desc string,
	fn func(loan domain.Loan) (domain.Loan, error), after func(tx Store, loan domain.Loan) error) (*domain.Loan, error) {
	var result domain.Loan
	err := s.store.WithinTransaction(ctx, func(tx Store) error {
		loan, err := tx.Loans().GetByID(ctx, id)
		if err != nil {
			return err
		}
		next, err := fn(*loan)
		if err != nil {
			return err
		}
		if err := tx.Loans().Update(ctx, &next); err != nil {
			return err
		}
		if after != nil {
			if err := after(tx, next); err != nil {
				return err
			}
		}
		if desc == "" {
			desc = next.RejectionReason
		}
		if err := s.history(ctx, tx, next.ID, t, loan.Status, next.Status, nil, desc, actor); err != nil {
			return err
		}
		result = next
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.LoanTransitions.WithLabelValues(string(event)).Inc()
	s.log.WithFields(logrus.Fields{
		"loan_id": result.ID,
		"event":   event,
		"status":  result.Status,
		"actor":   actor.name(),
	}).Info("loan transition applied")
	return &result, nil
}

// Approve activates a PENDING loan
func (s *LoanService) Approve(ctx context.Context, id string, actor Actor) (*domain.Loan, error) {
	loan, err := s.transition(ctx, id, domain.EventApprove, domain.HistoryApprove, actor, "approved",
		func(l domain.Loan) (domain.Loan, error) { return l.Approve(actor.name(), s.now()) }, nil)
	if err != nil {
		return nil, err
	}
	s.notify.NotifyLoanApproved(ctx, *loan, actor.name())
	return loan, nil
}

// Reject closes a PENDING loan with a mandatory reason
func (s *LoanService) Reject(ctx context.Context, id, reason string, actor Actor) (*domain.Loan, error) {
	loan, err := s.transition(ctx, id, domain.EventReject, domain.HistoryReject, actor, "",
		func(l domain.Loan) (domain.Loan, error) { return l.Reject(actor.name(), reason, s.now()) }, nil)
	if err != nil {
		return nil, err
	}
	s.notify.NotifyLoanRejected(ctx, *loan, actor.name())
	return loan, nil
}

// Cancel closes a non-terminal loan and cancels its open installments
func (s *LoanService) Cancel(ctx context.Context, id string, actor Actor) (*domain.Loan, error) {
	loan, err := s.transition(ctx, id, domain.EventCancel, domain.HistoryCancel, actor, "cancelled",
		func(l domain.Loan) (domain.Loan, error) { return l.Cancel(actor.name(), s.now()) },
		func(tx Store, l domain.Loan) error {
			entries, err := tx.Schedules().GetByLoanID(ctx, l.ID)
			if err != nil {
				return err
			}
			for _, e := range domain.CancelOpenEntries(entries) {
				if err := tx.Schedules().Update(ctx, &e); err != nil {
					return err
				}
			}
			return nil
		})
	if err != nil {
		return nil, err
	}
	s.notify.NotifyLoanCancelled(ctx, *loan, actor.name())
	return loan, nil
}

// List returns a page of loans
func (s *LoanService) List(ctx context.Context, filter LoanFilter, opts ListOptions) ([]domain.Loan, int64, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, &domain.ValidationError{Field: "status", Reason: fmt.Sprintf("unknown loan status %q", filter.Status)}
	}
	return s.store.Loans().List(ctx, filter, opts)
}

// GetByEmployee returns every loan of an employee
func (s *LoanService) GetByEmployee(ctx context.Context, employeeID string) ([]domain.Loan, error) {
	return s.store.Loans().GetByEmployeeID(ctx, employeeID)
}

// OutstandingBalance sums the balances of the employee's PENDING and ACTIVE loans
func (s *LoanService) OutstandingBalance(ctx context.Context, employeeID string) (decimal.Decimal, error) {
	loans, err := s.store.Loans().GetByEmployeeID(ctx, employeeID)
	if err != nil {
		return decimal.Zero, err
	}
	return domain.Summarize(loans, decimal.Zero).TotalOutstanding, nil
}

// Portfolio aggregates the employee's loans including salary utilization
func (s *LoanService) Portfolio(ctx context.Context, employeeID string) (domain.EmployeeLoanPortfolio, error) {
	emp, err := s.directory.GetEmployee(ctx, employeeID)
	if err != nil {
		return domain.EmployeeLoanPortfolio{}, err
	}
	loans, err := s.store.Loans().GetByEmployeeID(ctx, employeeID)
	if err != nil {
		return domain.EmployeeLoanPortfolio{}, err
	}
	return domain.Summarize(loans, emp.MonthlySalary), nil
}

// CheckEligibility is the advisory eligibility check shown before submitting a request
func (s *LoanService) CheckEligibility(ctx context.Context, employeeID string, requested decimal.Decimal) (domain.EligibilityResult, error) {
	if !requested.IsPositive() {
		return domain.EligibilityResult{}, &domain.InvalidAmountError{Field: "amount", Reason: "must be greater than zero"}
	}
	emp, err := s.directory.GetEmployee(ctx, employeeID)
	if err != nil {
		return domain.EligibilityResult{}, err
	}
	if !emp.IsActive {
		return domain.EligibilityResult{Eligible: false, Reason: domain.ReasonEmployeeInactive}, nil
	}
	loans, err := s.store.Loans().GetByEmployeeID(ctx, employeeID)
	if err != nil {
		return domain.EligibilityResult{}, err
	}
	return domain.EvaluateEligibility(employeeID, requested, domain.Summarize(loans, emp.MonthlySalary), s.policy), nil
}

// GetSchedule returns the schedule of a loan, OVERDUE derived for today
func (s *LoanService) GetSchedule(ctx context.Context, loanID string) ([]domain.RepaymentScheduleEntry, error) {
	if _, err := s.store.Loans().GetByID(ctx, loanID); err != nil {
		return nil, err
	}
	entries, err := s.store.Schedules().GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	return s.withEffectiveStatus(entries), nil
}

// GetHistory returns the audit trail of a loan, newest first
func (s *LoanService) GetHistory(ctx context.Context, loanID string) ([]domain.HistoryEntry, error) {
	if _, err := s.store.Loans().GetByID(ctx, loanID); err != nil {
		return nil, err
	}
	return s.store.History().GetByLoanID(ctx, loanID)
}
