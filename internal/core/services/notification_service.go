package services

import (
	"context"
	"fmt"
	"time"

	"hr-loanengine/internal/core/domain"
	"hr-loanengine/internal/pkg/metrics"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// NotificationService turns loan outcomes into semantic notifications and publishes them
type NotificationService struct {
	publisher EventPublisher
	log       *logrus.Logger
	now       func() time.Time
}

// NewNotificationService creates a new notification service
func NewNotificationService(publisher EventPublisher, log *logrus.Logger) *NotificationService {
	return &NotificationService{
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

// publish delivers the event; failures are logged and counted, never returned,
// because the state change it describes has already committed.
func (s *NotificationService) publish(ctx context.Context, event domain.LoanEvent) {
	event.ID = uuid.NewString()
	event.OccurredAt = s.now()

	if err := s.publisher.Publish(ctx, event); err != nil {
		metrics.PublishFailures.WithLabelValues(string(event.Type)).Inc()
		s.log.WithError(err).WithFields(logrus.Fields{
			"event":       event.Type,
			"loan_id":     event.LoanID,
			"employee_id": event.EmployeeID,
		}).Error("failed to publish loan event")
	}
}

func loanEvent(t domain.EventType, loan domain.Loan, actor string, n domain.Notification) domain.LoanEvent {
	return domain.LoanEvent{
		Type:         t,
		LoanID:       loan.ID,
		EmployeeID:   loan.EmployeeID,
		Status:       loan.Status,
		Actor:        actor,
		Notification: n,
	}
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// NotifyLoanCreated announces a new PENDING application
func (s *NotificationService) NotifyLoanCreated(ctx context.Context, loan domain.Loan, actor string) {
	e := loanEvent(domain.EventTypeLoanCreated, loan, actor, domain.Notification{
		Level: domain.LevelSuccess,
		Title: "Loan application submitted",
		Message: fmt.Sprintf("Loan of %s over %d %s installments of %s is awaiting approval",
			money(loan.Principal), loan.TotalInstallments, loan.Frequency, money(loan.InstallmentAmount)),
	})
	amount := loan.Principal
	e.Amount = &amount
	s.publish(ctx, e)
}

// NotifyLoanUpdated announces edited terms
func (s *NotificationService) NotifyLoanUpdated(ctx context.Context, loan domain.Loan, actor string) {
	s.publish(ctx, loanEvent(domain.EventTypeLoanUpdated, loan, actor, domain.Notification{
		Level:   domain.LevelSuccess,
		Title:   "Loan updated",
		Message: fmt.Sprintf("Installment is now %s, ending %s", money(loan.InstallmentAmount), loan.EndDate.Format("2006-01-02")),
	}))
}

// NotifyLoanApproved announces activation
func (s *NotificationService) NotifyLoanApproved(ctx context.Context, loan domain.Loan, actor string) {
	s.publish(ctx, loanEvent(domain.EventTypeLoanApproved, loan, actor, domain.Notification{
		Level:   domain.LevelSuccess,
		Title:   "Loan approved",
		Message: fmt.Sprintf("First installment of %s is due %s", money(loan.InstallmentAmount), domain.DueDate(loan.StartDate, loan.Frequency, 1).Format("2006-01-02")),
	}))
}

// NotifyLoanRejected announces a rejection with its reason
func (s *NotificationService) NotifyLoanRejected(ctx context.Context, loan domain.Loan, actor string) {
	s.publish(ctx, loanEvent(domain.EventTypeLoanRejected, loan, actor, domain.Notification{
		Level:   domain.LevelWarning,
		Title:   "Loan rejected",
		Message: loan.RejectionReason,
	}))
}

// NotifyLoanCancelled announces a cancellation
func (s *NotificationService) NotifyLoanCancelled(ctx context.Context, loan domain.Loan, actor string) {
	s.publish(ctx, loanEvent(domain.EventTypeLoanCancelled, loan, actor, domain.Notification{
		Level:   domain.LevelWarning,
		Title:   "Loan cancelled",
		Message: "Open installments were cancelled",
	}))
}

// NotifyLoanCompleted announces the final repayment
func (s *NotificationService) NotifyLoanCompleted(ctx context.Context, loan domain.Loan) {
	s.publish(ctx, loanEvent(domain.EventTypeLoanCompleted, loan, "", domain.Notification{
		Level:   domain.LevelSuccess,
		Title:   "Loan completed",
		Message: fmt.Sprintf("All %d installments are paid", loan.TotalInstallments),
	}))
}

// NotifyRepaymentPosted announces an accepted payment
func (s *NotificationService) NotifyRepaymentPosted(ctx context.Context, loan domain.Loan, entry domain.RepaymentScheduleEntry, amount decimal.Decimal, actor string) {
	msg := fmt.Sprintf("Payment of %s received for installment %d", money(amount), entry.InstallmentNumber)
	if entry.Status == domain.EntryStatusPartial {
		msg = fmt.Sprintf("%s, %s still due", msg, money(entry.Outstanding()))
	}
	e := loanEvent(domain.EventTypeRepaymentPosted, loan, actor, domain.Notification{
		Level:   domain.LevelSuccess,
		Title:   "Repayment posted",
		Message: msg,
	})
	e.Amount = &amount
	e.InstallmentNumber = entry.InstallmentNumber
	s.publish(ctx, e)
}

// NotifyInstallmentOverdue warns about a missed installment
func (s *NotificationService) NotifyInstallmentOverdue(ctx context.Context, loan domain.Loan, entry domain.RepaymentScheduleEntry) {
	due := entry.Outstanding()
	e := loanEvent(domain.EventTypeInstallmentOverdue, loan, "", domain.Notification{
		Level:   domain.LevelWarning,
		Title:   "Installment overdue",
		Message: fmt.Sprintf("Installment %d of %s was due %s", entry.InstallmentNumber, money(due), entry.DueDate.Format("2006-01-02")),
	})
	e.Amount = &due
	e.InstallmentNumber = entry.InstallmentNumber
	s.publish(ctx, e)
}

// NotifyEligibilityRejected reports a blocked application with the failing rule
func (s *NotificationService) NotifyEligibilityRejected(ctx context.Context, employeeID string, requested decimal.Decimal, reason, actor string) {
	s.publish(ctx, domain.LoanEvent{
		Type:       domain.EventTypeEligibilityRejection,
		EmployeeID: employeeID,
		Amount:     &requested,
		Actor:      actor,
		Notification: domain.Notification{
			Level:   domain.LevelError,
			Title:   "Loan request not eligible",
			Message: reason,
		},
	})
}
