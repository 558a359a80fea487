package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Event is a lifecycle trigger applied to a loan
type Event string

const (
	EventCreate   Event = "create"
	EventApprove  Event = "approve"
	EventReject   Event = "reject"
	EventCancel   Event = "cancel"
	EventComplete Event = "complete"
	EventEdit     Event = "edit"
	// EventRepay is not a status change; it is used to report repayments on non-active loans
	EventRepay Event = "repay"
)

var transitions = map[LoanStatus]map[Event]LoanStatus{
	LoanStatusPending: {
		EventApprove: LoanStatusActive,
		EventReject:  LoanStatusRejected,
		EventCancel:  LoanStatusCancelled,
		EventEdit:    LoanStatusPending,
	},
	LoanStatusApproved: {
		EventCancel: LoanStatusCancelled,
	},
	LoanStatusActive: {
		EventCancel:   LoanStatusCancelled,
		EventComplete: LoanStatusCompleted,
	},
}

// Transition looks up the target status for event from status.
// An empty status only accepts EventCreate.
func Transition(from LoanStatus, event Event) (LoanStatus, error) {
	if from == "" {
		if event == EventCreate {
			return LoanStatusPending, nil
		}
		return "", &InvalidTransitionError{From: from, Event: event}
	}
	to, ok := transitions[from][event]
	if !ok {
		return "", &InvalidTransitionError{From: from, Event: event}
	}
	return to, nil
}

// NewLoan runs the create transition: validates the draft, re-checks eligibility
// against the employee's current portfolio and returns the PENDING loan with its schedule.
func NewLoan(draft LoanDraft, portfolio EmployeeLoanPortfolio, createdBy string, policy Policy, now time.Time) (Loan, []RepaymentScheduleEntry, error) {
	if err := draft.Validate(policy, now); err != nil {
		return Loan{}, nil, err
	}
	draft, err := draft.Recompute(policy.RateMode)
	if err != nil {
		return Loan{}, nil, err
	}
	if err := EvaluateEligibility(draft.EmployeeID, draft.Principal, portfolio, policy).Err(); err != nil {
		return Loan{}, nil, err
	}
	status, err := Transition("", EventCreate)
	if err != nil {
		return Loan{}, nil, err
	}

	loan := Loan{
		EmployeeID:                draft.EmployeeID,
		Principal:                 draft.Principal,
		AnnualInterestRatePercent: draft.AnnualInterestRatePercent,
		Frequency:                 draft.Frequency,
		TotalInstallments:         draft.TotalInstallments,
		InstallmentAmount:         draft.InstallmentAmount,
		TotalRepayment:            draft.TotalRepayment,
		StartDate:                 draft.StartDate,
		EndDate:                   draft.EndDate,
		Status:                    status,
		RemainingBalance:          draft.TotalRepayment,
		Description:               draft.Description,
		CreatedBy:                 createdBy,
		Version:                   1,
		CreatedAt:                 now,
		UpdatedAt:                 now,
	}
	return loan, GenerateSchedule(loan), nil
}

// Draft returns the editable terms of the loan
func (l Loan) Draft() LoanDraft {
	return LoanDraft{
		EmployeeID:                l.EmployeeID,
		Principal:                 l.Principal,
		AnnualInterestRatePercent: l.AnnualInterestRatePercent,
		Frequency:                 l.Frequency,
		TotalInstallments:         l.TotalInstallments,
		StartDate:                 l.StartDate,
		Description:               l.Description,
		InstallmentAmount:         l.InstallmentAmount,
		TotalRepayment:            l.TotalRepayment,
		TotalInterest:             l.TotalInterest(),
		EndDate:                   l.EndDate,
	}
}

// Approve moves a PENDING loan to ACTIVE
func (l Loan) Approve(actor string, now time.Time) (Loan, error) {
	to, err := Transition(l.Status, EventApprove)
	if err != nil {
		return l, err
	}
	if strings.TrimSpace(actor) == "" {
		return l, &InvalidTransitionError{From: l.Status, Event: EventApprove, Reason: "approver is required"}
	}
	l.Status = to
	l.ApprovedBy = actor
	l.ApprovedAt = &now
	l.UpdatedAt = now
	return l, nil
}

// Reject moves a PENDING loan to REJECTED with a mandatory reason
func (l Loan) Reject(actor, reason string, now time.Time) (Loan, error) {
	to, err := Transition(l.Status, EventReject)
	if err != nil {
		return l, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return l, &InvalidTransitionError{From: l.Status, Event: EventReject, Reason: "rejection reason is required"}
	}
	l.Status = to
	l.RejectedBy = actor
	l.RejectedAt = &now
	l.RejectionReason = reason
	l.UpdatedAt = now
	return l, nil
}

// Cancel moves any non-terminal loan to CANCELLED.
// Open schedule entries are closed separately with CancelOpenEntries.
func (l Loan) Cancel(actor string, now time.Time) (Loan, error) {
	to, err := Transition(l.Status, EventCancel)
	if err != nil {
		return l, err
	}
	l.Status = to
	l.CancelledBy = actor
	l.CancelledAt = &now
	l.UpdatedAt = now
	return l, nil
}

// Complete moves an ACTIVE loan with every installment paid to COMPLETED
func (l Loan) Complete(now time.Time) (Loan, error) {
	to, err := Transition(l.Status, EventComplete)
	if err != nil {
		return l, err
	}
	if l.PaidInstallments != l.TotalInstallments {
		return l, &InvalidTransitionError{From: l.Status, Event: EventComplete, Reason: "not all installments are paid"}
	}
	l.Status = to
	l.RemainingBalance = decimal.Zero
	l.CompletedAt = &now
	l.UpdatedAt = now
	return l, nil
}

// ApplyTerms replaces the terms of a PENDING loan and recomputes the derived fields.
// The caller regenerates the schedule from the returned loan.
func (l Loan) ApplyTerms(draft LoanDraft, policy Policy, now time.Time) (Loan, error) {
	to, err := Transition(l.Status, EventEdit)
	if err != nil {
		return l, err
	}
	draft.EmployeeID = l.EmployeeID
	if err := draft.Validate(policy, now); err != nil {
		return l, err
	}
	draft, err = draft.Recompute(policy.RateMode)
	if err != nil {
		return l, err
	}

	l.Status = to
	l.Principal = draft.Principal
	l.AnnualInterestRatePercent = draft.AnnualInterestRatePercent
	l.Frequency = draft.Frequency
	l.TotalInstallments = draft.TotalInstallments
	l.InstallmentAmount = draft.InstallmentAmount
	l.TotalRepayment = draft.TotalRepayment
	l.StartDate = draft.StartDate
	l.EndDate = draft.EndDate
	l.RemainingBalance = draft.TotalRepayment
	l.PaidInstallments = 0
	l.Description = draft.Description
	l.UpdatedAt = now
	return l, nil
}

// EnsureRepayable rejects repayments on loans that are not ACTIVE
func (l Loan) EnsureRepayable() error {
	if l.Status != LoanStatusActive {
		return &InvalidTransitionError{From: l.Status, Event: EventRepay, Reason: "repayments are only accepted on active loans"}
	}
	return nil
}
