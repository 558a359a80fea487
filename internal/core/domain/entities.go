package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// LoanStatus represents the lifecycle stage of a loan
type LoanStatus string

const (
	LoanStatusPending   LoanStatus = "PENDING"
	LoanStatusApproved  LoanStatus = "APPROVED"
	LoanStatusActive    LoanStatus = "ACTIVE"
	LoanStatusCompleted LoanStatus = "COMPLETED"
	LoanStatusRejected  LoanStatus = "REJECTED"
	LoanStatusCancelled LoanStatus = "CANCELLED"
)

// LoanStatuses lists every loan status in lifecycle order
var LoanStatuses = []LoanStatus{
	LoanStatusPending,
	LoanStatusApproved,
	LoanStatusActive,
	LoanStatusCompleted,
	LoanStatusRejected,
	LoanStatusCancelled,
}

// ParseLoanStatus converts a raw string into a LoanStatus
func ParseLoanStatus(s string) (LoanStatus, error) {
	status := LoanStatus(s)
	if !status.Valid() {
		return "", fmt.Errorf("invalid loan status: %q", s)
	}
	return status, nil
}

// Valid reports whether s is one of the known statuses
func (s LoanStatus) Valid() bool {
	switch s {
	case LoanStatusPending, LoanStatusApproved, LoanStatusActive,
		LoanStatusCompleted, LoanStatusRejected, LoanStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further lifecycle event is accepted
func (s LoanStatus) IsTerminal() bool {
	switch s {
	case LoanStatusCompleted, LoanStatusRejected, LoanStatusCancelled:
		return true
	case LoanStatusPending, LoanStatusApproved, LoanStatusActive:
		return false
	}
	return false
}

// Frequency is the installment period of a loan
type Frequency string

const (
	FrequencyMonthly Frequency = "MONTHLY"
	FrequencyWeekly  Frequency = "WEEKLY"
)

// ParseFrequency converts a raw string into a Frequency
func ParseFrequency(s string) (Frequency, error) {
	f := Frequency(s)
	if !f.Valid() {
		return "", &InvalidTermError{Reason: fmt.Sprintf("unsupported installment frequency %q", s)}
	}
	return f, nil
}

// Valid reports whether f is a supported frequency
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyMonthly, FrequencyWeekly:
		return true
	}
	return false
}

// PeriodsPerYear returns the number of installment periods in a year
func (f Frequency) PeriodsPerYear() int {
	switch f {
	case FrequencyMonthly:
		return 12
	case FrequencyWeekly:
		return 52
	}
	return 0
}

// EntryStatus represents the state of one repayment schedule entry
type EntryStatus string

const (
	EntryStatusPending   EntryStatus = "PENDING"
	EntryStatusPaid      EntryStatus = "PAID"
	EntryStatusOverdue   EntryStatus = "OVERDUE" // derived at read time, never stored
	EntryStatusPartial   EntryStatus = "PARTIAL"
	EntryStatusCancelled EntryStatus = "CANCELLED"
)

// Loan represents an employee loan
type Loan struct {
	ID                        string
	EmployeeID                string
	Principal                 decimal.Decimal
	AnnualInterestRatePercent decimal.Decimal
	Frequency                 Frequency
	TotalInstallments         int
	InstallmentAmount         decimal.Decimal
	TotalRepayment            decimal.Decimal
	StartDate                 time.Time
	EndDate                   time.Time
	Status                    LoanStatus
	PaidInstallments          int
	RemainingBalance          decimal.Decimal
	Description               string

	CreatedBy       string
	ApprovedBy      string
	ApprovedAt      *time.Time
	RejectedBy      string
	RejectedAt      *time.Time
	RejectionReason string
	CancelledBy     string
	CancelledAt     *time.Time
	CompletedAt     *time.Time

	Version   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TotalInterest returns the interest portion of the repayment
func (l Loan) TotalInterest() decimal.Decimal {
	return l.TotalRepayment.Sub(l.Principal)
}

// RepaymentScheduleEntry is one installment obligation of a loan
type RepaymentScheduleEntry struct {
	ID                string
	LoanID            string
	InstallmentNumber int
	DueDate           time.Time
	ScheduledAmount   decimal.Decimal
	PaidAmount        *decimal.Decimal
	PaymentDate       *time.Time
	Status            EntryStatus
}

// Outstanding returns the unpaid part of the entry
func (e RepaymentScheduleEntry) Outstanding() decimal.Decimal {
	switch e.Status {
	case EntryStatusPaid, EntryStatusCancelled:
		return decimal.Zero
	}
	if e.PaidAmount == nil {
		return e.ScheduledAmount
	}
	rest := e.ScheduledAmount.Sub(*e.PaidAmount)
	if rest.IsNegative() {
		return decimal.Zero
	}
	return rest
}

// Repayment records one accepted payment posting
type Repayment struct {
	ID              string
	ScheduleEntryID string
	LoanID          string
	Amount          decimal.Decimal
	IdempotencyKey  string
	PostedBy        string
	PostedAt        time.Time
}

// HistoryType identifies an audit trail row
type HistoryType string

const (
	HistoryCreate    HistoryType = "CREATE"
	HistoryUpdate    HistoryType = "UPDATE"
	HistoryApprove   HistoryType = "APPROVE"
	HistoryReject    HistoryType = "REJECT"
	HistoryCancel    HistoryType = "CANCEL"
	HistoryRepayment HistoryType = "REPAYMENT"
	HistoryComplete  HistoryType = "COMPLETE"
)

// HistoryEntry is one row of a loan's audit trail
type HistoryEntry struct {
	ID          uint
	LoanID      string
	Type        HistoryType
	FromStatus  LoanStatus
	ToStatus    LoanStatus
	Amount      *decimal.Decimal
	Description string
	PerformedBy string
	IPAddress   string
	CreatedAt   time.Time
}

// Employee is the read-only directory view of a borrower
type Employee struct {
	ID            string
	FullName      string
	Department    string
	MonthlySalary decimal.Decimal
	IsActive      bool
}

// EmployeeLoanPortfolio aggregates the loans of one employee (or of all loans)
type EmployeeLoanPortfolio struct {
	TotalLoans              int             `json:"total_loans"`
	TotalOutstanding        decimal.Decimal `json:"total_outstanding"`
	ActiveCount             int             `json:"active_count"`
	PendingCount            int             `json:"pending_count"`
	ApprovedCount           int             `json:"approved_count"`
	CompletedCount          int             `json:"completed_count"`
	RejectedCount           int             `json:"rejected_count"`
	CancelledCount          int             `json:"cancelled_count"`
	MonthlyRepaymentTotal   decimal.Decimal `json:"monthly_repayment_total"`
	UtilizationRatioPercent decimal.Decimal `json:"utilization_ratio_percent"`
}
