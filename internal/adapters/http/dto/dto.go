// Package dto holds the JSON shapes of the loan API, shared by the handlers
// and the loan API client.
package dto

import (
	"time"

	"hr-loanengine/internal/core/domain"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire format of calendar dates
const DateLayout = "2006-01-02"

// LoanResponse represents a loan
type LoanResponse struct {
	ID                        string            `json:"id"`
	EmployeeID                string            `json:"employee_id"`
	Principal                 decimal.Decimal   `json:"principal"`
	AnnualInterestRatePercent decimal.Decimal   `json:"annual_interest_rate_percent"`
	Frequency                 domain.Frequency  `json:"installment_frequency"`
	TotalInstallments         int               `json:"total_installments"`
	InstallmentAmount         decimal.Decimal   `json:"installment_amount"`
	TotalRepayment            decimal.Decimal   `json:"total_repayment"`
	TotalInterest             decimal.Decimal   `json:"total_interest"`
	StartDate                 string            `json:"start_date"`
	EndDate                   string            `json:"end_date"`
	Status                    domain.LoanStatus `json:"status"`
	PaidInstallments          int               `json:"paid_installments"`
	RemainingBalance          decimal.Decimal   `json:"remaining_balance"`
	Description               string            `json:"description,omitempty"`

	CreatedBy       string     `json:"created_by,omitempty"`
	ApprovedBy      string     `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	RejectedBy      string     `json:"rejected_by,omitempty"`
	RejectedAt      *time.Time `json:"rejected_at,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
	CancelledBy     string     `json:"cancelled_by,omitempty"`
	CancelledAt     *time.Time `json:"cancelled_at,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`

	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ScheduleEntryResponse represents one installment
type ScheduleEntryResponse struct {
	ID                string             `json:"id"`
	LoanID            string             `json:"loan_id"`
	InstallmentNumber int                `json:"installment_number"`
	DueDate           string             `json:"due_date"`
	ScheduledAmount   decimal.Decimal    `json:"scheduled_amount"`
	PaidAmount        *decimal.Decimal   `json:"paid_amount,omitempty"`
	Outstanding       decimal.Decimal    `json:"outstanding"`
	PaymentDate       *time.Time         `json:"payment_date,omitempty"`
	Status            domain.EntryStatus `json:"status"`
}

// LoanDetailResponse is a loan with its schedule
type LoanDetailResponse struct {
	LoanResponse
	Schedule []ScheduleEntryResponse `json:"schedule"`
}

// HistoryResponse represents an audit trail row
type HistoryResponse struct {
	ID          uint               `json:"id"`
	Type        domain.HistoryType `json:"type"`
	FromStatus  domain.LoanStatus  `json:"from_status,omitempty"`
	ToStatus    domain.LoanStatus  `json:"to_status,omitempty"`
	Amount      *decimal.Decimal   `json:"amount,omitempty"`
	Description string             `json:"description,omitempty"`
	PerformedBy string             `json:"performed_by"`
	IPAddress   string             `json:"ip_address,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}

// RepaymentResponse is the outcome of a repayment posting
type RepaymentResponse struct {
	RepaymentID string                `json:"repayment_id"`
	Amount      decimal.Decimal       `json:"amount"`
	Replayed    bool                  `json:"replayed"`
	Entry       ScheduleEntryResponse `json:"entry"`
	Loan        LoanResponse          `json:"loan"`
}

// OutstandingBalanceResponse is the open balance of an employee
type OutstandingBalanceResponse struct {
	EmployeeID         string          `json:"employee_id"`
	OutstandingBalance decimal.Decimal `json:"outstanding_balance"`
}

// EligibilityResponse is the advisory eligibility outcome
type EligibilityResponse struct {
	EmployeeID string          `json:"employee_id"`
	Amount     decimal.Decimal `json:"amount"`
	Eligible   bool            `json:"eligible"`
	Reason     string          `json:"reason,omitempty"`
}

// RejectRequest carries a rejection reason in the body
type RejectRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

// EmployeeResponse represents a directory entry
type EmployeeResponse struct {
	ID            string          `json:"id"`
	FullName      string          `json:"full_name"`
	Department    string          `json:"department"`
	MonthlySalary decimal.Decimal `json:"monthly_salary"`
	IsActive      bool            `json:"is_active"`
}

// FromLoan converts a domain loan
func FromLoan(l domain.Loan) LoanResponse {
	return LoanResponse{
		ID:                        l.ID,
		EmployeeID:                l.EmployeeID,
		Principal:                 l.Principal,
		AnnualInterestRatePercent: l.AnnualInterestRatePercent,
		Frequency:                 l.Frequency,
		TotalInstallments:         l.TotalInstallments,
		InstallmentAmount:         l.InstallmentAmount,
		TotalRepayment:            l.TotalRepayment,
		TotalInterest:             l.TotalInterest(),
		StartDate:                 l.StartDate.Format(DateLayout),
		EndDate:                   l.EndDate.Format(DateLayout),
		Status:                    l.Status,
		PaidInstallments:          l.PaidInstallments,
		RemainingBalance:          l.RemainingBalance,
		Description:               l.Description,
		CreatedBy:                 l.CreatedBy,
		ApprovedBy:                l.ApprovedBy,
		ApprovedAt:                l.ApprovedAt,
		RejectedBy:                l.RejectedBy,
		RejectedAt:                l.RejectedAt,
		RejectionReason:           l.RejectionReason,
		CancelledBy:               l.CancelledBy,
		CancelledAt:               l.CancelledAt,
		CompletedAt:               l.CompletedAt,
		Version:                   l.Version,
		CreatedAt:                 l.CreatedAt,
		UpdatedAt:                 l.UpdatedAt,
	}
}

// FromLoans converts a slice of domain loans
func FromLoans(loans []domain.Loan) []LoanResponse {
	out := make([]LoanResponse, 0, len(loans))
	for _, l := range loans {
		out = append(out, FromLoan(l))
	}
	return out
}

// FromEntry converts a schedule entry
func FromEntry(e domain.RepaymentScheduleEntry) ScheduleEntryResponse {
	return ScheduleEntryResponse{
		ID:                e.ID,
		LoanID:            e.LoanID,
		InstallmentNumber: e.InstallmentNumber,
		DueDate:           e.DueDate.Format(DateLayout),
		ScheduledAmount:   e.ScheduledAmount,
		PaidAmount:        e.PaidAmount,
		Outstanding:       e.Outstanding(),
		PaymentDate:       e.PaymentDate,
		Status:            e.Status,
	}
}

// FromEntries converts a schedule
func FromEntries(entries []domain.RepaymentScheduleEntry) []ScheduleEntryResponse {
	out := make([]ScheduleEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, FromEntry(e))
	}
	return out
}

// FromHistory converts an audit trail
func FromHistory(rows []domain.HistoryEntry) []HistoryResponse {
	out := make([]HistoryResponse, 0, len(rows))
	for _, h := range rows {
		out = append(out, HistoryResponse{
			ID:          h.ID,
			Type:        h.Type,
			FromStatus:  h.FromStatus,
			ToStatus:    h.ToStatus,
			Amount:      h.Amount,
			Description: h.Description,
			PerformedBy: h.PerformedBy,
			IPAddress:   h.IPAddress,
			CreatedAt:   h.CreatedAt,
		})
	}
	return out
}

// FromEmployee converts a directory entry
func FromEmployee(e domain.Employee) EmployeeResponse {
	return EmployeeResponse{
		ID:            e.ID,
		FullName:      e.FullName,
		Department:    e.Department,
		MonthlySalary: e.MonthlySalary,
		IsActive:      e.IsActive,
	}
}

// ToEmployee converts a directory entry back into the domain
func (e EmployeeResponse) ToEmployee() domain.Employee {
	return domain.Employee{
		ID:            e.ID,
		FullName:      e.FullName,
		Department:    e.Department,
		MonthlySalary: e.MonthlySalary,
		IsActive:      e.IsActive,
	}
}
