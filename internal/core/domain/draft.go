package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// LoanDraft holds the terms of a loan before it is submitted.
// It is passed by value through Validate and Recompute; neither mutates the receiver.
type LoanDraft struct {
	EmployeeID                string          `json:"employee_id"`
	Principal                 decimal.Decimal `json:"principal"`
	AnnualInterestRatePercent decimal.Decimal `json:"annual_interest_rate_percent"`
	Frequency                 Frequency       `json:"installment_frequency"`
	TotalInstallments         int             `json:"total_installments"`
	StartDate                 time.Time       `json:"start_date"`
	Description               string          `json:"description,omitempty"`

	InstallmentAmount decimal.Decimal `json:"installment_amount"`
	TotalRepayment    decimal.Decimal `json:"total_repayment"`
	TotalInterest     decimal.Decimal `json:"total_interest"`
	EndDate           time.Time       `json:"end_date"`
}

// Recompute fills the derived amounts and end date from the terms
func (d LoanDraft) Recompute(mode RateMode) (LoanDraft, error) {
	a, err := Amortize(d.Principal, d.AnnualInterestRatePercent, d.TotalInstallments, d.Frequency, mode)
	if err != nil {
		return d, err
	}
	end, err := ComputeEndDate(d.StartDate, d.Frequency, d.TotalInstallments)
	if err != nil {
		return d, err
	}
	d.InstallmentAmount = a.InstallmentAmount
	d.TotalRepayment = a.TotalRepayment
	d.TotalInterest = a.TotalInterest
	d.EndDate = end
	return d, nil
}

// Validate checks the terms against the policy; today is the reference for the start date
func (d LoanDraft) Validate(policy Policy, today time.Time) error {
	if d.Principal.LessThan(policy.MinAmount) || d.Principal.GreaterThan(policy.MaxAmount) {
		return &InvalidAmountError{
			Field:  "principal",
			Reason: fmt.Sprintf("must be between %s and %s", policy.MinAmount.StringFixed(2), policy.MaxAmount.StringFixed(2)),
		}
	}
	if err := CheckScale("principal", d.Principal); err != nil {
		return err
	}
	if d.AnnualInterestRatePercent.IsNegative() || d.AnnualInterestRatePercent.GreaterThan(policy.MaxInterestRate) {
		return &InvalidAmountError{
			Field:  "interest rate",
			Reason: fmt.Sprintf("must be between 0 and %s percent", policy.MaxInterestRate.String()),
		}
	}
	if err := CheckScale("interest rate", d.AnnualInterestRatePercent); err != nil {
		return err
	}
	if !d.Frequency.Valid() {
		return &InvalidTermError{Reason: fmt.Sprintf("unsupported installment frequency %q", d.Frequency)}
	}
	if d.TotalInstallments < policy.MinInstallments || d.TotalInstallments > policy.MaxInstallments {
		return &InvalidTermError{
			Reason: fmt.Sprintf("number of installments must be between %d and %d", policy.MinInstallments, policy.MaxInstallments),
		}
	}
	if d.StartDate.IsZero() {
		return &InvalidTermError{Reason: "start date is required"}
	}
	if DateOf(d.StartDate).Before(DateOf(today)) {
		return &InvalidTermError{Reason: "start date must not be in the past"}
	}
	if strings.TrimSpace(d.EmployeeID) == "" {
		return &ValidationError{Field: "employee_id", Reason: "is required"}
	}
	if policy.MaxDescriptionLength > 0 && utf8.RuneCountInString(d.Description) > policy.MaxDescriptionLength {
		return &ValidationError{
			Field:  "description",
			Reason: fmt.Sprintf("must be at most %d characters", policy.MaxDescriptionLength),
		}
	}
	return nil
}
