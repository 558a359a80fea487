package domain

import "github.com/shopspring/decimal"

// Eligibility failure reasons, returned to the user as-is
const (
	ReasonPendingApplication = "pending application exists"
	ReasonMaxOutstanding     = "exceeds maximum outstanding balance"
	ReasonUtilizationLimit   = "exceeds salary utilization limit"
	ReasonEmployeeInactive   = "employee is not active"
)

// Policy holds the lending limits applied to drafts and eligibility
type Policy struct {
	MinAmount                 decimal.Decimal
	MaxAmount                 decimal.Decimal
	MaxInterestRate           decimal.Decimal
	MinInstallments           int
	MaxInstallments           int
	MaxOutstandingPerEmployee decimal.Decimal
	MaxUtilizationPercent     decimal.Decimal
	MaxDescriptionLength      int
	RateMode                  RateMode
}

// DefaultPolicy returns the limits used when no configuration overrides them
func DefaultPolicy() Policy {
	return Policy{
		MinAmount:                 decimal.NewFromInt(100),
		MaxAmount:                 decimal.NewFromInt(100000),
		MaxInterestRate:           decimal.NewFromInt(30),
		MinInstallments:           1,
		MaxInstallments:           120,
		MaxOutstandingPerEmployee: decimal.NewFromInt(100000),
		MaxUtilizationPercent:     decimal.NewFromInt(50),
		MaxDescriptionLength:      500,
		RateMode:                  RateModePerPeriod,
	}
}

// EligibilityResult is the outcome of EvaluateEligibility
type EligibilityResult struct {
	Eligible bool   `json:"eligible"`
	Reason   string `json:"reason,omitempty"`

	employeeID string
}

// Err returns an *EligibilityError for an ineligible result, nil otherwise
func (r EligibilityResult) Err() error {
	if r.Eligible {
		return nil
	}
	return &EligibilityError{EmployeeID: r.employeeID, Reason: r.Reason}
}

// EvaluateEligibility applies the lending rules in order and stops at the first failure
func EvaluateEligibility(employeeID string, requested decimal.Decimal, portfolio EmployeeLoanPortfolio, policy Policy) EligibilityResult {
	fail := func(reason string) EligibilityResult {
		return EligibilityResult{Eligible: false, Reason: reason, employeeID: employeeID}
	}

	if portfolio.PendingCount > 0 {
		return fail(ReasonPendingApplication)
	}
	if portfolio.TotalOutstanding.Add(requested).GreaterThan(policy.MaxOutstandingPerEmployee) {
		return fail(ReasonMaxOutstanding)
	}
	if portfolio.UtilizationRatioPercent.GreaterThan(policy.MaxUtilizationPercent) {
		return fail(ReasonUtilizationLimit)
	}
	return EligibilityResult{Eligible: true, employeeID: employeeID}
}
