package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// RateMode selects how the annual rate is split into a per-installment rate
type RateMode string

const (
	// RateModePerPeriod divides the annual rate by the frequency's periods per year
	RateModePerPeriod RateMode = "per-period"
	// RateModeMonthly divides the annual rate by 12 for every frequency
	RateModeMonthly RateMode = "monthly"
)

// ParseRateMode converts a config value into a RateMode, defaulting to per-period
func ParseRateMode(s string) (RateMode, error) {
	switch RateMode(s) {
	case "", RateModePerPeriod:
		return RateModePerPeriod, nil
	case RateModeMonthly:
		return RateModeMonthly, nil
	}
	return "", fmt.Errorf("unknown rate mode %q", s)
}

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
	cent    = decimal.New(1, -2)
)

// Amortization is the result of the annuity calculation
type Amortization struct {
	InstallmentAmount decimal.Decimal `json:"installment_amount"`
	TotalRepayment    decimal.Decimal `json:"total_repayment"`
	TotalInterest     decimal.Decimal `json:"total_interest"`
	PeriodRate        decimal.Decimal `json:"period_rate"`
}

// MoneyScale is the number of decimals stored for amounts and rates
const MoneyScale = 2

// CheckScale rejects values that cannot be stored with MoneyScale decimals
func CheckScale(field string, v decimal.Decimal) error {
	if !v.Equal(v.Round(MoneyScale)) {
		return &InvalidAmountError{Field: field, Reason: fmt.Sprintf("must have at most %d decimal places", MoneyScale)}
	}
	return nil
}

// PeriodRate returns the per-installment rate as a fraction (12% monthly -> 0.01)
func PeriodRate(annualRatePercent decimal.Decimal, frequency Frequency, mode RateMode) decimal.Decimal {
	periods := int64(12)
	if mode != RateModeMonthly {
		periods = int64(frequency.PeriodsPerYear())
	}
	return annualRatePercent.Div(hundred).Div(decimal.NewFromInt(periods))
}

// Amortize computes the fixed installment for a loan.
//
// With a zero rate the principal is split evenly and the last schedule entry
// absorbs the rounding residue. Otherwise the standard annuity formula
// P*r*(1+r)^n / ((1+r)^n - 1) is rounded half-up to two decimals and the
// total repayment is installment*n. When half-up rounding would leave the
// total at or below the principal the installment is rounded up instead, so a
// positive rate always yields positive interest.
func Amortize(principal, annualRatePercent decimal.Decimal, installments int, frequency Frequency, mode RateMode) (Amortization, error) {
	if installments <= 0 {
		return Amortization{}, &InvalidTermError{Reason: "number of installments must be greater than zero"}
	}
	if !frequency.Valid() {
		return Amortization{}, &InvalidTermError{Reason: fmt.Sprintf("unsupported installment frequency %q", frequency)}
	}
	if !principal.IsPositive() {
		return Amortization{}, &InvalidAmountError{Field: "principal", Reason: "must be greater than zero"}
	}
	if annualRatePercent.IsNegative() {
		return Amortization{}, &InvalidAmountError{Field: "interest rate", Reason: "must not be negative"}
	}

	n := decimal.NewFromInt(int64(installments))

	if annualRatePercent.IsZero() {
		return Amortization{
			InstallmentAmount: principal.Div(n).Round(2),
			TotalRepayment:    principal,
			TotalInterest:     decimal.Zero,
			PeriodRate:        decimal.Zero,
		}, nil
	}

	r := PeriodRate(annualRatePercent, frequency, mode)
	factor := one.Add(r).Pow(n)
	exact := principal.Mul(r).Mul(factor).Div(factor.Sub(one))
	installment := exact.Round(2)
	if !installment.Mul(n).GreaterThan(principal) {
		installment = exact.RoundCeil(2)
		if !installment.Mul(n).GreaterThan(principal) {
			installment = installment.Add(cent)
		}
	}
	total := installment.Mul(n)

	return Amortization{
		InstallmentAmount: installment,
		TotalRepayment:    total,
		TotalInterest:     total.Sub(principal),
		PeriodRate:        r,
	}, nil
}

// DateOf truncates t to midnight of its UTC calendar date
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// addMonths moves t by whole calendar months, clamping the day to the target
// month's length so Jan 31 + 1 month is the last day of February.
func addMonths(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(months), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if last := daysIn(first.Year(), first.Month()); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// DueDate returns the due date of installment i (1-based) for a loan starting at start
func DueDate(start time.Time, frequency Frequency, i int) time.Time {
	if frequency == FrequencyWeekly {
		return start.AddDate(0, 0, 7*i)
	}
	return addMonths(start, i)
}

// ComputeEndDate returns the due date of the last installment
func ComputeEndDate(start time.Time, frequency Frequency, installments int) (time.Time, error) {
	if installments <= 0 {
		return time.Time{}, &InvalidTermError{Reason: "number of installments must be greater than zero"}
	}
	if !frequency.Valid() {
		return time.Time{}, &InvalidTermError{Reason: fmt.Sprintf("unsupported installment frequency %q", frequency)}
	}
	return DueDate(start, frequency, installments), nil
}

// InstallmentsBetween recovers the installment count from a start and end date
func InstallmentsBetween(start, end time.Time, frequency Frequency) int {
	s, e := DateOf(start), DateOf(end)
	if frequency == FrequencyWeekly {
		return int(e.Sub(s).Hours()/24) / 7
	}
	return (e.Year()-s.Year())*12 + int(e.Month()) - int(s.Month())
}
