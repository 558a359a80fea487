package domain

import "github.com/shopspring/decimal"

// Summarize aggregates loans into a portfolio.
// Outstanding counts ACTIVE and PENDING loans; the monthly repayment total
// counts ACTIVE loans only. Utilization is zero when the salary is unknown.
func Summarize(loans []Loan, monthlySalary decimal.Decimal) EmployeeLoanPortfolio {
	p := EmployeeLoanPortfolio{
		TotalLoans:              len(loans),
		TotalOutstanding:        decimal.Zero,
		MonthlyRepaymentTotal:   decimal.Zero,
		UtilizationRatioPercent: decimal.Zero,
	}

	for _, l := range loans {
		switch l.Status {
		case LoanStatusPending:
			p.PendingCount++
			p.TotalOutstanding = p.TotalOutstanding.Add(l.RemainingBalance)
		case LoanStatusActive:
			p.ActiveCount++
			p.TotalOutstanding = p.TotalOutstanding.Add(l.RemainingBalance)
			p.MonthlyRepaymentTotal = p.MonthlyRepaymentTotal.Add(l.InstallmentAmount)
		case LoanStatusApproved:
			p.ApprovedCount++
		case LoanStatusCompleted:
			p.CompletedCount++
		case LoanStatusRejected:
			p.RejectedCount++
		case LoanStatusCancelled:
			p.CancelledCount++
		}
	}

	if monthlySalary.IsPositive() {
		p.UtilizationRatioPercent = p.TotalOutstanding.Div(monthlySalary).Mul(hundred).Round(2)
	}
	return p
}
