package services

import (
	"context"
	"time"

	"hr-loanengine/internal/core/domain"

	"github.com/shopspring/decimal"
)

// LoanStatistics represents the summary cards of the loan overview
type LoanStatistics struct {
	domain.EmployeeLoanPortfolio

	// Volume
	TotalPrincipal decimal.Decimal `json:"total_principal"`
	TotalInterest  decimal.Decimal `json:"total_interest"`
	Borrowers      int             `json:"borrowers"`

	// Repayment health
	OverdueInstallments int `json:"overdue_installments"`

	// This month
	LoansThisMonth     int             `json:"loans_this_month"`
	PrincipalThisMonth decimal.Decimal `json:"principal_this_month"`

	GeneratedAt time.Time `json:"generated_at"`
}

// StatisticsService aggregates the whole loan book
type StatisticsService struct {
	store Store
	now   func() time.Time
}

// NewStatisticsService creates a new statistics service
func NewStatisticsService(store Store) *StatisticsService {
	return &StatisticsService{store: store, now: time.Now}
}

// GetStatistics returns aggregate figures over all loans.
// Volume figures skip REJECTED and CANCELLED loans.
func (s *StatisticsService) GetStatistics(ctx context.Context) (*LoanStatistics, error) {
	loans, err := s.store.Loans().ListAll(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()

	stats := &LoanStatistics{
		EmployeeLoanPortfolio: domain.Summarize(loans, decimal.Zero),
		TotalPrincipal:        decimal.Zero,
		TotalInterest:         decimal.Zero,
		PrincipalThisMonth:    decimal.Zero,
		GeneratedAt:           now,
	}

	borrowers := make(map[string]struct{})
	for _, l := range loans {
		if l.Status == domain.LoanStatusRejected || l.Status == domain.LoanStatusCancelled {
			continue
		}
		stats.TotalPrincipal = stats.TotalPrincipal.Add(l.Principal)
		stats.TotalInterest = stats.TotalInterest.Add(l.TotalInterest())
		borrowers[l.EmployeeID] = struct{}{}

		if l.CreatedAt.Year() == now.Year() && l.CreatedAt.Month() == now.Month() {
			stats.LoansThisMonth++
			stats.PrincipalThisMonth = stats.PrincipalThisMonth.Add(l.Principal)
		}
	}
	stats.Borrowers = len(borrowers)

	overdue, err := s.store.Schedules().ListPendingDueBefore(ctx, domain.DateOf(now))
	if err != nil {
		return nil, err
	}
	stats.OverdueInstallments = len(overdue)

	return stats, nil
}
