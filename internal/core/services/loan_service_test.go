package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"hr-loanengine/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoanInput_Draft(t *testing.T) {
	in := loanInput(" EMP-001 ", "10000", "12", 12)
	in.Frequency = "weekly"

	draft, err := in.Draft()
	require.NoError(t, err)
	assert.Equal(t, "EMP-001", draft.EmployeeID)
	assert.Equal(t, domain.FrequencyWeekly, draft.Frequency)
	assert.Equal(t, time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC), draft.StartDate)

	in.Frequency = "DAILY"
	_, err = in.Draft()
	assert.ErrorIs(t, err, domain.ErrInvalidTerm)

	in.Frequency = "MONTHLY"
	in.StartDate = "01/11/2026"
	_, err = in.Draft()
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLoanService_Preview(t *testing.T) {
	f := newFixture(t)

	draft, err := f.loans.Preview(context.Background(), loanInput("EMP-001", "10000", "12", 12))
	require.NoError(t, err)
	assert.Equal(t, "888.49", draft.InstallmentAmount.StringFixed(2))
	assert.Equal(t, "10661.88", draft.TotalRepayment.StringFixed(2))
	assert.Equal(t, "661.88", draft.TotalInterest.StringFixed(2))
	assert.Equal(t, time.Date(2027, 11, 1, 0, 0, 0, 0, time.UTC), draft.EndDate)

	assert.Empty(t, f.store.loans, "preview must not persist")

	_, err = f.loans.Preview(context.Background(), loanInput("EMP-001", "50", "12", 12))
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestLoanService_Create_ZeroRate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	loan, err := f.loans.Create(ctx, loanInput("EMP-001", "12000", "0", 12), officer)
	require.NoError(t, err)
	assert.NotEmpty(t, loan.ID)
	assert.Equal(t, domain.LoanStatusPending, loan.Status)
	assert.Equal(t, "1000.00", loan.InstallmentAmount.StringFixed(2))
	assert.Equal(t, "12000.00", loan.TotalRepayment.StringFixed(2))
	assert.Equal(t, "officer", loan.CreatedBy)

	entries := f.store.entriesOf(loan.ID)
	require.Len(t, entries, 12)
	for i, e := range entries {
		assert.Equal(t, i+1, e.InstallmentNumber)
		assert.Equal(t, "1000.00", e.ScheduledAmount.StringFixed(2))
		assert.Equal(t, domain.EntryStatusPending, e.Status)
	}

	history, err := f.loans.GetHistory(ctx, loan.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, domain.HistoryCreate, history[0].Type)
	assert.Equal(t, "10.0.0.5", history[0].IPAddress)

	assert.Equal(t, []domain.EventType{domain.EventTypeLoanCreated}, f.publisher.types())
	assert.Equal(t, domain.LevelSuccess, f.publisher.last().Notification.Level)
}

func TestLoanService_Create_PendingApplicationBlocksSecondLoan(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.loans.Create(ctx, loanInput("EMP-001", "10000", "12", 12), officer)
	require.NoError(t, err)

	_, err = f.loans.Create(ctx, loanInput("EMP-001", "5000", "12", 12), officer)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrIneligible)

	var eligErr *domain.EligibilityError
	require.True(t, errors.As(err, &eligErr))
	assert.Equal(t, domain.ReasonPendingApplication, eligErr.Reason)

	assert.Len(t, f.store.loans, 1, "the second loan must not be created")

	last := f.publisher.last()
	assert.Equal(t, domain.EventTypeEligibilityRejection, last.Type)
	assert.Equal(t, domain.LevelError, last.Notification.Level)
	assert.Equal(t, domain.ReasonPendingApplication, last.Notification.Message)
}

func TestLoanService_LocksEmployeeBeforeReadingPortfolio(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.loans.Create(ctx, loanInput("EMP-001", "10000", "12", 12), officer)
	require.NoError(t, err)
	assert.Equal(t, []string{"lock EMP-001", "loans EMP-001"}, f.store.reads)

	f.store.reads = nil
	_, err = f.loans.Update(ctx, created.ID, loanInput("EMP-001", "8000", "12", 12), officer)
	require.NoError(t, err)
	assert.Equal(t, []string{"lock EMP-001", "loans EMP-001"}, f.store.reads)

	err = f.store.Loans().LockEmployee(ctx, "EMP-001")
	assert.Error(t, err, "the lock is only meaningful inside a transaction")
}

func TestLoanService_Create_EligibilityRules(t *testing.T) {
	t.Run("max outstanding", func(t *testing.T) {
		f := newFixture(t)
		f.activeLoan(t, loanInput("EMP-002", "60000", "0", 12))

		_, err := f.loans.Create(context.Background(), loanInput("EMP-002", "50000", "0", 12), officer)
		var eligErr *domain.EligibilityError
		require.True(t, errors.As(err, &eligErr))
		assert.Equal(t, domain.ReasonMaxOutstanding, eligErr.Reason)
	})

	t.Run("utilization", func(t *testing.T) {
		f := newFixture(t)
		f.activeLoan(t, loanInput("EMP-001", "30000", "0", 12))

		_, err := f.loans.Create(context.Background(), loanInput("EMP-001", "1000", "0", 12), officer)
		var eligErr *domain.EligibilityError
		require.True(t, errors.As(err, &eligErr))
		assert.Equal(t, domain.ReasonUtilizationLimit, eligErr.Reason)
	})

	t.Run("inactive employee", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.loans.Create(context.Background(), loanInput("EMP-009", "1000", "0", 12), officer)
		var eligErr *domain.EligibilityError
		require.True(t, errors.As(err, &eligErr))
		assert.Equal(t, domain.ReasonEmployeeInactive, eligErr.Reason)
		assert.Empty(t, f.store.loans)
	})

	t.Run("unknown employee", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.loans.Create(context.Background(), loanInput("EMP-404", "1000", "0", 12), officer)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("missing employee id", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.loans.Create(context.Background(), loanInput("", "1000", "0", 12), officer)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestLoanService_Create_PublishFailureDoesNotFailRequest(t *testing.T) {
	f := newFixture(t)
	f.publisher.err = errors.New("broker unavailable")

	loan, err := f.loans.Create(context.Background(), loanInput("EMP-001", "10000", "12", 12), officer)
	require.NoError(t, err)
	assert.Contains(t, f.store.loans, loan.ID)
}

func TestLoanService_Approve(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.loans.Create(ctx, loanInput("EMP-001", "10000", "12", 12), officer)
	require.NoError(t, err)

	loan, err := f.loans.Approve(ctx, created.ID, officer)
	require.NoError(t, err)
	assert.Equal(t, domain.LoanStatusActive, loan.Status)
	assert.Equal(t, "officer", loan.ApprovedBy)
	require.NotNil(t, loan.ApprovedAt)
	assert.Equal(t, 2, loan.Version)

	_, err = f.loans.Approve(ctx, created.ID, officer)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	history, err := f.loans.GetHistory(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, domain.HistoryApprove, history[0].Type)
	assert.Equal(t, domain.LoanStatusPending, history[0].FromStatus)
	assert.Equal(t, domain.LoanStatusActive, history[0].ToStatus)

	_, err = f.loans.Approve(ctx, "missing", officer)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLoanService_Reject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.loans.Create(ctx, loanInput("EMP-001", "10000", "12", 12), officer)
	require.NoError(t, err)

	_, err = f.loans.Reject(ctx, created.ID, "   ", officer)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, domain.LoanStatusPending, f.store.loans[created.ID].Status)

	loan, err := f.loans.Reject(ctx, created.ID, "insufficient tenure", officer)
	require.NoError(t, err)
	assert.Equal(t, domain.LoanStatusRejected, loan.Status)
	assert.Equal(t, "insufficient tenure", loan.RejectionReason)

	last := f.publisher.last()
	assert.Equal(t, domain.EventTypeLoanRejected, last.Type)
	assert.Equal(t, domain.LevelWarning, last.Notification.Level)
	assert.Equal(t, "insufficient tenure", last.Notification.Message)

	history, err := f.loans.GetHistory(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "insufficient tenure", history[0].Description)
}

func TestLoanService_Cancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	loan := f.activeLoan(t, loanInput("EMP-001", "12000", "0", 12))

	first := f.store.entriesOf(loan.ID)[0]
	_, err := f.repayments.Pay(ctx, first.ID, d("1000"), "", officer)
	require.NoError(t, err)

	cancelled, err := f.loans.Cancel(ctx, loan.ID, officer)
	require.NoError(t, err)
	assert.Equal(t, domain.LoanStatusCancelled, cancelled.Status)
	assert.Equal(t, "officer", cancelled.CancelledBy)

	entries := f.store.entriesOf(loan.ID)
	assert.Equal(t, domain.EntryStatusPaid, entries[0].Status)
	for _, e := range entries[1:] {
		assert.Equal(t, domain.EntryStatusCancelled, e.Status)
	}

	_, err = f.loans.Cancel(ctx, loan.ID, officer)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestLoanService_Update(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.loans.Create(ctx, loanInput("EMP-001", "10000", "12", 12), officer)
	require.NoError(t, err)

	in := loanInput("EMP-002", "20000", "6", 24)
	updated, err := f.loans.Update(ctx, created.ID, in, officer)
	require.NoError(t, err)
	assert.Equal(t, "EMP-001", updated.EmployeeID, "the borrower cannot be changed")
	assert.Equal(t, "20000.00", updated.Principal.StringFixed(2))
	assert.Equal(t, 24, updated.TotalInstallments)
	assert.Equal(t, 2, updated.Version)

	entries := f.store.entriesOf(created.ID)
	require.Len(t, entries, 24)
	sum := d("0")
	for _, e := range entries {
		sum = sum.Add(e.ScheduledAmount)
	}
	assert.True(t, sum.Equal(updated.TotalRepayment))

	_, err = f.loans.Approve(ctx, created.ID, officer)
	require.NoError(t, err)
	_, err = f.loans.Update(ctx, created.ID, in, officer)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestLoanService_Update_ExcludesItselfFromPortfolio(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pending, err := f.loans.Create(ctx, loanInput("EMP-002", "10000", "0", 12), officer)
	require.NoError(t, err)

	_, err = f.loans.Update(ctx, pending.ID, loanInput("EMP-002", "100000", "0", 12), officer)
	require.NoError(t, err, "a pending loan does not block its own edit")

	other, err := f.loans.Create(ctx, loanInput("EMP-002", "1000", "0", 12), officer)
	assert.ErrorIs(t, err, domain.ErrIneligible, "it still blocks a second application")
	assert.Nil(t, other)
}

func TestLoanService_GetSchedule_DerivesOverdue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	loan := f.activeLoan(t, loanInput("EMP-001", "12000", "0", 12))

	f.setNow(time.Date(2027, 1, 15, 10, 0, 0, 0, time.UTC))
	entries, err := f.loans.GetSchedule(ctx, loan.ID)
	require.NoError(t, err)
	require.Len(t, entries, 12)
	assert.Equal(t, domain.EntryStatusOverdue, entries[0].Status)
	assert.Equal(t, domain.EntryStatusOverdue, entries[1].Status)
	assert.Equal(t, domain.EntryStatusPending, entries[2].Status)

	for _, e := range f.store.entriesOf(loan.ID) {
		assert.Equal(t, domain.EntryStatusPending, e.Status, "overdue is never stored")
	}

	detail, err := f.loans.GetByID(ctx, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EntryStatusOverdue, detail.Schedule[0].Status)

	_, err = f.loans.GetSchedule(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLoanService_PortfolioQueries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.activeLoan(t, loanInput("EMP-001", "12000", "0", 12))

	balance, err := f.loans.OutstandingBalance(ctx, "EMP-001")
	require.NoError(t, err)
	assert.Equal(t, "12000.00", balance.StringFixed(2))

	portfolio, err := f.loans.Portfolio(ctx, "EMP-001")
	require.NoError(t, err)
	assert.Equal(t, 1, portfolio.ActiveCount)
	assert.Equal(t, "1000.00", portfolio.MonthlyRepaymentTotal.StringFixed(2))
	assert.Equal(t, "24.00", portfolio.UtilizationRatioPercent.StringFixed(2))

	result, err := f.loans.CheckEligibility(ctx, "EMP-001", d("5000"))
	require.NoError(t, err)
	assert.True(t, result.Eligible)

	result, err = f.loans.CheckEligibility(ctx, "EMP-001", d("88001"))
	require.NoError(t, err)
	assert.False(t, result.Eligible)
	assert.Equal(t, domain.ReasonMaxOutstanding, result.Reason)

	result, err = f.loans.CheckEligibility(ctx, "EMP-009", d("100"))
	require.NoError(t, err)
	assert.Equal(t, domain.ReasonEmployeeInactive, result.Reason)

	_, err = f.loans.CheckEligibility(ctx, "EMP-001", d("0"))
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	loans, err := f.loans.GetByEmployee(ctx, "EMP-001")
	require.NoError(t, err)
	assert.Len(t, loans, 1)
}

func TestLoanService_List(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.activeLoan(t, loanInput("EMP-001", "12000", "0", 12))
	_, err := f.loans.Create(ctx, loanInput("EMP-002", "5000", "0", 10), officer)
	require.NoError(t, err)

	loans, total, err := f.loans.List(ctx, LoanFilter{Status: domain.LoanStatusPending}, ListOptions{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "EMP-002", loans[0].EmployeeID)

	_, _, err = f.loans.List(ctx, LoanFilter{Status: "OPEN"}, ListOptions{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
