package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)

func testDraft() LoanDraft {
	return LoanDraft{
		EmployeeID:                "EMP-001",
		Principal:                 d("10000"),
		AnnualInterestRatePercent: d("12"),
		Frequency:                 FrequencyMonthly,
		TotalInstallments:         12,
		StartDate:                 date(2026, 11, 1),
		Description:               "home repair",
	}
}

func newPendingLoan(t *testing.T) Loan {
	t.Helper()
	loan, _, err := NewLoan(testDraft(), EmployeeLoanPortfolio{}, "officer", DefaultPolicy(), testNow)
	require.NoError(t, err)
	loan.ID = "loan-1"
	return loan
}

func TestTransition_Table(t *testing.T) {
	allowed := map[LoanStatus]map[Event]LoanStatus{
		LoanStatusPending: {
			EventApprove: LoanStatusActive,
			EventReject:  LoanStatusRejected,
			EventCancel:  LoanStatusCancelled,
			EventEdit:    LoanStatusPending,
		},
		LoanStatusApproved: {EventCancel: LoanStatusCancelled},
		LoanStatusActive: {
			EventCancel:   LoanStatusCancelled,
			EventComplete: LoanStatusCompleted,
		},
	}
	events := []Event{EventCreate, EventApprove, EventReject, EventCancel, EventComplete, EventEdit, EventRepay}

	for _, from := range LoanStatuses {
		for _, ev := range events {
			to, err := Transition(from, ev)
			want, ok := allowed[from][ev]
			if ok {
				require.NoError(t, err, "%s --%s-->", from, ev)
				assert.Equal(t, want, to)
				continue
			}
			require.Error(t, err, "%s --%s--> should be rejected", from, ev)
			assert.True(t, errors.Is(err, ErrInvalidTransition))

			var te *InvalidTransitionError
			require.True(t, errors.As(err, &te))
			assert.Equal(t, from, te.From)
			assert.Equal(t, ev, te.Event)
		}
	}
}

func TestTransition_Create(t *testing.T) {
	to, err := Transition("", EventCreate)
	require.NoError(t, err)
	assert.Equal(t, LoanStatusPending, to)

	_, err = Transition("", EventApprove)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestNewLoan(t *testing.T) {
	loan, schedule, err := NewLoan(testDraft(), EmployeeLoanPortfolio{}, "officer", DefaultPolicy(), testNow)
	require.NoError(t, err)

	assert.Equal(t, LoanStatusPending, loan.Status)
	assert.Equal(t, "888.49", loan.InstallmentAmount.StringFixed(2))
	assert.True(t, loan.RemainingBalance.Equal(loan.TotalRepayment))
	assert.True(t, date(2027, 11, 1).Equal(loan.EndDate))
	assert.Equal(t, 1, loan.Version)
	assert.Len(t, schedule, 12)

	t.Run("pending application blocks creation", func(t *testing.T) {
		_, schedule, err := NewLoan(testDraft(), EmployeeLoanPortfolio{PendingCount: 1}, "officer", DefaultPolicy(), testNow)
		require.Error(t, err)
		assert.Nil(t, schedule)

		var ee *EligibilityError
		require.True(t, errors.As(err, &ee))
		assert.Equal(t, ReasonPendingApplication, ee.Reason)
		assert.Equal(t, "EMP-001", ee.EmployeeID)
	})

	t.Run("bounds are checked before eligibility", func(t *testing.T) {
		draft := testDraft()
		draft.Principal = d("50")
		_, _, err := NewLoan(draft, EmployeeLoanPortfolio{PendingCount: 1}, "officer", DefaultPolicy(), testNow)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})
}

func TestLoan_Approve(t *testing.T) {
	loan := newPendingLoan(t)

	approved, err := loan.Approve("manager", testNow)
	require.NoError(t, err)
	assert.Equal(t, LoanStatusActive, approved.Status)
	assert.Equal(t, "manager", approved.ApprovedBy)
	require.NotNil(t, approved.ApprovedAt)
	assert.Equal(t, LoanStatusPending, loan.Status, "receiver must not change")

	_, err = approved.Approve("manager", testNow)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = loan.Approve("  ", testNow)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestLoan_Reject(t *testing.T) {
	loan := newPendingLoan(t)

	_, err := loan.Reject("manager", "   ", testNow)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	rejected, err := loan.Reject("manager", " insufficient tenure ", testNow)
	require.NoError(t, err)
	assert.Equal(t, LoanStatusRejected, rejected.Status)
	assert.Equal(t, "insufficient tenure", rejected.RejectionReason)
	assert.True(t, rejected.Status.IsTerminal())

	_, err = rejected.Cancel("manager", testNow)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestLoan_Cancel(t *testing.T) {
	for _, status := range []LoanStatus{LoanStatusPending, LoanStatusApproved, LoanStatusActive} {
		loan := newPendingLoan(t)
		loan.Status = status

		cancelled, err := loan.Cancel("hr", testNow)
		require.NoError(t, err, status)
		assert.Equal(t, LoanStatusCancelled, cancelled.Status)
		assert.Equal(t, "hr", cancelled.CancelledBy)
	}

	loan := newPendingLoan(t)
	loan.Status = LoanStatusCompleted
	_, err := loan.Cancel("hr", testNow)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestLoan_Complete(t *testing.T) {
	loan := newPendingLoan(t)
	loan.Status = LoanStatusActive
	loan.PaidInstallments = 11

	_, err := loan.Complete(testNow)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	loan.PaidInstallments = 12
	done, err := loan.Complete(testNow)
	require.NoError(t, err)
	assert.Equal(t, LoanStatusCompleted, done.Status)
	assert.True(t, done.RemainingBalance.IsZero())
	require.NotNil(t, done.CompletedAt)
}

func TestLoan_ApplyTerms(t *testing.T) {
	loan := newPendingLoan(t)

	draft := loan.Draft()
	draft.Principal = d("12000")
	draft.AnnualInterestRatePercent = decimal.Zero
	draft.EmployeeID = "someone-else"

	edited, err := loan.ApplyTerms(draft, DefaultPolicy(), testNow)
	require.NoError(t, err)
	assert.Equal(t, LoanStatusPending, edited.Status)
	assert.Equal(t, "EMP-001", edited.EmployeeID, "borrower cannot be changed by an edit")
	assert.True(t, edited.InstallmentAmount.Equal(d("1000")))
	assert.True(t, edited.RemainingBalance.Equal(d("12000")))

	active, err := loan.Approve("manager", testNow)
	require.NoError(t, err)
	_, err = active.ApplyTerms(draft, DefaultPolicy(), testNow)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestLoan_EnsureRepayable(t *testing.T) {
	loan := newPendingLoan(t)
	assert.ErrorIs(t, loan.EnsureRepayable(), ErrInvalidTransition)

	loan.Status = LoanStatusActive
	assert.NoError(t, loan.EnsureRepayable())
}

func TestLoanStatus_Helpers(t *testing.T) {
	for _, s := range LoanStatuses {
		assert.True(t, s.Valid())
		parsed, err := ParseLoanStatus(string(s))
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}
	_, err := ParseLoanStatus("ARCHIVED")
	assert.Error(t, err)
	assert.False(t, LoanStatus("ARCHIVED").IsTerminal())
}
