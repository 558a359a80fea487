package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// GenerateSchedule builds the installment plan of a loan.
// Entries 1..n-1 carry the installment amount and entry n absorbs the
// rounding residue, so the entries always sum to TotalRepayment.
func GenerateSchedule(loan Loan) []RepaymentScheduleEntry {
	n := loan.TotalInstallments
	if n <= 0 {
		return nil
	}

	entries := make([]RepaymentScheduleEntry, 0, n)
	last := loan.TotalRepayment.Sub(loan.InstallmentAmount.Mul(decimal.NewFromInt(int64(n - 1))))
	for i := 1; i <= n; i++ {
		amount := loan.InstallmentAmount
		if i == n {
			amount = last
		}
		entries = append(entries, RepaymentScheduleEntry{
			LoanID:            loan.ID,
			InstallmentNumber: i,
			DueDate:           DueDate(loan.StartDate, loan.Frequency, i),
			ScheduledAmount:   amount,
			Status:            EntryStatusPending,
		})
	}
	return entries
}

// PostRepayment applies a payment to one schedule entry.
// Payments accumulate: the entry turns PAID once the paid total reaches the
// scheduled amount and stays PARTIAL below it.
func PostRepayment(entry RepaymentScheduleEntry, amount decimal.Decimal, now time.Time) (RepaymentScheduleEntry, error) {
	switch entry.Status {
	case EntryStatusPaid:
		return entry, &AlreadyPaidError{EntryID: entry.ID, InstallmentNumber: entry.InstallmentNumber}
	case EntryStatusCancelled:
		return entry, &InvalidTransitionError{From: LoanStatusCancelled, Event: EventRepay, Reason: "installment is cancelled"}
	}
	if !amount.IsPositive() {
		return entry, &InvalidAmountError{Field: "payment amount", Reason: "must be greater than zero"}
	}
	if err := CheckScale("payment amount", amount); err != nil {
		return entry, err
	}

	paid := amount
	if entry.PaidAmount != nil {
		paid = entry.PaidAmount.Add(amount)
	}
	entry.PaidAmount = &paid
	entry.PaymentDate = &now
	if paid.GreaterThanOrEqual(entry.ScheduledAmount) {
		entry.Status = EntryStatusPaid
	} else {
		entry.Status = EntryStatusPartial
	}
	return entry, nil
}

// ReconcileLoan recomputes the repayment progress of a loan from its schedule
// and completes an ACTIVE loan once every installment is paid.
func ReconcileLoan(loan Loan, entries []RepaymentScheduleEntry, now time.Time) (Loan, error) {
	paid := 0
	remaining := decimal.Zero
	for _, e := range entries {
		if e.Status == EntryStatusPaid {
			paid++
		}
		remaining = remaining.Add(e.Outstanding())
	}

	loan.PaidInstallments = paid
	loan.RemainingBalance = remaining
	loan.UpdatedAt = now

	if loan.Status == LoanStatusActive && paid == loan.TotalInstallments {
		return loan.Complete(now)
	}
	return loan, nil
}

// EffectiveStatus reports OVERDUE for a PENDING entry past its due date
func EffectiveStatus(entry RepaymentScheduleEntry, today time.Time) EntryStatus {
	if entry.Status == EntryStatusPending && DateOf(entry.DueDate).Before(DateOf(today)) {
		return EntryStatusOverdue
	}
	return entry.Status
}

// CancelOpenEntries closes every PENDING or PARTIAL entry and returns the changed ones
func CancelOpenEntries(entries []RepaymentScheduleEntry) []RepaymentScheduleEntry {
	var changed []RepaymentScheduleEntry
	for i := range entries {
		switch entries[i].Status {
		case EntryStatusPending, EntryStatusPartial:
			entries[i].Status = EntryStatusCancelled
			changed = append(changed, entries[i])
		}
	}
	return changed
}
