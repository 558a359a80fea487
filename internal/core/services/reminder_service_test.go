package services

import (
	"context"
	"testing"
	"time"

	"hr-loanengine/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReminderService_InvalidSchedule(t *testing.T) {
	f := newFixture(t)

	_, err := NewReminderService(f.store, f.notify, quietLogger(), "every morning")
	assert.Error(t, err)
}

func TestReminderService_RunOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	loan := f.activeLoan(t, loanInput("EMP-001", "12000", "0", 12))

	// a pending loan's entries are never overdue
	_, err := f.loans.Create(ctx, loanInput("EMP-002", "5000", "0", 10), officer)
	require.NoError(t, err)

	first := f.store.entriesOf(loan.ID)[0]
	_, err = f.repayments.Pay(ctx, first.ID, d("1000"), "", officer)
	require.NoError(t, err)

	reminder, err := NewReminderService(f.store, f.notify, quietLogger(), "30 8 * * *")
	require.NoError(t, err)
	reminder.now = func() time.Time { return time.Date(2027, 2, 10, 8, 30, 0, 0, time.UTC) }
	f.publisher.events = nil

	count, err := reminder.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.Len(t, f.publisher.events, 2)
	for _, e := range f.publisher.events {
		assert.Equal(t, domain.EventTypeInstallmentOverdue, e.Type)
		assert.Equal(t, domain.LevelWarning, e.Notification.Level)
		assert.Equal(t, loan.ID, e.LoanID)
		assert.Equal(t, "1000.00", e.Amount.StringFixed(2))
	}
	assert.Equal(t, 2, f.publisher.events[0].InstallmentNumber)
	assert.Equal(t, 3, f.publisher.events[1].InstallmentNumber)

	for _, e := range f.store.entriesOf(loan.ID)[1:] {
		assert.Equal(t, domain.EntryStatusPending, e.Status, "the scan writes nothing")
	}
}

func TestReminderService_StartStop(t *testing.T) {
	f := newFixture(t)

	reminder, err := NewReminderService(f.store, f.notify, quietLogger(), "@every 1h")
	require.NoError(t, err)
	reminder.Start()
	reminder.Stop()
}
