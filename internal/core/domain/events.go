package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EventType names a published loan event
type EventType string

const (
	EventTypeLoanCreated          EventType = "loan.created"
	EventTypeLoanUpdated          EventType = "loan.updated"
	EventTypeLoanApproved         EventType = "loan.approved"
	EventTypeLoanRejected         EventType = "loan.rejected"
	EventTypeLoanCancelled        EventType = "loan.cancelled"
	EventTypeLoanCompleted        EventType = "loan.completed"
	EventTypeRepaymentPosted      EventType = "loan.repayment_posted"
	EventTypeInstallmentOverdue   EventType = "loan.installment_overdue"
	EventTypeEligibilityRejection EventType = "loan.eligibility_rejected"
)

// NotificationLevel is the semantic outcome shown to the user
type NotificationLevel string

const (
	LevelSuccess NotificationLevel = "success"
	LevelWarning NotificationLevel = "warning"
	LevelError   NotificationLevel = "error"
)

// Notification is a presentation-free message for the notification collaborator
type Notification struct {
	Level   NotificationLevel `json:"level"`
	Title   string            `json:"title"`
	Message string            `json:"message"`
}

// LoanEvent is published after a loan state change commits
type LoanEvent struct {
	ID                string           `json:"id"`
	Type              EventType        `json:"type"`
	LoanID            string           `json:"loan_id,omitempty"`
	EmployeeID        string           `json:"employee_id"`
	Status            LoanStatus       `json:"status,omitempty"`
	Amount            *decimal.Decimal `json:"amount,omitempty"`
	InstallmentNumber int              `json:"installment_number,omitempty"`
	Actor             string           `json:"actor,omitempty"`
	OccurredAt        time.Time        `json:"occurred_at"`
	Notification      Notification     `json:"notification"`
}
