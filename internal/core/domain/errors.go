package domain

import (
	"errors"
	"fmt"
)

// Sentinels matched with errors.Is; each typed error below reports Is() against one
var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidTerm       = errors.New("invalid term")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrIneligible        = errors.New("loan request not eligible")
	ErrAlreadyPaid       = errors.New("installment already paid")
	ErrNotFound          = errors.New("resource not found")
	ErrTransport         = errors.New("transport failure")
	ErrConcurrentUpdate  = errors.New("loan was modified concurrently")
)

// InvalidAmountError reports a principal, rate or payment outside its domain
type InvalidAmountError struct {
	Field  string
	Reason string
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *InvalidAmountError) Is(target error) bool { return target == ErrInvalidAmount }

// InvalidTermError reports a bad installment count, frequency or date range
type InvalidTermError struct {
	Reason string
}

func (e *InvalidTermError) Error() string {
	return "invalid term: " + e.Reason
}

func (e *InvalidTermError) Is(target error) bool { return target == ErrInvalidTerm }

// ValidationError reports a malformed field that is neither money nor term
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

// InvalidTransitionError reports a lifecycle event not allowed from the current status
type InvalidTransitionError struct {
	From   LoanStatus
	Event  Event
	Reason string
}

func (e *InvalidTransitionError) Error() string {
	from := string(e.From)
	if from == "" {
		from = "NONE"
	}
	msg := fmt.Sprintf("cannot %s a loan in status %s", e.Event, from)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *InvalidTransitionError) Is(target error) bool { return target == ErrInvalidTransition }

// EligibilityError carries the failing eligibility rule
type EligibilityError struct {
	EmployeeID string
	Reason     string
}

func (e *EligibilityError) Error() string {
	return "loan request not eligible: " + e.Reason
}

func (e *EligibilityError) Is(target error) bool { return target == ErrIneligible }

// AlreadyPaidError reports a repayment against a settled installment
type AlreadyPaidError struct {
	EntryID           string
	InstallmentNumber int
}

func (e *AlreadyPaidError) Error() string {
	return fmt.Sprintf("installment %d is already paid", e.InstallmentNumber)
}

func (e *AlreadyPaidError) Is(target error) bool { return target == ErrAlreadyPaid }

// NotFoundError reports a missing loan, schedule entry or employee
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Resource + " not found"
	}
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// TransportError means the outcome of a remote call is unknown
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.Err != nil && e.StatusCode != 0:
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.StatusCode, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }
