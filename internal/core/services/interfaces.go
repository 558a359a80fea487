package services

import (
	"context"
	"time"

	"hr-loanengine/internal/core/domain"
)

// Actor is the authenticated caller of a mutating operation
type Actor struct {
	UserID    string
	Username  string
	Role      string
	IPAddress string
}

// LoanFilter narrows loan listings; zero values match everything
type LoanFilter struct {
	Status     domain.LoanStatus
	EmployeeID string
}

// ListOptions controls paging and ordering of listings
type ListOptions struct {
	Offset  int
	Limit   int
	OrderBy string
}

// LoanRepository persists loans. Update enforces optimistic versioning and
// returns domain.ErrConcurrentUpdate when the stored version moved on.
// LockEmployee must run inside WithinTransaction before the employee's loans
// are read; it blocks other transactions locking the same employee until commit.
type LoanRepository interface {
	LockEmployee(ctx context.Context, employeeID string) error
	Create(ctx context.Context, loan *domain.Loan) error
	GetByID(ctx context.Context, id string) (*domain.Loan, error)
	GetByEmployeeID(ctx context.Context, employeeID string) ([]domain.Loan, error)
	List(ctx context.Context, filter LoanFilter, opts ListOptions) ([]domain.Loan, int64, error)
	ListByStatus(ctx context.Context, statuses ...domain.LoanStatus) ([]domain.Loan, error)
	ListAll(ctx context.Context) ([]domain.Loan, error)
	Update(ctx context.Context, loan *domain.Loan) error
}

// ScheduleRepository persists repayment schedule entries
type ScheduleRepository interface {
	CreateBatch(ctx context.Context, entries []domain.RepaymentScheduleEntry) error
	GetByID(ctx context.Context, id string) (*domain.RepaymentScheduleEntry, error)
	GetByLoanID(ctx context.Context, loanID string) ([]domain.RepaymentScheduleEntry, error)
	Update(ctx context.Context, entry *domain.RepaymentScheduleEntry) error
	DeleteByLoanID(ctx context.Context, loanID string) error
	ListPendingDueBefore(ctx context.Context, day time.Time) ([]domain.RepaymentScheduleEntry, error)
}

// RepaymentRepository persists accepted repayment postings
type RepaymentRepository interface {
	Create(ctx context.Context, repayment *domain.Repayment) error
	GetByIdempotencyKey(ctx context.Context, key string) (*domain.Repayment, error)
	GetByLoanID(ctx context.Context, loanID string) ([]domain.Repayment, error)
}

// HistoryRepository persists the loan audit trail
type HistoryRepository interface {
	Create(ctx context.Context, entry *domain.HistoryEntry) error
	GetByLoanID(ctx context.Context, loanID string) ([]domain.HistoryEntry, error)
}

// Store groups the repositories that must change together.
// WithinTransaction runs fn against a Store bound to one database transaction.
type Store interface {
	Loans() LoanRepository
	Schedules() ScheduleRepository
	Repayments() RepaymentRepository
	History() HistoryRepository
	WithinTransaction(ctx context.Context, fn func(tx Store) error) error
}

// EmployeeDirectory resolves borrowers; it returns *domain.NotFoundError for unknown ids
type EmployeeDirectory interface {
	GetEmployee(ctx context.Context, id string) (*domain.Employee, error)
}

// EmployeeSearcher is the optional name/ID lookup offered by local directories
type EmployeeSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]domain.Employee, error)
}

// EventPublisher delivers loan events to the notification collaborator
type EventPublisher interface {
	Publish(ctx context.Context, events ...domain.LoanEvent) error
	Close() error
}
