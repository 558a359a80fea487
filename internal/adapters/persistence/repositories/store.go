package repositories

import (
	"context"

	"hr-loanengine/internal/core/services"

	"gorm.io/gorm"
)

// Store bundles the loan repositories over one *gorm.DB
type Store struct {
	db         *gorm.DB
	loans      *LoanRepository
	schedules  *ScheduleRepository
	repayments *RepaymentRepository
	history    *HistoryRepository
}

// NewStore creates a store over db
func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:         db,
		loans:      NewLoanRepository(db),
		schedules:  NewScheduleRepository(db),
		repayments: NewRepaymentRepository(db),
		history:    NewHistoryRepository(db),
	}
}

func (s *Store) Loans() services.LoanRepository           { return s.loans }
func (s *Store) Schedules() services.ScheduleRepository   { return s.schedules }
func (s *Store) Repayments() services.RepaymentRepository { return s.repayments }
func (s *Store) History() services.HistoryRepository      { return s.history }

// WithinTransaction runs fn in a database transaction; any error rolls it back
func (s *Store) WithinTransaction(ctx context.Context, fn func(tx services.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}
