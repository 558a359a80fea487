package repositories

import (
	"context"
	"fmt"

	"hr-loanengine/internal/adapters/persistence/models"
	"hr-loanengine/internal/core/domain"

	"gorm.io/gorm"
)

// RepaymentRepository handles repayment posting data access
type RepaymentRepository struct {
	db *gorm.DB
}

// NewRepaymentRepository creates a new repayment repository
func NewRepaymentRepository(db *gorm.DB) *RepaymentRepository {
	return &RepaymentRepository{db: db}
}

// Create records a posting. A reused idempotency key reports domain.ErrConcurrentUpdate.
func (r *RepaymentRepository) Create(ctx context.Context, repayment *domain.Repayment) error {
	row := models.RepaymentFromDomain(*repayment)
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("idempotency key %q: %w", repayment.IdempotencyKey, domain.ErrConcurrentUpdate)
		}
		return fmt.Errorf("create repayment: %w", err)
	}
	repayment.ID = row.ID
	return nil
}

// GetByIdempotencyKey finds an earlier posting with the same client key
func (r *RepaymentRepository) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Repayment, error) {
	var row models.Repayment
	if err := r.db.WithContext(ctx).Where("idempotency_key = ?", key).First(&row).Error; err != nil {
		return nil, translate(err, "repayment", key)
	}
	repayment := row.ToDomain()
	return &repayment, nil
}

// GetByLoanID lists the postings of a loan, oldest first
func (r *RepaymentRepository) GetByLoanID(ctx context.Context, loanID string) ([]domain.Repayment, error) {
	var rows []models.Repayment
	err := r.db.WithContext(ctx).
		Where("loan_id = ?", loanID).
		Order("posted_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("repayments of loan %s: %w", loanID, err)
	}
	out := make([]domain.Repayment, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToDomain())
	}
	return out, nil
}
