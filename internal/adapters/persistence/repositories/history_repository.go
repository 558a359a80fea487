package repositories

import (
	"context"
	"fmt"

	"hr-loanengine/internal/adapters/persistence/models"
	"hr-loanengine/internal/core/domain"

	"gorm.io/gorm"
)

// HistoryRepository handles loan history data access
type HistoryRepository struct {
	db *gorm.DB
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *gorm.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Create appends a history row
func (r *HistoryRepository) Create(ctx context.Context, entry *domain.HistoryEntry) error {
	row := models.HistoryFromDomain(*entry)
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("create history of loan %s: %w", entry.LoanID, err)
	}
	entry.ID = row.ID
	entry.CreatedAt = row.CreatedAt
	return nil
}

// GetByLoanID gets the history of a loan, newest first
func (r *HistoryRepository) GetByLoanID(ctx context.Context, loanID string) ([]domain.HistoryEntry, error) {
	var rows []models.LoanHistory
	err := r.db.WithContext(ctx).
		Where("loan_id = ?", loanID).
		Order("created_at DESC, id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("history of loan %s: %w", loanID, err)
	}
	out := make([]domain.HistoryEntry, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToDomain())
	}
	return out, nil
}
