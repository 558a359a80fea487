package repositories

import (
	"context"
	"fmt"
	"time"

	"hr-loanengine/internal/adapters/persistence/models"
	"hr-loanengine/internal/core/domain"

	"gorm.io/gorm"
)

// ScheduleRepository handles repayment schedule data access
type ScheduleRepository struct {
	db *gorm.DB
}

// NewScheduleRepository creates a new schedule repository
func NewScheduleRepository(db *gorm.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// CreateBatch inserts entries and writes the generated IDs back into the slice
func (r *ScheduleRepository) CreateBatch(ctx context.Context, entries []domain.RepaymentScheduleEntry) error {
	if len(entries) == 0 {
		return nil
	}
	rows := make([]*models.RepaymentSchedule, len(entries))
	for i, e := range entries {
		rows[i] = models.ScheduleFromDomain(e)
	}
	if err := r.db.WithContext(ctx).CreateInBatches(rows, 100).Error; err != nil {
		return fmt.Errorf("create schedule of loan %s: %w", entries[0].LoanID, err)
	}
	for i, row := range rows {
		entries[i].ID = row.ID
	}
	return nil
}

// GetByID gets a schedule entry by ID
func (r *ScheduleRepository) GetByID(ctx context.Context, id string) (*domain.RepaymentScheduleEntry, error) {
	var row models.RepaymentSchedule
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, translate(err, "schedule entry", id)
	}
	entry := row.ToDomain()
	return &entry, nil
}

// GetByLoanID gets the schedule of a loan ordered by installment number
func (r *ScheduleRepository) GetByLoanID(ctx context.Context, loanID string) ([]domain.RepaymentScheduleEntry, error) {
	var rows []models.RepaymentSchedule
	err := r.db.WithContext(ctx).
		Where("loan_id = ?", loanID).
		Order("installment_number ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("schedule of loan %s: %w", loanID, err)
	}
	return toDomainEntries(rows), nil
}

// Update writes the payment state of an entry
func (r *ScheduleRepository) Update(ctx context.Context, entry *domain.RepaymentScheduleEntry) error {
	row := models.ScheduleFromDomain(*entry)
	res := r.db.WithContext(ctx).
		Model(&models.RepaymentSchedule{}).
		Where("id = ?", entry.ID).
		Updates(map[string]interface{}{
			"paid_amount":  row.PaidAmount,
			"payment_date": row.PaymentDate,
			"status":       row.Status,
		})
	if res.Error != nil {
		return fmt.Errorf("update schedule entry %s: %w", entry.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return &domain.NotFoundError{Resource: "schedule entry", ID: entry.ID}
	}
	return nil
}

// DeleteByLoanID removes the schedule of a loan before it is regenerated
func (r *ScheduleRepository) DeleteByLoanID(ctx context.Context, loanID string) error {
	if err := r.db.WithContext(ctx).Where("loan_id = ?", loanID).Delete(&models.RepaymentSchedule{}).Error; err != nil {
		return fmt.Errorf("delete schedule of loan %s: %w", loanID, err)
	}
	return nil
}

// ListPendingDueBefore lists PENDING entries due before day on ACTIVE loans
func (r *ScheduleRepository) ListPendingDueBefore(ctx context.Context, day time.Time) ([]domain.RepaymentScheduleEntry, error) {
	var rows []models.RepaymentSchedule
	err := r.db.WithContext(ctx).
		Joins("JOIN loans ON loans.id = repayment_schedules.loan_id").
		Where("repayment_schedules.status = ?", string(domain.EntryStatusPending)).
		Where("repayment_schedules.due_date < ?", domain.DateOf(day)).
		Where("loans.status = ?", string(domain.LoanStatusActive)).
		Order("repayment_schedules.due_date ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("overdue entries: %w", err)
	}
	return toDomainEntries(rows), nil
}

func toDomainEntries(rows []models.RepaymentSchedule) []domain.RepaymentScheduleEntry {
	entries := make([]domain.RepaymentScheduleEntry, 0, len(rows))
	for i := range rows {
		entries = append(entries, rows[i].ToDomain())
	}
	return entries
}
