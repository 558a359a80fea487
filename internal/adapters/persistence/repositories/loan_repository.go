package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hr-loanengine/internal/adapters/persistence/models"
	"hr-loanengine/internal/core/domain"
	"hr-loanengine/internal/core/services"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LoanRepository handles loan data access
type LoanRepository struct {
	db *gorm.DB
}

// NewLoanRepository creates a new loan repository
func NewLoanRepository(db *gorm.DB) *LoanRepository {
	return &LoanRepository{db: db}
}

// Create inserts a loan and writes the generated ID back
func (r *LoanRepository) Create(ctx context.Context, loan *domain.Loan) error {
	row := models.LoanFromDomain(*loan)
	if row.Version == 0 {
		row.Version = 1
	}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("create loan: %w", err)
	}
	*loan = row.ToDomain()
	return nil
}

// GetByID gets a loan by ID
func (r *LoanRepository) GetByID(ctx context.Context, id string) (*domain.Loan, error) {
	var row models.Loan
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, translate(err, "loan", id)
	}
	loan := row.ToDomain()
	return &loan, nil
}

// LockEmployee takes the row lock of the employee's guard until the surrounding
// transaction ends. The guard row is created on first use.
func (r *LoanRepository) LockEmployee(ctx context.Context, employeeID string) error {
	db := r.db.WithContext(ctx)
	guard := models.LoanGuard{EmployeeID: employeeID, UpdatedAt: time.Now().UTC()}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&guard).Error; err != nil {
		return fmt.Errorf("create loan guard of %s: %w", employeeID, err)
	}

	res := db.Model(&models.LoanGuard{}).
		Where("employee_id = ?", employeeID).
		Updates(map[string]interface{}{
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return fmt.Errorf("lock loans of %s: %w", employeeID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("lock loans of %s: guard row missing", employeeID)
	}
	return nil
}

// GetByEmployeeID gets every loan of an employee, newest first
func (r *LoanRepository) GetByEmployeeID(ctx context.Context, employeeID string) ([]domain.Loan, error) {
	var rows []models.Loan
	err := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("loans of employee %s: %w", employeeID, err)
	}
	return toDomainLoans(rows), nil
}

// List lists loans with filters and pagination
func (r *LoanRepository) List(ctx context.Context, filter services.LoanFilter, opts services.ListOptions) ([]domain.Loan, int64, error) {
	var rows []models.Loan
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Loan{})
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}
	if filter.EmployeeID != "" {
		query = query.Where("employee_id = ?", filter.EmployeeID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count loans: %w", err)
	}

	order := opts.OrderBy
	if order == "" {
		order = "created_at DESC"
	}
	query = query.Order(order).Offset(opts.Offset)
	if opts.Limit > 0 {
		query = query.Limit(opts.Limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("list loans: %w", err)
	}
	return toDomainLoans(rows), total, nil
}

// ListByStatus lists loans in any of the given statuses
func (r *LoanRepository) ListByStatus(ctx context.Context, statuses ...domain.LoanStatus) ([]domain.Loan, error) {
	values := make([]string, len(statuses))
	for i, s := range statuses {
		values[i] = string(s)
	}

	var rows []models.Loan
	if err := r.db.WithContext(ctx).Where("status IN ?", values).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("loans by status: %w", err)
	}
	return toDomainLoans(rows), nil
}

// ListAll lists every loan
func (r *LoanRepository) ListAll(ctx context.Context) ([]domain.Loan, error) {
	var rows []models.Loan
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list all loans: %w", err)
	}
	return toDomainLoans(rows), nil
}

// Update writes the loan when the stored version still equals loan.Version,
// then advances loan.Version.
func (r *LoanRepository) Update(ctx context.Context, loan *domain.Loan) error {
	row := models.LoanFromDomain(*loan)

	res := r.db.WithContext(ctx).
		Model(&models.Loan{}).
		Where("id = ? AND version = ?", loan.ID, loan.Version).
		Updates(map[string]interface{}{
			"principal":             row.Principal,
			"annual_interest_rate":  row.AnnualInterestRate,
			"installment_frequency": row.InstallmentFrequency,
			"total_installments":    row.TotalInstallments,
			"installment_amount":    row.InstallmentAmount,
			"total_repayment":       row.TotalRepayment,
			"start_date":            row.StartDate,
			"end_date":              row.EndDate,
			"status":                row.Status,
			"paid_installments":     row.PaidInstallments,
			"remaining_balance":     row.RemainingBalance,
			"description":           row.Description,
			"approved_by":           row.ApprovedBy,
			"approved_at":           row.ApprovedAt,
			"rejected_by":           row.RejectedBy,
			"rejected_at":           row.RejectedAt,
			"rejection_reason":      row.RejectionReason,
			"cancelled_by":          row.CancelledBy,
			"cancelled_at":          row.CancelledAt,
			"completed_at":          row.CompletedAt,
			"version":               loan.Version + 1,
			"updated_at":            loan.UpdatedAt,
		})
	if res.Error != nil {
		return fmt.Errorf("update loan %s: %w", loan.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&models.Loan{}).Where("id = ?", loan.ID).Count(&count).Error; err != nil {
			return fmt.Errorf("update loan %s: %w", loan.ID, err)
		}
		if count == 0 {
			return &domain.NotFoundError{Resource: "loan", ID: loan.ID}
		}
		return fmt.Errorf("update loan %s at version %d: %w", loan.ID, loan.Version, domain.ErrConcurrentUpdate)
	}

	loan.Version++
	return nil
}

func toDomainLoans(rows []models.Loan) []domain.Loan {
	loans := make([]domain.Loan, 0, len(rows))
	for i := range rows {
		loans = append(loans, rows[i].ToDomain())
	}
	return loans
}

// isDuplicateKey reports a unique constraint violation from MySQL or SQLite
func isDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
