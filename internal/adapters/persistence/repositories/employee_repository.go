package repositories

import (
	"context"
	"fmt"

	"hr-loanengine/internal/adapters/persistence/models"
	"hr-loanengine/internal/core/domain"

	"gorm.io/gorm"
)

// EmployeeRepository is READ-ONLY access to the HR employees table
type EmployeeRepository struct {
	db *gorm.DB
}

// NewEmployeeRepository creates a new employee repository
func NewEmployeeRepository(db *gorm.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

// GetEmployee gets an employee by ID
func (r *EmployeeRepository) GetEmployee(ctx context.Context, id string) (*domain.Employee, error) {
	var row models.Employee
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, translate(err, "employee", id)
	}
	employee := row.ToDomain()
	return &employee, nil
}

// Search searches for employees by name or ID
func (r *EmployeeRepository) Search(ctx context.Context, query string, limit int) ([]domain.Employee, error) {
	var rows []models.Employee
	searchQuery := "%" + query + "%"
	err := r.db.WithContext(ctx).
		Where("id LIKE ? OR full_name LIKE ?", searchQuery, searchQuery).
		Order("full_name ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("search employees: %w", err)
	}

	employees := make([]domain.Employee, 0, len(rows))
	for _, row := range rows {
		employees = append(employees, row.ToDomain())
	}
	return employees, nil
}
