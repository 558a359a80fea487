package config

import (
	"fmt"

	"hr-loanengine/internal/adapters/persistence/models"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Seeder handles database seeding
type Seeder struct {
	db  *gorm.DB
	log *logrus.Logger
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB, log *logrus.Logger) *Seeder {
	return &Seeder{db: db, log: log}
}

// Run executes all seeders.
// This is for development only; production reads employees from the HR directory.
func (s *Seeder) Run() error {
	s.log.Info("running database seeders")

	if err := models.MigrateDirectory(s.db); err != nil {
		return fmt.Errorf("migrate employees: %w", err)
	}
	if err := s.seedEmployees(); err != nil {
		return fmt.Errorf("seed employees: %w", err)
	}

	s.log.Info("database seeding completed")
	return nil
}

// seedEmployees fills an empty employees table with sample staff
func (s *Seeder) seedEmployees() error {
	var count int64
	if err := s.db.Model(&models.Employee{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	employees := []models.Employee{
		{ID: "EMP-001", FullName: "Anan Srisuk", Department: "Finance", MonthlySalary: decimal.NewFromInt(50000), IsActive: true},
		{ID: "EMP-002", FullName: "Mali Chan", Department: "Engineering", MonthlySalary: decimal.NewFromInt(40000), IsActive: true},
		{ID: "EMP-003", FullName: "Somchai Dee", Department: "Operations", MonthlySalary: decimal.NewFromInt(28000), IsActive: true},
		{ID: "EMP-004", FullName: "Pim Rattana", Department: "Human Resources", MonthlySalary: decimal.NewFromInt(35000), IsActive: true},
		{ID: "EMP-009", FullName: "Niran Former", Department: "Operations", MonthlySalary: decimal.NewFromInt(30000), IsActive: false},
	}
	if err := s.db.Create(&employees).Error; err != nil {
		return err
	}

	s.log.WithField("count", len(employees)).Info("sample employees created")
	return nil
}
