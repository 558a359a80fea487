package models

import (
	"time"

	"hr-loanengine/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ============================================================
// Loan Tables
// ============================================================

// Loan represents loans table
type Loan struct {
	ID                   string          `gorm:"primaryKey;size:36" json:"id"`
	EmployeeID           string          `gorm:"size:36;not null;index" json:"employee_id"`
	Principal            decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"principal"`
	AnnualInterestRate   decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"annual_interest_rate"`
	InstallmentFrequency string          `gorm:"size:10;not null" json:"installment_frequency"`
	TotalInstallments    int             `gorm:"not null" json:"total_installments"`
	InstallmentAmount    decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"installment_amount"`
	TotalRepayment       decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"total_repayment"`
	StartDate            time.Time       `gorm:"type:date;not null" json:"start_date"`
	EndDate              time.Time       `gorm:"type:date;not null" json:"end_date"`
	Status               string          `gorm:"size:20;not null;default:'PENDING';index" json:"status"`
	PaidInstallments     int             `gorm:"not null;default:0" json:"paid_installments"`
	RemainingBalance     decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"remaining_balance"`
	Description          string          `gorm:"size:500" json:"description"`
	CreatedBy            string          `gorm:"size:50" json:"created_by"`
	ApprovedBy           string          `gorm:"size:50" json:"approved_by"`
	ApprovedAt           *time.Time      `json:"approved_at"`
	RejectedBy           string          `gorm:"size:50" json:"rejected_by"`
	RejectedAt           *time.Time      `json:"rejected_at"`
	RejectionReason      string          `gorm:"type:text" json:"rejection_reason"`
	CancelledBy          string          `gorm:"size:50" json:"cancelled_by"`
	CancelledAt          *time.Time      `json:"cancelled_at"`
	CompletedAt          *time.Time      `json:"completed_at"`
	Version              int             `gorm:"not null;default:1" json:"version"`
	CreatedAt            time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Loan) TableName() string {
	return "loans"
}

func (l *Loan) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}

// ToDomain converts the row into the domain loan
func (l *Loan) ToDomain() domain.Loan {
	return domain.Loan{
		ID:                        l.ID,
		EmployeeID:                l.EmployeeID,
		Principal:                 l.Principal,
		AnnualInterestRatePercent: l.AnnualInterestRate,
		Frequency:                 domain.Frequency(l.InstallmentFrequency),
		TotalInstallments:         l.TotalInstallments,
		InstallmentAmount:         l.InstallmentAmount,
		TotalRepayment:            l.TotalRepayment,
		StartDate:                 l.StartDate.UTC(),
		EndDate:                   l.EndDate.UTC(),
		Status:                    domain.LoanStatus(l.Status),
		PaidInstallments:          l.PaidInstallments,
		RemainingBalance:          l.RemainingBalance,
		Description:               l.Description,
		CreatedBy:                 l.CreatedBy,
		ApprovedBy:                l.ApprovedBy,
		ApprovedAt:                l.ApprovedAt,
		RejectedBy:                l.RejectedBy,
		RejectedAt:                l.RejectedAt,
		RejectionReason:           l.RejectionReason,
		CancelledBy:               l.CancelledBy,
		CancelledAt:               l.CancelledAt,
		CompletedAt:               l.CompletedAt,
		Version:                   l.Version,
		CreatedAt:                 l.CreatedAt,
		UpdatedAt:                 l.UpdatedAt,
	}
}

// LoanFromDomain converts a domain loan into a row
func LoanFromDomain(l domain.Loan) *Loan {
	return &Loan{
		ID:                   l.ID,
		EmployeeID:           l.EmployeeID,
		Principal:            l.Principal,
		AnnualInterestRate:   l.AnnualInterestRatePercent,
		InstallmentFrequency: string(l.Frequency),
		TotalInstallments:    l.TotalInstallments,
		InstallmentAmount:    l.InstallmentAmount,
		TotalRepayment:       l.TotalRepayment,
		StartDate:            l.StartDate,
		EndDate:              l.EndDate,
		Status:               string(l.Status),
		PaidInstallments:     l.PaidInstallments,
		RemainingBalance:     l.RemainingBalance,
		Description:          l.Description,
		CreatedBy:            l.CreatedBy,
		ApprovedBy:           l.ApprovedBy,
		ApprovedAt:           l.ApprovedAt,
		RejectedBy:           l.RejectedBy,
		RejectedAt:           l.RejectedAt,
		RejectionReason:      l.RejectionReason,
		CancelledBy:          l.CancelledBy,
		CancelledAt:          l.CancelledAt,
		CompletedAt:          l.CompletedAt,
		Version:              l.Version,
		CreatedAt:            l.CreatedAt,
		UpdatedAt:            l.UpdatedAt,
	}
}

// RepaymentSchedule represents repayment_schedules table (1:N with loans)
type RepaymentSchedule struct {
	ID                string              `gorm:"primaryKey;size:36" json:"id"`
	LoanID            string              `gorm:"size:36;not null;uniqueIndex:idx_schedule_loan_installment" json:"loan_id"`
	InstallmentNumber int                 `gorm:"not null;uniqueIndex:idx_schedule_loan_installment" json:"installment_number"`
	DueDate           time.Time           `gorm:"type:date;not null;index" json:"due_date"`
	ScheduledAmount   decimal.Decimal     `gorm:"type:decimal(15,2);not null" json:"scheduled_amount"`
	PaidAmount        decimal.NullDecimal `gorm:"type:decimal(15,2)" json:"paid_amount"`
	PaymentDate       *time.Time          `json:"payment_date"`
	Status            string              `gorm:"size:20;not null;default:'PENDING';index" json:"status"`
	CreatedAt         time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time           `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	Loan *Loan `gorm:"foreignKey:LoanID" json:"loan,omitempty"`
}

func (RepaymentSchedule) TableName() string {
	return "repayment_schedules"
}

func (s *RepaymentSchedule) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// ToDomain converts the row into a schedule entry
func (s *RepaymentSchedule) ToDomain() domain.RepaymentScheduleEntry {
	e := domain.RepaymentScheduleEntry{
		ID:                s.ID,
		LoanID:            s.LoanID,
		InstallmentNumber: s.InstallmentNumber,
		DueDate:           s.DueDate.UTC(),
		ScheduledAmount:   s.ScheduledAmount,
		PaymentDate:       s.PaymentDate,
		Status:            domain.EntryStatus(s.Status),
	}
	if s.PaidAmount.Valid {
		paid := s.PaidAmount.Decimal
		e.PaidAmount = &paid
	}
	return e
}

// ScheduleFromDomain converts a schedule entry into a row
func ScheduleFromDomain(e domain.RepaymentScheduleEntry) *RepaymentSchedule {
	row := &RepaymentSchedule{
		ID:                e.ID,
		LoanID:            e.LoanID,
		InstallmentNumber: e.InstallmentNumber,
		DueDate:           e.DueDate,
		ScheduledAmount:   e.ScheduledAmount,
		PaymentDate:       e.PaymentDate,
		Status:            string(e.Status),
	}
	if e.PaidAmount != nil {
		row.PaidAmount = decimal.NewNullDecimal(*e.PaidAmount)
	}
	return row
}

// Repayment represents repayments table, one row per accepted posting
type Repayment struct {
	ID              string          `gorm:"primaryKey;size:36" json:"id"`
	ScheduleEntryID string          `gorm:"size:36;not null;index" json:"schedule_entry_id"`
	LoanID          string          `gorm:"size:36;not null;index" json:"loan_id"`
	Amount          decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	IdempotencyKey  *string         `gorm:"size:100;uniqueIndex" json:"idempotency_key"`
	PostedBy        string          `gorm:"size:50" json:"posted_by"`
	PostedAt        time.Time       `gorm:"not null" json:"posted_at"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (Repayment) TableName() string {
	return "repayments"
}

func (r *Repayment) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// ToDomain converts the row into a repayment
func (r *Repayment) ToDomain() domain.Repayment {
	out := domain.Repayment{
		ID:              r.ID,
		ScheduleEntryID: r.ScheduleEntryID,
		LoanID:          r.LoanID,
		Amount:          r.Amount,
		PostedBy:        r.PostedBy,
		PostedAt:        r.PostedAt,
	}
	if r.IdempotencyKey != nil {
		out.IdempotencyKey = *r.IdempotencyKey
	}
	return out
}

// RepaymentFromDomain converts a repayment into a row; an empty key is stored as NULL
func RepaymentFromDomain(r domain.Repayment) *Repayment {
	row := &Repayment{
		ID:              r.ID,
		ScheduleEntryID: r.ScheduleEntryID,
		LoanID:          r.LoanID,
		Amount:          r.Amount,
		PostedBy:        r.PostedBy,
		PostedAt:        r.PostedAt,
	}
	if r.IdempotencyKey != "" {
		key := r.IdempotencyKey
		row.IdempotencyKey = &key
	}
	return row
}

// LoanHistory represents loan_histories table, the audit trail of a loan
type LoanHistory struct {
	ID          uint                `gorm:"primaryKey" json:"id"`
	LoanID      string              `gorm:"size:36;not null;index" json:"loan_id"`
	HistoryType string              `gorm:"size:20;not null" json:"history_type"`
	FromStatus  string              `gorm:"size:20" json:"from_status"`
	ToStatus    string              `gorm:"size:20" json:"to_status"`
	Amount      decimal.NullDecimal `gorm:"type:decimal(15,2)" json:"amount"`
	Description string              `gorm:"type:text" json:"description"`
	PerformedBy string              `gorm:"size:50;not null" json:"performed_by"`
	IPAddress   string              `gorm:"size:50" json:"ip_address"`
	CreatedAt   time.Time           `gorm:"autoCreateTime" json:"created_at"`
}

func (LoanHistory) TableName() string {
	return "loan_histories"
}

// ToDomain converts the row into a history entry
func (h *LoanHistory) ToDomain() domain.HistoryEntry {
	e := domain.HistoryEntry{
		ID:          h.ID,
		LoanID:      h.LoanID,
		Type:        domain.HistoryType(h.HistoryType),
		FromStatus:  domain.LoanStatus(h.FromStatus),
		ToStatus:    domain.LoanStatus(h.ToStatus),
		Description: h.Description,
		PerformedBy: h.PerformedBy,
		IPAddress:   h.IPAddress,
		CreatedAt:   h.CreatedAt,
	}
	if h.Amount.Valid {
		amount := h.Amount.Decimal
		e.Amount = &amount
	}
	return e
}

// HistoryFromDomain converts a history entry into a row
func HistoryFromDomain(e domain.HistoryEntry) *LoanHistory {
	row := &LoanHistory{
		ID:          e.ID,
		LoanID:      e.LoanID,
		HistoryType: string(e.Type),
		FromStatus:  string(e.FromStatus),
		ToStatus:    string(e.ToStatus),
		Description: e.Description,
		PerformedBy: e.PerformedBy,
		IPAddress:   e.IPAddress,
		CreatedAt:   e.CreatedAt,
	}
	if e.Amount != nil {
		row.Amount = decimal.NewNullDecimal(*e.Amount)
	}
	return row
}

// ============================================================
// Loan Guards Table
// ============================================================

// LoanGuard is one row per borrower. Creating or re-terming a loan bumps it
// first, which serializes the eligibility checks of that employee.
type LoanGuard struct {
	EmployeeID string    `gorm:"column:employee_id;primaryKey;size:36" json:"employee_id"`
	Version    int64     `gorm:"column:version;not null;default:0" json:"version"`
	UpdatedAt  time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (LoanGuard) TableName() string {
	return "loan_guards"
}

// ============================================================
// Directory Table (Read Only in production)
// ============================================================

// Employee represents the HR employees table
type Employee struct {
	ID            string          `gorm:"column:id;primaryKey;size:36" json:"id"`
	FullName      string          `gorm:"column:full_name;size:200" json:"full_name"`
	Department    string          `gorm:"column:department;size:100" json:"department"`
	MonthlySalary decimal.Decimal `gorm:"column:monthly_salary;type:decimal(15,2)" json:"monthly_salary"`
	IsActive      bool            `gorm:"column:is_active;not null" json:"is_active"`
}

func (Employee) TableName() string {
	return "employees"
}

// ToDomain converts the row into the directory view
func (e *Employee) ToDomain() domain.Employee {
	return domain.Employee{
		ID:            e.ID,
		FullName:      e.FullName,
		Department:    e.Department,
		MonthlySalary: e.MonthlySalary,
		IsActive:      e.IsActive,
	}
}

// AutoMigrate creates the loan tables. The employees table belongs to HR and is
// only migrated by MigrateDirectory for local databases.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Loan{},
		&RepaymentSchedule{},
		&Repayment{},
		&LoanHistory{},
		&LoanGuard{},
	)
}

// MigrateDirectory creates the employees table for dev and test databases
func MigrateDirectory(db *gorm.DB) error {
	return db.AutoMigrate(&Employee{})
}
