package repositories

import "hr-loanengine/internal/core/services"

// Compile-time checks that the GORM repositories satisfy the service ports
var (
	_ services.Store               = (*Store)(nil)
	_ services.LoanRepository      = (*LoanRepository)(nil)
	_ services.ScheduleRepository  = (*ScheduleRepository)(nil)
	_ services.RepaymentRepository = (*RepaymentRepository)(nil)
	_ services.HistoryRepository   = (*HistoryRepository)(nil)
	_ services.EmployeeDirectory   = (*EmployeeRepository)(nil)
	_ services.EmployeeSearcher    = (*EmployeeRepository)(nil)
)
