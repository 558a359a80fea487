package handlers

import (
	"strings"

	"hr-loanengine/internal/adapters/http/dto"
	"hr-loanengine/internal/core/domain"
	"hr-loanengine/internal/core/services"
	"hr-loanengine/internal/pkg/pagination"
	"hr-loanengine/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// LoanHandler handles loan endpoints
type LoanHandler struct {
	loanService *services.LoanService
	log         *logrus.Logger
}

// NewLoanHandler creates a new loan handler
func NewLoanHandler(loanService *services.LoanService, log *logrus.Logger) *LoanHandler {
	return &LoanHandler{
		loanService: loanService,
		log:         log,
	}
}

// loanInput parses the loan terms. Employees may only apply for themselves.
func (h *LoanHandler) loanInput(c *fiber.Ctx) (services.LoanInput, error) {
	var input services.LoanInput
	if err := c.BodyParser(&input); err != nil {
		return input, &domain.ValidationError{Field: "body", Reason: "must be a valid JSON object"}
	}
	input.Frequency = strings.ToUpper(strings.TrimSpace(input.Frequency))
	if !isStaff(c) {
		own := ownEmployeeID(c)
		if input.EmployeeID != "" && input.EmployeeID != own {
			return input, errForeignEmployee
		}
		input.EmployeeID = own
	}
	return input, validateStruct(input)
}

var errForeignEmployee = &domain.ValidationError{Field: "employee_id", Reason: "employees may only apply for their own loans"}

// Preview recomputes loan terms without saving
// @Summary Preview loan terms
// @Description Validate the terms and compute installment, total repayment and end date
// @Tags Loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.LoanInput true "Loan terms"
// @Success 200 {object} response.Response{data=domain.LoanDraft}
// @Failure 400 {object} response.Response
// @Router /loans/preview [post]
func (h *LoanHandler) Preview(c *fiber.Ctx) error {
	input, err := h.loanInput(c)
	if err != nil {
		return handleError(c, h.log, err)
	}

	draft, err := h.loanService.Preview(c.UserContext(), input)
	if err != nil {
		return handleError(c, h.log, err)
	}
	return response.Success(c, "Loan terms calculated", draft)
}

// Create creates a loan application
// @Summary Create loan
// @Description Submit a loan application; it starts PENDING once eligibility passes
// @Tags Loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.LoanInput true "Loan terms"
// @Success 201 {object} response.Response{data=dto.LoanResponse}
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /loans [post]
func (h *LoanHandler) Create(c *fiber.Ctx) error {
	input, err := h.loanInput(c)
	if err != nil {
		return handleError(c, h.log, err)
	}

	loan, err := h.loanService.Create(c.UserContext(), input, actorFrom(c))
	if err != nil {
		return handleError(c, h.log, err)
	}
	return response.Created(c, "Loan application submitted", dto.FromLoan(*loan))
}

// List lists loans
// @Summary List loans
// @Description List loans with optional status and employee filters (Officer only)
// @Tags Loans
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Param sort query string false "created_at, start_date, principal; prefix - for descending"
// @Param status query string false "Filter by status"
// @Param employee_id query string false "Filter by employee"
// @Success 200 {object} response.Response{data=[]dto.LoanResponse,meta=pagination.Meta}
// @Failure 400 {object} response.Response
// @Router /loans [get]
func (h *LoanHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c, "created_at", "created_at", "start_date", "principal", "status")
	filter := services.LoanFilter{
		Status:     domain.LoanStatus(strings.ToUpper(c.Query("status"))),
		EmployeeID: c.Query("employee_id"),
	}
	opts := services.ListOptions{
		Offset:  params.Offset,
		Limit:   params.Limit,
		OrderBy: params.OrderClause(),
	}

	loans, total, err := h.loanService.List(c.UserContext(), filter, opts)
	if err != nil {
		return handleError(c, h.log, err)
	}
	return response.Paginated(c, "Loans retrieved", dto.FromLoans(loans), pagination.GetMeta(params, total))
}

// Get gets a loan with its schedule
// @Summary Get loan
// @Description Get a loan and its repayment schedule as of today
// @Tags Loans
// @Produce json
// @Security BearerAuth
// @Param id path string true "Loan ID"
// @Success 200 {object} response.Response{data=dto.LoanDetailResponse}
// @Failure 404 {object} response.Response
// @Router /loans/{id} [get]
func (h *LoanHandler) Get(c *fiber.Ctx) error {
	detail, err := h.loanService.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return handleError(c, h.log, err)
	}
	if !canSee(c, detail.Loan.EmployeeID) {
		return response.Forbidden(c, "You can only view your own loans")
	}
	return response.Success(c, "Loan retrieved", dto.LoanDetailResponse{
		LoanResponse: dto.FromLoan(detail.Loan),
		Schedule:     dto.FromEntries(detail.Schedule),
	})
}

// Update edits the terms of a pending loan
// @Summary Update loan
// @Description Change the terms of a PENDING loan; the schedule is regenerated
// @Tags Loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Loan ID"
// @Param body body services.LoanInput true "Loan terms"
// @Success 200 {object} response.Response{data=dto.LoanResponse}
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /loans/{id} [put]
func (h *LoanHandler) Update(c *fiber.Ctx) error {
	input, err := h.loanInput(c)
	if err != nil {
		return handleError(c, h.log, err)
	}

	loan, err := h.loanService.Update(c.UserContext(), c.Params("id"), input, actorFrom(c))
	if err != nil {
		return handleError(c, h.log, err)
	}
	return response.Success(c, "Loan updated", dto.FromLoan(*loan))
}

// Approve approves a pending loan
// @Summary Approve loan
// @Description Approve a PENDING loan; it becomes ACTIVE (Officer only)
// @Tags Loans
// @Produce json
// @Security BearerAuth
// @Param id path string true "Loan ID"
// @Success 200 {object} response.Response{data=dto.LoanResponse}
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /loans/{id}/approve [post]
func (h *LoanHandler) Approve(c *fiber.Ctx) error {
	loan, err := h.loanService.Approve(c.UserContext(), c.Params("id"), actorFrom(c))
	if err != nil {
		return handleError(c, h.log, err)
	}
	return response.Success(c, "Loan approved", dto.FromLoan(*loan))
}

// Reject rejects a pending loan
// @Summary Reject loan
// @Description Reject a PENDING loan with a reason, given as query or body (Officer only)
// @Tags Loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Loan ID"
// @Param reason query string false "Rejection reason"
// @Param body body dto.RejectRequest false "Rejection reason"
// @Success 200 {object} response.Response{data=dto.LoanResponse}
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /loans/{id}/reject [post]
func (h *LoanHandler) Reject(c *fiber.Ctx) error {
	req := dto.RejectRequest{Reason: c.Query("reason")}
	if req.Reason == "" && len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return handleError(c, h.log, err)
		}
	} else if err := validateStruct(req); err != nil {
		return handleError(c, h.log, err)
	}

	loan, err := h.loanService.Reject(c.UserContext(), c.Params("id"), strings.TrimSpace(req.Reason), actorFrom(c))
	if err != nil {
		return handleError(c, h.log, err)
	}
	return response.Success(c, "Loan rejected", dto.FromLoan(*loan))
}

// Cancel cancels a loan
// @Summary Cancel loan
// @Description Cancel a PENDING, APPROVED or ACTIVE loan; open installments are cancelled (Officer only)
// @Tags Loans
// @Produce json
// @Security BearerAuth
// @Param id path string true "Loan ID"
// @Success 200 {object} response.Response{data=dto.LoanResponse}
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /loans/{id} [delete]
func (h *LoanHandler) Cancel(c *fiber.Ctx) error {
	loan, err := h.loanService.Cancel(c.UserContext(), c.Params("id"), actorFrom(c))
	if err != nil {
		return handleError(c, h.log, err)
	}
	return response.Success(c, "Loan cancelled", dto.FromLoan(*loan))
}

// Schedule gets the repayment schedule of a loan
// @Summary Get repayment schedule
// @Description Installments with their status as of today; past-due unpaid ones show OVERDUE
// @Tags Loans
// @Produce json
// @Security BearerAuth
// @Param id path string true "Loan ID"
// @Success 200 {object} response.Response{data=[]dto.ScheduleEntryResponse}
// @Failure 404 {object} response.Response
// @Router /loans/{id}/schedule [get]
func (h *LoanHandler) Schedule(c *fiber.Ctx) error {
	detail, err := h.loanService.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return handleError(c, h.log, err)
	}
	if !canSee(c, detail.Loan.EmployeeID) {
		return response.Forbidden(c, "You can only view your own loans")
	}
	return response.Success(c, "Schedule retrieved", dto.FromEntries(detail.Schedule))
}

// History gets the audit trail of a loan
// @Summary Get loan history
// @Tags Loans
// @Produce json
// @Security BearerAuth
// @Param id path string true "Loan ID"
// @Success 200 {object} response.Response{data=[]dto.HistoryResponse}
// @Failure 404 {object} response.Response
// @Router /loans/{id}/history [get]
func (h *LoanHandler) History(c *fiber.Ctx) error {
	history, err := h.loanService.GetHistory(c.UserContext(), c.Params("id"))
	if err != nil {
		return handleError(c, h.log, err)
	}
	return response.Success(c, "History retrieved", dto.FromHistory(history))
}

// ByEmployee lists the loans of an employee
// @Summary List employee loans
// @Tags Employee Loans
// @Produce json
// @Security BearerAuth
// @Param id path string true "Employee ID"
// @Success 200 {object} response.Response{data=[]dto.LoanResponse}
// @Failure 403 {object} response.Response
// @Router /loans/employee/{id} [get]
func (h *LoanHandler) ByEmployee(c *fiber.Ctx) error {
	employeeID := c.Params("id")
	if !canSee(c, employeeID) {
		return response.Forbidden(c, "You can only view your own loans")
	}

	loans, err := h.loanService.GetByEmployee(c.UserContext(), employeeID)
	if err != nil {
		return handleError(c, h.log, err)
	}
	return response.Success(c, "Loans retrieved", dto.FromLoans(loans))
}

// OutstandingBalance gets the open balance of an employee
// @Summary Get outstanding balance
// @Description Sum of the remaining balance of ACTIVE and PENDING loans
// @Tags Employee Loans
// @Produce json
// @Security BearerAuth
// @Param id path string true "Employee ID"
// @Success 200 {object} response.Response{data=dto.OutstandingBalanceResponse}
// @Failure 403 {object} response.Response
// @Router /loans/employee/{id}/outstanding-balance [get]
func (h *LoanHandler) OutstandingBalance(c *fiber.Ctx) error {
	employeeID := c.Params("id")
	if !canSee(c, employeeID) {
		return response.Forbidden(c, "You can only view your own loans")
	}

	balance, err := h.loanService.OutstandingBalance(c.UserContext(), employeeID)
	if err != nil {
		return handleError(c, h.log, err)
	}
	return response.Success(c, "Outstanding balance retrieved", dto.OutstandingBalanceResponse{
		EmployeeID:         employeeID,
		OutstandingBalance: balance,
	})
}

// Portfolio gets the loan portfolio of an employee
// @Summary Get loan portfolio
// @Description Counts by status, outstanding balance, monthly repayments and salary utilization
// @Tags Employee Loans
// @Produce json
// @Security BearerAuth
// @Param id path string true "Employee ID"
// @Success 200 {object} response.Response{data=domain.EmployeeLoanPortfolio}
// @Failure 404 {object} response.Response
// @Router /loans/employee/{id}/portfolio [get]
func (h *LoanHandler) Portfolio(c *fiber.Ctx) error {
	employeeID := c.Params("id")
	if !canSee(c, employeeID) {
		return response.Forbidden(c, "You can only view your own loans")
	}

	portfolio, err := h.loanService.Portfolio(c.UserContext(), employeeID)
	if err != nil {
		return handleError(c, h.log, err)
	}
	return response.Success(c, "Portfolio retrieved", portfolio)
}

// Eligibility checks whether an employee may borrow an amount
// @Summary Check eligibility
// @Description Advisory check; the rules run again when the loan is created
// @Tags Employee Loans
// @Produce json
// @Security BearerAuth
// @Param id path string true "Employee ID"
// @Param amount query number true "Requested amount"
// @Success 200 {object} response.Response{data=dto.EligibilityResponse}
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /loans/employee/{id}/eligibility [get]
func (h *LoanHandler) Eligibility(c *fiber.Ctx) error {
	employeeID := c.Params("id")
	if !canSee(c, employeeID) {
		return response.Forbidden(c, "You can only view your own loans")
	}
	amount, err := amountQuery(c, "amount")
	if err != nil {
		return handleError(c, h.log, err)
	}

	result, err := h.loanService.CheckEligibility(c.UserContext(), employeeID, amount)
	if err != nil {
		return handleError(c, h.log, err)
	}
	return response.Success(c, "Eligibility evaluated", dto.EligibilityResponse{
		EmployeeID: employeeID,
		Amount:     amount,
		Eligible:   result.Eligible,
		Reason:     result.Reason,
	})
}
