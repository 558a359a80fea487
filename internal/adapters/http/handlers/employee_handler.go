package handlers

import (
	"strconv"
	"strings"

	"hr-loanengine/internal/adapters/http/dto"
	"hr-loanengine/internal/core/services"
	"hr-loanengine/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// EmployeeHandler exposes the employee directory to loan officers
type EmployeeHandler struct {
	directory services.EmployeeDirectory
	searcher  services.EmployeeSearcher
	log       *logrus.Logger
}

// NewEmployeeHandler creates a new employee handler. searcher may be nil when
// the directory is remote; search then answers 501.
func NewEmployeeHandler(directory services.EmployeeDirectory, searcher services.EmployeeSearcher, log *logrus.Logger) *EmployeeHandler {
	return &EmployeeHandler{
		directory: directory,
		searcher:  searcher,
		log:       log,
	}
}

// Get gets an employee
// @Summary Get employee
// @Tags Employees
// @Produce json
// @Security BearerAuth
// @Param id path string true "Employee ID"
// @Success 200 {object} response.Response{data=dto.EmployeeResponse}
// @Failure 404 {object} response.Response
// @Failure 502 {object} response.Response
// @Router /employees/{id} [get]
func (h *EmployeeHandler) Get(c *fiber.Ctx) error {
	employeeID := c.Params("id")
	if !canSee(c, employeeID) {
		return response.Forbidden(c, "You can only view your own record")
	}

	employee, err := h.directory.GetEmployee(c.UserContext(), employeeID)
	if err != nil {
		return handleError(c, h.log, err)
	}
	return response.Success(c, "Employee retrieved", dto.FromEmployee(*employee))
}

// Search searches employees by name or ID
// @Summary Search employees
// @Tags Employees
// @Produce json
// @Security BearerAuth
// @Param q query string true "Name or ID fragment"
// @Param limit query int false "Max results" default(20)
// @Success 200 {object} response.Response{data=[]dto.EmployeeResponse}
// @Failure 400 {object} response.Response
// @Failure 501 {object} response.Response
// @Router /employees [get]
func (h *EmployeeHandler) Search(c *fiber.Ctx) error {
	if h.searcher == nil {
		return response.Error(c, fiber.StatusNotImplemented, response.CodeBadRequest, "Search is not available with a remote employee directory")
	}

	query := strings.TrimSpace(c.Query("q"))
	if len(query) < 2 {
		return response.BadRequest(c, "Search query must be at least 2 characters")
	}
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if limit < 1 || limit > 50 {
		limit = 20
	}

	employees, err := h.searcher.Search(c.UserContext(), query, limit)
	if err != nil {
		return handleError(c, h.log, err)
	}

	out := make([]dto.EmployeeResponse, 0, len(employees))
	for _, e := range employees {
		out = append(out, dto.FromEmployee(e))
	}
	return response.Success(c, "Employees retrieved", out)
}
