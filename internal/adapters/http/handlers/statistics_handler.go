package handlers

import (
	"hr-loanengine/internal/core/services"
	"hr-loanengine/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// StatisticsHandler handles the loan book overview
type StatisticsHandler struct {
	statisticsService *services.StatisticsService
	log               *logrus.Logger
}

// NewStatisticsHandler creates a new statistics handler
func NewStatisticsHandler(statisticsService *services.StatisticsService, log *logrus.Logger) *StatisticsHandler {
	return &StatisticsHandler{
		statisticsService: statisticsService,
		log:               log,
	}
}

// GetStatistics returns aggregate figures over all loans
// @Summary Loan statistics
// @Description Status counts, outstanding balance, volume, overdue installments and this month's intake (Officer only)
// @Tags Loans
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=services.LoanStatistics}
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /loans/statistics [get]
func (h *StatisticsHandler) GetStatistics(c *fiber.Ctx) error {
	stats, err := h.statisticsService.GetStatistics(c.UserContext())
	if err != nil {
		return handleError(c, h.log, err)
	}
	return response.Success(c, "Statistics retrieved", stats)
}
