package handlers

import (
	"strings"

	"hr-loanengine/internal/adapters/http/dto"
	"hr-loanengine/internal/core/domain"
	"hr-loanengine/internal/core/services"
	"hr-loanengine/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// IdempotencyHeader names the header that makes a repayment safe to retry
const IdempotencyHeader = "Idempotency-Key"

const maxIdempotencyKey = 128

// RepaymentHandler handles repayment endpoints
type RepaymentHandler struct {
	repaymentService *services.RepaymentService
	log              *logrus.Logger
}

// NewRepaymentHandler creates a new repayment handler
func NewRepaymentHandler(repaymentService *services.RepaymentService, log *logrus.Logger) *RepaymentHandler {
	return &RepaymentHandler{
		repaymentService: repaymentService,
		log:              log,
	}
}

// Pay posts a repayment against an installment
// @Summary Pay installment
// @Description Post a full or partial repayment. Partial payments accumulate until the installment is settled.
// @Description Resending the same Idempotency-Key returns the original result without charging again.
// @Tags Repayments
// @Produce json
// @Security BearerAuth
// @Param scheduleId path string true "Schedule entry ID"
// @Param amount query number true "Amount paid"
// @Param Idempotency-Key header string false "Client generated key for safe retries"
// @Success 200 {object} response.Response{data=dto.RepaymentResponse}
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /repayments/{scheduleId}/pay [post]
func (h *RepaymentHandler) Pay(c *fiber.Ctx) error {
	amount, err := amountQuery(c, "amount")
	if err != nil {
		return handleError(c, h.log, err)
	}
	key := strings.TrimSpace(c.Get(IdempotencyHeader))
	if len(key) > maxIdempotencyKey {
		return handleError(c, h.log, &domain.ValidationError{Field: IdempotencyHeader, Reason: "must be at most 128 characters"})
	}

	result, err := h.repaymentService.Pay(c.UserContext(), c.Params("scheduleId"), amount, key, actorFrom(c))
	if err != nil {
		return handleError(c, h.log, err)
	}

	message := "Repayment posted"
	if result.Replayed {
		message = "Repayment already posted"
	}
	return response.Success(c, message, dto.RepaymentResponse{
		RepaymentID: result.Repayment.ID,
		Amount:      result.Repayment.Amount,
		Replayed:    result.Replayed,
		Entry:       dto.FromEntry(result.Entry),
		Loan:        dto.FromLoan(result.Loan),
	})
}
