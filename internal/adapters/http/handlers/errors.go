package handlers

import (
	"errors"

	"hr-loanengine/internal/core/domain"
	"hr-loanengine/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// handleError maps domain errors to the JSON error envelope.
// The message is the error text, which is written to be shown to the caller.
func handleError(c *fiber.Ctx, log *logrus.Logger, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidAmount):
		return response.Error(c, fiber.StatusBadRequest, response.CodeInvalidAmount, err.Error())
	case errors.Is(err, domain.ErrInvalidTerm):
		return response.Error(c, fiber.StatusBadRequest, response.CodeInvalidTerm, err.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		return response.BadRequest(c, err.Error())
	case errors.Is(err, domain.ErrIneligible):
		return response.UnprocessableEntity(c, err.Error())
	case errors.Is(err, domain.ErrInvalidTransition):
		return response.Error(c, fiber.StatusConflict, response.CodeTransition, err.Error())
	case errors.Is(err, domain.ErrAlreadyPaid):
		return response.Error(c, fiber.StatusConflict, response.CodeAlreadyPaid, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return response.NotFound(c, err.Error())
	case errors.Is(err, domain.ErrConcurrentUpdate):
		return response.Conflict(c, "The loan was changed by another request, reload it and try again")
	case errors.Is(err, domain.ErrTransport):
		log.WithError(err).WithField("path", c.Path()).Warn("Upstream call failed")
		return response.BadGateway(c, "A dependent service did not answer, the outcome is unknown")
	default:
		log.WithError(err).WithFields(logrus.Fields{
			"method": c.Method(),
			"path":   c.Path(),
		}).Error("Request failed")
		return response.InternalServerError(c, "Something went wrong, please try again later")
	}
}
