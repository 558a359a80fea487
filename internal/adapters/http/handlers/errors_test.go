package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"hr-loanengine/internal/core/domain"
	"hr-loanengine/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"invalid amount", &domain.InvalidAmountError{Field: "principal", Reason: "must be at least 100"}, http.StatusBadRequest, response.CodeInvalidAmount},
		{"invalid term", &domain.InvalidTermError{Reason: "too many installments"}, http.StatusBadRequest, response.CodeInvalidTerm},
		{"validation", &domain.ValidationError{Field: "status", Reason: "unknown"}, http.StatusBadRequest, response.CodeBadRequest},
		{"ineligible", &domain.EligibilityError{Reason: domain.ReasonPendingApplication}, http.StatusUnprocessableEntity, response.CodeIneligible},
		{"transition", &domain.InvalidTransitionError{From: domain.LoanStatusActive, Event: domain.EventApprove}, http.StatusConflict, response.CodeTransition},
		{"already paid", &domain.AlreadyPaidError{InstallmentNumber: 3}, http.StatusConflict, response.CodeAlreadyPaid},
		{"not found", fmt.Errorf("get loan: %w", &domain.NotFoundError{Resource: "loan", ID: "x"}), http.StatusNotFound, response.CodeNotFound},
		{"concurrent update", domain.ErrConcurrentUpdate, http.StatusConflict, response.CodeConflict},
		{"transport", &domain.TransportError{Op: "get employee", StatusCode: 503}, http.StatusBadGateway, response.CodeUpstream},
		{"unexpected", errors.New("disk full"), http.StatusInternalServerError, response.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, hook := logtest.NewNullLogger()
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error { return handleError(c, log, tt.err) })

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
			require.NoError(t, err)
			defer resp.Body.Close()

			var body response.Response
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.code, body.Error)
			assert.False(t, body.Success)
			assert.NotEmpty(t, body.Message)

			if tt.status == http.StatusInternalServerError {
				require.NotNil(t, hook.LastEntry())
				assert.Equal(t, "Request failed", hook.LastEntry().Message)
				assert.NotContains(t, body.Message, "disk full")
			}
		})
	}
}

func TestValidateStruct_ReportsJSONFieldNames(t *testing.T) {
	type input struct {
		StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
		Frequency string `json:"installment_frequency" validate:"oneof=MONTHLY WEEKLY"`
	}

	err := validateStruct(input{StartDate: "2030-01-01", Frequency: "DAILY"})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "installment_frequency", verr.Field)
	assert.Equal(t, "must be one of MONTHLY, WEEKLY", verr.Reason)

	err = validateStruct(input{Frequency: "WEEKLY"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "start_date", verr.Field)
	assert.Equal(t, "is required", verr.Reason)
}
