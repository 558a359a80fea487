package clients

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"hr-loanengine/internal/core/domain"
	"hr-loanengine/internal/core/services"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestEmployeeClient_GetEmployee(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer dir-token", r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/employees/EMP-001":
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"id":             "EMP-001",
				"full_name":      "Anan Srisuk",
				"department":     "Finance",
				"monthly_salary": "50000.00",
				"is_active":      true,
			})
		case "/employees/EMP-500":
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"message": "maintenance"})
		default:
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "no such employee"})
		}
	}))
	defer srv.Close()

	client := NewEmployeeClient(srv.URL, "dir-token", 2*time.Second, quietLogger())
	ctx := context.Background()

	emp, err := client.GetEmployee(ctx, "EMP-001")
	require.NoError(t, err)
	assert.Equal(t, "Anan Srisuk", emp.FullName)
	assert.Equal(t, "50000.00", emp.MonthlySalary.StringFixed(2))
	assert.True(t, emp.IsActive)

	_, err = client.GetEmployee(ctx, "EMP-404")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = client.GetEmployee(ctx, "EMP-500")
	assert.ErrorIs(t, err, domain.ErrTransport)
	var te *domain.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusServiceUnavailable, te.StatusCode)
}

func TestEmployeeClient_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := NewEmployeeClient(url, "", time.Second, quietLogger())
	_, err := client.GetEmployee(context.Background(), "EMP-001")
	assert.ErrorIs(t, err, domain.ErrTransport)
}

func TestLoanClient_Create(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/loans", r.URL.Path)
		assert.Equal(t, "Bearer api-token", r.Header.Get("Authorization"))

		var in services.LoanInput
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "EMP-001", in.EmployeeID)
		assert.Equal(t, "10000", in.Principal.String())

		writeJSON(w, http.StatusCreated, map[string]interface{}{
			"success": true,
			"message": "Loan created",
			"data": map[string]interface{}{
				"id":                 "loan-1",
				"employee_id":        "EMP-001",
				"status":             "PENDING",
				"installment_amount": "888.49",
				"total_repayment":    "10661.88",
			},
		})
	}))
	defer srv.Close()

	client := NewLoanClient(srv.URL+"/api/v1", "api-token", 2*time.Second)
	loan, err := client.Create(context.Background(), services.LoanInput{
		EmployeeID:                "EMP-001",
		Principal:                 decimal.NewFromInt(10000),
		AnnualInterestRatePercent: decimal.NewFromInt(12),
		Frequency:                 "MONTHLY",
		TotalInstallments:         12,
		StartDate:                 "2026-11-01",
	})
	require.NoError(t, err)
	assert.Equal(t, "loan-1", loan.ID)
	assert.Equal(t, domain.LoanStatusPending, loan.Status)
	assert.Equal(t, "888.49", loan.InstallmentAmount.StringFixed(2))
}

func TestLoanClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		code   string
		want   error
	}{
		{"invalid amount", http.StatusBadRequest, "invalid_amount", domain.ErrInvalidAmount},
		{"invalid term", http.StatusBadRequest, "invalid_term", domain.ErrInvalidTerm},
		{"ineligible", http.StatusUnprocessableEntity, "eligibility_failed", domain.ErrIneligible},
		{"transition", http.StatusConflict, "invalid_transition", domain.ErrInvalidTransition},
		{"already paid", http.StatusConflict, "already_paid", domain.ErrAlreadyPaid},
		{"not found", http.StatusNotFound, "not_found", domain.ErrNotFound},
		{"conflict", http.StatusConflict, "conflict", domain.ErrConcurrentUpdate},
		{"unauthorized", http.StatusUnauthorized, "unauthorized", ErrUnauthorized},
		{"unknown code falls back to status", http.StatusNotFound, "", domain.ErrNotFound},
		{"server error", http.StatusInternalServerError, "internal_error", domain.ErrTransport},
		{"bad gateway", http.StatusBadGateway, "upstream_unavailable", domain.ErrTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, map[string]interface{}{
					"success": false,
					"error":   tt.code,
					"message": "specific message",
				})
			}))
			defer srv.Close()

			client := NewLoanClient(srv.URL, "", time.Second)
			_, err := client.Approve(context.Background(), "loan-1")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Contains(t, err.Error(), "specific message")
		})
	}
}

func TestLoanClient_PaySendsIdempotencyKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repayments/entry-3/pay", r.URL.Path)
		assert.Equal(t, "888.49", r.URL.Query().Get("amount"))
		assert.Equal(t, "pay-123", r.Header.Get("Idempotency-Key"))
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data": map[string]interface{}{
				"repayment_id": "rep-1",
				"amount":       "888.49",
				"replayed":     true,
				"entry":        map[string]interface{}{"id": "entry-3", "status": "PAID"},
			},
		})
	}))
	defer srv.Close()

	client := NewLoanClient(srv.URL, "", time.Second)
	out, err := client.Pay(context.Background(), "entry-3", decimal.RequireFromString("888.49"), "pay-123")
	require.NoError(t, err)
	assert.True(t, out.Replayed)
	assert.Equal(t, domain.EntryStatusPaid, out.Entry.Status)
}

func TestLoanClient_ListReturnsMeta(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ACTIVE", r.URL.Query().Get("status"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data":    []map[string]interface{}{{"id": "loan-21", "status": "ACTIVE"}},
			"meta":    map[string]interface{}{"page": 2, "limit": 20, "total": 21, "total_pages": 2},
		})
	}))
	defer srv.Close()

	client := NewLoanClient(srv.URL, "", time.Second)
	loans, meta, err := client.List(context.Background(), domain.LoanStatusActive, "", 2, 20)
	require.NoError(t, err)
	require.Len(t, loans, 1)
	assert.Equal(t, "loan-21", loans[0].ID)
	assert.Equal(t, int64(21), meta.Total)
}
