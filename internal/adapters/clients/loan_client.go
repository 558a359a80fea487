package clients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"hr-loanengine/internal/adapters/http/dto"
	"hr-loanengine/internal/core/domain"
	"hr-loanengine/internal/core/services"
	"hr-loanengine/internal/pkg/pagination"
	"hr-loanengine/internal/pkg/response"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

// ErrUnauthorized is returned when the API refuses the bearer token
var ErrUnauthorized = errors.New("unauthorized")

// APIError is a 4xx answer of the loan API. errors.Is matches the domain
// sentinel for its error code, so callers handle it like a local error.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	kind       error
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("loan api: status %d", e.StatusCode)
	}
	return e.Message
}

func (e *APIError) Is(target error) bool { return e.kind != nil && target == e.kind }

var codeKinds = map[string]error{
	response.CodeInvalidAmount: domain.ErrInvalidAmount,
	response.CodeInvalidTerm:   domain.ErrInvalidTerm,
	response.CodeBadRequest:    domain.ErrInvalidInput,
	response.CodeTransition:    domain.ErrInvalidTransition,
	response.CodeAlreadyPaid:   domain.ErrAlreadyPaid,
	response.CodeIneligible:    domain.ErrIneligible,
	response.CodeNotFound:      domain.ErrNotFound,
	response.CodeConflict:      domain.ErrConcurrentUpdate,
	response.CodeUnauthorized:  ErrUnauthorized,
	response.CodeForbidden:     ErrUnauthorized,
}

var statusKinds = map[int]error{
	http.StatusBadRequest:          domain.ErrInvalidInput,
	http.StatusUnauthorized:        ErrUnauthorized,
	http.StatusForbidden:           ErrUnauthorized,
	http.StatusNotFound:            domain.ErrNotFound,
	http.StatusConflict:            domain.ErrConcurrentUpdate,
	http.StatusUnprocessableEntity: domain.ErrIneligible,
}

type envelope struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Data    json.RawMessage  `json:"data"`
	Meta    *pagination.Meta `json:"meta"`
	Error   string           `json:"error"`
}

// LoanClient calls the loan REST API. It never retries: a *domain.TransportError
// means the outcome is unknown and the caller should re-query.
type LoanClient struct {
	http *resty.Client
}

// NewLoanClient creates a client for the API rooted at baseURL (e.g. http://localhost:8080/api/v1)
func NewLoanClient(baseURL, token string, timeout time.Duration) *LoanClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	if token != "" {
		client.SetAuthToken(token)
	}
	return &LoanClient{http: client}
}

func (c *LoanClient) do(req *resty.Request, op, method, path string, out interface{}) (*envelope, error) {
	var env envelope
	resp, err := req.SetResult(&env).SetError(&env).Execute(method, path)
	if err != nil {
		return nil, &domain.TransportError{Op: op, Err: err}
	}

	status := resp.StatusCode()
	if status >= http.StatusInternalServerError {
		var cause error
		if env.Message != "" {
			cause = errors.New(env.Message)
		}
		return nil, &domain.TransportError{Op: op, StatusCode: status, Err: cause}
	}
	if resp.IsError() {
		kind, ok := codeKinds[env.Error]
		if !ok {
			kind = statusKinds[status]
		}
		return nil, &APIError{StatusCode: status, Code: env.Error, Message: env.Message, kind: kind}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return nil, fmt.Errorf("%s: decode response: %w", op, err)
		}
	}
	return &env, nil
}

func (c *LoanClient) request(ctx context.Context) *resty.Request {
	return c.http.R().SetContext(ctx)
}

// Preview recomputes a draft without creating a loan
func (c *LoanClient) Preview(ctx context.Context, in services.LoanInput) (*domain.LoanDraft, error) {
	var out domain.LoanDraft
	if _, err := c.do(c.request(ctx).SetBody(in), "preview loan", http.MethodPost, "/loans/preview", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Create submits a loan application
func (c *LoanClient) Create(ctx context.Context, in services.LoanInput) (*dto.LoanResponse, error) {
	var out dto.LoanResponse
	if _, err := c.do(c.request(ctx).SetBody(in), "create loan", http.MethodPost, "/loans", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Get fetches a loan with its schedule
func (c *LoanClient) Get(ctx context.Context, id string) (*dto.LoanDetailResponse, error) {
	var out dto.LoanDetailResponse
	req := c.request(ctx).SetPathParam("id", id)
	if _, err := c.do(req, "get loan", http.MethodGet, "/loans/{id}", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// List fetches one page of loans; empty filters match everything
func (c *LoanClient) List(ctx context.Context, status domain.LoanStatus, employeeID string, page, limit int) ([]dto.LoanResponse, *pagination.Meta, error) {
	req := c.request(ctx).SetQueryParams(map[string]string{
		"page":  strconv.Itoa(page),
		"limit": strconv.Itoa(limit),
	})
	if status != "" {
		req.SetQueryParam("status", string(status))
	}
	if employeeID != "" {
		req.SetQueryParam("employee_id", employeeID)
	}

	var out []dto.LoanResponse
	env, err := c.do(req, "list loans", http.MethodGet, "/loans", &out)
	if err != nil {
		return nil, nil, err
	}
	return out, env.Meta, nil
}

// Update replaces the terms of a PENDING loan
func (c *LoanClient) Update(ctx context.Context, id string, in services.LoanInput) (*dto.LoanResponse, error) {
	return c.loanCall("update loan", http.MethodPut, "/loans/{id}", c.request(ctx).SetPathParam("id", id).SetBody(in))
}

// Approve activates a PENDING loan
func (c *LoanClient) Approve(ctx context.Context, id string) (*dto.LoanResponse, error) {
	return c.loanCall("approve loan", http.MethodPost, "/loans/{id}/approve", c.request(ctx).SetPathParam("id", id))
}

// Reject closes a PENDING loan with a reason
func (c *LoanClient) Reject(ctx context.Context, id, reason string) (*dto.LoanResponse, error) {
	req := c.request(ctx).SetPathParam("id", id).SetQueryParam("reason", reason)
	return c.loanCall("reject loan", http.MethodPost, "/loans/{id}/reject", req)
}

// Cancel cancels a non-terminal loan
func (c *LoanClient) Cancel(ctx context.Context, id string) (*dto.LoanResponse, error) {
	return c.loanCall("cancel loan", http.MethodDelete, "/loans/{id}", c.request(ctx).SetPathParam("id", id))
}

func (c *LoanClient) loanCall(op, method, path string, req *resty.Request) (*dto.LoanResponse, error) {
	var out dto.LoanResponse
	if _, err := c.do(req, op, method, path, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Schedule fetches the schedule of a loan
func (c *LoanClient) Schedule(ctx context.Context, id string) ([]dto.ScheduleEntryResponse, error) {
	var out []dto.ScheduleEntryResponse
	req := c.request(ctx).SetPathParam("id", id)
	if _, err := c.do(req, "get schedule", http.MethodGet, "/loans/{id}/schedule", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// History fetches the audit trail of a loan
func (c *LoanClient) History(ctx context.Context, id string) ([]dto.HistoryResponse, error) {
	var out []dto.HistoryResponse
	req := c.request(ctx).SetPathParam("id", id)
	if _, err := c.do(req, "get history", http.MethodGet, "/loans/{id}/history", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// OutstandingBalance fetches the open balance of an employee
func (c *LoanClient) OutstandingBalance(ctx context.Context, employeeID string) (decimal.Decimal, error) {
	var out dto.OutstandingBalanceResponse
	req := c.request(ctx).SetPathParam("id", employeeID)
	if _, err := c.do(req, "get outstanding balance", http.MethodGet, "/loans/employee/{id}/outstanding-balance", &out); err != nil {
		return decimal.Zero, err
	}
	return out.OutstandingBalance, nil
}

// Portfolio fetches the loan portfolio of an employee
func (c *LoanClient) Portfolio(ctx context.Context, employeeID string) (*domain.EmployeeLoanPortfolio, error) {
	var out domain.EmployeeLoanPortfolio
	req := c.request(ctx).SetPathParam("id", employeeID)
	if _, err := c.do(req, "get portfolio", http.MethodGet, "/loans/employee/{id}/portfolio", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Eligibility asks whether the employee may request amount
func (c *LoanClient) Eligibility(ctx context.Context, employeeID string, amount decimal.Decimal) (*dto.EligibilityResponse, error) {
	var out dto.EligibilityResponse
	req := c.request(ctx).SetPathParam("id", employeeID).SetQueryParam("amount", amount.String())
	if _, err := c.do(req, "check eligibility", http.MethodGet, "/loans/employee/{id}/eligibility", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Pay posts a repayment. A non-empty idempotencyKey makes a retry safe.
func (c *LoanClient) Pay(ctx context.Context, scheduleID string, amount decimal.Decimal, idempotencyKey string) (*dto.RepaymentResponse, error) {
	req := c.request(ctx).
		SetPathParam("id", scheduleID).
		SetQueryParam("amount", amount.String())
	if idempotencyKey != "" {
		req.SetHeader("Idempotency-Key", idempotencyKey)
	}

	var out dto.RepaymentResponse
	if _, err := c.do(req, "post repayment", http.MethodPost, "/repayments/{id}/pay", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Statistics fetches the aggregate figures over all loans
func (c *LoanClient) Statistics(ctx context.Context) (*services.LoanStatistics, error) {
	var out services.LoanStatistics
	if _, err := c.do(c.request(ctx), "get statistics", http.MethodGet, "/loans/statistics", &out); err != nil {
		return nil, err
	}
	return &out, nil
}
