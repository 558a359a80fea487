package clients

import (
	"context"
	"net/http"
	"time"

	"hr-loanengine/internal/adapters/http/dto"
	"hr-loanengine/internal/core/domain"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

// EmployeeClient reads borrowers from the HR employee directory service
type EmployeeClient struct {
	http *resty.Client
	log  *logrus.Logger
}

// NewEmployeeClient creates a directory client; an empty token sends no Authorization header
func NewEmployeeClient(baseURL, token string, timeout time.Duration, log *logrus.Logger) *EmployeeClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	if token != "" {
		client.SetAuthToken(token)
	}
	return &EmployeeClient{http: client, log: log}
}

// GetEmployee fetches one employee; network failures and 5xx become *domain.TransportError
func (c *EmployeeClient) GetEmployee(ctx context.Context, id string) (*domain.Employee, error) {
	var out dto.EmployeeResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", id).
		SetResult(&out).
		Get("/employees/{id}")
	if err != nil {
		c.log.WithError(err).WithField("employee_id", id).Warn("employee directory unreachable")
		return nil, &domain.TransportError{Op: "get employee " + id, Err: err}
	}

	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return nil, &domain.NotFoundError{Resource: "employee", ID: id}
	case resp.IsError():
		c.log.WithFields(logrus.Fields{
			"employee_id": id,
			"status":      resp.StatusCode(),
		}).Warn("employee directory returned an error")
		return nil, &domain.TransportError{Op: "get employee " + id, StatusCode: resp.StatusCode()}
	}

	emp := out.ToEmployee()
	if emp.ID == "" {
		emp.ID = id
	}
	return &emp, nil
}
