package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"hr-loanengine/internal/core/domain"
	"hr-loanengine/internal/core/services"
	pkgjwt "hr-loanengine/internal/pkg/jwt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

var validate = newValidator()

// newValidator reports fields by their JSON names
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// getClientIP gets client IP address
func getClientIP(c *fiber.Ctx) string {
	ip := c.Get("X-Real-IP")
	if ip == "" {
		ip = c.Get("X-Forwarded-For")
	}
	if ip == "" {
		ip = c.IP()
	}
	return ip
}

// actorFrom builds the acting user from the claims stored by AuthMiddleware
func actorFrom(c *fiber.Ctx) services.Actor {
	userID, _ := c.Locals("userID").(string)
	username, _ := c.Locals("username").(string)
	role, _ := c.Locals("role").(string)
	return services.Actor{
		UserID:    userID,
		Username:  username,
		Role:      role,
		IPAddress: getClientIP(c),
	}
}

// isStaff reports whether the caller may act on any employee's loans
func isStaff(c *fiber.Ctx) bool {
	role, _ := c.Locals("role").(string)
	return role == pkgjwt.RoleOfficer || role == pkgjwt.RoleAdmin
}

// ownEmployeeID returns the employee the caller's token was issued for
func ownEmployeeID(c *fiber.Ctx) string {
	id, _ := c.Locals("employeeID").(string)
	return id
}

// canSee reports whether the caller may read data of employeeID
func canSee(c *fiber.Ctx, employeeID string) bool {
	return isStaff(c) || (employeeID != "" && employeeID == ownEmployeeID(c))
}

// parseBody decodes the JSON body into out and runs its validate tags
func parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return &domain.ValidationError{Field: "body", Reason: "must be a valid JSON object"}
	}
	return validateStruct(out)
}

func validateStruct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &domain.ValidationError{Field: "body", Reason: err.Error()}
	}
	fe := fieldErrs[0]
	return &domain.ValidationError{Field: fe.Field(), Reason: describe(fe)}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "datetime":
		return "must be formatted as YYYY-MM-DD"
	default:
		return "is invalid"
	}
}

// amountQuery parses a required positive decimal query parameter
func amountQuery(c *fiber.Ctx, key string) (decimal.Decimal, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return decimal.Zero, &domain.InvalidAmountError{Field: key, Reason: "is required"}
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, &domain.InvalidAmountError{Field: key, Reason: "must be a decimal number"}
	}
	if !amount.IsPositive() {
		return decimal.Zero, &domain.InvalidAmountError{Field: key, Reason: "must be greater than 0"}
	}
	if err := domain.CheckScale(key, amount); err != nil {
		return decimal.Zero, err
	}
	return amount, nil
}
