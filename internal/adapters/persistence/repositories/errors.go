package repositories

import (
	"errors"
	"fmt"

	"hr-loanengine/internal/core/domain"

	"gorm.io/gorm"
)

// translate maps gorm.ErrRecordNotFound to a domain NotFoundError and wraps the rest
func translate(err error, resource, id string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &domain.NotFoundError{Resource: resource, ID: id}
	}
	return fmt.Errorf("%s %s: %w", resource, id, err)
}
