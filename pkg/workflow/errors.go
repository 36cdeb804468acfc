// Package workflow provides standardized error types for workflow engine operations.
package workflow

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/leduxro-prog/erp-core/pkg/models"
)

var (
	// ErrConflict indicates the conditional persistence update matched no row:
	// another caller transitioned the instance first.
	ErrConflict = errors.New("workflow instance was modified concurrently")

	// ErrTemplateDocument indicates a template document failed JSON Schema
	// validation before decoding.
	ErrTemplateDocument = errors.New("invalid template document")
)

// IsValidationError checks if an error indicates malformed workflow input.
func IsValidationError(err error) bool {
	var fieldErrors validator.ValidationErrors

	return errors.Is(err, models.ErrDelegationExpiry) ||
		errors.Is(err, models.ErrEntityTypeMismatch) ||
		errors.Is(err, ErrTemplateDocument) ||
		errors.As(err, &fieldErrors)
}

// IsConflict checks if an error indicates a lost race on the instance state.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}
