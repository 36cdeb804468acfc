// Package services provides standardized error types for service layer operations.
package services

import (
	"errors"
	"fmt"

	"github.com/leduxro-prog/erp-core/pkg/models"
	"github.com/leduxro-prog/erp-core/pkg/persistence"
	"github.com/leduxro-prog/erp-core/pkg/reservation"
	"github.com/leduxro-prog/erp-core/pkg/workflow"
)

// Business Logic Errors - These indicate client errors (4xx responses).
var (
	// Validation Errors (400 Bad Request).
	ErrInvalidRequest = errors.New("invalid request")
	ErrEmptyOrderID   = errors.New("order ID cannot be empty")

	// Authorization Errors (403 Forbidden).
	ErrNotAuthorized = errors.New("actor is not the approver or an active delegate for this step")
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsValidationError checks if an error is a validation error that should
// return HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrEmptyOrderID) ||
		reservation.IsValidationError(err) ||
		workflow.IsValidationError(err)
}

// IsStateError checks if an error is a state machine violation that should
// return HTTP 409.
func IsStateError(err error) bool {
	return models.IsInvalidState(err) ||
		models.IsReservationExpired(err) ||
		models.IsTerminalInstance(err) ||
		models.IsStepMismatch(err) ||
		errors.Is(err, models.ErrTemplateInactive) ||
		errors.Is(err, persistence.ErrTemplatePublished) ||
		reservation.IsInsufficientStock(err) ||
		reservation.IsConflict(err) ||
		workflow.IsConflict(err)
}

// IsNotAuthorized checks if an error should return HTTP 403.
func IsNotAuthorized(err error) bool {
	return errors.Is(err, ErrNotAuthorized)
}
