// Package persistence provides standardized error types for persistence operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrReservationNotFound indicates a reservation was not found by the given identifier.
	ErrReservationNotFound = errors.New("reservation not found")

	// ErrTemplateNotFound indicates a workflow template was not found by the given identifier.
	ErrTemplateNotFound = errors.New("workflow template not found")

	// ErrInstanceNotFound indicates a workflow instance was not found by the given identifier.
	ErrInstanceNotFound = errors.New("workflow instance not found")

	// ErrDelegationNotFound indicates no delegation matched the given lookup.
	ErrDelegationNotFound = errors.New("delegation not found")

	// ErrTemplatePublished indicates an attempt to edit a published template
	// version in place instead of creating a new version.
	ErrTemplatePublished = errors.New("published template versions are immutable")
)

// StoreError wraps storage errors with the operation and entity context.
type StoreError struct {
	Op       string // Operation being performed (e.g., "GetByID", "Save", "UpdateStatus")
	Entity   string // Entity kind (reservation, template, instance, delegation)
	EntityID string // Entity ID if applicable
	Err      error  // Underlying error
}

func (e *StoreError) Error() string {
	if e.EntityID != "" {
		return fmt.Sprintf("%s failed for %s %s: %v", e.Op, e.Entity, e.EntityID, e.Err)
	}

	return fmt.Sprintf("%s failed for %s: %v", e.Op, e.Entity, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for store errors.
func (e *StoreError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewStoreError creates a store error with context.
func NewStoreError(op, entity, entityID string, err error) *StoreError {
	return &StoreError{
		Op:       op,
		Entity:   entity,
		EntityID: entityID,
		Err:      err,
	}
}

// IsReservationNotFound checks if an error indicates a missing reservation.
func IsReservationNotFound(err error) bool {
	return errors.Is(err, ErrReservationNotFound)
}

// IsTemplateNotFound checks if an error indicates a missing template.
func IsTemplateNotFound(err error) bool {
	return errors.Is(err, ErrTemplateNotFound)
}

// IsInstanceNotFound checks if an error indicates a missing instance.
func IsInstanceNotFound(err error) bool {
	return errors.Is(err, ErrInstanceNotFound)
}

// IsNotFound checks if an error indicates any missing entity.
func IsNotFound(err error) bool {
	return IsReservationNotFound(err) ||
		IsTemplateNotFound(err) ||
		IsInstanceNotFound(err) ||
		errors.Is(err, ErrDelegationNotFound)
}
