// Package models defines standardized error types for state machine violations.
package models

import (
	"errors"
	"fmt"
)

// State machine error types shared by reservations and workflow instances.
var (
	// ErrInvalidState indicates a transition was attempted from a state that
	// does not permit it.
	ErrInvalidState = errors.New("invalid state for transition")

	// ErrReservationExpired indicates the backorder window has passed and the
	// attempted transition is no longer legal.
	ErrReservationExpired = errors.New("reservation expired")

	// ErrTemplateInactive indicates an instance was requested from a template
	// that no longer accepts new instances.
	ErrTemplateInactive = errors.New("workflow template inactive")

	// ErrEntityTypeMismatch indicates an instance was requested for an entity
	// type the template does not govern.
	ErrEntityTypeMismatch = errors.New("template entity type mismatch")

	// ErrStepMismatch indicates a decision was recorded against a step that is
	// not the instance's current step.
	ErrStepMismatch = errors.New("step is not the current step")

	// ErrTerminalInstance indicates the workflow instance already reached a
	// terminal status and cannot transition further.
	ErrTerminalInstance = errors.New("workflow instance is terminal")

	// ErrDelegationExpiry indicates a delegation was created with an expiry
	// that is not in the future.
	ErrDelegationExpiry = errors.New("delegation expiry must be in the future")

	// ErrStepNotFound indicates a step ID does not exist in the instance.
	ErrStepNotFound = errors.New("step not found")
)

// TransitionError wraps a state machine violation with the attempted transition.
type TransitionError struct {
	From string // State the entity was in
	To   string // State the caller tried to reach
	Err  error  // Underlying sentinel error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot transition from %s to %s: %v", e.From, e.To, e.Err)
}

func (e *TransitionError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for transition errors.
func (e *TransitionError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewTransitionError creates a transition error for reservation statuses.
func NewTransitionError[T ~string](from, to T, err error) *TransitionError {
	return &TransitionError{
		From: string(from),
		To:   string(to),
		Err:  err,
	}
}

// IsInvalidState checks if an error indicates an illegal transition.
func IsInvalidState(err error) bool {
	return errors.Is(err, ErrInvalidState)
}

// IsReservationExpired checks if an error indicates a time-based illegal transition.
func IsReservationExpired(err error) bool {
	return errors.Is(err, ErrReservationExpired)
}

// IsTerminalInstance checks if an error indicates a terminal workflow instance.
func IsTerminalInstance(err error) bool {
	return errors.Is(err, ErrTerminalInstance)
}

// IsStepMismatch checks if an error indicates a decision against the wrong step.
func IsStepMismatch(err error) bool {
	return errors.Is(err, ErrStepMismatch)
}
