// Package reservation provides standardized error types for reservation operations.
package reservation

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/leduxro-prog/erp-core/pkg/models"
)

var (
	// ErrEmptyItems indicates a reservation was requested with no line items.
	ErrEmptyItems = errors.New("reservation requires at least one item")

	// ErrInsufficientStock indicates the inventory collaborator reported less
	// available stock than requested.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrConflict indicates the conditional persistence update matched no row:
	// another caller transitioned the reservation first.
	ErrConflict = errors.New("reservation was modified concurrently")
)

// InsufficientStockError carries the first line that could not be covered.
type InsufficientStockError struct {
	Item models.ReservationItem
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d in warehouse %s (requested %d)",
		e.Item.ProductID, e.Item.WarehouseID, e.Item.Quantity)
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

// IsValidationError checks if an error indicates malformed reservation input.
func IsValidationError(err error) bool {
	var fieldErrors validator.ValidationErrors

	return errors.Is(err, ErrEmptyItems) || errors.As(err, &fieldErrors)
}

// IsInsufficientStock checks if an error indicates an availability shortfall.
func IsInsufficientStock(err error) bool {
	return errors.Is(err, ErrInsufficientStock)
}

// IsConflict checks if an error indicates a lost race on the status field.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}
