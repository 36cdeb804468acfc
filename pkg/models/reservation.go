// Package models defines the core domain models for stock reservations and approval workflows.
package models

import "time"

// ReservationStatus represents the lifecycle state of a stock reservation.
type ReservationStatus string

const (
	ReservationStatusActive    ReservationStatus = "active"    // Stock is held for the order
	ReservationStatusFulfilled ReservationStatus = "fulfilled" // Stock was shipped against the order
	ReservationStatusReleased  ReservationStatus = "released"  // Caller gave the stock back
	ReservationStatusExpired   ReservationStatus = "expired"   // Backorder window ran out
)

// IsTerminal reports whether no further transition is permitted from the status.
func (s ReservationStatus) IsTerminal() bool {
	return s == ReservationStatusFulfilled ||
		s == ReservationStatusReleased ||
		s == ReservationStatusExpired
}

// ReservationItem is one product/warehouse line held by a reservation.
type ReservationItem struct {
	ProductID   int64  `json:"product_id"   validate:"required,gt=0"`
	WarehouseID string `json:"warehouse_id" validate:"required"`
	Quantity    int64  `json:"quantity"     validate:"required,gt=0"`
}

// StockReservation holds inventory against an order until it is fulfilled,
// released or the backorder window expires.
type StockReservation struct {
	ID        string            `json:"id"`
	OrderID   string            `json:"order_id" validate:"required"`
	Items     []ReservationItem `json:"items"    validate:"required,min=1,dive"`
	Status    ReservationStatus `json:"status"`
	ExpiresAt time.Time         `json:"expires_at"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// IsActive reports whether the reservation still holds stock at the given time.
func (r *StockReservation) IsActive(now time.Time) bool {
	return r.Status == ReservationStatusActive && now.Before(r.ExpiresAt)
}

// IsExpired reports whether the backorder window has passed, regardless of
// whether the sweep has already recorded the expiry.
func (r *StockReservation) IsExpired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// Fulfill marks the reservation as shipped. Only an active, unexpired
// reservation may be fulfilled; terminal states must fail loudly so stock is
// never double-fulfilled.
func (r *StockReservation) Fulfill(now time.Time) error {
	if r.Status != ReservationStatusActive {
		return NewTransitionError(r.Status, ReservationStatusFulfilled, ErrInvalidState)
	}

	if r.IsExpired(now) {
		return NewTransitionError(r.Status, ReservationStatusFulfilled, ErrReservationExpired)
	}

	r.Status = ReservationStatusFulfilled
	r.UpdatedAt = now

	return nil
}

// Release gives the held stock back. Only valid from active.
func (r *StockReservation) Release(now time.Time) error {
	if r.Status != ReservationStatusActive {
		return NewTransitionError(r.Status, ReservationStatusReleased, ErrInvalidState)
	}

	r.Status = ReservationStatusReleased
	r.UpdatedAt = now

	return nil
}

// Expire records that the backorder window ran out. Idempotent: a reservation
// that already left the active state is untouched and no error is returned.
func (r *StockReservation) Expire(now time.Time) bool {
	if r.Status != ReservationStatusActive {
		return false
	}

	r.Status = ReservationStatusExpired
	r.UpdatedAt = now

	return true
}
