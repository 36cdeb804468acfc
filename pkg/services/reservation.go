package services

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/leduxro-prog/erp-core/pkg/models"
	"github.com/leduxro-prog/erp-core/pkg/reservation"
)

// CreateReservationRequest is the transport-facing shape for reserving stock.
type CreateReservationRequest struct {
	OrderID   string                   `json:"order_id" validate:"required"`
	Items     []models.ReservationItem `json:"items"    validate:"required,min=1,dive"`
	ExpiresAt *time.Time               `json:"expires_at,omitempty"`
}

// Reservation is the service layer in front of the reservation manager.
type Reservation struct {
	manager   *reservation.Manager
	validator *validator.Validate
}

func NewReservation(manager *reservation.Manager) *Reservation {
	return &Reservation{
		manager:   manager,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (s *Reservation) Create(ctx context.Context, req CreateReservationRequest) (*models.StockReservation, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	return s.manager.Create(ctx, req.OrderID, req.Items, req.ExpiresAt)
}

func (s *Reservation) Get(ctx context.Context, id string) (*models.StockReservation, error) {
	return s.manager.Get(ctx, id)
}

func (s *Reservation) Fulfill(ctx context.Context, id string) (*models.StockReservation, error) {
	return s.manager.Fulfill(ctx, id)
}

func (s *Reservation) Release(ctx context.Context, id string) (*models.StockReservation, error) {
	return s.manager.Release(ctx, id)
}
