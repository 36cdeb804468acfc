// Package reservation implements the stock reservation state machine: stock is
// held against an order until it is fulfilled, released or the backorder
// window expires.
package reservation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/leduxro-prog/erp-core/pkg/clock"
	"github.com/leduxro-prog/erp-core/pkg/eventbus"
	"github.com/leduxro-prog/erp-core/pkg/events"
	"github.com/leduxro-prog/erp-core/pkg/inventory"
	"github.com/leduxro-prog/erp-core/pkg/models"
	"github.com/leduxro-prog/erp-core/pkg/notification"
	"github.com/leduxro-prog/erp-core/pkg/persistence"
)

// DefaultBackorderWindow is how long a reservation holds stock when the
// caller does not pick an explicit expiry.
const DefaultBackorderWindow = 10 * 24 * time.Hour

// Config enumerates the collaborators the manager needs. All fields except
// BackorderWindow are required; there is no ambient fallback.
type Config struct {
	Persistence     persistence.Persistence
	Inventory       inventory.AvailabilityChecker
	Clock           clock.Clock
	EventBus        eventbus.EventBus
	Notifier        notification.Notifier
	Logger          *slog.Logger
	BackorderWindow time.Duration
}

// Manager owns reservation lifecycle transitions. Every state change is a
// conditional update against the persisted status, so racing callers cannot
// both land a terminal transition.
type Manager struct {
	reservations persistence.ReservationRepository
	inventory    inventory.AvailabilityChecker
	clock        clock.Clock
	eventBus     eventbus.EventBus
	notifier     notification.Notifier
	logger       *slog.Logger
	validator    *validator.Validate
	window       time.Duration
}

func NewManager(cfg Config) *Manager {
	window := cfg.BackorderWindow
	if window <= 0 {
		window = DefaultBackorderWindow
	}

	notifier := cfg.Notifier
	if notifier == nil {
		notifier = notification.NopNotifier{}
	}

	return &Manager{
		reservations: cfg.Persistence.ReservationRepository(),
		inventory:    cfg.Inventory,
		clock:        cfg.Clock,
		eventBus:     cfg.EventBus,
		notifier:     notifier,
		logger:       cfg.Logger.With("module", "reservation"),
		validator:    validator.New(validator.WithRequiredStructEnabled()),
		window:       window,
	}
}

// Create validates the items, checks availability and persists a new active
// reservation. A nil expiresAt means now + the configured backorder window.
func (m *Manager) Create(ctx context.Context, orderID string, items []models.ReservationItem, expiresAt *time.Time) (*models.StockReservation, error) {
	now := m.clock.Now()

	if len(items) == 0 {
		return nil, ErrEmptyItems
	}

	expiry := now.Add(m.window)
	if expiresAt != nil {
		expiry = *expiresAt
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate reservation ID: %w", err)
	}

	res := &models.StockReservation{
		ID:        id.String(),
		OrderID:   orderID,
		Items:     items,
		Status:    models.ReservationStatusActive,
		ExpiresAt: expiry,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := m.validator.Struct(res); err != nil {
		return nil, fmt.Errorf("invalid reservation: %w", err)
	}

	short, err := inventory.CheckItems(ctx, m.inventory, items)
	if err != nil {
		return nil, fmt.Errorf("availability check failed: %w", err)
	}

	if short != nil {
		return nil, &InsufficientStockError{Item: *short}
	}

	if err := m.reservations.Save(ctx, res); err != nil {
		return nil, err
	}

	m.publish(ctx, res.ID, events.ReservationCreated{
		BaseEvent:     m.baseEvent(events.ReservationCreatedEvent),
		ReservationID: res.ID,
		OrderID:       res.OrderID,
		Items:         res.Items,
		ExpiresAt:     res.ExpiresAt,
	})

	return res, nil
}

// Get loads a reservation by ID.
func (m *Manager) Get(ctx context.Context, id string) (*models.StockReservation, error) {
	return m.reservations.GetByID(ctx, id)
}

// Fulfill marks an active, unexpired reservation as shipped.
func (m *Manager) Fulfill(ctx context.Context, id string) (*models.StockReservation, error) {
	res, err := m.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := res.Fulfill(m.clock.Now()); err != nil {
		return nil, err
	}

	if err := m.transition(ctx, res, models.ReservationStatusActive); err != nil {
		return nil, err
	}

	m.publish(ctx, res.ID, events.ReservationFulfilled{
		BaseEvent:     m.baseEvent(events.ReservationFulfilledEvent),
		ReservationID: res.ID,
		OrderID:       res.OrderID,
	})

	return res, nil
}

// Release gives the held stock back, for cancellations and abandoned
// backorders.
func (m *Manager) Release(ctx context.Context, id string) (*models.StockReservation, error) {
	res, err := m.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := res.Release(m.clock.Now()); err != nil {
		return nil, err
	}

	if err := m.transition(ctx, res, models.ReservationStatusActive); err != nil {
		return nil, err
	}

	m.publish(ctx, res.ID, events.ReservationReleased{
		BaseEvent:     m.baseEvent(events.ReservationReleasedEvent),
		ReservationID: res.ID,
		OrderID:       res.OrderID,
	})

	return res, nil
}

// Expire records a run-out backorder window. Idempotent: a reservation that
// already left the active state, or that another sweep worker expired first,
// reports applied=false with no error. Only the sweep calls this.
func (m *Manager) Expire(ctx context.Context, res *models.StockReservation) (bool, error) {
	now := m.clock.Now()

	if !res.Expire(now) {
		return false, nil
	}

	applied, err := m.reservations.UpdateStatus(ctx, res.ID, models.ReservationStatusActive, models.ReservationStatusExpired, now)
	if err != nil {
		return false, err
	}

	if !applied {
		// Another worker got there first. The terminal state is already
		// recorded, so this is a no-op, not an error.
		return false, nil
	}

	m.notifier.ReservationExpired(ctx, res)

	return true, nil
}

// ListExpired returns active reservations whose window has passed, for the sweep.
func (m *Manager) ListExpired(ctx context.Context, limit int) ([]*models.StockReservation, error) {
	return m.reservations.ListExpired(ctx, m.clock.Now(), limit)
}

// transition persists an already-applied entity transition, conditional on
// the previously observed status.
func (m *Manager) transition(ctx context.Context, res *models.StockReservation, expected models.ReservationStatus) error {
	applied, err := m.reservations.UpdateStatus(ctx, res.ID, expected, res.Status, res.UpdatedAt)
	if err != nil {
		return err
	}

	if !applied {
		return fmt.Errorf("reservation %s: %w", res.ID, ErrConflict)
	}

	return nil
}

func (m *Manager) baseEvent(eventType events.EventType) events.BaseEvent {
	return events.BaseEvent{
		ID:        m.eventBus.GenerateID(),
		Type:      eventType,
		Timestamp: m.clock.Now(),
	}
}

func (m *Manager) publish(ctx context.Context, key string, event eventbus.Event) {
	err := m.eventBus.Publish(ctx, key, event)
	if err != nil {
		m.logger.ErrorContext(ctx, "Failed to publish reservation event",
			"event_type", event.GetType(), "reservation_id", key, "error", err)
	}
}
