// Package notification informs actors about workflow outcomes. Notifier
// failures are logged and never roll back the state transition that caused
// them.
package notification

import (
	"context"
	"log/slog"
	"time"

	"github.com/leduxro-prog/erp-core/pkg/eventbus"
	"github.com/leduxro-prog/erp-core/pkg/events"
	"github.com/leduxro-prog/erp-core/pkg/models"
)

// Notifier is invoked by the workflow engine and the sweep after a transition
// lands. Implementations must tolerate being called after the fact: the
// transition is already persisted.
type Notifier interface {
	InstanceRejected(ctx context.Context, instance *models.WorkflowInstance, stepID, actorID, reason string)
	InstanceEscalated(ctx context.Context, instance *models.WorkflowInstance, stepID string)
	ReservationExpired(ctx context.Context, reservation *models.StockReservation)
}

// EventBusNotifier publishes lifecycle events onto the shared event bus so
// downstream consumers (mailers, dashboards) can fan out.
type EventBusNotifier struct {
	bus    eventbus.EventBus
	logger *slog.Logger
}

func NewEventBusNotifier(bus eventbus.EventBus, logger *slog.Logger) *EventBusNotifier {
	return &EventBusNotifier{
		bus:    bus,
		logger: logger.With("module", "notification"),
	}
}

func (n *EventBusNotifier) InstanceRejected(ctx context.Context, instance *models.WorkflowInstance, stepID, actorID, reason string) {
	event := events.InstanceRejected{
		BaseEvent:  n.base(events.InstanceRejectedEvent),
		InstanceID: instance.ID,
		StepID:     stepID,
		ActorID:    actorID,
		Reason:     reason,
	}

	n.publish(ctx, instance.ID, event)
}

func (n *EventBusNotifier) InstanceEscalated(ctx context.Context, instance *models.WorkflowInstance, stepID string) {
	event := events.InstanceEscalated{
		BaseEvent:  n.base(events.InstanceEscalatedEvent),
		InstanceID: instance.ID,
		StepID:     stepID,
		EntityType: instance.EntityType,
		EntityID:   instance.EntityID,
	}

	n.publish(ctx, instance.ID, event)
}

func (n *EventBusNotifier) ReservationExpired(ctx context.Context, reservation *models.StockReservation) {
	event := events.ReservationExpired{
		BaseEvent:     n.base(events.ReservationExpiredEvent),
		ReservationID: reservation.ID,
		OrderID:       reservation.OrderID,
		ExpiredAt:     reservation.UpdatedAt,
	}

	n.publish(ctx, reservation.ID, event)
}

func (n *EventBusNotifier) base(eventType events.EventType) events.BaseEvent {
	return events.BaseEvent{
		ID:        n.bus.GenerateID(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
	}
}

func (n *EventBusNotifier) publish(ctx context.Context, key string, event eventbus.Event) {
	err := n.bus.Publish(ctx, key, event)
	if err != nil {
		n.logger.ErrorContext(ctx, "Failed to publish notification event",
			"event_type", event.GetType(), "key", key, "error", err)
	}
}

// NopNotifier discards all notifications. Useful for tools and tests that do
// not care about fan-out.
type NopNotifier struct{}

func (NopNotifier) InstanceRejected(context.Context, *models.WorkflowInstance, string, string, string) {
}

func (NopNotifier) InstanceEscalated(context.Context, *models.WorkflowInstance, string) {}

func (NopNotifier) ReservationExpired(context.Context, *models.StockReservation) {}
