// Package events defines event types and structures for reservation and
// workflow lifecycle notifications.
package events

import (
	"time"

	"github.com/leduxro-prog/erp-core/pkg/models"
)

type EventType string

// Kafka topic carrying all lifecycle events.
const Topic = "erpcore.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Reservation lifecycle events.
	ReservationCreatedEvent   EventType = "reservation.created"
	ReservationFulfilledEvent EventType = "reservation.fulfilled"
	ReservationReleasedEvent  EventType = "reservation.released"
	ReservationExpiredEvent   EventType = "reservation.expired"

	// Workflow lifecycle events.
	InstanceStartedEvent   EventType = "workflow.instance.started"
	InstanceAdvancedEvent  EventType = "workflow.instance.advanced"
	InstanceApprovedEvent  EventType = "workflow.instance.approved"
	InstanceRejectedEvent  EventType = "workflow.instance.rejected"
	InstanceEscalatedEvent EventType = "workflow.instance.escalated"
	InstanceCancelledEvent EventType = "workflow.instance.cancelled"
	DelegationCreatedEvent EventType = "workflow.delegation.created"
)

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

type ReservationCreated struct {
	BaseEvent

	ReservationID string                   `json:"reservation_id"`
	OrderID       string                   `json:"order_id"`
	Items         []models.ReservationItem `json:"items"`
	ExpiresAt     time.Time                `json:"expires_at"`
}

func (e ReservationCreated) GetType() EventType {
	return ReservationCreatedEvent
}

type ReservationFulfilled struct {
	BaseEvent

	ReservationID string `json:"reservation_id"`
	OrderID       string `json:"order_id"`
}

func (e ReservationFulfilled) GetType() EventType {
	return ReservationFulfilledEvent
}

type ReservationReleased struct {
	BaseEvent

	ReservationID string `json:"reservation_id"`
	OrderID       string `json:"order_id"`
}

func (e ReservationReleased) GetType() EventType {
	return ReservationReleasedEvent
}

type ReservationExpired struct {
	BaseEvent

	ReservationID string    `json:"reservation_id"`
	OrderID       string    `json:"order_id"`
	ExpiredAt     time.Time `json:"expired_at"`
}

func (e ReservationExpired) GetType() EventType {
	return ReservationExpiredEvent
}

type InstanceStarted struct {
	BaseEvent

	InstanceID string `json:"instance_id"`
	TemplateID string `json:"template_id"`
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
}

func (e InstanceStarted) GetType() EventType {
	return InstanceStartedEvent
}

type InstanceAdvanced struct {
	BaseEvent

	InstanceID    string `json:"instance_id"`
	DecidedStepID string `json:"decided_step_id"`
	CurrentStepID string `json:"current_step_id"`
	ActorID       string `json:"actor_id"`
}

func (e InstanceAdvanced) GetType() EventType {
	return InstanceAdvancedEvent
}

type InstanceApproved struct {
	BaseEvent

	InstanceID string        `json:"instance_id"`
	EntityType string        `json:"entity_type"`
	EntityID   string        `json:"entity_id"`
	Duration   time.Duration `json:"duration"`
}

func (e InstanceApproved) GetType() EventType {
	return InstanceApprovedEvent
}

type InstanceRejected struct {
	BaseEvent

	InstanceID string `json:"instance_id"`
	StepID     string `json:"step_id"`
	ActorID    string `json:"actor_id"`
	Reason     string `json:"reason,omitempty"`
}

func (e InstanceRejected) GetType() EventType {
	return InstanceRejectedEvent
}

type InstanceEscalated struct {
	BaseEvent

	InstanceID string `json:"instance_id"`
	StepID     string `json:"step_id"`
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
}

func (e InstanceEscalated) GetType() EventType {
	return InstanceEscalatedEvent
}

type InstanceCancelled struct {
	BaseEvent

	InstanceID string `json:"instance_id"`
	ActorID    string `json:"actor_id"`
}

func (e InstanceCancelled) GetType() EventType {
	return InstanceCancelledEvent
}

type DelegationCreated struct {
	BaseEvent

	DelegationID string    `json:"delegation_id"`
	InstanceID   string    `json:"instance_id"`
	StepID       string    `json:"step_id"`
	FromUserID   string    `json:"from_user_id"`
	ToUserID     string    `json:"to_user_id"`
	ExpiresAt    time.Time `json:"expires_at"`
}

func (e DelegationCreated) GetType() EventType {
	return DelegationCreatedEvent
}
