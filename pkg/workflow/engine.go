// Package workflow implements the multi-step approval engine: instances bound
// to business entities advance through a template's steps, honoring
// approvals, rejections, delegations and escalation timeouts.
package workflow

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
	"github.com/leduxro-prog/erp-core/pkg/models"
	"github.com/leduxro-prog/erp-core/pkg/notification"
	"github.com/leduxro-prog/erp-core/pkg/persistence"
)

// Config enumerates the collaborators the engine needs, passed explicitly at
// construction.
type Config struct {
	Persistence persistence.Persistence
	Clock       clock.Clock
	Notifier    notification.Notifier
	EventBus    eventbus.EventBus
	Logger      *slog.Logger
}

// Engine advances workflow instances through their template's steps. Every
// instance write is conditional on the previously observed (status, current
// step), so concurrent decisions, cancellations and escalations apply at most
// once.
type Engine struct {
	templates   persistence.TemplateRepository
	instances   persistence.InstanceRepository
	delegations persistence.DelegationRepository
	analytics   persistence.AnalyticsRepository
	clock       clock.Clock
	notifier    notification.Notifier
	eventBus    eventbus.EventBus
	logger      *slog.Logger
	validator   *validator.Validate
}

func NewEngine(cfg Config) *Engine {
	return &Engine{
		templates:   cfg.Persistence.TemplateRepository(),
		instances:   cfg.Persistence.InstanceRepository(),
		delegations: cfg.Persistence.DelegationRepository(),
		analytics:   cfg.Persistence.AnalyticsRepository(),
		clock:       cfg.Clock,
		notifier:    cfg.Notifier,
		eventBus:    cfg.EventBus,
		logger:      cfg.Logger.With("module", "workflow"),
		validator:   validator.New(validator.WithRequiredStructEnabled()),
	}
}

// CreateTemplate validates and persists a new template version. IDs are
// engine-assigned: published versions are immutable, so a caller-supplied ID
// is rejected rather than risk overwriting an existing version in place.
func (e *Engine) CreateTemplate(ctx context.Context, template *models.WorkflowTemplate) (*models.WorkflowTemplate, error) {
	now := e.clock.Now()

	if template.ID != "" {
		return nil, fmt.Errorf("%w: template IDs are assigned on creation, edits require a new version", ErrTemplateDocument)
	}

	if template.Version == 0 {
		template.Version = 1
	}

	if err := e.validator.Struct(template); err != nil {
		return nil, fmt.Errorf("invalid template: %w", err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate template ID: %w", err)
	}

	template.ID = id.String()
	template.CreatedAt = now
	template.UpdatedAt = now

	if err := e.templates.Save(ctx, template); err != nil {
		return nil, err
	}

	return template, nil
}

// NewTemplateVersion derives and persists the next version of a template.
// The base version stays untouched; the copy gets a fresh ID, starts
// inactive and, when steps are given, carries the replacement step list.
func (e *Engine) NewTemplateVersion(ctx context.Context, baseID string, steps []models.TemplateStep) (*models.WorkflowTemplate, error) {
	base, err := e.templates.GetByID(ctx, baseID)
	if err != nil {
		return nil, err
	}

	next := base.NewVersion(e.clock.Now())
	if len(steps) > 0 {
		if err := validateStepIDs(steps); err != nil {
			return nil, err
		}

		next.Steps = steps
	}

	return e.CreateTemplate(ctx, next)
}

// Template loads a template by ID.
func (e *Engine) Template(ctx context.Context, id string) (*models.WorkflowTemplate, error) {
	return e.templates.GetByID(ctx, id)
}

// Templates lists templates, optionally filtered by entity type.
func (e *Engine) Templates(ctx context.Context, entityType string) ([]*models.WorkflowTemplate, error) {
	return e.templates.List(ctx, entityType)
}

// StartInstance creates a pending instance from an active template, bound to
// one business entity.
func (e *Engine) StartInstance(ctx context.Context, templateID, entityType, entityID, createdBy string) (*models.WorkflowInstance, error) {
	template, err := e.templates.GetByID(ctx, templateID)
	if err != nil {
		return nil, err
	}

	if template.EntityType != entityType {
		return nil, fmt.Errorf("template %s is for %s, not %s: %w",
			templateID, template.EntityType, entityType, models.ErrEntityTypeMismatch)
	}

	now := e.clock.Now()

	instance, err := models.NewWorkflowInstance(template, entityID, createdBy, now)
	if err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate instance ID: %w", err)
	}

	instance.ID = id.String()

	if err := e.validator.Struct(instance); err != nil {
		return nil, fmt.Errorf("invalid instance: %w", err)
	}

	if err := e.instances.Save(ctx, instance); err != nil {
		return nil, err
	}

	e.publish(ctx, instance.ID, events.InstanceStarted{
		BaseEvent:  e.baseEvent(events.InstanceStartedEvent),
		InstanceID: instance.ID,
		TemplateID: template.ID,
		EntityType: instance.EntityType,
		EntityID:   instance.EntityID,
	})

	return instance, nil
}

// Instance loads an instance by ID.
func (e *Engine) Instance(ctx context.Context, id string) (*models.WorkflowInstance, error) {
	return e.instances.GetByID(ctx, id)
}

// RecordDecision applies an approve or reject verdict to the instance's
// current step. Authorization (approver or active delegate) is the caller's
// responsibility via ActiveDelegate.
func (e *Engine) RecordDecision(ctx context.Context, instanceID, stepID string, decision models.Decision, actorID, reason string) (*models.WorkflowInstance, error) {
	instance, err := e.instances.GetByID(ctx, instanceID)
	if err != nil {
		return nil, err
	}

	template, err := e.templates.GetByID(ctx, instance.TemplateID)
	if err != nil {
		return nil, err
	}

	expectedStatus := instance.Status
	expectedStepID := instance.CurrentStepID
	now := e.clock.Now()

	if err := instance.RecordDecision(template, stepID, decision, actorID, reason, now); err != nil {
		return nil, err
	}

	if err := e.update(ctx, instance, expectedStatus, expectedStepID); err != nil {
		return nil, err
	}

	switch {
	case instance.Status == models.InstanceStatusRejected:
		e.recordOutcome(ctx, instance, models.OutcomeRejected, now)
		e.notifier.InstanceRejected(ctx, instance, stepID, actorID, reason)
		e.publish(ctx, instance.ID, events.InstanceRejected{
			BaseEvent:  e.baseEvent(events.InstanceRejectedEvent),
			InstanceID: instance.ID,
			StepID:     stepID,
			ActorID:    actorID,
			Reason:     reason,
		})
	case instance.Status == models.InstanceStatusApproved:
		e.recordOutcome(ctx, instance, models.OutcomeApproved, now)
		e.publish(ctx, instance.ID, events.InstanceApproved{
			BaseEvent:  e.baseEvent(events.InstanceApprovedEvent),
			InstanceID: instance.ID,
			EntityType: instance.EntityType,
			EntityID:   instance.EntityID,
			Duration:   now.Sub(instance.CreatedAt),
		})
	default:
		e.publish(ctx, instance.ID, events.InstanceAdvanced{
			BaseEvent:     e.baseEvent(events.InstanceAdvancedEvent),
			InstanceID:    instance.ID,
			DecidedStepID: stepID,
			CurrentStepID: instance.CurrentStepID,
			ActorID:       actorID,
		})
	}

	return instance, nil
}

// Delegate grants another user decision rights on one step until expiresAt.
func (e *Engine) Delegate(ctx context.Context, instanceID, stepID, fromUserID, toUserID string, expiresAt time.Time, reason string) (*models.WorkflowDelegation, error) {
	instance, err := e.instances.GetByID(ctx, instanceID)
	if err != nil {
		return nil, err
	}

	if instance.Status.IsTerminal() {
		return nil, models.NewTransitionError(instance.Status, instance.Status, models.ErrTerminalInstance)
	}

	if instance.StepState(stepID) == nil {
		return nil, fmt.Errorf("step %s: %w", stepID, models.ErrStepNotFound)
	}

	now := e.clock.Now()

	delegation, err := models.NewWorkflowDelegation(instanceID, stepID, fromUserID, toUserID, reason, expiresAt, now)
	if err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate delegation ID: %w", err)
	}

	delegation.ID = id.String()

	if err := e.validator.Struct(delegation); err != nil {
		return nil, fmt.Errorf("invalid delegation: %w", err)
	}

	if err := e.delegations.Save(ctx, delegation); err != nil {
		return nil, err
	}

	e.publish(ctx, instanceID, events.DelegationCreated{
		BaseEvent:    e.baseEvent(events.DelegationCreatedEvent),
		DelegationID: delegation.ID,
		InstanceID:   instanceID,
		StepID:       stepID,
		FromUserID:   fromUserID,
		ToUserID:     toUserID,
		ExpiresAt:    expiresAt,
	})

	return delegation, nil
}

// ActiveDelegate returns the delegation in effect for a step right now, or
// nil. Callers use it to authorize decisions by delegates.
func (e *Engine) ActiveDelegate(ctx context.Context, instanceID, stepID string) (*models.WorkflowDelegation, error) {
	delegation, err := e.delegations.ActiveForStep(ctx, instanceID, stepID, e.clock.Now())
	if err != nil {
		if persistence.IsNotFound(err) {
			return nil, nil
		}

		return nil, err
	}

	return delegation, nil
}

// Escalate marks a stalled instance escalated. Called by the sweep when the
// current step exceeded its timeout. Reports applied=false when another
// worker transitioned the instance first.
func (e *Engine) Escalate(ctx context.Context, instanceID string) (bool, error) {
	instance, err := e.instances.GetByID(ctx, instanceID)
	if err != nil {
		return false, err
	}

	if instance.Status.IsTerminal() {
		return false, nil
	}

	stalledStepID := instance.CurrentStepID
	expectedStatus := instance.Status
	now := e.clock.Now()

	if err := instance.Escalate(now); err != nil {
		return false, err
	}

	applied, err := e.instances.Update(ctx, instance, expectedStatus, stalledStepID)
	if err != nil {
		return false, err
	}

	if !applied {
		return false, nil
	}

	e.recordOutcome(ctx, instance, models.OutcomeEscalated, now)
	e.notifier.InstanceEscalated(ctx, instance, stalledStepID)
	e.publish(ctx, instance.ID, events.InstanceEscalated{
		BaseEvent:  e.baseEvent(events.InstanceEscalatedEvent),
		InstanceID: instance.ID,
		StepID:     stalledStepID,
		EntityType: instance.EntityType,
		EntityID:   instance.EntityID,
	})

	return true, nil
}

// Cancel withdraws a non-terminal instance.
func (e *Engine) Cancel(ctx context.Context, instanceID, actorID string) (*models.WorkflowInstance, error) {
	instance, err := e.instances.GetByID(ctx, instanceID)
	if err != nil {
		return nil, err
	}

	expectedStatus := instance.Status
	expectedStepID := instance.CurrentStepID
	now := e.clock.Now()

	if err := instance.Cancel(now); err != nil {
		return nil, err
	}

	if err := e.update(ctx, instance, expectedStatus, expectedStepID); err != nil {
		return nil, err
	}

	e.recordOutcome(ctx, instance, models.OutcomeCancelled, now)
	e.publish(ctx, instance.ID, events.InstanceCancelled{
		BaseEvent:  e.baseEvent(events.InstanceCancelledEvent),
		InstanceID: instance.ID,
		ActorID:    actorID,
	})

	return instance, nil
}

// ListStalled returns in-flight instances whose current step exceeded its
// template timeout, for the sweep.
func (e *Engine) ListStalled(ctx context.Context, limit int) ([]*models.WorkflowInstance, error) {
	inFlight, err := e.instances.ListInFlight(ctx, limit)
	if err != nil {
		return nil, err
	}

	now := e.clock.Now()
	stalled := make([]*models.WorkflowInstance, 0)

	for _, instance := range inFlight {
		template, err := e.templates.GetByID(ctx, instance.TemplateID)
		if err != nil {
			e.logger.WarnContext(ctx, "Skipping instance with unloadable template",
				"instance_id", instance.ID, "template_id", instance.TemplateID, "error", err)

			continue
		}

		if instance.StepStalled(template, now) {
			stalled = append(stalled, instance)
		}
	}

	return stalled, nil
}

// PruneDelegations deactivates every delegation whose expiry has passed and
// returns how many were touched. Safe to run concurrently: a delegation
// already deactivated by another process is simply not counted again.
func (e *Engine) PruneDelegations(ctx context.Context) (int, error) {
	return e.delegations.DeactivateExpired(ctx, e.clock.Now())
}

// Analytics lists outcome records for a template.
func (e *Engine) Analytics(ctx context.Context, templateID string) ([]*models.WorkflowAnalytics, error) {
	return e.analytics.ListByTemplate(ctx, templateID)
}

func (e *Engine) update(ctx context.Context, instance *models.WorkflowInstance, expectedStatus models.InstanceStatus, expectedStepID string) error {
	applied, err := e.instances.Update(ctx, instance, expectedStatus, expectedStepID)
	if err != nil {
		return err
	}

	if !applied {
		return fmt.Errorf("instance %s: %w", instance.ID, ErrConflict)
	}

	return nil
}

// recordOutcome appends the analytics record for a finished instance. The
// table is append-only and outside the state machine, so a failure here is
// logged, not propagated.
func (e *Engine) recordOutcome(ctx context.Context, instance *models.WorkflowInstance, outcome models.AnalyticsOutcome, now time.Time) {
	record := models.NewWorkflowAnalytics(instance, outcome, now)

	id, err := uuid.NewV7()
	if err != nil {
		e.logger.ErrorContext(ctx, "Failed to generate analytics ID", "error", err)

		return
	}

	record.ID = id.String()

	if err := e.analytics.Append(ctx, record); err != nil {
		e.logger.ErrorContext(ctx, "Failed to append analytics record",
			"instance_id", instance.ID, "outcome", outcome, "error", err)
	}
}

func (e *Engine) baseEvent(eventType events.EventType) events.BaseEvent {
	return events.BaseEvent{
		ID:        e.eventBus.GenerateID(),
		Type:      eventType,
		Timestamp: e.clock.Now(),
	}
}

func (e *Engine) publish(ctx context.Context, key string, event eventbus.Event) {
	err := e.eventBus.Publish(ctx, key, event)
	if err != nil {
		e.logger.ErrorContext(ctx, "Failed to publish workflow event",
			"event_type", event.GetType(), "key", key, "error", err)
	}
}
