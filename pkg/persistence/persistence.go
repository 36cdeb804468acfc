// Package persistence provides the data storage abstraction layer for
// reservations, workflow templates, instances, delegations and analytics.
package persistence

import (
	"context"
	"time"

	"github.com/leduxro-prog/erp-core/pkg/models"
)

// Persistence is the root of the storage layer. Implementations expose one
// repository per entity type and own the underlying connection.
type Persistence interface {
	ReservationRepository() ReservationRepository
	TemplateRepository() TemplateRepository
	InstanceRepository() InstanceRepository
	DelegationRepository() DelegationRepository
	AnalyticsRepository() AnalyticsRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// ReservationRepository stores stock reservations. UpdateStatus is the atomic
// conditional transition: it succeeds only when the persisted status still
// equals expected, so two racing callers cannot both reach a terminal state.
type ReservationRepository interface {
	Save(ctx context.Context, reservation *models.StockReservation) error
	GetByID(ctx context.Context, id string) (*models.StockReservation, error)
	ListExpired(ctx context.Context, now time.Time, limit int) ([]*models.StockReservation, error)
	UpdateStatus(ctx context.Context, id string, expected, next models.ReservationStatus, at time.Time) (bool, error)
}

// TemplateRepository stores workflow templates.
type TemplateRepository interface {
	Save(ctx context.Context, template *models.WorkflowTemplate) error
	GetByID(ctx context.Context, id string) (*models.WorkflowTemplate, error)
	List(ctx context.Context, entityType string) ([]*models.WorkflowTemplate, error)
}

// InstanceRepository stores workflow instances. Update is the atomic
// conditional transition keyed on the previously observed status and current
// step, mirroring ReservationRepository.UpdateStatus.
type InstanceRepository interface {
	Save(ctx context.Context, instance *models.WorkflowInstance) error
	GetByID(ctx context.Context, id string) (*models.WorkflowInstance, error)
	ListInFlight(ctx context.Context, limit int) ([]*models.WorkflowInstance, error)
	Update(ctx context.Context, instance *models.WorkflowInstance, expectedStatus models.InstanceStatus, expectedStepID string) (bool, error)
}

// DelegationRepository stores step delegations.
type DelegationRepository interface {
	Save(ctx context.Context, delegation *models.WorkflowDelegation) error
	ActiveForStep(ctx context.Context, instanceID, stepID string, now time.Time) (*models.WorkflowDelegation, error)
	Deactivate(ctx context.Context, id string) error
	DeactivateExpired(ctx context.Context, now time.Time) (int, error)
}

// AnalyticsRepository appends workflow outcome records. Append-only: records
// are never updated, so no conditional guard is needed.
type AnalyticsRepository interface {
	Append(ctx context.Context, record *models.WorkflowAnalytics) error
	ListByTemplate(ctx context.Context, templateID string) ([]*models.WorkflowAnalytics, error)
}
