package file

import (
	"context"
	"slices"
	"sort"
	"time"

	"github.com/leduxro-prog/erp-core/pkg/models"
	"github.com/leduxro-prog/erp-core/pkg/persistence"
)

const (
	templateKind   = "templates"
	instanceKind   = "instances"
	delegationKind = "delegations"
	analyticsKind  = "analytics"
)

// TemplateRepository handles workflow template file operations.
type TemplateRepository struct {
	store *Persistence
}

// Save persists a template version. Published versions are immutable: an
// existing record only accepts is_active and updated_at changes.
func (r *TemplateRepository) Save(_ context.Context, template *models.WorkflowTemplate) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var existing models.WorkflowTemplate

	found, err := r.store.read(templateKind, template.ID, &existing)
	if err != nil {
		return err
	}

	if found && !sameTemplateVersion(&existing, template) {
		return persistence.NewStoreError("Save", "template", template.ID, persistence.ErrTemplatePublished)
	}

	return r.store.write(templateKind, template.ID, template)
}

func sameTemplateVersion(a, b *models.WorkflowTemplate) bool {
	return a.Name == b.Name &&
		a.EntityType == b.EntityType &&
		a.Version == b.Version &&
		slices.Equal(a.Steps, b.Steps)
}

func (r *TemplateRepository) GetByID(_ context.Context, id string) (*models.WorkflowTemplate, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	return r.getLocked(id)
}

func (r *TemplateRepository) List(_ context.Context, entityType string) ([]*models.WorkflowTemplate, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	ids, err := r.store.ids(templateKind)
	if err != nil {
		return nil, err
	}

	templates := make([]*models.WorkflowTemplate, 0, len(ids))

	for _, id := range ids {
		template, err := r.getLocked(id)
		if err != nil {
			return nil, err
		}

		if entityType == "" || template.EntityType == entityType {
			templates = append(templates, template)
		}
	}

	sort.Slice(templates, func(i, j int) bool {
		if templates[i].Name != templates[j].Name {
			return templates[i].Name < templates[j].Name
		}

		return templates[i].Version > templates[j].Version
	})

	return templates, nil
}

func (r *TemplateRepository) getLocked(id string) (*models.WorkflowTemplate, error) {
	var template models.WorkflowTemplate

	found, err := r.store.read(templateKind, id, &template)
	if err != nil {
		return nil, err
	}

	if !found {
		return nil, persistence.NewStoreError("GetByID", "template", id, persistence.ErrTemplateNotFound)
	}

	return &template, nil
}

// InstanceRepository handles workflow instance file operations.
type InstanceRepository struct {
	store *Persistence
}

func (r *InstanceRepository) Save(_ context.Context, instance *models.WorkflowInstance) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	return r.store.write(instanceKind, instance.ID, instance)
}

func (r *InstanceRepository) GetByID(_ context.Context, id string) (*models.WorkflowInstance, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	instance, err := r.getLocked(id)
	if err != nil {
		return nil, err
	}

	if err := instance.Validate(); err != nil {
		return nil, persistence.NewStoreError("GetByID", "instance", id, err)
	}

	return instance, nil
}

func (r *InstanceRepository) ListInFlight(_ context.Context, limit int) ([]*models.WorkflowInstance, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	ids, err := r.store.ids(instanceKind)
	if err != nil {
		return nil, err
	}

	instances := make([]*models.WorkflowInstance, 0)

	for _, id := range ids {
		instance, err := r.getLocked(id)
		if err != nil {
			return nil, err
		}

		if instance.Status == models.InstanceStatusPending || instance.Status == models.InstanceStatusInProgress {
			instances = append(instances, instance)
		}
	}

	sort.Slice(instances, func(i, j int) bool {
		return instances[i].CreatedAt.Before(instances[j].CreatedAt)
	})

	if len(instances) > limit {
		instances = instances[:limit]
	}

	return instances, nil
}

func (r *InstanceRepository) Update(_ context.Context, instance *models.WorkflowInstance, expectedStatus models.InstanceStatus, expectedStepID string) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	current, err := r.getLocked(instance.ID)
	if err != nil {
		return false, err
	}

	if current.Status != expectedStatus || current.CurrentStepID != expectedStepID {
		return false, nil
	}

	if err := r.store.write(instanceKind, instance.ID, instance); err != nil {
		return false, err
	}

	return true, nil
}

func (r *InstanceRepository) getLocked(id string) (*models.WorkflowInstance, error) {
	var instance models.WorkflowInstance

	found, err := r.store.read(instanceKind, id, &instance)
	if err != nil {
		return nil, err
	}

	if !found {
		return nil, persistence.NewStoreError("GetByID", "instance", id, persistence.ErrInstanceNotFound)
	}

	return &instance, nil
}

// DelegationRepository handles delegation file operations.
type DelegationRepository struct {
	store *Persistence
}

func (r *DelegationRepository) Save(_ context.Context, delegation *models.WorkflowDelegation) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	return r.store.write(delegationKind, delegation.ID, delegation)
}

func (r *DelegationRepository) ActiveForStep(_ context.Context, instanceID, stepID string, now time.Time) (*models.WorkflowDelegation, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	ids, err := r.store.ids(delegationKind)
	if err != nil {
		return nil, err
	}

	var newest *models.WorkflowDelegation

	for _, id := range ids {
		var delegation models.WorkflowDelegation

		found, err := r.store.read(delegationKind, id, &delegation)
		if err != nil {
			return nil, err
		}

		if !found || delegation.InstanceID != instanceID || delegation.StepID != stepID {
			continue
		}

		if !delegation.InEffect(now) {
			continue
		}

		if newest == nil || delegation.CreatedAt.After(newest.CreatedAt) {
			newest = &delegation
		}
	}

	if newest == nil {
		return nil, persistence.NewStoreError("ActiveForStep", "delegation", "", persistence.ErrDelegationNotFound)
	}

	return newest, nil
}

func (r *DelegationRepository) Deactivate(_ context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var delegation models.WorkflowDelegation

	found, err := r.store.read(delegationKind, id, &delegation)
	if err != nil {
		return err
	}

	if !found {
		return persistence.NewStoreError("Deactivate", "delegation", id, persistence.ErrDelegationNotFound)
	}

	delegation.IsActive = false

	return r.store.write(delegationKind, id, &delegation)
}

func (r *DelegationRepository) DeactivateExpired(_ context.Context, now time.Time) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	ids, err := r.store.ids(delegationKind)
	if err != nil {
		return 0, err
	}

	deactivated := 0

	for _, id := range ids {
		var delegation models.WorkflowDelegation

		found, err := r.store.read(delegationKind, id, &delegation)
		if err != nil {
			return deactivated, err
		}

		if !found || !delegation.IsActive || delegation.ExpiresAt.After(now) {
			continue
		}

		delegation.IsActive = false

		if err := r.store.write(delegationKind, id, &delegation); err != nil {
			return deactivated, err
		}

		deactivated++
	}

	return deactivated, nil
}

// AnalyticsRepository handles analytics file operations.
type AnalyticsRepository struct {
	store *Persistence
}

func (r *AnalyticsRepository) Append(_ context.Context, record *models.WorkflowAnalytics) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	return r.store.write(analyticsKind, record.ID, record)
}

func (r *AnalyticsRepository) ListByTemplate(_ context.Context, templateID string) ([]*models.WorkflowAnalytics, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	ids, err := r.store.ids(analyticsKind)
	if err != nil {
		return nil, err
	}

	records := make([]*models.WorkflowAnalytics, 0)

	for _, id := range ids {
		var record models.WorkflowAnalytics

		found, err := r.store.read(analyticsKind, id, &record)
		if err != nil {
			return nil, err
		}

		if found && record.TemplateID == templateID {
			records = append(records, &record)
		}
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].RecordedAt.After(records[j].RecordedAt)
	})

	return records, nil
}
