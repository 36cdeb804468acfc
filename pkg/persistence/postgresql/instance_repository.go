package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/leduxro-prog/erp-core/pkg/models"
	"github.com/leduxro-prog/erp-core/pkg/persistence"
)

// InstanceRepository handles workflow instance database operations.
type InstanceRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewInstanceRepository creates a new instance repository.
func NewInstanceRepository(db *sql.DB, logger *slog.Logger) *InstanceRepository {
	return &InstanceRepository{db: db, logger: logger}
}

// Save inserts a new instance.
func (r *InstanceRepository) Save(ctx context.Context, instance *models.WorkflowInstance) error {
	stepsJSON, err := json.Marshal(instance.Steps)
	if err != nil {
		return persistence.NewStoreError("Save", "instance", instance.ID,
			fmt.Errorf("failed to marshal steps: %w", err))
	}

	query := `
		INSERT INTO workflow_instances (id, template_id, entity_type, entity_id, steps,
current_step_id, status, created_by, created_at, updated_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err = r.db.ExecContext(ctx, query,
		instance.ID,
		instance.TemplateID,
		instance.EntityType,
		instance.EntityID,
		stepsJSON,
		instance.CurrentStepID,
		instance.Status,
		instance.CreatedBy,
		instance.CreatedAt,
		instance.UpdatedAt,
		instance.CompletedAt,
	)
	if err != nil {
		return persistence.NewStoreError("Save", "instance", instance.ID, err)
	}

	return nil
}

// GetByID returns an instance by its ID. The decoded instance is validated so
// corrupt step blobs are rejected at the boundary.
func (r *InstanceRepository) GetByID(ctx context.Context, id string) (*models.WorkflowInstance, error) {
	query := `
		SELECT
			id
		  , template_id
		  , entity_type
		  , entity_id
		  , steps
		  , current_step_id
		  , status
		  , created_by
		  , created_at
		  , updated_at
		  , completed_at
		FROM workflow_instances
		WHERE id = $1
	`

	instance, err := scanInstance(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewStoreError("GetByID", "instance", id, persistence.ErrInstanceNotFound)
		}

		return nil, persistence.NewStoreError("GetByID", "instance", id, err)
	}

	if err := instance.Validate(); err != nil {
		return nil, persistence.NewStoreError("GetByID", "instance", id, err)
	}

	return instance, nil
}

// ListInFlight returns pending and in-progress instances for the sweep.
func (r *InstanceRepository) ListInFlight(ctx context.Context, limit int) ([]*models.WorkflowInstance, error) {
	query := `
		SELECT
			id
		  , template_id
		  , entity_type
		  , entity_id
		  , steps
		  , current_step_id
		  , status
		  , created_by
		  , created_at
		  , updated_at
		  , completed_at
		FROM workflow_instances
		WHERE status IN ($1, $2)
		ORDER BY created_at ASC
		LIMIT $3
	`

	rows, err := r.db.QueryContext(ctx, query,
		models.InstanceStatusPending, models.InstanceStatusInProgress, limit)
	if err != nil {
		return nil, persistence.NewStoreError("ListInFlight", "instance", "", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	instances := make([]*models.WorkflowInstance, 0)

	for rows.Next() {
		instance, err := scanInstance(rows)
		if err != nil {
			return nil, persistence.NewStoreError("ListInFlight", "instance", "", err)
		}

		if err := instance.Validate(); err != nil {
			// One corrupt record must not halt the sweep for the batch.
			r.logger.WarnContext(ctx, "Skipping invalid instance", "instance_id", instance.ID, "error", err)

			continue
		}

		instances = append(instances, instance)
	}

	err = rows.Err()
	if err != nil {
		return nil, persistence.NewStoreError("ListInFlight", "instance", "", err)
	}

	return instances, nil
}

// Update performs the atomic conditional transition: the row is written only
// when its persisted (status, current_step_id) still match what the caller
// observed. The returned bool reports whether the write was applied.
func (r *InstanceRepository) Update(ctx context.Context, instance *models.WorkflowInstance, expectedStatus models.InstanceStatus, expectedStepID string) (bool, error) {
	stepsJSON, err := json.Marshal(instance.Steps)
	if err != nil {
		return false, persistence.NewStoreError("Update", "instance", instance.ID,
			fmt.Errorf("failed to marshal steps: %w", err))
	}

	query := `
		UPDATE workflow_instances
		SET steps = $1, current_step_id = $2, status = $3, updated_at = $4, completed_at = $5
		WHERE id = $6 AND status = $7 AND current_step_id = $8
	`

	result, err := r.db.ExecContext(ctx, query,
		stepsJSON,
		instance.CurrentStepID,
		instance.Status,
		instance.UpdatedAt,
		instance.CompletedAt,
		instance.ID,
		expectedStatus,
		expectedStepID,
	)
	if err != nil {
		return false, persistence.NewStoreError("Update", "instance", instance.ID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, persistence.NewStoreError("Update", "instance", instance.ID, err)
	}

	return affected == 1, nil
}

func scanInstance(row rowScanner) (*models.WorkflowInstance, error) {
	var (
		instance  models.WorkflowInstance
		stepsJSON []byte
	)

	err := row.Scan(
		&instance.ID,
		&instance.TemplateID,
		&instance.EntityType,
		&instance.EntityID,
		&stepsJSON,
		&instance.CurrentStepID,
		&instance.Status,
		&instance.CreatedBy,
		&instance.CreatedAt,
		&instance.UpdatedAt,
		&instance.CompletedAt,
	)
	if err != nil {
		return nil, err
	}

	err = json.Unmarshal(stepsJSON, &instance.Steps)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal steps: %w", err)
	}

	return &instance, nil
}
