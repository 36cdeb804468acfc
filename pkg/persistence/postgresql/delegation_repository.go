package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/leduxro-prog/erp-core/pkg/models"
	"github.com/leduxro-prog/erp-core/pkg/persistence"
)

// DelegationRepository handles step delegation database operations.
type DelegationRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewDelegationRepository creates a new delegation repository.
func NewDelegationRepository(db *sql.DB, logger *slog.Logger) *DelegationRepository {
	return &DelegationRepository{db: db, logger: logger}
}

// Save upserts a delegation.
func (r *DelegationRepository) Save(ctx context.Context, delegation *models.WorkflowDelegation) error {
	query := `
		INSERT INTO workflow_delegations (id, instance_id, step_id, from_user_id, to_user_id, reason, expires_at, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			is_active = EXCLUDED.is_active,
			expires_at = EXCLUDED.expires_at
	`

	_, err := r.db.ExecContext(ctx, query,
		delegation.ID,
		delegation.InstanceID,
		delegation.StepID,
		delegation.FromUserID,
		delegation.ToUserID,
		delegation.Reason,
		delegation.ExpiresAt,
		delegation.IsActive,
		delegation.CreatedAt,
	)
	if err != nil {
		return persistence.NewStoreError("Save", "delegation", delegation.ID, err)
	}

	return nil
}

// ActiveForStep returns the most recent delegation in effect for a step.
func (r *DelegationRepository) ActiveForStep(ctx context.Context, instanceID, stepID string, now time.Time) (*models.WorkflowDelegation, error) {
	query := `
		SELECT
			id
		  , instance_id
		  , step_id
		  , from_user_id
		  , to_user_id
		  , reason
		  , expires_at
		  , is_active
		  , created_at
		FROM workflow_delegations
		WHERE instance_id = $1 AND step_id = $2 AND is_active = TRUE AND expires_at > $3
		ORDER BY created_at DESC
		LIMIT 1
	`

	var delegation models.WorkflowDelegation

	err := r.db.QueryRowContext(ctx, query, instanceID, stepID, now).Scan(
		&delegation.ID,
		&delegation.InstanceID,
		&delegation.StepID,
		&delegation.FromUserID,
		&delegation.ToUserID,
		&delegation.Reason,
		&delegation.ExpiresAt,
		&delegation.IsActive,
		&delegation.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewStoreError("ActiveForStep", "delegation", "", persistence.ErrDelegationNotFound)
		}

		return nil, persistence.NewStoreError("ActiveForStep", "delegation", "", err)
	}

	return &delegation, nil
}

// Deactivate revokes a delegation by ID. Idempotent.
func (r *DelegationRepository) Deactivate(ctx context.Context, id string) error {
	query := `UPDATE workflow_delegations SET is_active = FALSE WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return persistence.NewStoreError("Deactivate", "delegation", id, err)
	}

	return nil
}

// DeactivateExpired flips is_active off for every delegation past its expiry
// and returns how many rows changed.
func (r *DelegationRepository) DeactivateExpired(ctx context.Context, now time.Time) (int, error) {
	query := `UPDATE workflow_delegations SET is_active = FALSE WHERE is_active = TRUE AND expires_at <= $1`

	result, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, persistence.NewStoreError("DeactivateExpired", "delegation", "", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, persistence.NewStoreError("DeactivateExpired", "delegation", "", err)
	}

	return int(affected), nil
}
