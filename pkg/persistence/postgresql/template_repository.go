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

// TemplateRepository handles workflow template database operations.
type TemplateRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewTemplateRepository creates a new template repository.
func NewTemplateRepository(db *sql.DB, logger *slog.Logger) *TemplateRepository {
	return &TemplateRepository{db: db, logger: logger}
}

// Save inserts a template version. Published versions are immutable: only the
// is_active flag and updated_at may change on conflict.
func (r *TemplateRepository) Save(ctx context.Context, template *models.WorkflowTemplate) error {
	stepsJSON, err := json.Marshal(template.Steps)
	if err != nil {
		return persistence.NewStoreError("Save", "template", template.ID,
			fmt.Errorf("failed to marshal steps: %w", err))
	}

	query := `
		INSERT INTO workflow_templates (id, name, entity_type, version, steps, is_active, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			is_active = EXCLUDED.is_active,
			updated_at = EXCLUDED.updated_at
		WHERE workflow_templates.name = EXCLUDED.name
		  AND workflow_templates.entity_type = EXCLUDED.entity_type
		  AND workflow_templates.version = EXCLUDED.version
		  AND workflow_templates.steps = EXCLUDED.steps
	`

	result, err := r.db.ExecContext(ctx, query,
		template.ID,
		template.Name,
		template.EntityType,
		template.Version,
		stepsJSON,
		template.IsActive,
		template.CreatedBy,
		template.CreatedAt,
		template.UpdatedAt,
	)
	if err != nil {
		return persistence.NewStoreError("Save", "template", template.ID, err)
	}

	// A conflicting row whose immutable columns differ fails the DO UPDATE
	// guard and matches nothing.
	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewStoreError("Save", "template", template.ID, err)
	}

	if affected == 0 {
		return persistence.NewStoreError("Save", "template", template.ID, persistence.ErrTemplatePublished)
	}

	return nil
}

// GetByID returns a template by its ID.
func (r *TemplateRepository) GetByID(ctx context.Context, id string) (*models.WorkflowTemplate, error) {
	query := `
		SELECT
			id
		  , name
		  , entity_type
		  , version
		  , steps
		  , is_active
		  , created_by
		  , created_at
		  , updated_at
		FROM workflow_templates
		WHERE id = $1
	`

	template, err := scanTemplate(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewStoreError("GetByID", "template", id, persistence.ErrTemplateNotFound)
		}

		return nil, persistence.NewStoreError("GetByID", "template", id, err)
	}

	return template, nil
}

// List returns templates, newest version first, optionally filtered by entity type.
func (r *TemplateRepository) List(ctx context.Context, entityType string) ([]*models.WorkflowTemplate, error) {
	query := `
		SELECT
			id
		  , name
		  , entity_type
		  , version
		  , steps
		  , is_active
		  , created_by
		  , created_at
		  , updated_at
		FROM workflow_templates
		WHERE ($1 = '' OR entity_type = $1)
		ORDER BY name, version DESC
	`

	rows, err := r.db.QueryContext(ctx, query, entityType)
	if err != nil {
		return nil, persistence.NewStoreError("List", "template", "", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	templates := make([]*models.WorkflowTemplate, 0)

	for rows.Next() {
		template, err := scanTemplate(rows)
		if err != nil {
			return nil, persistence.NewStoreError("List", "template", "", err)
		}

		templates = append(templates, template)
	}

	err = rows.Err()
	if err != nil {
		return nil, persistence.NewStoreError("List", "template", "", err)
	}

	return templates, nil
}

func scanTemplate(row rowScanner) (*models.WorkflowTemplate, error) {
	var (
		template  models.WorkflowTemplate
		stepsJSON []byte
	)

	err := row.Scan(
		&template.ID,
		&template.Name,
		&template.EntityType,
		&template.Version,
		&stepsJSON,
		&template.IsActive,
		&template.CreatedBy,
		&template.CreatedAt,
		&template.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	err = json.Unmarshal(stepsJSON, &template.Steps)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal steps: %w", err)
	}

	return &template, nil
}
