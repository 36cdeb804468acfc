package postgresql

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/leduxro-prog/erp-core/pkg/models"
	"github.com/leduxro-prog/erp-core/pkg/persistence"
)

// AnalyticsRepository appends workflow outcome records. The table is
// append-only; there is no update path.
type AnalyticsRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewAnalyticsRepository creates a new analytics repository.
func NewAnalyticsRepository(db *sql.DB, logger *slog.Logger) *AnalyticsRepository {
	return &AnalyticsRepository{db: db, logger: logger}
}

// Append inserts one outcome record.
func (r *AnalyticsRepository) Append(ctx context.Context, record *models.WorkflowAnalytics) error {
	query := `
		INSERT INTO workflow_analytics (id, instance_id, template_id, entity_type, outcome, duration_ms, steps_total, steps_approved, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		record.ID,
		record.InstanceID,
		record.TemplateID,
		record.EntityType,
		record.Outcome,
		record.Duration.Milliseconds(),
		record.StepsTotal,
		record.StepsApproved,
		record.RecordedAt,
	)
	if err != nil {
		return persistence.NewStoreError("Append", "analytics", record.ID, err)
	}

	return nil
}

// ListByTemplate returns outcome records for a template, newest first.
func (r *AnalyticsRepository) ListByTemplate(ctx context.Context, templateID string) ([]*models.WorkflowAnalytics, error) {
	query := `
		SELECT
			id
		  , instance_id
		  , template_id
		  , entity_type
		  , outcome
		  , duration_ms
		  , steps_total
		  , steps_approved
		  , recorded_at
		FROM workflow_analytics
		WHERE template_id = $1
		ORDER BY recorded_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, templateID)
	if err != nil {
		return nil, persistence.NewStoreError("ListByTemplate", "analytics", "", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	records := make([]*models.WorkflowAnalytics, 0)

	for rows.Next() {
		var (
			record     models.WorkflowAnalytics
			durationMS int64
		)

		err := rows.Scan(
			&record.ID,
			&record.InstanceID,
			&record.TemplateID,
			&record.EntityType,
			&record.Outcome,
			&durationMS,
			&record.StepsTotal,
			&record.StepsApproved,
			&record.RecordedAt,
		)
		if err != nil {
			return nil, persistence.NewStoreError("ListByTemplate", "analytics", "", err)
		}

		record.Duration = time.Duration(durationMS) * time.Millisecond
		records = append(records, &record)
	}

	err = rows.Err()
	if err != nil {
		return nil, persistence.NewStoreError("ListByTemplate", "analytics", "", err)
	}

	return records, nil
}
