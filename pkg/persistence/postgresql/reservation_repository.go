package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/leduxro-prog/erp-core/pkg/models"
	"github.com/leduxro-prog/erp-core/pkg/persistence"
)

// ReservationRepository handles reservation-related database operations.
type ReservationRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewReservationRepository creates a new reservation repository.
func NewReservationRepository(db *sql.DB, logger *slog.Logger) *ReservationRepository {
	return &ReservationRepository{db: db, logger: logger}
}

// Save upserts a reservation.
func (r *ReservationRepository) Save(ctx context.Context, reservation *models.StockReservation) error {
	itemsJSON, err := json.Marshal(reservation.Items)
	if err != nil {
		return persistence.NewStoreError("Save", "reservation", reservation.ID,
			fmt.Errorf("failed to marshal items: %w", err))
	}

	query := `
		INSERT INTO stock_reservations (id, order_id, items, status, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			order_id = EXCLUDED.order_id,
			items = EXCLUDED.items,
			status = EXCLUDED.status,
			expires_at = EXCLUDED.expires_at,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		reservation.ID,
		reservation.OrderID,
		itemsJSON,
		reservation.Status,
		reservation.ExpiresAt,
		reservation.CreatedAt,
		reservation.UpdatedAt,
	)
	if err != nil {
		return persistence.NewStoreError("Save", "reservation", reservation.ID, err)
	}

	return nil
}

// GetByID returns a reservation by its ID.
func (r *ReservationRepository) GetByID(ctx context.Context, id string) (*models.StockReservation, error) {
	query := `
		SELECT
			id
		  , order_id
		  , items
		  , status
		  , expires_at
		  , created_at
		  , updated_at
		FROM stock_reservations
		WHERE id = $1
	`

	reservation, err := scanReservation(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewStoreError("GetByID", "reservation", id, persistence.ErrReservationNotFound)
		}

		return nil, persistence.NewStoreError("GetByID", "reservation", id, err)
	}

	return reservation, nil
}

// ListExpired returns active reservations whose window passed at the given time.
func (r *ReservationRepository) ListExpired(ctx context.Context, now time.Time, limit int) ([]*models.StockReservation, error) {
	query := `
		SELECT
			id
		  , order_id
		  , items
		  , status
		  , expires_at
		  , created_at
		  , updated_at
		FROM stock_reservations
		WHERE status = $1 AND expires_at <= $2
		ORDER BY expires_at ASC
		LIMIT $3
	`

	rows, err := r.db.QueryContext(ctx, query, models.ReservationStatusActive, now, limit)
	if err != nil {
		return nil, persistence.NewStoreError("ListExpired", "reservation", "", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	reservations := make([]*models.StockReservation, 0)

	for rows.Next() {
		reservation, err := scanReservation(rows)
		if err != nil {
			return nil, persistence.NewStoreError("ListExpired", "reservation", "", err)
		}

		reservations = append(reservations, reservation)
	}

	err = rows.Err()
	if err != nil {
		return nil, persistence.NewStoreError("ListExpired", "reservation", "", err)
	}

	return reservations, nil
}

// UpdateStatus performs the atomic conditional transition: the row is updated
// only when its status still matches expected. The returned bool reports
// whether the transition was applied.
func (r *ReservationRepository) UpdateStatus(ctx context.Context, id string, expected, next models.ReservationStatus, at time.Time) (bool, error) {
	query := `
		UPDATE stock_reservations
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
	`

	result, err := r.db.ExecContext(ctx, query, next, at, id, expected)
	if err != nil {
		return false, persistence.NewStoreError("UpdateStatus", "reservation", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, persistence.NewStoreError("UpdateStatus", "reservation", id, err)
	}

	return affected == 1, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(row rowScanner) (*models.StockReservation, error) {
	var (
		reservation models.StockReservation
		itemsJSON   []byte
	)

	err := row.Scan(
		&reservation.ID,
		&reservation.OrderID,
		&itemsJSON,
		&reservation.Status,
		&reservation.ExpiresAt,
		&reservation.CreatedAt,
		&reservation.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	err = json.Unmarshal(itemsJSON, &reservation.Items)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal items: %w", err)
	}

	return &reservation, nil
}
