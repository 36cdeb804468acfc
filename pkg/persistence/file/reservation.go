package file

import (
	"context"
	"sort"
	"time"

	"github.com/leduxro-prog/erp-core/pkg/models"
	"github.com/leduxro-prog/erp-core/pkg/persistence"
)

const reservationKind = "reservations"

// ReservationRepository handles reservation file operations.
type ReservationRepository struct {
	store *Persistence
}

func (r *ReservationRepository) Save(_ context.Context, reservation *models.StockReservation) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	return r.store.write(reservationKind, reservation.ID, reservation)
}

func (r *ReservationRepository) GetByID(_ context.Context, id string) (*models.StockReservation, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	return r.getLocked(id)
}

func (r *ReservationRepository) ListExpired(_ context.Context, now time.Time, limit int) ([]*models.StockReservation, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	ids, err := r.store.ids(reservationKind)
	if err != nil {
		return nil, err
	}

	expired := make([]*models.StockReservation, 0)

	for _, id := range ids {
		reservation, err := r.getLocked(id)
		if err != nil {
			return nil, err
		}

		if reservation.Status == models.ReservationStatusActive && !reservation.ExpiresAt.After(now) {
			expired = append(expired, reservation)
		}
	}

	sort.Slice(expired, func(i, j int) bool {
		return expired[i].ExpiresAt.Before(expired[j].ExpiresAt)
	})

	if len(expired) > limit {
		expired = expired[:limit]
	}

	return expired, nil
}

func (r *ReservationRepository) UpdateStatus(_ context.Context, id string, expected, next models.ReservationStatus, at time.Time) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	reservation, err := r.getLocked(id)
	if err != nil {
		return false, err
	}

	if reservation.Status != expected {
		return false, nil
	}

	reservation.Status = next
	reservation.UpdatedAt = at

	if err := r.store.write(reservationKind, id, reservation); err != nil {
		return false, err
	}

	return true, nil
}

func (r *ReservationRepository) getLocked(id string) (*models.StockReservation, error) {
	var reservation models.StockReservation

	found, err := r.store.read(reservationKind, id, &reservation)
	if err != nil {
		return nil, err
	}

	if !found {
		return nil, persistence.NewStoreError("GetByID", "reservation", id, persistence.ErrReservationNotFound)
	}

	return &reservation, nil
}
