package file

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leduxro-prog/erp-core/pkg/models"
	"github.com/leduxro-prog/erp-core/pkg/persistence"
)

func seedReservation(t *testing.T, store *Persistence, id string, status models.ReservationStatus, expiresAt time.Time) *models.StockReservation {
	t.Helper()

	reservation := &models.StockReservation{
		ID:      id,
		OrderID: "order-" + id,
		Items: []models.ReservationItem{
			{ProductID: 1, WarehouseID: "wh-1", Quantity: 2},
		},
		Status:    status,
		ExpiresAt: expiresAt,
		CreatedAt: expiresAt.Add(-10 * 24 * time.Hour),
		UpdatedAt: expiresAt.Add(-10 * 24 * time.Hour),
	}

	require.NoError(t, store.ReservationRepository().Save(t.Context(), reservation))

	return reservation
}

func TestReservationRepository_UpdateStatus_Conditional(t *testing.T) {
	store := NewPersistence(t.TempDir())
	now := time.Date(2025, 6, 20, 12, 0, 0, 0, time.UTC)

	seedReservation(t, store, "res-1", models.ReservationStatusActive, now)

	repo := store.ReservationRepository()

	applied, err := repo.UpdateStatus(t.Context(), "res-1", models.ReservationStatusActive, models.ReservationStatusExpired, now)
	require.NoError(t, err)
	assert.True(t, applied)

	// A second conditional transition from active must find nothing to do.
	applied, err = repo.UpdateStatus(t.Context(), "res-1", models.ReservationStatusActive, models.ReservationStatusFulfilled, now)
	require.NoError(t, err)
	assert.False(t, applied)

	loaded, err := repo.GetByID(t.Context(), "res-1")
	require.NoError(t, err)
	assert.Equal(t, models.ReservationStatusExpired, loaded.Status)
}

func TestReservationRepository_UpdateStatus_NotFound(t *testing.T) {
	store := NewPersistence(t.TempDir())

	_, err := store.ReservationRepository().UpdateStatus(t.Context(), "missing",
		models.ReservationStatusActive, models.ReservationStatusExpired, time.Now().UTC())
	require.Error(t, err)
	assert.True(t, persistence.IsNotFound(err))
}

func TestReservationRepository_ListExpired(t *testing.T) {
	store := NewPersistence(t.TempDir())
	now := time.Date(2025, 6, 20, 12, 0, 0, 0, time.UTC)

	seedReservation(t, store, "res-old", models.ReservationStatusActive, now.Add(-2*time.Hour))
	seedReservation(t, store, "res-older", models.ReservationStatusActive, now.Add(-4*time.Hour))
	seedReservation(t, store, "res-live", models.ReservationStatusActive, now.Add(time.Hour))
	seedReservation(t, store, "res-done", models.ReservationStatusFulfilled, now.Add(-6*time.Hour))

	repo := store.ReservationRepository()

	expired, err := repo.ListExpired(t.Context(), now, 10)
	require.NoError(t, err)
	require.Len(t, expired, 2, "only active reservations past their window qualify")
	assert.Equal(t, "res-older", expired[0].ID, "oldest expiry first")

	limited, err := repo.ListExpired(t.Context(), now, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "res-older", limited[0].ID)
}

func TestTemplateRepository_Save_PublishedVersionIsImmutable(t *testing.T) {
	store := NewPersistence(t.TempDir())
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

	template := &models.WorkflowTemplate{
		ID:         "tpl-1",
		Name:       "Purchase Order Approval",
		EntityType: "purchase_order",
		Version:    1,
		Steps: []models.TemplateStep{
			{ID: "step-a", Name: "Manager Review", ApproverID: "user-mgr", TimeoutHours: 24},
		},
		IsActive:  true,
		CreatedBy: "user-admin",
		CreatedAt: now,
		UpdatedAt: now,
	}

	repo := store.TemplateRepository()
	require.NoError(t, repo.Save(t.Context(), template))

	// Rewriting the step list of a published version must be refused.
	edited := *template
	edited.Steps = []models.TemplateStep{
		{ID: "step-b", Name: "Finance Review", ApproverID: "user-fin", TimeoutHours: 48},
	}
	err := repo.Save(t.Context(), &edited)
	require.ErrorIs(t, err, persistence.ErrTemplatePublished)

	stored, err := repo.GetByID(t.Context(), "tpl-1")
	require.NoError(t, err)
	require.Len(t, stored.Steps, 1)
	assert.Equal(t, "step-a", stored.Steps[0].ID)

	// Flipping is_active is not an edit of the published definition.
	deactivated := *template
	deactivated.IsActive = false
	deactivated.UpdatedAt = now.Add(time.Hour)
	require.NoError(t, repo.Save(t.Context(), &deactivated))

	stored, err = repo.GetByID(t.Context(), "tpl-1")
	require.NoError(t, err)
	assert.False(t, stored.IsActive)
	assert.Equal(t, "step-a", stored.Steps[0].ID)
}

func TestInstanceRepository_Update_Conditional(t *testing.T) {
	store := NewPersistence(t.TempDir())
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

	startedAt := now
	instance := &models.WorkflowInstance{
		ID:         "inst-1",
		TemplateID: "tpl-1",
		EntityType: "purchase_order",
		EntityID:   "po-7",
		Steps: []models.StepState{
			{StepID: "step-a", Status: models.StepStatusPending, StartedAt: &startedAt},
			{StepID: "step-b", Status: models.StepStatusPending},
		},
		CurrentStepID: "step-a",
		Status:        models.InstanceStatusPending,
		CreatedBy:     "user-creator",
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	repo := store.InstanceRepository()
	require.NoError(t, repo.Save(t.Context(), instance))

	updated := *instance
	updated.Status = models.InstanceStatusCancelled
	completedAt := now.Add(time.Hour)
	updated.CompletedAt = &completedAt

	// Wrong expected step: the instance was observed at step-b by no one.
	applied, err := repo.Update(t.Context(), &updated, models.InstanceStatusPending, "step-b")
	require.NoError(t, err)
	assert.False(t, applied)

	applied, err = repo.Update(t.Context(), &updated, models.InstanceStatusPending, "step-a")
	require.NoError(t, err)
	assert.True(t, applied)

	// The stored status changed, so the original precondition no longer holds.
	applied, err = repo.Update(t.Context(), &updated, models.InstanceStatusPending, "step-a")
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestInstanceRepository_GetByID_RejectsCorruptStepState(t *testing.T) {
	store := NewPersistence(t.TempDir())
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

	instance := &models.WorkflowInstance{
		ID:         "inst-bad",
		TemplateID: "tpl-1",
		EntityType: "purchase_order",
		EntityID:   "po-7",
		Steps: []models.StepState{
			// Approved without a decision record violates the step invariant.
			{StepID: "step-a", Status: models.StepStatusApproved},
		},
		CurrentStepID: "step-a",
		Status:        models.InstanceStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	repo := store.InstanceRepository()
	require.NoError(t, repo.Save(t.Context(), instance))

	_, err := repo.GetByID(t.Context(), "inst-bad")
	require.Error(t, err)
}

func TestDelegationRepository_ActiveForStep_PicksNewest(t *testing.T) {
	store := NewPersistence(t.TempDir())
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

	repo := store.DelegationRepository()

	older := &models.WorkflowDelegation{
		ID:         "del-1",
		InstanceID: "inst-1",
		StepID:     "step-a",
		FromUserID: "user-mgr",
		ToUserID:   "user-first",
		ExpiresAt:  now.Add(24 * time.Hour),
		IsActive:   true,
		CreatedAt:  now.Add(-2 * time.Hour),
	}
	newer := &models.WorkflowDelegation{
		ID:         "del-2",
		InstanceID: "inst-1",
		StepID:     "step-a",
		FromUserID: "user-mgr",
		ToUserID:   "user-second",
		ExpiresAt:  now.Add(24 * time.Hour),
		IsActive:   true,
		CreatedAt:  now.Add(-time.Hour),
	}

	require.NoError(t, repo.Save(t.Context(), older))
	require.NoError(t, repo.Save(t.Context(), newer))

	active, err := repo.ActiveForStep(t.Context(), "inst-1", "step-a", now)
	require.NoError(t, err)
	assert.Equal(t, "user-second", active.ToUserID)

	require.NoError(t, repo.Deactivate(t.Context(), "del-2"))

	active, err = repo.ActiveForStep(t.Context(), "inst-1", "step-a", now)
	require.NoError(t, err)
	assert.Equal(t, "user-first", active.ToUserID, "deactivated delegations are skipped")
}
