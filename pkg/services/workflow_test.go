package services_test

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/leduxro-prog/erp-core/pkg/clock"
	"github.com/leduxro-prog/erp-core/pkg/inventory"
	"github.com/leduxro-prog/erp-core/pkg/mocks"
	"github.com/leduxro-prog/erp-core/pkg/models"
	"github.com/leduxro-prog/erp-core/pkg/notification"
	"github.com/leduxro-prog/erp-core/pkg/persistence/file"
	"github.com/leduxro-prog/erp-core/pkg/reservation"
	"github.com/leduxro-prog/erp-core/pkg/services"
	"github.com/leduxro-prog/erp-core/pkg/workflow"
)

const templateDocument = `{
	"name": "Purchase Order Approval",
	"entity_type": "purchase_order",
	"created_by": "user-admin",
	"is_active": true,
	"steps": [
		{"id": "step-a", "name": "Manager Review", "approver_id": "user-mgr", "timeout_hours": 24},
		{"id": "step-b", "name": "Finance Review", "approver_id": "user-fin", "timeout_hours": 48}
	]
}`

func quietEventBus() *mocks.MockEventBus {
	eventBus := &mocks.MockEventBus{}
	eventBus.On("GenerateID").Return("event-1").Maybe()
	eventBus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	return eventBus
}

func newWorkflowService(t *testing.T, clk clock.Clock) *services.Workflow {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	engine := workflow.NewEngine(workflow.Config{
		Persistence: file.NewPersistence(t.TempDir()),
		Clock:       clk,
		Notifier:    notification.NopNotifier{},
		EventBus:    quietEventBus(),
		Logger:      logger,
	})

	return services.NewWorkflow(engine)
}

func startTestInstance(t *testing.T, service *services.Workflow) *models.WorkflowInstance {
	t.Helper()

	template, err := service.CreateTemplate(t.Context(), []byte(templateDocument))
	require.NoError(t, err)

	instance, err := service.StartInstance(t.Context(), services.StartInstanceRequest{
		TemplateID: template.ID,
		EntityType: "purchase_order",
		EntityID:   "po-7",
		CreatedBy:  "user-creator",
	})
	require.NoError(t, err)

	return instance
}

func TestWorkflowService_CreateTemplate_RejectsDocumentWithID(t *testing.T) {
	service := newWorkflowService(t, clock.NewFixed(time.Now().UTC()))

	doc := `{
		"id": "tpl-handpicked",
		"name": "Purchase Order Approval",
		"entity_type": "purchase_order",
		"steps": [{"id": "step-a", "name": "Manager Review", "approver_id": "user-mgr"}]
	}`

	_, err := service.CreateTemplate(t.Context(), []byte(doc))
	require.ErrorIs(t, err, workflow.ErrTemplateDocument)
	assert.True(t, services.IsValidationError(err))
}

func TestWorkflowService_CreateTemplateVersion(t *testing.T) {
	service := newWorkflowService(t, clock.NewFixed(time.Now().UTC()))

	base, err := service.CreateTemplate(t.Context(), []byte(templateDocument))
	require.NoError(t, err)

	next, err := service.CreateTemplateVersion(t.Context(), base.ID, services.NewVersionRequest{
		Steps: []models.TemplateStep{
			{ID: "step-a", Name: "Manager Review", ApproverID: "user-mgr2", TimeoutHours: 12},
		},
	})
	require.NoError(t, err)

	assert.NotEqual(t, base.ID, next.ID)
	assert.Equal(t, 2, next.Version)
	assert.False(t, next.IsActive)
	require.Len(t, next.Steps, 1)

	kept, err := service.Template(t.Context(), base.ID)
	require.NoError(t, err)
	require.Len(t, kept.Steps, 2, "base version stays untouched")
}

func TestWorkflowService_CreateTemplate_InvalidDocument(t *testing.T) {
	service := newWorkflowService(t, clock.NewFixed(time.Now().UTC()))

	_, err := service.CreateTemplate(t.Context(), []byte(`{"name": "x"}`))
	require.Error(t, err)
	assert.True(t, services.IsValidationError(err))
}

func TestWorkflowService_StartInstance_MissingFields(t *testing.T) {
	service := newWorkflowService(t, clock.NewFixed(time.Now().UTC()))

	_, err := service.StartInstance(t.Context(), services.StartInstanceRequest{
		TemplateID: "tpl-1",
	})
	require.ErrorIs(t, err, services.ErrInvalidRequest)
	assert.True(t, services.IsValidationError(err))
}

func TestWorkflowService_RecordDecision_ByApprover(t *testing.T) {
	service := newWorkflowService(t, clock.NewFixed(time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)))
	instance := startTestInstance(t, service)

	updated, err := service.RecordDecision(t.Context(), instance.ID, services.DecisionRequest{
		StepID:   "step-a",
		Decision: "approve",
		ActorID:  "user-mgr",
	})
	require.NoError(t, err)
	assert.Equal(t, "step-b", updated.CurrentStepID)
}

func TestWorkflowService_RecordDecision_UnauthorizedActor(t *testing.T) {
	service := newWorkflowService(t, clock.NewFixed(time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)))
	instance := startTestInstance(t, service)

	_, err := service.RecordDecision(t.Context(), instance.ID, services.DecisionRequest{
		StepID:   "step-a",
		Decision: "approve",
		ActorID:  "user-intruder",
	})
	require.Error(t, err)
	assert.True(t, services.IsNotAuthorized(err))
}

func TestWorkflowService_RecordDecision_ByDelegate(t *testing.T) {
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	service := newWorkflowService(t, clock.NewFixed(now))
	instance := startTestInstance(t, service)

	_, err := service.Delegate(t.Context(), instance.ID, services.DelegateRequest{
		StepID:     "step-a",
		FromUserID: "user-mgr",
		ToUserID:   "user-deputy",
		ExpiresAt:  now.Add(48 * time.Hour),
		Reason:     "vacation",
	})
	require.NoError(t, err)

	updated, err := service.RecordDecision(t.Context(), instance.ID, services.DecisionRequest{
		StepID:   "step-a",
		Decision: "approve",
		ActorID:  "user-deputy",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StepStatusApproved, updated.Steps[0].Status)
	assert.Equal(t, "user-deputy", updated.Steps[0].Decision.ActorID)
}

func TestWorkflowService_RecordDecision_ExpiredDelegateIsRejected(t *testing.T) {
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	clk := clock.NewFixed(now)
	service := newWorkflowService(t, clk)
	instance := startTestInstance(t, service)

	_, err := service.Delegate(t.Context(), instance.ID, services.DelegateRequest{
		StepID:     "step-a",
		FromUserID: "user-mgr",
		ToUserID:   "user-deputy",
		ExpiresAt:  now.Add(time.Hour),
	})
	require.NoError(t, err)

	clk.Advance(2 * time.Hour)

	_, err = service.RecordDecision(t.Context(), instance.ID, services.DecisionRequest{
		StepID:   "step-a",
		Decision: "approve",
		ActorID:  "user-deputy",
	})
	require.Error(t, err)
	assert.True(t, services.IsNotAuthorized(err))
}

func TestWorkflowService_RecordDecision_BadVerdict(t *testing.T) {
	service := newWorkflowService(t, clock.NewFixed(time.Now().UTC()))

	_, err := service.RecordDecision(t.Context(), "inst-1", services.DecisionRequest{
		StepID:   "step-a",
		Decision: "maybe",
		ActorID:  "user-mgr",
	})
	require.ErrorIs(t, err, services.ErrInvalidRequest)
}

func TestWorkflowService_Cancel_RequiresActor(t *testing.T) {
	service := newWorkflowService(t, clock.NewFixed(time.Now().UTC()))

	_, err := service.Cancel(t.Context(), "inst-1", "")
	require.ErrorIs(t, err, services.ErrInvalidRequest)
}

func TestReservationService_Create_Validation(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	checker := inventory.NewMemoryChecker()
	checker.Set(100, "wh-1", 50)

	manager := reservation.NewManager(reservation.Config{
		Persistence: file.NewPersistence(t.TempDir()),
		Inventory:   checker,
		Clock:       clock.NewFixed(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)),
		EventBus:    quietEventBus(),
		Logger:      logger,
	})
	service := services.NewReservation(manager)

	_, err := service.Create(t.Context(), services.CreateReservationRequest{OrderID: "order-1"})
	require.ErrorIs(t, err, services.ErrInvalidRequest)

	created, err := service.Create(t.Context(), services.CreateReservationRequest{
		OrderID: "order-1",
		Items:   []models.ReservationItem{{ProductID: 100, WarehouseID: "wh-1", Quantity: 10}},
	})
	require.NoError(t, err)
	assert.Equal(t, models.ReservationStatusActive, created.Status)

	loaded, err := service.Get(t.Context(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, loaded.ID)
}

func TestServiceErrorClassification(t *testing.T) {
	stateErr := models.NewTransitionError(models.ReservationStatusFulfilled, models.ReservationStatusReleased, models.ErrInvalidState)
	assert.True(t, services.IsStateError(stateErr))
	assert.False(t, services.IsValidationError(stateErr))

	authErr := &services.ServiceError{Op: "RecordDecision", Err: services.ErrNotAuthorized}
	assert.True(t, services.IsNotAuthorized(authErr))
	assert.False(t, services.IsStateError(authErr))
}
