package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/leduxro-prog/erp-core/pkg/inventory"
	"github.com/leduxro-prog/erp-core/pkg/mocks"
	"github.com/leduxro-prog/erp-core/pkg/models"
	"github.com/leduxro-prog/erp-core/pkg/persistence/file"
)

func setupTestApp(tempDir string) *fiber.App {
	eventBus := &mocks.MockEventBus{}
	eventBus.On("GenerateID").Return("event-1").Maybe()
	eventBus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	checker := inventory.NewMemoryChecker()
	checker.Set(100, "wh-1", 1000)

	api := NewAPI(
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		file.NewPersistence(tempDir),
		checker,
		eventBus,
	)

	return api.App()
}

func closeBody(t *testing.T, resp *http.Response) {
	t.Helper()

	err := resp.Body.Close()
	if err != nil {
		t.Logf("Failed to close response body: %v", err)
	}
}

func TestAPI_RootEndpoint(t *testing.T) {
	app := setupTestApp(t.TempDir())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer closeBody(t, resp)

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "ERP Core API", string(body))
}

func TestAPI_HealthCheck(t *testing.T) {
	app := setupTestApp(t.TempDir())

	req := httptest.NewRequest(http.MethodGet, "/livez", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer closeBody(t, resp)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAPI_CreateAndGetReservation(t *testing.T) {
	app := setupTestApp(t.TempDir())

	payload := `{
		"order_id": "order-1",
		"items": [{"product_id": 100, "warehouse_id": "wh-1", "quantity": 10}]
	}`

	req := httptest.NewRequest(http.MethodPost, "/reservations/", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer closeBody(t, resp)

	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var created models.StockReservation

	err = json.NewDecoder(resp.Body).Decode(&created)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, models.ReservationStatusActive, created.Status)

	getReq := httptest.NewRequest(http.MethodGet, "/reservations/"+created.ID, nil)
	getResp, err := app.Test(getReq)
	require.NoError(t, err)

	defer closeBody(t, getResp)

	assert.Equal(t, http.StatusOK, getResp.StatusCode)

	var loaded models.StockReservation

	err = json.NewDecoder(getResp.Body).Decode(&loaded)
	require.NoError(t, err)
	assert.Equal(t, created.ID, loaded.ID)
}

func TestAPI_CreateReservation_InvalidPayload(t *testing.T) {
	app := setupTestApp(t.TempDir())

	req := httptest.NewRequest(http.MethodPost, "/reservations/", strings.NewReader(`{"order_id": "order-1"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer closeBody(t, resp)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_CreateReservation_InsufficientStock(t *testing.T) {
	app := setupTestApp(t.TempDir())

	payload := `{
		"order_id": "order-1",
		"items": [{"product_id": 100, "warehouse_id": "wh-1", "quantity": 99999}]
	}`

	req := httptest.NewRequest(http.MethodPost, "/reservations/", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer closeBody(t, resp)

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAPI_GetReservation_NotFound(t *testing.T) {
	app := setupTestApp(t.TempDir())

	req := httptest.NewRequest(http.MethodGet, "/reservations/missing", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer closeBody(t, resp)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_FulfillReservation(t *testing.T) {
	app := setupTestApp(t.TempDir())

	payload := `{
		"order_id": "order-1",
		"items": [{"product_id": 100, "warehouse_id": "wh-1", "quantity": 10}]
	}`

	req := httptest.NewRequest(http.MethodPost, "/reservations/", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer closeBody(t, resp)

	var created models.StockReservation
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))

	fulfillReq := httptest.NewRequest(http.MethodPost, "/reservations/"+created.ID+"/fulfill", nil)
	fulfillResp, err := app.Test(fulfillReq)
	require.NoError(t, err)

	defer closeBody(t, fulfillResp)

	assert.Equal(t, http.StatusOK, fulfillResp.StatusCode)

	// Releasing a fulfilled reservation is a state conflict.
	releaseReq := httptest.NewRequest(http.MethodPost, "/reservations/"+created.ID+"/release", nil)
	releaseResp, err := app.Test(releaseReq)
	require.NoError(t, err)

	defer closeBody(t, releaseResp)

	assert.Equal(t, http.StatusConflict, releaseResp.StatusCode)
}

func TestAPI_TemplateAndInstanceLifecycle(t *testing.T) {
	app := setupTestApp(t.TempDir())

	templatePayload := `{
		"name": "Purchase Order Approval",
		"entity_type": "purchase_order",
		"created_by": "user-admin",
		"is_active": true,
		"steps": [
			{"id": "step-a", "name": "Manager Review", "approver_id": "user-mgr", "timeout_hours": 24}
		]
	}`

	req := httptest.NewRequest(http.MethodPost, "/workflow-templates/", strings.NewReader(templatePayload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer closeBody(t, resp)

	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var template models.WorkflowTemplate
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&template))
	assert.NotEmpty(t, template.ID)

	listReq := httptest.NewRequest(http.MethodGet, "/workflow-templates/?entity_type=purchase_order", nil)
	listResp, err := app.Test(listReq)
	require.NoError(t, err)

	defer closeBody(t, listResp)

	assert.Equal(t, http.StatusOK, listResp.StatusCode)

	var listBody struct {
		Templates  []models.WorkflowTemplate `json:"templates"`
		TotalCount int                       `json:"total_count"`
	}
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&listBody))
	require.Len(t, listBody.Templates, 1)
	assert.Equal(t, 1, listBody.TotalCount)

	startPayload := `{
		"template_id": "` + template.ID + `",
		"entity_type": "purchase_order",
		"entity_id": "po-7",
		"created_by": "user-creator"
	}`

	startReq := httptest.NewRequest(http.MethodPost, "/workflow-instances/", strings.NewReader(startPayload))
	startReq.Header.Set("Content-Type", "application/json")
	startResp, err := app.Test(startReq)
	require.NoError(t, err)

	defer closeBody(t, startResp)

	require.Equal(t, http.StatusCreated, startResp.StatusCode)

	var instance models.WorkflowInstance
	require.NoError(t, json.NewDecoder(startResp.Body).Decode(&instance))
	assert.Equal(t, models.InstanceStatusPending, instance.Status)

	decisionPayload := `{"step_id": "step-a", "decision": "approve", "actor_id": "user-mgr"}`

	decisionReq := httptest.NewRequest(http.MethodPost, "/workflow-instances/"+instance.ID+"/decisions", strings.NewReader(decisionPayload))
	decisionReq.Header.Set("Content-Type", "application/json")
	decisionResp, err := app.Test(decisionReq)
	require.NoError(t, err)

	defer closeBody(t, decisionResp)

	require.Equal(t, http.StatusOK, decisionResp.StatusCode)

	var decided models.WorkflowInstance
	require.NoError(t, json.NewDecoder(decisionResp.Body).Decode(&decided))
	assert.Equal(t, models.InstanceStatusApproved, decided.Status)

	analyticsReq := httptest.NewRequest(http.MethodGet, "/workflow-templates/"+template.ID+"/analytics", nil)
	analyticsResp, err := app.Test(analyticsReq)
	require.NoError(t, err)

	defer closeBody(t, analyticsResp)

	assert.Equal(t, http.StatusOK, analyticsResp.StatusCode)

	var analyticsBody struct {
		Records    []models.WorkflowAnalytics `json:"records"`
		TotalCount int                        `json:"total_count"`
	}
	require.NoError(t, json.NewDecoder(analyticsResp.Body).Decode(&analyticsBody))
	require.Len(t, analyticsBody.Records, 1)
	assert.Equal(t, models.OutcomeApproved, analyticsBody.Records[0].Outcome)
}

func TestAPI_CreateTemplate_RejectsCallerID(t *testing.T) {
	app := setupTestApp(t.TempDir())

	payload := `{
		"id": "tpl-handpicked",
		"name": "Purchase Order Approval",
		"entity_type": "purchase_order",
		"steps": [
			{"id": "step-a", "name": "Manager Review", "approver_id": "user-mgr"}
		]
	}`

	req := httptest.NewRequest(http.MethodPost, "/workflow-templates/", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer closeBody(t, resp)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_CreateTemplateVersion(t *testing.T) {
	app := setupTestApp(t.TempDir())

	templatePayload := `{
		"name": "Purchase Order Approval",
		"entity_type": "purchase_order",
		"created_by": "user-admin",
		"is_active": true,
		"steps": [
			{"id": "step-a", "name": "Manager Review", "approver_id": "user-mgr", "timeout_hours": 24}
		]
	}`

	req := httptest.NewRequest(http.MethodPost, "/workflow-templates/", strings.NewReader(templatePayload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer closeBody(t, resp)

	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var base models.WorkflowTemplate
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&base))

	versionPayload := `{
		"steps": [
			{"id": "step-a", "name": "Manager Review", "approver_id": "user-mgr2", "timeout_hours": 12}
		]
	}`

	versionReq := httptest.NewRequest(http.MethodPost, "/workflow-templates/"+base.ID+"/versions", strings.NewReader(versionPayload))
	versionReq.Header.Set("Content-Type", "application/json")
	versionResp, err := app.Test(versionReq)
	require.NoError(t, err)

	defer closeBody(t, versionResp)

	require.Equal(t, http.StatusCreated, versionResp.StatusCode)

	var next models.WorkflowTemplate
	require.NoError(t, json.NewDecoder(versionResp.Body).Decode(&next))
	assert.NotEqual(t, base.ID, next.ID)
	assert.Equal(t, 2, next.Version)
	assert.False(t, next.IsActive)
	require.Len(t, next.Steps, 1)
	assert.Equal(t, "user-mgr2", next.Steps[0].ApproverID)

	baseReq := httptest.NewRequest(http.MethodGet, "/workflow-templates/"+base.ID, nil)
	baseResp, err := app.Test(baseReq)
	require.NoError(t, err)

	defer closeBody(t, baseResp)

	require.Equal(t, http.StatusOK, baseResp.StatusCode)

	var kept models.WorkflowTemplate
	require.NoError(t, json.NewDecoder(baseResp.Body).Decode(&kept))
	assert.Equal(t, 1, kept.Version)
	assert.Equal(t, "user-mgr", kept.Steps[0].ApproverID, "base version stays untouched")
}

func TestAPI_RecordDecision_Unauthorized(t *testing.T) {
	app := setupTestApp(t.TempDir())

	templatePayload := `{
		"name": "Purchase Order Approval",
		"entity_type": "purchase_order",
		"created_by": "user-admin",
		"is_active": true,
		"steps": [
			{"id": "step-a", "name": "Manager Review", "approver_id": "user-mgr", "timeout_hours": 24}
		]
	}`

	req := httptest.NewRequest(http.MethodPost, "/workflow-templates/", strings.NewReader(templatePayload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer closeBody(t, resp)

	var template models.WorkflowTemplate
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&template))

	startPayload := `{
		"template_id": "` + template.ID + `",
		"entity_type": "purchase_order",
		"entity_id": "po-7",
		"created_by": "user-creator"
	}`

	startReq := httptest.NewRequest(http.MethodPost, "/workflow-instances/", strings.NewReader(startPayload))
	startReq.Header.Set("Content-Type", "application/json")
	startResp, err := app.Test(startReq)
	require.NoError(t, err)

	defer closeBody(t, startResp)

	var instance models.WorkflowInstance
	require.NoError(t, json.NewDecoder(startResp.Body).Decode(&instance))

	decisionPayload := `{"step_id": "step-a", "decision": "approve", "actor_id": "user-intruder"}`

	decisionReq := httptest.NewRequest(http.MethodPost, "/workflow-instances/"+instance.ID+"/decisions", strings.NewReader(decisionPayload))
	decisionReq.Header.Set("Content-Type", "application/json")
	decisionResp, err := app.Test(decisionReq)
	require.NoError(t, err)

	defer closeBody(t, decisionResp)

	assert.Equal(t, http.StatusForbidden, decisionResp.StatusCode)
}
