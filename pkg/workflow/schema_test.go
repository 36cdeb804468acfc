package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeTemplateDocument(t *testing.T) {
	raw := []byte(`{
		"name": "Purchase Order Approval",
		"entity_type": "purchase_order",
		"created_by": "user-admin",
		"is_active": true,
		"steps": [
			{"id": "step-a", "name": "Manager Review", "approver_id": "user-mgr", "timeout_hours": 24},
			{"id": "step-b", "name": "Finance Review", "approver_id": "user-fin"}
		]
	}`)

	template, err := DecodeTemplateDocument(raw)
	require.NoError(t, err)

	assert.Equal(t, "Purchase Order Approval", template.Name)
	assert.Equal(t, "purchase_order", template.EntityType)
	require.Len(t, template.Steps, 2)
	assert.Equal(t, 24, template.Steps[0].TimeoutHours)
	assert.Zero(t, template.Steps[1].TimeoutHours)
	assert.True(t, template.IsActive)
}

func TestDecodeTemplateDocument_RejectsID(t *testing.T) {
	raw := []byte(`{
		"id": "tpl-handpicked",
		"name": "Purchase Order Approval",
		"entity_type": "purchase_order",
		"steps": [
			{"id": "step-a", "name": "Manager Review", "approver_id": "user-mgr"}
		]
	}`)

	_, err := DecodeTemplateDocument(raw)
	require.ErrorIs(t, err, ErrTemplateDocument)
}

func TestDecodeTemplateDocument_MissingSteps(t *testing.T) {
	raw := []byte(`{"name": "Purchase Order Approval", "entity_type": "purchase_order"}`)

	_, err := DecodeTemplateDocument(raw)
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestDecodeTemplateDocument_ShortName(t *testing.T) {
	raw := []byte(`{
		"name": "ab",
		"entity_type": "purchase_order",
		"steps": [{"id": "s1", "name": "Review", "approver_id": "user-1"}]
	}`)

	_, err := DecodeTemplateDocument(raw)
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestDecodeTemplateDocument_StepMissingApprover(t *testing.T) {
	raw := []byte(`{
		"name": "Purchase Order Approval",
		"entity_type": "purchase_order",
		"steps": [{"id": "s1", "name": "Review"}]
	}`)

	_, err := DecodeTemplateDocument(raw)
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestDecodeTemplateDocument_DuplicateStepIDs(t *testing.T) {
	raw := []byte(`{
		"name": "Purchase Order Approval",
		"entity_type": "purchase_order",
		"steps": [
			{"id": "s1", "name": "Review", "approver_id": "user-1"},
			{"id": "s1", "name": "Second Review", "approver_id": "user-2"}
		]
	}`)

	_, err := DecodeTemplateDocument(raw)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTemplateDocument)
}

func TestDecodeTemplateDocument_NotJSON(t *testing.T) {
	_, err := DecodeTemplateDocument([]byte("not json"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTemplateDocument)
}
