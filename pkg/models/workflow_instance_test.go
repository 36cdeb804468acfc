package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoStepTemplate() *WorkflowTemplate {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	return &WorkflowTemplate{
		ID:         "tpl-1",
		Name:       "Purchase Order Approval",
		EntityType: "purchase_order",
		Version:    1,
		Steps: []TemplateStep{
			{ID: "step-a", Name: "Manager Review", ApproverID: "user-mgr", TimeoutHours: 24},
			{ID: "step-b", Name: "Finance Review", ApproverID: "user-fin", TimeoutHours: 48},
		},
		IsActive:  true,
		CreatedBy: "user-admin",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestNewWorkflowInstance(t *testing.T) {
	template := twoStepTemplate()
	now := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)

	instance, err := NewWorkflowInstance(template, "po-99", "user-creator", now)
	require.NoError(t, err)

	assert.Equal(t, InstanceStatusPending, instance.Status)
	assert.Equal(t, "step-a", instance.CurrentStepID)
	assert.Equal(t, "purchase_order", instance.EntityType)
	require.Len(t, instance.Steps, 2)
	assert.Equal(t, StepStatusPending, instance.Steps[0].Status)
	require.NotNil(t, instance.Steps[0].StartedAt, "first step starts immediately")
	assert.Equal(t, now, *instance.Steps[0].StartedAt)
	assert.Nil(t, instance.Steps[1].StartedAt)
	assert.NoError(t, instance.Validate())
}

func TestNewWorkflowInstance_InactiveTemplate(t *testing.T) {
	template := twoStepTemplate()
	template.IsActive = false

	_, err := NewWorkflowInstance(template, "po-99", "user-creator", time.Now().UTC())
	require.ErrorIs(t, err, ErrTemplateInactive)
}

func TestWorkflowInstance_ApproveAllSteps(t *testing.T) {
	template := twoStepTemplate()
	now := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)

	instance, err := NewWorkflowInstance(template, "po-99", "user-creator", now)
	require.NoError(t, err)

	err = instance.RecordDecision(template, "step-a", DecisionApprove, "user-mgr", "", now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, InstanceStatusInProgress, instance.Status)
	assert.Equal(t, "step-b", instance.CurrentStepID)
	require.NotNil(t, instance.Steps[1].StartedAt, "advancing stamps the next step's start")
	assert.Equal(t, now.Add(time.Hour), *instance.Steps[1].StartedAt)

	err = instance.RecordDecision(template, "step-b", DecisionApprove, "user-fin", "looks good", now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, InstanceStatusApproved, instance.Status)
	require.NotNil(t, instance.CompletedAt)
	assert.Equal(t, now.Add(2*time.Hour), *instance.CompletedAt)
	assert.NoError(t, instance.Validate())
}

func TestWorkflowInstance_RejectShortCircuits(t *testing.T) {
	template := twoStepTemplate()
	now := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)

	instance, err := NewWorkflowInstance(template, "po-99", "user-creator", now)
	require.NoError(t, err)

	err = instance.RecordDecision(template, "step-a", DecisionReject, "user-mgr", "over budget", now.Add(time.Hour))
	require.NoError(t, err)

	assert.Equal(t, InstanceStatusRejected, instance.Status)
	assert.Equal(t, StepStatusRejected, instance.Steps[0].Status)
	assert.Equal(t, StepStatusSkipped, instance.Steps[1].Status, "later steps are skipped, never decided")
	assert.Nil(t, instance.Steps[1].Decision)
	require.NotNil(t, instance.Steps[0].Decision)
	assert.Equal(t, "user-mgr", instance.Steps[0].Decision.ActorID)
	assert.Equal(t, "over budget", instance.Steps[0].Decision.Reason)
	assert.NoError(t, instance.Validate())
}

func TestWorkflowInstance_RecordDecision_WrongStep(t *testing.T) {
	template := twoStepTemplate()
	now := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)

	instance, err := NewWorkflowInstance(template, "po-99", "user-creator", now)
	require.NoError(t, err)

	err = instance.RecordDecision(template, "step-b", DecisionApprove, "user-fin", "", now)
	require.Error(t, err)
	assert.True(t, IsStepMismatch(err))
	assert.Equal(t, InstanceStatusPending, instance.Status)
}

func TestWorkflowInstance_RecordDecision_Terminal(t *testing.T) {
	template := twoStepTemplate()
	now := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)

	instance, err := NewWorkflowInstance(template, "po-99", "user-creator", now)
	require.NoError(t, err)
	require.NoError(t, instance.Cancel(now.Add(time.Hour)))

	err = instance.RecordDecision(template, "step-a", DecisionApprove, "user-mgr", "", now.Add(2*time.Hour))
	require.Error(t, err)
	assert.True(t, IsTerminalInstance(err))
}

func TestWorkflowInstance_EscalateAndCancel(t *testing.T) {
	template := twoStepTemplate()
	now := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)

	instance, err := NewWorkflowInstance(template, "po-99", "user-creator", now)
	require.NoError(t, err)

	require.NoError(t, instance.Escalate(now.Add(time.Hour)))
	assert.Equal(t, InstanceStatusEscalated, instance.Status)
	require.NotNil(t, instance.CompletedAt)

	err = instance.Cancel(now.Add(2 * time.Hour))
	require.Error(t, err)
	assert.True(t, IsTerminalInstance(err))

	err = instance.Escalate(now.Add(2 * time.Hour))
	require.Error(t, err)
	assert.True(t, IsTerminalInstance(err), "escalation of a terminal instance must fail, not repeat")
}

func TestWorkflowInstance_StepStalled(t *testing.T) {
	template := twoStepTemplate()
	now := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)

	instance, err := NewWorkflowInstance(template, "po-99", "user-creator", now)
	require.NoError(t, err)

	assert.False(t, instance.StepStalled(template, now.Add(23*time.Hour)))
	assert.False(t, instance.StepStalled(template, now.Add(24*time.Hour)), "stalled strictly after the timeout")
	assert.True(t, instance.StepStalled(template, now.Add(24*time.Hour+time.Minute)))

	require.NoError(t, instance.Cancel(now.Add(time.Hour)))
	assert.False(t, instance.StepStalled(template, now.Add(48*time.Hour)), "terminal instances never stall")
}

func TestWorkflowInstance_StepStalled_ZeroTimeout(t *testing.T) {
	template := twoStepTemplate()
	template.Steps[0].TimeoutHours = 0

	now := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)

	instance, err := NewWorkflowInstance(template, "po-99", "user-creator", now)
	require.NoError(t, err)

	assert.False(t, instance.StepStalled(template, now.Add(1000*time.Hour)))
}

func TestStepState_Validate(t *testing.T) {
	decided := &StepDecision{ActorID: "user-1", At: time.Now().UTC()}

	ok := []StepState{
		{StepID: "s1", Status: StepStatusPending},
		{StepID: "s1", Status: StepStatusSkipped},
		{StepID: "s1", Status: StepStatusApproved, Decision: decided},
		{StepID: "s1", Status: StepStatusRejected, Decision: decided},
	}
	for _, state := range ok {
		assert.NoError(t, state.Validate(), "status %s", state.Status)
	}

	bad := []StepState{
		{StepID: "s1", Status: StepStatusApproved},
		{StepID: "s1", Status: StepStatusRejected},
		{StepID: "s1", Status: StepStatusPending, Decision: decided},
		{StepID: "s1", Status: StepStatusSkipped, Decision: decided},
	}
	for _, state := range bad {
		assert.Error(t, state.Validate(), "status %s", state.Status)
	}
}

func TestWorkflowInstance_Validate_UnknownCurrentStep(t *testing.T) {
	template := twoStepTemplate()
	now := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)

	instance, err := NewWorkflowInstance(template, "po-99", "user-creator", now)
	require.NoError(t, err)

	instance.CurrentStepID = "step-z"
	require.ErrorIs(t, instance.Validate(), ErrStepNotFound)
}

func TestWorkflowTemplate_NextStepID(t *testing.T) {
	template := twoStepTemplate()

	assert.Equal(t, "step-b", template.NextStepID("step-a"))
	assert.Empty(t, template.NextStepID("step-b"))
	assert.Empty(t, template.NextStepID("missing"))
}

func TestWorkflowTemplate_NewVersion(t *testing.T) {
	template := twoStepTemplate()
	now := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

	next := template.NewVersion(now)

	assert.Empty(t, next.ID)
	assert.Equal(t, 2, next.Version)
	assert.False(t, next.IsActive)
	assert.Equal(t, template.Name, next.Name)
	require.Len(t, next.Steps, 2)

	next.Steps[0].ApproverID = "user-other"
	assert.Equal(t, "user-mgr", template.Steps[0].ApproverID, "versions must not share step storage")
}

func TestNewWorkflowDelegation(t *testing.T) {
	now := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)

	delegation, err := NewWorkflowDelegation("inst-1", "step-a", "user-mgr", "user-deputy", "vacation", now.Add(48*time.Hour), now)
	require.NoError(t, err)
	assert.True(t, delegation.IsActive)
	assert.True(t, delegation.InEffect(now.Add(time.Hour)))
	assert.False(t, delegation.InEffect(now.Add(48*time.Hour)), "delegation ends at its expiry instant")

	delegation.Revoke()
	assert.False(t, delegation.InEffect(now.Add(time.Hour)))
}

func TestNewWorkflowDelegation_ExpiryNotInFuture(t *testing.T) {
	now := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)

	_, err := NewWorkflowDelegation("inst-1", "step-a", "user-mgr", "user-deputy", "", now, now)
	require.ErrorIs(t, err, ErrDelegationExpiry)

	_, err = NewWorkflowDelegation("inst-1", "step-a", "user-mgr", "user-deputy", "", now.Add(-time.Hour), now)
	require.ErrorIs(t, err, ErrDelegationExpiry)
}

func TestNewWorkflowAnalytics(t *testing.T) {
	template := twoStepTemplate()
	now := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)

	instance, err := NewWorkflowInstance(template, "po-99", "user-creator", now)
	require.NoError(t, err)
	require.NoError(t, instance.RecordDecision(template, "step-a", DecisionApprove, "user-mgr", "", now.Add(time.Hour)))
	require.NoError(t, instance.RecordDecision(template, "step-b", DecisionReject, "user-fin", "no budget", now.Add(3*time.Hour)))

	record := NewWorkflowAnalytics(instance, OutcomeRejected, now.Add(3*time.Hour))

	assert.Equal(t, OutcomeRejected, record.Outcome)
	assert.Equal(t, 3*time.Hour, record.Duration)
	assert.Equal(t, 2, record.StepsTotal)
	assert.Equal(t, 1, record.StepsApproved)
}
