package models

import (
	"fmt"
	"time"
)

// InstanceStatus represents the lifecycle state of a workflow instance.
type InstanceStatus string

const (
	InstanceStatusPending    InstanceStatus = "pending"     // Created, first step awaiting a decision
	InstanceStatusInProgress InstanceStatus = "in_progress" // At least one step decided
	InstanceStatusApproved   InstanceStatus = "approved"    // All steps approved
	InstanceStatusRejected   InstanceStatus = "rejected"    // A step was rejected
	InstanceStatusCancelled  InstanceStatus = "cancelled"   // Caller withdrew the instance
	InstanceStatusEscalated  InstanceStatus = "escalated"   // A step exceeded its timeout
)

// IsTerminal reports whether no further transition is permitted from the status.
func (s InstanceStatus) IsTerminal() bool {
	switch s {
	case InstanceStatusApproved, InstanceStatusRejected, InstanceStatusCancelled, InstanceStatusEscalated:
		return true
	default:
		return false
	}
}

// StepStatus represents the state of one step within an instance.
type StepStatus string

const (
	StepStatusPending  StepStatus = "pending"
	StepStatusApproved StepStatus = "approved"
	StepStatusRejected StepStatus = "rejected"
	StepStatusSkipped  StepStatus = "skipped" // Later step short-circuited by a rejection
)

// Decision is one of the allowed verdicts on a step.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// StepDecision records who decided a step, when, and why.
type StepDecision struct {
	ActorID string    `json:"actor_id" validate:"required"`
	At      time.Time `json:"at"`
	Reason  string    `json:"reason,omitempty"`
}

// StepState is the per-instance state of one template step. It is a tagged
// variant: Decision is present exactly when Status is approved or rejected.
type StepState struct {
	StepID    string        `json:"step_id" validate:"required"`
	Status    StepStatus    `json:"status"`
	StartedAt *time.Time    `json:"started_at,omitempty"`
	Decision  *StepDecision `json:"decision,omitempty"`
}

// Validate enforces the variant invariant at trust boundaries, where step
// states arrive decoded from storage or the wire rather than built in memory.
func (s *StepState) Validate() error {
	decided := s.Status == StepStatusApproved || s.Status == StepStatusRejected

	if decided && s.Decision == nil {
		return fmt.Errorf("step %s: status %s requires a decision record", s.StepID, s.Status)
	}

	if !decided && s.Decision != nil {
		return fmt.Errorf("step %s: status %s must not carry a decision record", s.StepID, s.Status)
	}

	return nil
}

// WorkflowInstance binds a template to one business entity and tracks its
// progress through the template's steps. Exactly one step is active at a time.
type WorkflowInstance struct {
	ID            string         `json:"id"`
	TemplateID    string         `json:"template_id" validate:"required"`
	EntityType    string         `json:"entity_type" validate:"required"`
	EntityID      string         `json:"entity_id"   validate:"required"`
	Steps         []StepState    `json:"steps"       validate:"required,min=1"`
	CurrentStepID string         `json:"current_step_id"`
	Status        InstanceStatus `json:"status"`
	CreatedBy     string         `json:"created_by"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	CompletedAt   *time.Time     `json:"completed_at,omitempty"`
}

// NewWorkflowInstance builds a pending instance from an active template.
func NewWorkflowInstance(template *WorkflowTemplate, entityID, createdBy string, now time.Time) (*WorkflowInstance, error) {
	if !template.IsActive {
		return nil, ErrTemplateInactive
	}

	steps := make([]StepState, len(template.Steps))
	for i, step := range template.Steps {
		steps[i] = StepState{StepID: step.ID, Status: StepStatusPending}
	}

	startedAt := now
	steps[0].StartedAt = &startedAt

	return &WorkflowInstance{
		TemplateID:    template.ID,
		EntityType:    template.EntityType,
		EntityID:      entityID,
		Steps:         steps,
		CurrentStepID: template.Steps[0].ID,
		Status:        InstanceStatusPending,
		CreatedBy:     createdBy,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// Validate checks the instance invariants after decoding from storage:
// currentStepID must refer to a present step and every step state must hold
// the tagged-variant invariant.
func (w *WorkflowInstance) Validate() error {
	for i := range w.Steps {
		if err := w.Steps[i].Validate(); err != nil {
			return err
		}
	}

	if w.Status.IsTerminal() {
		return nil
	}

	if w.StepState(w.CurrentStepID) == nil {
		return fmt.Errorf("current step %s: %w", w.CurrentStepID, ErrStepNotFound)
	}

	return nil
}

// StepState returns the state of the step with the given ID, or nil.
func (w *WorkflowInstance) StepState(stepID string) *StepState {
	for i := range w.Steps {
		if w.Steps[i].StepID == stepID {
			return &w.Steps[i]
		}
	}

	return nil
}

// CurrentStep returns the state of the instance's current step, or nil when
// the instance is terminal.
func (w *WorkflowInstance) CurrentStep() *StepState {
	return w.StepState(w.CurrentStepID)
}

// RecordDecision applies an approve or reject verdict to the given step.
// template supplies the step ordering for advancement.
func (w *WorkflowInstance) RecordDecision(template *WorkflowTemplate, stepID string, decision Decision, actorID, reason string, now time.Time) error {
	if w.Status.IsTerminal() {
		return NewTransitionError(w.Status, w.Status, ErrTerminalInstance)
	}

	if stepID != w.CurrentStepID {
		return fmt.Errorf("step %s, current %s: %w", stepID, w.CurrentStepID, ErrStepMismatch)
	}

	step := w.StepState(stepID)
	if step == nil {
		return fmt.Errorf("step %s: %w", stepID, ErrStepNotFound)
	}

	w.UpdatedAt = now

	if decision == DecisionReject {
		step.Status = StepStatusRejected
		step.Decision = &StepDecision{ActorID: actorID, At: now, Reason: reason}
		w.shortCircuit(stepID)
		w.complete(InstanceStatusRejected, now)

		return nil
	}

	step.Status = StepStatusApproved
	step.Decision = &StepDecision{ActorID: actorID, At: now, Reason: reason}

	nextID := template.NextStepID(stepID)
	if nextID == "" {
		w.complete(InstanceStatusApproved, now)

		return nil
	}

	next := w.StepState(nextID)
	if next == nil {
		return fmt.Errorf("next step %s: %w", nextID, ErrStepNotFound)
	}

	startedAt := now
	next.StartedAt = &startedAt
	w.CurrentStepID = nextID
	w.Status = InstanceStatusInProgress

	return nil
}

// Escalate marks the instance escalated after its current step exceeded its
// timeout. What happens to the approval afterwards is a policy decision made
// by collaborators, not here.
func (w *WorkflowInstance) Escalate(now time.Time) error {
	if w.Status.IsTerminal() {
		return NewTransitionError(w.Status, InstanceStatusEscalated, ErrTerminalInstance)
	}

	w.complete(InstanceStatusEscalated, now)

	return nil
}

// Cancel withdraws the instance. Permitted from any non-terminal status.
func (w *WorkflowInstance) Cancel(now time.Time) error {
	if w.Status.IsTerminal() {
		return NewTransitionError(w.Status, InstanceStatusCancelled, ErrTerminalInstance)
	}

	w.complete(InstanceStatusCancelled, now)

	return nil
}

// StepStalled reports whether the current step has been pending longer than
// its template-configured timeout at the given time.
func (w *WorkflowInstance) StepStalled(template *WorkflowTemplate, now time.Time) bool {
	if w.Status.IsTerminal() {
		return false
	}

	step := w.CurrentStep()
	if step == nil || step.StartedAt == nil {
		return false
	}

	def := template.StepByID(step.StepID)
	if def == nil || def.TimeoutHours == 0 {
		return false
	}

	return now.Sub(*step.StartedAt) > def.Timeout()
}

func (w *WorkflowInstance) shortCircuit(afterStepID string) {
	seen := false

	for i := range w.Steps {
		if w.Steps[i].StepID == afterStepID {
			seen = true

			continue
		}

		if seen && w.Steps[i].Status == StepStatusPending {
			w.Steps[i].Status = StepStatusSkipped
		}
	}
}

func (w *WorkflowInstance) complete(status InstanceStatus, now time.Time) {
	w.Status = status
	w.UpdatedAt = now
	completedAt := now
	w.CompletedAt = &completedAt
}
