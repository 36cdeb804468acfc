package models

import "time"

// TemplateStep is one ordered approval step in a workflow template.
type TemplateStep struct {
	ID         string `json:"id"          validate:"required"`
	Name       string `json:"name"        validate:"required"`
	ApproverID string `json:"approver_id" validate:"required"`

	// TimeoutHours bounds how long the step may stay pending before the sweep
	// escalates the instance. Zero disables escalation for the step.
	TimeoutHours int `json:"timeout_hours" validate:"gte=0"`
}

// Timeout returns the step's escalation window as a duration.
func (s TemplateStep) Timeout() time.Duration {
	return time.Duration(s.TimeoutHours) * time.Hour
}

// WorkflowTemplate is a named, versioned definition of an ordered approval
// process for one entity type. Published versions are immutable; edits create
// a new version via NewVersion.
type WorkflowTemplate struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"        validate:"required,min=3"`
	EntityType string         `json:"entity_type" validate:"required"`
	Version    int            `json:"version"     validate:"gte=1"`
	Steps      []TemplateStep `json:"steps"       validate:"required,min=1,dive"`
	IsActive   bool           `json:"is_active"`
	CreatedBy  string         `json:"created_by"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// StepByID returns the template step with the given ID, or nil.
func (t *WorkflowTemplate) StepByID(stepID string) *TemplateStep {
	for i := range t.Steps {
		if t.Steps[i].ID == stepID {
			return &t.Steps[i]
		}
	}

	return nil
}

// NextStepID returns the ID of the step following stepID in template order,
// or an empty string when stepID is the last step.
func (t *WorkflowTemplate) NextStepID(stepID string) string {
	for i := range t.Steps {
		if t.Steps[i].ID == stepID && i+1 < len(t.Steps) {
			return t.Steps[i+1].ID
		}
	}

	return ""
}

// NewVersion returns a copy of the template with the version bumped and
// timestamps reset. The copy starts inactive until explicitly activated.
func (t *WorkflowTemplate) NewVersion(now time.Time) *WorkflowTemplate {
	next := *t
	next.ID = ""
	next.Version = t.Version + 1
	next.IsActive = false
	next.CreatedAt = now
	next.UpdatedAt = now
	next.Steps = make([]TemplateStep, len(t.Steps))
	copy(next.Steps, t.Steps)

	return &next
}
