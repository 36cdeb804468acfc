package models

import "time"

// AnalyticsOutcome is the terminal outcome recorded for a completed instance.
type AnalyticsOutcome string

const (
	OutcomeApproved  AnalyticsOutcome = "approved"
	OutcomeRejected  AnalyticsOutcome = "rejected"
	OutcomeCancelled AnalyticsOutcome = "cancelled"
	OutcomeEscalated AnalyticsOutcome = "escalated"
)

// WorkflowAnalytics is an append-only record of how a workflow instance
// finished, for reporting. Never mutated after creation, so it is written
// outside the state machine's conditional-update guard.
type WorkflowAnalytics struct {
	ID            string           `json:"id"`
	InstanceID    string           `json:"instance_id"`
	TemplateID    string           `json:"template_id"`
	EntityType    string           `json:"entity_type"`
	Outcome       AnalyticsOutcome `json:"outcome"`
	Duration      time.Duration    `json:"duration"`
	StepsTotal    int              `json:"steps_total"`
	StepsApproved int              `json:"steps_approved"`
	RecordedAt    time.Time        `json:"recorded_at"`
}

// NewWorkflowAnalytics derives an analytics record from a finished instance.
func NewWorkflowAnalytics(instance *WorkflowInstance, outcome AnalyticsOutcome, now time.Time) *WorkflowAnalytics {
	approved := 0

	for i := range instance.Steps {
		if instance.Steps[i].Status == StepStatusApproved {
			approved++
		}
	}

	return &WorkflowAnalytics{
		InstanceID:    instance.ID,
		TemplateID:    instance.TemplateID,
		EntityType:    instance.EntityType,
		Outcome:       outcome,
		Duration:      now.Sub(instance.CreatedAt),
		StepsTotal:    len(instance.Steps),
		StepsApproved: approved,
		RecordedAt:    now,
	}
}
