package models

import "time"

// WorkflowDelegation is a time-boxed grant letting another user decide a
// specific step on behalf of its configured approver. It never outlives the
// instance it modifies.
type WorkflowDelegation struct {
	ID         string    `json:"id"`
	InstanceID string    `json:"instance_id"  validate:"required"`
	StepID     string    `json:"step_id"      validate:"required"`
	FromUserID string    `json:"from_user_id" validate:"required"`
	ToUserID   string    `json:"to_user_id"   validate:"required"`
	Reason     string    `json:"reason,omitempty"`
	ExpiresAt  time.Time `json:"expires_at"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewWorkflowDelegation creates an active delegation. The expiry must be in
// the future at creation time.
func NewWorkflowDelegation(instanceID, stepID, fromUserID, toUserID, reason string, expiresAt, now time.Time) (*WorkflowDelegation, error) {
	if !expiresAt.After(now) {
		return nil, ErrDelegationExpiry
	}

	return &WorkflowDelegation{
		InstanceID: instanceID,
		StepID:     stepID,
		FromUserID: fromUserID,
		ToUserID:   toUserID,
		Reason:     reason,
		ExpiresAt:  expiresAt,
		IsActive:   true,
		CreatedAt:  now,
	}, nil
}

// InEffect reports whether the delegation authorizes the delegate at the
// given time: still flagged active and not yet expired.
func (d *WorkflowDelegation) InEffect(now time.Time) bool {
	return d.IsActive && now.Before(d.ExpiresAt)
}

// Revoke deactivates the delegation. Idempotent.
func (d *WorkflowDelegation) Revoke() {
	d.IsActive = false
}
