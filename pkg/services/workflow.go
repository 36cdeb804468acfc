package services

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/leduxro-prog/erp-core/pkg/models"
	"github.com/leduxro-prog/erp-core/pkg/workflow"
)

// StartInstanceRequest binds a template to a business entity.
type StartInstanceRequest struct {
	TemplateID string `json:"template_id" validate:"required"`
	EntityType string `json:"entity_type" validate:"required"`
	EntityID   string `json:"entity_id"   validate:"required"`
	CreatedBy  string `json:"created_by"  validate:"required"`
}

// DecisionRequest records an approve or reject verdict on a step.
type DecisionRequest struct {
	StepID   string `json:"step_id"  validate:"required"`
	Decision string `json:"decision" validate:"required,oneof=approve reject"`
	ActorID  string `json:"actor_id" validate:"required"`
	Reason   string `json:"reason,omitempty"`
}

// DelegateRequest grants another user decision rights on a step.
type DelegateRequest struct {
	StepID     string    `json:"step_id"      validate:"required"`
	FromUserID string    `json:"from_user_id" validate:"required"`
	ToUserID   string    `json:"to_user_id"   validate:"required"`
	ExpiresAt  time.Time `json:"expires_at"   validate:"required"`
	Reason     string    `json:"reason,omitempty"`
}

// Workflow is the service layer in front of the workflow engine. It owns the
// authorization check the engine deliberately leaves to callers: a decision
// actor must be the step's configured approver or an active delegate.
type Workflow struct {
	engine    *workflow.Engine
	validator *validator.Validate
}

func NewWorkflow(engine *workflow.Engine) *Workflow {
	return &Workflow{
		engine:    engine,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// CreateTemplate validates a raw template document and persists it.
func (s *Workflow) CreateTemplate(ctx context.Context, raw []byte) (*models.WorkflowTemplate, error) {
	template, err := workflow.DecodeTemplateDocument(raw)
	if err != nil {
		return nil, err
	}

	return s.engine.CreateTemplate(ctx, template)
}

// NewVersionRequest carries optional replacement steps for the next version
// of a template. Omitted steps mean the new version keeps the base's.
type NewVersionRequest struct {
	Steps []models.TemplateStep `json:"steps,omitempty" validate:"omitempty,min=1,dive"`
}

// CreateTemplateVersion derives the next version of an existing template.
// Published versions are immutable, so this is the only edit path.
func (s *Workflow) CreateTemplateVersion(ctx context.Context, templateID string, req NewVersionRequest) (*models.WorkflowTemplate, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	return s.engine.NewTemplateVersion(ctx, templateID, req.Steps)
}

func (s *Workflow) Template(ctx context.Context, id string) (*models.WorkflowTemplate, error) {
	return s.engine.Template(ctx, id)
}

func (s *Workflow) Templates(ctx context.Context, entityType string) ([]*models.WorkflowTemplate, error) {
	return s.engine.Templates(ctx, entityType)
}

func (s *Workflow) StartInstance(ctx context.Context, req StartInstanceRequest) (*models.WorkflowInstance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	return s.engine.StartInstance(ctx, req.TemplateID, req.EntityType, req.EntityID, req.CreatedBy)
}

func (s *Workflow) Instance(ctx context.Context, id string) (*models.WorkflowInstance, error) {
	return s.engine.Instance(ctx, id)
}

// RecordDecision authorizes the actor against the step's approver and any
// active delegation, then forwards the verdict to the engine.
func (s *Workflow) RecordDecision(ctx context.Context, instanceID string, req DecisionRequest) (*models.WorkflowInstance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	if err := s.authorizeActor(ctx, instanceID, req.StepID, req.ActorID); err != nil {
		return nil, err
	}

	return s.engine.RecordDecision(ctx, instanceID, req.StepID, models.Decision(req.Decision), req.ActorID, req.Reason)
}

func (s *Workflow) Delegate(ctx context.Context, instanceID string, req DelegateRequest) (*models.WorkflowDelegation, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	return s.engine.Delegate(ctx, instanceID, req.StepID, req.FromUserID, req.ToUserID, req.ExpiresAt, req.Reason)
}

func (s *Workflow) ActiveDelegate(ctx context.Context, instanceID, stepID string) (*models.WorkflowDelegation, error) {
	return s.engine.ActiveDelegate(ctx, instanceID, stepID)
}

func (s *Workflow) Cancel(ctx context.Context, instanceID, actorID string) (*models.WorkflowInstance, error) {
	if actorID == "" {
		return nil, fmt.Errorf("%w: actor_id is required", ErrInvalidRequest)
	}

	return s.engine.Cancel(ctx, instanceID, actorID)
}

func (s *Workflow) Analytics(ctx context.Context, templateID string) ([]*models.WorkflowAnalytics, error) {
	return s.engine.Analytics(ctx, templateID)
}

func (s *Workflow) authorizeActor(ctx context.Context, instanceID, stepID, actorID string) error {
	instance, err := s.engine.Instance(ctx, instanceID)
	if err != nil {
		return err
	}

	template, err := s.engine.Template(ctx, instance.TemplateID)
	if err != nil {
		return err
	}

	step := template.StepByID(stepID)
	if step != nil && step.ApproverID == actorID {
		return nil
	}

	delegation, err := s.engine.ActiveDelegate(ctx, instanceID, stepID)
	if err != nil {
		return err
	}

	if delegation != nil && delegation.ToUserID == actorID {
		return nil
	}

	return &ServiceError{Op: "RecordDecision", Err: ErrNotAuthorized}
}
