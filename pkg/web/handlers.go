// Package web provides HTTP handlers and REST API endpoints for reservations
// and approval workflows.
package web

import (
	"github.com/gofiber/fiber/v3"

	"github.com/leduxro-prog/erp-core/pkg/services"
)

type APIHandlers struct {
	reservationService *services.Reservation
	workflowService    *services.Workflow
}

func NewAPIHandlers(
	reservationService *services.Reservation,
	workflowService *services.Workflow,
) *APIHandlers {
	return &APIHandlers{
		reservationService: reservationService,
		workflowService:    workflowService,
	}
}

func (h *APIHandlers) CreateReservation(c fiber.Ctx) error {
	var req services.CreateReservationRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	reservation, err := h.reservationService.Create(c.Context(), req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(reservation)
}

func (h *APIHandlers) GetReservation(c fiber.Ctx) error {
	reservation, err := h.reservationService.Get(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(reservation)
}

func (h *APIHandlers) FulfillReservation(c fiber.Ctx) error {
	reservation, err := h.reservationService.Fulfill(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(reservation)
}

func (h *APIHandlers) ReleaseReservation(c fiber.Ctx) error {
	reservation, err := h.reservationService.Release(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(reservation)
}

func (h *APIHandlers) CreateTemplate(c fiber.Ctx) error {
	template, err := h.workflowService.CreateTemplate(c.Context(), c.Body())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(template)
}

func (h *APIHandlers) CreateTemplateVersion(c fiber.Ctx) error {
	var req services.NewVersionRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	template, err := h.workflowService.CreateTemplateVersion(c.Context(), c.Params("id"), req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(template)
}

func (h *APIHandlers) GetTemplate(c fiber.Ctx) error {
	template, err := h.workflowService.Template(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(template)
}

func (h *APIHandlers) ListTemplates(c fiber.Ctx) error {
	templates, err := h.workflowService.Templates(c.Context(), c.Query("entity_type"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"templates":   templates,
		"total_count": len(templates),
	})
}

func (h *APIHandlers) GetTemplateAnalytics(c fiber.Ctx) error {
	records, err := h.workflowService.Analytics(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"records":     records,
		"total_count": len(records),
	})
}

func (h *APIHandlers) StartInstance(c fiber.Ctx) error {
	var req services.StartInstanceRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	instance, err := h.workflowService.StartInstance(c.Context(), req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(instance)
}

func (h *APIHandlers) GetInstance(c fiber.Ctx) error {
	instance, err := h.workflowService.Instance(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(instance)
}

func (h *APIHandlers) RecordDecision(c fiber.Ctx) error {
	var req services.DecisionRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	instance, err := h.workflowService.RecordDecision(c.Context(), c.Params("id"), req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(instance)
}

func (h *APIHandlers) Delegate(c fiber.Ctx) error {
	var req services.DelegateRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	delegation, err := h.workflowService.Delegate(c.Context(), c.Params("id"), req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(delegation)
}

func (h *APIHandlers) GetActiveDelegate(c fiber.Ctx) error {
	delegation, err := h.workflowService.ActiveDelegate(c.Context(), c.Params("id"), c.Params("stepId"))
	if err != nil {
		return handleServiceError(c, err)
	}

	if delegation == nil {
		return notFound(c, "no active delegation for step")
	}

	return c.JSON(delegation)
}

func (h *APIHandlers) CancelInstance(c fiber.Ctx) error {
	var req struct {
		ActorID string `json:"actor_id"`
	}

	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	instance, err := h.workflowService.Cancel(c.Context(), c.Params("id"), req.ActorID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(instance)
}
