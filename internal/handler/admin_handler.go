package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/Singh4599/techno-sapiens/internal/model"
	"github.com/Singh4599/techno-sapiens/internal/repository"
	"github.com/Singh4599/techno-sapiens/internal/service"
	"github.com/Singh4599/techno-sapiens/pkg/response"
)

type AdminHandler struct {
	eventService        service.EventService
	registrationService service.RegistrationService
}

func NewAdminHandler(eventService service.EventService, registrationService service.RegistrationService) *AdminHandler {
	return &AdminHandler{eventService: eventService, registrationService: registrationService}
}

func (h *AdminHandler) ListEvents(c *gin.Context) {
	events, err := h.eventService.ListAll(c.Request.Context())
	if err != nil {
		response.InternalError(c, "failed to list events")
		return
	}
	response.Success(c, events)
}

func (h *AdminHandler) CreateEvent(c *gin.Context) {
	var req service.EventInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	event, err := h.eventService.Create(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidEvent) {
			response.BadRequest(c, err.Error())
			return
		}
		response.InternalError(c, "failed to create event")
		return
	}
	response.Created(c, event)
}

func (h *AdminHandler) UpdateEvent(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		response.BadRequest(c, "invalid event id")
		return
	}

	var req service.EventInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	event, err := h.eventService.Update(c.Request.Context(), id, req)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			response.NotFound(c, "event not found")
		case errors.Is(err, service.ErrInvalidEvent):
			response.BadRequest(c, err.Error())
		default:
			response.InternalError(c, "failed to update event")
		}
		return
	}
	response.Success(c, event)
}

func (h *AdminHandler) DeleteEvent(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		response.BadRequest(c, "invalid event id")
		return
	}

	if err := h.eventService.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.NotFound(c, "event not found")
			return
		}
		response.InternalError(c, "failed to delete event")
		return
	}
	response.Success(c, gin.H{"deleted": id})
}

func (h *AdminHandler) ListEventRegistrations(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		response.BadRequest(c, "invalid event id")
		return
	}

	regs, err := h.registrationService.ListByEvent(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.NotFound(c, "event not found")
			return
		}
		response.InternalError(c, "failed to list registrations")
		return
	}
	response.Success(c, regs)
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *AdminHandler) UpdateRegistrationStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		response.BadRequest(c, "invalid registration id")
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	reg, err := h.registrationService.UpdateStatus(c.Request.Context(), id, model.RegistrationStatus(req.Status))
	if err != nil {
		h.renderTransitionError(c, err)
		return
	}
	response.Success(c, reg)
}

type UpdatePaymentRequest struct {
	PaymentStatus string `json:"payment_status" binding:"required"`
}

func (h *AdminHandler) UpdateRegistrationPayment(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		response.BadRequest(c, "invalid registration id")
		return
	}

	var req UpdatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	reg, err := h.registrationService.UpdatePaymentStatus(c.Request.Context(), id, model.PaymentStatus(req.PaymentStatus))
	if err != nil {
		h.renderTransitionError(c, err)
		return
	}
	response.Success(c, reg)
}

// DeleteRegistration is the destructive administrative override; normal
// cancellation goes through the status transition instead.
func (h *AdminHandler) DeleteRegistration(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		response.BadRequest(c, "invalid registration id")
		return
	}

	if err := h.registrationService.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.NotFound(c, "registration not found")
			return
		}
		response.InternalError(c, "failed to delete registration")
		return
	}
	response.Success(c, gin.H{"deleted": id})
}

func (h *AdminHandler) renderTransitionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		response.NotFound(c, "registration not found")
	case errors.Is(err, service.ErrInvalidTransition):
		response.Conflict(c, err.Error())
	case errors.Is(err, repository.ErrStaleTransition):
		response.Conflict(c, err.Error())
	default:
		response.InternalError(c, "failed to update registration")
	}
}
