package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/Singh4599/techno-sapiens/internal/repository"
	"github.com/Singh4599/techno-sapiens/internal/service"
	"github.com/Singh4599/techno-sapiens/pkg/response"
)

type RegistrationHandler struct {
	eventService        service.EventService
	registrationService service.RegistrationService
	profiles            repository.ProfileRepository
}

func NewRegistrationHandler(
	eventService service.EventService,
	registrationService service.RegistrationService,
	profiles repository.ProfileRepository,
) *RegistrationHandler {
	return &RegistrationHandler{
		eventService:        eventService,
		registrationService: registrationService,
		profiles:            profiles,
	}
}

type RegisterRequest struct {
	TeamSize int                       `json:"team_size" binding:"required,min=1"`
	TeamName string                    `json:"team_name"`
	Members  []service.TeamMemberInput `json:"members"`
}

// Register handles POST /events/:slug/register. The JWTAuth middleware has
// already gated identity; here the caller profile is resolved and the
// engine runs.
func (h *RegistrationHandler) Register(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "not authenticated")
		return
	}

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	event, err := h.eventService.PublishedBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.NotFound(c, "event not found")
			return
		}
		response.InternalError(c, "failed to load event")
		return
	}

	profile, err := h.profiles.GetByID(c.Request.Context(), userID)
	if err != nil {
		response.Unauthorized(c, "profile not found")
		return
	}
	caller := service.Caller{
		ID:       profile.ID,
		Email:    profile.Email,
		FullName: profile.FullName,
		Phone:    profile.Phone,
	}

	reg, err := h.registrationService.Register(c.Request.Context(), event.ID, caller, service.RegisterInput{
		TeamSize:       req.TeamSize,
		TeamName:       req.TeamName,
		Members:        req.Members,
		IdempotencyKey: c.GetHeader("Idempotency-Key"),
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrEventClosed):
			response.Conflict(c, "event is not open for registration")
		case errors.Is(err, service.ErrInvalidTeamSize):
			response.BadRequest(c, err.Error())
		case errors.Is(err, service.ErrInvalidTeamData):
			response.BadRequest(c, err.Error())
		case errors.Is(err, repository.ErrAlreadyRegistered):
			response.Conflict(c, "already registered for this event")
		case errors.Is(err, repository.ErrEventFull):
			response.Conflict(c, "event is full")
		case errors.Is(err, repository.ErrNotFound):
			response.NotFound(c, "event not found")
		default:
			response.InternalError(c, "registration failed, please retry")
		}
		return
	}

	response.Created(c, reg)
}

// MyRegistrations handles GET /registrations for the authenticated caller.
func (h *RegistrationHandler) MyRegistrations(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "not authenticated")
		return
	}

	regs, err := h.registrationService.MyRegistrations(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c, "failed to list registrations")
		return
	}
	response.Success(c, regs)
}
