package handler

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/Singh4599/techno-sapiens/internal/repository"
	"github.com/Singh4599/techno-sapiens/internal/service"
	"github.com/Singh4599/techno-sapiens/pkg/response"
)

type EventHandler struct {
	eventService    service.EventService
	capacityService service.CapacityService
}

func NewEventHandler(eventService service.EventService, capacityService service.CapacityService) *EventHandler {
	return &EventHandler{eventService: eventService, capacityService: capacityService}
}

// List returns published events, optionally filtered by ?category=.
func (h *EventHandler) List(c *gin.Context) {
	events, err := h.eventService.ListPublished(c.Request.Context(), c.Query("category"))
	if err != nil {
		response.InternalError(c, "failed to list events")
		return
	}
	response.Success(c, events)
}

func (h *EventHandler) GetBySlug(c *gin.Context) {
	event, err := h.eventService.PublishedBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.NotFound(c, "event not found")
			return
		}
		response.InternalError(c, "failed to load event")
		return
	}
	response.Success(c, event)
}

func (h *EventHandler) Capacity(c *gin.Context) {
	event, err := h.eventService.PublishedBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.NotFound(c, "event not found")
			return
		}
		response.InternalError(c, "failed to load event")
		return
	}

	capacity, err := h.capacityService.CapacityOf(c.Request.Context(), event.ID)
	if err != nil {
		response.InternalError(c, "failed to compute capacity")
		return
	}
	response.Success(c, capacity)
}

// StreamCapacity pushes capacity snapshots over server-sent events so event
// cards update seat counts without polling.
func (h *EventHandler) StreamCapacity(c *gin.Context) {
	event, err := h.eventService.PublishedBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.NotFound(c, "event not found")
			return
		}
		response.InternalError(c, "failed to load event")
		return
	}

	snapshots, err := h.capacityService.Watch(c.Request.Context(), event.ID)
	if err != nil {
		response.InternalError(c, "failed to subscribe")
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		snapshot, ok := <-snapshots
		if !ok {
			return false
		}
		c.SSEvent("capacity", snapshot)
		return true
	})
}
