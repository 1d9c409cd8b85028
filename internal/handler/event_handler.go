package handler

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/henrychris/EventManagement/internal/domain"
	"github.com/henrychris/EventManagement/internal/dto"
	"github.com/henrychris/EventManagement/internal/middleware"
	"github.com/henrychris/EventManagement/internal/service"
	"github.com/henrychris/EventManagement/pkg/logger"
	"github.com/henrychris/EventManagement/pkg/response"
)

// EventHandler handles event-related HTTP requests
type EventHandler struct {
	events service.EventService
	log    *logger.Logger
}

// NewEventHandler creates a new EventHandler
func NewEventHandler(events service.EventService) *EventHandler {
	return &EventHandler{
		events: events,
		log:    logger.Get(),
	}
}

// Create handles POST /events (organiser or admin)
func (h *EventHandler) Create(c *gin.Context) {
	var req dto.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	organiserID := middleware.GetUserID(c)
	if organiserID == "" {
		response.Unauthorized(c, "authentication required")
		return
	}

	event, err := h.events.CreateEvent(c.Request.Context(), &req, organiserID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Created(c, fmt.Sprintf("/api/v1/events/%s", event.ID), event)
}

// Get handles GET /events/:id
func (h *EventHandler) Get(c *gin.Context) {
	event, err := h.events.GetEvent(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, event)
}

// Update handles PUT /events/:id (organiser or admin)
func (h *EventHandler) Update(c *gin.Context) {
	var req dto.UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	event, err := h.events.UpdateEvent(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, event)
}

// Delete handles DELETE /events/:id (organiser or admin)
func (h *EventHandler) Delete(c *gin.Context) {
	if err := h.events.DeleteEvent(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}

	response.NoContent(c)
}

// Search handles GET /events/search
func (h *EventHandler) Search(c *gin.Context) {
	var req dto.SearchEventsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	result, err := h.events.SearchEvents(c.Request.Context(), &req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, result)
}

// AvailableTickets handles GET /events/available-tickets
func (h *EventHandler) AvailableTickets(c *gin.Context) {
	var req dto.SearchEventsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	result, err := h.events.GetEventsWithAvailableTickets(c.Request.Context(), req.PageNumber, req.PageSize)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, result)
}

// BuyTicket handles POST /events/:id/buy-ticket (authenticated)
func (h *EventHandler) BuyTicket(c *gin.Context) {
	buyerID := middleware.GetUserID(c)
	if buyerID == "" {
		response.Unauthorized(c, "authentication required")
		return
	}

	result, err := h.events.BuyTicket(c.Request.Context(), c.Param("id"), buyerID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, result)
}

// writeError maps domain errors onto the HTTP surface. Anything unmapped is
// logged and returned as an opaque 500.
func (h *EventHandler) writeError(c *gin.Context, err error) {
	var verrs domain.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		response.ValidationFailed(c, verrs.ToMap())
	case errors.Is(err, domain.ErrEventNotFound):
		response.NotFound(c, "Event.NotFound", "Event not found")
	case errors.Is(err, domain.ErrNoTicketsAvailable):
		response.Conflict(c, "Event.SoldOut", domain.ErrNoTicketsAvailable.Error())
	case errors.Is(err, domain.ErrConcurrencyConflict):
		response.Conflict(c, "Event.ConcurrencyConflict", domain.ErrConcurrencyConflict.Error())
	default:
		h.log.Error("event request failed",
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.Error(err),
		)
		response.InternalError(c)
	}
}
