package handler

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/coop-bookkeeping/internal/api/service"
	"github.com/coop-bookkeeping/internal/domain/event"
)

// EventHandler handles HTTP requests for events
type EventHandler struct {
	eventService service.EventService
	logger       *slog.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler(logger *slog.Logger, eventService service.EventService) *EventHandler {
	return &EventHandler{
		eventService: eventService,
		logger:       logger,
	}
}

// Create handles creation of a new event
func (h *EventHandler) Create(c *gin.Context) {
	var req CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		RespondBadRequest(c, "Invalid date, expected "+dateLayout)
		return
	}

	evt, err := h.eventService.Create(c.Request.Context(), req.Name, req.Abbreviation, date, req.City, req.State)
	if err != nil {
		if errors.Is(err, event.ErrEmptyEventName) || errors.Is(err, event.ErrEmptyAbbreviation) {
			RespondBadRequest(c, err.Error())
			return
		}
		h.logger.Error("Failed to create event", "error", err)
		RespondInternalError(c)
		return
	}

	RespondCreated(c, mapEventToResponse(evt))
}

// Get retrieves an event with the totals of its tagged lines
func (h *EventHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid event ID")
		return
	}

	detail, err := h.eventService.Get(c.Request.Context(), id)
	if err != nil {
		var notFound event.ErrEventNotFound
		if errors.As(err, &notFound) {
			RespondNotFound(c, "Event not found")
			return
		}
		h.logger.Error("Failed to get event", "id", id.String(), "error", err)
		RespondInternalError(c)
		return
	}

	response := EventDetailResponse{
		EventResponse: mapEventToResponse(detail.Event),
		Totals:        mapTotalsToResponse(detail.Totals),
	}
	for _, line := range detail.Lines {
		response.Lines = append(response.Lines, mapTransactionToResponse(line))
	}
	RespondOK(c, response)
}

// List returns all events
func (h *EventHandler) List(c *gin.Context) {
	events, err := h.eventService.List(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list events", "error", err)
		RespondInternalError(c)
		return
	}

	response := make([]EventResponse, 0, len(events))
	for _, evt := range events {
		response = append(response, mapEventToResponse(evt))
	}
	RespondOK(c, response)
}
