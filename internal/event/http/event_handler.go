// Package http provides HTTP handlers for the event log and the subscription
// registry.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	eventDomain "github.com/allisson/domainbus/internal/event/domain"
	"github.com/allisson/domainbus/internal/event/http/dto"
	eventUseCase "github.com/allisson/domainbus/internal/event/usecase"
	"github.com/allisson/domainbus/internal/httputil"
	customValidation "github.com/allisson/domainbus/internal/validation"
)

// EventHandler handles HTTP requests for the event log.
type EventHandler struct {
	eventLog eventUseCase.EventLogUseCase
	logger   *slog.Logger
}

// NewEventHandler creates a new event handler.
func NewEventHandler(eventLog eventUseCase.EventLogUseCase, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		eventLog: eventLog,
		logger:   logger,
	}
}

// PublishHandler publishes a new event to the log.
// POST /v1/events
// Returns 201 Created with the assigned sequence number.
func (h *EventHandler) PublishHandler(c *gin.Context) {
	var req dto.PublishEventRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	event, err := h.eventLog.Publish(c.Request.Context(), eventUseCase.PublishInput{
		ID:            req.ID,
		Type:          req.Type,
		Domain:        req.Domain,
		Data:          req.Data,
		CorrelationID: req.CorrelationID,
		MaxRetries:    req.MaxRetries,
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapEventToResponse(event))
}

// ListHandler returns retained events matching the query filters.
// GET /v1/events?domain=X&type=Y&since=N&limit=M
// The since parameter is an exclusive sequence number lower bound. Events
// evicted from the retention window are not returned.
func (h *EventHandler) ListHandler(c *gin.Context) {
	since, err := httputil.ParseSince(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	limit, err := httputil.ParseLimit(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	events, err := h.eventLog.Query(c.Request.Context(), eventDomain.EventFilter{
		Domain: c.Query("domain"),
		Type:   c.Query("type"),
		Since:  since,
		Limit:  limit,
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapEventsToListResponse(events))
}
