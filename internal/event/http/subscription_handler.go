package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	eventDomain "github.com/allisson/domainbus/internal/event/domain"
	"github.com/allisson/domainbus/internal/event/http/dto"
	eventUseCase "github.com/allisson/domainbus/internal/event/usecase"
	"github.com/allisson/domainbus/internal/httputil"
	customValidation "github.com/allisson/domainbus/internal/validation"
)

// Acker acknowledges a delivered event, canceling any pending retries and
// advancing the subscription's high-water mark. The delivery dispatcher
// implements this.
type Acker interface {
	Ack(ctx context.Context, subscriptionID uuid.UUID, eventID string, sequenceNumber uint64) error
}

// AttemptSource exposes recorded delivery attempts.
type AttemptSource interface {
	BySubscription(id uuid.UUID, limit int) []eventDomain.DeliveryAttempt
}

// SubscriptionHandler handles HTTP requests for the subscription registry and
// the delivery acknowledgment flow.
type SubscriptionHandler struct {
	subscriptions eventUseCase.SubscriptionUseCase
	acker         Acker
	attempts      AttemptSource
	logger        *slog.Logger
}

// NewSubscriptionHandler creates a new subscription handler.
func NewSubscriptionHandler(
	subscriptions eventUseCase.SubscriptionUseCase,
	acker Acker,
	attempts AttemptSource,
	logger *slog.Logger,
) *SubscriptionHandler {
	return &SubscriptionHandler{
		subscriptions: subscriptions,
		acker:         acker,
		attempts:      attempts,
		logger:        logger,
	}
}

// SubscribeHandler registers a new subscription.
// POST /v1/subscriptions
// Returns 201 Created.
func (h *SubscriptionHandler) SubscribeHandler(c *gin.Context) {
	var req dto.SubscribeRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	subscription, err := h.subscriptions.Subscribe(c.Request.Context(), eventUseCase.SubscribeInput{
		Domain:      req.Domain,
		EventTypes:  req.EventTypes,
		WebhookURL:  req.WebhookURL,
		BusTopicURL: req.BusTopicURL,
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapSubscriptionToResponse(subscription))
}

// ListHandler returns all registered subscriptions, oldest first.
// GET /v1/subscriptions
func (h *SubscriptionHandler) ListHandler(c *gin.Context) {
	subscriptions, err := h.subscriptions.List(c.Request.Context())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapSubscriptionsToListResponse(subscriptions))
}

// UnsubscribeHandler removes a subscription. Pending retries for the removed
// subscription are dropped by the delivery engine.
// DELETE /v1/subscriptions/:id
// Returns 204 No Content.
func (h *SubscriptionHandler) UnsubscribeHandler(c *gin.Context) {
	id, err := h.parseID(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := h.subscriptions.Unsubscribe(c.Request.Context(), id); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Data(http.StatusNoContent, "application/json", nil)
}

// AckHandler acknowledges a delivered event for a subscription.
// POST /v1/subscriptions/:id/ack
// Returns 204 No Content. Acknowledging an event that is not pending is not
// an error: the high-water mark still advances.
func (h *SubscriptionHandler) AckHandler(c *gin.Context) {
	id, err := h.parseID(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	var req dto.AckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	if err := h.acker.Ack(c.Request.Context(), id, req.EventID, req.SequenceNumber); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Data(http.StatusNoContent, "application/json", nil)
}

// AttemptsHandler returns the recorded delivery attempts for a subscription,
// oldest first.
// GET /v1/subscriptions/:id/attempts?limit=M
func (h *SubscriptionHandler) AttemptsHandler(c *gin.Context) {
	id, err := h.parseID(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	limit, err := httputil.ParseLimit(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	attempts := h.attempts.BySubscription(id, limit)
	c.JSON(http.StatusOK, dto.MapAttemptsToListResponse(attempts))
}

func (h *SubscriptionHandler) parseID(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid subscription id: must be a UUID")
	}
	return id, nil
}
