package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	eventDomain "github.com/allisson/domainbus/internal/event/domain"
	eventDto "github.com/allisson/domainbus/internal/event/http/dto"
	healthDomain "github.com/allisson/domainbus/internal/health/domain"
	healthDto "github.com/allisson/domainbus/internal/health/http/dto"
	"github.com/allisson/domainbus/internal/httputil"
	monitoringDomain "github.com/allisson/domainbus/internal/monitoring/domain"
	monitoringDto "github.com/allisson/domainbus/internal/monitoring/http/dto"
	"github.com/allisson/domainbus/internal/transaction/http/dto"
	transactionUseCase "github.com/allisson/domainbus/internal/transaction/usecase"
	customValidation "github.com/allisson/domainbus/internal/validation"
)

// MessageHandler handles inbound control messages addressed to the bus.
type MessageHandler struct {
	router *transactionUseCase.Router
	logger *slog.Logger
}

// NewMessageHandler creates a new message handler.
func NewMessageHandler(router *transactionUseCase.Router, logger *slog.Logger) *MessageHandler {
	return &MessageHandler{
		router: router,
		logger: logger,
	}
}

// RouteHandler routes one control message. Recognized kinds return their
// component's response; unrecognized kinds are forwarded to the event log and
// return the published event.
// POST /v1/messages
func (h *MessageHandler) RouteHandler(c *gin.Context) {
	var req dto.ControlMessageRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	response, err := h.router.Route(c.Request.Context(), transactionUseCase.ControlMessage{
		Kind:          req.Kind,
		Domain:        req.Domain,
		CorrelationID: req.CorrelationID,
		Payload:       req.Payload,
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	// Component responses are domain types; map them like their own
	// endpoints do.
	switch v := response.(type) {
	case *healthDomain.SystemHealth:
		c.JSON(http.StatusOK, healthDto.MapSystemHealthToResponse(v))
	case *monitoringDomain.UnifiedMetrics:
		c.JSON(http.StatusOK, monitoringDto.MapUnifiedMetricsToResponse(v))
	case *eventDomain.Event:
		c.JSON(http.StatusOK, eventDto.MapEventToResponse(v))
	default:
		c.JSON(http.StatusOK, response)
	}
}
