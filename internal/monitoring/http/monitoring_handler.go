// Package http provides HTTP handlers for unified metrics and alerts.
package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/allisson/domainbus/internal/httputil"
	"github.com/allisson/domainbus/internal/monitoring/http/dto"
	monitoringUseCase "github.com/allisson/domainbus/internal/monitoring/usecase"
)

// MonitoringHandler handles HTTP requests for the monitoring bridge.
type MonitoringHandler struct {
	bridge monitoringUseCase.BridgeUseCase
	logger *slog.Logger
}

// NewMonitoringHandler creates a new monitoring handler.
func NewMonitoringHandler(bridge monitoringUseCase.BridgeUseCase, logger *slog.Logger) *MonitoringHandler {
	return &MonitoringHandler{
		bridge: bridge,
		logger: logger,
	}
}

// UnifiedMetricsHandler returns the combined monitoring snapshot.
// GET /v1/metrics/unified
func (h *MonitoringHandler) UnifiedMetricsHandler(c *gin.Context) {
	metrics, err := h.bridge.UnifiedMetrics(c.Request.Context())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapUnifiedMetricsToResponse(metrics))
}

// ListAlertsHandler returns alerts, newest first. Resolved alerts are included
// only with include_resolved=true.
// GET /v1/alerts?include_resolved=true
func (h *MonitoringHandler) ListAlertsHandler(c *gin.Context) {
	includeResolved := c.Query("include_resolved") == "true"
	alerts := h.bridge.Alerts(includeResolved)
	c.JSON(http.StatusOK, dto.MapAlertsToListResponse(alerts))
}

// ResolveAlertHandler marks an alert resolved.
// POST /v1/alerts/:id/resolve
// Returns 204 No Content. Resolving an already-resolved alert is a no-op.
func (h *MonitoringHandler) ResolveAlertHandler(c *gin.Context) {
	id, err := h.parseID(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := h.bridge.Resolve(id); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Data(http.StatusNoContent, "application/json", nil)
}

// UnresolveAlertHandler reopens a resolved alert.
// POST /v1/alerts/:id/unresolve
// Returns 204 No Content.
func (h *MonitoringHandler) UnresolveAlertHandler(c *gin.Context) {
	id, err := h.parseID(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := h.bridge.Unresolve(id); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Data(http.StatusNoContent, "application/json", nil)
}

func (h *MonitoringHandler) parseID(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid alert id: must be a UUID")
	}
	return id, nil
}
