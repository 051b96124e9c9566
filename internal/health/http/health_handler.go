// Package http provides HTTP handlers for the domain health monitor.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/allisson/domainbus/internal/health/http/dto"
	healthUseCase "github.com/allisson/domainbus/internal/health/usecase"
	"github.com/allisson/domainbus/internal/httputil"
)

// HealthHandler handles HTTP requests for domain health.
type HealthHandler struct {
	monitor healthUseCase.MonitorUseCase
	logger  *slog.Logger
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(monitor healthUseCase.MonitorUseCase, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		monitor: monitor,
		logger:  logger,
	}
}

// StatusHandler returns the aggregate from the most recent sweep without
// probing.
// GET /v1/status
func (h *HealthHandler) StatusHandler(c *gin.Context) {
	health := h.monitor.Snapshot()
	c.JSON(http.StatusOK, dto.MapSystemHealthToResponse(health))
}

// CheckHandler performs one sweep immediately and returns the fresh aggregate.
// PUT /v1/health-check
func (h *HealthHandler) CheckHandler(c *gin.Context) {
	health, err := h.monitor.RunNow(c.Request.Context())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapSystemHealthToResponse(health))
}
