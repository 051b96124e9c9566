// Package http provides the bus API server and its middleware.
package http

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	eventHTTP "github.com/allisson/domainbus/internal/event/http"
	healthHTTP "github.com/allisson/domainbus/internal/health/http"
	monitoringHTTP "github.com/allisson/domainbus/internal/monitoring/http"
	transactionHTTP "github.com/allisson/domainbus/internal/transaction/http"
)

// RouterConfig carries the handlers and middleware options for the API router.
type RouterConfig struct {
	EventHandler        *eventHTTP.EventHandler
	SubscriptionHandler *eventHTTP.SubscriptionHandler
	TransactionHandler  *transactionHTTP.TransactionHandler
	MessageHandler      *transactionHTTP.MessageHandler
	HealthHandler       *healthHTTP.HealthHandler
	MonitoringHandler   *monitoringHTTP.MonitoringHandler

	CORSEnabled      bool
	CORSAllowOrigins string

	RateLimitEnabled        bool
	RateLimitRequestsPerSec float64
	RateLimitBurst          int
}

// Server represents the bus API HTTP server.
type Server struct {
	db     *sql.DB
	router *gin.Engine
	server *http.Server
	logger *slog.Logger
}

// NewServer creates a new API server. The router is wired separately through
// SetupRouter.
func NewServer(db *sql.DB, host string, port int, logger *slog.Logger) *Server {
	return &Server{
		db:     db,
		logger: logger,
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", host, port),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// SetupRouter builds the gin router with all bus endpoints and middleware.
func (s *Server) SetupRouter(cfg RouterConfig) {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))

	if corsMiddleware := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, s.logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}
	if cfg.RateLimitEnabled {
		router.Use(RateLimitMiddleware(cfg.RateLimitRequestsPerSec, cfg.RateLimitBurst, s.logger))
	}

	// Liveness and readiness
	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	v1 := router.Group("/v1")
	{
		// Event log and subscription registry
		v1.POST("/events", cfg.EventHandler.PublishHandler)
		v1.GET("/events", cfg.EventHandler.ListHandler)
		v1.POST("/subscriptions", cfg.SubscriptionHandler.SubscribeHandler)
		v1.GET("/subscriptions", cfg.SubscriptionHandler.ListHandler)
		v1.DELETE("/subscriptions/:id", cfg.SubscriptionHandler.UnsubscribeHandler)
		v1.POST("/subscriptions/:id/ack", cfg.SubscriptionHandler.AckHandler)
		v1.GET("/subscriptions/:id/attempts", cfg.SubscriptionHandler.AttemptsHandler)

		// Transaction coordination and control messages
		v1.POST("/transactions", cfg.TransactionHandler.CoordinateHandler)
		v1.GET("/transactions", cfg.TransactionHandler.ListHandler)
		v1.GET("/transactions/:id", cfg.TransactionHandler.GetHandler)
		v1.POST("/messages", cfg.MessageHandler.RouteHandler)

		// Domain health
		v1.GET("/status", cfg.HealthHandler.StatusHandler)
		v1.PUT("/health-check", cfg.HealthHandler.CheckHandler)

		// Monitoring bridge
		v1.GET("/metrics/unified", cfg.MonitoringHandler.UnifiedMetricsHandler)
		v1.GET("/alerts", cfg.MonitoringHandler.ListAlertsHandler)
		v1.POST("/alerts/:id/resolve", cfg.MonitoringHandler.ResolveAlertHandler)
		v1.POST("/alerts/:id/unresolve", cfg.MonitoringHandler.UnresolveAlertHandler)
	}

	s.router = router
}

// Handler returns the configured router as an http.Handler. Used by
// integration tests to serve the API through httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// healthHandler reports process liveness.
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler reports whether the bus can serve traffic: the database
// must answer a ping.
func (s *Server) readinessHandler(c *gin.Context) {
	components := gin.H{"database": "ok"}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if s.db == nil || s.db.PingContext(ctx) != nil {
		components["database"] = "error"
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":     "not_ready",
			"components": components,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "ready",
		"components": components,
	})
}

// Start starts the HTTP server.
func (s *Server) Start(ctx context.Context) error {
	s.server.Handler = s.router

	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}
