// Package app provides the dependency injection container for assembling
// application components.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/allisson/domainbus/internal/config"
	"github.com/allisson/domainbus/internal/database"
	deliveryUseCase "github.com/allisson/domainbus/internal/delivery/usecase"
	eventHTTP "github.com/allisson/domainbus/internal/event/http"
	eventUseCase "github.com/allisson/domainbus/internal/event/usecase"
	"github.com/allisson/domainbus/internal/gateway"
	healthHTTP "github.com/allisson/domainbus/internal/health/http"
	healthUseCase "github.com/allisson/domainbus/internal/health/usecase"
	"github.com/allisson/domainbus/internal/http"
	"github.com/allisson/domainbus/internal/metrics"
	monitoringHTTP "github.com/allisson/domainbus/internal/monitoring/http"
	monitoringUseCase "github.com/allisson/domainbus/internal/monitoring/usecase"
	transactionHTTP "github.com/allisson/domainbus/internal/transaction/http"
	transactionUseCase "github.com/allisson/domainbus/internal/transaction/usecase"
)

// Container holds all application dependencies and provides methods to access
// them. It follows the lazy initialization pattern - components are created on
// first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger          *slog.Logger
	db              *sql.DB
	metricsProvider *metrics.Provider
	busMetrics      metrics.BusMetrics
	gateway         gateway.Gateway

	// Repositories
	eventRepo        eventUseCase.EventRepository
	subscriptionRepo eventUseCase.SubscriptionRepository

	// Use Cases
	subscriptionUseCase eventUseCase.SubscriptionUseCase
	eventLogUseCase     eventUseCase.EventLogUseCase
	attemptLog          *deliveryUseCase.AttemptLog
	dispatcher          *deliveryUseCase.Dispatcher
	busSender           *deliveryUseCase.BusSender
	coordinator         transactionUseCase.CoordinatorUseCase
	router              *transactionUseCase.Router
	healthMonitor       healthUseCase.MonitorUseCase
	bridge              monitoringUseCase.BridgeUseCase

	// HTTP Handlers
	eventHandler        *eventHTTP.EventHandler
	subscriptionHandler *eventHTTP.SubscriptionHandler
	transactionHandler  *transactionHTTP.TransactionHandler
	messageHandler      *transactionHTTP.MessageHandler
	healthHandler       *healthHTTP.HealthHandler
	monitoringHandler   *monitoringHTTP.MonitoringHandler

	// Servers
	httpServer    *http.Server
	metricsServer *http.MetricsServer

	// Initialization flags and mutex for thread-safety
	mu                      sync.Mutex
	loggerInit              sync.Once
	dbInit                  sync.Once
	metricsProviderInit     sync.Once
	busMetricsInit          sync.Once
	gatewayInit             sync.Once
	eventRepoInit           sync.Once
	subscriptionRepoInit    sync.Once
	subscriptionUseCaseInit sync.Once
	eventLogUseCaseInit     sync.Once
	attemptLogInit          sync.Once
	dispatcherInit          sync.Once
	busSenderInit           sync.Once
	coordinatorInit         sync.Once
	routerInit              sync.Once
	healthMonitorInit       sync.Once
	bridgeInit              sync.Once
	eventHandlerInit        sync.Once
	subscriptionHandlerInit sync.Once
	transactionHandlerInit  sync.Once
	messageHandlerInit      sync.Once
	healthHandlerInit       sync.Once
	monitoringHandlerInit   sync.Once
	httpServerInit          sync.Once
	metricsServerInit       sync.Once
	initErrors              map[string]error
}

// NewContainer creates a new dependency injection container with the provided
// configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
// It creates a new logger on first access based on the log level in configuration.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// DB returns the database connection.
// It creates and configures the database connection on first access.
func (c *Container) DB() (*sql.DB, error) {
	var err error
	c.dbInit.Do(func() {
		c.db, err = c.initDB()
		if err != nil {
			c.initErrors["db"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["db"]; exists {
		return nil, storedErr
	}
	return c.db, nil
}

// MetricsProvider returns the OpenTelemetry metrics provider.
// Returns nil when metrics are disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	var err error
	c.metricsProviderInit.Do(func() {
		if !c.config.MetricsEnabled {
			return
		}
		c.metricsProvider, err = metrics.NewProvider(c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["metricsProvider"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsProvider"]; exists {
		return nil, storedErr
	}
	return c.metricsProvider, nil
}

// BusMetrics returns the bus metrics recorder. A no-op recorder is returned
// when metrics are disabled.
func (c *Container) BusMetrics() (metrics.BusMetrics, error) {
	var err error
	c.busMetricsInit.Do(func() {
		c.busMetrics, err = c.initBusMetrics()
		if err != nil {
			c.initErrors["busMetrics"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["busMetrics"]; exists {
		return nil, storedErr
	}
	return c.busMetrics, nil
}

// HTTPServer returns the API server instance with all routes wired.
func (c *Container) HTTPServer() (*http.Server, error) {
	var err error
	c.httpServerInit.Do(func() {
		c.httpServer, err = c.initHTTPServer()
		if err != nil {
			c.initErrors["httpServer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["httpServer"]; exists {
		return nil, storedErr
	}
	return c.httpServer, nil
}

// MetricsServer returns the metrics server instance.
// Returns nil when metrics are disabled.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	var err error
	c.metricsServerInit.Do(func() {
		if !c.config.MetricsEnabled {
			return
		}
		c.metricsServer, err = c.initMetricsServer()
		if err != nil {
			c.initErrors["metricsServer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsServer"]; exists {
		return nil, storedErr
	}
	return c.metricsServer, nil
}

// Shutdown performs cleanup of all initialized resources.
// It should be called when the application is shutting down.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	// Shutdown HTTP servers if initialized
	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("http server shutdown: %w", err))
		}
	}
	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	// Close cached bus topics if the sender was used
	if c.busSender != nil {
		if err := c.busSender.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("bus sender shutdown: %w", err))
		}
	}

	// Flush pending metrics if initialized
	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	// Close database connection if initialized
	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	// Return combined errors if any occurred
	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %v", shutdownErrors)
	}

	return nil
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}

// initDB creates and configures the database connection.
func (c *Container) initDB() (*sql.DB, error) {
	db, err := database.Connect(database.Config{
		Driver:             c.config.DBDriver,
		ConnectionString:   c.config.DBConnectionString,
		MaxOpenConnections: c.config.DBMaxOpenConnections,
		MaxIdleConnections: c.config.DBMaxIdleConnections,
		ConnMaxLifetime:    c.config.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// initBusMetrics creates the bus metrics recorder backed by the metrics
// provider, or a no-op recorder when metrics are disabled.
func (c *Container) initBusMetrics() (metrics.BusMetrics, error) {
	if !c.config.MetricsEnabled {
		return metrics.NewNoOpBusMetrics(), nil
	}

	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for bus metrics: %w", err)
	}

	busMetrics, err := metrics.NewBusMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
	if err != nil {
		return nil, fmt.Errorf("failed to create bus metrics: %w", err)
	}

	return busMetrics, nil
}

// initHTTPServer creates the API server with all its handlers and middleware.
func (c *Container) initHTTPServer() (*http.Server, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for http server: %w", err)
	}

	eventHandler, err := c.EventHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get event handler for http server: %w", err)
	}

	subscriptionHandler, err := c.SubscriptionHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription handler for http server: %w", err)
	}

	transactionHandler, err := c.TransactionHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction handler for http server: %w", err)
	}

	messageHandler, err := c.MessageHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get message handler for http server: %w", err)
	}

	healthHandler, err := c.HealthHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get health handler for http server: %w", err)
	}

	monitoringHandler, err := c.MonitoringHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get monitoring handler for http server: %w", err)
	}

	server := http.NewServer(db, c.config.ServerHost, c.config.ServerPort, c.Logger())
	server.SetupRouter(http.RouterConfig{
		EventHandler:        eventHandler,
		SubscriptionHandler: subscriptionHandler,
		TransactionHandler:  transactionHandler,
		MessageHandler:      messageHandler,
		HealthHandler:       healthHandler,
		MonitoringHandler:   monitoringHandler,

		CORSEnabled:      c.config.CORSEnabled,
		CORSAllowOrigins: c.config.CORSAllowOrigins,

		RateLimitEnabled:        c.config.RateLimitEnabled,
		RateLimitRequestsPerSec: c.config.RateLimitRequestsPerSec,
		RateLimitBurst:          c.config.RateLimitBurst,
	})

	return server, nil
}

// initMetricsServer creates the metrics server with the Prometheus handler.
func (c *Container) initMetricsServer() (*http.MetricsServer, error) {
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for metrics server: %w", err)
	}

	return http.NewMetricsServer(c.config.ServerHost, c.config.MetricsPort, c.Logger(), provider), nil
}
