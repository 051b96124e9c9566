package app

import (
	"fmt"

	"github.com/allisson/domainbus/internal/gateway"
	transactionHTTP "github.com/allisson/domainbus/internal/transaction/http"
	transactionUseCase "github.com/allisson/domainbus/internal/transaction/usecase"
)

// Gateway returns the domain operation gateway.
func (c *Container) Gateway() (gateway.Gateway, error) {
	c.gatewayInit.Do(func() {
		c.gateway = gateway.NewHTTPGateway(c.config.GatewayDomainURLs, c.config.GatewayTimeout, c.Logger())
	})
	return c.gateway, nil
}

// Coordinator returns the transaction coordinator.
func (c *Container) Coordinator() (transactionUseCase.CoordinatorUseCase, error) {
	var err error
	c.coordinatorInit.Do(func() {
		c.coordinator, err = c.initCoordinator()
		if err != nil {
			c.initErrors["coordinator"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["coordinator"]; exists {
		return nil, storedErr
	}
	return c.coordinator, nil
}

// Router returns the control message router.
func (c *Container) Router() (*transactionUseCase.Router, error) {
	var err error
	c.routerInit.Do(func() {
		c.router, err = c.initRouter()
		if err != nil {
			c.initErrors["router"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["router"]; exists {
		return nil, storedErr
	}
	return c.router, nil
}

// TransactionHandler returns the HTTP handler for transaction coordination.
func (c *Container) TransactionHandler() (*transactionHTTP.TransactionHandler, error) {
	var err error
	c.transactionHandlerInit.Do(func() {
		c.transactionHandler, err = c.initTransactionHandler()
		if err != nil {
			c.initErrors["transactionHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["transactionHandler"]; exists {
		return nil, storedErr
	}
	return c.transactionHandler, nil
}

// MessageHandler returns the HTTP handler for control message routing.
func (c *Container) MessageHandler() (*transactionHTTP.MessageHandler, error) {
	var err error
	c.messageHandlerInit.Do(func() {
		c.messageHandler, err = c.initMessageHandler()
		if err != nil {
			c.initErrors["messageHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["messageHandler"]; exists {
		return nil, storedErr
	}
	return c.messageHandler, nil
}

// initCoordinator creates the transaction coordinator with all its dependencies.
func (c *Container) initCoordinator() (transactionUseCase.CoordinatorUseCase, error) {
	gw, err := c.Gateway()
	if err != nil {
		return nil, fmt.Errorf("failed to get gateway for coordinator: %w", err)
	}

	eventLogUseCase, err := c.EventLogUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get event log use case for coordinator: %w", err)
	}

	busMetrics, err := c.BusMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get bus metrics for coordinator: %w", err)
	}

	coordinatorConfig := transactionUseCase.Config{
		StepTimeout:        c.config.CoordinatorStepTimeout,
		TransactionTimeout: c.config.CoordinatorTransactionTimeout,
	}

	return transactionUseCase.NewCoordinator(
		coordinatorConfig,
		gw,
		eventLogUseCase,
		busMetrics,
		c.Logger(),
	), nil
}

// initRouter creates the control message router with all its dependencies.
func (c *Container) initRouter() (*transactionUseCase.Router, error) {
	healthMonitor, err := c.HealthMonitor()
	if err != nil {
		return nil, fmt.Errorf("failed to get health monitor for router: %w", err)
	}

	bridge, err := c.Bridge()
	if err != nil {
		return nil, fmt.Errorf("failed to get monitoring bridge for router: %w", err)
	}

	gw, err := c.Gateway()
	if err != nil {
		return nil, fmt.Errorf("failed to get gateway for router: %w", err)
	}

	eventLogUseCase, err := c.EventLogUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get event log use case for router: %w", err)
	}

	return transactionUseCase.NewRouter(healthMonitor, bridge, gw, eventLogUseCase, c.Logger()), nil
}

// initTransactionHandler creates the transaction HTTP handler with all its dependencies.
func (c *Container) initTransactionHandler() (*transactionHTTP.TransactionHandler, error) {
	coordinator, err := c.Coordinator()
	if err != nil {
		return nil, fmt.Errorf("failed to get coordinator for transaction handler: %w", err)
	}

	return transactionHTTP.NewTransactionHandler(coordinator, c.Logger()), nil
}

// initMessageHandler creates the message HTTP handler with all its dependencies.
func (c *Container) initMessageHandler() (*transactionHTTP.MessageHandler, error) {
	router, err := c.Router()
	if err != nil {
		return nil, fmt.Errorf("failed to get router for message handler: %w", err)
	}

	return transactionHTTP.NewMessageHandler(router, c.Logger()), nil
}
