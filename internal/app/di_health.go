package app

import (
	"fmt"

	healthHTTP "github.com/allisson/domainbus/internal/health/http"
	healthUseCase "github.com/allisson/domainbus/internal/health/usecase"
)

// HealthMonitor returns the domain health monitor.
func (c *Container) HealthMonitor() (healthUseCase.MonitorUseCase, error) {
	var err error
	c.healthMonitorInit.Do(func() {
		c.healthMonitor, err = c.initHealthMonitor()
		if err != nil {
			c.initErrors["healthMonitor"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["healthMonitor"]; exists {
		return nil, storedErr
	}
	return c.healthMonitor, nil
}

// HealthHandler returns the HTTP handler for domain health operations.
func (c *Container) HealthHandler() (*healthHTTP.HealthHandler, error) {
	var err error
	c.healthHandlerInit.Do(func() {
		c.healthHandler, err = c.initHealthHandler()
		if err != nil {
			c.initErrors["healthHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["healthHandler"]; exists {
		return nil, storedErr
	}
	return c.healthHandler, nil
}

// initHealthMonitor creates the health monitor with all its dependencies.
func (c *Container) initHealthMonitor() (healthUseCase.MonitorUseCase, error) {
	gw, err := c.Gateway()
	if err != nil {
		return nil, fmt.Errorf("failed to get gateway for health monitor: %w", err)
	}

	monitorConfig := healthUseCase.Config{
		Interval: c.config.HealthCheckInterval,
		Timeout:  c.config.HealthCheckTimeout,
	}

	return healthUseCase.NewMonitor(monitorConfig, gw, &domainAlertSource{c}, c.Logger()), nil
}

// initHealthHandler creates the health HTTP handler with all its dependencies.
func (c *Container) initHealthHandler() (*healthHTTP.HealthHandler, error) {
	healthMonitor, err := c.HealthMonitor()
	if err != nil {
		return nil, fmt.Errorf("failed to get health monitor for health handler: %w", err)
	}

	return healthHTTP.NewHealthHandler(healthMonitor, c.Logger()), nil
}
