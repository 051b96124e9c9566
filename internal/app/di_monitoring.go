package app

import (
	"context"
	"fmt"

	eventDomain "github.com/allisson/domainbus/internal/event/domain"
	healthUseCase "github.com/allisson/domainbus/internal/health/usecase"
	monitoringHTTP "github.com/allisson/domainbus/internal/monitoring/http"
	monitoringUseCase "github.com/allisson/domainbus/internal/monitoring/usecase"
	transactionDomain "github.com/allisson/domainbus/internal/transaction/domain"
)

// The bridge reads from the event log and the coordinator, while the
// dispatcher (a dependency of the event log) and the health monitor alert
// through the bridge. The sources below resolve their target through the
// container on first use instead of at construction time, which breaks those
// cycles: by the time a read or alert happens, everything is initialized.

// eventLogHealthSource lazily resolves the event log for the bridge.
type eventLogHealthSource struct {
	c *Container
}

// Health reports the event log's health view.
func (s *eventLogHealthSource) Health(ctx context.Context) (*eventDomain.LogHealth, error) {
	eventLog, err := s.c.EventLogUseCase()
	if err != nil {
		return nil, err
	}
	return eventLog.Health(ctx)
}

// transactionSummarySource lazily resolves the coordinator for the bridge.
type transactionSummarySource struct {
	c *Container
}

// Summary aggregates transaction counts.
func (s *transactionSummarySource) Summary() transactionDomain.Summary {
	coordinator, err := s.c.Coordinator()
	if err != nil {
		return transactionDomain.Summary{}
	}
	return coordinator.Summary()
}

// domainAlertSource lazily resolves the bridge for the health monitor's
// unhealthy-transition alerts.
type domainAlertSource struct {
	c *Container
}

// DomainUnhealthy forwards the transition to the bridge's alert register.
func (s *domainAlertSource) DomainUnhealthy(domain, reason string) {
	bridge, err := s.c.Bridge()
	if err != nil {
		return
	}
	if alerter, ok := bridge.(healthUseCase.Alerter); ok {
		alerter.DomainUnhealthy(domain, reason)
	}
}

// Bridge returns the monitoring bridge.
func (c *Container) Bridge() (monitoringUseCase.BridgeUseCase, error) {
	var err error
	c.bridgeInit.Do(func() {
		c.bridge, err = c.initBridge()
		if err != nil {
			c.initErrors["bridge"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["bridge"]; exists {
		return nil, storedErr
	}
	return c.bridge, nil
}

// MonitoringHandler returns the HTTP handler for monitoring operations.
func (c *Container) MonitoringHandler() (*monitoringHTTP.MonitoringHandler, error) {
	var err error
	c.monitoringHandlerInit.Do(func() {
		c.monitoringHandler, err = c.initMonitoringHandler()
		if err != nil {
			c.initErrors["monitoringHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["monitoringHandler"]; exists {
		return nil, storedErr
	}
	return c.monitoringHandler, nil
}

// initBridge creates the monitoring bridge with all its dependencies.
func (c *Container) initBridge() (monitoringUseCase.BridgeUseCase, error) {
	healthMonitor, err := c.HealthMonitor()
	if err != nil {
		return nil, fmt.Errorf("failed to get health monitor for monitoring bridge: %w", err)
	}

	return monitoringUseCase.NewBridge(
		&eventLogHealthSource{c: c},
		healthMonitor,
		&transactionSummarySource{c: c},
		c.Logger(),
	), nil
}

// initMonitoringHandler creates the monitoring HTTP handler with all its dependencies.
func (c *Container) initMonitoringHandler() (*monitoringHTTP.MonitoringHandler, error) {
	bridge, err := c.Bridge()
	if err != nil {
		return nil, fmt.Errorf("failed to get monitoring bridge for monitoring handler: %w", err)
	}

	return monitoringHTTP.NewMonitoringHandler(bridge, c.Logger()), nil
}
