// Package usecase implements the health monitor: a periodic sweep of all
// configured domain services through the gateway.
package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/allisson/domainbus/internal/gateway"
	"github.com/allisson/domainbus/internal/health/domain"
)

// Config holds health monitor configuration.
type Config struct {
	// Interval between sweeps.
	Interval time.Duration
	// Timeout bounds a single domain probe.
	Timeout time.Duration
}

// Alerter receives a notification when a domain transitions to unhealthy.
// Repeated unhealthy sweeps for the same domain do not re-alert.
type Alerter interface {
	DomainUnhealthy(domain, reason string)
}

// MonitorUseCase defines the interface for the health monitor.
type MonitorUseCase interface {
	// Start runs periodic sweeps until the context is canceled.
	Start(ctx context.Context) error
	// RunNow performs one sweep immediately and returns the aggregate.
	RunNow(ctx context.Context) (*domain.SystemHealth, error)
	// Snapshot returns the aggregate from the most recent sweep without
	// probing.
	Snapshot() *domain.SystemHealth
}

// monitor implements MonitorUseCase. Probes within a sweep run concurrently,
// one goroutine per domain.
type monitor struct {
	config  Config
	gateway gateway.Gateway
	alerter Alerter
	logger  *slog.Logger

	mu       sync.Mutex
	statuses map[string]domain.DomainStatus
}

// NewMonitor creates a new MonitorUseCase. Every configured domain starts as
// unknown until the first sweep reaches it. The alerter may be nil.
func NewMonitor(config Config, gw gateway.Gateway, alerter Alerter, logger *slog.Logger) MonitorUseCase {
	statuses := make(map[string]domain.DomainStatus)
	for _, name := range gw.Domains() {
		statuses[name] = domain.DomainStatus{
			Domain: name,
			Status: domain.StatusUnknown,
		}
	}

	return &monitor{
		config:   config,
		gateway:  gw,
		alerter:  alerter,
		logger:   logger,
		statuses: statuses,
	}
}

// Start runs periodic sweeps until the context is canceled.
func (m *monitor) Start(ctx context.Context) error {
	m.logger.Info("starting health monitor",
		slog.Duration("interval", m.config.Interval),
		slog.Int("domains", len(m.gateway.Domains())),
	)

	ticker := time.NewTicker(m.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("stopping health monitor")
			return ctx.Err()
		case <-ticker.C:
			if _, err := m.RunNow(ctx); err != nil {
				m.logger.Error("health sweep failed", slog.Any("error", err))
			}
		}
	}
}

// RunNow probes every domain concurrently and returns the fresh aggregate.
func (m *monitor) RunNow(ctx context.Context) (*domain.SystemHealth, error) {
	domains := m.gateway.Domains()

	g, groupCtx := errgroup.WithContext(ctx)
	results := make([]domain.DomainStatus, len(domains))

	for i, name := range domains {
		g.Go(func() error {
			probeCtx, cancel := context.WithTimeout(groupCtx, m.config.Timeout)
			defer cancel()

			results[i] = m.probe(probeCtx, name)
			return nil
		})
	}

	// Probe errors land in the status entries, never in the group error.
	_ = g.Wait()

	m.mu.Lock()
	var turned []domain.DomainStatus
	for _, status := range results {
		previous := m.statuses[status.Domain]
		if status.Status == domain.StatusUnhealthy && previous.Status != domain.StatusUnhealthy {
			turned = append(turned, status)
		}
		m.statuses[status.Domain] = status
	}
	m.mu.Unlock()

	if m.alerter != nil {
		for _, status := range turned {
			m.alerter.DomainUnhealthy(status.Domain, status.Error)
		}
	}

	health := domain.AggregateStatuses(results)
	return &health, nil
}

// probe checks one domain and builds its status entry.
func (m *monitor) probe(ctx context.Context, name string) domain.DomainStatus {
	status := domain.DomainStatus{
		Domain:      name,
		LastChecked: time.Now().UTC(),
	}

	report, err := m.gateway.CheckHealth(ctx, name)
	if err != nil {
		status.Status = domain.StatusUnhealthy
		status.Error = err.Error()

		m.logger.Warn("domain health probe failed",
			slog.String("domain", name),
			slog.Any("error", err),
		)
		return status
	}

	status.Status = report.Status
	status.Version = report.Version
	status.ResponseTime = report.ResponseTime
	status.Metrics = report.Metrics
	return status
}

// Snapshot returns the aggregate built from the most recent observations.
func (m *monitor) Snapshot() *domain.SystemHealth {
	m.mu.Lock()
	statuses := make([]domain.DomainStatus, 0, len(m.statuses))
	for _, status := range m.statuses {
		statuses = append(statuses, status)
	}
	m.mu.Unlock()

	health := domain.AggregateStatuses(statuses)
	return &health
}
