// Package usecase implements the monitoring bridge: a read-side facade that
// folds the event log, health monitor, and transaction coordinator into one
// snapshot, plus an in-memory alert register.
package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/allisson/domainbus/internal/errors"
	eventdomain "github.com/allisson/domainbus/internal/event/domain"
	healthdomain "github.com/allisson/domainbus/internal/health/domain"
	"github.com/allisson/domainbus/internal/monitoring/domain"
	transactiondomain "github.com/allisson/domainbus/internal/transaction/domain"
)

// EventLogHealth exposes the event log's health view.
type EventLogHealth interface {
	Health(ctx context.Context) (*eventdomain.LogHealth, error)
}

// HealthSnapshotter exposes the health monitor's cached aggregate.
type HealthSnapshotter interface {
	Snapshot() *healthdomain.SystemHealth
}

// TransactionSummarizer exposes the coordinator's aggregate counts.
type TransactionSummarizer interface {
	Summary() transactiondomain.Summary
}

// BridgeUseCase defines the interface for the monitoring bridge.
type BridgeUseCase interface {
	// UnifiedMetrics builds the combined monitoring snapshot.
	UnifiedMetrics(ctx context.Context) (*domain.UnifiedMetrics, error)
	// Unified adapts UnifiedMetrics for the control message router.
	Unified(ctx context.Context) (any, error)
	// RaiseAlert registers a new alert and returns it.
	RaiseAlert(severity domain.Severity, source, message string) *domain.Alert
	// Alerts returns alerts, newest first. Resolved alerts are included
	// only when includeResolved is set.
	Alerts(includeResolved bool) []*domain.Alert
	// Resolve marks an alert resolved.
	Resolve(id uuid.UUID) error
	// Unresolve reopens a resolved alert.
	Unresolve(id uuid.UUID) error
}

// bridge implements BridgeUseCase.
type bridge struct {
	eventLog     EventLogHealth
	health       HealthSnapshotter
	transactions TransactionSummarizer
	logger       *slog.Logger

	mu     sync.Mutex
	alerts map[uuid.UUID]*domain.Alert
	order  []uuid.UUID
}

// NewBridge creates a new BridgeUseCase.
func NewBridge(
	eventLog EventLogHealth,
	health HealthSnapshotter,
	transactions TransactionSummarizer,
	logger *slog.Logger,
) BridgeUseCase {
	return &bridge{
		eventLog:     eventLog,
		health:       health,
		transactions: transactions,
		logger:       logger,
		alerts:       make(map[uuid.UUID]*domain.Alert),
	}
}

// UnifiedMetrics builds the combined monitoring snapshot. The overall status
// is the domain health verdict, downgraded when the bus's own storage is
// unreachable.
func (b *bridge) UnifiedMetrics(ctx context.Context) (*domain.UnifiedMetrics, error) {
	logHealth, err := b.eventLog.Health(ctx)
	if err != nil {
		return nil, err
	}

	systemHealth := b.health.Snapshot()

	overall := systemHealth.Status
	if !logHealth.StorageReachable && overall == healthdomain.StatusHealthy {
		overall = healthdomain.StatusDegraded
	}

	active := 0
	b.mu.Lock()
	for _, alert := range b.alerts {
		if !alert.Resolved {
			active++
		}
	}
	b.mu.Unlock()

	return &domain.UnifiedMetrics{
		OverallStatus: overall,
		HealthScore:   systemHealth.HealthPercentage,
		EventLog:      *logHealth,
		Domains:       systemHealth.Domains,
		Transactions:  b.transactions.Summary(),
		ActiveAlerts:  active,
		GeneratedAt:   time.Now().UTC(),
	}, nil
}

// Unified adapts UnifiedMetrics for the control message router.
func (b *bridge) Unified(ctx context.Context) (any, error) {
	return b.UnifiedMetrics(ctx)
}

// RaiseAlert registers a new alert.
func (b *bridge) RaiseAlert(severity domain.Severity, source, message string) *domain.Alert {
	alert := &domain.Alert{
		ID:        uuid.Must(uuid.NewV7()),
		Severity:  severity,
		Source:    source,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}

	b.mu.Lock()
	b.alerts[alert.ID] = alert
	b.order = append(b.order, alert.ID)
	b.mu.Unlock()

	b.logger.Warn("alert raised",
		slog.String("alert_id", alert.ID.String()),
		slog.String("severity", string(severity)),
		slog.String("source", source),
		slog.String("message", message),
	)

	return alert.Clone()
}

// Alerts returns alerts, newest first.
func (b *bridge) Alerts(includeResolved bool) []*domain.Alert {
	b.mu.Lock()
	defer b.mu.Unlock()

	var alerts []*domain.Alert
	for i := len(b.order) - 1; i >= 0; i-- {
		alert := b.alerts[b.order[i]]
		if alert.Resolved && !includeResolved {
			continue
		}
		alerts = append(alerts, alert.Clone())
	}
	return alerts
}

// Resolve marks an alert resolved.
func (b *bridge) Resolve(id uuid.UUID) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	alert, ok := b.alerts[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	if alert.Resolved {
		return nil
	}

	now := time.Now().UTC()
	alert.Resolved = true
	alert.ResolvedAt = &now
	return nil
}

// Unresolve reopens a resolved alert.
func (b *bridge) Unresolve(id uuid.UUID) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	alert, ok := b.alerts[id]
	if !ok {
		return apperrors.ErrNotFound
	}

	alert.Resolved = false
	alert.ResolvedAt = nil
	return nil
}

// DomainUnhealthy raises a warning alert when a domain service transitions to
// unhealthy. Implements the health monitor's Alerter.
func (b *bridge) DomainUnhealthy(name, reason string) {
	b.RaiseAlert(
		domain.SeverityWarning,
		"health",
		fmt.Sprintf("domain %s is unhealthy: %s", name, reason),
	)
}

// DeliveryExhausted raises a critical alert when the delivery engine drops an
// event for a subscription. Implements the dispatcher's Alerter.
func (b *bridge) DeliveryExhausted(event *eventdomain.Event, subscription *eventdomain.Subscription, attempts int, lastError string) {
	b.RaiseAlert(
		domain.SeverityCritical,
		"delivery",
		fmt.Sprintf("event %s (%s) dropped for subscription %s after %d attempts: %s",
			event.ID, event.Type, subscription.ID, attempts, lastError),
	)
}
