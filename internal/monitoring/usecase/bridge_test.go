package usecase

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/domainbus/internal/errors"
	eventdomain "github.com/allisson/domainbus/internal/event/domain"
	healthdomain "github.com/allisson/domainbus/internal/health/domain"
	"github.com/allisson/domainbus/internal/monitoring/domain"
	transactiondomain "github.com/allisson/domainbus/internal/transaction/domain"
)

type fakeEventLogHealth struct {
	health eventdomain.LogHealth
}

func (f *fakeEventLogHealth) Health(context.Context) (*eventdomain.LogHealth, error) {
	h := f.health
	return &h, nil
}

type fakeHealthSnapshotter struct {
	health healthdomain.SystemHealth
}

func (f *fakeHealthSnapshotter) Snapshot() *healthdomain.SystemHealth {
	h := f.health
	return &h
}

type fakeTransactionSummarizer struct {
	summary transactiondomain.Summary
}

func (f *fakeTransactionSummarizer) Summary() transactiondomain.Summary {
	return f.summary
}

func newTestBridge() BridgeUseCase {
	return NewBridge(
		&fakeEventLogHealth{health: eventdomain.LogHealth{
			SubscriptionCount: 2,
			RetainedEvents:    10,
			LastSequence:      42,
			StorageReachable:  true,
		}},
		&fakeHealthSnapshotter{health: healthdomain.SystemHealth{
			Status:           healthdomain.StatusHealthy,
			HealthPercentage: 100,
			Domains: []healthdomain.DomainStatus{
				{Domain: "balance", Status: healthdomain.StatusHealthy},
			},
		}},
		&fakeTransactionSummarizer{summary: transactiondomain.Summary{Total: 3, Completed: 2, Failed: 1}},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
}

func TestBridge_UnifiedMetrics(t *testing.T) {
	bridge := newTestBridge()

	metrics, err := bridge.UnifiedMetrics(context.Background())
	require.NoError(t, err)

	assert.Equal(t, healthdomain.StatusHealthy, metrics.OverallStatus)
	assert.Equal(t, 100, metrics.HealthScore)
	assert.Equal(t, uint64(42), metrics.EventLog.LastSequence)
	assert.Equal(t, 3, metrics.Transactions.Total)
	assert.Equal(t, 0, metrics.ActiveAlerts)
	assert.False(t, metrics.GeneratedAt.IsZero())
}

func TestBridge_UnifiedMetrics_StorageDownDegrades(t *testing.T) {
	bridge := NewBridge(
		&fakeEventLogHealth{health: eventdomain.LogHealth{StorageReachable: false}},
		&fakeHealthSnapshotter{health: healthdomain.SystemHealth{
			Status:           healthdomain.StatusHealthy,
			HealthPercentage: 100,
		}},
		&fakeTransactionSummarizer{},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)

	metrics, err := bridge.UnifiedMetrics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, healthdomain.StatusDegraded, metrics.OverallStatus)
}

func TestBridge_Alerts(t *testing.T) {
	bridge := newTestBridge()

	first := bridge.RaiseAlert(domain.SeverityWarning, "delivery", "slow consumer")
	second := bridge.RaiseAlert(domain.SeverityCritical, "delivery", "event dropped")

	alerts := bridge.Alerts(false)
	require.Len(t, alerts, 2)
	assert.Equal(t, second.ID, alerts[0].ID, "newest first")
	assert.Equal(t, first.ID, alerts[1].ID)

	// Resolve hides the alert from the active list
	require.NoError(t, bridge.Resolve(first.ID))
	alerts = bridge.Alerts(false)
	require.Len(t, alerts, 1)
	assert.Equal(t, second.ID, alerts[0].ID)

	// But keeps it in the full list with its resolution time
	alerts = bridge.Alerts(true)
	require.Len(t, alerts, 2)
	assert.True(t, alerts[1].Resolved)
	assert.NotNil(t, alerts[1].ResolvedAt)

	// Unresolve reopens it
	require.NoError(t, bridge.Unresolve(first.ID))
	alerts = bridge.Alerts(false)
	assert.Len(t, alerts, 2)

	// Unknown ids
	assert.ErrorIs(t, bridge.Resolve(uuid.Must(uuid.NewV7())), apperrors.ErrNotFound)
	assert.ErrorIs(t, bridge.Unresolve(uuid.Must(uuid.NewV7())), apperrors.ErrNotFound)
}

func TestBridge_ActiveAlertCount(t *testing.T) {
	bridge := newTestBridge()

	alert := bridge.RaiseAlert(domain.SeverityInfo, "health", "domain recovered")
	bridge.RaiseAlert(domain.SeverityWarning, "health", "domain slow")

	metrics, err := bridge.UnifiedMetrics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, metrics.ActiveAlerts)

	require.NoError(t, bridge.Resolve(alert.ID))
	metrics, err = bridge.UnifiedMetrics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, metrics.ActiveAlerts)
}

func TestBridge_DomainUnhealthyRaisesWarningAlert(t *testing.T) {
	bridgeUseCase := newTestBridge()
	concrete, ok := bridgeUseCase.(*bridge)
	require.True(t, ok)

	concrete.DomainUnhealthy("reporting", "connection refused")

	alerts := bridgeUseCase.Alerts(false)
	require.Len(t, alerts, 1)
	assert.Equal(t, domain.SeverityWarning, alerts[0].Severity)
	assert.Equal(t, "health", alerts[0].Source)
	assert.Contains(t, alerts[0].Message, "reporting")
}

func TestBridge_DeliveryExhaustedRaisesCriticalAlert(t *testing.T) {
	bridgeUseCase := newTestBridge()
	concrete, ok := bridgeUseCase.(*bridge)
	require.True(t, ok)

	event := &eventdomain.Event{ID: "evt-1", Type: "PAYMENT_RECEIVED"}
	subscription := &eventdomain.Subscription{ID: uuid.Must(uuid.NewV7())}

	concrete.DeliveryExhausted(event, subscription, 3, "connection refused")

	alerts := bridgeUseCase.Alerts(false)
	require.Len(t, alerts, 1)
	assert.Equal(t, domain.SeverityCritical, alerts[0].Severity)
	assert.Equal(t, "delivery", alerts[0].Source)
	assert.Contains(t, alerts[0].Message, "evt-1")
	assert.Contains(t, alerts[0].Message, "3 attempts")
}
