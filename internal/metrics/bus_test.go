package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider(t *testing.T) {
	provider, err := NewProvider("domainbus")
	require.NoError(t, err)
	defer func() {
		_ = provider.Shutdown(context.Background())
	}()

	assert.NotNil(t, provider.Handler())
	assert.NotNil(t, provider.MeterProvider())
}

func TestBusMetrics(t *testing.T) {
	provider, err := NewProvider("domainbus")
	require.NoError(t, err)
	defer func() {
		_ = provider.Shutdown(context.Background())
	}()

	m, err := NewBusMetrics(provider.MeterProvider(), "domainbus")
	require.NoError(t, err)

	ctx := context.Background()

	// Recording must not panic; export correctness is the SDK's concern.
	m.RecordOperation(ctx, "event_log", "publish", "success")
	m.RecordDuration(ctx, "event_log", "publish", 5*time.Millisecond, "success")
	m.RecordEventPublished(ctx, "collections", "PAYMENT_RECEIVED")
	m.RecordDeliveryAttempt(ctx, "retry")
	m.RecordTransaction(ctx, "PLAYER_WINNINGS", "completed")
}

func TestNoOpBusMetrics(t *testing.T) {
	m := NewNoOpBusMetrics()
	ctx := context.Background()

	m.RecordOperation(ctx, "event_log", "publish", "success")
	m.RecordDuration(ctx, "event_log", "publish", time.Millisecond, "success")
	m.RecordEventPublished(ctx, "balance", "X")
	m.RecordDeliveryAttempt(ctx, "success")
	m.RecordTransaction(ctx, "SETTLEMENT", "failed")
}
