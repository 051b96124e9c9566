package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// BusMetrics defines the interface for recording bus operation metrics.
// Implementations track published events, delivery attempts, coordinated
// transactions, and generic operation counts/durations for observability.
type BusMetrics interface {
	// RecordOperation records a bus operation with its status.
	// Component examples: "event_log", "registry", "coordinator"
	// Operation examples: "publish", "subscribe", "coordinate"
	// Status examples: "success", "error"
	RecordOperation(ctx context.Context, component, operation, status string)

	// RecordDuration records the duration of a bus operation with its status.
	// Duration is recorded in seconds as a histogram for percentile calculations.
	RecordDuration(ctx context.Context, component, operation string, duration time.Duration, status string)

	// RecordEventPublished counts a published event by origin domain and type.
	RecordEventPublished(ctx context.Context, domain, eventType string)

	// RecordDeliveryAttempt counts a delivery attempt by outcome:
	// "success", "retry", "exhausted".
	RecordDeliveryAttempt(ctx context.Context, outcome string)

	// RecordTransaction counts a finished transaction by terminal status.
	RecordTransaction(ctx context.Context, transactionType, status string)
}

// busMetrics implements BusMetrics using OpenTelemetry metrics.
type busMetrics struct {
	operationCounter   metric.Int64Counter
	durationHisto      metric.Float64Histogram
	eventCounter       metric.Int64Counter
	deliveryCounter    metric.Int64Counter
	transactionCounter metric.Int64Counter
}

// NewBusMetrics creates a new BusMetrics implementation using the provided meter provider.
// The namespace parameter is used as a prefix for all metric names.
// Returns error if meters cannot be initialized.
func NewBusMetrics(meterProvider metric.MeterProvider, namespace string) (BusMetrics, error) {
	meter := meterProvider.Meter(namespace)

	operationCounter, err := meter.Int64Counter(
		fmt.Sprintf("%s_operations_total", namespace),
		metric.WithDescription("Total number of bus operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create operation counter: %w", err)
	}

	durationHisto, err := meter.Float64Histogram(
		fmt.Sprintf("%s_operation_duration_seconds", namespace),
		metric.WithDescription("Duration of bus operations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}

	eventCounter, err := meter.Int64Counter(
		fmt.Sprintf("%s_events_published_total", namespace),
		metric.WithDescription("Total number of published events"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create event counter: %w", err)
	}

	deliveryCounter, err := meter.Int64Counter(
		fmt.Sprintf("%s_delivery_attempts_total", namespace),
		metric.WithDescription("Total number of delivery attempts by outcome"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create delivery counter: %w", err)
	}

	transactionCounter, err := meter.Int64Counter(
		fmt.Sprintf("%s_transactions_total", namespace),
		metric.WithDescription("Total number of coordinated transactions by terminal status"),
		metric.WithUnit("{transaction}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction counter: %w", err)
	}

	return &busMetrics{
		operationCounter:   operationCounter,
		durationHisto:      durationHisto,
		eventCounter:       eventCounter,
		deliveryCounter:    deliveryCounter,
		transactionCounter: transactionCounter,
	}, nil
}

// RecordOperation increments the operation counter with component, operation, and status labels.
func (b *busMetrics) RecordOperation(ctx context.Context, component, operation, status string) {
	b.operationCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("component", component),
			attribute.String("operation", operation),
			attribute.String("status", status),
		),
	)
}

// RecordDuration records the operation duration in seconds with component, operation, and status labels.
func (b *busMetrics) RecordDuration(
	ctx context.Context,
	component, operation string,
	duration time.Duration,
	status string,
) {
	b.durationHisto.Record(ctx, duration.Seconds(),
		metric.WithAttributes(
			attribute.String("component", component),
			attribute.String("operation", operation),
			attribute.String("status", status),
		),
	)
}

// RecordEventPublished increments the published-event counter.
func (b *busMetrics) RecordEventPublished(ctx context.Context, domain, eventType string) {
	b.eventCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("domain", domain),
			attribute.String("event_type", eventType),
		),
	)
}

// RecordDeliveryAttempt increments the delivery-attempt counter by outcome.
func (b *busMetrics) RecordDeliveryAttempt(ctx context.Context, outcome string) {
	b.deliveryCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("outcome", outcome),
		),
	)
}

// RecordTransaction increments the transaction counter by terminal status.
func (b *busMetrics) RecordTransaction(ctx context.Context, transactionType, status string) {
	b.transactionCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("type", transactionType),
			attribute.String("status", status),
		),
	)
}

// NoOpBusMetrics is a no-op implementation of BusMetrics for when metrics are disabled.
type NoOpBusMetrics struct{}

// NewNoOpBusMetrics creates a no-op BusMetrics implementation.
func NewNoOpBusMetrics() BusMetrics {
	return &NoOpBusMetrics{}
}

// RecordOperation does nothing when metrics are disabled.
func (n *NoOpBusMetrics) RecordOperation(ctx context.Context, component, operation, status string) {
	// No-op
}

// RecordDuration does nothing when metrics are disabled.
func (n *NoOpBusMetrics) RecordDuration(
	ctx context.Context,
	component, operation string,
	duration time.Duration,
	status string,
) {
	// No-op
}

// RecordEventPublished does nothing when metrics are disabled.
func (n *NoOpBusMetrics) RecordEventPublished(ctx context.Context, domain, eventType string) {
	// No-op
}

// RecordDeliveryAttempt does nothing when metrics are disabled.
func (n *NoOpBusMetrics) RecordDeliveryAttempt(ctx context.Context, outcome string) {
	// No-op
}

// RecordTransaction does nothing when metrics are disabled.
func (n *NoOpBusMetrics) RecordTransaction(ctx context.Context, transactionType, status string) {
	// No-op
}
