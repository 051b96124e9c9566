package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/domainbus/internal/event/domain"
	"github.com/allisson/domainbus/internal/metrics"
)

// eventLogUseCaseWithMetrics decorates EventLogUseCase with metrics instrumentation.
type eventLogUseCaseWithMetrics struct {
	next    EventLogUseCase
	metrics metrics.BusMetrics
}

// NewEventLogUseCaseWithMetrics wraps an EventLogUseCase with metrics recording.
func NewEventLogUseCaseWithMetrics(useCase EventLogUseCase, m metrics.BusMetrics) EventLogUseCase {
	return &eventLogUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Publish records metrics for event publication.
func (e *eventLogUseCaseWithMetrics) Publish(ctx context.Context, input PublishInput) (*domain.Event, error) {
	start := time.Now()
	event, err := e.next.Publish(ctx, input)

	status := "success"
	if err != nil {
		status = "error"
	}

	e.metrics.RecordOperation(ctx, "event_log", "event_publish", status)
	e.metrics.RecordDuration(ctx, "event_log", "event_publish", time.Since(start), status)
	if err == nil {
		e.metrics.RecordEventPublished(ctx, event.Domain, event.Type)
	}

	return event, err
}

// Query records metrics for event queries.
func (e *eventLogUseCaseWithMetrics) Query(ctx context.Context, filter domain.EventFilter) ([]*domain.Event, error) {
	start := time.Now()
	events, err := e.next.Query(ctx, filter)

	status := "success"
	if err != nil {
		status = "error"
	}

	e.metrics.RecordOperation(ctx, "event_log", "event_query", status)
	e.metrics.RecordDuration(ctx, "event_log", "event_query", time.Since(start), status)

	return events, err
}

// Health passes through without instrumentation.
func (e *eventLogUseCaseWithMetrics) Health(ctx context.Context) (*domain.LogHealth, error) {
	return e.next.Health(ctx)
}

// LastSequenceNumber passes through without instrumentation.
func (e *eventLogUseCaseWithMetrics) LastSequenceNumber() uint64 {
	return e.next.LastSequenceNumber()
}

// subscriptionUseCaseWithMetrics decorates SubscriptionUseCase with metrics instrumentation.
type subscriptionUseCaseWithMetrics struct {
	next    SubscriptionUseCase
	metrics metrics.BusMetrics
}

// NewSubscriptionUseCaseWithMetrics wraps a SubscriptionUseCase with metrics recording.
func NewSubscriptionUseCaseWithMetrics(useCase SubscriptionUseCase, m metrics.BusMetrics) SubscriptionUseCase {
	return &subscriptionUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Subscribe records metrics for subscription registration.
func (s *subscriptionUseCaseWithMetrics) Subscribe(ctx context.Context, input SubscribeInput) (*domain.Subscription, error) {
	start := time.Now()
	subscription, err := s.next.Subscribe(ctx, input)

	status := "success"
	if err != nil {
		status = "error"
	}

	s.metrics.RecordOperation(ctx, "subscriptions", "subscribe", status)
	s.metrics.RecordDuration(ctx, "subscriptions", "subscribe", time.Since(start), status)

	return subscription, err
}

// Unsubscribe records metrics for subscription removal.
func (s *subscriptionUseCaseWithMetrics) Unsubscribe(ctx context.Context, id uuid.UUID) error {
	start := time.Now()
	err := s.next.Unsubscribe(ctx, id)

	status := "success"
	if err != nil {
		status = "error"
	}

	s.metrics.RecordOperation(ctx, "subscriptions", "unsubscribe", status)
	s.metrics.RecordDuration(ctx, "subscriptions", "unsubscribe", time.Since(start), status)

	return err
}

// List passes through without instrumentation.
func (s *subscriptionUseCaseWithMetrics) List(ctx context.Context) ([]*domain.Subscription, error) {
	return s.next.List(ctx)
}

// Match passes through without instrumentation.
func (s *subscriptionUseCaseWithMetrics) Match(eventType string) []*domain.Subscription {
	return s.next.Match(eventType)
}

// Exists passes through without instrumentation.
func (s *subscriptionUseCaseWithMetrics) Exists(id uuid.UUID) bool {
	return s.next.Exists(id)
}

// AdvanceHighWater passes through without instrumentation.
func (s *subscriptionUseCaseWithMetrics) AdvanceHighWater(ctx context.Context, id uuid.UUID, sequenceNumber uint64) error {
	return s.next.AdvanceHighWater(ctx, id, sequenceNumber)
}

// Count passes through without instrumentation.
func (s *subscriptionUseCaseWithMetrics) Count() int {
	return s.next.Count()
}

// Load passes through without instrumentation.
func (s *subscriptionUseCaseWithMetrics) Load(ctx context.Context) error {
	return s.next.Load(ctx)
}
