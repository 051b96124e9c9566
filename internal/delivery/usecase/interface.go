// Package usecase implements the delivery engine: fan-out of published events
// to matching subscriptions, with per-subscription retry and backoff.
package usecase

import (
	"context"

	"github.com/google/uuid"

	"github.com/allisson/domainbus/internal/event/domain"
)

// Sender pushes a single event to a subscription's delivery target.
type Sender interface {
	Send(ctx context.Context, event *domain.Event, subscription *domain.Subscription) error
}

// Registry is the subset of the subscription registry the dispatcher needs:
// liveness checks for scheduled retries and high-water advancement after a
// successful delivery.
type Registry interface {
	Exists(id uuid.UUID) bool
	AdvanceHighWater(ctx context.Context, id uuid.UUID, sequenceNumber uint64) error
}

// Alerter is notified when an event exhausts its retry budget for a
// subscription and is dropped. The monitoring bridge implements this.
type Alerter interface {
	DeliveryExhausted(event *domain.Event, subscription *domain.Subscription, attempts int, lastError string)
}

// NoOpAlerter discards exhaustion notifications.
type NoOpAlerter struct{}

// DeliveryExhausted does nothing.
func (NoOpAlerter) DeliveryExhausted(*domain.Event, *domain.Subscription, int, string) {}
