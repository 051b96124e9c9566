// Package usecase implements the event log and subscription registry business
// logic. The event log is the single sequence-number authority for a bus
// instance; the subscription registry is the authoritative in-memory view of
// registered consumers, with persistence for restart recovery.
package usecase

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/allisson/domainbus/internal/event/domain"
)

// EventRepository defines the interface for durable event persistence.
type EventRepository interface {
	Create(ctx context.Context, event *domain.Event) error
	MaxSequenceNumber(ctx context.Context) (uint64, error)
	ListRecent(ctx context.Context, limit int) ([]*domain.Event, error)
}

// SubscriptionRepository defines the interface for subscription persistence.
type SubscriptionRepository interface {
	Create(ctx context.Context, subscription *domain.Subscription) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]*domain.Subscription, error)
	UpdateLastSequenceNumber(ctx context.Context, id uuid.UUID, sequenceNumber uint64) error
}

// EventSink receives a published event together with the subscriptions that
// matched it. The delivery engine implements this.
type EventSink interface {
	Dispatch(event *domain.Event, subscriptions []*domain.Subscription)
}

// StorageChecker reports whether the durable store is reachable.
type StorageChecker interface {
	Reachable(ctx context.Context) bool
}

// PublishInput carries the caller-supplied fields of a new event.
type PublishInput struct {
	// ID is caller-assigned; one is generated when absent. Duplicate ids are
	// accepted and receive distinct sequence numbers.
	ID            string
	Type          string
	Domain        string
	Data          json.RawMessage
	CorrelationID string
	// MaxRetries of zero means use the default.
	MaxRetries int
}

// SubscribeInput carries the fields of a new subscription. Exactly one of
// WebhookURL or BusTopicURL must be set.
type SubscribeInput struct {
	Domain      string
	EventTypes  []string
	WebhookURL  string
	BusTopicURL string
}

// EventLogUseCase defines the interface for the ordered event log.
type EventLogUseCase interface {
	// Publish assigns the next sequence number, persists the event, retains
	// it in the query window, and hands it to the delivery sink.
	Publish(ctx context.Context, input PublishInput) (*domain.Event, error)
	// Query returns retained events matching the filter, ascending by
	// sequence number. Events evicted from the window are not returned.
	Query(ctx context.Context, filter domain.EventFilter) ([]*domain.Event, error)
	// Health reports the current state of the log and registry.
	Health(ctx context.Context) (*domain.LogHealth, error)
	// LastSequenceNumber returns the most recently assigned sequence number.
	LastSequenceNumber() uint64
}

// SubscriptionUseCase defines the interface for the subscription registry.
type SubscriptionUseCase interface {
	Subscribe(ctx context.Context, input SubscribeInput) (*domain.Subscription, error)
	Unsubscribe(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]*domain.Subscription, error)
	// Match returns copies of the subscriptions interested in the event type.
	Match(eventType string) []*domain.Subscription
	// Exists reports whether the subscription is still registered. The
	// delivery engine uses this to drop retries for removed subscriptions.
	Exists(id uuid.UUID) bool
	// AdvanceHighWater moves the subscription's last delivered sequence
	// number forward. Lower values than the current mark are ignored.
	AdvanceHighWater(ctx context.Context, id uuid.UUID, sequenceNumber uint64) error
	Count() int
	// Load replaces the in-memory registry with the persisted subscriptions.
	Load(ctx context.Context) error
}
