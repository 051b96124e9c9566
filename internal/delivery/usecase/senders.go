package usecase

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"gocloud.dev/pubsub"

	apperrors "github.com/allisson/domainbus/internal/errors"
	"github.com/allisson/domainbus/internal/event/domain"
	"github.com/allisson/domainbus/internal/gateway"
)

// eventEnvelope is the wire form of a delivered event. SubscriptionID tells
// the consumer which of its subscriptions matched, and goes back in the ack.
type eventEnvelope struct {
	ID             string          `json:"id"`
	Type           string          `json:"type"`
	Domain         string          `json:"domain"`
	Data           json.RawMessage `json:"data"`
	Timestamp      time.Time       `json:"timestamp"`
	CorrelationID  string          `json:"correlation_id,omitempty"`
	SubscriptionID string          `json:"subscription_id"`
	SequenceNumber uint64          `json:"sequence_number"`
}

func newEventEnvelope(event *domain.Event, subscription *domain.Subscription) eventEnvelope {
	return eventEnvelope{
		ID:             event.ID,
		Type:           event.Type,
		Domain:         event.Domain,
		Data:           event.Data,
		Timestamp:      event.Timestamp,
		CorrelationID:  event.CorrelationID,
		SubscriptionID: subscription.ID.String(),
		SequenceNumber: event.SequenceNumber,
	}
}

// WebhookSender delivers events by POSTing them to the subscription's webhook
// URL through the domain gateway.
type WebhookSender struct {
	gateway gateway.Gateway
}

// NewWebhookSender creates a new WebhookSender.
func NewWebhookSender(gw gateway.Gateway) *WebhookSender {
	return &WebhookSender{gateway: gw}
}

// Send posts the event envelope to the subscription's webhook URL.
func (w *WebhookSender) Send(ctx context.Context, event *domain.Event, subscription *domain.Subscription) error {
	if subscription.WebhookURL == "" {
		return apperrors.Wrap(apperrors.ErrInvalidInput, "subscription has no webhook url")
	}
	return w.gateway.Post(ctx, subscription.WebhookURL, newEventEnvelope(event, subscription))
}

// BusSender delivers events to another bus instance's inbound topic through
// gocloud pubsub. Topics are opened lazily and cached per URL.
type BusSender struct {
	mu     sync.Mutex
	topics map[string]*pubsub.Topic
}

// NewBusSender creates a new BusSender.
func NewBusSender() *BusSender {
	return &BusSender{topics: make(map[string]*pubsub.Topic)}
}

func (b *BusSender) topic(ctx context.Context, url string) (*pubsub.Topic, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if topic, ok := b.topics[url]; ok {
		return topic, nil
	}

	topic, err := pubsub.OpenTopic(ctx, url)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to open bus topic")
	}
	b.topics[url] = topic
	return topic, nil
}

// Send publishes the event envelope to the subscription's bus topic.
func (b *BusSender) Send(ctx context.Context, event *domain.Event, subscription *domain.Subscription) error {
	if subscription.BusTopicURL == "" {
		return apperrors.Wrap(apperrors.ErrInvalidInput, "subscription has no bus topic url")
	}

	topic, err := b.topic(ctx, subscription.BusTopicURL)
	if err != nil {
		return err
	}

	body, err := json.Marshal(newEventEnvelope(event, subscription))
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal event envelope")
	}

	return topic.Send(ctx, &pubsub.Message{
		Body: body,
		Metadata: map[string]string{
			"event_id":        event.ID,
			"event_type":      event.Type,
			"domain":          event.Domain,
			"sequence_number": strconv.FormatUint(event.SequenceNumber, 10),
		},
	})
}

// Shutdown closes all cached topics.
func (b *BusSender) Shutdown(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var firstErr error
	for url, topic := range b.topics {
		if err := topic.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(b.topics, url)
	}
	return firstErr
}
