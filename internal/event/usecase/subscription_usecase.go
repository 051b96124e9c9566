package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/allisson/domainbus/internal/errors"
	"github.com/allisson/domainbus/internal/event/domain"
)

// subscriptionUseCase implements SubscriptionUseCase. The in-memory map is
// authoritative at runtime; the repository is a write-through copy used to
// rebuild the registry after a restart.
type subscriptionUseCase struct {
	mu               sync.RWMutex
	subscriptions    map[uuid.UUID]*domain.Subscription
	subscriptionRepo SubscriptionRepository
}

// NewSubscriptionUseCase creates a new SubscriptionUseCase.
func NewSubscriptionUseCase(subscriptionRepo SubscriptionRepository) SubscriptionUseCase {
	return &subscriptionUseCase{
		subscriptions:    make(map[uuid.UUID]*domain.Subscription),
		subscriptionRepo: subscriptionRepo,
	}
}

// Subscribe registers a new subscription and persists it.
func (s *subscriptionUseCase) Subscribe(ctx context.Context, input SubscribeInput) (*domain.Subscription, error) {
	if input.Domain == "" || len(input.EventTypes) == 0 {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "subscriber domain and event types are required")
	}
	if (input.WebhookURL == "") == (input.BusTopicURL == "") {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "exactly one of webhook_url or bus_topic_url must be set")
	}

	subscription := &domain.Subscription{
		ID:          uuid.Must(uuid.NewV7()),
		Domain:      input.Domain,
		EventTypes:  input.EventTypes,
		WebhookURL:  input.WebhookURL,
		BusTopicURL: input.BusTopicURL,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.subscriptionRepo.Create(ctx, subscription); err != nil {
		return nil, apperrors.Wrap(err, "failed to persist subscription")
	}

	s.mu.Lock()
	s.subscriptions[subscription.ID] = subscription
	s.mu.Unlock()

	return subscription.Clone(), nil
}

// Unsubscribe removes a subscription. Pending deliveries for it are dropped
// by the delivery engine when it notices the registration is gone.
func (s *subscriptionUseCase) Unsubscribe(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	_, ok := s.subscriptions[id]
	if !ok {
		s.mu.Unlock()
		return apperrors.ErrNotFound
	}
	delete(s.subscriptions, id)
	s.mu.Unlock()

	if err := s.subscriptionRepo.Delete(ctx, id); err != nil {
		return apperrors.Wrap(err, "failed to delete subscription")
	}

	return nil
}

// List returns copies of all subscriptions, oldest first.
func (s *subscriptionUseCase) List(_ context.Context) ([]*domain.Subscription, error) {
	s.mu.RLock()
	subscriptions := make([]*domain.Subscription, 0, len(s.subscriptions))
	for _, subscription := range s.subscriptions {
		subscriptions = append(subscriptions, subscription.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(subscriptions, func(i, j int) bool {
		if subscriptions[i].CreatedAt.Equal(subscriptions[j].CreatedAt) {
			// UUIDv7 ids are time-ordered, so this preserves creation order
			return subscriptions[i].ID.String() < subscriptions[j].ID.String()
		}
		return subscriptions[i].CreatedAt.Before(subscriptions[j].CreatedAt)
	})

	return subscriptions, nil
}

// Match returns copies of the subscriptions interested in the event type.
func (s *subscriptionUseCase) Match(eventType string) []*domain.Subscription {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*domain.Subscription
	for _, subscription := range s.subscriptions {
		if subscription.Matches(eventType) {
			matched = append(matched, subscription.Clone())
		}
	}

	return matched
}

// Exists reports whether the subscription is still registered.
func (s *subscriptionUseCase) Exists(id uuid.UUID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.subscriptions[id]
	return ok
}

// AdvanceHighWater moves the last delivered sequence number forward. Marks
// only advance: a stale ack for an older event is a no-op.
func (s *subscriptionUseCase) AdvanceHighWater(ctx context.Context, id uuid.UUID, sequenceNumber uint64) error {
	s.mu.Lock()
	subscription, ok := s.subscriptions[id]
	if !ok {
		s.mu.Unlock()
		return apperrors.ErrNotFound
	}
	if sequenceNumber <= subscription.LastSequenceNumber {
		s.mu.Unlock()
		return nil
	}
	subscription.LastSequenceNumber = sequenceNumber
	s.mu.Unlock()

	if err := s.subscriptionRepo.UpdateLastSequenceNumber(ctx, id, sequenceNumber); err != nil {
		return apperrors.Wrap(err, "failed to persist last sequence number")
	}

	return nil
}

// Count returns the number of registered subscriptions.
func (s *subscriptionUseCase) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subscriptions)
}

// Load replaces the in-memory registry with the persisted subscriptions.
// Called once at startup, before the HTTP server accepts requests.
func (s *subscriptionUseCase) Load(ctx context.Context) error {
	subscriptions, err := s.subscriptionRepo.List(ctx)
	if err != nil {
		return apperrors.Wrap(err, "failed to load subscriptions")
	}

	s.mu.Lock()
	s.subscriptions = make(map[uuid.UUID]*domain.Subscription, len(subscriptions))
	for _, subscription := range subscriptions {
		s.subscriptions[subscription.ID] = subscription
	}
	s.mu.Unlock()

	return nil
}
