package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/allisson/domainbus/internal/errors"
	"github.com/allisson/domainbus/internal/event/domain"
)

// eventLogUseCase implements EventLogUseCase. A single mutex covers sequence
// assignment, persistence, and window insertion, so sequence numbers are
// assigned and appended in the same order.
type eventLogUseCase struct {
	mu       sync.Mutex
	sequence uint64
	window   []*domain.Event
	capacity int

	eventRepo EventRepository
	registry  SubscriptionUseCase
	sink      EventSink
	storage   StorageChecker
}

// NewEventLogUseCase creates a new EventLogUseCase. lastSequence seeds the
// counter from the durable store and recent warms the query window; both come
// from the event repository at startup.
func NewEventLogUseCase(
	eventRepo EventRepository,
	registry SubscriptionUseCase,
	sink EventSink,
	storage StorageChecker,
	capacity int,
	lastSequence uint64,
	recent []*domain.Event,
) EventLogUseCase {
	window := make([]*domain.Event, 0, capacity)
	if len(recent) > capacity {
		recent = recent[len(recent)-capacity:]
	}
	window = append(window, recent...)

	return &eventLogUseCase{
		sequence:  lastSequence,
		window:    window,
		capacity:  capacity,
		eventRepo: eventRepo,
		registry:  registry,
		sink:      sink,
		storage:   storage,
	}
}

// Publish assigns the next sequence number and persists the event before it
// becomes visible to queries. The counter only advances when persistence
// succeeds, so the durable log has no gaps.
func (e *eventLogUseCase) Publish(ctx context.Context, input PublishInput) (*domain.Event, error) {
	if input.Type == "" || input.Domain == "" {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "event type and domain are required")
	}

	maxRetries := input.MaxRetries
	if maxRetries <= 0 {
		maxRetries = domain.DefaultMaxRetries
	}

	data := input.Data
	if len(data) == 0 {
		data = []byte("{}")
	}

	id := input.ID
	if id == "" {
		id = uuid.Must(uuid.NewV7()).String()
	}

	event := &domain.Event{
		ID:            id,
		Type:          input.Type,
		Domain:        input.Domain,
		Data:          data,
		Timestamp:     time.Now().UTC(),
		CorrelationID: input.CorrelationID,
		MaxRetries:    maxRetries,
	}

	e.mu.Lock()
	event.SequenceNumber = e.sequence + 1

	if err := e.eventRepo.Create(ctx, event); err != nil {
		e.mu.Unlock()
		return nil, apperrors.Wrap(err, "failed to persist event")
	}

	e.sequence = event.SequenceNumber
	e.window = append(e.window, event)
	if len(e.window) > e.capacity {
		// Eviction affects query visibility only; the durable log keeps
		// everything and in-flight deliveries hold their own reference.
		e.window = e.window[len(e.window)-e.capacity:]
	}
	e.mu.Unlock()

	e.sink.Dispatch(event, e.registry.Match(event.Type))

	return event, nil
}

// Query returns retained events matching the filter, ascending by sequence
// number. When the limit cuts the result, the most recent matches win.
func (e *eventLogUseCase) Query(_ context.Context, filter domain.EventFilter) ([]*domain.Event, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	results := make([]*domain.Event, 0)
	for _, event := range e.window {
		if filter.Match(event) {
			results = append(results, event)
		}
	}

	if filter.Limit > 0 && len(results) > filter.Limit {
		results = results[len(results)-filter.Limit:]
	}

	return results, nil
}

// Health reports the log and registry state. A log with an unreachable store
// can still accept queries but will fail publishes.
func (e *eventLogUseCase) Health(ctx context.Context) (*domain.LogHealth, error) {
	e.mu.Lock()
	retained := len(e.window)
	lastSequence := e.sequence
	e.mu.Unlock()

	return &domain.LogHealth{
		SubscriptionCount: e.registry.Count(),
		RetainedEvents:    retained,
		LastSequence:      lastSequence,
		StorageReachable:  e.storage.Reachable(ctx),
	}, nil
}

// LastSequenceNumber returns the most recently assigned sequence number.
func (e *eventLogUseCase) LastSequenceNumber() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sequence
}
