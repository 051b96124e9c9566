package usecase

import (
	"container/heap"
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/domainbus/internal/event/domain"
	"github.com/allisson/domainbus/internal/metrics"
)

// Config holds dispatcher configuration.
type Config struct {
	Workers     int
	SendTimeout time.Duration
	BackoffBase time.Duration
	BackoffCap  time.Duration
}

// task is one pending delivery of an event to a subscription.
type task struct {
	event        *domain.Event
	subscription *domain.Subscription
	attempt      int
	due          time.Time
	index        int
}

// taskQueue is a min-heap of tasks ordered by due time.
type taskQueue []*task

func (q taskQueue) Len() int            { return len(q) }
func (q taskQueue) Less(i, j int) bool  { return q[i].due.Before(q[j].due) }
func (q taskQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i]; q[i].index = i; q[j].index = j }
func (q *taskQueue) Push(x interface{}) { t := x.(*task); t.index = len(*q); *q = append(*q, t) }
func (q *taskQueue) Pop() interface{} {
	old := *q
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return t
}

// Dispatcher delivers published events to their matching subscriptions.
// A scheduler goroutine owns the retry heap and feeds due tasks to a worker
// pool; workers send, and reschedule failures through the scheduler with
// exponential backoff. Delivery is at-least-once: a consumer that times out
// after processing will see the event again.
type Dispatcher struct {
	config     Config
	registry   Registry
	webhook    Sender
	bus        Sender
	attemptLog *AttemptLog
	alerter    Alerter
	metrics    metrics.BusMetrics
	logger     *slog.Logger

	incoming chan *task
	ready    chan *task

	mu      sync.Mutex
	pending map[string]bool // key -> acked
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(
	config Config,
	registry Registry,
	webhook Sender,
	bus Sender,
	attemptLog *AttemptLog,
	alerter Alerter,
	m metrics.BusMetrics,
	logger *slog.Logger,
) *Dispatcher {
	if alerter == nil {
		alerter = NoOpAlerter{}
	}

	return &Dispatcher{
		config:     config,
		registry:   registry,
		webhook:    webhook,
		bus:        bus,
		attemptLog: attemptLog,
		alerter:    alerter,
		metrics:    m,
		logger:     logger,
		incoming:   make(chan *task, 1024),
		ready:      make(chan *task, 256),
		pending:    make(map[string]bool),
	}
}

func deliveryKey(eventID string, subscriptionID uuid.UUID) string {
	return eventID + "|" + subscriptionID.String()
}

// Dispatch queues first delivery attempts for every matched subscription.
// Implements the event log's EventSink.
func (d *Dispatcher) Dispatch(event *domain.Event, subscriptions []*domain.Subscription) {
	for _, subscription := range subscriptions {
		d.mu.Lock()
		d.pending[deliveryKey(event.ID, subscription.ID)] = false
		d.mu.Unlock()

		d.incoming <- &task{
			event:        event,
			subscription: subscription,
			attempt:      1,
			due:          time.Now(),
		}
	}
}

// Ack marks an event as processed by a subscription. Pending retries for the
// pair are dropped, the latest recorded attempt is retroactively marked
// successful, and the subscription's high-water mark advances. Acks for
// unknown pairs still advance the mark: the delivery may already have been
// retired as successful.
func (d *Dispatcher) Ack(ctx context.Context, subscriptionID uuid.UUID, eventID string, sequenceNumber uint64) error {
	d.mu.Lock()
	key := deliveryKey(eventID, subscriptionID)
	if _, ok := d.pending[key]; ok {
		d.pending[key] = true
	}
	d.mu.Unlock()

	d.attemptLog.MarkLatestSuccess(eventID, subscriptionID)

	return d.registry.AdvanceHighWater(ctx, subscriptionID, sequenceNumber)
}

// Attempts exposes the in-memory delivery attempt log.
func (d *Dispatcher) Attempts() *AttemptLog {
	return d.attemptLog
}

// Backoff returns the delay before the given retry attempt (attempt 2 is the
// first retry). Grows exponentially from the base, capped.
func (d *Dispatcher) Backoff(attempt int) time.Duration {
	delay := d.config.BackoffBase << (attempt - 2)
	if delay > d.config.BackoffCap || delay <= 0 {
		return d.config.BackoffCap
	}
	return delay
}

// Start runs the scheduler and worker pool until the context is canceled.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.logger.Info("starting delivery dispatcher",
		slog.Int("workers", d.config.Workers),
		slog.Duration("send_timeout", d.config.SendTimeout),
	)

	var wg sync.WaitGroup
	for i := 0; i < d.config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.worker(ctx)
		}()
	}

	d.scheduler(ctx)

	wg.Wait()
	d.logger.Info("stopping delivery dispatcher")
	return ctx.Err()
}

// scheduler owns the delayed-task heap. Tasks become ready when their due
// time passes.
func (d *Dispatcher) scheduler(ctx context.Context) {
	queue := &taskQueue{}
	heap.Init(queue)

	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	resetTimer := func() {
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		if queue.Len() > 0 {
			timer.Reset(time.Until((*queue)[0].due))
		} else {
			timer.Reset(time.Hour)
		}
	}

	for {
		// Move everything due to the workers
		for queue.Len() > 0 && !(*queue)[0].due.After(time.Now()) {
			t := heap.Pop(queue).(*task)
			select {
			case d.ready <- t:
			case <-ctx.Done():
				return
			}
		}
		resetTimer()

		select {
		case <-ctx.Done():
			return
		case t := <-d.incoming:
			heap.Push(queue, t)
		case <-timer.C:
		}
	}
}

// worker sends ready tasks and reschedules failures.
func (d *Dispatcher) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-d.ready:
			d.deliver(ctx, t)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, t *task) {
	key := deliveryKey(t.event.ID, t.subscription.ID)

	// Acked in the meantime, or the subscription was removed: drop silently.
	d.mu.Lock()
	acked := d.pending[key]
	d.mu.Unlock()
	if acked || !d.registry.Exists(t.subscription.ID) {
		d.finish(key)
		return
	}

	sender := d.webhook
	if t.subscription.BusTopicURL != "" {
		sender = d.bus
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.config.SendTimeout)
	start := time.Now()
	err := sender.Send(sendCtx, t.event, t.subscription)
	elapsed := time.Since(start)
	cancel()

	attempt := domain.DeliveryAttempt{
		EventID:        t.event.ID,
		SubscriptionID: t.subscription.ID,
		SequenceNumber: t.event.SequenceNumber,
		AttemptNumber:  t.attempt,
		Timestamp:      time.Now().UTC(),
		Success:        err == nil,
		ResponseTime:   elapsed,
	}
	if err != nil {
		attempt.Error = err.Error()
	}
	d.attemptLog.Record(attempt)

	if err == nil {
		d.metrics.RecordDeliveryAttempt(ctx, "success")
		d.finish(key)
		if err := d.registry.AdvanceHighWater(ctx, t.subscription.ID, t.event.SequenceNumber); err != nil {
			d.logger.Warn("failed to advance subscription high-water mark",
				slog.String("subscription_id", t.subscription.ID.String()),
				slog.Any("error", err),
			)
		}
		return
	}

	if t.attempt >= t.event.MaxRetries {
		d.metrics.RecordDeliveryAttempt(ctx, "exhausted")
		d.logger.Error("delivery exhausted, dropping event for subscription",
			slog.String("event_id", t.event.ID),
			slog.String("event_type", t.event.Type),
			slog.String("subscription_id", t.subscription.ID.String()),
			slog.Int("attempts", t.attempt),
			slog.String("error", err.Error()),
		)
		d.finish(key)
		d.alerter.DeliveryExhausted(t.event, t.subscription, t.attempt, err.Error())
		return
	}

	d.metrics.RecordDeliveryAttempt(ctx, "retry")
	retry := &task{
		event:        t.event,
		subscription: t.subscription,
		attempt:      t.attempt + 1,
		due:          time.Now().Add(d.Backoff(t.attempt + 1)),
	}

	d.logger.Info("delivery failed, scheduling retry",
		slog.String("event_id", t.event.ID),
		slog.String("subscription_id", t.subscription.ID.String()),
		slog.Int("next_attempt", retry.attempt),
		slog.Duration("delay", time.Until(retry.due)),
	)

	select {
	case d.incoming <- retry:
	case <-ctx.Done():
	}
}

func (d *Dispatcher) finish(key string) {
	d.mu.Lock()
	delete(d.pending, key)
	d.mu.Unlock()
}
