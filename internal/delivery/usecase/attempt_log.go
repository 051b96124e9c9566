package usecase

import (
	"sync"

	"github.com/google/uuid"

	"github.com/allisson/domainbus/internal/event/domain"
)

// AttemptLog is a bounded in-memory record of delivery attempts, newest last.
// When full, the oldest attempts are discarded.
type AttemptLog struct {
	mu       sync.Mutex
	attempts []domain.DeliveryAttempt
	capacity int
}

// NewAttemptLog creates a new AttemptLog.
func NewAttemptLog(capacity int) *AttemptLog {
	return &AttemptLog{
		attempts: make([]domain.DeliveryAttempt, 0, capacity),
		capacity: capacity,
	}
}

// Record appends an attempt, evicting the oldest when over capacity.
func (a *AttemptLog) Record(attempt domain.DeliveryAttempt) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.attempts = append(a.attempts, attempt)
	if len(a.attempts) > a.capacity {
		a.attempts = a.attempts[len(a.attempts)-a.capacity:]
	}
}

// List returns up to limit of the most recent attempts, oldest first.
func (a *AttemptLog) List(limit int) []domain.DeliveryAttempt {
	a.mu.Lock()
	defer a.mu.Unlock()

	attempts := a.attempts
	if limit > 0 && len(attempts) > limit {
		attempts = attempts[len(attempts)-limit:]
	}

	out := make([]domain.DeliveryAttempt, len(attempts))
	copy(out, attempts)
	return out
}

// MarkLatestSuccess flips the most recent attempt for the event/subscription
// pair to successful and clears its error. Consumers use this to acknowledge
// a delivery that failed at the transport but was processed anyway. Reports
// whether a matching attempt was found.
func (a *AttemptLog) MarkLatestSuccess(eventID string, subscriptionID uuid.UUID) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	for i := len(a.attempts) - 1; i >= 0; i-- {
		if a.attempts[i].EventID == eventID && a.attempts[i].SubscriptionID == subscriptionID {
			a.attempts[i].Success = true
			a.attempts[i].Error = ""
			return true
		}
	}
	return false
}

// BySubscription returns up to limit of the most recent attempts for one
// subscription, oldest first.
func (a *AttemptLog) BySubscription(id uuid.UUID, limit int) []domain.DeliveryAttempt {
	a.mu.Lock()
	defer a.mu.Unlock()

	var out []domain.DeliveryAttempt
	for _, attempt := range a.attempts {
		if attempt.SubscriptionID == id {
			out = append(out, attempt)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}
