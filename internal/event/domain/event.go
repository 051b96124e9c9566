// Package domain defines the core event bus entities: events, subscriptions,
// and delivery attempts.
package domain

import (
	"encoding/json"
	"time"
)

// DefaultMaxRetries is the delivery retry cap applied when a publish request
// does not specify one.
const DefaultMaxRetries = 3

// Event is an immutable fact about something that happened in a domain.
// The sequence number is assigned exactly once, at publish time, and is
// strictly increasing within one bus instance.
type Event struct {
	ID             string
	Type           string
	Domain         string
	Data           json.RawMessage
	Timestamp      time.Time
	CorrelationID  string
	SequenceNumber uint64
	MaxRetries     int
}

// EventFilter selects events in QueryEvents. Zero values mean "no filter".
// Since is an exclusive lower bound on the sequence number.
type EventFilter struct {
	Domain string
	Type   string
	Since  uint64
	Limit  int
}

// Match reports whether the event satisfies every provided filter field.
func (f EventFilter) Match(e *Event) bool {
	if f.Domain != "" && e.Domain != f.Domain {
		return false
	}
	if f.Type != "" && e.Type != f.Type {
		return false
	}
	if f.Since > 0 && e.SequenceNumber <= f.Since {
		return false
	}
	return true
}

// LogHealth reports the state of the event log and subscription registry.
type LogHealth struct {
	SubscriptionCount int
	RetainedEvents    int
	LastSequence      uint64
	StorageReachable  bool
}
