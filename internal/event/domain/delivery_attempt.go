package domain

import (
	"time"

	"github.com/google/uuid"
)

// DeliveryAttempt is one try at pushing an event to a subscription's target.
// Attempt numbers for a given (event, subscription) pair increase by one per
// retry; once the attempt number reaches the event's MaxRetries no further
// attempts are scheduled.
type DeliveryAttempt struct {
	EventID        string
	SubscriptionID uuid.UUID
	SequenceNumber uint64
	AttemptNumber  int
	Timestamp      time.Time
	Success        bool
	Error          string
	ResponseTime   time.Duration
}
