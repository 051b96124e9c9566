package domain

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// WildcardType subscribes to every event type.
const WildcardType = "*"

// Subscription is a standing registration of interest in events. Exactly one
// delivery target is set: a webhook URL posted through the domain gateway, or
// a bus topic URL representing another bus instance's inbox.
type Subscription struct {
	ID                 uuid.UUID
	Domain             string
	EventTypes         []string
	WebhookURL         string
	BusTopicURL        string
	LastSequenceNumber uint64
	CreatedAt          time.Time
}

// Matches reports whether the subscription is interested in the event type.
func (s *Subscription) Matches(eventType string) bool {
	return slices.Contains(s.EventTypes, WildcardType) ||
		slices.Contains(s.EventTypes, eventType)
}

// Clone returns a copy safe to hand outside the registry's lock.
func (s *Subscription) Clone() *Subscription {
	clone := *s
	clone.EventTypes = slices.Clone(s.EventTypes)
	return &clone
}
