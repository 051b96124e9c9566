package dto

import (
	"encoding/json"
	"time"

	eventDomain "github.com/allisson/domainbus/internal/event/domain"
)

// EventResponse represents an event in API responses.
type EventResponse struct {
	ID             string          `json:"id"`
	Type           string          `json:"type"`
	Domain         string          `json:"domain"`
	Data           json.RawMessage `json:"data,omitempty"`
	Timestamp      time.Time       `json:"timestamp"`
	CorrelationID  string          `json:"correlation_id,omitempty"`
	SequenceNumber uint64          `json:"sequence_number"`
	MaxRetries     int             `json:"max_retries"`
}

// MapEventToResponse converts a domain event to an API response.
func MapEventToResponse(event *eventDomain.Event) EventResponse {
	return EventResponse{
		ID:             event.ID,
		Type:           event.Type,
		Domain:         event.Domain,
		Data:           event.Data,
		Timestamp:      event.Timestamp,
		CorrelationID:  event.CorrelationID,
		SequenceNumber: event.SequenceNumber,
		MaxRetries:     event.MaxRetries,
	}
}

// ListEventsResponse represents a list of events in API responses.
type ListEventsResponse struct {
	Events []EventResponse `json:"events"`
}

// MapEventsToListResponse converts domain events to an API list response.
func MapEventsToListResponse(events []*eventDomain.Event) ListEventsResponse {
	response := ListEventsResponse{Events: make([]EventResponse, 0, len(events))}
	for _, event := range events {
		response.Events = append(response.Events, MapEventToResponse(event))
	}
	return response
}

// SubscriptionResponse represents a subscription in API responses.
type SubscriptionResponse struct {
	ID                 string    `json:"id"`
	Domain             string    `json:"domain"`
	EventTypes         []string  `json:"event_types"`
	WebhookURL         string    `json:"webhook_url,omitempty"`
	BusTopicURL        string    `json:"bus_topic_url,omitempty"`
	LastSequenceNumber uint64    `json:"last_sequence_number"`
	CreatedAt          time.Time `json:"created_at"`
}

// MapSubscriptionToResponse converts a domain subscription to an API response.
func MapSubscriptionToResponse(subscription *eventDomain.Subscription) SubscriptionResponse {
	return SubscriptionResponse{
		ID:                 subscription.ID.String(),
		Domain:             subscription.Domain,
		EventTypes:         subscription.EventTypes,
		WebhookURL:         subscription.WebhookURL,
		BusTopicURL:        subscription.BusTopicURL,
		LastSequenceNumber: subscription.LastSequenceNumber,
		CreatedAt:          subscription.CreatedAt,
	}
}

// ListSubscriptionsResponse represents a list of subscriptions in API responses.
type ListSubscriptionsResponse struct {
	Subscriptions []SubscriptionResponse `json:"subscriptions"`
}

// MapSubscriptionsToListResponse converts domain subscriptions to an API list response.
func MapSubscriptionsToListResponse(subscriptions []*eventDomain.Subscription) ListSubscriptionsResponse {
	response := ListSubscriptionsResponse{
		Subscriptions: make([]SubscriptionResponse, 0, len(subscriptions)),
	}
	for _, subscription := range subscriptions {
		response.Subscriptions = append(response.Subscriptions, MapSubscriptionToResponse(subscription))
	}
	return response
}

// DeliveryAttemptResponse represents a delivery attempt in API responses.
type DeliveryAttemptResponse struct {
	EventID        string    `json:"event_id"`
	SubscriptionID string    `json:"subscription_id"`
	SequenceNumber uint64    `json:"sequence_number"`
	AttemptNumber  int       `json:"attempt_number"`
	Timestamp      time.Time `json:"timestamp"`
	Success        bool      `json:"success"`
	Error          string    `json:"error,omitempty"`
	ResponseTimeMS int64     `json:"response_time_ms"`
}

// ListDeliveryAttemptsResponse represents a list of delivery attempts in API responses.
type ListDeliveryAttemptsResponse struct {
	Attempts []DeliveryAttemptResponse `json:"attempts"`
}

// MapAttemptsToListResponse converts domain delivery attempts to an API list response.
func MapAttemptsToListResponse(attempts []eventDomain.DeliveryAttempt) ListDeliveryAttemptsResponse {
	response := ListDeliveryAttemptsResponse{
		Attempts: make([]DeliveryAttemptResponse, 0, len(attempts)),
	}
	for _, attempt := range attempts {
		response.Attempts = append(response.Attempts, DeliveryAttemptResponse{
			EventID:        attempt.EventID,
			SubscriptionID: attempt.SubscriptionID.String(),
			SequenceNumber: attempt.SequenceNumber,
			AttemptNumber:  attempt.AttemptNumber,
			Timestamp:      attempt.Timestamp,
			Success:        attempt.Success,
			Error:          attempt.Error,
			ResponseTimeMS: attempt.ResponseTime.Milliseconds(),
		})
	}
	return response
}
