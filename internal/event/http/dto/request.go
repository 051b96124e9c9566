// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	"encoding/json"
	"fmt"

	validation "github.com/jellydator/validation"

	"github.com/allisson/domainbus/internal/event/domain"
	customValidation "github.com/allisson/domainbus/internal/validation"
)

// PublishEventRequest contains the parameters for publishing a new event.
// ID is caller-assigned; the log generates one when it is absent.
type PublishEventRequest struct {
	ID            string          `json:"id"`
	Type          string          `json:"type" binding:"required"`
	Domain        string          `json:"domain" binding:"required"`
	Data          json.RawMessage `json:"data"`
	CorrelationID string          `json:"correlation_id"`
	MaxRetries    int             `json:"max_retries"`
}

// Validate checks if the publish event request is valid. The wildcard is a
// subscription construct, not a publishable type.
func (r *PublishEventRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Type,
			validation.Required,
			customValidation.EventType,
			validation.NotIn(domain.WildcardType).Error("wildcard is not a publishable event type"),
		),
		validation.Field(&r.Domain,
			validation.Required,
			customValidation.DomainName,
		),
		validation.Field(&r.MaxRetries,
			validation.Min(0),
			validation.Max(10),
		),
	)
}

// SubscribeRequest contains the parameters for registering a subscription.
// Exactly one of WebhookURL or BusTopicURL must be set.
type SubscribeRequest struct {
	Domain      string   `json:"domain" binding:"required"`
	EventTypes  []string `json:"event_types" binding:"required"`
	WebhookURL  string   `json:"webhook_url"`
	BusTopicURL string   `json:"bus_topic_url"`
}

// Validate checks if the subscribe request is valid.
func (r *SubscribeRequest) Validate() error {
	if (r.WebhookURL == "") == (r.BusTopicURL == "") {
		return fmt.Errorf("exactly one of webhook_url or bus_topic_url must be set")
	}

	return validation.ValidateStruct(r,
		validation.Field(&r.Domain,
			validation.Required,
			customValidation.DomainName,
		),
		validation.Field(&r.EventTypes,
			validation.Required,
			validation.By(customValidation.EachEventType),
		),
	)
}

// AckRequest contains the parameters for acknowledging a delivered event.
type AckRequest struct {
	EventID        string `json:"event_id" binding:"required"`
	SequenceNumber uint64 `json:"sequence_number"`
}

// Validate checks if the ack request is valid.
func (r *AckRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.EventID,
			validation.Required,
			customValidation.NotBlank,
		),
	)
}
