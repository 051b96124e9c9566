// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	"encoding/json"

	validation "github.com/jellydator/validation"

	customValidation "github.com/allisson/domainbus/internal/validation"
)

// StepRequest describes one step of a new transaction.
type StepRequest struct {
	Domain    string          `json:"domain" binding:"required"`
	Operation string          `json:"operation" binding:"required"`
	Payload   json.RawMessage `json:"payload"`
}

// Validate checks if the step request is valid.
func (r StepRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Domain,
			validation.Required,
			customValidation.DomainName,
		),
		validation.Field(&r.Operation,
			validation.Required,
			customValidation.NotBlank,
		),
	)
}

// CoordinateTransactionRequest contains the parameters for starting a
// transaction.
type CoordinateTransactionRequest struct {
	Type          string        `json:"type" binding:"required"`
	CorrelationID string        `json:"correlation_id"`
	Steps         []StepRequest `json:"steps" binding:"required"`
}

// Validate checks if the coordinate transaction request is valid.
func (r *CoordinateTransactionRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Type,
			validation.Required,
			customValidation.NotBlank,
		),
		validation.Field(&r.Steps,
			validation.Required,
			validation.Length(1, 0),
		),
	)
}

// ControlMessageRequest contains an inbound message addressed to the bus.
// Recognized kinds are handled by bus components; everything else is
// forwarded to the event log as a domain event.
type ControlMessageRequest struct {
	Kind          string          `json:"kind" binding:"required"`
	Domain        string          `json:"domain"`
	CorrelationID string          `json:"correlation_id"`
	Payload       json.RawMessage `json:"payload"`
}

// Validate checks if the control message request is valid.
func (r *ControlMessageRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Kind,
			validation.Required,
			customValidation.NotBlank,
		),
	)
}
