// Package validation provides custom validation rules for the application.
package validation

import (
	"regexp"
	"strings"

	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/domainbus/internal/errors"
)

var (
	// domainNameRegex matches lowercase domain identifiers such as
	// "collections" or "revenue-distribution".
	domainNameRegex = regexp.MustCompile(`^[a-z][a-z0-9_\-]*$`)

	// eventTypeRegex matches event type tags such as "PAYMENT_RECEIVED" or
	// "balance.updated". The bare wildcard "*" is validated separately.
	eventTypeRegex = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_.\-]*$`)
)

// WrapValidationError wraps validation errors as domain ErrInvalidInput
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// NotBlank validates that a string is not empty after trimming whitespace
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)

// DomainName validates a participating domain identifier.
var DomainName = validation.NewStringRuleWithError(
	func(s string) bool {
		return domainNameRegex.MatchString(s)
	},
	validation.NewError(
		"validation_domain_name",
		"must be a lowercase identifier (letters, digits, '-', '_')",
	),
)

// EventType validates an event type tag. The wildcard "*" is accepted so
// subscriptions can register interest in all types.
var EventType = validation.NewStringRuleWithError(
	func(s string) bool {
		return s == "*" || eventTypeRegex.MatchString(s)
	},
	validation.NewError(
		"validation_event_type",
		"must be an event type tag or the wildcard '*'",
	),
)

// EachEventType validates every entry of an event type list.
func EachEventType(value interface{}) error {
	types, ok := value.([]string)
	if !ok {
		return validation.NewError("validation_event_types", "must be a list of event types")
	}
	for _, t := range types {
		if err := validation.Validate(t, validation.Required, EventType); err != nil {
			return err
		}
	}
	return nil
}
