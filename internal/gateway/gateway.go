// Package gateway provides the single egress point for calls from the bus to
// domain services: transaction step invocations, health checks, and webhook
// event deliveries.
package gateway

import (
	"context"
	"encoding/json"
	"time"
)

// HealthReport is a domain service's answer to a health probe.
type HealthReport struct {
	Status       string
	Version      string
	Metrics      map[string]any
	ResponseTime time.Duration
}

// Gateway defines the interface for outbound calls to domain services.
type Gateway interface {
	// Invoke calls the named operation on a domain service and returns the
	// raw response body.
	Invoke(ctx context.Context, domain, operation string, payload any) (json.RawMessage, error)
	// CheckHealth probes a domain service's health endpoint.
	CheckHealth(ctx context.Context, domain string) (*HealthReport, error)
	// Post delivers a JSON body to an arbitrary URL. Used for webhook
	// event deliveries.
	Post(ctx context.Context, url string, body any) error
	// Domains returns the names of all configured domain services.
	Domains() []string
}
