package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"

	healthdomain "github.com/allisson/domainbus/internal/health/domain"

	apperrors "github.com/allisson/domainbus/internal/errors"
	eventusecase "github.com/allisson/domainbus/internal/event/usecase"
	"github.com/allisson/domainbus/internal/gateway"
	"github.com/allisson/domainbus/internal/transaction/domain"
)

// HealthRunner triggers an immediate health sweep. The health monitor
// implements this.
type HealthRunner interface {
	RunNow(ctx context.Context) (*healthdomain.SystemHealth, error)
}

// MetricsSource produces the unified metrics snapshot. The monitoring bridge
// implements this.
type MetricsSource interface {
	Unified(ctx context.Context) (any, error)
}

// ControlMessage is an inbound message addressed to the bus itself.
type ControlMessage struct {
	Kind          string
	Domain        string
	CorrelationID string
	Payload       json.RawMessage
}

// Router dispatches control messages to bus components. Unrecognized kinds
// are not an error: they are treated as domain events and forwarded to the
// event log, so new event types flow through without a bus release.
type Router struct {
	health    HealthRunner
	metrics   MetricsSource
	gateway   gateway.Gateway
	publisher EventPublisher
	logger    *slog.Logger
}

// NewRouter creates a new control message Router.
func NewRouter(
	health HealthRunner,
	metrics MetricsSource,
	gw gateway.Gateway,
	publisher EventPublisher,
	logger *slog.Logger,
) *Router {
	return &Router{
		health:    health,
		metrics:   metrics,
		gateway:   gw,
		publisher: publisher,
		logger:    logger,
	}
}

// Route handles one control message and returns its response body. For
// HEALTH_CHECK and DOMAIN_SYNC a set Domain narrows the message to that one
// domain; an empty Domain addresses all of them.
func (r *Router) Route(ctx context.Context, message ControlMessage) (any, error) {
	switch message.Kind {
	case domain.MessageHealthCheck:
		if message.Domain != "" {
			report, err := r.gateway.CheckHealth(ctx, message.Domain)
			if err != nil {
				return nil, err
			}
			return map[string]any{"domain": message.Domain, "report": report}, nil
		}
		return r.health.RunNow(ctx)

	case domain.MessageMetricsRequest:
		return r.metrics.Unified(ctx)

	case domain.MessageDomainSync:
		if message.Domain != "" {
			if !slices.Contains(r.gateway.Domains(), message.Domain) {
				return nil, apperrors.Wrap(apperrors.ErrNotFound, fmt.Sprintf("unknown domain %q", message.Domain))
			}
			return map[string]any{"domains": []string{message.Domain}}, nil
		}
		return map[string]any{"domains": r.gateway.Domains()}, nil

	default:
		r.logger.Info("forwarding unrecognized message kind to event log",
			slog.String("kind", message.Kind),
			slog.String("domain", message.Domain),
		)

		sourceDomain := message.Domain
		if sourceDomain == "" {
			sourceDomain = "external"
		}

		event, err := r.publisher.Publish(ctx, eventusecase.PublishInput{
			Type:          message.Kind,
			Domain:        sourceDomain,
			Data:          message.Payload,
			CorrelationID: message.CorrelationID,
		})
		if err != nil {
			return nil, err
		}
		return event, nil
	}
}
