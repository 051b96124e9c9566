// Package usecase implements the cross-domain transaction coordinator and
// the control message router.
package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	eventdomain "github.com/allisson/domainbus/internal/event/domain"
	eventusecase "github.com/allisson/domainbus/internal/event/usecase"
	"github.com/allisson/domainbus/internal/transaction/domain"
)

// Config holds coordinator configuration.
type Config struct {
	// StepTimeout bounds a single domain operation call.
	StepTimeout time.Duration
	// TransactionTimeout bounds the whole transaction walk.
	TransactionTimeout time.Duration
}

// EventPublisher is the event log's publish entry point, used for
// TRANSACTION_COMPLETED / TRANSACTION_FAILED events and for forwarded
// messages.
type EventPublisher interface {
	Publish(ctx context.Context, input eventusecase.PublishInput) (*eventdomain.Event, error)
}

// StepInput describes one step of a new transaction.
type StepInput struct {
	Domain    string
	Operation string
	Payload   json.RawMessage
}

// CoordinateInput describes a new transaction.
type CoordinateInput struct {
	Type          string
	CorrelationID string
	Steps         []StepInput
}

// CoordinatorUseCase defines the interface for transaction coordination.
type CoordinatorUseCase interface {
	// Coordinate accepts a transaction and starts executing its steps in
	// the background. The returned snapshot reflects the accepted state.
	Coordinate(ctx context.Context, input CoordinateInput) (*domain.Transaction, error)
	// GetTransaction returns a snapshot of a transaction by id.
	GetTransaction(id uuid.UUID) (*domain.Transaction, error)
	// List returns snapshots of all transactions, oldest first.
	List() []*domain.Transaction
	// ListActive returns snapshots of transactions still in flight.
	ListActive() []*domain.Transaction
	// Summary aggregates transaction counts.
	Summary() domain.Summary
	// Wait blocks until all in-flight transaction walks finish. Intended
	// for shutdown and tests.
	Wait()
}
