package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/allisson/domainbus/internal/errors"
	eventusecase "github.com/allisson/domainbus/internal/event/usecase"
	"github.com/allisson/domainbus/internal/gateway"
	"github.com/allisson/domainbus/internal/metrics"
	"github.com/allisson/domainbus/internal/transaction/domain"
)

// The event log domain under which coordinator outcome events are published.
const coordinatorDomain = "coordinator"

// coordinator implements CoordinatorUseCase. Transactions live in memory for
// the lifetime of the process; step execution happens on a background
// goroutine detached from the accepting request.
type coordinator struct {
	config    Config
	gateway   gateway.Gateway
	publisher EventPublisher
	metrics   metrics.BusMetrics
	logger    *slog.Logger

	mu           sync.Mutex
	transactions map[uuid.UUID]*domain.Transaction
	// plans keeps the accepted step specs per transaction; steps are only
	// appended to the transaction itself once they start executing.
	plans map[uuid.UUID][]StepInput
	order []uuid.UUID

	wg sync.WaitGroup
}

// NewCoordinator creates a new CoordinatorUseCase.
func NewCoordinator(
	config Config,
	gw gateway.Gateway,
	publisher EventPublisher,
	m metrics.BusMetrics,
	logger *slog.Logger,
) CoordinatorUseCase {
	return &coordinator{
		config:       config,
		gateway:      gw,
		publisher:    publisher,
		metrics:      m,
		logger:       logger,
		transactions: make(map[uuid.UUID]*domain.Transaction),
		plans:        make(map[uuid.UUID][]StepInput),
	}
}

// Coordinate validates and accepts a transaction, then walks its steps in the
// background.
func (c *coordinator) Coordinate(_ context.Context, input CoordinateInput) (*domain.Transaction, error) {
	if input.Type == "" {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "transaction type is required")
	}
	if len(input.Steps) == 0 {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "transaction requires at least one step")
	}

	known := make(map[string]bool)
	for _, name := range c.gateway.Domains() {
		known[name] = true
	}
	for i, step := range input.Steps {
		if step.Domain == "" || step.Operation == "" {
			return nil, apperrors.Wrap(apperrors.ErrInvalidInput, fmt.Sprintf("step %d is missing domain or operation", i))
		}
		if !known[step.Domain] {
			return nil, apperrors.Wrap(apperrors.ErrInvalidInput, fmt.Sprintf("step %d targets unknown domain %q", i, step.Domain))
		}
	}

	now := time.Now().UTC()
	transaction := &domain.Transaction{
		ID:            uuid.Must(uuid.NewV7()),
		Type:          input.Type,
		CorrelationID: input.CorrelationID,
		Status:        domain.StatusPending,
		TotalSteps:    len(input.Steps),
		FailedStep:    -1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	c.mu.Lock()
	c.transactions[transaction.ID] = transaction
	c.plans[transaction.ID] = input.Steps
	c.order = append(c.order, transaction.ID)
	snapshot := transaction.Clone()
	c.mu.Unlock()

	c.logger.Info("transaction accepted",
		slog.String("transaction_id", transaction.ID.String()),
		slog.String("transaction_type", transaction.Type),
		slog.Int("steps", transaction.TotalSteps),
	)

	// The walk outlives the accepting HTTP request, so it runs on a fresh
	// context bounded only by the transaction timeout.
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), c.config.TransactionTimeout)
		defer cancel()
		c.run(ctx, transaction.ID)
	}()

	return snapshot, nil
}

// run walks the transaction's plan in order, halting on the first failure.
// Completed steps are never compensated.
func (c *coordinator) run(ctx context.Context, id uuid.UUID) {
	c.setStatus(id, domain.StatusProcessing)

	for i, spec := range c.plan(id) {
		c.appendStep(id, spec)

		stepCtx, cancel := context.WithTimeout(ctx, c.config.StepTimeout)
		result, err := c.gateway.Invoke(stepCtx, spec.Domain, spec.Operation, spec.Payload)
		cancel()

		if err != nil {
			c.failAt(id, i, err)
			c.emitOutcome(id, domain.EventTransactionFailed)
			return
		}

		c.setStepCompleted(id, i, result)
	}

	c.setStatus(id, domain.StatusCompleted)
	c.emitOutcome(id, domain.EventTransactionCompleted)
}

func (c *coordinator) plan(id uuid.UUID) []StepInput {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.plans[id]
}

func (c *coordinator) setStatus(id uuid.UUID, status domain.Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	transaction := c.transactions[id]
	if transaction.Status.CanTransitionTo(status) {
		transaction.Status = status
		transaction.UpdatedAt = time.Now().UTC()
	}
}

// appendStep records that a planned step started executing.
func (c *coordinator) appendStep(id uuid.UUID, spec StepInput) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now().UTC()
	transaction := c.transactions[id]
	transaction.Steps = append(transaction.Steps, &domain.Step{
		Domain:    spec.Domain,
		Operation: spec.Operation,
		Payload:   spec.Payload,
		Status:    domain.StepProcessing,
		StartedAt: &now,
	})
	transaction.UpdatedAt = now
}

func (c *coordinator) setStepCompleted(id uuid.UUID, i int, result json.RawMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now().UTC()
	transaction := c.transactions[id]
	transaction.Steps[i].Status = domain.StepCompleted
	transaction.Steps[i].Result = result
	transaction.Steps[i].CompletedAt = &now
	transaction.UpdatedAt = now
}

// failAt marks step i failed and fails the transaction. Planned steps after i
// never execute and are never appended.
func (c *coordinator) failAt(id uuid.UUID, i int, err error) {
	c.mu.Lock()
	now := time.Now().UTC()
	transaction := c.transactions[id]
	transaction.Steps[i].Status = domain.StepFailed
	transaction.Steps[i].Error = err.Error()
	transaction.Steps[i].CompletedAt = &now
	transaction.Status = domain.StatusFailed
	transaction.FailedStep = i
	transaction.UpdatedAt = now
	c.mu.Unlock()

	c.logger.Error("transaction step failed",
		slog.String("transaction_id", id.String()),
		slog.Int("step", i),
		slog.Any("error", err),
	)
}

// emitOutcome publishes the terminal event for a transaction and records the
// transaction metric.
func (c *coordinator) emitOutcome(id uuid.UUID, eventType string) {
	c.mu.Lock()
	transaction := c.transactions[id].Clone()
	c.mu.Unlock()

	payload := map[string]any{
		"transaction_id":   transaction.ID.String(),
		"transaction_type": transaction.Type,
		"steps_completed":  transaction.CompletedSteps(),
		"steps_total":      transaction.TotalSteps,
	}
	if transaction.FailedStep >= 0 {
		failed := transaction.Steps[transaction.FailedStep]
		payload["failed_step"] = transaction.FailedStep
		payload["failed_domain"] = failed.Domain
		payload["error"] = failed.Error
	}

	data, err := json.Marshal(payload)
	if err != nil {
		data = []byte("{}")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = c.publisher.Publish(ctx, eventusecase.PublishInput{
		Type:          eventType,
		Domain:        coordinatorDomain,
		Data:          data,
		CorrelationID: transaction.CorrelationID,
	})
	if err != nil {
		c.logger.Error("failed to publish transaction outcome event",
			slog.String("transaction_id", transaction.ID.String()),
			slog.String("event_type", eventType),
			slog.Any("error", err),
		)
	}

	c.metrics.RecordTransaction(ctx, transaction.Type, string(transaction.Status))
}

// GetTransaction returns a snapshot of a transaction by id.
func (c *coordinator) GetTransaction(id uuid.UUID) (*domain.Transaction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	transaction, ok := c.transactions[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return transaction.Clone(), nil
}

// List returns snapshots of all transactions, oldest first.
func (c *coordinator) List() []*domain.Transaction {
	c.mu.Lock()
	defer c.mu.Unlock()

	transactions := make([]*domain.Transaction, 0, len(c.order))
	for _, id := range c.order {
		transactions = append(transactions, c.transactions[id].Clone())
	}
	return transactions
}

// ListActive returns snapshots of transactions still in flight.
func (c *coordinator) ListActive() []*domain.Transaction {
	c.mu.Lock()
	defer c.mu.Unlock()

	var active []*domain.Transaction
	for _, id := range c.order {
		if !c.transactions[id].Status.IsTerminal() {
			active = append(active, c.transactions[id].Clone())
		}
	}
	return active
}

// Summary aggregates transaction counts.
func (c *coordinator) Summary() domain.Summary {
	c.mu.Lock()
	defer c.mu.Unlock()

	summary := domain.Summary{Total: len(c.transactions)}
	for _, transaction := range c.transactions {
		switch transaction.Status {
		case domain.StatusCompleted:
			summary.Completed++
		case domain.StatusFailed:
			summary.Failed++
		default:
			summary.Active++
		}
	}
	return summary
}

// Wait blocks until all in-flight transaction walks finish.
func (c *coordinator) Wait() {
	c.wg.Wait()
}
