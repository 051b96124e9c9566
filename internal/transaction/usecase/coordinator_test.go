package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	apperrors "github.com/allisson/domainbus/internal/errors"
	eventdomain "github.com/allisson/domainbus/internal/event/domain"
	eventusecase "github.com/allisson/domainbus/internal/event/usecase"
	"github.com/allisson/domainbus/internal/gateway"
	"github.com/allisson/domainbus/internal/metrics"
	"github.com/allisson/domainbus/internal/transaction/domain"
)

type invocation struct {
	domain    string
	operation string
	payload   json.RawMessage
}

// fakeGateway records operation invocations and fails the operations listed
// in failures.
type fakeGateway struct {
	mu          sync.Mutex
	domains     []string
	invocations []invocation
	failures    map[string]error
	health      map[string]*gateway.HealthReport
}

func newFakeGateway(domains ...string) *fakeGateway {
	return &fakeGateway{
		domains:  domains,
		failures: make(map[string]error),
		health:   make(map[string]*gateway.HealthReport),
	}
}

func (f *fakeGateway) Invoke(_ context.Context, domainName, operation string, payload any) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	raw, _ := payload.(json.RawMessage)
	f.invocations = append(f.invocations, invocation{domain: domainName, operation: operation, payload: raw})

	if err := f.failures[domainName+"/"+operation]; err != nil {
		return nil, err
	}
	return json.RawMessage(`{"ok":true}`), nil
}

func (f *fakeGateway) CheckHealth(_ context.Context, name string) (*gateway.HealthReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	report, ok := f.health[name]
	if !ok {
		return nil, fmt.Errorf("no health report for %s", name)
	}
	return report, nil
}

func (f *fakeGateway) Post(context.Context, string, any) error { return nil }

func (f *fakeGateway) Domains() []string { return f.domains }

func (f *fakeGateway) invoked() []invocation {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]invocation(nil), f.invocations...)
}

// fakePublisher records publish inputs.
type fakePublisher struct {
	mu     sync.Mutex
	inputs []eventusecase.PublishInput
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, input eventusecase.PublishInput) (*eventdomain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.inputs = append(f.inputs, input)
	return &eventdomain.Event{
		ID:            uuid.Must(uuid.NewV7()).String(),
		Type:          input.Type,
		Domain:        input.Domain,
		Data:          input.Data,
		Timestamp:     time.Now().UTC(),
		CorrelationID: input.CorrelationID,
	}, nil
}

func (f *fakePublisher) published() []eventusecase.PublishInput {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]eventusecase.PublishInput(nil), f.inputs...)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() Config {
	return Config{StepTimeout: time.Second, TransactionTimeout: 5 * time.Second}
}

func TestCoordinator_Coordinate(t *testing.T) {
	defer goleak.VerifyNone(t)

	gw := newFakeGateway("balance", "collections")
	publisher := &fakePublisher{}
	c := NewCoordinator(testConfig(), gw, publisher, metrics.NewNoOpBusMetrics(), testLogger())

	accepted, err := c.Coordinate(context.Background(), CoordinateInput{
		Type:          "loan_disbursement",
		CorrelationID: "corr-1",
		Steps: []StepInput{
			{Domain: "balance", Operation: "DEBIT_ACCOUNT", Payload: json.RawMessage(`{"amount":100}`)},
			{Domain: "collections", Operation: "RECORD_PAYMENT", Payload: json.RawMessage(`{"amount":100}`)},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, accepted.Status)
	assert.Equal(t, -1, accepted.FailedStep)
	assert.Equal(t, 2, accepted.TotalSteps)
	assert.Empty(t, accepted.Steps, "steps appear once they start executing")

	c.Wait()

	transaction, err := c.GetTransaction(accepted.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, transaction.Status)
	assert.Equal(t, -1, transaction.FailedStep)
	require.Len(t, transaction.Steps, 2)
	for _, step := range transaction.Steps {
		assert.Equal(t, domain.StepCompleted, step.Status)
		assert.JSONEq(t, `{"ok":true}`, string(step.Result))
		require.NotNil(t, step.StartedAt)
		require.NotNil(t, step.CompletedAt)
	}

	// Steps run in declaration order
	invocations := gw.invoked()
	require.Len(t, invocations, 2)
	assert.Equal(t, "balance", invocations[0].domain)
	assert.Equal(t, "DEBIT_ACCOUNT", invocations[0].operation)
	assert.JSONEq(t, `{"amount":100}`, string(invocations[0].payload))
	assert.Equal(t, "collections", invocations[1].domain)

	published := publisher.published()
	require.Len(t, published, 1)
	assert.Equal(t, domain.EventTransactionCompleted, published[0].Type)
	assert.Equal(t, "coordinator", published[0].Domain)
	assert.Equal(t, "corr-1", published[0].CorrelationID)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(published[0].Data, &payload))
	assert.Equal(t, accepted.ID.String(), payload["transaction_id"])
	assert.Equal(t, "loan_disbursement", payload["transaction_type"])
	assert.Equal(t, float64(2), payload["steps_completed"])
	assert.Equal(t, float64(2), payload["steps_total"])
}

func TestCoordinator_HaltsOnFirstFailure(t *testing.T) {
	defer goleak.VerifyNone(t)

	gw := newFakeGateway("balance", "collections", "reporting")
	gw.failures["collections/RECORD_PAYMENT"] = fmt.Errorf("insufficient funds")
	publisher := &fakePublisher{}
	c := NewCoordinator(testConfig(), gw, publisher, metrics.NewNoOpBusMetrics(), testLogger())

	accepted, err := c.Coordinate(context.Background(), CoordinateInput{
		Type:          "loan_disbursement",
		CorrelationID: "corr-2",
		Steps: []StepInput{
			{Domain: "balance", Operation: "DEBIT_ACCOUNT"},
			{Domain: "collections", Operation: "RECORD_PAYMENT"},
			{Domain: "reporting", Operation: "LOG_EVENT"},
		},
	})
	require.NoError(t, err)

	c.Wait()

	transaction, err := c.GetTransaction(accepted.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, transaction.Status)
	assert.Equal(t, 1, transaction.FailedStep)
	assert.Equal(t, 3, transaction.TotalSteps)

	// Only the steps that actually ran appear; the third was never appended.
	require.Len(t, transaction.Steps, 2)
	assert.Equal(t, domain.StepCompleted, transaction.Steps[0].Status)
	assert.Equal(t, domain.StepFailed, transaction.Steps[1].Status)
	assert.Contains(t, transaction.Steps[1].Error, "insufficient funds")

	// Completed steps stay completed: no compensation calls, and the third
	// step never reaches the gateway.
	require.Len(t, gw.invoked(), 2)

	published := publisher.published()
	require.Len(t, published, 1)
	assert.Equal(t, domain.EventTransactionFailed, published[0].Type)
	assert.Equal(t, "corr-2", published[0].CorrelationID)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(published[0].Data, &payload))
	assert.Equal(t, float64(1), payload["steps_completed"])
	assert.Equal(t, float64(3), payload["steps_total"])
	assert.Equal(t, float64(1), payload["failed_step"])
	assert.Equal(t, "collections", payload["failed_domain"])
	assert.Contains(t, payload["error"], "insufficient funds")
}

func TestCoordinator_Validation(t *testing.T) {
	gw := newFakeGateway("balance")
	c := NewCoordinator(testConfig(), gw, &fakePublisher{}, metrics.NewNoOpBusMetrics(), testLogger())

	tests := []struct {
		name  string
		input CoordinateInput
	}{
		{
			name:  "missing type",
			input: CoordinateInput{Steps: []StepInput{{Domain: "balance", Operation: "DEBIT_ACCOUNT"}}},
		},
		{
			name:  "no steps",
			input: CoordinateInput{Type: "loan_disbursement"},
		},
		{
			name:  "step missing operation",
			input: CoordinateInput{Type: "loan_disbursement", Steps: []StepInput{{Domain: "balance"}}},
		},
		{
			name:  "unknown domain",
			input: CoordinateInput{Type: "loan_disbursement", Steps: []StepInput{{Domain: "warehouse", Operation: "SHIP"}}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Coordinate(context.Background(), tt.input)
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		})
	}

	// Nothing reached the gateway
	assert.Empty(t, gw.invoked())
}

func TestCoordinator_GetTransactionNotFound(t *testing.T) {
	c := NewCoordinator(testConfig(), newFakeGateway("balance"), &fakePublisher{}, metrics.NewNoOpBusMetrics(), testLogger())

	_, err := c.GetTransaction(uuid.Must(uuid.NewV7()))
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCoordinator_ListAndSummary(t *testing.T) {
	defer goleak.VerifyNone(t)

	gw := newFakeGateway("balance")
	gw.failures["balance/CREDIT_ACCOUNT"] = fmt.Errorf("account closed")
	c := NewCoordinator(testConfig(), gw, &fakePublisher{}, metrics.NewNoOpBusMetrics(), testLogger())

	first, err := c.Coordinate(context.Background(), CoordinateInput{
		Type:  "debit",
		Steps: []StepInput{{Domain: "balance", Operation: "DEBIT_ACCOUNT"}},
	})
	require.NoError(t, err)
	second, err := c.Coordinate(context.Background(), CoordinateInput{
		Type:  "credit",
		Steps: []StepInput{{Domain: "balance", Operation: "CREDIT_ACCOUNT"}},
	})
	require.NoError(t, err)

	c.Wait()

	transactions := c.List()
	require.Len(t, transactions, 2)
	assert.Equal(t, first.ID, transactions[0].ID, "oldest first")
	assert.Equal(t, second.ID, transactions[1].ID)

	assert.Empty(t, c.ListActive())

	summary := c.Summary()
	assert.Equal(t, domain.Summary{Total: 2, Completed: 1, Failed: 1}, summary)
}

func TestCoordinator_StatusVisibleWhileProcessing(t *testing.T) {
	defer goleak.VerifyNone(t)

	gw := newFakeGateway("balance")
	release := make(chan struct{})
	slowGateway := &blockingGateway{fakeGateway: gw, release: release}
	c := NewCoordinator(testConfig(), slowGateway, &fakePublisher{}, metrics.NewNoOpBusMetrics(), testLogger())

	accepted, err := c.Coordinate(context.Background(), CoordinateInput{
		Type:  "debit",
		Steps: []StepInput{{Domain: "balance", Operation: "DEBIT_ACCOUNT"}},
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		transaction, err := c.GetTransaction(accepted.ID)
		require.NoError(t, err)
		return transaction.Status == domain.StatusProcessing
	}, time.Second, time.Millisecond)

	assert.Len(t, c.ListActive(), 1)
	assert.Equal(t, 1, c.Summary().Active)

	close(release)
	c.Wait()

	transaction, err := c.GetTransaction(accepted.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, transaction.Status)
}

// blockingGateway holds every Invoke until release is closed.
type blockingGateway struct {
	*fakeGateway
	release chan struct{}
}

func (b *blockingGateway) Invoke(ctx context.Context, domainName, operation string, payload any) (json.RawMessage, error) {
	select {
	case <-b.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return b.fakeGateway.Invoke(ctx, domainName, operation, payload)
}
