package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/domainbus/internal/errors"
	eventdomain "github.com/allisson/domainbus/internal/event/domain"
	"github.com/allisson/domainbus/internal/gateway"
	healthdomain "github.com/allisson/domainbus/internal/health/domain"
	"github.com/allisson/domainbus/internal/transaction/domain"
)

type fakeHealthRunner struct {
	health *healthdomain.SystemHealth
	runs   int
}

func (f *fakeHealthRunner) RunNow(context.Context) (*healthdomain.SystemHealth, error) {
	f.runs++
	return f.health, nil
}

type fakeMetricsSource struct {
	snapshot any
	err      error
}

func (f *fakeMetricsSource) Unified(context.Context) (any, error) {
	return f.snapshot, f.err
}

func newTestRouter(health *fakeHealthRunner, source *fakeMetricsSource, gw *fakeGateway, publisher *fakePublisher) *Router {
	return NewRouter(health, source, gw, publisher, testLogger())
}

func TestRouter_HealthCheck(t *testing.T) {
	health := &fakeHealthRunner{health: &healthdomain.SystemHealth{
		Status:           healthdomain.StatusHealthy,
		HealthPercentage: 100,
	}}
	router := newTestRouter(health, &fakeMetricsSource{}, newFakeGateway(), &fakePublisher{})

	response, err := router.Route(context.Background(), ControlMessage{Kind: domain.MessageHealthCheck})
	require.NoError(t, err)

	result, ok := response.(*healthdomain.SystemHealth)
	require.True(t, ok)
	assert.Equal(t, healthdomain.StatusHealthy, result.Status)
	assert.Equal(t, 1, health.runs, "triggers a fresh sweep")
}

func TestRouter_HealthCheckSingleDomain(t *testing.T) {
	gw := newFakeGateway("balance", "collections")
	gw.health["balance"] = &gateway.HealthReport{Status: "healthy"}
	health := &fakeHealthRunner{}
	router := newTestRouter(health, &fakeMetricsSource{}, gw, &fakePublisher{})

	response, err := router.Route(context.Background(), ControlMessage{
		Kind:   domain.MessageHealthCheck,
		Domain: "balance",
	})
	require.NoError(t, err)

	result, ok := response.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "balance", result["domain"])
	report, ok := result["report"].(*gateway.HealthReport)
	require.True(t, ok)
	assert.Equal(t, "healthy", report.Status)
	assert.Zero(t, health.runs, "a targeted check does not sweep every domain")
}

func TestRouter_HealthCheckSingleDomainUnreachable(t *testing.T) {
	gw := newFakeGateway("balance")
	router := newTestRouter(&fakeHealthRunner{}, &fakeMetricsSource{}, gw, &fakePublisher{})

	_, err := router.Route(context.Background(), ControlMessage{
		Kind:   domain.MessageHealthCheck,
		Domain: "balance",
	})
	require.Error(t, err)
}

func TestRouter_MetricsRequest(t *testing.T) {
	source := &fakeMetricsSource{snapshot: map[string]any{"overall_status": "healthy"}}
	router := newTestRouter(&fakeHealthRunner{}, source, newFakeGateway(), &fakePublisher{})

	response, err := router.Route(context.Background(), ControlMessage{Kind: domain.MessageMetricsRequest})
	require.NoError(t, err)
	assert.Equal(t, source.snapshot, response)
}

func TestRouter_DomainSync(t *testing.T) {
	gw := newFakeGateway("balance", "collections")
	router := newTestRouter(&fakeHealthRunner{}, &fakeMetricsSource{}, gw, &fakePublisher{})

	response, err := router.Route(context.Background(), ControlMessage{Kind: domain.MessageDomainSync})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"domains": []string{"balance", "collections"}}, response)
}

func TestRouter_DomainSyncSingleDomain(t *testing.T) {
	gw := newFakeGateway("balance", "collections")
	router := newTestRouter(&fakeHealthRunner{}, &fakeMetricsSource{}, gw, &fakePublisher{})

	response, err := router.Route(context.Background(), ControlMessage{
		Kind:   domain.MessageDomainSync,
		Domain: "collections",
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"domains": []string{"collections"}}, response)

	_, err = router.Route(context.Background(), ControlMessage{
		Kind:   domain.MessageDomainSync,
		Domain: "warehouse",
	})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestRouter_ForwardsUnrecognizedKinds(t *testing.T) {
	publisher := &fakePublisher{}
	router := newTestRouter(&fakeHealthRunner{}, &fakeMetricsSource{}, newFakeGateway(), publisher)

	response, err := router.Route(context.Background(), ControlMessage{
		Kind:          "PAYMENT_RECEIVED",
		Domain:        "collections",
		CorrelationID: "corr-9",
		Payload:       json.RawMessage(`{"amount":50}`),
	})
	require.NoError(t, err)

	event, ok := response.(*eventdomain.Event)
	require.True(t, ok)
	assert.Equal(t, "PAYMENT_RECEIVED", event.Type)
	assert.Equal(t, "collections", event.Domain)
	assert.Equal(t, "corr-9", event.CorrelationID)

	published := publisher.published()
	require.Len(t, published, 1)
	assert.JSONEq(t, `{"amount":50}`, string(published[0].Data))
}

func TestRouter_ForwardDefaultsDomain(t *testing.T) {
	publisher := &fakePublisher{}
	router := newTestRouter(&fakeHealthRunner{}, &fakeMetricsSource{}, newFakeGateway(), publisher)

	_, err := router.Route(context.Background(), ControlMessage{Kind: "SOME_NEW_EVENT"})
	require.NoError(t, err)

	published := publisher.published()
	require.Len(t, published, 1)
	assert.Equal(t, "external", published[0].Domain)
}

func TestRouter_ForwardPublishError(t *testing.T) {
	publisher := &fakePublisher{err: fmt.Errorf("storage unavailable")}
	router := newTestRouter(&fakeHealthRunner{}, &fakeMetricsSource{}, newFakeGateway(), publisher)

	_, err := router.Route(context.Background(), ControlMessage{Kind: "SOME_NEW_EVENT"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage unavailable")
}
