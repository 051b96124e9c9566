package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/domainbus/internal/errors"
	"github.com/allisson/domainbus/internal/event/domain"
	"github.com/allisson/domainbus/internal/testutil"
)

func TestMySQLEventRepository_CreateAndMaxSequenceNumber(t *testing.T) {
	testutil.SkipIfNoMySQL(t)

	db := testutil.SetupMySQLDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupMySQLDB(t, db)

	repo := NewMySQLEventRepository(db)
	ctx := context.Background()

	max, err := repo.MaxSequenceNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), max)

	event := &domain.Event{
		ID:             uuid.Must(uuid.NewV7()).String(),
		Type:           "PAYMENT_RECEIVED",
		Domain:         "collections",
		Data:           json.RawMessage(`{"amount":100}`),
		Timestamp:      time.Now().UTC(),
		CorrelationID:  "corr-1",
		SequenceNumber: 7,
		MaxRetries:     3,
	}

	err = repo.Create(ctx, event)
	require.NoError(t, err)

	max, err = repo.MaxSequenceNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), max)
}

func TestMySQLEventRepository_ListRecent(t *testing.T) {
	testutil.SkipIfNoMySQL(t)

	db := testutil.SetupMySQLDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupMySQLDB(t, db)

	repo := NewMySQLEventRepository(db)
	ctx := context.Background()

	for i := uint64(1); i <= 4; i++ {
		testutil.CreateTestEvent(t, db, "mysql", "PAYMENT_RECEIVED", "collections", i)
	}

	events, err := repo.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, uint64(3), events[0].SequenceNumber)
	assert.Equal(t, uint64(4), events[1].SequenceNumber)
}

func TestMySQLSubscriptionRepository_CreateAndList(t *testing.T) {
	testutil.SkipIfNoMySQL(t)

	db := testutil.SetupMySQLDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupMySQLDB(t, db)

	repo := NewMySQLSubscriptionRepository(db)
	ctx := context.Background()

	subscription := &domain.Subscription{
		ID:         uuid.Must(uuid.NewV7()),
		Domain:     "balance",
		EventTypes: []string{"PAYMENT_RECEIVED"},
		WebhookURL: "https://balance.example.com/events",
		CreatedAt:  time.Now().UTC(),
	}

	err := repo.Create(ctx, subscription)
	require.NoError(t, err)

	subscriptions, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, subscriptions, 1)
	assert.Equal(t, subscription.ID, subscriptions[0].ID)
	assert.Equal(t, subscription.EventTypes, subscriptions[0].EventTypes)
}

func TestMySQLSubscriptionRepository_DeleteAndUpdate(t *testing.T) {
	testutil.SkipIfNoMySQL(t)

	db := testutil.SetupMySQLDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupMySQLDB(t, db)

	repo := NewMySQLSubscriptionRepository(db)
	ctx := context.Background()

	subscriptionID := testutil.CreateTestSubscription(t, db, "mysql", "balance", []string{"PAYMENT_RECEIVED"})

	err := repo.UpdateLastSequenceNumber(ctx, subscriptionID, 3)
	require.NoError(t, err)

	subscriptions, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, subscriptions, 1)
	assert.Equal(t, uint64(3), subscriptions[0].LastSequenceNumber)

	err = repo.Delete(ctx, subscriptionID)
	require.NoError(t, err)

	err = repo.Delete(ctx, subscriptionID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
