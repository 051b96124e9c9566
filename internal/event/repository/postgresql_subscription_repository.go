package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/allisson/domainbus/internal/database"
	apperrors "github.com/allisson/domainbus/internal/errors"
	"github.com/allisson/domainbus/internal/event/domain"
)

// PostgreSQLSubscriptionRepository persists subscription registrations for
// PostgreSQL. The in-memory registry is authoritative at runtime; this store
// lets registrations survive restarts.
type PostgreSQLSubscriptionRepository struct {
	db *sql.DB
}

// NewPostgreSQLSubscriptionRepository creates a new PostgreSQLSubscriptionRepository.
func NewPostgreSQLSubscriptionRepository(db *sql.DB) *PostgreSQLSubscriptionRepository {
	return &PostgreSQLSubscriptionRepository{
		db: db,
	}
}

// Create inserts a new subscription.
func (r *PostgreSQLSubscriptionRepository) Create(ctx context.Context, subscription *domain.Subscription) error {
	querier := database.GetTx(ctx, r.db)

	eventTypes, err := json.Marshal(subscription.EventTypes)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal subscription event types")
	}

	query := `INSERT INTO subscriptions (id, domain, event_types, webhook_url, bus_topic_url, last_sequence_number, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err = querier.ExecContext(ctx, query, subscription.ID, subscription.Domain, eventTypes,
		subscription.WebhookURL, subscription.BusTopicURL, subscription.LastSequenceNumber, subscription.CreatedAt)

	return err
}

// Delete removes a subscription by id.
func (r *PostgreSQLSubscriptionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	query := `DELETE FROM subscriptions WHERE id = $1`

	result, err := querier.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// List returns all subscriptions, oldest first.
func (r *PostgreSQLSubscriptionRepository) List(ctx context.Context) ([]*domain.Subscription, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, domain, event_types, webhook_url, bus_topic_url, last_sequence_number, created_at
			  FROM subscriptions
			  ORDER BY created_at ASC`

	rows, err := querier.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var subscriptions []*domain.Subscription
	for rows.Next() {
		var subscription domain.Subscription
		var eventTypes []byte

		err := rows.Scan(&subscription.ID, &subscription.Domain, &eventTypes, &subscription.WebhookURL,
			&subscription.BusTopicURL, &subscription.LastSequenceNumber, &subscription.CreatedAt)
		if err != nil {
			return nil, err
		}

		if err := json.Unmarshal(eventTypes, &subscription.EventTypes); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal subscription event types")
		}

		subscriptions = append(subscriptions, &subscription)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return subscriptions, nil
}

// UpdateLastSequenceNumber advances the persisted high-water mark. The check
// against the stored value keeps the column monotonic even when acks arrive
// out of order.
func (r *PostgreSQLSubscriptionRepository) UpdateLastSequenceNumber(ctx context.Context, id uuid.UUID, sequenceNumber uint64) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE subscriptions SET last_sequence_number = $1
			  WHERE id = $2 AND last_sequence_number < $1`

	_, err := querier.ExecContext(ctx, query, sequenceNumber, id)

	return err
}
