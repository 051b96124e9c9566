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

// MySQLSubscriptionRepository persists subscription registrations for MySQL.
// Subscription ids are stored as BINARY(16).
type MySQLSubscriptionRepository struct {
	db *sql.DB
}

// NewMySQLSubscriptionRepository creates a new MySQLSubscriptionRepository.
func NewMySQLSubscriptionRepository(db *sql.DB) *MySQLSubscriptionRepository {
	return &MySQLSubscriptionRepository{
		db: db,
	}
}

// Create inserts a new subscription.
func (r *MySQLSubscriptionRepository) Create(ctx context.Context, subscription *domain.Subscription) error {
	querier := database.GetTx(ctx, r.db)

	eventTypes, err := json.Marshal(subscription.EventTypes)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal subscription event types")
	}

	id, err := subscription.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal subscription id")
	}

	query := `INSERT INTO subscriptions (id, domain, event_types, webhook_url, bus_topic_url, last_sequence_number, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(ctx, query, id, subscription.Domain, eventTypes,
		subscription.WebhookURL, subscription.BusTopicURL, subscription.LastSequenceNumber, subscription.CreatedAt)

	return err
}

// Delete removes a subscription by id.
func (r *MySQLSubscriptionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal subscription id")
	}

	query := `DELETE FROM subscriptions WHERE id = ?`

	result, err := querier.ExecContext(ctx, query, idBytes)
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
func (r *MySQLSubscriptionRepository) List(ctx context.Context) ([]*domain.Subscription, error) {
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
		var idBytes []byte
		var eventTypes []byte

		err := rows.Scan(&idBytes, &subscription.Domain, &eventTypes, &subscription.WebhookURL,
			&subscription.BusTopicURL, &subscription.LastSequenceNumber, &subscription.CreatedAt)
		if err != nil {
			return nil, err
		}

		subscription.ID, err = uuid.FromBytes(idBytes)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to parse subscription id")
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

// UpdateLastSequenceNumber advances the persisted high-water mark, keeping the
// column monotonic when acks arrive out of order.
func (r *MySQLSubscriptionRepository) UpdateLastSequenceNumber(ctx context.Context, id uuid.UUID, sequenceNumber uint64) error {
	querier := database.GetTx(ctx, r.db)

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal subscription id")
	}

	query := `UPDATE subscriptions SET last_sequence_number = ?
			  WHERE id = ? AND last_sequence_number < ?`

	_, err = querier.ExecContext(ctx, query, sequenceNumber, idBytes, sequenceNumber)

	return err
}
