// Package repository provides data persistence implementations for the event
// log and subscription registry.
package repository

import (
	"context"
	"database/sql"

	"github.com/allisson/domainbus/internal/database"
	"github.com/allisson/domainbus/internal/event/domain"
)

// PostgreSQLEventRepository handles durable event persistence for PostgreSQL.
// The event log is append-only: events are never updated or deleted.
type PostgreSQLEventRepository struct {
	db *sql.DB
}

// NewPostgreSQLEventRepository creates a new PostgreSQLEventRepository.
func NewPostgreSQLEventRepository(db *sql.DB) *PostgreSQLEventRepository {
	return &PostgreSQLEventRepository{
		db: db,
	}
}

// Create appends a new event to the durable log.
func (r *PostgreSQLEventRepository) Create(ctx context.Context, event *domain.Event) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO events (id, event_type, domain, data, published_at, correlation_id, sequence_number, max_retries)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := querier.ExecContext(ctx, query, event.ID, event.Type, event.Domain, []byte(event.Data),
		event.Timestamp, event.CorrelationID, event.SequenceNumber, event.MaxRetries)

	return err
}

// MaxSequenceNumber returns the highest assigned sequence number, or zero when
// the log is empty. Used to seed the in-memory counter at startup.
func (r *PostgreSQLEventRepository) MaxSequenceNumber(ctx context.Context) (uint64, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT COALESCE(MAX(sequence_number), 0) FROM events`

	var max uint64
	if err := querier.QueryRowContext(ctx, query).Scan(&max); err != nil {
		return 0, err
	}

	return max, nil
}

// ListRecent returns the most recent events up to limit, ascending by sequence
// number. Used to warm the in-memory query window at startup.
func (r *PostgreSQLEventRepository) ListRecent(ctx context.Context, limit int) ([]*domain.Event, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, event_type, domain, data, published_at, correlation_id, sequence_number, max_retries
			  FROM (
				  SELECT id, event_type, domain, data, published_at, correlation_id, sequence_number, max_retries
				  FROM events
				  ORDER BY sequence_number DESC
				  LIMIT $1
			  ) tail
			  ORDER BY sequence_number ASC`

	rows, err := querier.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var events []*domain.Event
	for rows.Next() {
		var event domain.Event
		var data []byte

		err := rows.Scan(&event.ID, &event.Type, &event.Domain, &data, &event.Timestamp,
			&event.CorrelationID, &event.SequenceNumber, &event.MaxRetries)
		if err != nil {
			return nil, err
		}

		event.Data = data
		events = append(events, &event)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}
