// internal/repository/postgres/outbox_repo.go
package postgres

import (
	"context"
	"fmt"
	"time"

	"aquaflow-service/internal/event"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type OutboxRepository struct {
	db *pgxpool.Pool
}

func NewOutboxRepository(db *pgxpool.Pool) *OutboxRepository {
	return &OutboxRepository{db: db}
}

// EnqueueTx writes an event into the outbox inside the caller's transaction.
// The row commits or rolls back together with the state change that produced it.
func (r *OutboxRepository) EnqueueTx(ctx context.Context, tx pgx.Tx, ev *event.Event) error {
	payload, err := ev.Marshal()
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	query := `
		INSERT INTO outbox_events (id, kind, payload)
		VALUES ($1, $2, $3)
	`

	if _, err := tx.Exec(ctx, query, ev.ID, ev.Kind, payload); err != nil {
		return fmt.Errorf("failed to enqueue event: %w", err)
	}

	return nil
}

// FetchUnpublished returns the oldest unpublished rows, up to limit.
func (r *OutboxRepository) FetchUnpublished(ctx context.Context, limit int) ([]event.OutboxRow, error) {
	query := `
		SELECT id, kind, payload, attempts, created_at, published_at
		FROM outbox_events
		WHERE published_at IS NULL
		ORDER BY created_at ASC
		LIMIT $1
	`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch outbox events: %w", err)
	}
	defer rows.Close()

	out := []event.OutboxRow{}
	for rows.Next() {
		var row event.OutboxRow
		if err := rows.Scan(&row.ID, &row.Kind, &row.Payload, &row.Attempts, &row.CreatedAt, &row.PublishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan outbox event: %w", err)
		}
		out = append(out, row)
	}

	return out, nil
}

// MarkPublished stamps a row as delivered.
func (r *OutboxRepository) MarkPublished(ctx context.Context, id string) error {
	query := `UPDATE outbox_events SET published_at = $1 WHERE id = $2`

	if _, err := r.db.Exec(ctx, query, time.Now(), id); err != nil {
		return fmt.Errorf("failed to mark event published: %w", err)
	}
	return nil
}

// MarkFailed bumps the attempt counter; the row stays eligible for redelivery.
func (r *OutboxRepository) MarkFailed(ctx context.Context, id string) error {
	query := `UPDATE outbox_events SET attempts = attempts + 1 WHERE id = $1`

	if _, err := r.db.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("failed to mark event failed: %w", err)
	}
	return nil
}
