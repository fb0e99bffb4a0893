package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/finledger/txprocessor/internal/models"
)

// OutboxRepository defines the interface for outbox message persistence.
// Add is only ever called inside the caller's unit of work so the message
// commits or rolls back together with the ledger rows it describes.
type OutboxRepository interface {
	Add(ctx context.Context, msg *models.OutboxMessage) error
	GetPending(ctx context.Context, limit int) ([]*models.OutboxMessage, error)
	MarkProcessed(ctx context.Context, id uuid.UUID, processedAt time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID, attempts int, nextAttemptAt time.Time, lastError string) error
}

type outboxRepository struct {
	q Querier
}

// NewOutboxRepository creates a new OutboxRepository over a database or an
// open transaction.
func NewOutboxRepository(q Querier) OutboxRepository {
	return &outboxRepository{q: q}
}

func (r *outboxRepository) Add(ctx context.Context, msg *models.OutboxMessage) error {
	query := `
		INSERT INTO outbox_messages (id, type, payload, occurred_at, attempts,
		                             next_attempt_at, processed_at, last_error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.q.ExecContext(ctx, query,
		msg.ID,
		msg.Type,
		msg.Payload,
		msg.OccurredAt,
		msg.Attempts,
		msg.NextAttemptAt,
		msg.ProcessedAt,
		msg.LastError,
	)
	if err != nil {
		return fmt.Errorf("failed to insert outbox message: %w", err)
	}

	return nil
}

// GetPending returns undelivered messages that are due, oldest first.
func (r *outboxRepository) GetPending(ctx context.Context, limit int) ([]*models.OutboxMessage, error) {
	query := `
		SELECT id, type, payload, occurred_at, attempts, next_attempt_at, processed_at, last_error
		FROM outbox_messages
		WHERE processed_at IS NULL
		  AND (next_attempt_at IS NULL OR next_attempt_at <= NOW())
		ORDER BY occurred_at
		LIMIT $1
	`

	rows, err := r.q.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending outbox messages: %w", err)
	}
	defer rows.Close()

	var messages []*models.OutboxMessage
	for rows.Next() {
		var msg models.OutboxMessage
		err := rows.Scan(
			&msg.ID,
			&msg.Type,
			&msg.Payload,
			&msg.OccurredAt,
			&msg.Attempts,
			&msg.NextAttemptAt,
			&msg.ProcessedAt,
			&msg.LastError,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan outbox message: %w", err)
		}
		messages = append(messages, &msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate outbox messages: %w", err)
	}

	return messages, nil
}

// MarkProcessed records successful delivery, clearing error and schedule.
func (r *outboxRepository) MarkProcessed(ctx context.Context, id uuid.UUID, processedAt time.Time) error {
	query := `
		UPDATE outbox_messages
		SET processed_at = $2,
		    next_attempt_at = NULL,
		    last_error = NULL
		WHERE id = $1
	`

	result, err := r.q.ExecContext(ctx, query, id, processedAt)
	if err != nil {
		return fmt.Errorf("failed to mark outbox message processed: %w", err)
	}

	return requireRow(result, id)
}

// MarkFailed records a failed delivery attempt and its retry schedule.
func (r *outboxRepository) MarkFailed(ctx context.Context, id uuid.UUID, attempts int, nextAttemptAt time.Time, lastError string) error {
	query := `
		UPDATE outbox_messages
		SET attempts = $2,
		    next_attempt_at = $3,
		    last_error = $4
		WHERE id = $1
	`

	result, err := r.q.ExecContext(ctx, query, id, attempts, nextAttemptAt, lastError)
	if err != nil {
		return fmt.Errorf("failed to mark outbox message failed: %w", err)
	}

	return requireRow(result, id)
}

func requireRow(result interface{ RowsAffected() (int64, error) }, id uuid.UUID) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("outbox message %s: %w", id, models.ErrNotFound)
	}
	return nil
}
