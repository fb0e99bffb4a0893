package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/finledger/txprocessor/internal/models"
)

// TransactionRepository defines the interface for transaction data access
type TransactionRepository interface {
	GetByReferenceAndLeg(ctx context.Context, referenceID string, leg int) (*models.Transaction, error)
	Add(ctx context.Context, txn *models.Transaction) error
}

type transactionRepository struct {
	q Querier
}

// NewTransactionRepository creates a new TransactionRepository over a
// database or an open transaction.
func NewTransactionRepository(q Querier) TransactionRepository {
	return &transactionRepository{q: q}
}

// GetByReferenceAndLeg looks up the transaction for an idempotency key and
// leg. Returns models.ErrNotFound when no attempt was recorded.
func (r *transactionRepository) GetByReferenceAndLeg(ctx context.Context, referenceID string, leg int) (*models.Transaction, error) {
	query := `
		SELECT id, account_id, type, amount_cents, currency, reference_id, leg,
		       counterparty_account_id, status, error_message, created_at
		FROM transactions
		WHERE reference_id = $1 AND leg = $2
	`

	var txn models.Transaction
	err := r.q.QueryRowContext(ctx, query, referenceID, leg).Scan(
		&txn.ID,
		&txn.AccountID,
		&txn.Type,
		&txn.AmountCents,
		&txn.Currency,
		&txn.ReferenceID,
		&txn.Leg,
		&txn.CounterpartyID,
		&txn.Status,
		&txn.ErrorMessage,
		&txn.CreatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find transaction by reference: %w", err)
	}

	return &txn, nil
}

// Add inserts a transaction row. A second insert for the same
// (reference_id, leg) returns models.ErrDuplicateReference, which the
// orchestrator resolves by re-reading the winner of the race.
func (r *transactionRepository) Add(ctx context.Context, txn *models.Transaction) error {
	query := `
		INSERT INTO transactions (id, account_id, type, amount_cents, currency, reference_id,
		                          leg, counterparty_account_id, status, error_message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.q.ExecContext(ctx, query,
		txn.ID,
		txn.AccountID,
		txn.Type,
		txn.AmountCents,
		txn.Currency,
		txn.ReferenceID,
		txn.Leg,
		txn.CounterpartyID,
		txn.Status,
		txn.ErrorMessage,
		txn.CreatedAt,
	)
	if err != nil {
		mapped := mapPgError(err)
		if errors.Is(mapped, models.ErrDuplicateReference) {
			return mapped
		}
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	return nil
}
