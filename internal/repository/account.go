package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/finledger/txprocessor/internal/models"
)

// AccountRepository defines the interface for account data access
type AccountRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	Add(ctx context.Context, account *models.Account) error
	Update(ctx context.Context, account *models.Account) error
}

// accountRepository implements AccountRepository
type accountRepository struct {
	q Querier
}

// NewAccountRepository creates a new AccountRepository over a database or an
// open transaction.
func NewAccountRepository(q Querier) AccountRepository {
	return &accountRepository{q: q}
}

// GetByID retrieves an account by its UUID
func (r *accountRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	query := `
		SELECT id, customer_id, status, balance_cents, reserved_cents,
		       credit_limit_cents, version, created_at, updated_at
		FROM accounts
		WHERE id = $1
	`

	var account models.Account
	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&account.ID,
		&account.CustomerID,
		&account.Status,
		&account.BalanceCents,
		&account.ReservedCents,
		&account.CreditCents,
		&account.Version,
		&account.CreatedAt,
		&account.UpdatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find account by id: %w", err)
	}

	return &account, nil
}

// Add inserts a newly opened account.
func (r *accountRepository) Add(ctx context.Context, account *models.Account) error {
	query := `
		INSERT INTO accounts (id, customer_id, status, balance_cents, reserved_cents,
		                      credit_limit_cents, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.q.ExecContext(ctx, query,
		account.ID,
		account.CustomerID,
		account.Status,
		account.BalanceCents,
		account.ReservedCents,
		account.CreditCents,
		account.Version,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert account: %w", mapPgError(err))
	}

	return nil
}

// Update writes post-operation balances guarded by the optimistic version.
// A version mismatch returns models.ErrConcurrencyConflict; the caller
// discards its in-memory state and retries with fresh rows.
func (r *accountRepository) Update(ctx context.Context, account *models.Account) error {
	query := `
		UPDATE accounts
		SET status = $2,
		    balance_cents = $3,
		    reserved_cents = $4,
		    version = version + 1,
		    updated_at = NOW()
		WHERE id = $1
		  AND version = $5
	`

	result, err := r.q.ExecContext(ctx, query,
		account.ID,
		account.Status,
		account.BalanceCents,
		account.ReservedCents,
		account.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return models.ErrConcurrencyConflict
	}

	account.Version++

	return nil
}
