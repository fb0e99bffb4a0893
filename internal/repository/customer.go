package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/finledger/txprocessor/internal/models"
)

// CustomerRepository defines the interface for customer data access
type CustomerRepository interface {
	GetByClientID(ctx context.Context, clientID string) (*models.Customer, error)
	Add(ctx context.Context, customer *models.Customer) error
}

type customerRepository struct {
	q Querier
}

// NewCustomerRepository creates a new CustomerRepository over a database or
// an open transaction.
func NewCustomerRepository(q Querier) CustomerRepository {
	return &customerRepository{q: q}
}

func (r *customerRepository) GetByClientID(ctx context.Context, clientID string) (*models.Customer, error) {
	query := `
		SELECT id, client_id, created_at
		FROM customers
		WHERE client_id = $1
	`

	var customer models.Customer
	err := r.q.QueryRowContext(ctx, query, clientID).Scan(
		&customer.ID,
		&customer.ClientID,
		&customer.CreatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find customer by client id: %w", err)
	}

	return &customer, nil
}

func (r *customerRepository) Add(ctx context.Context, customer *models.Customer) error {
	query := `
		INSERT INTO customers (id, client_id, created_at)
		VALUES ($1, $2, $3)
	`

	_, err := r.q.ExecContext(ctx, query, customer.ID, customer.ClientID, customer.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert customer: %w", mapPgError(err))
	}

	return nil
}
