// Package repository provides the Postgres data access layer for the
// transaction processor.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/finledger/txprocessor/internal/models"
)

// Querier is the subset of database/sql shared by *sql.DB and *sql.Tx.
// Repositories are constructed over a Querier so the same implementation
// serves plain reads and writes inside a unit of work.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Postgres error codes we map to domain sentinels.
const (
	pgUniqueViolation  = "23505"
	pgLockNotAvailable = "55P03"
)

func mapPgError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pgUniqueViolation:
			return models.ErrDuplicateReference
		case pgLockNotAvailable:
			return models.ErrLockTimeout
		}
	}
	return err
}
