package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/finledger/txprocessor/internal/db"
)

// UnitOfWork opens atomic scopes spanning repository writes and account
// locks for one orchestrator attempt, and transparently retries operations
// that fail with transient infrastructure faults. Business-level conflict
// retry stays with the orchestrator.
type UnitOfWork struct {
	db *db.DB
}

// NewUnitOfWork creates a UnitOfWork over the shared connection pool.
func NewUnitOfWork(database *db.DB) *UnitOfWork {
	return &UnitOfWork{db: database}
}

// Begin opens a transaction for one attempt. The caller must either Commit
// or Rollback; rollback releases any advisory locks taken inside the scope.
func (u *UnitOfWork) Begin(ctx context.Context) (*sql.Tx, error) {
	tx, err := u.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	return tx, nil
}

const (
	infraRetryAttempts = 3
	infraRetryDelay    = 50 * time.Millisecond
)

// ExecuteWithRetry runs op, retrying when it fails with a transient
// infrastructure fault such as a dropped connection. Each retry runs op from
// scratch, so op must begin its own transaction and reload any rows it needs.
func (u *UnitOfWork) ExecuteWithRetry(ctx context.Context, op func(ctx context.Context) error) error {
	var err error
	for attempt := 1; attempt <= infraRetryAttempts; attempt++ {
		err = op(ctx)
		if err == nil || !IsTransient(err) {
			return err
		}

		if attempt < infraRetryAttempts {
			select {
			case <-time.After(infraRetryDelay * time.Duration(attempt)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return err
}

// IsTransient reports whether err is an infrastructure fault worth retrying:
// a bad connection, a Postgres connection-class error, a serialization
// failure or a deadlock.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		code := string(pqErr.Code)
		if strings.HasPrefix(code, "08") { // connection exceptions
			return true
		}
		switch code {
		case "40001", "40P01", "57P01": // serialization failure, deadlock, admin shutdown
			return true
		}
	}

	return false
}
