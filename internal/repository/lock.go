package repository

import (
	"bytes"
	"context"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/google/uuid"
)

// AccountLock grants exclusive access to one account key for the lifetime of
// the enclosing database transaction. Release is automatic at commit or
// rollback; a handle is never released independently and never survives a
// retry attempt boundary.
type AccountLock interface {
	Acquire(ctx context.Context, tx Querier, accountID uuid.UUID) error
}

type advisoryAccountLock struct {
	timeout time.Duration
}

// NewAccountLock creates an AccountLock backed by Postgres transaction-scoped
// advisory locks. Acquisition blocks up to timeout, then fails with
// models.ErrLockTimeout (a transient, retryable class).
func NewAccountLock(timeout time.Duration) AccountLock {
	return &advisoryAccountLock{timeout: timeout}
}

func (l *advisoryAccountLock) Acquire(ctx context.Context, tx Querier, accountID uuid.UUID) error {
	// lock_timeout bounds the advisory lock wait; LOCAL scopes it to the
	// enclosing transaction only.
	_, err := tx.ExecContext(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", l.timeout.Milliseconds()))
	if err != nil {
		return fmt.Errorf("failed to set lock timeout: %w", err)
	}

	_, err = tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", lockKey(accountID))
	if err != nil {
		return fmt.Errorf("failed to acquire account lock: %w", mapPgError(err))
	}

	return nil
}

// lockKey folds an account id into the 64-bit advisory lock keyspace.
func lockKey(accountID uuid.UUID) int64 {
	h := fnv.New64a()
	h.Write(accountID[:]) //nolint:errcheck // fnv never fails
	return int64(h.Sum64())
}

// LockOrder returns the two account ids in ascending byte order. Transfers
// always lock in this order so two concurrent transfers moving in opposite
// directions between the same pair cannot deadlock.
func LockOrder(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if bytes.Compare(a[:], b[:]) <= 0 {
		return a, b
	}
	return b, a
}
