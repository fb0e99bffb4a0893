package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/finledger/txprocessor/internal/config"
	"github.com/finledger/txprocessor/internal/db"
	"github.com/finledger/txprocessor/internal/models"
	"github.com/finledger/txprocessor/internal/repository"
)

// TransactionService orchestrates money-movement commands: idempotency
// lookup, per-account locking, ledger mutation, atomic persistence of
// transaction and outbox rows, and conflict retry.
type TransactionService struct {
	db       *db.DB
	uow      *repository.UnitOfWork
	lock     repository.AccountLock
	txns     repository.TransactionRepository
	accounts repository.AccountRepository
	logger   *slog.Logger
	cfg      config.EngineConfig
}

// NewTransactionService creates the orchestrator over the shared pool.
func NewTransactionService(database *db.DB, lock repository.AccountLock, cfg config.EngineConfig, logger *slog.Logger) *TransactionService {
	return &TransactionService{
		db:       database,
		uow:      repository.NewUnitOfWork(database),
		lock:     lock,
		txns:     repository.NewTransactionRepository(database),
		accounts: repository.NewAccountRepository(database),
		logger:   logger,
		cfg:      cfg,
	}
}

// attemptFunc runs one atomic-unit attempt. A nil error means the attempt
// resolved the command (possibly with a failed result); retryable errors are
// classified by processWithRetry.
type attemptFunc func(ctx context.Context) (*Result, error)

// ProcessTransaction handles credit, debit, reserve, capture and transfer
// commands with exactly-once effect per (reference_id, leg).
func (s *TransactionService) ProcessTransaction(ctx context.Context, cmd TransactionCommand) (*Result, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	op := normalizeOperation(cmd.Operation)
	if op == "transfer" {
		return s.processTransfer(ctx, cmd)
	}

	// Replay path: a stored attempt answers without locks or writes.
	existing, err := s.txns.GetByReferenceAndLeg(ctx, cmd.ReferenceID, models.LegSingle)
	if err == nil {
		return s.replayResult(ctx, existing), nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, &ServiceError{Code: ErrCodeInternalError, Message: "idempotency lookup failed", Err: err}
	}

	txType, ok := parseOperation(op)
	if !ok {
		return failResult(fmt.Sprintf("Unknown operation: %s", cmd.Operation)), nil
	}

	result, err := s.processWithRetry(ctx, cmd.ReferenceID,
		func(ctx context.Context) (*Result, error) {
			return s.recoverSingle(ctx, cmd.ReferenceID)
		},
		func(ctx context.Context) (*Result, error) {
			return s.attemptOperation(ctx, cmd, txType)
		})
	if err != nil {
		return nil, err
	}

	s.logger.Info("transaction processed",
		"reference_id", cmd.ReferenceID,
		"transaction_id", result.TransactionID,
		"status", result.Status,
		"account_id", cmd.AccountID,
	)

	return result, nil
}

// processWithRetry drives up to MaxAttempts attempts, backing off after
// concurrency conflicts and converting a lost (reference_id, leg) insert
// race into the winner's result via recoverWinner.
func (s *TransactionService) processWithRetry(ctx context.Context, referenceID string, recoverWinner attemptFunc, attempt attemptFunc) (*Result, error) {
	for attemptNo := 1; attemptNo <= s.cfg.MaxAttempts; attemptNo++ {
		result, err := attempt(ctx)
		if err == nil {
			return result, nil
		}

		switch {
		case errors.Is(err, models.ErrDuplicateReference):
			// Two identical requests raced; the other one won. Return its
			// outcome instead of failing.
			recovered, lookupErr := recoverWinner(ctx)
			if lookupErr == nil {
				return recovered, nil
			}
			return nil, &ServiceError{Code: ErrCodeInternalError, Message: "duplicate recovery lookup failed", Err: lookupErr}

		case errors.Is(err, models.ErrConcurrencyConflict),
			errors.Is(err, models.ErrLockTimeout),
			repository.IsTransient(err):
			if attemptNo == s.cfg.MaxAttempts {
				return nil, &ServiceError{Code: ErrCodeUnavailable, Message: "transaction could not be committed", Err: err}
			}

			s.logger.Warn("transaction attempt failed, retrying",
				"reference_id", referenceID,
				"attempt", attemptNo,
				"error", err,
			)

			select {
			case <-time.After(s.retryDelay(attemptNo)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}

		default:
			return nil, &ServiceError{Code: ErrCodeInternalError, Message: "transaction processing failed", Err: err}
		}
	}

	return failResult("Unexpected failure"), nil
}

// retryDelay is min(RetryMaxDelay, RetryBaseDelay * 2^attempt).
func (s *TransactionService) retryDelay(attempt int) time.Duration {
	delay := s.cfg.RetryBaseDelay << uint(attempt) //nolint:gosec // attempt is bounded by MaxAttempts
	if delay > s.cfg.RetryMaxDelay {
		return s.cfg.RetryMaxDelay
	}
	return delay
}

// attemptOperation runs one single-operation attempt inside its own unit of
// work: lock, load, mutate, persist, commit.
func (s *TransactionService) attemptOperation(ctx context.Context, cmd TransactionCommand, txType models.TransactionType) (*Result, error) {
	tx, err := s.uow.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // rollback after commit is a no-op
	}()

	if err := s.lock.Acquire(ctx, tx, cmd.AccountID); err != nil {
		return nil, err
	}

	result, err := s.applyOperation(ctx,
		repository.NewAccountRepository(tx),
		repository.NewTransactionRepository(tx),
		repository.NewOutboxRepository(tx),
		cmd, txType,
	)
	if err != nil || result.unpersisted() {
		return result, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return result, nil
}

// applyOperation contains the core single-operation logic between lock
// acquisition and commit.
func (s *TransactionService) applyOperation(
	ctx context.Context,
	accounts repository.AccountRepository,
	txns repository.TransactionRepository,
	outbox repository.OutboxRepository,
	cmd TransactionCommand,
	txType models.TransactionType,
) (*Result, error) {
	account, err := accounts.GetByID(ctx, cmd.AccountID)
	if errors.Is(err, models.ErrNotFound) {
		// No transaction row is written and no retry happens.
		return failResult("Account not found"), nil
	}
	if err != nil {
		return nil, err
	}

	txn := models.NewTransaction(account.ID, txType, cmd.AmountCents, cmd.Currency, cmd.ReferenceID)

	// A domain-rule rejection is recorded, not raised: the command still
	// resolves with a FAILED row and the account stays untouched.
	if ruleErr := applyLedgerOperation(account, txType, cmd.AmountCents); ruleErr != nil {
		if !models.IsDomainRule(ruleErr) {
			return nil, ruleErr
		}
		_ = txn.MarkFailed(ruleErr.Error()) //nolint:errcheck // txn is pending by construction
	} else {
		_ = txn.MarkSuccess() //nolint:errcheck // txn is pending by construction

		if err := accounts.Update(ctx, account); err != nil {
			return nil, err
		}
	}

	if err := txns.Add(ctx, txn); err != nil {
		return nil, err
	}

	msg, err := buildTransactionEvent(txn, normalizeOperation(cmd.Operation), account)
	if err != nil {
		return nil, err
	}
	if err := outbox.Add(ctx, msg); err != nil {
		return nil, err
	}

	return mapResult(txn, account), nil
}

// applyLedgerOperation dispatches to the ledger mutation for txType after
// the active check.
func applyLedgerOperation(account *models.Account, txType models.TransactionType, amountCents int64) error {
	if err := account.EnsureActive(); err != nil {
		return err
	}

	switch txType {
	case models.TransactionTypeCredit:
		return account.Credit(amountCents)
	case models.TransactionTypeDebit:
		return account.Debit(amountCents)
	case models.TransactionTypeReserve:
		return account.Reserve(amountCents)
	case models.TransactionTypeCapture:
		return account.Capture(amountCents)
	default:
		return fmt.Errorf("unsupported transaction type %q", txType)
	}
}

// recoverSingle re-reads the winning single-leg row after a lost insert race.
func (s *TransactionService) recoverSingle(ctx context.Context, referenceID string) (*Result, error) {
	existing, err := s.txns.GetByReferenceAndLeg(ctx, referenceID, models.LegSingle)
	if err != nil {
		return nil, err
	}
	return s.replayResult(ctx, existing), nil
}

// replayResult maps a stored transaction for the replay path. Balances are
// read without locks; when the account cannot be loaded the snapshot is
// zeroed rather than failing the replay.
func (s *TransactionService) replayResult(ctx context.Context, txn *models.Transaction) *Result {
	account, err := s.accounts.GetByID(ctx, txn.AccountID)
	if err != nil {
		account = nil
	}
	return mapResult(txn, account)
}

func mapResult(txn *models.Transaction, account *models.Account) *Result {
	result := &Result{
		TransactionID: txn.ID.String(),
		Status:        strings.ToLower(string(txn.Status)),
		Timestamp:     txn.CreatedAt,
		ErrorMessage:  txn.ErrorMessage,
	}
	if account != nil {
		result.Balance = account.BalanceCents
		result.ReservedBalance = account.ReservedCents
		result.AvailableBalance = account.AvailableBalance()
	}
	return result
}

func failResult(msg string) *Result {
	return &Result{
		TransactionID: uuid.Nil.String(),
		Status:        "failed",
		Timestamp:     time.Now().UTC(),
		ErrorMessage:  &msg,
	}
}

// unpersisted reports whether the result resolved without writing any rows,
// such as the account-not-found path; the enclosing unit has nothing to
// commit then.
func (r *Result) unpersisted() bool {
	return r != nil && r.TransactionID == uuid.Nil.String()
}
