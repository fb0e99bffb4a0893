package service

import (
	"context"
	"errors"

	"github.com/finledger/txprocessor/internal/models"
	"github.com/finledger/txprocessor/internal/repository"
)

// processTransfer moves funds between two accounts as a debit leg on the
// source and a credit leg on the destination, committed atomically.
func (s *TransactionService) processTransfer(ctx context.Context, cmd TransactionCommand) (*Result, error) {
	if cmd.DestinationAccountID == nil || *cmd.DestinationAccountID == cmd.AccountID {
		return failResult("Transfer requires a destination account distinct from the source"), nil
	}

	// Replay path: both legs stored means the transfer already resolved.
	debitLeg, debitErr := s.txns.GetByReferenceAndLeg(ctx, cmd.ReferenceID, models.LegTransferDebit)
	creditErr := error(nil)
	if debitErr == nil {
		_, creditErr = s.txns.GetByReferenceAndLeg(ctx, cmd.ReferenceID, models.LegTransferCredit)
		if creditErr == nil {
			return s.replayResult(ctx, debitLeg), nil
		}
	}
	for _, err := range []error{debitErr, creditErr} {
		if err != nil && !errors.Is(err, models.ErrNotFound) {
			return nil, &ServiceError{Code: ErrCodeInternalError, Message: "idempotency lookup failed", Err: err}
		}
	}

	result, err := s.processWithRetry(ctx, cmd.ReferenceID,
		func(ctx context.Context) (*Result, error) {
			return s.recoverTransfer(ctx, cmd.ReferenceID)
		},
		func(ctx context.Context) (*Result, error) {
			return s.attemptTransfer(ctx, cmd)
		})
	if err != nil {
		return nil, err
	}

	s.logger.Info("transfer processed",
		"reference_id", cmd.ReferenceID,
		"transaction_id", result.TransactionID,
		"status", result.Status,
		"source_account_id", cmd.AccountID,
		"destination_account_id", *cmd.DestinationAccountID,
	)

	return result, nil
}

// recoverTransfer re-reads the winning transfer after a lost insert race.
// Both legs are required before trusting the outcome, mirroring the replay
// lookup.
func (s *TransactionService) recoverTransfer(ctx context.Context, referenceID string) (*Result, error) {
	debitLeg, err := s.txns.GetByReferenceAndLeg(ctx, referenceID, models.LegTransferDebit)
	if err != nil {
		return nil, err
	}
	if _, err := s.txns.GetByReferenceAndLeg(ctx, referenceID, models.LegTransferCredit); err != nil {
		return nil, err
	}
	return s.replayResult(ctx, debitLeg), nil
}

// attemptTransfer runs one transfer attempt inside its own unit of work,
// locking both accounts in ascending-id order before loading either.
func (s *TransactionService) attemptTransfer(ctx context.Context, cmd TransactionCommand) (*Result, error) {
	tx, err := s.uow.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // rollback after commit is a no-op
	}()

	first, second := repository.LockOrder(cmd.AccountID, *cmd.DestinationAccountID)
	if err := s.lock.Acquire(ctx, tx, first); err != nil {
		return nil, err
	}
	if err := s.lock.Acquire(ctx, tx, second); err != nil {
		return nil, err
	}

	result, err := s.applyTransfer(ctx,
		repository.NewAccountRepository(tx),
		repository.NewTransactionRepository(tx),
		repository.NewOutboxRepository(tx),
		cmd,
	)
	if err != nil || result.unpersisted() {
		return result, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return result, nil
}

// applyTransfer contains the core transfer logic between lock acquisition
// and commit: both legs and one outbox event persist in the same unit, and a
// domain-rule failure fails both legs while leaving both balances untouched.
func (s *TransactionService) applyTransfer(
	ctx context.Context,
	accounts repository.AccountRepository,
	txns repository.TransactionRepository,
	outbox repository.OutboxRepository,
	cmd TransactionCommand,
) (*Result, error) {
	source, err := accounts.GetByID(ctx, cmd.AccountID)
	if errors.Is(err, models.ErrNotFound) {
		return failResult("Account not found"), nil
	}
	if err != nil {
		return nil, err
	}

	destination, err := accounts.GetByID(ctx, *cmd.DestinationAccountID)
	if errors.Is(err, models.ErrNotFound) {
		return failResult("Account not found"), nil
	}
	if err != nil {
		return nil, err
	}

	debitTxn := models.NewTransferLeg(source.ID, destination.ID,
		models.TransactionTypeDebit, models.LegTransferDebit,
		cmd.AmountCents, cmd.Currency, cmd.ReferenceID)
	creditTxn := models.NewTransferLeg(destination.ID, source.ID,
		models.TransactionTypeCredit, models.LegTransferCredit,
		cmd.AmountCents, cmd.Currency, cmd.ReferenceID)

	// The debit may mutate the in-memory source before the credit step
	// rejects; failed transfers therefore skip the account updates entirely
	// so no partial balance change can reach storage, and the result snapshot
	// is taken from the pre-mutation copy.
	snapshot := *source

	ruleErr := applyTransferRules(source, destination, cmd.AmountCents)
	if ruleErr != nil {
		if !models.IsDomainRule(ruleErr) {
			return nil, ruleErr
		}
		_ = debitTxn.MarkFailed(ruleErr.Error())  //nolint:errcheck // pending by construction
		_ = creditTxn.MarkFailed(ruleErr.Error()) //nolint:errcheck // pending by construction
		*source = snapshot
	} else {
		_ = debitTxn.MarkSuccess()  //nolint:errcheck // pending by construction
		_ = creditTxn.MarkSuccess() //nolint:errcheck // pending by construction

		if err := accounts.Update(ctx, source); err != nil {
			return nil, err
		}
		if err := accounts.Update(ctx, destination); err != nil {
			return nil, err
		}
	}

	if err := txns.Add(ctx, debitTxn); err != nil {
		return nil, err
	}
	if err := txns.Add(ctx, creditTxn); err != nil {
		return nil, err
	}

	msg, err := buildTransferEvent(debitTxn, creditTxn, source, destination)
	if err != nil {
		return nil, err
	}
	if err := outbox.Add(ctx, msg); err != nil {
		return nil, err
	}

	return mapResult(debitTxn, source), nil
}

// applyTransferRules checks both accounts and applies debit-then-credit.
func applyTransferRules(source, destination *models.Account, amountCents int64) error {
	if err := source.EnsureActive(); err != nil {
		return err
	}
	if err := destination.EnsureActive(); err != nil {
		return err
	}
	if err := source.Debit(amountCents); err != nil {
		return err
	}
	return destination.Credit(amountCents)
}
