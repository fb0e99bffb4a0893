package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/finledger/txprocessor/internal/db"
	"github.com/finledger/txprocessor/internal/models"
	"github.com/finledger/txprocessor/internal/repository"
)

// AccountService opens and reads accounts. Account creation provisions the
// owning customer record for new client ids.
type AccountService struct {
	db       *db.DB
	uow      *repository.UnitOfWork
	accounts repository.AccountRepository
	logger   *slog.Logger
}

// NewAccountService creates a new AccountService.
func NewAccountService(database *db.DB, logger *slog.Logger) *AccountService {
	return &AccountService{
		db:       database,
		uow:      repository.NewUnitOfWork(database),
		accounts: repository.NewAccountRepository(database),
		logger:   logger,
	}
}

// CreateAccount opens an active account with the given credit line under the
// customer identified by clientID, creating the customer if needed.
func (s *AccountService) CreateAccount(ctx context.Context, clientID string, creditLimitCents int64) (*AccountResult, error) {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return nil, validationError("client_id is required")
	}
	if creditLimitCents < 0 {
		return nil, validationError("credit_limit cannot be negative")
	}

	var account *models.Account

	err := s.uow.ExecuteWithRetry(ctx, func(ctx context.Context) error {
		tx, err := s.uow.Begin(ctx)
		if err != nil {
			return err
		}
		defer func() {
			_ = tx.Rollback() //nolint:errcheck // rollback after commit is a no-op
		}()

		customers := repository.NewCustomerRepository(tx)

		customer, err := customers.GetByClientID(ctx, clientID)
		if errors.Is(err, models.ErrNotFound) {
			customer = models.NewCustomer(clientID)
			if err := customers.Add(ctx, customer); err != nil {
				return err
			}
			s.logger.Info("customer created", "client_id", clientID, "customer_id", customer.ID)
		} else if err != nil {
			return err
		}

		account, err = models.NewAccount(customer.ID, creditLimitCents)
		if err != nil {
			return err
		}

		if err := repository.NewAccountRepository(tx).Add(ctx, account); err != nil {
			return err
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit transaction: %w", err)
		}
		return nil
	})
	if err != nil {
		var dre *models.DomainRuleError
		if errors.As(err, &dre) {
			return nil, validationError(dre.Message)
		}
		return nil, &ServiceError{Code: ErrCodeInternalError, Message: "failed to create account", Err: err}
	}

	s.logger.Info("account created",
		"account_id", account.ID,
		"client_id", clientID,
		"credit_limit_cents", creditLimitCents,
	)

	return mapAccountResult(account), nil
}

// GetAccount returns the current balance snapshot for an account.
func (s *AccountService) GetAccount(ctx context.Context, id uuid.UUID) (*AccountResult, error) {
	account, err := s.accounts.GetByID(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		return nil, &ServiceError{Code: ErrCodeAccountNotFound, Message: "account not found"}
	}
	if err != nil {
		return nil, &ServiceError{Code: ErrCodeInternalError, Message: "failed to load account", Err: err}
	}

	return mapAccountResult(account), nil
}

func mapAccountResult(account *models.Account) *AccountResult {
	return &AccountResult{
		AccountID:        account.ID,
		Balance:          account.BalanceCents,
		ReservedBalance:  account.ReservedCents,
		AvailableBalance: account.AvailableBalance(),
		CreditLimit:      account.CreditCents,
	}
}
