package service

import (
	"context"

	"github.com/google/uuid"
)

// TransactionProcessor handles money-movement commands
type TransactionProcessor interface {
	ProcessTransaction(ctx context.Context, cmd TransactionCommand) (*Result, error)
}

// AccountManager handles account opening and lookup
type AccountManager interface {
	CreateAccount(ctx context.Context, clientID string, creditLimitCents int64) (*AccountResult, error)
	GetAccount(ctx context.Context, id uuid.UUID) (*AccountResult, error)
}

// Ensure concrete types implement interfaces
var (
	_ TransactionProcessor = (*TransactionService)(nil)
	_ AccountManager       = (*AccountService)(nil)
)
