package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AccountStatus represents the lifecycle state of an account
type AccountStatus string

const (
	AccountStatusActive    AccountStatus = "ACTIVE"
	AccountStatusSuspended AccountStatus = "SUSPENDED"
	AccountStatusClosed    AccountStatus = "CLOSED"
)

// Account represents a customer account with a balance, an authorization-hold
// reserve and a credit line. All amounts are in currency minor units (cents).
//
// Balance arithmetic is only ever applied by the transaction orchestrator
// while holding the account lock; Version backs the optimistic check on the
// final row update.
type Account struct {
	CreatedAt     time.Time     `db:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at"`
	Status        AccountStatus `db:"status"`
	BalanceCents  int64         `db:"balance_cents"`
	ReservedCents int64         `db:"reserved_cents"`
	CreditCents   int64         `db:"credit_limit_cents"`
	Version       int64         `db:"version"`
	ID            uuid.UUID     `db:"id"`
	CustomerID    uuid.UUID     `db:"customer_id"`
}

// NewAccount creates an active account with a zero balance.
func NewAccount(customerID uuid.UUID, creditLimitCents int64) (*Account, error) {
	if customerID == uuid.Nil {
		return nil, &DomainRuleError{Rule: RuleInvalidAmount, Message: "customer id is required"}
	}
	if creditLimitCents < 0 {
		return nil, &DomainRuleError{Rule: RuleInvalidAmount, Message: "credit limit cannot be negative"}
	}

	now := time.Now().UTC()
	return &Account{
		ID:          uuid.New(),
		CustomerID:  customerID,
		Status:      AccountStatusActive,
		CreditCents: creditLimitCents,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// CashAvailable is the balance minus reserved funds, excluding the credit line.
func (a *Account) CashAvailable() int64 {
	return a.BalanceCents - a.ReservedCents
}

// AvailableBalance is the spending power: cash available plus the credit line.
func (a *Account) AvailableBalance() int64 {
	return a.CashAvailable() + a.CreditCents
}

// EnsureActive rejects operations on suspended or closed accounts.
func (a *Account) EnsureActive() error {
	if a.Status != AccountStatusActive {
		return &DomainRuleError{
			Rule:    RuleAccountInactive,
			Message: fmt.Sprintf("Account is %s.", a.Status),
		}
	}
	return nil
}

// Credit adds funds to the balance.
func (a *Account) Credit(amountCents int64) error {
	if err := validAmount(amountCents, "Credit"); err != nil {
		return err
	}
	a.BalanceCents += amountCents
	return nil
}

// Debit settles funds against the spending power. A debit may draw on the
// credit line and drive the balance negative down to -CreditCents.
func (a *Account) Debit(amountCents int64) error {
	if err := validAmount(amountCents, "Debit"); err != nil {
		return err
	}
	if amountCents > a.AvailableBalance() {
		return &DomainRuleError{
			Rule:    RuleInsufficientFunds,
			Message: fmt.Sprintf("Insufficient funds. Available: %d, Required: %d", a.AvailableBalance(), amountCents),
		}
	}
	a.BalanceCents -= amountCents
	return nil
}

// Reserve places an authorization hold. A hold can only be placed against
// cash: the credit line is deliberately excluded from the funds check.
func (a *Account) Reserve(amountCents int64) error {
	if err := validAmount(amountCents, "Reserve"); err != nil {
		return err
	}
	if amountCents > a.CashAvailable() {
		return &DomainRuleError{
			Rule:    RuleInsufficientFunds,
			Message: "Insufficient funds for reservation.",
		}
	}
	a.ReservedCents += amountCents
	return nil
}

// Capture settles a prior hold into an actual debit.
func (a *Account) Capture(amountCents int64) error {
	if err := validAmount(amountCents, "Capture"); err != nil {
		return err
	}
	if amountCents > a.ReservedCents {
		return &DomainRuleError{
			Rule:    RuleCaptureExceedsReserved,
			Message: "Capture amount exceeds reserved balance.",
		}
	}
	a.ReservedCents -= amountCents
	a.BalanceCents -= amountCents
	return nil
}

func validAmount(amountCents int64, op string) error {
	if amountCents <= 0 {
		return &DomainRuleError{
			Rule:    RuleInvalidAmount,
			Message: fmt.Sprintf("%s amount must be positive.", op),
		}
	}
	return nil
}
