package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func activeAccount(balance, reserved, creditLimit int64) *Account {
	return &Account{
		ID:            uuid.New(),
		CustomerID:    uuid.New(),
		Status:        AccountStatusActive,
		BalanceCents:  balance,
		ReservedCents: reserved,
		CreditCents:   creditLimit,
		Version:       1,
	}
}

func TestNewAccount(t *testing.T) {
	customerID := uuid.New()

	account, err := NewAccount(customerID, 10000)
	require.NoError(t, err)

	assert.Equal(t, customerID, account.CustomerID)
	assert.Equal(t, AccountStatusActive, account.Status)
	assert.Equal(t, int64(0), account.BalanceCents)
	assert.Equal(t, int64(0), account.ReservedCents)
	assert.Equal(t, int64(10000), account.CreditCents)
	assert.Equal(t, int64(1), account.Version)
}

func TestNewAccount_Invalid(t *testing.T) {
	_, err := NewAccount(uuid.Nil, 0)
	assert.True(t, IsDomainRule(err))

	_, err = NewAccount(uuid.New(), -1)
	assert.True(t, IsDomainRule(err))
}

func TestAccount_Credit(t *testing.T) {
	account := activeAccount(1000, 0, 0)

	require.NoError(t, account.Credit(500))
	assert.Equal(t, int64(1500), account.BalanceCents)
}

func TestAccount_Debit_UsesCreditLine(t *testing.T) {
	account := activeAccount(0, 0, 10000)

	require.NoError(t, account.Debit(5000))

	assert.Equal(t, int64(-5000), account.BalanceCents)
	assert.Equal(t, int64(5000), account.AvailableBalance())
}

func TestAccount_Debit_InsufficientFunds(t *testing.T) {
	account := activeAccount(1000, 0, 500)

	err := account.Debit(2000)

	var ruleErr *DomainRuleError
	require.ErrorAs(t, err, &ruleErr)
	assert.Equal(t, RuleInsufficientFunds, ruleErr.Rule)
	assert.Equal(t, "Insufficient funds. Available: 1500, Required: 2000", ruleErr.Message)
	assert.Equal(t, int64(1000), account.BalanceCents, "rejected debit must not move the balance")
}

func TestAccount_Debit_ReservedReducesSpendingPower(t *testing.T) {
	account := activeAccount(5000, 3000, 0)

	err := account.Debit(2500)

	assert.True(t, IsDomainRule(err))
	assert.Equal(t, int64(5000), account.BalanceCents)
}

func TestAccount_Reserve_ExcludesCreditLine(t *testing.T) {
	account := activeAccount(5000, 0, 10000)

	err := account.Reserve(6000)

	var ruleErr *DomainRuleError
	require.ErrorAs(t, err, &ruleErr)
	assert.Equal(t, RuleInsufficientFunds, ruleErr.Rule)
	assert.Equal(t, "Insufficient funds for reservation.", ruleErr.Message)
	assert.Equal(t, int64(0), account.ReservedCents)
}

func TestAccount_Reserve(t *testing.T) {
	account := activeAccount(5000, 0, 0)

	require.NoError(t, account.Reserve(3000))

	assert.Equal(t, int64(5000), account.BalanceCents, "a hold does not move the balance")
	assert.Equal(t, int64(3000), account.ReservedCents)
	assert.Equal(t, int64(2000), account.CashAvailable())
}

func TestAccount_Capture(t *testing.T) {
	account := activeAccount(0, 0, 0)

	require.NoError(t, account.Credit(5000))
	require.NoError(t, account.Reserve(3000))
	require.NoError(t, account.Capture(1000))

	assert.Equal(t, int64(4000), account.BalanceCents)
	assert.Equal(t, int64(2000), account.ReservedCents)
}

func TestAccount_Capture_ExceedsReserved(t *testing.T) {
	account := activeAccount(5000, 1000, 0)

	err := account.Capture(1500)

	var ruleErr *DomainRuleError
	require.ErrorAs(t, err, &ruleErr)
	assert.Equal(t, RuleCaptureExceedsReserved, ruleErr.Rule)
	assert.Equal(t, int64(1000), account.ReservedCents)
	assert.Equal(t, int64(5000), account.BalanceCents)
}

func TestAccount_ReservedNeverNegative(t *testing.T) {
	account := activeAccount(5000, 0, 0)

	require.NoError(t, account.Reserve(2000))
	require.NoError(t, account.Capture(2000))
	assert.Equal(t, int64(0), account.ReservedCents)

	err := account.Capture(1)
	assert.True(t, IsDomainRule(err))
	assert.Equal(t, int64(0), account.ReservedCents)
}

func TestAccount_InvalidAmounts(t *testing.T) {
	account := activeAccount(5000, 1000, 0)

	for _, amount := range []int64{0, -100} {
		for name, op := range map[string]func(int64) error{
			"credit":  account.Credit,
			"debit":   account.Debit,
			"reserve": account.Reserve,
			"capture": account.Capture,
		} {
			err := op(amount)
			var ruleErr *DomainRuleError
			require.ErrorAs(t, err, &ruleErr, "%s(%d)", name, amount)
			assert.Equal(t, RuleInvalidAmount, ruleErr.Rule)
		}
	}

	assert.Equal(t, int64(5000), account.BalanceCents)
	assert.Equal(t, int64(1000), account.ReservedCents)
}

func TestAccount_EnsureActive(t *testing.T) {
	tests := []struct {
		name    string
		status  AccountStatus
		message string
	}{
		{name: "suspended", status: AccountStatusSuspended, message: "Account is SUSPENDED."},
		{name: "closed", status: AccountStatusClosed, message: "Account is CLOSED."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			account := activeAccount(1000, 0, 0)
			account.Status = tt.status

			err := account.EnsureActive()

			var ruleErr *DomainRuleError
			require.ErrorAs(t, err, &ruleErr)
			assert.Equal(t, RuleAccountInactive, ruleErr.Rule)
			assert.Equal(t, tt.message, ruleErr.Message)
		})
	}

	assert.NoError(t, activeAccount(0, 0, 0).EnsureActive())
}
