package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTransaction(t *testing.T) {
	accountID := uuid.New()

	txn := NewTransaction(accountID, TransactionTypeDebit, 2500, "USD", "order-42")

	assert.Equal(t, accountID, txn.AccountID)
	assert.Equal(t, TransactionTypeDebit, txn.Type)
	assert.Equal(t, TransactionStatusPending, txn.Status)
	assert.Equal(t, LegSingle, txn.Leg)
	assert.Nil(t, txn.CounterpartyID)
	assert.Nil(t, txn.ErrorMessage)
}

func TestNewTransferLeg(t *testing.T) {
	source := uuid.New()
	destination := uuid.New()

	debit := NewTransferLeg(source, destination, TransactionTypeDebit, LegTransferDebit, 1000, "USD", "xfer-1")
	credit := NewTransferLeg(destination, source, TransactionTypeCredit, LegTransferCredit, 1000, "USD", "xfer-1")

	assert.Equal(t, LegTransferDebit, debit.Leg)
	assert.Equal(t, source, debit.AccountID)
	require.NotNil(t, debit.CounterpartyID)
	assert.Equal(t, destination, *debit.CounterpartyID)

	assert.Equal(t, LegTransferCredit, credit.Leg)
	assert.Equal(t, destination, credit.AccountID)
	require.NotNil(t, credit.CounterpartyID)
	assert.Equal(t, source, *credit.CounterpartyID)

	assert.Equal(t, debit.ReferenceID, credit.ReferenceID)
}

func TestTransaction_MarkSuccess(t *testing.T) {
	txn := NewTransaction(uuid.New(), TransactionTypeCredit, 100, "USD", "ref-1")

	require.NoError(t, txn.MarkSuccess())
	assert.Equal(t, TransactionStatusSuccess, txn.Status)
	assert.Nil(t, txn.ErrorMessage)
}

func TestTransaction_MarkFailed(t *testing.T) {
	txn := NewTransaction(uuid.New(), TransactionTypeDebit, 100, "USD", "ref-1")

	require.NoError(t, txn.MarkFailed("Insufficient funds for reservation."))
	assert.Equal(t, TransactionStatusFailed, txn.Status)
	require.NotNil(t, txn.ErrorMessage)
	assert.Equal(t, "Insufficient funds for reservation.", *txn.ErrorMessage)
}

func TestTransaction_TerminalStatusIsFinal(t *testing.T) {
	succeeded := NewTransaction(uuid.New(), TransactionTypeCredit, 100, "USD", "ref-1")
	require.NoError(t, succeeded.MarkSuccess())

	assert.ErrorIs(t, succeeded.MarkFailed("late failure"), ErrTerminalStatus)
	assert.ErrorIs(t, succeeded.MarkSuccess(), ErrTerminalStatus)
	assert.Equal(t, TransactionStatusSuccess, succeeded.Status)

	failed := NewTransaction(uuid.New(), TransactionTypeDebit, 100, "USD", "ref-2")
	require.NoError(t, failed.MarkFailed("no funds"))

	assert.ErrorIs(t, failed.MarkSuccess(), ErrTerminalStatus)
	assert.Equal(t, TransactionStatusFailed, failed.Status)
	require.NotNil(t, failed.ErrorMessage)
	assert.Equal(t, "no funds", *failed.ErrorMessage)
}
