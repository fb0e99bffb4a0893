package service

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finledger/txprocessor/internal/models"
)

func TestBuildTransactionEvent(t *testing.T) {
	account := testAccount(4000, 1000, 0)
	txn := models.NewTransaction(account.ID, models.TransactionTypeDebit, 1000, "USD", "order-1")
	require.NoError(t, txn.MarkSuccess())

	msg, err := buildTransactionEvent(txn, "debit", account)
	require.NoError(t, err)

	assert.Equal(t, EventTransactionProcessed, msg.Type)

	var event transactionEvent
	require.NoError(t, json.Unmarshal(msg.Payload, &event))
	assert.Equal(t, txn.ID.String(), event.TransactionID)
	assert.Equal(t, "order-1", event.ReferenceID)
	assert.Equal(t, account.ID.String(), event.AccountID)
	assert.Equal(t, "debit", event.Operation)
	assert.Equal(t, int64(1000), event.Amount)
	assert.Equal(t, "success", event.Status)
	assert.Equal(t, int64(4000), event.Balance)
	assert.Equal(t, int64(1000), event.ReservedBalance)
	assert.Equal(t, int64(3000), event.AvailableBalance)
	assert.Nil(t, event.ErrorMessage)
}

func TestBuildTransferEvent(t *testing.T) {
	source := testAccount(2000, 0, 0)
	destination := testAccount(3000, 0, 0)

	debit := models.NewTransferLeg(source.ID, destination.ID,
		models.TransactionTypeDebit, models.LegTransferDebit, 3000, "USD", "xfer-1")
	credit := models.NewTransferLeg(destination.ID, source.ID,
		models.TransactionTypeCredit, models.LegTransferCredit, 3000, "USD", "xfer-1")
	require.NoError(t, debit.MarkSuccess())
	require.NoError(t, credit.MarkSuccess())

	msg, err := buildTransferEvent(debit, credit, source, destination)
	require.NoError(t, err)

	assert.Equal(t, EventTransferProcessed, msg.Type)

	var event transferEvent
	require.NoError(t, json.Unmarshal(msg.Payload, &event))
	assert.Equal(t, "xfer-1", event.ReferenceID)
	assert.Equal(t, int64(3000), event.Amount)
	assert.Equal(t, "success", event.Status)
	assert.Equal(t, source.ID.String(), event.DebitLeg.AccountID)
	assert.Equal(t, destination.ID.String(), event.CreditLeg.AccountID)
	assert.Equal(t, int64(2000), event.DebitLeg.Balance)
	assert.Equal(t, int64(3000), event.CreditLeg.Balance)
}
