package service

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/finledger/txprocessor/internal/models"
)

// Outbox event types published by the orchestrator.
const (
	EventTransactionProcessed = "transaction.processed"
	EventTransferProcessed    = "transfer.processed"
)

type transactionEvent struct {
	TransactionID    string    `json:"transaction_id"`
	ReferenceID      string    `json:"reference_id"`
	AccountID        string    `json:"account_id"`
	Operation        string    `json:"operation"`
	Amount           int64     `json:"amount"`
	Currency         string    `json:"currency"`
	Status           string    `json:"status"`
	Balance          int64     `json:"balance"`
	ReservedBalance  int64     `json:"reserved_balance"`
	AvailableBalance int64     `json:"available_balance"`
	ErrorMessage     *string   `json:"error_message"`
	OccurredAt       time.Time `json:"occurred_at"`
}

type transferLegEvent struct {
	TransactionID    string `json:"transaction_id"`
	AccountID        string `json:"account_id"`
	Balance          int64  `json:"balance"`
	ReservedBalance  int64  `json:"reserved_balance"`
	AvailableBalance int64  `json:"available_balance"`
}

type transferEvent struct {
	ReferenceID  string           `json:"reference_id"`
	Amount       int64            `json:"amount"`
	Currency     string           `json:"currency"`
	Status       string           `json:"status"`
	ErrorMessage *string          `json:"error_message"`
	DebitLeg     transferLegEvent `json:"debit_leg"`
	CreditLeg    transferLegEvent `json:"credit_leg"`
	OccurredAt   time.Time        `json:"occurred_at"`
}

// buildTransactionEvent describes one processed command, including the
// post-operation balance snapshot.
func buildTransactionEvent(txn *models.Transaction, operation string, account *models.Account) (*models.OutboxMessage, error) {
	payload, err := json.Marshal(transactionEvent{
		TransactionID:    txn.ID.String(),
		ReferenceID:      txn.ReferenceID,
		AccountID:        txn.AccountID.String(),
		Operation:        operation,
		Amount:           txn.AmountCents,
		Currency:         txn.Currency,
		Status:           strings.ToLower(string(txn.Status)),
		Balance:          account.BalanceCents,
		ReservedBalance:  account.ReservedCents,
		AvailableBalance: account.AvailableBalance(),
		ErrorMessage:     txn.ErrorMessage,
		OccurredAt:       time.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal transaction event: %w", err)
	}

	return models.NewOutboxMessage(EventTransactionProcessed, payload), nil
}

// buildTransferEvent carries both legs of a transfer in a single message.
func buildTransferEvent(debitTxn, creditTxn *models.Transaction, source, destination *models.Account) (*models.OutboxMessage, error) {
	payload, err := json.Marshal(transferEvent{
		ReferenceID:  debitTxn.ReferenceID,
		Amount:       debitTxn.AmountCents,
		Currency:     debitTxn.Currency,
		Status:       strings.ToLower(string(debitTxn.Status)),
		ErrorMessage: debitTxn.ErrorMessage,
		DebitLeg: transferLegEvent{
			TransactionID:    debitTxn.ID.String(),
			AccountID:        source.ID.String(),
			Balance:          source.BalanceCents,
			ReservedBalance:  source.ReservedCents,
			AvailableBalance: source.AvailableBalance(),
		},
		CreditLeg: transferLegEvent{
			TransactionID:    creditTxn.ID.String(),
			AccountID:        destination.ID.String(),
			Balance:          destination.BalanceCents,
			ReservedBalance:  destination.ReservedCents,
			AvailableBalance: destination.AvailableBalance(),
		},
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal transfer event: %w", err)
	}

	return models.NewOutboxMessage(EventTransferProcessed, payload), nil
}
