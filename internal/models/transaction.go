package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// TransactionType represents the type of transaction
type TransactionType string

const (
	TransactionTypeCredit  TransactionType = "CREDIT"
	TransactionTypeDebit   TransactionType = "DEBIT"
	TransactionTypeReserve TransactionType = "RESERVE"
	TransactionTypeCapture TransactionType = "CAPTURE"
)

// TransactionStatus represents the status of a transaction
type TransactionStatus string

const (
	TransactionStatusPending TransactionStatus = "PENDING"
	TransactionStatusSuccess TransactionStatus = "SUCCESS"
	TransactionStatusFailed  TransactionStatus = "FAILED"
)

// Transfer legs. A transfer persists two rows sharing the same reference id.
const (
	LegSingle         = 0
	LegTransferDebit  = 1
	LegTransferCredit = 2
)

// ErrTerminalStatus indicates an attempt to transition a transaction that
// already reached SUCCESS or FAILED.
var ErrTerminalStatus = errors.New("transaction already in terminal status")

// Transaction represents one ledger entry. The pair (ReferenceID, Leg) is
// unique in storage and is what makes replays idempotent.
type Transaction struct {
	CreatedAt      time.Time         `db:"created_at"`
	Type           TransactionType   `db:"type"`
	Status         TransactionStatus `db:"status"`
	Currency       string            `db:"currency"`
	ReferenceID    string            `db:"reference_id"`
	ErrorMessage   *string           `db:"error_message"`
	CounterpartyID *uuid.UUID        `db:"counterparty_account_id"`
	AmountCents    int64             `db:"amount_cents"`
	Leg            int               `db:"leg"`
	ID             uuid.UUID         `db:"id"`
	AccountID      uuid.UUID         `db:"account_id"`
}

// NewTransaction creates a pending single-operation transaction.
func NewTransaction(accountID uuid.UUID, txType TransactionType, amountCents int64, currency, referenceID string) *Transaction {
	return &Transaction{
		ID:          uuid.New(),
		AccountID:   accountID,
		Type:        txType,
		AmountCents: amountCents,
		Currency:    currency,
		ReferenceID: referenceID,
		Leg:         LegSingle,
		Status:      TransactionStatusPending,
		CreatedAt:   time.Now().UTC(),
	}
}

// NewTransferLeg creates one pending side of a two-leg transfer.
func NewTransferLeg(accountID, counterpartyID uuid.UUID, txType TransactionType, leg int, amountCents int64, currency, referenceID string) *Transaction {
	t := NewTransaction(accountID, txType, amountCents, currency, referenceID)
	t.Leg = leg
	t.CounterpartyID = &counterpartyID
	return t
}

// MarkSuccess transitions PENDING -> SUCCESS and clears any error.
func (t *Transaction) MarkSuccess() error {
	if t.Status != TransactionStatusPending {
		return ErrTerminalStatus
	}
	t.Status = TransactionStatusSuccess
	t.ErrorMessage = nil
	return nil
}

// MarkFailed transitions PENDING -> FAILED with the rule's message.
func (t *Transaction) MarkFailed(reason string) error {
	if t.Status != TransactionStatusPending {
		return ErrTerminalStatus
	}
	t.Status = TransactionStatusFailed
	t.ErrorMessage = &reason
	return nil
}
