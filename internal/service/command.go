package service

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/finledger/txprocessor/internal/models"
)

// TransactionCommand is the transport-agnostic money-movement command.
// Amounts are in currency minor units.
type TransactionCommand struct {
	AccountID            uuid.UUID
	DestinationAccountID *uuid.UUID
	Operation            string
	Currency             string
	ReferenceID          string
	AmountCents          int64
}

// Result is the outcome reported for every processed command. The balance
// snapshot is taken after the operation; all fields are zero when no account
// could be identified.
type Result struct {
	TransactionID    string    `json:"transaction_id"`
	Status           string    `json:"status"`
	Balance          int64     `json:"balance"`
	ReservedBalance  int64     `json:"reserved_balance"`
	AvailableBalance int64     `json:"available_balance"`
	Timestamp        time.Time `json:"timestamp"`
	ErrorMessage     *string   `json:"error_message,omitempty"`
}

// AccountResult is the outcome of account creation and lookup.
type AccountResult struct {
	AccountID        uuid.UUID `json:"account_id"`
	Balance          int64     `json:"balance"`
	ReservedBalance  int64     `json:"reserved_balance"`
	AvailableBalance int64     `json:"available_balance"`
	CreditLimit      int64     `json:"credit_limit"`
}

var (
	currencyPattern  = regexp.MustCompile(`^[A-Z]{3}$`)
	referencePattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)
)

// Validate rejects malformed commands before anything is persisted.
func (c *TransactionCommand) Validate() error {
	if c.AccountID == uuid.Nil {
		return validationError("account_id is required")
	}
	if c.AmountCents <= 0 {
		return validationError("amount must be greater than 0")
	}
	if !currencyPattern.MatchString(c.Currency) {
		return validationError("currency must be a 3-letter uppercase code")
	}
	if len(c.ReferenceID) < 3 || len(c.ReferenceID) > 64 {
		return validationError("reference_id must be between 3 and 64 characters")
	}
	if !referencePattern.MatchString(c.ReferenceID) {
		return validationError("reference_id contains invalid characters")
	}

	if c.Operation == "" {
		return validationError("operation is required")
	}

	// An unrecognized operation is not a validation failure: it resolves as
	// a failed result downstream.
	if normalizeOperation(c.Operation) == "transfer" {
		if c.DestinationAccountID == nil || *c.DestinationAccountID == uuid.Nil {
			return validationError("destination_account_id is required for transfer")
		}
		if *c.DestinationAccountID == c.AccountID {
			return validationError("destination_account_id must differ from account_id")
		}
	}

	return nil
}

func normalizeOperation(op string) string {
	return strings.ToLower(strings.TrimSpace(op))
}

// parseOperation maps a normalized operation name to a transaction type.
func parseOperation(op string) (models.TransactionType, bool) {
	switch op {
	case "credit":
		return models.TransactionTypeCredit, true
	case "debit":
		return models.TransactionTypeDebit, true
	case "reserve":
		return models.TransactionTypeReserve, true
	case "capture":
		return models.TransactionTypeCapture, true
	default:
		return "", false
	}
}
