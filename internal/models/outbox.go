package models

import (
	"time"

	"github.com/google/uuid"
)

// OutboxMessage is a domain event written in the same commit as the state
// change it describes. ProcessedAt stays nil until delivery succeeds;
// Attempts and NextAttemptAt only change through failure handling by the
// relay.
type OutboxMessage struct {
	OccurredAt    time.Time  `db:"occurred_at"`
	NextAttemptAt *time.Time `db:"next_attempt_at"`
	ProcessedAt   *time.Time `db:"processed_at"`
	LastError     *string    `db:"last_error"`
	Type          string     `db:"type"`
	Payload       []byte     `db:"payload"`
	Attempts      int        `db:"attempts"`
	ID            uuid.UUID  `db:"id"`
}

// NewOutboxMessage creates an undelivered message.
func NewOutboxMessage(eventType string, payload []byte) *OutboxMessage {
	return &OutboxMessage{
		ID:         uuid.New(),
		Type:       eventType,
		Payload:    payload,
		OccurredAt: time.Now().UTC(),
	}
}

// Customer is the owning party of one or more accounts, keyed externally by
// the caller-supplied client id.
type Customer struct {
	CreatedAt time.Time `db:"created_at"`
	ClientID  string    `db:"client_id"`
	ID        uuid.UUID `db:"id"`
}

// NewCustomer creates a customer for a client id.
func NewCustomer(clientID string) *Customer {
	return &Customer{
		ID:        uuid.New(),
		ClientID:  clientID,
		CreatedAt: time.Now().UTC(),
	}
}
