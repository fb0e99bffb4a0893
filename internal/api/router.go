// Package api provides the thin HTTP boundary over the transaction
// processor. It carries no business logic: payloads are decoded, validated
// and handed to the service layer.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/finledger/txprocessor/internal/service"
)

// HealthReporter exposes the outbox relay's circuit state for /healthz.
type HealthReporter interface {
	Healthy() bool
	StateName() string
}

// NewRouter constructs the HTTP router with all API endpoints registered.
func NewRouter(
	accounts service.AccountManager,
	transactions service.TransactionProcessor,
	health HealthReporter,
	logger *slog.Logger,
) http.Handler {
	h := NewHandler(accounts, transactions, health, logger)
	r := chi.NewRouter()

	r.Get("/healthz", h.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/accounts", h.CreateAccount)
		r.Get("/accounts/{accountId}", h.GetAccount)
		r.Post("/transactions", h.ProcessTransaction)
	})

	return r
}
