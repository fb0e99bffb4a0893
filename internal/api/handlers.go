package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finledger/txprocessor/internal/service"
)

// Handler wraps the services and exposes HTTP handlers.
type Handler struct {
	accounts     service.AccountManager
	transactions service.TransactionProcessor
	health       HealthReporter
	logger       *slog.Logger
}

// NewHandler returns a new Handler.
func NewHandler(
	accounts service.AccountManager,
	transactions service.TransactionProcessor,
	health HealthReporter,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		accounts:     accounts,
		transactions: transactions,
		health:       health,
		logger:       logger,
	}
}

type createAccountRequest struct {
	ClientID    string          `json:"client_id"`
	CreditLimit decimal.Decimal `json:"credit_limit"`
}

type transactionRequest struct {
	AccountID            uuid.UUID       `json:"account_id"`
	Operation            string          `json:"operation"`
	Amount               decimal.Decimal `json:"amount"`
	Currency             string          `json:"currency"`
	ReferenceID          string          `json:"reference_id"`
	DestinationAccountID *uuid.UUID      `json:"destination_account_id,omitempty"`
}

// CreateAccount handles POST /api/v1/accounts
func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	creditLimitCents, err := toCents(req.CreditLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, "credit_limit supports up to 2 decimals")
		return
	}

	result, err := h.accounts.CreateAccount(r.Context(), req.ClientID, creditLimitCents)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, result, h.logger)
}

// GetAccount handles GET /api/v1/accounts/{accountId}
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "accountId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid account id")
		return
	}

	result, err := h.accounts.GetAccount(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result, h.logger)
}

// ProcessTransaction handles POST /api/v1/transactions
func (h *Handler) ProcessTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	amountCents, err := toCents(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "amount supports up to 2 decimals")
		return
	}

	result, err := h.transactions.ProcessTransaction(r.Context(), service.TransactionCommand{
		AccountID:            req.AccountID,
		DestinationAccountID: req.DestinationAccountID,
		Operation:            req.Operation,
		AmountCents:          amountCents,
		Currency:             req.Currency,
		ReferenceID:          req.ReferenceID,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result, h.logger)
}

// Health handles GET /healthz. The outbox circuit breaker participates: an
// open breaker reports the service degraded.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	status := http.StatusOK
	body := map[string]string{
		"status":         "ok",
		"outbox_breaker": h.health.StateName(),
	}
	if !h.health.Healthy() {
		status = http.StatusServiceUnavailable
		body["status"] = "degraded"
	}

	writeJSON(w, status, body, h.logger)
}

// toCents converts a decimal amount to currency minor units, rejecting more
// than two fractional digits and values whose cent count overflows int64.
func toCents(amount decimal.Decimal) (int64, error) {
	cents := amount.Mul(decimal.NewFromInt(100))
	if !cents.IsInteger() {
		return 0, errors.New("amount has more than 2 decimals")
	}
	if !cents.BigInt().IsInt64() {
		return 0, errors.New("amount out of range")
	}
	return cents.IntPart(), nil
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	var svcErr *service.ServiceError
	if errors.As(err, &svcErr) {
		writeJSON(w, statusForCode(svcErr.Code), map[string]string{
			"error": svcErr.Message,
			"code":  svcErr.Code,
		}, h.logger)
		return
	}

	h.logger.Error("unhandled service error", "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func statusForCode(code string) int {
	switch code {
	case service.ErrCodeValidation:
		return http.StatusBadRequest
	case service.ErrCodeAccountNotFound:
		return http.StatusNotFound
	case service.ErrCodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + msg + `"}`)) //nolint:errcheck // best effort
}
