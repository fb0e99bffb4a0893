package models

import "errors"

// Domain errors that can be returned by repositories
var (
	// ErrDuplicateReference indicates a transaction with the same reference_id and leg already exists
	ErrDuplicateReference = errors.New("duplicate reference")

	// ErrNotFound indicates the requested entity was not found
	ErrNotFound = errors.New("not found")

	// ErrConcurrencyConflict indicates the account row version changed between load and update
	ErrConcurrencyConflict = errors.New("concurrency conflict")

	// ErrLockTimeout indicates the account lock could not be acquired within the bounded wait
	ErrLockTimeout = errors.New("account lock timeout")
)

// Rule codes carried by DomainRuleError
const (
	RuleInvalidAmount          = "invalid_amount"
	RuleInsufficientFunds      = "insufficient_funds"
	RuleCaptureExceedsReserved = "capture_exceeds_reserved"
	RuleAccountInactive        = "account_inactive"
)

// DomainRuleError is an expected business-rule rejection. It is data, not a
// fault: the orchestrator records it as a FAILED transaction instead of
// returning it to the caller as an error.
type DomainRuleError struct {
	Rule    string
	Message string
}

func (e *DomainRuleError) Error() string {
	return e.Message
}

// IsDomainRule reports whether err is a business-rule rejection.
func IsDomainRule(err error) bool {
	var dre *DomainRuleError
	return errors.As(err, &dre)
}
