package service

import "fmt"

// ServiceError represents a non-domain failure with a stable code. Domain
// rule rejections never surface as ServiceError; they become FAILED
// transaction rows instead.
type ServiceError struct {
	Err     error
	Message string
	Code    string
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrCodeValidation      = "validation_error"
	ErrCodeAccountNotFound = "account_not_found"
	ErrCodeUnavailable     = "service_unavailable"
	ErrCodeInternalError   = "internal_error"
)

func validationError(msg string) *ServiceError {
	return &ServiceError{Code: ErrCodeValidation, Message: msg}
}
