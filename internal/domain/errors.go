package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across repositories and services.
var (
	ErrNotFound = errors.New("not found")
)

// Error codes for API responses.
const (
	ErrCodeInvalidInput   = "INVALID_INPUT"
	ErrCodeDatabaseError  = "DATABASE_ERROR"
	ErrCodeScoringError   = "SCORING_ERROR"
	ErrCodeRateLimit      = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternalServer = "INTERNAL_SERVER_ERROR"
)

// InputError represents a malformed or out-of-range reading. It is raised
// synchronously by the scoring engine and must be surfaced by callers as a
// client error, never swallowed.
type InputError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value"`
}

// Error implements the error interface.
func (e *InputError) Error() string {
	return fmt.Sprintf("invalid input for field '%s': %s", e.Field, e.Message)
}

// NewInputError creates a new InputError.
func NewInputError(field, message string, value interface{}) *InputError {
	return &InputError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}

// IsInputError reports whether err is (or wraps) an InputError.
func IsInputError(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}
