package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a namespaced error code for egress pipeline errors.
type ErrorCode string

// Transmission pipeline error codes
const (
	CLASSIFICATION_VIOLATION ErrorCode = "CLASSIFICATION_VIOLATION"
	ILLEGAL_TRANSITION       ErrorCode = "ILLEGAL_TRANSITION"
	KEY_UNAVAILABLE          ErrorCode = "KEY_UNAVAILABLE"
	INTEGRITY_MISMATCH       ErrorCode = "INTEGRITY_MISMATCH"
	PERSISTENCE_FAILED       ErrorCode = "PERSISTENCE_FAILED"
	TRANSPORT_FAILED         ErrorCode = "TRANSPORT_FAILED"
)

// Configuration error codes
const (
	CONFIG_LOAD_FAILED       ErrorCode = "CONFIG_LOAD_FAILED"
	CONFIG_PARSE_FAILED      ErrorCode = "CONFIG_PARSE_FAILED"
	CONFIG_VALIDATION_FAILED ErrorCode = "CONFIG_VALIDATION_FAILED"
)

// Cryptography error codes
const (
	CRYPTO_ENCRYPT_FAILED        ErrorCode = "CRYPTO_ENCRYPT_FAILED"
	CRYPTO_DECRYPT_FAILED        ErrorCode = "CRYPTO_DECRYPT_FAILED"
	CRYPTO_KEY_GENERATION_FAILED ErrorCode = "CRYPTO_KEY_GENERATION_FAILED"
)

// EgressError represents a structured error with error code, message, and optional cause.
// It supports error wrapping and retryability hints for error handling logic.
// Classification and integrity failures are never retryable; persistence and
// transport failures may be, at the caller's discretion.
type EgressError struct {
	Code      ErrorCode
	Message   string
	Retryable bool
	Cause     error
}

// Error implements the error interface, returning a formatted error message.
// Format: "[CODE] message" or "[CODE] message: cause" if cause exists.
func (e *EgressError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error for error unwrapping chains.
// This enables using errors.Is() and errors.As() with wrapped errors.
func (e *EgressError) Unwrap() error {
	return e.Cause
}

// Is checks if the target error matches this error by error code.
// Returns true if target is an EgressError with the same Code.
func (e *EgressError) Is(target error) bool {
	var egressErr *EgressError
	if errors.As(target, &egressErr) {
		return e.Code == egressErr.Code
	}
	return false
}

// NewError creates a new non-retryable EgressError with the given code and message.
func NewError(code ErrorCode, message string) *EgressError {
	return &EgressError{
		Code:      code,
		Message:   message,
		Retryable: false,
		Cause:     nil,
	}
}

// NewRetryableError creates a new retryable EgressError with the given code and message.
// Use this for transient errors that may succeed on retry (e.g., transport timeouts).
func NewRetryableError(code ErrorCode, message string) *EgressError {
	return &EgressError{
		Code:      code,
		Message:   message,
		Retryable: true,
		Cause:     nil,
	}
}

// WrapError creates a new non-retryable EgressError that wraps an existing error.
// The wrapped error is accessible via Unwrap() for error chain inspection.
func WrapError(code ErrorCode, message string, cause error) *EgressError {
	return &EgressError{
		Code:      code,
		Message:   message,
		Retryable: false,
		Cause:     cause,
	}
}

// WrapRetryableError creates a new retryable EgressError that wraps an existing error.
func WrapRetryableError(code ErrorCode, message string, cause error) *EgressError {
	return &EgressError{
		Code:      code,
		Message:   message,
		Retryable: true,
		Cause:     cause,
	}
}

// CodeOf extracts the ErrorCode from an error chain.
// Returns an empty code if the error is not an EgressError.
func CodeOf(err error) ErrorCode {
	var egressErr *EgressError
	if errors.As(err, &egressErr) {
		return egressErr.Code
	}
	return ""
}

// IsRetryable reports whether the error carries a retryable hint.
// Non-EgressError values are treated as non-retryable.
func IsRetryable(err error) bool {
	var egressErr *EgressError
	if errors.As(err, &egressErr) {
		return egressErr.Retryable
	}
	return false
}
