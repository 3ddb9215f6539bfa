// Package errors provides structured error handling with typed error codes.
//
// Error codes are organized into categories:
//   - General errors (1-99): Unknown and general errors
//   - Validation errors (100-199): Invalid parameters and configuration
//   - Transport errors (200-299): HTTP and push channel failures
//   - Payload errors (300-399): Backend payloads that fail schema validation
//   - Authorization errors (400-499): Rejected sessions
//   - Server errors (500-599): Domain errors reported by the backend
//   - Lifecycle errors (600-699): Sync client start/stop misuse
//   - Callback errors (800-899): Callback execution failures
//
// Usage:
//
//	// Create a new error
//	err := errors.New(errors.ErrCodeInvalidConfiguration, "base_url is required")
//
//	// Create a formatted error
//	err := errors.Newf(errors.ErrCodeFetchFailed, "unexpected status %d", status)
//
//	// Wrap an existing error
//	err := errors.Wrap(errors.ErrCodeTransport, "request failed", originalErr)
//
//	// Check error code
//	if errors.HasCode(err, errors.ErrCodeUnauthorized) { ... }
package errors

import (
	"errors"
	"fmt"
)

// Error represents a structured error with an error code and message.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// New creates a new Error with the given code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   nil,
	}
}

// Newf creates a new Error with the given code and formatted message.
func Newf(code ErrorCode, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   nil,
	}
}

// Wrap wraps an existing error with a new Error containing the given code and message.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Wrapf wraps an existing error with a new Error containing the given code and formatted message.
func Wrapf(code ErrorCode, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Cause)
	}

	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether any error in err's chain matches target.
// This is a convenience wrapper around the standard errors.Is function.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
// This is a convenience wrapper around the standard errors.As function.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// GetCode extracts the ErrorCode from an error if it's an *Error type.
// Returns ErrCodeUnknown if the error is not an *Error type.
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return ErrCodeUnknown
}

// HasCode checks if an error has a specific ErrorCode.
func HasCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// DisconnectError describes why a push channel connection ended.
type DisconnectError struct {
	CloseCode       int    // WebSocket close code, 0 when no close frame was received
	ServerInitiated bool   // True when the server deliberately closed the connection
	Message         string // Human-readable message
}

// NewDisconnectError creates a new DisconnectError.
func NewDisconnectError(closeCode int, serverInitiated bool, message string) *DisconnectError {
	return &DisconnectError{
		CloseCode:       closeCode,
		ServerInitiated: serverInitiated,
		Message:         message,
	}
}

// Error implements the error interface.
func (e *DisconnectError) Error() string {
	if e.CloseCode != 0 {
		return fmt.Sprintf("disconnected (close %d): %s", e.CloseCode, e.Message)
	}

	return "disconnected: " + e.Message
}

// IsServerDisconnect reports whether err is a DisconnectError initiated by the server.
// It uses errors.As to check the error chain.
func IsServerDisconnect(err error) bool {
	var disconnectErr *DisconnectError
	if errors.As(err, &disconnectErr) {
		return disconnectErr.ServerInitiated
	}

	return false
}
