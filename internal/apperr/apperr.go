// Package apperr defines the closed error taxonomy used across the service
// layer. Repository failures are wrapped into one of these codes before they
// cross into services; callers map codes to transport-level behavior.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code categorizes an application error.
type Code string

const (
	// CodeValidation indicates malformed input or a stored record that
	// failed its schema round trip.
	CodeValidation Code = "validation"
	// CodeNotFound indicates an absent entity or mapping.
	CodeNotFound Code = "not_found"
	// CodeUnauthorized indicates a token that does not match the owner hash.
	CodeUnauthorized Code = "unauthorized"
	// CodeStorage indicates a failed call to the underlying store.
	CodeStorage Code = "storage"
)

// Error is a structured application error with a code, message, and optional
// cause. It supports errors.Is / errors.As through Unwrap.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// Validation creates a new validation error.
func Validation(message string) *Error {
	return &Error{Code: CodeValidation, Message: message}
}

// Validationf creates a new validation error with a formatted message.
func Validationf(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFound creates a new not-found error.
func NotFound(message string) *Error {
	return &Error{Code: CodeNotFound, Message: message}
}

// NotFoundf creates a new not-found error with a formatted message.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// Unauthorized creates a new unauthorized error.
func Unauthorized(message string) *Error {
	return &Error{Code: CodeUnauthorized, Message: message}
}

// Storage wraps an underlying store failure.
func Storage(message string, cause error) *Error {
	return &Error{Code: CodeStorage, Message: message, Cause: cause}
}

// Storagef wraps an underlying store failure with a formatted message.
func Storagef(cause error, format string, args ...any) *Error {
	return &Error{Code: CodeStorage, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// CodeOf extracts the taxonomy code from err. Errors outside the taxonomy
// are treated as storage failures.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeStorage
}

func IsValidation(err error) bool   { return err != nil && CodeOf(err) == CodeValidation }
func IsNotFound(err error) bool     { return err != nil && CodeOf(err) == CodeNotFound }
func IsUnauthorized(err error) bool { return err != nil && CodeOf(err) == CodeUnauthorized }
func IsStorage(err error) bool      { return err != nil && CodeOf(err) == CodeStorage }

// HTTPStatus maps a taxonomy code to an HTTP status code. The core never
// decides transport behavior; this lives here so every handler maps errors
// the same way.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnauthorized:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
