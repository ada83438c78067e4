// Package domainerrors defines coded domain errors shared across modules.
//
// Stores return infrastructure sentinels (pkg/platform/sentinel); services
// translate those into coded domain errors; handlers translate codes into
// HTTP statuses via httputil. Keeping the code set small and closed makes the
// error surface auditable.
package domainerrors

import (
	"errors"
	"net/http"
)

// Code identifies a class of domain error.
type Code string

const (
	// CodeInvalidInput covers malformed requests and malformed events
	// (missing required fields, out-of-range probabilities).
	CodeInvalidInput Code = "invalid_input"

	// CodeInsufficientData marks results that are not yet computable because
	// the window holds fewer qualifying events than the configured minimum.
	// Recoverable: callers surface it as a structured marker, never as a
	// fatal condition.
	CodeInsufficientData Code = "insufficient_data"

	// CodeInvalidConfig marks configuration that fails validation at
	// construction time. Fail fast; never limp along with a bad threshold.
	CodeInvalidConfig Code = "invalid_config"

	CodeNotFound Code = "not_found"
	CodeConflict Code = "conflict"
	CodeInternal Code = "internal_error"
)

// Error is a domain error carrying a code, a human-readable description, and
// an optional underlying cause.
type Error struct {
	Code        Code
	Description string
	cause       error
}

func (e *Error) Error() string {
	msg := string(e.Code)
	if e.Description != "" {
		msg += ": " + e.Description
	}
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.cause }

// New constructs a domain error with the given code and description.
func New(code Code, description string) error {
	return &Error{Code: code, Description: description}
}

// Wrap attaches a code to an underlying error, preserving the chain.
func Wrap(code Code, description string, err error) error {
	return &Error{Code: code, Description: description, cause: err}
}

// As extracts the *Error from err's chain, if any.
func As(err error) (*Error, bool) {
	var de *Error
	ok := errors.As(err, &de)
	return de, ok
}

// CodeOf extracts the domain error code from err, or CodeInternal when err is
// not a domain error.
func CodeOf(err error) Code {
	if de, ok := As(err); ok {
		return de.Code
	}
	return CodeInternal
}

// HasCode reports whether err carries the given domain error code.
func HasCode(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

// ToHTTPStatus maps a domain error code to an HTTP status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeInvalidInput:
		return http.StatusBadRequest
	case CodeInsufficientData:
		return http.StatusUnprocessableEntity
	case CodeInvalidConfig:
		return http.StatusInternalServerError
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
