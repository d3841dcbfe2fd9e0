// Package apperrors defines the error taxonomy shared by services and handlers.
//
// Services return *Error values (or wrap them with %w); the HTTP layer maps the
// Code onto a status and renders the error as JSON.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a machine-readable error code.
type Code string

const (
	CodeValidation         Code = "VALIDATION"
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
	CodeUnauthorized       Code = "UNAUTHORIZED"
	CodeNotFound           Code = "NOT_FOUND"
	CodeMethodNotAllowed   Code = "METHOD_NOT_ALLOWED"
	CodeInternal           Code = "INTERNAL"
)

// HTTPStatus returns the HTTP status for the code.
// Bad credentials are a 400, not a 401: the request itself was malformed.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeValidation, CodeInvalidCredentials:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeNotFound:
		return http.StatusNotFound
	case CodeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	default:
		return http.StatusInternalServerError
	}
}

// Error is a domain error with a code, a client-safe message and optional details.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches any *Error carrying the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus returns the HTTP status for this error.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// Sentinels for errors.Is checks.
var (
	ErrValidation         = &Error{Code: CodeValidation}
	ErrInvalidCredentials = &Error{Code: CodeInvalidCredentials}
	ErrUnauthorized       = &Error{Code: CodeUnauthorized}
	ErrNotFound           = &Error{Code: CodeNotFound}
)

// Validation reports malformed input. fields maps a JSON field name to its message.
func Validation(message string, fields map[string]string) *Error {
	e := &Error{Code: CodeValidation, Message: message}
	if len(fields) > 0 {
		e.Details = fields
	}
	return e
}

// FieldError is a Validation error for a single field.
func FieldError(field, message string) *Error {
	return Validation("validation failed", map[string]string{field: message})
}

// InvalidCredentials reports a failed login without saying which part was wrong.
func InvalidCredentials() *Error {
	return &Error{Code: CodeInvalidCredentials, Message: "unable to authenticate with provided credentials"}
}

func Unauthorized(message string) *Error {
	return &Error{Code: CodeUnauthorized, Message: message}
}

// NotFound is also returned for records owned by someone else.
func NotFound(resource string) *Error {
	return &Error{Code: CodeNotFound, Message: resource + " not found"}
}

func MethodNotAllowed(method string) *Error {
	return &Error{Code: CodeMethodNotAllowed, Message: fmt.Sprintf("method %q not allowed", method)}
}

// Internal wraps an unexpected failure. The cause is kept for logs only.
func Internal(message string, cause error) *Error {
	return &Error{Code: CodeInternal, Message: message, cause: cause}
}

// Wrap attaches a cause to a copy of e.
func (e *Error) Wrap(cause error) *Error {
	return &Error{Code: e.Code, Message: e.Message, Details: e.Details, cause: cause}
}

// CodeOf extracts the code of err, or CodeInternal when err is not an *Error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}
