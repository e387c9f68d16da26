// Package errors provides the application error type shared by services,
// repositories and the HTTP layer. An Error carries an HTTP status code, a
// machine-readable reason and a human-readable message.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

const (
	// UnknownReason is the reason attached to errors that did not originate
	// from this package.
	UnknownReason = ""
	// UnknownMessage is the message surfaced for unknown internal errors so
	// that raw error details never leak to API callers.
	UnknownMessage = "internal server error"
)

// Error is the application error carried across layers.
type Error struct {
	Code     int               `json:"code"`
	Reason   string            `json:"reason"`
	Message  string            `json:"message"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("error: code = %d reason = %s message = %s", e.Code, e.Reason, e.Message)
}

// WithMetadata returns a copy of the error with the given metadata attached.
func (e *Error) WithMetadata(md map[string]string) *Error {
	err := *e
	err.Metadata = md
	return &err
}

// Is matches errors by code and reason so callers can use errors.Is with
// sentinel instances.
func (e *Error) Is(err error) bool {
	if se := new(Error); stderrors.As(err, &se) {
		return se.Code == e.Code && se.Reason == e.Reason
	}
	return false
}

// New creates an application error with the given HTTP status code, reason
// and message.
func New(code int, reason, message string) *Error {
	return &Error{Code: code, Reason: reason, Message: message}
}

// Newf is New with fmt.Sprintf formatting of the message.
func Newf(code int, reason, format string, args ...any) *Error {
	return New(code, reason, fmt.Sprintf(format, args...))
}

// FromError converts any error into an *Error. A nil error yields nil and an
// unknown error is wrapped as an opaque 500.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	if se := new(Error); stderrors.As(err, &se) {
		return se
	}
	return New(http.StatusInternalServerError, UnknownReason, UnknownMessage)
}

// Code returns the HTTP status code of an error, defaulting to 500 for
// unknown errors and 200 for nil.
func Code(err error) int {
	if err == nil {
		return http.StatusOK
	}
	return FromError(err).Code
}

// Reason returns the reason of an error, or UnknownReason.
func Reason(err error) string {
	if err == nil {
		return UnknownReason
	}
	return FromError(err).Reason
}

// BadRequest creates a 400 error.
func BadRequest(reason, message string) *Error {
	return New(http.StatusBadRequest, reason, message)
}

// Unauthorized creates a 401 error.
func Unauthorized(reason, message string) *Error {
	return New(http.StatusUnauthorized, reason, message)
}

// Forbidden creates a 403 error.
func Forbidden(reason, message string) *Error {
	return New(http.StatusForbidden, reason, message)
}

// NotFound creates a 404 error.
func NotFound(reason, message string) *Error {
	return New(http.StatusNotFound, reason, message)
}

// Conflict creates a 409 error.
func Conflict(reason, message string) *Error {
	return New(http.StatusConflict, reason, message)
}

// Internal creates a 500 error.
func Internal(reason, message string) *Error {
	return New(http.StatusInternalServerError, reason, message)
}

// BadGateway creates a 502 error, used for upstream provider failures.
func BadGateway(reason, message string) *Error {
	return New(http.StatusBadGateway, reason, message)
}

// IsNotFound reports whether err carries a 404 status.
func IsNotFound(err error) bool {
	return Code(err) == http.StatusNotFound
}
