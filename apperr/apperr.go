// Package apperr defines the errors services hand back to the HTTP layer. Each one
// carries the status code it is rendered with.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Fields maps a request field path such as "items.0.quantity" to its message.
type Fields map[string]string

type Error struct {
	Status  int
	Message string
	Fields  Fields
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}

func Validation(message string, fields Fields) *Error {
	return &Error{Status: http.StatusBadRequest, Message: message, Fields: fields}
}

func Unauthorized(message string) *Error {
	return New(http.StatusUnauthorized, message)
}

func Forbidden(message string) *Error {
	return New(http.StatusForbidden, message)
}

func NotFound(message string) *Error {
	return New(http.StatusNotFound, message)
}

func Conflict(message string) *Error {
	return New(http.StatusConflict, message)
}

func TooManyRequests(message string) *Error {
	return New(http.StatusTooManyRequests, message)
}

// Internal wraps an unexpected failure. Its cause is logged, never rendered.
func Internal(err error) *Error {
	return &Error{Status: http.StatusInternalServerError, Message: "Internal server error!", Err: err}
}

// From returns err as an *Error, wrapping anything unknown as Internal.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}

// StatusOf reports the status an error renders with.
func StatusOf(err error) int {
	return From(err).Status
}

// Add records a field message, allocating the map on first use.
func (f *Fields) Add(field, message string) {
	if *f == nil {
		*f = Fields{}
	}
	(*f)[field] = message
}
