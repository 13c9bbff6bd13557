package core

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is returned when input is rejected on the client before any request is made.
	ErrValidation = errors.New("validation error")
	// ErrUnauthorized is returned when the session is missing or no longer valid (401).
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden is returned when the action is not permitted on the resource (403).
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound is returned when the chat, message or user does not exist (404).
	ErrNotFound = errors.New("not found")
	// ErrBadRequest is returned when the backend rejects the request (400),
	// e.g. a duplicate contact or blocking yourself.
	ErrBadRequest = errors.New("bad request")
	// ErrServer is returned for 5xx and any status the operation does not expect.
	ErrServer = errors.New("server error")
	// ErrNetwork is returned when the request could not be sent or the response could not be read.
	ErrNetwork = errors.New("network error")
)

// Error is a classified failure with a message that can be shown to the user.
// The kind is one of the sentinel errors above and can be matched with errors.Is.
type Error struct {
	kind error
	msg  string
	// Status is the HTTP status code, or zero if no response was received.
	Status int
	// Detail is the raw response body returned by the backend, if any.
	Detail string
	cause  error
}

func NewError(kind error, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

func NewErrorf(kind error, format string, args ...interface{}) *Error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// NewValidationError returns an ErrValidation kind error with the given message.
func NewValidationError(msg string) *Error {
	return &Error{kind: ErrValidation, msg: msg}
}

// WithCause attaches the underlying error. It returns e for chaining.
func (e *Error) WithCause(err error) *Error {
	e.cause = err
	return e
}

func (e *Error) Error() string {
	return e.msg
}

func (e *Error) Kind() error {
	return e.kind
}

func (e *Error) Is(target error) bool {
	return target == e.kind
}

func (e *Error) Unwrap() error {
	return e.cause
}

// ErrorMessage returns the user facing message of err.
// Unclassified errors get a generic message so internals are not shown to the user.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.msg
	}
	return "Something went wrong. Please try again."
}
