// Package apperr defines the error kinds shared by stores, services and
// handlers. Handlers map them to HTTP status codes in package response.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrUpstream     = errors.New("upstream failure")
)

type kindError struct {
	kind error
	msg  string
	err  error
}

func (e *kindError) Error() string {
	switch {
	case e.msg != "":
		return e.msg
	case e.err != nil:
		return e.err.Error()
	default:
		return e.kind.Error()
	}
}

func (e *kindError) Is(target error) bool { return target == e.kind }

func (e *kindError) Unwrap() error { return e.err }

// Validation reports a missing or malformed input field.
func Validation(msg string) error {
	return &kindError{kind: ErrValidation, msg: msg}
}

// Validationf is Validation with formatting.
func Validationf(format string, args ...interface{}) error {
	return Validation(fmt.Sprintf(format, args...))
}

// NotFound reports a missing record with a caller-facing message.
func NotFound(msg string) error {
	return &kindError{kind: ErrNotFound, msg: msg}
}

// Forbidden reports an ownership or role violation.
func Forbidden(msg string) error {
	return &kindError{kind: ErrForbidden, msg: msg}
}

// Conflict reports a write that clashes with existing data.
func Conflict(msg string) error {
	return &kindError{kind: ErrConflict, msg: msg}
}

// Unauthorized reports a missing or invalid session.
func Unauthorized(msg string) error {
	return &kindError{kind: ErrUnauthorized, msg: msg}
}

// Upstream wraps a failure from the store or a third-party API. The original
// message is preserved for the client.
func Upstream(err error) error {
	if err == nil {
		return nil
	}
	var ke *kindError
	if errors.As(err, &ke) {
		return err
	}
	return &kindError{kind: ErrUpstream, err: err}
}
