package services

import (
	"errors"
	"fmt"

	"github.com/baharkarakas/qrpay-backend/internal/models"
)

// Error is a business error carrying a code the API layer maps to a status.
type Error struct {
	Err     error
	Message string
	Code    string
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *Error) Unwrap() error {
	return e.Err
}

const (
	CodeInvalidInput = "invalid_input"
	CodeNotFound     = "not_found"
	CodeForbidden    = "forbidden"
	CodeConflict     = "conflict"
	CodeInternal     = "internal_error"
)

func invalid(msg string) error { return &Error{Code: CodeInvalidInput, Message: msg} }

func notFound(msg string) error { return &Error{Code: CodeNotFound, Message: msg} }

func forbidden(msg string) error { return &Error{Code: CodeForbidden, Message: msg} }

func conflict(msg string, err error) error {
	return &Error{Code: CodeConflict, Message: msg, Err: err}
}

func internal(msg string, err error) error {
	return &Error{Code: CodeInternal, Message: msg, Err: err}
}

// CodeOf extracts the code of a service error, CodeInternal otherwise.
func CodeOf(err error) string {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Code
	}
	return CodeInternal
}

// lookupErr turns a repository miss into a not-found error and anything else
// into an internal one.
func lookupErr(what string, err error) error {
	if errors.Is(err, models.ErrNotFound) {
		return notFound(what + " not found")
	}
	return internal("failed to load "+what, err)
}
