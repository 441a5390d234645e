// Package domainerrors defines the error vocabulary shared by services and the
// HTTP boundary. Every error that leaves a service carries a stable Code that
// clients can match on, plus a human message.
package domainerrors

import (
	"context"
	"errors"
	"fmt"
)

// Code is a stable, machine-checkable error identifier.
type Code string

const (
	CodeBadRequest         Code = "bad_request"
	CodeValidation         Code = "validation_error"
	CodeInvalidInput       Code = "invalid_input"
	CodeUnauthorized       Code = "unauthorized"
	CodeInvalidCredentials Code = "invalid_credentials"
	CodeTokenExpired       Code = "token_expired"
	CodeTokenMalformed     Code = "token_malformed"
	CodeForbidden          Code = "forbidden"
	CodeRoleNotPermitted   Code = "role_not_permitted"
	CodeCrossSectorDenied  Code = "cross_sector_denied"
	CodeAccountNotActive   Code = "account_not_active"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeAlreadyProcessed   Code = "already_processed"
	CodeInvariantViolation Code = "invariant_violation"
	CodeRateLimited        Code = "rate_limited"
	CodeTimeout            Code = "timeout"
	CodeInternal           Code = "internal_error"
)

// Error is a domain error. Err, when set, is the underlying cause and is never
// shown to clients.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a domain error without an underlying cause.
func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// Wrap attaches a code and message to err. A context deadline anywhere in the
// chain is reported as CodeTimeout so callers can retry.
func Wrap(err error, code Code, msg string) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		code = CodeTimeout
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// As extracts the outermost domain error from err.
func As(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// CodeOf returns the code of the outermost domain error, or CodeInternal.
func CodeOf(err error) Code {
	if de, ok := As(err); ok {
		return de.Code
	}
	return CodeInternal
}

// HasCode reports whether the outermost domain error in err carries code.
func HasCode(err error, code Code) bool {
	de, ok := As(err)
	return ok && de.Code == code
}

// Is is an alias of HasCode kept for readability at call sites.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// IsForbidden reports whether err is any authorization denial.
func IsForbidden(err error) bool {
	switch CodeOf(err) {
	case CodeForbidden, CodeRoleNotPermitted, CodeCrossSectorDenied:
		return true
	}
	return false
}
