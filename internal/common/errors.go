// Package common defines shared constants and sentinel errors used across
// client and server layers of vidtube. Callers should use errors.Is to
// match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Request-level errors. The transport maps each kind to a status code.
	ErrValidation   = errors.New("validation error")
	ErrConflict     = errors.New("conflict")
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrDependency   = errors.New("dependency failure")

	// Service-level errors (generic/internal flow control).
	ErrInternal = errors.New("internal error")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired = fmt.Errorf("%w: token expired", ErrInvalidToken)
)

// Error pairs an error kind with a message that is safe to show to API
// clients. errors.Is(err, Kind) holds for every *Error.
type Error struct {
	Kind error
	Msg  string
}

// NewError returns an *Error of the given kind.
func NewError(kind error, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

// Errorf is NewError with a formatted message.
func Errorf(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// Message returns the client-facing message carried by err: the Msg of the
// first *Error in the chain, or the text of the kind otherwise.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return err.Error()
}

// IsAccessDenied reports whether err is the access guard rejecting the
// access token, as opposed to another 401 such as a wrong password.
func IsAccessDenied(err error) bool {
	if !errors.Is(err, ErrUnauthorized) {
		return false
	}
	switch Message(err) {
	case MsgUnauthorizedRequest, MsgInvalidAccessToken:
		return true
	}
	return false
}
