// Package errs defines the error taxonomy shared by the mailbox core.
// The route layer maps kinds to HTTP status codes; the core only ever
// deals in kinds.
package errs

import (
	"errors"
	"fmt"
)

type Kind uint8

const (
	// KindUnknown is the zero value for errors that carry no kind.
	KindUnknown Kind = iota
	// KindAuth covers missing, invalid, or unrefreshable credentials.
	KindAuth
	// KindNotFound covers referenced threads or summaries that do not exist.
	KindNotFound
	// KindProvider covers network/API failures from the mailbox, AI, or
	// persistence collaborators.
	KindProvider
	// KindValidation covers missing required input, rejected before any
	// external call is made.
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindNotFound:
		return "not_found"
	case KindProvider:
		return "provider"
	case KindValidation:
		return "validation"
	default:
		return "unknown"
	}
}

// Error is a kinded error. It wraps an optional cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Authf builds an auth-kind error.
func Authf(format string, args ...any) *Error {
	return &Error{Kind: KindAuth, Msg: fmt.Sprintf(format, args...)}
}

// NotFoundf builds a not-found-kind error.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

// Providerf builds a provider-kind error.
func Providerf(format string, args ...any) *Error {
	return &Error{Kind: KindProvider, Msg: fmt.Sprintf(format, args...)}
}

// Validationf builds a validation-kind error.
func Validationf(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an existing error. A nil cause
// returns nil so call sites can wrap unconditionally.
func Wrap(kind Kind, err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the kind from an error chain. Errors without a kinded
// entry report KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether the error chain carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
