// Package apperr carries an error kind from the domain layer to whichever
// boundary (HTTP, gRPC) has to turn it into a status code.
package apperr

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type Kind uint8

const (
	KindInternal Kind = iota
	KindNotFound
	KindInvalidArgument
	KindConflict
	KindUnauthorized
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindInvalidArgument:
		return "invalid_argument"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "internal_error"
	}
}

// Error is a message tagged with a Kind. Compare with errors.Is against the
// package-level sentinels, or use KindOf on any wrapped chain.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap tags err with kind while keeping it reachable through errors.Unwrap.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, cause: err}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// GRPCStatus lets status.FromError map the kind without a translation table at
// every gRPC call site.
func (e *Error) GRPCStatus() *status.Status {
	return status.New(e.Code(), e.Message)
}

func (e *Error) Code() codes.Code {
	switch e.Kind {
	case KindNotFound:
		return codes.NotFound
	case KindInvalidArgument:
		return codes.InvalidArgument
	case KindConflict:
		return codes.AlreadyExists
	case KindUnauthorized:
		return codes.Unauthenticated
	default:
		return codes.Internal
	}
}

// KindOf returns the kind of the first *Error in err's chain, KindInternal otherwise.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns the caller-facing message. Internal errors never leak
// their cause.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Message
	}
	return "internal server error"
}

func IsNotFound(err error) bool     { return KindOf(err) == KindNotFound }
func IsConflict(err error) bool     { return KindOf(err) == KindConflict }
func IsUnauthorized(err error) bool { return KindOf(err) == KindUnauthorized }
func IsInvalid(err error) bool      { return KindOf(err) == KindInvalidArgument }
