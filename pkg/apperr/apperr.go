// Package apperr defines the error taxonomy shared by the workflows: client
// errors (bad input or failed precondition), not-found, remote store
// failures and relational failures. Handlers map these onto HTTP statuses;
// nothing else about transport leaks into the core packages.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the HTTP boundary.
type Kind int

const (
	KindClient Kind = iota
	KindNotFound
	KindStore
	KindPersistence
)

// Error is the single concrete error type used across the workflows.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// Client reports bad input or a violated precondition. Not retryable.
func Client(format string, args ...any) *Error {
	return &Error{Kind: KindClient, Message: fmt.Sprintf(format, args...)}
}

// NotFound reports a missing entity, asset or handle.
func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Store wraps a remote object store failure.
func Store(cause error, format string, args ...any) *Error {
	return &Error{Kind: KindStore, Message: fmt.Sprintf(format, args...), cause: cause}
}

// Persistence wraps a relational failure. The enclosing transaction rolls back.
func Persistence(cause error, format string, args ...any) *Error {
	return &Error{Kind: KindPersistence, Message: fmt.Sprintf(format, args...), cause: cause}
}

// KindOf returns the Kind of err, or KindPersistence for unclassified errors
// so that unknown failures never masquerade as client mistakes.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindPersistence
}

// IsClient reports whether err is a client error.
func IsClient(err error) bool { return is(err, KindClient) }

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool { return is(err, KindNotFound) }

// IsStore reports whether err is a remote store error.
func IsStore(err error) bool { return is(err, KindStore) }

func is(err error, k Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == k
}
