package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error so callers can decide how to surface or retry it.
type Kind int

const (
	// Internal is reported for errors that did not originate from this package.
	Internal Kind = iota
	// Validation means the input was outside length or format constraints.
	Validation
	// NotFound means a referenced id, slug or handle does not exist.
	NotFound
	// Forbidden means the requester does not own the entity.
	Forbidden
	// Conflict means a uniqueness constraint (slug, username, email) was violated.
	Conflict
	// Storage is a backing-store failure; callers may retry with backoff.
	Storage
	// Unauthorized means the operation needs an authenticated viewer.
	Unauthorized
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case NotFound:
		return "not_found"
	case Forbidden:
		return "forbidden"
	case Conflict:
		return "conflict"
	case Storage:
		return "storage"
	case Unauthorized:
		return "unauthorized"
	default:
		return "internal"
	}
}

// Error is the error type returned by every core operation.
type Error struct {
	Kind    Kind
	Message string
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

// New creates an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap attaches a kind and message to an underlying error.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or Internal.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return Internal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
