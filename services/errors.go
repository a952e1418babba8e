package services

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTarget is returned for self-swipes and empty user ids.
	ErrInvalidTarget = errors.New("invalid swipe target")

	// ErrInvalidAction is returned for unknown swipe actions.
	ErrInvalidAction = errors.New("invalid swipe action")

	// ErrInvalidStatus is returned for unknown match statuses.
	ErrInvalidStatus = errors.New("invalid match status")

	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("not found")

	// ErrModelUnavailable is returned by the learned scorer before a model is loaded.
	ErrModelUnavailable = errors.New("scoring model unavailable")
)

// TransientStoreError wraps a backend failure that the caller may retry.
type TransientStoreError struct {
	Op  string
	Err error
}

func (e *TransientStoreError) Error() string {
	return fmt.Sprintf("%s: store temporarily unavailable: %v", e.Op, e.Err)
}

func (e *TransientStoreError) Unwrap() error {
	return e.Err
}

// Retryable marks the error for callers that surface "try again".
func (e *TransientStoreError) Retryable() bool {
	return true
}

// IsRetryable reports whether err (or anything it wraps) is a transient store failure.
func IsRetryable(err error) bool {
	var transient *TransientStoreError
	return errors.As(err, &transient)
}

func transient(op string, err error) error {
	if err == nil || errors.Is(err, ErrNotFound) || IsRetryable(err) {
		return err
	}
	return &TransientStoreError{Op: op, Err: err}
}
