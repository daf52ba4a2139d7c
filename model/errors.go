package model

import "errors"

var (
	// ErrInvalidInput is returned when saving an empty or blank command.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidOrdinal is returned when an ordinal is non-numeric or outside 1..N.
	ErrInvalidOrdinal = errors.New("invalid ordinal")

	// ErrMalformedSelection is returned when picker output has no ordinal field.
	ErrMalformedSelection = errors.New("malformed selection")

	// ErrNotFound is returned when a mutation targets an id that no longer exists.
	ErrNotFound = errors.New("not found")

	// ErrStorage wraps I/O, corruption and exhausted-retry failures.
	ErrStorage = errors.New("storage error")

	// ErrAborted is returned when the user declines to run a command.
	ErrAborted = errors.New("aborted")
)
