package store

import "errors"

var (
	// ErrNotFound is returned when a keyword or recommendation does not exist.
	ErrNotFound = errors.New("not found")

	// ErrTerminalStatus is returned when accepting or dismissing a
	// recommendation that already left the pending state.
	ErrTerminalStatus = errors.New("recommendation already in a terminal status")
)
