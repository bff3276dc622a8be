package storage

import "errors"

// Storage errors shared by all backends.
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUniverseEmpty is returned when zero tickers match a universe
	// selector. Callers decide whether this is fatal.
	ErrUniverseEmpty = errors.New("universe empty: no tickers matched the selector")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
)
