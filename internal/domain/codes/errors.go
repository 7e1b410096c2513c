package codes

import "errors"

var (
	// ErrNotFound is returned when no record exists for the requested code.
	ErrNotFound = errors.New("code not found")

	// ErrNotReady is returned for queries issued before the index has been
	// loaded, so callers can distinguish "no data" from "not initialized".
	ErrNotReady = errors.New("code index not ready")
)
