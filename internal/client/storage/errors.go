package storage

import "errors"

// Common client storage errors
var (
	// ErrNotFound indicates that the requested item does not exist
	ErrNotFound = errors.New("not found")

	// ErrStorageClosed indicates that storage is closed
	ErrStorageClosed = errors.New("storage is closed")
)
