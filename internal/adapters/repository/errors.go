package repository

import "errors"

// Sentinel kinds for storage errors.
var (
	ErrNotFound      = errors.New("snapshot not found")
	ErrInvalidKey    = errors.New("invalid storage key")
	ErrStorageClosed = errors.New("storage closed")
	ErrUnknownDriver = errors.New("unknown storage driver")
)
