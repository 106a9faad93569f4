package storage

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by Get when the key has never been written
	ErrNotFound = errors.New("storage: key not found")

	// ErrUnavailable marks a persistence layer that cannot be reached.
	// Callers log it and continue without persistence.
	ErrUnavailable = errors.New("storage: unavailable")
)

// Store is an asynchronous key -> blob persistent store
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

// Open creates the store named by driver ("memory", "file" or "sqlite")
func Open(driver, path string) (Store, error) {
	switch driver {
	case "", "memory":
		return NewMemoryStore(), nil
	case "file":
		return NewFileStore(path)
	case "sqlite":
		return NewSQLiteStore(path)
	default:
		return nil, errors.New("storage: unknown driver " + driver)
	}
}
