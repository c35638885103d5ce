package storage

import "context"

// Store reads and writes string values by key.
type Store interface {
	// GetItem returns the value stored under key. ok is false when the key is absent.
	GetItem(ctx context.Context, key string) (value string, ok bool, err error)

	// SetItem stores value under key, replacing any existing value.
	SetItem(ctx context.Context, key, value string) error
}
