// Package kv provides the small key-value persistence contract used for
// per-device progress envelopes, with in-memory, PostgreSQL, and embedded
// SQLite implementations.
package kv

import "context"

// Store is a synchronous string key-value store. All writes are fallible:
// capacity limits, closed connections, and read-only deployments surface as
// errors, never panics.
type Store interface {
	// Get returns the value for key and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key, replacing any existing value.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys returns all keys with the given prefix, in unspecified order.
	Keys(ctx context.Context, prefix string) ([]string, error)
}
