// Package kv provides the durable key-value boundary the cart and order
// ledger persist through. Backends are interchangeable; a nil-error Set
// means the value is durably stored for that backend.
package kv

import "context"

// Store is the persistence surface consumed by the domain services.
type Store interface {
	// Get returns the stored value and whether the key was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set durably stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes the key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	Close() error
}

// Pinger exposes the health-check surface.
type Pinger interface {
	Ping(ctx context.Context) error
}
