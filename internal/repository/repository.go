package repository

import (
	"context"
	"time"
)

// KV is the storefront's key-value store. It backs the session cart and
// wishlist mirror and the API response cache.
type KV interface {
	// Get returns the value stored under key, or an apperrors NotFound error.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key. A ttl of zero keeps the key until it is
	// deleted.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error

	// Tag records that key belongs to tag so DropTag can remove it later.
	Tag(ctx context.Context, tag, key string) error

	// DropTag removes every key recorded under tag and returns how many
	// were removed.
	DropTag(ctx context.Context, tag string) (int, error)

	// Ping checks the backend is reachable.
	Ping(ctx context.Context) error
}
