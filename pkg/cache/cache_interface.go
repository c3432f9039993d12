package cache

import (
	"context"
	"time"
)

// Cache is the key/value contract used by the services.
// Values are JSON encoded by the implementation.
type Cache interface {
	// Get unmarshals the cached value into dest.
	// found is false on a miss and dest is left untouched.
	Get(ctx context.Context, key string, dest interface{}) (bool, error)

	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	Delete(ctx context.Context, keys ...string) error

	Ping(ctx context.Context) error

	// Counter helpers for failed login tracking.
	Increment(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
}
