package cache

import (
	"context"
	"time"
)

// KeySerializer builds a cache key from an ordered list of key parts.
// It is responsible for producing stable keys across calls and processes.
type KeySerializer interface {
	SerializeKey(parts ...any) string
}

// CacheService is the backend contract the Layer talks to. Values are opaque
// encoded snapshots; backends never interpret them.
//
// Implementations are expected to be shared by every service instance that
// talks to the same backend, and to bound their own network calls.
type CacheService interface {
	// Get returns the stored value and true, or false when the key is absent or expired.
	Get(ctx context.Context, region, key string) ([]byte, bool, error)
	// Put replaces the entry for key with value. ttl must be positive.
	Put(ctx context.Context, region, key string, value []byte, ttl time.Duration) error
	// Evict removes a single entry. Evicting a missing key is not an error.
	Evict(ctx context.Context, region, key string) error
	// EvictAll removes every entry in region.
	EvictAll(ctx context.Context, region string) error
}

// Region is a named cache namespace with its own TTL.
type Region struct {
	Name string
	TTL  time.Duration
}

// String implements fmt.Stringer.
func (r Region) String() string {
	return r.Name
}
