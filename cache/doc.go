// Package cache provides the regioned cache layer that sits in front of the user store.
//
// # Overview
//
// The package exports:
//
//   - CacheService: the byte-level backend contract (get, put, evict, evict all)
//   - Region: a named namespace with its own TTL
//   - Layer: a CacheService front that applies the failure policy
//   - Lookup / Store: type-safe generic helpers around a Layer
//   - KeySerializer: builds stable cache keys from ordered key parts
//
// Two backends are available through NewCacheService: an in-process sturdyc
// backend (BackendMemory) and a shared redis backend (BackendRedis).
//
// # Basic Usage
//
//	backend, err := cache.NewCacheService(cache.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	layer := cache.NewLayer(backend, cache.WithLogger(logger))
//
//	users := cache.Region{Name: "users", TTL: time.Minute}
//	if snapshot, ok := cache.Lookup[UserResponse](ctx, layer, users, "42"); ok {
//		return snapshot, nil
//	}
//	...
//	cache.Store(ctx, layer, users, "42", fresh)
//
// # Failure Policy
//
// A Layer never fails the caller. A backend error on read is logged and
// treated as a miss, so the caller falls back to the source of truth. A
// backend error on put or evict is logged and dropped; stale entries then
// expire with their region TTL.
//
// # Snapshots
//
// Values are encoded with msgpack on Store and decoded into a fresh value on
// Lookup. An entry is therefore an immutable snapshot: it is only ever
// replaced or evicted as a whole.
//
// # Key Serialization Strategy
//
// The default key serializer joins its parts with KeySeparator:
//
//   - fmt.Stringer values: their String() form
//   - Basic types: Direct string representation
//   - Slices/arrays: Recursive serialization of elements
//   - Maps: Sorted key-value pairs for deterministic output
//   - Structs: Exported fields with name:value pairs
//   - Functions and channels: a type marker only, since pointers differ per process
//   - Anything else: JSON fallback
package cache
