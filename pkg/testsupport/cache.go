package testsupport

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/goliatone/go-user-cache/cache"
)

// ErrCacheDown is returned by FailingCache for every operation.
var ErrCacheDown = errors.New("cache backend unavailable")

// FailingCache simulates an unreachable cache backend.
type FailingCache struct{}

func (FailingCache) Get(context.Context, string, string) ([]byte, bool, error) {
	return nil, false, ErrCacheDown
}

func (FailingCache) Put(context.Context, string, string, []byte, time.Duration) error {
	return ErrCacheDown
}

func (FailingCache) Evict(context.Context, string, string) error {
	return ErrCacheDown
}

func (FailingCache) EvictAll(context.Context, string) error {
	return ErrCacheDown
}

// RecordingCache wraps a backend and counts operations per region.
type RecordingCache struct {
	cache.CacheService

	mu     sync.Mutex
	hits   map[string]int
	misses map[string]int
	puts   map[string]int
	evicts map[string]int
}

// NewRecordingCache wraps backend.
func NewRecordingCache(backend cache.CacheService) *RecordingCache {
	return &RecordingCache{
		CacheService: backend,
		hits:         make(map[string]int),
		misses:       make(map[string]int),
		puts:         make(map[string]int),
		evicts:       make(map[string]int),
	}
}

func (r *RecordingCache) Get(ctx context.Context, region, key string) ([]byte, bool, error) {
	data, ok, err := r.CacheService.Get(ctx, region, key)
	r.mu.Lock()
	if ok {
		r.hits[region]++
	} else {
		r.misses[region]++
	}
	r.mu.Unlock()
	return data, ok, err
}

func (r *RecordingCache) Put(ctx context.Context, region, key string, value []byte, ttl time.Duration) error {
	r.mu.Lock()
	r.puts[region]++
	r.mu.Unlock()
	return r.CacheService.Put(ctx, region, key, value, ttl)
}

func (r *RecordingCache) Evict(ctx context.Context, region, key string) error {
	r.mu.Lock()
	r.evicts[region]++
	r.mu.Unlock()
	return r.CacheService.Evict(ctx, region, key)
}

func (r *RecordingCache) EvictAll(ctx context.Context, region string) error {
	r.mu.Lock()
	r.evicts[region]++
	r.mu.Unlock()
	return r.CacheService.EvictAll(ctx, region)
}

// Hits returns the number of Get hits in region.
func (r *RecordingCache) Hits(region string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hits[region]
}

// Misses returns the number of Get misses in region.
func (r *RecordingCache) Misses(region string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.misses[region]
}

// Puts returns the number of Put calls in region.
func (r *RecordingCache) Puts(region string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.puts[region]
}

// Evicts returns the number of Evict and EvictAll calls in region.
func (r *RecordingCache) Evicts(region string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.evicts[region]
}

var (
	_ cache.CacheService = FailingCache{}
	_ cache.CacheService = (*RecordingCache)(nil)
)
