package cacheinfra

import (
	"context"
	"errors"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/viccon/sturdyc"
)

// Config holds the configuration for the sturdyc cache adapter.
// It encapsulates the core sturdyc options needed for cache initialization.
type Config struct {
	// Capacity defines the maximum number of entries each region can store.
	// Must be greater than 0.
	Capacity int

	// NumShards determines the number of cache shards for concurrent access.
	// Higher values improve concurrency but increase memory overhead.
	// Must be greater than 0. Default: 256
	NumShards int

	// EvictionPercentage specifies what percentage of entries to evict
	// when a region reaches its capacity. Must be between 1-100.
	// Default: 10 (evict 10% of entries)
	EvictionPercentage int

	// EvictionInterval sets how often the cache checks for expired entries.
	// Zero value uses the default interval.
	EvictionInterval time.Duration
}

// DefaultConfig returns a Config with sensible defaults for most use cases.
func DefaultConfig() Config {
	return Config{
		Capacity:           10000,
		NumShards:          256,
		EvictionPercentage: 10,
	}
}

// ToSturdycOptions converts the Config to sturdyc.Option slice.
// Capacity, NumShards and EvictionPercentage are passed directly to the
// sturdyc.New() constructor and are not included in the options.
func (c Config) ToSturdycOptions() []sturdyc.Option {
	var options []sturdyc.Option

	if c.EvictionInterval > 0 {
		options = append(options, sturdyc.WithEvictionInterval(c.EvictionInterval))
	}

	return options
}

// Validate checks if the configuration values are valid.
// Returns an error if any configuration parameter is invalid.
func (c Config) Validate() error {
	if c.Capacity <= 0 {
		return &ConfigError{Field: "Capacity", Message: "must be greater than 0"}
	}

	if c.NumShards <= 0 {
		return &ConfigError{Field: "NumShards", Message: "must be greater than 0"}
	}

	if c.EvictionPercentage < 1 || c.EvictionPercentage > 100 {
		return &ConfigError{Field: "EvictionPercentage", Message: "must be between 1 and 100"}
	}

	if c.EvictionInterval < 0 {
		return &ConfigError{Field: "EvictionInterval", Message: "must be non-negative"}
	}

	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "config error in field " + e.Field + ": " + e.Message
}

// ErrInvalidTTL is returned when a put carries a non-positive TTL.
var ErrInvalidTTL = errors.New("cacheinfra: ttl must be greater than 0")

// SturdycService is an in-process cache backend. sturdyc applies a single TTL
// per client, so every region gets its own client, created on the first put
// with that region's TTL.
type SturdycService struct {
	cfg     Config
	regions *xsync.MapOf[string, *sturdyc.Client[[]byte]]
}

// NewSturdycService creates a new sturdyc cache service adapter.
// It validates the configuration; region clients are created lazily.
//
// Version compatibility note: This implementation assumes sturdyc v1.x API.
func NewSturdycService(cfg Config) (*SturdycService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &SturdycService{
		cfg:     cfg,
		regions: xsync.NewMapOf[string, *sturdyc.Client[[]byte]](),
	}, nil
}

func (s *SturdycService) client(region string, ttl time.Duration) *sturdyc.Client[[]byte] {
	client, _ := s.regions.LoadOrCompute(region, func() *sturdyc.Client[[]byte] {
		return sturdyc.New[[]byte](
			s.cfg.Capacity,
			s.cfg.NumShards,
			ttl,
			s.cfg.EvictionPercentage,
			s.cfg.ToSturdycOptions()...,
		)
	})
	return client
}

// Get returns the entry for key, or false when the region was never written
// or the entry expired.
func (s *SturdycService) Get(ctx context.Context, region, key string) ([]byte, bool, error) {
	client, ok := s.regions.Load(region)
	if !ok {
		return nil, false, nil
	}
	value, ok := client.Get(key)
	return value, ok, nil
}

// Put stores value under key. The region's TTL is fixed by the first put
// that created the region client.
func (s *SturdycService) Put(ctx context.Context, region, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return ErrInvalidTTL
	}
	s.client(region, ttl).Set(key, value)
	return nil
}

// Evict removes a single entry from region.
func (s *SturdycService) Evict(ctx context.Context, region, key string) error {
	if client, ok := s.regions.Load(region); ok {
		client.Delete(key)
	}
	return nil
}

// EvictAll removes every entry from region.
func (s *SturdycService) EvictAll(ctx context.Context, region string) error {
	client, ok := s.regions.Load(region)
	if !ok {
		return nil
	}
	for _, key := range client.ScanKeys() {
		client.Delete(key)
	}
	return nil
}

// Size returns the number of live entries in region.
func (s *SturdycService) Size(region string) int {
	client, ok := s.regions.Load(region)
	if !ok {
		return 0
	}
	return client.Size()
}
