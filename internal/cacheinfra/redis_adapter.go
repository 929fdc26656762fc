package cacheinfra

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig configures the shared redis backend.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int

	// Timeout bounds dialing, reads and writes. Default: 500ms
	Timeout time.Duration

	// ScanCount is the COUNT hint used when scanning a region for eviction.
	ScanCount int64
}

// DefaultRedisConfig returns a RedisConfig pointing at a local redis.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:      "localhost:6379",
		Timeout:   500 * time.Millisecond,
		ScanCount: 100,
	}
}

// Validate checks if the configuration values are valid.
func (c RedisConfig) Validate() error {
	if c.Addr == "" {
		return &ConfigError{Field: "Addr", Message: "must not be empty"}
	}
	if c.DB < 0 {
		return &ConfigError{Field: "DB", Message: "must be non-negative"}
	}
	if c.Timeout < 0 {
		return &ConfigError{Field: "Timeout", Message: "must be non-negative"}
	}
	if c.ScanCount < 0 {
		return &ConfigError{Field: "ScanCount", Message: "must be non-negative"}
	}
	return nil
}

// RedisService is a cache backend shared by every service instance that
// points at the same redis. Entries are stored under "region::key".
type RedisService struct {
	client    redis.UniversalClient
	scanCount int64
}

// NewRedisService builds a redis client from cfg. It does not dial; an
// unreachable redis only surfaces as per-call errors.
func NewRedisService(cfg RedisConfig) (*RedisService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultRedisConfig().Timeout
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	})

	return NewRedisServiceWithClient(client, cfg.ScanCount), nil
}

// NewRedisServiceWithClient wraps an existing client.
func NewRedisServiceWithClient(client redis.UniversalClient, scanCount int64) *RedisService {
	if scanCount <= 0 {
		scanCount = DefaultRedisConfig().ScanCount
	}
	return &RedisService{client: client, scanCount: scanCount}
}

func redisKey(region, key string) string {
	return region + "::" + key
}

// Get implements cache.CacheService.
func (s *RedisService) Get(ctx context.Context, region, key string) ([]byte, bool, error) {
	value, err := s.client.Get(ctx, redisKey(region, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// Put implements cache.CacheService.
func (s *RedisService) Put(ctx context.Context, region, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return ErrInvalidTTL
	}
	return s.client.Set(ctx, redisKey(region, key), value, ttl).Err()
}

// Evict implements cache.CacheService.
func (s *RedisService) Evict(ctx context.Context, region, key string) error {
	return s.client.Del(ctx, redisKey(region, key)).Err()
}

// EvictAll implements cache.CacheService. It walks the region with SCAN so
// large regions never block redis the way KEYS would. Keys are unlinked only
// after the scan completes, since deleting mid-scan can shift the cursor past
// keys that were never returned.
func (s *RedisService) EvictAll(ctx context.Context, region string) error {
	pattern := redisKey(region, "*")
	seen := make(map[string]struct{})
	var keys []string
	var cursor uint64

	for {
		batch, next, err := s.client.Scan(ctx, cursor, pattern, s.scanCount).Result()
		if err != nil {
			return err
		}
		for _, key := range batch {
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			keys = append(keys, key)
		}
		if next == 0 {
			break
		}
		cursor = next
	}

	step := int(s.scanCount)
	for start := 0; start < len(keys); start += step {
		end := min(start+step, len(keys))
		if err := s.client.Unlink(ctx, keys[start:end]...).Err(); err != nil {
			return err
		}
	}
	return nil
}

// Ping reports whether redis is reachable.
func (s *RedisService) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the underlying client.
func (s *RedisService) Close() error {
	return s.client.Close()
}
