package cache

import (
	"fmt"
	"time"

	"github.com/goliatone/go-user-cache/internal/cacheinfra"
)

// Backend names accepted by Config.Backend.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config exposes cache configuration options for consumers of the cache package.
type Config struct {
	Backend string

	// memory backend
	Capacity           int
	NumShards          int
	EvictionPercentage int
	EvictionInterval   time.Duration

	// redis backend
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisTimeout  time.Duration
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() Config {
	mem := cacheinfra.DefaultConfig()
	rds := cacheinfra.DefaultRedisConfig()
	return Config{
		Backend:            BackendMemory,
		Capacity:           mem.Capacity,
		NumShards:          mem.NumShards,
		EvictionPercentage: mem.EvictionPercentage,
		EvictionInterval:   mem.EvictionInterval,
		RedisAddr:          rds.Addr,
		RedisTimeout:       rds.Timeout,
	}
}

// Validate checks whether the configuration values are valid.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendMemory:
		return c.memoryConfig().Validate()
	case BackendRedis:
		return c.redisConfig().Validate()
	default:
		return fmt.Errorf("cache: unknown backend %q", c.Backend)
	}
}

// NewCacheService constructs the backend selected by cfg.Backend.
func NewCacheService(cfg Config) (CacheService, error) {
	switch cfg.Backend {
	case BackendMemory:
		return cacheinfra.NewSturdycService(cfg.memoryConfig())
	case BackendRedis:
		return cacheinfra.NewRedisService(cfg.redisConfig())
	default:
		return nil, fmt.Errorf("cache: unknown backend %q", cfg.Backend)
	}
}

func (c Config) memoryConfig() cacheinfra.Config {
	return cacheinfra.Config{
		Capacity:           c.Capacity,
		NumShards:          c.NumShards,
		EvictionPercentage: c.EvictionPercentage,
		EvictionInterval:   c.EvictionInterval,
	}
}

func (c Config) redisConfig() cacheinfra.RedisConfig {
	return cacheinfra.RedisConfig{
		Addr:      c.RedisAddr,
		Password:  c.RedisPassword,
		DB:        c.RedisDB,
		Timeout:   c.RedisTimeout,
		ScanCount: cacheinfra.DefaultRedisConfig().ScanCount,
	}
}
