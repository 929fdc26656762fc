// Package config loads and validates server config from the environment and an optional .env file using Viper.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/goliatone/go-user-cache/cache"
	"github.com/goliatone/go-user-cache/internal/logging"
	"github.com/goliatone/go-user-cache/internal/store"
	"github.com/goliatone/go-user-cache/internal/user"
)

// Config holds server configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP server listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// AppName is reported by /info.
	AppName string `mapstructure:"APP_NAME"`
	// Profile is the deployment mode (local, dev, prod). /dev/test is only mounted for local and dev.
	Profile string `mapstructure:"APP_PROFILE"`

	DatabaseDriver string `mapstructure:"DATABASE_DRIVER"`
	DatabaseURL    string `mapstructure:"DATABASE_URL"`

	// CacheBackend is memory (per process, sturdyc) or redis (shared).
	CacheBackend            string        `mapstructure:"CACHE_BACKEND"`
	CacheUsersTTL           time.Duration `mapstructure:"CACHE_USERS_TTL"`
	CacheUserListTTL        time.Duration `mapstructure:"CACHE_USER_LIST_TTL"`
	CacheListPageLimit      int           `mapstructure:"CACHE_LIST_PAGE_LIMIT"`
	CacheCapacity           int           `mapstructure:"CACHE_CAPACITY"`
	CacheNumShards          int           `mapstructure:"CACHE_NUM_SHARDS"`
	CacheEvictionPercentage int           `mapstructure:"CACHE_EVICTION_PERCENTAGE"`
	// CacheResetOnStart clears every cache region before serving.
	CacheResetOnStart bool `mapstructure:"CACHE_RESET_ON_START"`

	RedisAddr     string        `mapstructure:"REDIS_ADDR"`
	RedisPassword string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int           `mapstructure:"REDIS_DB"`
	RedisTimeout  time.Duration `mapstructure:"REDIS_TIMEOUT"`

	LogLevel string `mapstructure:"LOG_LEVEL"`
	LogDev   bool   `mapstructure:"LOG_DEV"`

	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Env vars override .env.
func Load() (*Config, error) {
	return load(".env")
}

func load(envFile string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(envFile)
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore missing file

	v.AutomaticEnv()

	cacheDefaults := cache.DefaultConfig()
	userDefaults := user.DefaultConfig()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("APP_NAME", "go-user-cache")
	v.SetDefault("APP_PROFILE", "local")
	v.SetDefault("DATABASE_DRIVER", store.DriverSQLite)
	v.SetDefault("DATABASE_URL", "file:users.db?_foreign_keys=on")
	v.SetDefault("CACHE_BACKEND", cacheDefaults.Backend)
	v.SetDefault("CACHE_USERS_TTL", userDefaults.UsersTTL)
	v.SetDefault("CACHE_USER_LIST_TTL", userDefaults.UserListTTL)
	v.SetDefault("CACHE_LIST_PAGE_LIMIT", userDefaults.ListPageLimit)
	v.SetDefault("CACHE_CAPACITY", cacheDefaults.Capacity)
	v.SetDefault("CACHE_NUM_SHARDS", cacheDefaults.NumShards)
	v.SetDefault("CACHE_EVICTION_PERCENTAGE", cacheDefaults.EvictionPercentage)
	v.SetDefault("CACHE_RESET_ON_START", true)
	v.SetDefault("REDIS_ADDR", cacheDefaults.RedisAddr)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_TIMEOUT", cacheDefaults.RedisTimeout)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_DEV", false)
	v.SetDefault("SHUTDOWN_TIMEOUT", 10*time.Second)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.HTTPAddr == "" {
		return errors.New("config: HTTP_ADDR must be set")
	}
	if err := c.Store().Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := c.Cache().Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.CacheUsersTTL <= 0 || c.CacheUserListTTL <= 0 {
		return errors.New("config: CACHE_USERS_TTL and CACHE_USER_LIST_TTL must be positive")
	}
	if c.CacheListPageLimit < 0 {
		return errors.New("config: CACHE_LIST_PAGE_LIMIT must not be negative")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("config: SHUTDOWN_TIMEOUT must be positive")
	}
	return nil
}

// DevEndpoints reports whether diagnostic endpoints are mounted.
func (c *Config) DevEndpoints() bool {
	return c.Profile == "local" || c.Profile == "dev"
}

// Store returns the database section.
func (c *Config) Store() store.Config {
	return store.Config{Driver: c.DatabaseDriver, DSN: c.DatabaseURL}
}

// Cache returns the cache backend section.
func (c *Config) Cache() cache.Config {
	cfg := cache.DefaultConfig()
	cfg.Backend = c.CacheBackend
	cfg.Capacity = c.CacheCapacity
	cfg.NumShards = c.CacheNumShards
	cfg.EvictionPercentage = c.CacheEvictionPercentage
	cfg.RedisAddr = c.RedisAddr
	cfg.RedisPassword = c.RedisPassword
	cfg.RedisDB = c.RedisDB
	cfg.RedisTimeout = c.RedisTimeout
	return cfg
}

// Users returns the cache policy section.
func (c *Config) Users() user.Config {
	return user.Config{
		UsersTTL:      c.CacheUsersTTL,
		UserListTTL:   c.CacheUserListTTL,
		ListPageLimit: c.CacheListPageLimit,
	}
}

// Logging returns the logger section.
func (c *Config) Logging() logging.Config {
	return logging.Config{Level: c.LogLevel, Dev: c.LogDev}
}
