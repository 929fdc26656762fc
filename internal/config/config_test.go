package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func missingEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "absent.env")
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(missingEnvFile(t))
	if err != nil {
		t.Fatalf("expected defaults to load, got %v", err)
	}

	if cfg.HTTPAddr != ":8080" {
		t.Errorf("expected :8080, got %s", cfg.HTTPAddr)
	}
	if cfg.CacheBackend != "memory" {
		t.Errorf("expected memory backend, got %s", cfg.CacheBackend)
	}
	if cfg.CacheUsersTTL != time.Minute || cfg.CacheUserListTTL != time.Minute {
		t.Errorf("expected 1m ttls, got %v / %v", cfg.CacheUsersTTL, cfg.CacheUserListTTL)
	}
	if cfg.CacheListPageLimit != 5 {
		t.Errorf("expected page limit 5, got %d", cfg.CacheListPageLimit)
	}
	if !cfg.DevEndpoints() {
		t.Error("expected local profile to enable dev endpoints")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("CACHE_BACKEND", "redis")
	t.Setenv("REDIS_ADDR", "cache:6379")
	t.Setenv("CACHE_USERS_TTL", "30s")
	t.Setenv("APP_PROFILE", "prod")

	cfg, err := load(missingEnvFile(t))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.HTTPAddr != ":9090" {
		t.Errorf("expected :9090, got %s", cfg.HTTPAddr)
	}
	if got := cfg.Cache(); got.Backend != "redis" || got.RedisAddr != "cache:6379" {
		t.Errorf("expected redis backend at cache:6379, got %+v", got)
	}
	if got := cfg.Users().UsersTTL; got != 30*time.Second {
		t.Errorf("expected 30s, got %v", got)
	}
	if cfg.DevEndpoints() {
		t.Error("expected prod profile to hide dev endpoints")
	}
}

func TestLoad_DotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "APP_NAME=user-api\nCACHE_LIST_PAGE_LIMIT=3\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}
	t.Setenv("APP_NAME", "from-env")

	cfg, err := load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.CacheListPageLimit != 3 {
		t.Errorf("expected .env value 3, got %d", cfg.CacheListPageLimit)
	}
	if cfg.AppName != "from-env" {
		t.Errorf("expected environment to win over .env, got %s", cfg.AppName)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "unknown backend", key: "CACHE_BACKEND", val: "memcached"},
		{name: "unknown driver", key: "DATABASE_DRIVER", val: "oracle"},
		{name: "zero ttl", key: "CACHE_USER_LIST_TTL", val: "0s"},
		{name: "negative page limit", key: "CACHE_LIST_PAGE_LIMIT", val: "-1"},
		{name: "bad shards", key: "CACHE_NUM_SHARDS", val: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			if _, err := load(missingEnvFile(t)); err == nil {
				t.Errorf("expected %s=%s to be rejected", tt.key, tt.val)
			}
		})
	}
}
