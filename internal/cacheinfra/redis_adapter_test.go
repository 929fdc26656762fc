package cacheinfra

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*RedisService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	svc, err := NewRedisService(RedisConfig{Addr: mr.Addr(), Timeout: time.Second})
	if err != nil {
		t.Fatalf("failed to create redis service: %v", err)
	}
	t.Cleanup(func() { _ = svc.Close() })
	return svc, mr
}

func TestRedisConfig_Validate(t *testing.T) {
	if err := DefaultRedisConfig().Validate(); err != nil {
		t.Errorf("expected default config to be valid, got %v", err)
	}

	var cfgErr *ConfigError
	if err := (RedisConfig{}).Validate(); !errors.As(err, &cfgErr) || cfgErr.Field != "Addr" {
		t.Errorf("expected Addr config error, got %v", err)
	}
	if err := (RedisConfig{Addr: "x:1", DB: -1}).Validate(); !errors.As(err, &cfgErr) || cfgErr.Field != "DB" {
		t.Errorf("expected DB config error, got %v", err)
	}
}

func TestRedisService_PutGet(t *testing.T) {
	ctx := context.Background()
	svc, mr := newTestRedis(t)

	if _, ok, err := svc.Get(ctx, "users", "1"); ok || err != nil {
		t.Fatalf("expected clean miss, got hit=%v err=%v", ok, err)
	}

	if err := svc.Put(ctx, "users", "1", []byte("alice"), time.Minute); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, ok, err := svc.Get(ctx, "users", "1")
	if err != nil || !ok {
		t.Fatalf("expected hit, got hit=%v err=%v", ok, err)
	}
	if string(got) != "alice" {
		t.Errorf("expected alice but got %q", got)
	}

	if !mr.Exists("users::1") {
		t.Error("expected entry to be stored under region::key")
	}
	if ttl := mr.TTL("users::1"); ttl != time.Minute {
		t.Errorf("expected ttl of 1m, got %v", ttl)
	}
}

func TestRedisService_TTLExpiry(t *testing.T) {
	ctx := context.Background()
	svc, mr := newTestRedis(t)

	_ = svc.Put(ctx, "users", "1", []byte("a"), time.Minute)
	mr.FastForward(61 * time.Second)

	if _, ok, _ := svc.Get(ctx, "users", "1"); ok {
		t.Error("expected miss after ttl")
	}
}

func TestRedisService_InvalidTTL(t *testing.T) {
	svc, _ := newTestRedis(t)
	if err := svc.Put(context.Background(), "users", "1", []byte("x"), 0); !errors.Is(err, ErrInvalidTTL) {
		t.Errorf("expected ErrInvalidTTL but got: %v", err)
	}
}

func TestRedisService_Evict(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestRedis(t)

	_ = svc.Put(ctx, "users", "1", []byte("a"), time.Minute)
	if err := svc.Evict(ctx, "users", "1"); err != nil {
		t.Fatalf("Evict failed: %v", err)
	}
	if _, ok, _ := svc.Get(ctx, "users", "1"); ok {
		t.Error("expected evicted key to miss")
	}
	if err := svc.Evict(ctx, "users", "missing"); err != nil {
		t.Errorf("expected evicting a missing key to succeed, got %v", err)
	}
}

func TestRedisService_EvictAll(t *testing.T) {
	ctx := context.Background()
	svc, mr := newTestRedis(t)
	svc.scanCount = 3 // force several SCAN iterations

	for i := 0; i < 12; i++ {
		_ = svc.Put(ctx, "userList", fmt.Sprintf("%d::10::createdAt: DESC", i), []byte("page"), time.Minute)
	}
	_ = svc.Put(ctx, "users", "1", []byte("a"), time.Minute)

	if err := svc.EvictAll(ctx, "userList"); err != nil {
		t.Fatalf("EvictAll failed: %v", err)
	}

	keys := mr.Keys()
	if len(keys) != 1 || keys[0] != "users::1" {
		t.Errorf("expected only users::1 to remain, got %v", keys)
	}
}

func TestRedisService_EvictAllLargeRegion(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	svc, err := NewRedisService(RedisConfig{Addr: mr.Addr()})
	if err != nil {
		t.Fatalf("NewRedisService failed: %v", err)
	}
	t.Cleanup(func() { _ = svc.Close() })

	for i := 0; i < 250; i++ {
		if err := svc.Put(ctx, "userList", fmt.Sprintf("%d::10::createdAt: DESC", i), []byte("page"), time.Minute); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	if err := svc.EvictAll(ctx, "userList"); err != nil {
		t.Fatalf("EvictAll failed: %v", err)
	}
	if keys := mr.Keys(); len(keys) != 0 {
		t.Errorf("expected an empty region, %d entries survived", len(keys))
	}
}

func TestRedisService_Unavailable(t *testing.T) {
	ctx := context.Background()
	svc, mr := newTestRedis(t)
	mr.Close()

	if _, _, err := svc.Get(ctx, "users", "1"); err == nil {
		t.Error("expected error from unreachable redis")
	}
	if err := svc.Put(ctx, "users", "1", []byte("a"), time.Minute); err == nil {
		t.Error("expected error from unreachable redis")
	}
	if err := svc.Ping(ctx); err == nil {
		t.Error("expected ping to fail")
	}
}

func TestNewRedisServiceWithClient(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	svc := NewRedisServiceWithClient(client, 0)
	t.Cleanup(func() { _ = svc.Close() })

	if svc.scanCount != DefaultRedisConfig().ScanCount {
		t.Errorf("expected default scan count, got %d", svc.scanCount)
	}
	if err := svc.Ping(context.Background()); err != nil {
		t.Errorf("expected ping to succeed, got %v", err)
	}
}
