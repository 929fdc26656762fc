package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// mockCacheService is an in-memory CacheService that can be told to fail.
type mockCacheService struct {
	mu      sync.Mutex
	calls   []string
	storage map[string][]byte
	ttls    map[string]time.Duration
	err     error
}

func newMockCacheService() *mockCacheService {
	return &mockCacheService{
		storage: make(map[string][]byte),
		ttls:    make(map[string]time.Duration),
	}
}

func (m *mockCacheService) record(call string) {
	m.calls = append(m.calls, call)
}

func (m *mockCacheService) Get(ctx context.Context, region, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Get:" + region + ":" + key)
	if m.err != nil {
		return nil, false, m.err
	}
	v, ok := m.storage[region+"::"+key]
	return v, ok, nil
}

func (m *mockCacheService) Put(ctx context.Context, region, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Put:" + region + ":" + key)
	if m.err != nil {
		return m.err
	}
	m.storage[region+"::"+key] = value
	m.ttls[region+"::"+key] = ttl
	return nil
}

func (m *mockCacheService) Evict(ctx context.Context, region, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Evict:" + region + ":" + key)
	if m.err != nil {
		return m.err
	}
	delete(m.storage, region+"::"+key)
	return nil
}

func (m *mockCacheService) EvictAll(ctx context.Context, region string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("EvictAll:" + region)
	if m.err != nil {
		return m.err
	}
	prefix := region + "::"
	for k := range m.storage {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			delete(m.storage, k)
		}
	}
	return nil
}

type snapshot struct {
	ID    int64
	Name  string
	Tags  []string
	Taken time.Time
}

var testRegion = Region{Name: "users", TTL: time.Minute}

func TestLayer_StoreThenLookup(t *testing.T) {
	ctx := context.Background()
	backend := newMockCacheService()
	layer := NewLayer(backend)

	taken := time.Date(2024, 1, 2, 3, 4, 5, 6000, time.UTC)
	Store(ctx, layer, testRegion, "1", snapshot{ID: 1, Name: "alice", Tags: []string{"a"}, Taken: taken})

	got, ok := Lookup[snapshot](ctx, layer, testRegion, "1")
	if !ok {
		t.Fatal("expected cache hit after store")
	}
	if got.ID != 1 || got.Name != "alice" || len(got.Tags) != 1 || got.Tags[0] != "a" {
		t.Errorf("unexpected snapshot: %+v", got)
	}
	if !got.Taken.Equal(taken) {
		t.Errorf("expected time %v but got %v", taken, got.Taken)
	}
	if backend.ttls["users::1"] != time.Minute {
		t.Errorf("expected region ttl to be forwarded, got %v", backend.ttls["users::1"])
	}
}

func TestLayer_LookupReturnsIndependentCopies(t *testing.T) {
	ctx := context.Background()
	layer := NewLayer(newMockCacheService())

	Store(ctx, layer, testRegion, "1", snapshot{ID: 1, Tags: []string{"a"}})

	first, _ := Lookup[snapshot](ctx, layer, testRegion, "1")
	first.Tags[0] = "mutated"

	second, ok := Lookup[snapshot](ctx, layer, testRegion, "1")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if second.Tags[0] != "a" {
		t.Errorf("cached snapshot was mutated through a returned value: %v", second.Tags)
	}
}

func TestLayer_Miss(t *testing.T) {
	layer := NewLayer(newMockCacheService())

	if _, ok := Lookup[snapshot](context.Background(), layer, testRegion, "missing"); ok {
		t.Error("expected miss for unknown key")
	}
}

func TestLayer_BackendFailureIsAMiss(t *testing.T) {
	ctx := context.Background()
	backend := newMockCacheService()
	layer := NewLayer(backend)

	Store(ctx, layer, testRegion, "1", snapshot{ID: 1})
	backend.err = errors.New("connection refused")

	if _, ok := Lookup[snapshot](ctx, layer, testRegion, "1"); ok {
		t.Error("expected miss while backend is failing")
	}

	// None of these may panic or surface the error.
	Store(ctx, layer, testRegion, "2", snapshot{ID: 2})
	layer.Evict(ctx, testRegion, "1")
	layer.EvictAll(ctx, testRegion)
	layer.Reset(ctx, testRegion)
}

func TestLayer_UndecodableEntryIsEvicted(t *testing.T) {
	ctx := context.Background()
	backend := newMockCacheService()
	backend.storage["users::1"] = []byte{0xc1} // reserved msgpack code
	layer := NewLayer(backend)

	if _, ok := Lookup[snapshot](ctx, layer, testRegion, "1"); ok {
		t.Fatal("expected miss for undecodable entry")
	}
	if _, exists := backend.storage["users::1"]; exists {
		t.Error("expected undecodable entry to be evicted")
	}
}

func TestLayer_EvictAllOnlyTouchesRegion(t *testing.T) {
	ctx := context.Background()
	layer := NewLayer(newMockCacheService())
	lists := Region{Name: "userList", TTL: time.Minute}

	Store(ctx, layer, testRegion, "1", snapshot{ID: 1})
	Store(ctx, layer, lists, "0::10", []snapshot{{ID: 1}})

	layer.EvictAll(ctx, lists)

	if _, ok := Lookup[[]snapshot](ctx, layer, lists, "0::10"); ok {
		t.Error("expected list region to be empty")
	}
	if _, ok := Lookup[snapshot](ctx, layer, testRegion, "1"); !ok {
		t.Error("expected users region to be untouched")
	}
}

func TestLayer_NilBackend(t *testing.T) {
	ctx := context.Background()
	layer := NewLayer(nil)

	Store(ctx, layer, testRegion, "1", snapshot{ID: 1})
	if _, ok := Lookup[snapshot](ctx, layer, testRegion, "1"); ok {
		t.Error("expected nil backend to always miss")
	}
	layer.Evict(ctx, testRegion, "1")
	layer.EvictAll(ctx, testRegion)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "default", mutate: func(c *Config) {}},
		{name: "redis", mutate: func(c *Config) { c.Backend = BackendRedis }},
		{name: "unknown backend", mutate: func(c *Config) { c.Backend = "memcached" }, wantErr: true},
		{name: "zero capacity", mutate: func(c *Config) { c.Capacity = 0 }, wantErr: true},
		{name: "redis without addr", mutate: func(c *Config) { c.Backend = BackendRedis; c.RedisAddr = "" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewCacheService_Memory(t *testing.T) {
	backend, err := NewCacheService(DefaultConfig())
	if err != nil {
		t.Fatalf("expected no error but got: %v", err)
	}

	ctx := context.Background()
	layer := NewLayer(backend)
	Store(ctx, layer, testRegion, "7", snapshot{ID: 7})

	got, ok := Lookup[snapshot](ctx, layer, testRegion, "7")
	if !ok || got.ID != 7 {
		t.Errorf("expected hit with ID 7, got %+v (hit=%v)", got, ok)
	}
}
