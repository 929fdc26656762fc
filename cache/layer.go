package cache

import (
	"context"

	"go.uber.org/zap"
)

// Layer fronts a CacheService with the failure policy: backend errors are
// logged and degrade into misses or no-ops, never into request failures.
// The store remains the source of truth.
type Layer struct {
	backend CacheService
	codec   Codec
	logger  *zap.Logger
}

// Option configures a Layer.
type Option func(*Layer)

// WithCodec overrides the default msgpack codec.
func WithCodec(codec Codec) Option {
	return func(l *Layer) {
		if codec != nil {
			l.codec = codec
		}
	}
}

// WithLogger sets the logger used to report backend failures.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Layer) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLayer wraps backend. A nil backend yields a layer where every lookup misses.
func NewLayer(backend CacheService, opts ...Option) *Layer {
	l := &Layer{
		backend: backend,
		codec:   NewMsgpackCodec(),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Lookup returns the snapshot stored under key in region. Any backend or
// decode failure is reported as a miss.
func Lookup[T any](ctx context.Context, l *Layer, region Region, key string) (T, bool) {
	var zero T
	if l == nil || l.backend == nil {
		return zero, false
	}

	data, ok, err := l.backend.Get(ctx, region.Name, key)
	if err != nil {
		l.logger.Warn("cache get failed, falling back to store",
			zap.String("region", region.Name), zap.String("key", key), zap.Error(err))
		return zero, false
	}
	if !ok {
		return zero, false
	}

	var value T
	if err := l.codec.Unmarshal(data, &value); err != nil {
		l.logger.Warn("cache entry undecodable, evicting",
			zap.String("region", region.Name), zap.String("key", key), zap.Error(err))
		l.Evict(ctx, region, key)
		return zero, false
	}
	return value, true
}

// Store replaces the entry under key in region with a snapshot of value.
func Store[T any](ctx context.Context, l *Layer, region Region, key string, value T) {
	if l == nil || l.backend == nil {
		return
	}

	data, err := l.codec.Marshal(value)
	if err != nil {
		l.logger.Warn("cache entry unencodable, skipping put",
			zap.String("region", region.Name), zap.String("key", key), zap.Error(err))
		return
	}
	if err := l.backend.Put(ctx, region.Name, key, data, region.TTL); err != nil {
		l.logger.Warn("cache put failed",
			zap.String("region", region.Name), zap.String("key", key), zap.Error(err))
	}
}

// Evict removes a single entry.
func (l *Layer) Evict(ctx context.Context, region Region, key string) {
	if l == nil || l.backend == nil {
		return
	}
	if err := l.backend.Evict(ctx, region.Name, key); err != nil {
		l.logger.Warn("cache evict failed, entry expires with its ttl",
			zap.String("region", region.Name), zap.String("key", key), zap.Error(err))
	}
}

// EvictAll removes every entry in region.
func (l *Layer) EvictAll(ctx context.Context, region Region) {
	if l == nil || l.backend == nil {
		return
	}
	if err := l.backend.EvictAll(ctx, region.Name); err != nil {
		l.logger.Warn("cache region evict failed, entries expire with their ttl",
			zap.String("region", region.Name), zap.Error(err))
	}
}

// Reset clears each region. Used at startup so entries written by a previous
// deployment are never served.
func (l *Layer) Reset(ctx context.Context, regions ...Region) {
	if l == nil {
		return
	}
	for _, region := range regions {
		l.EvictAll(ctx, region)
		l.logger.Info("cache region cleared", zap.String("region", region.Name))
	}
}
