package di

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/goliatone/go-user-cache/cache"
	"github.com/goliatone/go-user-cache/internal/config"
	"github.com/goliatone/go-user-cache/internal/httpapi"
	"github.com/goliatone/go-user-cache/internal/store"
	"github.com/goliatone/go-user-cache/internal/user"
)

// Container wires the server: cache backend, cache layer, database, user
// store, user service and HTTP router. It owns the backend and the database
// handle and releases both on Close.
type Container struct {
	config        *config.Config
	logger        *zap.Logger
	cacheService  cache.CacheService
	keySerializer cache.KeySerializer
	layer         *cache.Layer
	db            *bun.DB
	users         *user.Service
	router        http.Handler
}

type pinger interface {
	Ping(ctx context.Context) error
}

// NewContainer builds every component from cfg. An unreachable shared cache
// is logged and tolerated; an unusable database is not.
func NewContainer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, errors.New("di: config is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cacheService, err := cache.NewCacheService(cfg.Cache())
	if err != nil {
		return nil, fmt.Errorf("di: cache backend: %w", err)
	}
	if p, ok := cacheService.(pinger); ok {
		if err := p.Ping(ctx); err != nil {
			logger.Warn("cache backend unreachable, serving from the database until it recovers",
				zap.String("backend", cfg.CacheBackend), zap.Error(err))
		}
	}

	db, err := store.Open(cfg.Store(), logger.Named("store"))
	if err != nil {
		closeQuietly(cacheService)
		return nil, fmt.Errorf("di: %w", err)
	}
	if err := store.Migrate(ctx, db); err != nil {
		_ = db.Close()
		closeQuietly(cacheService)
		return nil, fmt.Errorf("di: %w", err)
	}

	keySerializer := cache.NewDefaultKeySerializer()
	layer := cache.NewLayer(cacheService, cache.WithLogger(logger.Named("cache")))
	users := user.NewService(store.NewUserStore(db), layer, cfg.Users(),
		user.WithKeySerializer(keySerializer),
		user.WithServiceLogger(logger.Named("user")),
	)

	c := &Container{
		config:        cfg,
		logger:        logger,
		cacheService:  cacheService,
		keySerializer: keySerializer,
		layer:         layer,
		db:            db,
		users:         users,
	}
	c.router = httpapi.NewRouter(httpapi.Options{
		Users:        users,
		Logger:       logger.Named("http"),
		AppName:      cfg.AppName,
		Profile:      cfg.Profile,
		DevEndpoints: cfg.DevEndpoints(),
		Health:       db.PingContext,
	})
	return c, nil
}

// CacheService returns the shared cache backend.
func (c *Container) CacheService() cache.CacheService {
	return c.cacheService
}

// KeySerializer returns the key serializer used for list keys.
func (c *Container) KeySerializer() cache.KeySerializer {
	return c.keySerializer
}

// Config returns the configuration the container was built from.
func (c *Container) Config() *config.Config {
	return c.config
}

// Users returns the user service.
func (c *Container) Users() *user.Service {
	return c.users
}

// Handler returns the HTTP handler.
func (c *Container) Handler() http.Handler {
	return c.router
}

// ResetCache evicts every region owned by the user service.
func (c *Container) ResetCache(ctx context.Context) {
	c.layer.Reset(ctx, c.users.Regions()...)
}

// Close releases the database handle and the cache backend.
func (c *Container) Close() error {
	err := c.db.Close()
	if cerr := closeQuietly(c.cacheService); err == nil {
		err = cerr
	}
	return err
}

func closeQuietly(v any) error {
	if closer, ok := v.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
