package user

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-user-cache/cache"
	"github.com/goliatone/go-user-cache/internal/apperr"
)

// Cache region names.
const (
	RegionUsers    = "users"
	RegionUserList = "userList"
)

// Config tunes the cache policy.
type Config struct {
	UsersTTL    time.Duration
	UserListTTL time.Duration
	// ListPageLimit is the first page number that is never cached.
	ListPageLimit int
}

// DefaultConfig caches both regions for one minute and the first five pages.
func DefaultConfig() Config {
	return Config{
		UsersTTL:      time.Minute,
		UserListTTL:   time.Minute,
		ListPageLimit: 5,
	}
}

// Service implements the user operations on top of a Store, keeping the
// users and userList cache regions consistent with it.
type Service struct {
	store     Store
	cache     *cache.Layer
	keys      cache.KeySerializer
	users     cache.Region
	userList  cache.Region
	pageLimit int
	logger    *zap.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithServiceLogger sets the service logger.
func WithServiceLogger(logger *zap.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithKeySerializer replaces the default list key serializer.
func WithKeySerializer(keys cache.KeySerializer) ServiceOption {
	return func(s *Service) {
		if keys != nil {
			s.keys = keys
		}
	}
}

// NewService builds a Service. A nil layer disables caching.
func NewService(store Store, layer *cache.Layer, cfg Config, opts ...ServiceOption) *Service {
	s := &Service{
		store:     store,
		cache:     layer,
		keys:      cache.NewDefaultKeySerializer(),
		users:     cache.Region{Name: RegionUsers, TTL: cfg.UsersTTL},
		userList:  cache.Region{Name: RegionUserList, TTL: cfg.UserListTTL},
		pageLimit: cfg.ListPageLimit,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Regions returns the cache regions the service owns.
func (s *Service) Regions() []cache.Region {
	return []cache.Region{s.users, s.userList}
}

// CreateUser persists a new ACTIVE user. Cached list pages are evicted since
// the new row may land on any of them; the users region is filled lazily.
func (s *Service) CreateUser(ctx context.Context, req CreateRequest) (Response, error) {
	if err := req.Validate(); err != nil {
		return Response{}, err
	}

	exists, err := s.store.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return Response{}, s.storeError("check email", err)
	}
	if exists {
		return Response{}, emailConflict(nil)
	}

	u := &User{
		Email:       req.Email,
		Password:    req.Password,
		Name:        req.Name,
		PhoneNumber: req.PhoneNumber,
		Status:      StatusActive,
	}
	if err := s.store.Create(ctx, u); err != nil {
		return Response{}, s.storeError("create user", err)
	}

	s.cache.EvictAll(ctx, s.userList)
	s.logger.Info("user created", zap.Int64("id", u.ID))
	return NewResponse(u), nil
}

// GetUser reads through the users region.
func (s *Service) GetUser(ctx context.Context, id int64) (Response, error) {
	key := userKey(id)
	if cached, ok := cache.Lookup[Response](ctx, s.cache, s.users, key); ok {
		s.logger.Debug("cache hit", zap.String("region", s.users.Name), zap.String("key", key))
		return cached, nil
	}
	s.logger.Debug("cache miss", zap.String("region", s.users.Name), zap.String("key", key))

	u, err := s.store.FindByID(ctx, id)
	if err != nil {
		return Response{}, s.storeError(fmt.Sprintf("find user %d", id), err)
	}

	resp := NewResponse(u)
	cache.Store(ctx, s.cache, s.users, key, resp)
	return resp, nil
}

// ListUsers returns one page. Pages before the configured limit read through
// the userList region; later pages always go to the store.
func (s *Service) ListUsers(ctx context.Context, req PageRequest) (Page, error) {
	if err := req.Validate(); err != nil {
		return Page{}, apperr.Validation(err.Error())
	}

	cacheable := req.Page < s.pageLimit
	key := s.keys.SerializeKey(req.Page, req.Size, req.Sort)

	if cacheable {
		if cached, ok := cache.Lookup[Page](ctx, s.cache, s.userList, key); ok {
			s.logger.Debug("cache hit", zap.String("region", s.userList.Name), zap.String("key", key))
			if cached.Content == nil {
				cached.Content = []Response{}
			}
			return cached, nil
		}
		s.logger.Debug("cache miss", zap.String("region", s.userList.Name), zap.String("key", key))
	}

	users, total, err := s.store.List(ctx, req)
	if err != nil {
		return Page{}, s.storeError("list users", err)
	}

	page := NewPage(users, total, req)
	if cacheable {
		cache.Store(ctx, s.cache, s.userList, key, page)
	}
	return page, nil
}

// UpdateUser applies the supplied fields. An empty patch leaves the row as
// is; either way the users entry is replaced and list pages are evicted.
func (s *Service) UpdateUser(ctx context.Context, id int64, req UpdateRequest) (Response, error) {
	if err := req.Validate(); err != nil {
		return Response{}, err
	}

	u, err := s.store.FindByID(ctx, id)
	if err != nil {
		return Response{}, s.storeError(fmt.Sprintf("find user %d", id), err)
	}

	if !req.Empty() {
		if req.Name != nil {
			u.Name = *req.Name
		}
		if req.PhoneNumber != nil {
			u.PhoneNumber = *req.PhoneNumber
		}
		if err := s.store.Update(ctx, u); err != nil {
			return Response{}, s.storeError(fmt.Sprintf("update user %d", id), err)
		}
		s.logger.Info("user updated", zap.Int64("id", id))
	}

	resp := NewResponse(u)
	cache.Store(ctx, s.cache, s.users, userKey(id), resp)
	s.cache.EvictAll(ctx, s.userList)
	return resp, nil
}

// DeleteUser removes the user and every cache entry that could still show it.
func (s *Service) DeleteUser(ctx context.Context, id int64) error {
	exists, err := s.store.ExistsByID(ctx, id)
	if err != nil {
		return s.storeError(fmt.Sprintf("check user %d", id), err)
	}
	if !exists {
		return userNotFound(nil)
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return s.storeError(fmt.Sprintf("delete user %d", id), err)
	}

	s.cache.Evict(ctx, s.users, userKey(id))
	s.cache.EvictAll(ctx, s.userList)
	s.logger.Info("user deleted", zap.Int64("id", id))
	return nil
}

// storeError turns store failures into semantic errors.
func (s *Service) storeError(op string, err error) error {
	cause := fmt.Errorf("%s: %w", op, err)
	switch {
	case errors.Is(err, ErrNotFound):
		return userNotFound(cause)
	case errors.Is(err, ErrDuplicateEmail):
		return emailConflict(cause)
	case errors.Is(err, ErrConstraint):
		return apperr.Wrap(cause, apperr.KindConstraintViolation, apperr.CodeConflict, "Data integrity violation.")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return apperr.Internal(cause)
	default:
		s.logger.Error("store operation failed", zap.String("op", op), zap.Error(err))
		return apperr.Internal(cause)
	}
}

func userKey(id int64) string {
	return strconv.FormatInt(id, 10)
}

func userNotFound(cause error) *apperr.Error {
	return apperr.Wrap(cause, apperr.KindNotFound, apperr.CodeUserNotFound, "User not found.")
}

func emailConflict(cause error) *apperr.Error {
	return apperr.Wrap(cause, apperr.KindConflict, apperr.CodeEmailConflict, "EMAIL is already in use.")
}
