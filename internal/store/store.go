// Package store implements user.Store on bun, over sqlite3 or postgres.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"go.uber.org/zap"

	"github.com/goliatone/go-user-cache/internal/user"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Config selects the database.
type Config struct {
	Driver       string
	DSN          string
	MaxOpenConns int
}

// Validate checks the driver and DSN.
func (c Config) Validate() error {
	switch c.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("store: unsupported driver %q", c.Driver)
	}
	if strings.TrimSpace(c.DSN) == "" {
		return errors.New("store: DSN is required")
	}
	if c.MaxOpenConns < 0 {
		return fmt.Errorf("store: MaxOpenConns must not be negative, got %d", c.MaxOpenConns)
	}
	return nil
}

// Open connects to the configured database and returns a bun handle.
// In-memory sqlite databases are pinned to one connection so every query
// sees the same database.
func Open(cfg Config, logger *zap.Logger) (*bun.DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	sqldb, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", cfg.Driver, err)
	}

	var db *bun.DB
	switch cfg.Driver {
	case DriverSQLite:
		if strings.Contains(cfg.DSN, ":memory:") || strings.Contains(cfg.DSN, "mode=memory") {
			sqldb.SetMaxOpenConns(1)
		}
		db = bun.NewDB(sqldb, sqlitedialect.New())
	case DriverPostgres:
		db = bun.NewDB(sqldb, pgdialect.New())
	}
	if cfg.MaxOpenConns > 0 {
		sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	if logger != nil {
		db.AddQueryHook(&queryLogger{logger: logger})
	}
	return db, nil
}

// Migrate creates the users table when missing.
func Migrate(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().
		Model((*user.User)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("store: create users table: %w", err)
	}
	return nil
}

// UserStore is the bun backed user.Store.
type UserStore struct {
	db  bun.IDB
	now func() time.Time
}

// Option configures a UserStore.
type Option func(*UserStore)

// WithClock overrides the audit clock.
func WithClock(now func() time.Time) Option {
	return func(s *UserStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewUserStore wraps db.
func NewUserStore(db bun.IDB, opts ...Option) *UserStore {
	s := &UserStore{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// stamp returns the current audit time. Postgres keeps microseconds, so
// every dialect is truncated the same way to keep snapshots comparable.
func (s *UserStore) stamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func (s *UserStore) Create(ctx context.Context, u *user.User) error {
	now := s.stamp()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.db.NewInsert().Model(u).Returning("id").Exec(ctx); err != nil {
		return translate(err)
	}
	return nil
}

func (s *UserStore) FindByID(ctx context.Context, id int64) (*user.User, error) {
	u := new(user.User)
	err := s.db.NewSelect().Model(u).Where("?TableAlias.id = ?", id).Scan(ctx)
	if err != nil {
		return nil, translate(err)
	}
	return u, nil
}

func (s *UserStore) ExistsByID(ctx context.Context, id int64) (bool, error) {
	ok, err := s.db.NewSelect().Model((*user.User)(nil)).Where("?TableAlias.id = ?", id).Exists(ctx)
	if err != nil {
		return false, translate(err)
	}
	return ok, nil
}

func (s *UserStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	ok, err := s.db.NewSelect().Model((*user.User)(nil)).Where("?TableAlias.email = ?", email).Exists(ctx)
	if err != nil {
		return false, translate(err)
	}
	return ok, nil
}

func (s *UserStore) List(ctx context.Context, req user.PageRequest) ([]user.User, int64, error) {
	col, err := sortColumn(req.Sort.Field)
	if err != nil {
		return nil, 0, err
	}
	dir := "ASC"
	if req.Sort.Desc {
		dir = "DESC"
	}

	users := make([]user.User, 0, req.Size)
	q := s.db.NewSelect().
		Model(&users).
		OrderExpr("?TableAlias.? "+dir, bun.Ident(col)).
		Limit(req.Size).
		Offset(req.Offset())
	if col != "id" {
		q = q.OrderExpr("?TableAlias.id ASC")
	}

	total, err := q.ScanAndCount(ctx)
	if err != nil {
		return nil, 0, translate(err)
	}
	return users, int64(total), nil
}

func (s *UserStore) Update(ctx context.Context, u *user.User) error {
	u.UpdatedAt = s.stamp()

	res, err := s.db.NewUpdate().
		Model(u).
		Column("name", "phone_number", "status", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return translate(err)
	}
	return requireRow(res)
}

func (s *UserStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.NewDelete().
		Model((*user.User)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return translate(err)
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return user.ErrNotFound
	}
	return nil
}

// translate maps driver errors onto the user store sentinels.
func translate(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return user.ErrNotFound
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		if sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return fmt.Errorf("%w: %v", user.ErrDuplicateEmail, err)
		}
		return fmt.Errorf("%w: %v", user.ErrConstraint, err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Class() == "23" {
		if pqErr.Code == "23505" {
			return fmt.Errorf("%w: %v", user.ErrDuplicateEmail, err)
		}
		return fmt.Errorf("%w: %v", user.ErrConstraint, err)
	}

	return err
}

type queryLogger struct {
	logger *zap.Logger
}

func (h *queryLogger) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *queryLogger) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	fields := []zap.Field{
		zap.String("operation", event.Operation()),
		zap.Duration("duration", time.Since(event.StartTime)),
	}
	if event.Err != nil && !errors.Is(event.Err, sql.ErrNoRows) {
		h.logger.Warn("query failed", append(fields, zap.String("query", event.Query), zap.Error(event.Err))...)
		return
	}
	h.logger.Debug("query", append(fields, zap.String("query", event.Query))...)
}

var _ user.Store = (*UserStore)(nil)
