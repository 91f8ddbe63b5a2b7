package db

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	e "github.com/gartstein/shopper/internal/shopper/errors"
	"github.com/gartstein/shopper/internal/shopper/metrics"
	"github.com/gartstein/shopper/internal/shopper/models"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Driver   string
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	// Path is the SQLite database file, ":memory:" for a private in-memory database.
	Path string
}

// Store owns the connection pool. It is safe for concurrent use; the
// sessions it hands out are not.
type Store struct {
	db      *gorm.DB
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// Open connects to the configured database.
func Open(cfg *Config, logger *zap.Logger, m *metrics.Metrics) (*Store, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.Driver == DriverSQLite {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to access connection pool: %w", err)
		}
		// SQLite serializes writers; a single connection also keeps an
		// in-memory database alive and shared.
		sqlDB.SetMaxOpenConns(1)
	}

	return NewStore(db, logger, m), nil
}

// OpenWithRetry keeps trying Open with exponential backoff until it
// succeeds, maxElapsed passes or ctx is done.
func OpenWithRetry(ctx context.Context, cfg *Config, logger *zap.Logger, m *metrics.Metrics, maxElapsed time.Duration) (*Store, error) {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = maxElapsed

	var store *Store
	err := backoff.RetryNotify(func() error {
		var err error
		store, err = Open(cfg, logger, m)
		return err
	}, backoff.WithContext(b, ctx), func(err error, wait time.Duration) {
		logger.Warn("database not ready, retrying", zap.Error(err), zap.Duration("wait", wait))
	})
	if err != nil {
		return nil, err
	}
	return store, nil
}

// NewStore wraps an already opened connection.
func NewStore(db *gorm.DB, logger *zap.Logger, m *metrics.Metrics) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, logger: logger.Named("store"), metrics: m}
}

func dialectorFor(cfg *Config) (gorm.Dialector, error) {
	switch cfg.Driver {
	case DriverPostgres, "":
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)
		return postgres.Open(dsn), nil
	case DriverSQLite:
		path := cfg.Path
		if path == "" {
			path = ":memory:"
		}
		return sqlite.Open(fmt.Sprintf("file:%s?_foreign_keys=on", path)), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Migrate creates or updates every table of the entity graph.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(models.Schema()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// NewSession starts an empty unit of work.
func (s *Store) NewSession() *Session {
	return &Session{
		db:      s.db,
		logger:  s.logger.Named("session"),
		metrics: s.metrics,
		staged:  make(map[models.Entity]struct{}),
		refs:    make(map[string]models.Entity),
	}
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Exec runs a statement outside any session, e.g. maintenance in tests.
func (s *Store) Exec(ctx context.Context, sql string, args ...any) error {
	if err := s.db.WithContext(ctx).Exec(sql, args...).Error; err != nil {
		return classify(e.OpUpdate, "exec", err)
	}
	return nil
}
