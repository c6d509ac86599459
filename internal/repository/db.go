package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/joseph-ayodele/pantry-tracker/internal/common"
)

type Config struct {
	Driver           string // postgres | sqlite
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// Client is a database handle plus the dialect its statements are built for.
type Client struct {
	db      *sql.DB
	dialect string
	pool    *pgxpool.Pool
}

// DB exposes the underlying handle.
func (c *Client) DB() *sql.DB { return c.db }

// Dialect is dialect.Postgres or dialect.SQLite.
func (c *Client) Dialect() string { return c.dialect }

func (c *Client) builder() *entsql.DialectBuilder {
	return entsql.Dialect(c.dialect)
}

// DialectName maps a configured driver name onto its ent dialect.
func DialectName(driver string) string {
	switch driver {
	case "", dialect.Postgres:
		return dialect.Postgres
	case "sqlite", dialect.SQLite:
		return dialect.SQLite
	}
	return driver
}

// Open connects according to cfg.Driver.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	switch DialectName(cfg.Driver) {
	case dialect.Postgres:
		return openPostgres(ctx, cfg, logger)
	case dialect.SQLite:
		return OpenSQLite(ctx, cfg.DSN, logger)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// openPostgres creates a pgx pool and wraps it as *sql.DB.
func openPostgres(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	logger.Info("connecting to database", "driver", dialect.Postgres)
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		logger.Error("failed to parse database dsn", "error", err)
		return nil, err
	}

	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		pc.MinConns = cfg.MinConns
	}
	pc.MaxConnLifetime = cfg.MaxConnLifetime
	pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	pc.ConnConfig.RuntimeParams["application_name"] = "pantry-tracker"
	if cfg.StatementTimeout > 0 {
		pc.ConnConfig.RuntimeParams["statement_timeout"] = fmt.Sprintf("%d", cfg.StatementTimeout.Milliseconds())
	}

	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, err
	}

	logger.Info("successfully connected to database")
	return &Client{db: stdlib.OpenDBFromPool(pool), dialect: dialect.Postgres, pool: pool}, nil
}

// OpenSQLite opens (creating if needed) a SQLite database file.
func OpenSQLite(ctx context.Context, path string, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("connecting to database", "driver", dialect.SQLite, "path", path)
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one writer at a time; avoids SQLITE_BUSY under concurrent workers
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("configure sqlite: %w", err)
	}
	return &Client{db: db, dialect: dialect.SQLite}, nil
}

// Close closes the database connections gracefully
func Close(c *Client, logger *slog.Logger) {
	if c == nil {
		return
	}
	logger.Info("closing database connections")
	if err := c.db.Close(); err != nil {
		logger.Error("failed to close database", "error", err)
	}
	if c.pool != nil {
		c.pool.Close()
	}
	logger.Info("database connections closed")
}

// HealthCheck pings the database to catch DSN issues early.
func HealthCheck(ctx context.Context, c *Client, timeout time.Duration, logger *slog.Logger) error {
	logger.Debug("pinging database")
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := c.db.PingContext(ctx); err != nil {
		logger.Error("database ping failed", "error", err)
		return err
	}
	logger.Debug("database ping successful")
	return nil
}

func dbError(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return common.NewAppError("NOT_FOUND", op, common.ErrNotFound)
	}
	return common.NewAppError("DB_ERROR", op, errors.Join(common.ErrDatabase, err))
}
