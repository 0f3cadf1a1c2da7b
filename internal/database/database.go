package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Options configures the SQL database connection.
type Options struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	Logger          *slog.Logger
	PingTimeout     time.Duration
}

const defaultPingTimeout = 5 * time.Second

// DB wraps *sql.DB to centralize lifecycle management.
type DB struct {
	*sql.DB
	Dialect Dialect
	logger  *slog.Logger
}

// Connect initializes a pooled SQL connection using the provided options.
func Connect(ctx context.Context, opts Options) (*DB, error) {
	if opts.Driver == "" {
		return nil, errors.New("database driver is required")
	}
	if opts.DSN == "" {
		return nil, errors.New("database DSN is required")
	}
	dialect, err := DialectFor(opts.Driver)
	if err != nil {
		return nil, err
	}

	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	pool, err := sql.Open(opts.Driver, opts.DSN)
	if err != nil {
		return nil, err
	}

	if opts.MaxOpenConns > 0 {
		pool.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		pool.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		pool.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}
	if opts.ConnMaxIdleTime > 0 {
		pool.SetConnMaxIdleTime(opts.ConnMaxIdleTime)
	}
	if dialect == SQLite {
		// One connection: sqlite has a single writer and :memory: is per connection.
		pool.SetMaxOpenConns(1)
	}

	pingTimeout := opts.PingTimeout
	if pingTimeout <= 0 {
		pingTimeout = defaultPingTimeout
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := pool.PingContext(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping %s: %w", opts.Driver, err)
	}

	log.Info("database connected", "driver", opts.Driver, "dialect", string(dialect))

	return &DB{DB: pool, Dialect: dialect, logger: log}, nil
}

// Close releases database resources.
func (db *DB) Close() error {
	if db == nil || db.DB == nil {
		return nil
	}
	return db.DB.Close()
}

// Migrate applies the embedded migrations for the connection's dialect.
func (db *DB) Migrate(ctx context.Context) error {
	return db.RunMigrations(ctx, NewSQLMigrator(db.DB, db.Dialect, MigrationsFS(), MigrationsDir(db.Dialect), db.logger))
}

// RunMigrations applies the given migrator.
func (db *DB) RunMigrations(ctx context.Context, migrator Migrator) error {
	if migrator == nil {
		db.logger.Info("no migrator configured; skipping migrations")
		return nil
	}

	db.logger.Info("running migrations")
	if err := migrator.Up(ctx); err != nil {
		return err
	}

	db.logger.Info("migrations completed")
	return nil
}
