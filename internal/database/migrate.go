package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"log/slog"
)

// Migrator defines an interface capable of applying schema migrations.
type Migrator interface {
	Up(ctx context.Context) error
}

// SQLMigrator executes .sql migration files against a database connection.
// Applied files are recorded in schema_migrations and skipped on later runs.
type SQLMigrator struct {
	Logger  *slog.Logger
	DB      *sql.DB
	Dialect Dialect
	FS      fs.FS
	Path    string
}

// NewSQLMigrator builds a migrator that runs SQL statements from the provided filesystem.
func NewSQLMigrator(db *sql.DB, dialect Dialect, f fs.FS, dir string, logger *slog.Logger) *SQLMigrator {
	return &SQLMigrator{DB: db, Dialect: dialect, FS: f, Path: dir, Logger: logger}
}

const createMigrationsTable = `
    CREATE TABLE IF NOT EXISTS schema_migrations (
        name       TEXT PRIMARY KEY,
        applied_at TIMESTAMP NOT NULL
    )
`

// Up executes all pending *.up.sql files in lexical order.
func (m *SQLMigrator) Up(ctx context.Context) error {
	if m == nil {
		return errors.New("sql migrator is nil")
	}
	if m.DB == nil {
		return errors.New("sql migrator requires a database handle")
	}
	if m.FS == nil {
		return errors.New("sql migrator requires a filesystem")
	}
	if m.Path == "" {
		return errors.New("sql migrator requires a path")
	}

	logger := m.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if _, err := m.DB.ExecContext(ctx, createMigrationsTable); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}
	done, err := m.applied(ctx)
	if err != nil {
		return err
	}

	entries, err := fs.ReadDir(m.FS, m.Path)
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	applied := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".up.sql") || done[name] {
			continue
		}

		contents, err := fs.ReadFile(m.FS, path.Join(m.Path, name))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}

		statements := splitSQLStatements(string(contents))
		if len(statements) == 0 {
			logger.Info("skipping empty migration", "file", name)
			continue
		}

		if err := m.apply(ctx, name, statements); err != nil {
			return err
		}
		applied++
		logger.Info("migration applied", "file", name)
	}

	if applied == 0 {
		logger.Info("no migrations to run")
	}
	return nil
}

func (m *SQLMigrator) applied(ctx context.Context) (map[string]bool, error) {
	rows, err := m.DB.QueryContext(ctx, `SELECT name FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("read schema_migrations: %w", err)
	}
	defer rows.Close()

	done := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan schema_migrations: %w", err)
		}
		done[name] = true
	}
	return done, rows.Err()
}

func (m *SQLMigrator) apply(ctx context.Context, name string, statements []string) error {
	tx, err := m.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin %s: %w", name, err)
	}
	defer tx.Rollback()

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec %s [%d]: %w", name, i+1, err)
		}
	}
	record := m.Dialect.Rebind(`INSERT INTO schema_migrations (name, applied_at) VALUES ($1, $2)`)
	if _, err := tx.ExecContext(ctx, record, name, time.Now().UTC()); err != nil {
		return fmt.Errorf("record %s: %w", name, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", name, err)
	}
	return nil
}

func splitSQLStatements(sqlText string) []string {
	raw := strings.Split(sqlText, ";")
	out := make([]string, 0, len(raw))
	for _, stmt := range raw {
		trimmed := strings.TrimSpace(stmt)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
