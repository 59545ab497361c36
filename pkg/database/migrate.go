package database

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"slices"
	"strings"
)

const (
	migrationSuffix = ".up.sql"

	createMigrationsTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
	version    TEXT PRIMARY KEY,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`
	selectAppliedVersions = `SELECT version FROM schema_migrations`
	insertAppliedVersion  = `INSERT INTO schema_migrations (version) VALUES ($1)`
)

type migration struct {
	version string
	sql     string
}

// loadMigrations reads every top-level *.up.sql file of fsys, ordered by
// name. Down migrations and other files are ignored.
func loadMigrations(fsys fs.FS) ([]migration, error) {
	names, err := fs.Glob(fsys, "*"+migrationSuffix)
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}
	slices.Sort(names)

	out := make([]migration, 0, len(names))
	for _, name := range names {
		body, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", name, err)
		}
		out = append(out, migration{version: path.Base(name), sql: string(body)})
	}
	return out, nil
}

// RunMigrations applies the pending up migrations of fsys, each in its own
// transaction, and records them in schema_migrations. Transient connection
// failures are retried; SQL errors fail immediately.
func RunMigrations(ctx context.Context, db TxBeginner, fsys fs.FS, logger *slog.Logger) error {
	pending, err := loadMigrations(fsys)
	if err != nil {
		return err
	}
	return DefaultRetryPolicy.Do(ctx, logger, "run migrations", IsTransient, func(ctx context.Context) error {
		return migrate(ctx, db, pending, logger)
	})
}

func migrate(ctx context.Context, db TxBeginner, all []migration, logger *slog.Logger) error {
	if _, err := db.Exec(ctx, createMigrationsTable); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	applied, err := appliedVersions(ctx, db)
	if err != nil {
		return err
	}

	for _, m := range all {
		if applied[m.version] {
			continue
		}
		if err := apply(ctx, db, m); err != nil {
			return err
		}
		logger.InfoContext(ctx, "migration applied", slog.String("version", m.version))
	}
	return nil
}

func appliedVersions(ctx context.Context, db DBTX) (map[string]bool, error) {
	rows, err := db.Query(ctx, selectAppliedVersions)
	if err != nil {
		return nil, fmt.Errorf("list applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan applied migration: %w", err)
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

func apply(ctx context.Context, db TxBeginner, m migration) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin migration %s: %w", m.version, err)
	}

	if err := applyInTx(ctx, tx, m); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit migration %s: %w", m.version, err)
	}
	return nil
}

func applyInTx(ctx context.Context, tx DBTX, m migration) error {
	if strings.TrimSpace(m.sql) != "" {
		if _, err := tx.Exec(ctx, m.sql); err != nil {
			return fmt.Errorf("execute migration %s: %w", m.version, err)
		}
	}
	if _, err := tx.Exec(ctx, insertAppliedVersion, m.version); err != nil {
		return fmt.Errorf("record migration %s: %w", m.version, err)
	}
	return nil
}
