// Package db provides migration loading from directory.
package db

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/jackc/pgx/v5/pgxpool"
)

const migrationsLogPrefix = "db:migrations"

// MigrationDown is a placeholder: migrations here are additive-only
// (new tables, new columns), so there is nothing to roll back.
func MigrationDown(_ context.Context, _ *pgxpool.Pool, _ string) error {
	slog.Info(fmt.Sprintf("%s - MigrationDown is a no-op, migrations are additive-only", migrationsLogPrefix))
	return nil
}

// MigrationStatus reports how many migration files are present in dir.
// There is no separate schema_migrations tracking table here, so this
// reports what would run, not what has already been applied.
func MigrationStatus(_ context.Context, _ *pgxpool.Pool, dir string) error {
	files, err := LoadMigrationFiles(dir)
	if err != nil {
		return fmt.Errorf("%s - MigrationStatus failed: %w", migrationsLogPrefix, err)
	}
	slog.Info(fmt.Sprintf("%s - %d migration file(s) in %s", migrationsLogPrefix, len(files), dir))
	return nil
}

// LoadMigrationFiles reads all .sql files from dir, sorted by name, and returns their contents.
func LoadMigrationFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to read migration dir %s: %w", migrationsLogPrefix, dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".sql" {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	var out []string
	for _, name := range names {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%s - failed to read %s: %w", migrationsLogPrefix, path, err)
		}
		out = append(out, string(data))
	}
	slog.Info(fmt.Sprintf("%s - Loaded %d migration files from %s", migrationsLogPrefix, len(out), dir))
	return out, nil
}
