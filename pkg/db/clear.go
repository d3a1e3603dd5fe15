// Package db provides mirror data clearing.
package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

const clearLogPrefix = "db:clear"

// ClearMirror truncates the class_info/class_meta mirror tables.
// Schema is preserved; only data is removed. RESTART IDENTITY resets
// sequences. The on-disk JSON DB (spec §4.B) is untouched — this only
// clears the query mirror (spec §2).
func ClearMirror(ctx context.Context, pool *pgxpool.Pool) error {
	slog.Info(fmt.Sprintf("%s - Clearing mirror tables", clearLogPrefix))

	_, err := pool.Exec(ctx, `TRUNCATE TABLE class_meta, class_info RESTART IDENTITY CASCADE`)
	if err != nil {
		return fmt.Errorf("%s - truncate failed: %w", clearLogPrefix, err)
	}

	slog.Info(fmt.Sprintf("%s - Mirror cleared", clearLogPrefix))
	return nil
}
