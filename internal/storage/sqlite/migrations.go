package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/pressly/goose/v3"
)

// migrationFS holds the versioned schema. Files are applied in version order
// on startup; goose records what ran in its own version table.
//
//go:embed migrations/*.sql
var migrationFS embed.FS

// runMigrations brings the schema up to the latest version.
func runMigrations(ctx context.Context, db *sql.DB) error {
	fsys, err := fs.Sub(migrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open migrations: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, db, fsys)
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	for _, r := range results {
		slog.Debug("Applied migration", "version", r.Source.Version, "duration_ms", r.Duration.Milliseconds())
	}
	return nil
}
