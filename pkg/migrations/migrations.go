package migrations

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"analytics-export/internal/config"
	"analytics-export/internal/db"
)

func wrapMigrate(err error) error {
	return fmt.Errorf("migrate db: %w", err)
}

// Migrate creates the records table if it does not exist yet.
func Migrate(ctx context.Context, database *sql.DB, table string) error {
	schema, err := db.Schema(table)
	if err != nil {
		return wrapMigrate(err)
	}
	_, err = database.ExecContext(ctx, schema)
	if err != nil {
		return wrapMigrate(err)
	}
	slog.DebugContext(ctx, "applied schema", "table", table)
	return nil
}

func wrapOpenAndMigrate(err error) error {
	return fmt.Errorf("open and migrate db: %w", err)
}

// OpenAndMigrateDB opens the configured store and ensures the records table exists.
func OpenAndMigrateDB(ctx context.Context, cfg config.StoreConfig) (*sql.DB, error) {
	database, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, wrapOpenAndMigrate(err)
	}
	err = Migrate(ctx, database, cfg.Table)
	if err != nil {
		database.Close()
		return nil, wrapOpenAndMigrate(err)
	}
	return database, nil
}
