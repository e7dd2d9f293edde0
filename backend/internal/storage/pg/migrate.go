package pg

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/itchan-dev/anniv/backend/internal/storage/pg/migrations"
	"github.com/pressly/goose/v3"
)

// gooseRun is a seam for tests.
var gooseRun = func(ctx context.Context, command string, db *sql.DB, dir string, args ...string) error {
	return goose.RunContext(ctx, command, db, dir, args...)
}

// RunMigrations applies every embedded migration.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	return Migrate(ctx, db, "up")
}

// Migrate runs a goose command (up, down, status, version, ...) against the
// embedded migrations.
func Migrate(ctx context.Context, db *sql.DB, command string, args ...string) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	if err := gooseRun(ctx, command, db, ".", args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}
