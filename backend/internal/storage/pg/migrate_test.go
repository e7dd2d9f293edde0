package pg

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateWrapsGooseErrors(t *testing.T) {
	orig := gooseRun
	defer func() { gooseRun = orig }()

	var gotCommand string
	gooseRun = func(ctx context.Context, command string, db *sql.DB, dir string, args ...string) error {
		gotCommand = command
		return errors.New("boom")
	}

	err := Migrate(context.Background(), nil, "down")
	require.Error(t, err)
	assert.Equal(t, "down", gotCommand)
	assert.Contains(t, err.Error(), "goose down")
}

func TestMigrationsAreIdempotent(t *testing.T) {
	// TestMain already migrated; running up again must be a no-op
	require.NoError(t, RunMigrations(context.Background(), storage.db))
}
