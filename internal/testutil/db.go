// Package testutil holds helpers shared by package tests.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/kinobot/core/database"
	"github.com/m3rciful/kinobot/migrations"
)

// NewDB opens a migrated SQLite database in a temp dir, closed on cleanup.
func NewDB(t testing.TB) *sqlx.DB {
	t.Helper()
	cfg := database.Config{
		Driver: database.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "kinobot.db"),
	}
	db, err := database.Connect(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.RunMigrations(db, database.DriverSQLite, migrations.FS))
	return db
}
