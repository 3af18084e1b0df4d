package database_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/kinobot/core/database"
	"github.com/m3rciful/kinobot/migrations"
)

func TestDSN(t *testing.T) {
	dsn, err := database.DSN(database.Config{Driver: database.DriverSQLite, Path: "/tmp/x.db"})
	require.NoError(t, err)
	assert.Contains(t, dsn, "/tmp/x.db?")
	assert.Contains(t, dsn, "busy_timeout")

	_, err = database.DSN(database.Config{Driver: database.DriverSQLite})
	assert.Error(t, err)

	dsn, err = database.DSN(database.Config{Host: "db", Port: "5432", User: "u", Name: "kino", SSLMode: "disable"})
	require.NoError(t, err)
	assert.Contains(t, dsn, "host=db")

	_, err = database.DSN(database.Config{Driver: "oracle"})
	assert.Error(t, err)
}

func TestRunMigrationsSQLiteIsRepeatable(t *testing.T) {
	db, err := database.Connect(database.Config{
		Driver: database.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "m.db"),
	})
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, database.RunMigrations(db, database.DriverSQLite, migrations.FS))
	require.NoError(t, database.RunMigrations(db, database.DriverSQLite, migrations.FS))

	var tables []string
	require.NoError(t, db.Select(&tables,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name IN ('users', 'entries') ORDER BY name`))
	assert.Equal(t, []string{"entries", "users"}, tables)
}
