package bootstrap

import (
	"context"
	"errors"
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/kinobot/core/config"
	coredatabase "github.com/m3rciful/kinobot/core/database"
)

func openMemory(t *testing.T) func(coredatabase.Config) (*sqlx.DB, error) {
	return func(coredatabase.Config) (*sqlx.DB, error) {
		db, err := sqlx.Open("sqlite", ":memory:")
		if err != nil {
			return nil, err
		}
		t.Cleanup(func() { _ = db.Close() })
		return db, nil
	}
}

func noLogger(*coreconfig.Config) error { return nil }

func TestRunCallsMigrateAndSeeders(t *testing.T) {
	var (
		migratedDriver string
		seeded         []int
	)
	res, err := Run(context.Background(), Options{
		Config:     &coreconfig.Config{},
		Database:   coredatabase.Config{Driver: coredatabase.DriverSQLite},
		Migrations: fstest.MapFS{},
		LoggerInit: noLogger,
		Connect:    openMemory(t),
		Migrate: func(_ *sqlx.DB, driver string, _ fs.FS) error {
			migratedDriver = driver
			return nil
		},
		Seeders: []Seeder{
			SeederFunc(func(context.Context, *sqlx.DB) error { seeded = append(seeded, 1); return nil }),
			nil,
			SeederFunc(func(context.Context, *sqlx.DB) error { seeded = append(seeded, 2); return nil }),
		},
	})
	require.NoError(t, err)
	require.NotNil(t, res.DB)
	assert.Equal(t, coredatabase.DriverSQLite, migratedDriver)
	assert.Equal(t, []int{1, 2}, seeded)
}

func TestRunStopsOnSeederError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Run(context.Background(), Options{
		Config:     &coreconfig.Config{},
		LoggerInit: noLogger,
		Connect:    openMemory(t),
		Seeders: []Seeder{SeederFunc(func(context.Context, *sqlx.DB) error {
			return boom
		})},
	})
	assert.ErrorIs(t, err, boom)
}

func TestRunRequiresConfig(t *testing.T) {
	_, err := Run(context.Background(), Options{})
	assert.Error(t, err)
}
