package database

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/kinobot/core/logger"
)

// RunMigrations applies every pending up migration. fsys holds one
// directory per driver ("postgres", "sqlite") with golang-migrate style
// <version>_<name>.up.sql files.
func RunMigrations(db *sqlx.DB, driver string, fsys fs.FS) error {
	if db == nil {
		return errors.New("migrate: nil database")
	}
	if driver == "" {
		driver = DriverPostgres
	}
	ctx := context.Background()

	src, err := iofs.New(fsys, driver)
	if err != nil {
		return fmt.Errorf("migrate: open %s source: %w", driver, err)
	}
	defer src.Close()

	target, err := migrationTarget(db, driver)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	// Closing the sqlite driver would close the shared *sql.DB.
	if driver == DriverPostgres {
		defer target.Close()
	}

	m, err := migrate.NewWithInstance("iofs", src, driver, target)
	if err != nil {
		return fmt.Errorf("migrate: init: %w", err)
	}
	from, dirty, _ := m.Version()
	if dirty {
		return fmt.Errorf("migrate: schema version %d is dirty, fix it by hand and force the version", from)
	}

	start := time.Now()
	err = m.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		logger.LogEvent(ctx, logger.MIG, slog.LevelInfo, "summary",
			slog.String("driver", driver),
			slog.Uint64("version", uint64(from)),
			slog.Int("applied", 0),
			slog.Duration("duration", logger.Took(start)),
		)
		return nil
	case err != nil:
		logger.LogEvent(ctx, logger.MIG, slog.LevelError, "apply",
			slog.String("driver", driver),
			slog.String("err", err.Error()),
			slog.Duration("duration", logger.Took(start)),
		)
		return fmt.Errorf("migrate: up: %w", err)
	}

	to, _, _ := m.Version()
	applied := appliedFiles(fsys, driver, uint64(from), uint64(to))
	logger.LogEvent(ctx, logger.MIG, slog.LevelInfo, "summary",
		slog.String("driver", driver),
		slog.Uint64("from_version", uint64(from)),
		slog.Uint64("version", uint64(to)),
		slog.Int("applied", len(applied)),
		slog.Any("files", applied),
		slog.Duration("duration", logger.Took(start)),
	)
	return nil
}

func migrationTarget(db *sqlx.DB, driver string) (migratedb.Driver, error) {
	switch driver {
	case DriverPostgres:
		return postgres.WithInstance(db.DB, &postgres.Config{})
	case DriverSQLite:
		return sqlite.WithInstance(db.DB, &sqlite.Config{})
	}
	return nil, fmt.Errorf("unsupported migration driver %q", driver)
}

// appliedFiles lists the up files with from < version <= to, in order.
func appliedFiles(fsys fs.FS, dir string, from, to uint64) []string {
	names, err := fs.Glob(fsys, path.Join(dir, "*.up.sql"))
	if err != nil || to <= from {
		return nil
	}
	var out []string
	for _, name := range names {
		base := path.Base(name)
		head, _, _ := strings.Cut(base, "_")
		v, err := strconv.ParseUint(head, 10, 64)
		if err == nil && v > from && v <= to {
			out = append(out, base)
		}
	}
	slices.Sort(out)
	return out
}
