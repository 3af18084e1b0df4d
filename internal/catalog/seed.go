package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jmoiron/sqlx"
	"gopkg.in/yaml.v3"

	"github.com/m3rciful/kinobot/core/bootstrap"
	"github.com/m3rciful/kinobot/core/logger"
)

// SeedFile is the YAML layout of a catalog seed:
//
//	entries:
//	  - title: Dune
//	    kind: movie
//	    media_ref: BAACAgIAAx...
//	    rating: 8
type SeedFile struct {
	Entries []NewEntry `yaml:"entries"`
}

// LoadSeedFile reads and parses a seed file.
func LoadSeedFile(path string) (SeedFile, error) {
	var f SeedFile
	data, err := os.ReadFile(path)
	if err != nil {
		return f, fmt.Errorf("read seed file: %w", err)
	}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return f, fmt.Errorf("parse seed file: %w", err)
	}
	return f, nil
}

// Seed inserts entries through Create when the catalog is empty. It returns
// the number of inserted entries.
func (s *Store) Seed(ctx context.Context, entries []NewEntry) (int, error) {
	n, err := s.Count(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		logger.LogEvent(ctx, logger.SEED, slog.LevelInfo, "seed.skip",
			slog.String("reason", "catalog_not_empty"),
			slog.Int("total", n),
		)
		return 0, nil
	}
	for i, e := range entries {
		if _, err := s.Create(ctx, e); err != nil {
			return i, fmt.Errorf("seed entry %d (%q): %w", i, e.Title, err)
		}
	}
	logger.LogEvent(ctx, logger.SEED, slog.LevelInfo, "seed.done",
		slog.Int("total", len(entries)),
	)
	return len(entries), nil
}

// Seeder returns a bootstrap seeder that loads path into an empty catalog.
// An empty path disables seeding.
func Seeder(path string) bootstrap.Seeder {
	return bootstrap.SeederFunc(func(ctx context.Context, db *sqlx.DB) error {
		if path == "" {
			return nil
		}
		f, err := LoadSeedFile(path)
		if err != nil {
			return err
		}
		_, err = NewStore(db).Seed(ctx, f.Entries)
		return err
	})
}
