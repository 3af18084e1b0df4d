package database

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
)

func TestAppliedFiles(t *testing.T) {
	fsys := fstest.MapFS{
		"sqlite/000001_init.up.sql":    {},
		"sqlite/000001_init.down.sql":  {},
		"sqlite/000002_genre.up.sql":   {},
		"sqlite/000003_posters.up.sql": {},
		"postgres/000002_genre.up.sql": {},
	}
	assert.Equal(t, []string{"000002_genre.up.sql", "000003_posters.up.sql"}, appliedFiles(fsys, "sqlite", 1, 3))
	assert.Nil(t, appliedFiles(fsys, "sqlite", 3, 3))
}
