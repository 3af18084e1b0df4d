package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/kinobot/core/database"
	"github.com/m3rciful/kinobot/core/logger"
	"github.com/m3rciful/kinobot/internal/apperr"
)

const entryColumns = `id, title, description, media_ref, poster_ref, kind, genre, locale,
	year, duration, rating, created_by, created_at`

// Store is the SQL-backed catalog. Every method is a single auto-committed
// statement.
type Store struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewStore wraps db.
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Create validates e, inserts it and returns the assigned id.
func (s *Store) Create(ctx context.Context, e NewEntry) (int64, error) {
	if err := e.Validate(); err != nil {
		return 0, err
	}
	kind, _ := ParseKind(string(e.Kind))
	locale := e.Locale
	if locale == "" {
		locale = DefaultLocale
	}

	q := s.db.Rebind(`INSERT INTO entries
		(title, description, media_ref, poster_ref, kind, genre, locale, year, duration, rating, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`)
	var id int64
	err := s.db.QueryRowxContext(ctx, q,
		strings.TrimSpace(e.Title), strings.TrimSpace(e.Description), e.MediaRef, e.PosterRef,
		string(kind), strings.TrimSpace(e.Genre), locale, e.Year, e.Duration, e.Rating,
		e.CreatedBy, s.now(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("catalog.create: %w", err)
	}

	logger.LogEvent(ctx, logger.SVCCatalog, slog.LevelInfo, "entry.created",
		slog.Int64("entry_id", id),
		slog.String("kind", string(kind)),
		slog.Int64("user_id", e.CreatedBy),
	)
	return id, nil
}

// Get returns the entry with id or a not-found error.
func (s *Store) Get(ctx context.Context, id int64) (Entry, error) {
	var e Entry
	err := s.db.GetContext(ctx, &e, s.db.Rebind(`SELECT `+entryColumns+` FROM entries WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, apperr.NotFound("catalog.get", fmt.Sprintf("entry %d not found", id))
	}
	if err != nil {
		return Entry{}, fmt.Errorf("catalog.get: %w", err)
	}
	return e, nil
}

// UpdateTitle replaces the title of entry id.
func (s *Store) UpdateTitle(ctx context.Context, id int64, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return apperr.Validation("catalog.update_title", "title is required")
	}
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`UPDATE entries SET title = ? WHERE id = ?`), title, id)
	if err != nil {
		return fmt.Errorf("catalog.update_title: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("catalog.update_title: %w", err)
	}
	if n == 0 {
		return apperr.NotFound("catalog.update_title", fmt.Sprintf("entry %d not found", id))
	}
	logger.LogEvent(ctx, logger.SVCCatalog, slog.LevelInfo, "entry.title_updated",
		slog.Int64("entry_id", id),
	)
	return nil
}

// Delete removes entry id. Deleting a missing id succeeds.
func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM entries WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("catalog.delete: %w", err)
	}
	n, _ := res.RowsAffected()
	logger.LogEvent(ctx, logger.SVCCatalog, slog.LevelInfo, "entry.deleted",
		slog.Int64("entry_id", id),
		slog.Int64("rows", n),
	)
	return nil
}

// ListAll returns every entry's id and title, newest first.
func (s *Store) ListAll(ctx context.Context) ([]Summary, error) {
	var out []Summary
	if err := s.db.SelectContext(ctx, &out, `SELECT id, title FROM entries ORDER BY id DESC`); err != nil {
		return nil, fmt.Errorf("catalog.list_all: %w", err)
	}
	return out, nil
}

// Count returns the number of stored entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM entries`); err != nil {
		return 0, fmt.Errorf("catalog.count: %w", err)
	}
	return n, nil
}

// Search returns up to limit entries whose title column (per f) contains
// query, case-insensitively, in id order. LIKE wildcards in query match
// literally.
func (s *Store) Search(ctx context.Context, f Fields, query string, limit int) ([]Entry, error) {
	if f.Title == "" {
		f = FieldsFor(DefaultLocale)
	}
	pattern := "%" + EscapeLike(strings.ToLower(query)) + "%"
	fold := database.FoldFunc(s.db.DriverName())
	q := s.db.Rebind(`SELECT ` + entryColumns + ` FROM entries
		WHERE ` + fold + `(` + f.Title + `) LIKE ? ESCAPE '\'
		ORDER BY id
		LIMIT ?`)
	var out []Entry
	if err := s.db.SelectContext(ctx, &out, q, pattern, limit); err != nil {
		return nil, fmt.Errorf("catalog.search: %w", err)
	}
	return out, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike escapes LIKE metacharacters with a backslash.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}
