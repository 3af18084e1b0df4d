// Package users tracks known users and their locale preference.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/kinobot/core/logger"
	"github.com/m3rciful/kinobot/internal/apperr"
)

// FallbackLocale is reported for users without a stored preference.
const FallbackLocale = "uz"

// User is a registered user.
type User struct {
	ID       int64     `db:"id"`
	Locale   string    `db:"locale"`
	JoinedAt time.Time `db:"joined_at"`
}

// Registry stores users in SQL.
type Registry struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewRegistry wraps db.
func NewRegistry(db *sqlx.DB) *Registry {
	return &Registry{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Register inserts id unless it already exists.
func (r *Registry) Register(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(
		`INSERT INTO users (id, locale, joined_at) VALUES (?, ?, ?) ON CONFLICT (id) DO NOTHING`),
		id, FallbackLocale, r.now())
	if err != nil {
		return fmt.Errorf("users.register: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		logger.LogEvent(ctx, logger.SVCUsers, slog.LevelInfo, "user.registered",
			slog.Int64("user_id", id),
		)
	}
	return nil
}

// SetLocale stores locale for id, registering the user if needed.
func (r *Registry) SetLocale(ctx context.Context, id int64, locale string) error {
	locale = strings.ToLower(strings.TrimSpace(locale))
	if locale == "" {
		locale = FallbackLocale
	}
	_, err := r.db.ExecContext(ctx, r.db.Rebind(
		`INSERT INTO users (id, locale, joined_at) VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET locale = excluded.locale`),
		id, locale, r.now())
	if err != nil {
		return fmt.Errorf("users.set_locale: %w", err)
	}
	logger.LogEvent(ctx, logger.SVCUsers, slog.LevelDebug, "user.locale_set",
		slog.Int64("user_id", id),
		slog.String("locale", locale),
	)
	return nil
}

// Get returns the stored user.
func (r *Registry) Get(ctx context.Context, id int64) (User, error) {
	var u User
	err := r.db.GetContext(ctx, &u, r.db.Rebind(`SELECT id, locale, joined_at FROM users WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, apperr.NotFound("users.get", fmt.Sprintf("user %d not found", id))
	}
	if err != nil {
		return User{}, fmt.Errorf("users.get: %w", err)
	}
	return u, nil
}

// Locale returns the user's locale, or FallbackLocale when unknown. Lookup
// errors are logged and also yield the fallback.
func (r *Registry) Locale(ctx context.Context, id int64) string {
	u, err := r.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			logger.LogEvent(ctx, logger.SVCUsers, slog.LevelWarn, "user.locale_lookup_failed",
				slog.Int64("user_id", id),
				slog.String("err", err.Error()),
			)
		}
		return FallbackLocale
	}
	if u.Locale == "" {
		return FallbackLocale
	}
	return u.Locale
}

// AllIDs yields every registered user id. The ids are read by a single
// statement when iteration starts, so users registered mid-iteration are
// not included. A read error is yielded once with id 0.
func (r *Registry) AllIDs(ctx context.Context) iter.Seq2[int64, error] {
	return func(yield func(int64, error) bool) {
		var ids []int64
		if err := r.db.SelectContext(ctx, &ids, `SELECT id FROM users ORDER BY id`); err != nil {
			yield(0, fmt.Errorf("users.all_ids: %w", err))
			return
		}
		for _, id := range ids {
			if !yield(id, nil) {
				return
			}
		}
	}
}

// Count returns the number of registered users.
func (r *Registry) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM users`); err != nil {
		return 0, fmt.Errorf("users.count: %w", err)
	}
	return n, nil
}
