// Package search answers free-text catalog queries.
package search

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/m3rciful/kinobot/core/logger"
	"github.com/m3rciful/kinobot/internal/apperr"
	"github.com/m3rciful/kinobot/internal/catalog"
)

// MaxResults caps every search.
const MaxResults = 50

// Result is one search hit.
type Result struct {
	ID          int64
	Title       string
	Description string
	Year        *int
	Rating      *float64
	PosterRef   string
	MediaRef    string
	Genre       string
}

// Finder is the catalog query the engine runs.
type Finder interface {
	Search(ctx context.Context, f catalog.Fields, query string, limit int) ([]catalog.Entry, error)
}

// Engine runs title searches against a Finder.
type Engine struct {
	finder Finder
}

// NewEngine returns an engine over finder.
func NewEngine(finder Finder) *Engine {
	return &Engine{finder: finder}
}

// Search returns up to MaxResults entries whose title contains query,
// ignoring case, in catalog order. An empty query is an invalid-query error.
func (e *Engine) Search(ctx context.Context, query, locale string) ([]Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperr.New(apperr.KindInvalidQuery, "search", "empty query")
	}
	fields := catalog.FieldsFor(locale)

	start := time.Now()
	entries, err := e.finder.Search(ctx, fields, query, MaxResults)
	if err != nil {
		return nil, err
	}

	out := make([]Result, 0, len(entries))
	for _, en := range entries {
		out = append(out, Result{
			ID:          en.ID,
			Title:       en.Title,
			Description: en.Description,
			Year:        en.Year,
			Rating:      en.Rating,
			PosterRef:   en.PosterRef,
			MediaRef:    en.MediaRef,
			Genre:       en.Genre,
		})
	}
	logger.LogEvent(ctx, logger.SVCSearch, slog.LevelDebug, "search.done",
		slog.String("query", logger.SanitizeLimit(query, 64)),
		slog.String("locale", fields.Locale),
		slog.Bool("locale_fallback", !catalog.Supported(locale)),
		slog.Int("results", len(out)),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return out, nil
}
