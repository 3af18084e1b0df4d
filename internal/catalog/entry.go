// Package catalog persists catalog entries and answers title searches.
package catalog

import (
	"strings"
	"time"
)

// Kind is the media kind of an entry.
type Kind string

const (
	KindMovie   Kind = "movie"
	KindSeries  Kind = "series"
	KindCartoon Kind = "cartoon"
)

// Kinds lists every kind in menu order.
var Kinds = []Kind{KindMovie, KindSeries, KindCartoon}

// ParseKind accepts a kind name case-insensitively; "serial" is an alias of series.
func ParseKind(s string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "movie", "film":
		return KindMovie, true
	case "series", "serial":
		return KindSeries, true
	case "cartoon", "multfilm":
		return KindCartoon, true
	}
	return "", false
}

// Label is the human name of the kind.
func (k Kind) Label() string {
	switch k {
	case KindMovie:
		return "Movie"
	case KindSeries:
		return "Series"
	case KindCartoon:
		return "Cartoon"
	}
	return string(k)
}

// Rating bounds.
const (
	MinRating = 0
	MaxRating = 10
)

// Entry is a stored catalog entry.
type Entry struct {
	ID          int64     `db:"id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	MediaRef    string    `db:"media_ref"`
	PosterRef   string    `db:"poster_ref"`
	Kind        Kind      `db:"kind"`
	Genre       string    `db:"genre"`
	Locale      string    `db:"locale"`
	Year        *int      `db:"year"`
	Duration    *int      `db:"duration"`
	Rating      *float64  `db:"rating"`
	CreatedBy   int64     `db:"created_by"`
	CreatedAt   time.Time `db:"created_at"`
}

// NewEntry carries the fields of an entry that does not exist yet.
type NewEntry struct {
	Title       string   `yaml:"title" validate:"required,max=256"`
	Description string   `yaml:"description" validate:"max=4096"`
	MediaRef    string   `yaml:"media_ref" validate:"required"`
	PosterRef   string   `yaml:"poster_ref" validate:"omitempty,url"`
	Kind        Kind     `yaml:"kind" validate:"required"`
	Genre       string   `yaml:"genre" validate:"max=64"`
	Locale      string   `yaml:"locale"`
	Year        *int     `yaml:"year" validate:"omitempty,min=1888,max=2100"`
	Duration    *int     `yaml:"duration" validate:"omitempty,min=1,max=1000"`
	Rating      *float64 `yaml:"rating" validate:"omitempty,min=0,max=10"`
	CreatedBy   int64    `yaml:"-"`
}

// Summary is the {id, title} pair used by listings.
type Summary struct {
	ID    int64  `db:"id"`
	Title string `db:"title"`
}
