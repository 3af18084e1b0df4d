// Package wizard implements the per-user multi-step dialogues: adding a
// catalog entry, editing an entry's title and composing a broadcast.
package wizard

import (
	"time"

	"github.com/m3rciful/kinobot/internal/catalog"
)

// State tags the step a session is waiting on.
type State string

const (
	ChoosingType          State = "choosing_type"
	EnteringTitle         State = "entering_title"
	EnteringDescription   State = "entering_description"
	ChoosingGenre         State = "choosing_genre"
	ChoosingYear          State = "choosing_year"
	ChoosingDuration      State = "choosing_duration"
	ChoosingRating        State = "choosing_rating"
	UploadingVideo        State = "uploading_video"
	UploadingPoster       State = "uploading_poster"
	Confirming            State = "confirming"
	AwaitingNewTitle      State = "awaiting_new_title"
	AwaitingBroadcastText State = "awaiting_broadcast_text"

	// Terminal states. Sessions never rest in them; they name the outcome
	// in logs.
	Committed State = "committed"
	Cancelled State = "cancelled"
	Sent      State = "sent"
)

// Flow names the wizard a session belongs to.
type Flow string

const (
	FlowAdd       Flow = "add"
	FlowEditTitle Flow = "edit_title"
	FlowBroadcast Flow = "broadcast"
)

// Draft holds the fields collected so far by the add wizard.
type Draft struct {
	Kind        catalog.Kind
	Title       string
	Description string
	Genre       string
	Year        *int
	Duration    *int
	Rating      *float64
	MediaRef    string
	PosterRef   string
}

// Session is one user's in-progress wizard.
type Session struct {
	Flow      Flow
	State     State
	Draft     Draft
	TargetID  int64
	Target    string
	StartedAt time.Time
}

// Entry converts the draft into a catalog entry owned by userID.
func (d Draft) Entry(userID int64) catalog.NewEntry {
	return catalog.NewEntry{
		Title:       d.Title,
		Description: d.Description,
		MediaRef:    d.MediaRef,
		PosterRef:   d.PosterRef,
		Kind:        d.Kind,
		Genre:       d.Genre,
		Locale:      catalog.DefaultLocale,
		Year:        d.Year,
		Duration:    d.Duration,
		Rating:      d.Rating,
		CreatedBy:   userID,
	}
}
