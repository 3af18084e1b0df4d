// Package dialog routes inbound chat events to the wizard, the search
// engine and the stateless command handlers.
package dialog

import (
	"context"
	"log/slog"

	"github.com/m3rciful/kinobot/core/logger"
	"github.com/m3rciful/kinobot/internal/apperr"
	"github.com/m3rciful/kinobot/internal/catalog"
	"github.com/m3rciful/kinobot/internal/chat"
	"github.com/m3rciful/kinobot/internal/search"
	"github.com/m3rciful/kinobot/internal/wizard"
)

// Catalog is the catalog store as seen by the router.
type Catalog interface {
	Get(ctx context.Context, id int64) (catalog.Entry, error)
	Delete(ctx context.Context, id int64) error
	ListAll(ctx context.Context) ([]catalog.Summary, error)
	Count(ctx context.Context) (int, error)
}

// Users is the user registry as seen by the router.
type Users interface {
	Register(ctx context.Context, id int64) error
	SetLocale(ctx context.Context, id int64, locale string) error
	Locale(ctx context.Context, id int64) string
	Count(ctx context.Context) (int, error)
}

// Searcher answers title searches.
type Searcher interface {
	Search(ctx context.Context, query, locale string) ([]search.Result, error)
}

// Config holds presentation settings and the operator allow-list.
type Config struct {
	Operators []int64
	// BannerURL is the welcome photo; empty sends text only.
	BannerURL string
	// DefaultThumbURL is the inline thumbnail for entries without a usable poster.
	DefaultThumbURL string
}

// Router dispatches events. It keeps no per-user state of its own.
type Router struct {
	cfg       Config
	operators map[int64]struct{}
	catalog   Catalog
	users     Users
	search    Searcher
	wizard    *wizard.Machine
}

// New returns a Router.
func New(cfg Config, cat Catalog, users Users, searcher Searcher, wiz *wizard.Machine) *Router {
	ops := make(map[int64]struct{}, len(cfg.Operators))
	for _, id := range cfg.Operators {
		ops[id] = struct{}{}
	}
	return &Router{
		cfg:       cfg,
		operators: ops,
		catalog:   cat,
		users:     users,
		search:    searcher,
		wizard:    wiz,
	}
}

// IsOperator reports whether userID is on the allow-list.
func (r *Router) IsOperator(userID int64) bool {
	_, ok := r.operators[userID]
	return ok
}

// Handle dispatches ev and answers through out. Domain errors become user
// messages and are not returned; anything else is reported to the user as a
// generic failure and returned for logging.
func (r *Router) Handle(ctx context.Context, ev chat.Event, out chat.Responder) error {
	err := r.dispatch(ctx, ev, out)
	if err == nil {
		return nil
	}
	if text, ok := userMessage(err); ok {
		logger.LogEvent(ctx, logger.TG, slog.LevelDebug, "dialog.rejected",
			slog.Int64("user_id", ev.UserID),
			slog.String("kind", ev.Kind.String()),
			slog.String("err_code", string(apperr.KindOf(err))),
		)
		if ev.Kind == chat.KindInlineQuery {
			return nil
		}
		return out.Reply(ctx, chat.Reply{Text: text})
	}
	if ev.Kind != chat.KindInlineQuery {
		if rerr := out.Reply(ctx, chat.Reply{Text: textFailure}); rerr != nil {
			logger.LogEvent(ctx, logger.TG, slog.LevelWarn, "dialog.failure_reply_failed",
				slog.String("err", rerr.Error()),
			)
		}
	}
	return err
}

func (r *Router) dispatch(ctx context.Context, ev chat.Event, out chat.Responder) error {
	switch ev.Kind {
	case chat.KindCommand:
		return r.command(ctx, ev, out)
	case chat.KindInlineQuery:
		return r.inline(ctx, ev, out)
	case chat.KindChoice:
		if wizard.OwnsChoice(ev.Choice.Key) {
			return r.wizard.Handle(ctx, ev, out)
		}
		return r.choice(ctx, ev, out)
	}

	if _, active := r.wizard.Active(ev.UserID); active {
		return r.wizard.Handle(ctx, ev, out)
	}
	switch {
	case ev.Kind == chat.KindText && ev.IsCommandText():
		return out.Reply(ctx, chat.Reply{Text: textUnknownCommand})
	case ev.Kind == chat.KindText:
		return r.searchText(ctx, ev, out)
	}
	return out.Reply(ctx, chat.Reply{Text: textSendTitle})
}

// requireOperator gates privileged actions.
func (r *Router) requireOperator(ev chat.Event, op string) error {
	if r.IsOperator(ev.UserID) {
		return nil
	}
	return apperr.New(apperr.KindUnauthorized, op, "")
}

func userMessage(err error) (string, bool) {
	msg := apperr.Message(err)
	switch apperr.KindOf(err) {
	case apperr.KindUnauthorized:
		return textUnauthorized, true
	case apperr.KindNotFound:
		return textNotFound, true
	case apperr.KindValidation, apperr.KindMalformedInput, apperr.KindInvalidQuery, apperr.KindUpload:
		if msg == "" {
			return textInvalidInput, true
		}
		return "❌ " + msg, true
	}
	return "", false
}
