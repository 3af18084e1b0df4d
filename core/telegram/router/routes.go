package router

import (
	"context"
	"log/slog"

	"github.com/m3rciful/kinobot/core/logger"
	tg "github.com/m3rciful/kinobot/core/telegram"
	"github.com/m3rciful/kinobot/core/telegram/callbacks"
	"github.com/m3rciful/kinobot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// Handlers receive updates after routing. Nil handlers drop their updates.
type Handlers struct {
	Command  tele.HandlerFunc
	Text     tele.HandlerFunc
	Callback tele.HandlerFunc
	Query    tele.HandlerFunc
	Media    tele.HandlerFunc
}

// Options configures Routes.
type Options struct {
	Registry  *tg.Registry
	Sequencer *tg.Sequencer
	Handlers  Handlers
	OnHandled HandledFunc
}

// Routes binds every registered command, plain text, callbacks, inline
// queries and media uploads to the configured handlers. With a Sequencer
// set, updates of one user are processed in arrival order off the poller
// goroutine.
func Routes(opts Options) []tg.Route {
	h := opts.Handlers
	var routes []tg.Route

	if opts.Registry != nil && h.Command != nil {
		for _, endpoint := range opts.Registry.Endpoints() {
			name := "command." + normalizeHandlerName(endpoint)
			routes = append(routes, tg.Route{
				Endpoint: endpoint,
				Handler:  opts.wrap(name, h.Command),
			})
		}
	}
	if h.Text != nil {
		routes = append(routes, tg.Route{Endpoint: tele.OnText, Handler: opts.wrap("text", h.Text)})
	}
	if h.Callback != nil {
		routes = append(routes, tg.Route{Endpoint: tele.OnCallback, Handler: opts.callback(h.Callback)})
	}
	if h.Query != nil {
		routes = append(routes, tg.Route{Endpoint: tele.OnQuery, Handler: opts.wrap("inline", h.Query)})
	}
	if h.Media != nil {
		routes = append(routes,
			tg.Route{Endpoint: tele.OnVideo, Handler: opts.wrap("media.video", h.Media)},
			tg.Route{Endpoint: tele.OnPhoto, Handler: opts.wrap("media.photo", h.Media)},
			tg.Route{Endpoint: tele.OnDocument, Handler: opts.wrap("media.document", h.Media)},
		)
	}

	commands := 0
	if opts.Registry != nil {
		commands = len(opts.Registry.Commands())
	}
	logger.TWire.LogAttrs(context.Background(), slog.LevelInfo, "tg.wire",
		slog.String("event", "complete"),
		slog.Int("commands", commands),
		slog.Int("routes", len(routes)),
		slog.Bool("sequenced", opts.Sequencer != nil),
	)
	return routes
}

func (o Options) wrap(name string, h tele.HandlerFunc) tele.HandlerFunc {
	return o.sequenced(func(c tele.Context) error {
		return handleWithSummary(c, name, o.OnHandled, func() error {
			return h(c)
		})
	})
}

func (o Options) callback(h tele.HandlerFunc) tele.HandlerFunc {
	return o.sequenced(func(c tele.Context) error {
		if c.Callback() == nil {
			return nil
		}
		key, _ := callbacks.ParseCallbackData(c.Callback())
		name := "callback." + normalizeHandlerName(key)
		return handleWithSummary(c, name, o.OnHandled, func() error {
			return h(c)
		})
	})
}

func (o Options) sequenced(h tele.HandlerFunc) tele.HandlerFunc {
	h = middleware.RecoverMiddleware(h)
	if o.Sequencer == nil {
		return h
	}
	return func(c tele.Context) error {
		key := laneKey(c)
		if !o.Sequencer.Submit(key, func() { _ = h(c) }) {
			logger.LogEvent(context.Background(), logger.TG, slog.LevelWarn, "tg.sequencer_closed",
				slog.Int64("user_id", key),
			)
		}
		return nil
	}
}

func laneKey(c tele.Context) int64 {
	if u := c.Sender(); u != nil {
		return u.ID
	}
	if ch := c.Chat(); ch != nil {
		return ch.ID
	}
	return 0
}
