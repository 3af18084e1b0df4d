package bot

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/m3rciful/kinobot/core/logger"
	tg "github.com/m3rciful/kinobot/core/telegram"
	"github.com/m3rciful/kinobot/core/telegram/commands"
	"github.com/m3rciful/kinobot/core/telegram/helpers"
	"github.com/m3rciful/kinobot/core/telegram/middleware"
	"github.com/m3rciful/kinobot/core/telegram/router"
	"github.com/m3rciful/kinobot/core/telegram/ui"
	"github.com/m3rciful/kinobot/internal/chat"
	"github.com/m3rciful/kinobot/internal/dialog"

	tele "gopkg.in/telebot.v4"
)

// Handler consumes chat events.
type Handler interface {
	Handle(ctx context.Context, ev chat.Event, out chat.Responder) error
}

// ReplyObserver is told how many messages an update produced.
type ReplyObserver interface {
	ObserveReplies(n int, keyboard bool)
}

// RegisterCommands adds specs to reg, operator commands hidden from the
// public command menu.
func RegisterCommands(reg *tg.Registry, specs []dialog.CommandSpec) error {
	var errs []error
	for _, s := range specs {
		errs = append(errs, reg.RegisterCommand("/"+s.Name, commands.Command{
			Description: s.Description,
			AdminOnly:   s.Operator,
			Aliases:     s.Aliases,
		}))
	}
	return errors.Join(errs...)
}

// Adapter feeds telebot updates to a Handler.
type Adapter struct {
	registry *tg.Registry
	handler  Handler
	observer ReplyObserver
}

// NewAdapter returns an Adapter. observer may be nil.
func NewAdapter(reg *tg.Registry, h Handler, observer ReplyObserver) *Adapter {
	return &Adapter{registry: reg, handler: h, observer: observer}
}

// Handlers binds every update kind to the adapter.
func (a *Adapter) Handlers() router.Handlers {
	return router.Handlers{
		Command:  a.handle,
		Text:     a.handle,
		Callback: a.handle,
		Query:    a.handle,
		Media:    a.handle,
	}
}

func (a *Adapter) handle(c tele.Context) error {
	ev, ok := EventFrom(c, a.registry)
	if !ok {
		return helpers.RespondAsync(c, nil)
	}
	ctx := helpers.BuildContext(c)
	out := &responder{c: c}

	err := a.handler.Handle(ctx, ev, out)

	if ev.Kind == chat.KindChoice && !out.acked {
		if aerr := helpers.RespondAsync(c, nil); aerr != nil {
			logger.LogEvent(ctx, logger.TG, slog.LevelDebug, "callback.ack_failed",
				slog.String("err", aerr.Error()),
			)
		}
	}
	if a.observer != nil {
		a.observer.ObserveReplies(middleware.GetCounters(c))
	}
	return err
}

// responder answers the update held in c.
type responder struct {
	c     tele.Context
	acked bool
}

func (r *responder) Reply(ctx context.Context, rep chat.Reply) error {
	o := render(rep)
	if o.notice != "" {
		if err := helpers.NotifyAsync(r.c, o.notice); err != nil {
			logger.Debug(ctx, "tg.sender", "chat_action.fail",
				slog.String("action", string(o.notice)),
				slog.String("err", err.Error()),
			)
		}
	}
	return helpers.Send(r.c, o.action, o.what, o.opts)
}

func (r *responder) Ack(_ context.Context, text string) error {
	r.acked = true
	var resp *tele.CallbackResponse
	if text != "" {
		resp = &tele.CallbackResponse{Text: text}
	}
	return helpers.RespondAsync(r.c, resp)
}

func (r *responder) AnswerInline(ctx context.Context, results []chat.InlineResult) error {
	cards := make([]ui.Article, 0, len(results))
	for _, res := range results {
		cards = append(cards, ui.Article{
			ID:          uuid.NewString(),
			Title:       res.Title,
			Description: res.Description,
			ThumbURL:    res.ThumbURL,
			Text:        res.Text,
		})
	}
	resp := &tele.QueryResponse{
		Results:    ui.ArticleResults(cards),
		CacheTime:  0,
		IsPersonal: true,
	}
	return helpers.Do(ctx, "inline.answer", "answerInlineQuery", func() error {
		return r.c.Answer(resp)
	})
}
