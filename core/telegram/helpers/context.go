package helpers

import (
	"context"

	"github.com/m3rciful/kinobot/core/logger"

	tele "gopkg.in/telebot.v4"
)

const contextKey = "log_ctx"

// BuildContext returns the log context of the current update, creating it
// on first use. It carries a rid of the form update:chat:user together with
// the raw ids.
func BuildContext(c tele.Context) context.Context {
	if ctx, ok := c.Get(contextKey).(context.Context); ok {
		return ctx
	}
	var chatID, userID int64
	if chat := c.Chat(); chat != nil {
		chatID = chat.ID
	}
	if user := c.Sender(); user != nil {
		userID = user.ID
	}
	updateID := c.Update().ID

	ctx := logger.WithRID(context.Background(), logger.BuildRID(updateID, chatID, userID))
	ctx = logger.WithUpdateMeta(ctx, updateID, userID, chatID)
	ctx = logger.WithLogger(ctx, logger.TG)
	c.Set(contextKey, ctx)
	return ctx
}

// WithHandler adds the route name to the update's log context.
func WithHandler(c tele.Context, handler string) context.Context {
	ctx := BuildContext(c)
	if handler == "" {
		return ctx
	}
	ctx = logger.WithHandler(ctx, handler)
	c.Set(contextKey, ctx)
	return ctx
}
