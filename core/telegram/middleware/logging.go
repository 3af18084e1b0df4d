package middleware

import (
	"log/slog"

	"github.com/m3rciful/kinobot/core/logger"
	"github.com/m3rciful/kinobot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/kinobot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// LoggerMiddleware prepares the per-update log context (rid plus update,
// user and chat ids) for everything downstream and logs a sampled debug
// line describing the update.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := tghelpers.BuildContext(c)
		if logger.ShouldSampleDebug() {
			logger.LogEvent(ctx, logger.TG, slog.LevelDebug, "update.received", describeUpdate(c)...)
		}
		return next(c)
	}
}

func describeUpdate(c tele.Context) []slog.Attr {
	var attrs []slog.Attr
	if chat := c.Chat(); chat != nil {
		attrs = append(attrs, slog.String("chat_type", string(chat.Type)))
	}
	if user := c.Sender(); user != nil && user.LanguageCode != "" {
		attrs = append(attrs, slog.String("lang", user.LanguageCode))
	}
	upd := c.Update()
	switch {
	case upd.Callback != nil:
		key, payload := callbacks.ParseCallbackData(upd.Callback)
		attrs = append(attrs,
			slog.String("kind", "callback"),
			slog.String("choice", logger.SanitizeLimit(key, 64)),
			slog.String("payload", logger.SanitizeLimit(payload, 128)),
		)
	case upd.Query != nil:
		attrs = append(attrs,
			slog.String("kind", "inline_query"),
			slog.String("query", logger.SanitizeLimit(upd.Query.Text, 128)),
		)
	case upd.Message != nil:
		attrs = append(attrs, slog.String("kind", messageKind(upd.Message)))
		if t := upd.Message.Text; t != "" {
			attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(t, 128)))
		}
	}
	return attrs
}

func messageKind(m *tele.Message) string {
	switch {
	case m.Video != nil:
		return "video"
	case m.Photo != nil:
		return "photo"
	case m.Document != nil:
		return "document"
	}
	return "text"
}
