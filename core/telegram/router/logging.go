package router

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/m3rciful/kinobot/core/logger"
	tghelpers "github.com/m3rciful/kinobot/core/telegram/helpers"
	"github.com/m3rciful/kinobot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// HandledFunc observes a finished handler run.
type HandledFunc func(handler string, err error, took time.Duration)

// handleWithSummary runs fn under the handler name and logs one
// handler.handled line with what was sent and how long it took.
func handleWithSummary(c tele.Context, name string, onHandled HandledFunc, fn func() error) error {
	start := time.Now()
	ctx := tghelpers.WithHandler(c, name)
	err := fn()
	took := logger.Took(start)

	msgs, kb := middleware.GetCounters(c)
	attrs := []slog.Attr{
		slog.String("status", logger.Status(err)),
		slog.Int("messages", msgs),
		slog.Bool("kb", kb),
		slog.Duration("duration", took),
	}
	level := slog.LevelInfo
	if err != nil {
		level = slog.LevelWarn
		attrs = append(attrs,
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			slog.String("err_kind", errorKind(err)),
		)
	}
	logger.LogEvent(ctx, logger.TG, level, "handler.handled", attrs...)
	if onHandled != nil {
		onHandled(name, err, took)
	}
	return err
}

func normalizeHandlerName(name string) string {
	name = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "/"))
	if name == "" {
		return "unknown"
	}
	return strings.ReplaceAll(name, " ", "_")
}

// errorKind prefers a Code() string from the error chain, as exposed by
// the application error type.
func errorKind(err error) string {
	var coded interface{ Code() string }
	if errors.As(err, &coded) {
		if code := strings.TrimSpace(coded.Code()); code != "" {
			return code
		}
	}
	return "internal"
}
