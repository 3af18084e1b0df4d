package logger

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/m3rciful/kinobot/core/buildinfo"
	coreconfig "github.com/m3rciful/kinobot/core/config"
)

var (
	initOnce sync.Once
	out      *sink
	levelVar slog.LevelVar
	debug    sampler
	trace    bool

	// L is the base logger. Component loggers below are derived from it.
	L *slog.Logger

	// DB logs database connection events.
	DB *slog.Logger
	// TG logs Telegram transport events.
	TG *slog.Logger
	// MIG logs schema migrations.
	MIG *slog.Logger
	// TWire logs route and middleware wiring.
	TWire *slog.Logger
	// SEED logs catalog seeding.
	SEED *slog.Logger
	// SVCCatalog logs catalog writes.
	SVCCatalog *slog.Logger
	// SVCUsers logs user registration and language changes.
	SVCUsers *slog.Logger
	// SVCSearch logs search queries.
	SVCSearch *slog.Logger
	// SVCWizard logs wizard transitions.
	SVCWizard *slog.Logger
	// SVCBroadcast logs broadcast fan-out.
	SVCBroadcast *slog.Logger
	// SVCImages logs image host uploads.
	SVCImages *slog.Logger
)

func init() {
	L = slog.Default()
	debug.set(1, 50)
	deriveComponents()
}

// Init installs the structured handler as the process-wide logger. Only the
// first call has any effect.
func Init(cfg *coreconfig.Config) error {
	initOnce.Do(func() {
		opts := optionsFrom(cfg)
		levelVar.Set(opts.level)
		debug.set(opts.keep, opts.window)
		trace = opts.trace

		out = newSink(os.Stdout)
		if opts.filePath != "" {
			// A log file that cannot be opened degrades to stdout only.
			if f, ferr := openLogFile(opts.filePath); ferr != nil {
				slog.Warn("log file unavailable", "path", opts.filePath, "err", ferr)
			} else {
				out.addFile(f)
			}
		}

		L = slog.New(newHandler(out, &levelVar, opts.format, opts.order))
		slog.SetDefault(L)
		deriveComponents()

		L.LogAttrs(context.Background(), slog.LevelInfo, "startup",
			slog.String("component", "app"),
			slog.String("event", "startup"),
			slog.String("go_version", runtime.Version()),
			slog.String("build_version", buildinfo.Version),
			slog.String("build_commit", buildinfo.Commit),
			slog.String("profile", opts.profile),
		)
	})
	return nil
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}

func deriveComponents() {
	DB = Component("db")
	TG = Component("tg")
	MIG = Component("db.migrate")
	TWire = Component("tg.wire")
	SEED = Component("db.seed")
	SVCCatalog = Component("service.catalog")
	SVCUsers = Component("service.users")
	SVCSearch = Component("service.search")
	SVCWizard = Component("service.wizard")
	SVCBroadcast = Component("service.broadcast")
	SVCImages = Component("service.images")
}

// Shutdown flushes and closes the log file. It is safe to call more than once.
func Shutdown() error {
	if out == nil {
		return nil
	}
	return out.close()
}

// Component returns L scoped to the given component name.
func Component(name string) *slog.Logger {
	name = strings.TrimSpace(name)
	if name == "" {
		return L
	}
	return L.With("component", name)
}

// LogEvent logs a message-less record whose event field is event. A nil log
// falls back to the logger carried by ctx.
func LogEvent(ctx context.Context, log *slog.Logger, level slog.Level, event string, attrs ...slog.Attr) {
	if log == nil {
		log = FromContext(ctx)
	}
	if event != "" {
		attrs = append([]slog.Attr{slog.String("event", event)}, attrs...)
	}
	log.LogAttrs(ctx, level, "", attrs...)
}

// Debug logs a debug event for component.
func Debug(ctx context.Context, component, event string, attrs ...slog.Attr) {
	LogEvent(ctx, Component(component), slog.LevelDebug, event, attrs...)
}

// Info logs an info event for component.
func Info(ctx context.Context, component, event string, attrs ...slog.Attr) {
	LogEvent(ctx, Component(component), slog.LevelInfo, event, attrs...)
}

// Warn logs a warning event for component.
func Warn(ctx context.Context, component, event string, attrs ...slog.Attr) {
	LogEvent(ctx, Component(component), slog.LevelWarn, event, attrs...)
}

// Error logs an error event for component.
func Error(ctx context.Context, component, event string, attrs ...slog.Attr) {
	LogEvent(ctx, Component(component), slog.LevelError, event, attrs...)
}

// ShouldSampleDebug reports whether a high-volume debug detail should be
// logged. TRACE=1 in the environment lets everything through.
func ShouldSampleDebug() bool {
	return trace || debug.allow()
}
