package logger

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	coreconfig "github.com/m3rciful/kinobot/core/config"
)

type format int

const (
	formatJSON format = iota
	formatText
)

// defaultOrder puts the fields operators grep for first. Keys not listed
// follow in alphabetical order.
var defaultOrder = []string{
	"ts", "level", "component", "event", "status",
	"rid", "update_id", "user_id", "chat_id", "handler",
	"state", "from", "to", "choice", "entry_id", "query",
	"results", "sent", "failed", "total", "duration_ms",
	"err", "err_kind",
}

type options struct {
	format   format
	level    slog.Level
	order    []string
	keep     int
	window   int
	trace    bool
	filePath string
	profile  string
}

func optionsFrom(cfg *coreconfig.Config) options {
	opts := options{
		level:   slog.LevelInfo,
		order:   defaultOrder,
		keep:    1,
		window:  50,
		trace:   truthy(os.Getenv("TRACE")) || truthy(os.Getenv("LOG_TRACE")),
		profile: "prod",
	}
	if cfg == nil {
		return opts
	}
	lc := cfg.Logging
	if p := strings.ToLower(strings.TrimSpace(lc.Profile)); p != "" {
		opts.profile = p
	}
	switch strings.ToLower(strings.TrimSpace(lc.Format)) {
	case "kv", "text", "pretty":
		opts.format = formatText
	case "json":
	default:
		if opts.profile == "debug" || opts.profile == "dev" {
			opts.format = formatText
		}
	}
	switch strings.ToLower(strings.TrimSpace(lc.Level)) {
	case "debug":
		opts.level = slog.LevelDebug
	case "warn", "warning":
		opts.level = slog.LevelWarn
	case "error":
		opts.level = slog.LevelError
	}
	if raw := strings.TrimSpace(lc.KeysOrder); raw != "" && raw != "default" {
		var order []string
		for _, k := range strings.Split(raw, ",") {
			if k = strings.TrimSpace(k); k != "" {
				order = append(order, k)
			}
		}
		if len(order) > 0 {
			opts.order = order
		}
	}
	if keep, window, ok := parseRatio(lc.DebugSample); ok {
		opts.keep, opts.window = keep, window
	}
	dir, file := strings.TrimSpace(lc.Dir), strings.TrimSpace(lc.BotFile)
	if dir != "" && file != "" {
		opts.filePath = filepath.Join(dir, file)
	}
	return opts
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}
