package logger

import (
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	coreconfig "github.com/m3rciful/kinobot/core/config"
)

func TestOptionsFrom(t *testing.T) {
	t.Setenv("TRACE", "")
	t.Setenv("LOG_TRACE", "")

	opts := optionsFrom(nil)
	assert.Equal(t, formatJSON, opts.format)
	assert.Equal(t, slog.LevelInfo, opts.level)
	assert.Equal(t, "prod", opts.profile)

	opts = optionsFrom(&coreconfig.Config{Logging: coreconfig.LoggingConfig{
		Level:       "warning",
		Profile:     "Dev",
		KeysOrder:   "event, level",
		DebugSample: "2/10",
		Dir:         "/var/log/kinobot",
		BotFile:     "bot.log",
	}})
	assert.Equal(t, formatText, opts.format)
	assert.Equal(t, slog.LevelWarn, opts.level)
	assert.Equal(t, []string{"event", "level"}, opts.order)
	assert.Equal(t, 2, opts.keep)
	assert.Equal(t, 10, opts.window)
	assert.Equal(t, filepath.Join("/var/log/kinobot", "bot.log"), opts.filePath)

	t.Setenv("TRACE", "on")
	assert.True(t, optionsFrom(nil).trace)
}
