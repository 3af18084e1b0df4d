package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/m3rciful/kinobot/core/logger"
	"github.com/m3rciful/kinobot/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

// Registry holds the bot's slash commands. Names and aliases share one
// namespace and are stored with their leading slash.
type Registry struct {
	commands map[string]commands.Command
	aliases  map[string]string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		commands: make(map[string]commands.Command),
		aliases:  make(map[string]string),
	}
}

func slashed(name string) string {
	if strings.HasPrefix(name, "/") {
		return name
	}
	return "/" + name
}

// RegisterCommand adds cmd under name, which must start with a slash. A
// name or alias that is already taken is rejected and the first
// registration stays.
func (r *Registry) RegisterCommand(name string, cmd commands.Command) error {
	switch {
	case cmd.Description == "" || len(name) < 2:
		return fmt.Errorf("telegram: command %q needs a name and a description", name)
	case name[0] != '/':
		return fmt.Errorf("telegram: command %q must start with a slash", name)
	}
	if _, _, taken := r.LookupCommand(name); taken {
		return fmt.Errorf("telegram: command %s registered twice", name)
	}
	for _, alias := range cmd.Aliases {
		if _, _, taken := r.LookupCommand(alias); taken {
			return fmt.Errorf("telegram: alias %s of %s is already taken", slashed(alias), name)
		}
	}
	r.commands[name] = cmd
	for _, alias := range cmd.Aliases {
		r.aliases[slashed(alias)] = name
	}
	logger.LogEvent(context.Background(), logger.TWire, slog.LevelDebug, "register.command",
		slog.String("name", name),
		slog.Int("aliases", len(cmd.Aliases)),
	)
	return nil
}

// ListCommands returns the commands sorted by name. visibleOnly drops
// hidden and operator-only ones, which is what the public menu shows.
func (r *Registry) ListCommands(visibleOnly bool) []tele.Command {
	list := make([]tele.Command, 0, len(r.commands))
	for name, meta := range r.commands {
		if visibleOnly && (meta.Hidden || meta.AdminOnly) {
			continue
		}
		list = append(list, tele.Command{Text: strings.TrimPrefix(name, "/"), Description: meta.Description})
	}
	slices.SortFunc(list, func(a, b tele.Command) int { return strings.Compare(a.Text, b.Text) })
	return list
}

// LookupCommand resolves a name or alias, with or without the slash, to
// the canonical name and its metadata.
func (r *Registry) LookupCommand(name string) (string, commands.Command, bool) {
	name = slashed(name)
	if canonical, ok := r.aliases[name]; ok {
		name = canonical
	}
	cmd, ok := r.commands[name]
	if !ok {
		return "", commands.Command{}, false
	}
	return name, cmd, true
}

// Commands returns all registered commands keyed by canonical name.
func (r *Registry) Commands() map[string]commands.Command {
	return r.commands
}

// Endpoints lists every name telebot should route, aliases included, sorted.
func (r *Registry) Endpoints() []string {
	out := make([]string, 0, len(r.commands)+len(r.aliases))
	for name := range r.commands {
		out = append(out, name)
	}
	for alias := range r.aliases {
		out = append(out, alias)
	}
	slices.Sort(out)
	return out
}

// InitBotCommands publishes the visible commands as the bot's menu.
func InitBotCommands(bot *tele.Bot, reg *Registry) {
	if err := bot.SetCommands(reg.ListCommands(true)); err != nil {
		logger.LogEvent(context.Background(), logger.TWire, slog.LevelError, "register.commands.set_failed",
			slog.String("err", err.Error()),
		)
	}
}
