package commands

// Command describes a slash command exposed by the bot.
// The canonical name is the registry key; Aliases are extra endpoints that
// resolve to the same command.
type Command struct {
	Description string
	AdminOnly   bool
	Hidden      bool
	Aliases     []string
}
