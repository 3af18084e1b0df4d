package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/kinobot/core/telegram/commands"
)

func TestRegistryLookupAndVisibility(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterCommand("/start", commands.Command{Description: "Start"}))
	require.NoError(t, reg.RegisterCommand("/stats", commands.Command{Description: "Stats", AdminOnly: true, Aliases: []string{"statistika"}}))
	assert.Error(t, reg.RegisterCommand("noslash", commands.Command{Description: "ignored"}))
	assert.Error(t, reg.RegisterCommand("/start", commands.Command{Description: "duplicate"}))
	assert.Error(t, reg.RegisterCommand("/statistika", commands.Command{Description: "clash"}))
	assert.Error(t, reg.RegisterCommand("/other", commands.Command{Description: "x", Aliases: []string{"start"}}))
	assert.Len(t, reg.Commands(), 2)

	key, cmd, ok := reg.LookupCommand("/statistika")
	require.True(t, ok)
	assert.Equal(t, "/stats", key)
	assert.True(t, cmd.AdminOnly)

	_, cmd, ok = reg.LookupCommand("start")
	require.True(t, ok)
	assert.Equal(t, "Start", cmd.Description)

	_, _, ok = reg.LookupCommand("/nope")
	assert.False(t, ok)

	visible := reg.ListCommands(true)
	require.Len(t, visible, 1)
	assert.Equal(t, "start", visible[0].Text)
	assert.Len(t, reg.ListCommands(false), 2)

	assert.Equal(t, []string{"/start", "/statistika", "/stats"}, reg.Endpoints())
}
