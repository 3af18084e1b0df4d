package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRows(t *testing.T) {
	var btns []Button
	for _, v := range []string{"1", "2", "3", "4", "5"} {
		btns = append(btns, ChoiceButton(v, "rating", v))
	}
	kb := Rows(btns, 2)
	require.Len(t, kb.Rows, 3)
	assert.Len(t, kb.Rows[2], 1)
	assert.Equal(t, Choice{Key: "rating", Value: "5"}, kb.Rows[2][0].Choice)

	assert.Len(t, Rows(btns, 0).Rows, 5)
}

func TestIsCommandText(t *testing.T) {
	assert.True(t, Event{Kind: KindText, Text: " /unknown"}.IsCommandText())
	assert.False(t, Event{Kind: KindText, Text: "Dune"}.IsCommandText())
	assert.False(t, Event{Kind: KindCommand, Text: "/start"}.IsCommandText())
}

func TestEventKindString(t *testing.T) {
	assert.Equal(t, "inline_query", KindInlineQuery.String())
	assert.Equal(t, "kind(99)", EventKind(99).String())
}
