package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
	tele "gopkg.in/telebot.v4"
)

func TestGetCountersDefaults(t *testing.T) {
	msgs, kb := GetCounters(newTextContext(1, "x"))
	assert.Zero(t, msgs)
	assert.False(t, kb)
}

func TestMessageMetricsMiddlewareCounts(t *testing.T) {
	c := newTextContext(1, "x")
	var seen tele.Context
	h := MessageMetricsMiddleware(func(c tele.Context) error {
		seen = c
		return nil
	})
	assert.NoError(t, h(c))

	wrapped, ok := seen.(countingContext)
	assert.True(t, ok)
	assert.NoError(t, wrapped.count(nil, nil))
	assert.NoError(t, wrapped.count(nil, []any{&tele.SendOptions{ReplyMarkup: &tele.ReplyMarkup{}}}))
	assert.Error(t, wrapped.count(assert.AnError, nil))

	msgs, kb := GetCounters(c)
	assert.Equal(t, 2, msgs)
	assert.True(t, kb)
}
