package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
	tele "gopkg.in/telebot.v4"
)

func newTextContext(userID int64, text string) tele.Context {
	msg := &tele.Message{
		Text:   text,
		Sender: &tele.User{ID: userID},
		Chat:   &tele.Chat{ID: userID},
	}
	return tele.NewContext(nil, tele.Update{ID: 1, Message: msg})
}

func TestRateLimitDropsBurst(t *testing.T) {
	var calls, limited int
	mw := RateLimitMiddleware(RateLimitOptions{
		Interval:  time.Hour,
		OnLimited: func(tele.Context) error { limited++; return nil },
	})
	h := mw(func(tele.Context) error { calls++; return nil })

	assert.NoError(t, h(newTextContext(1, "a")))
	assert.NoError(t, h(newTextContext(1, "b")))
	assert.NoError(t, h(newTextContext(2, "c")))

	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, limited)
}

func TestRateLimitExclusions(t *testing.T) {
	var calls int
	mw := RateLimitMiddleware(RateLimitOptions{
		Interval: time.Hour,
		Exclude:  map[string]struct{}{"message": {}},
	})
	h := mw(func(tele.Context) error { calls++; return nil })
	for i := 0; i < 3; i++ {
		_ = h(newTextContext(1, "x"))
	}
	assert.Equal(t, 3, calls)
}

func TestRecoverMiddlewareReturnsError(t *testing.T) {
	h := RecoverMiddleware(func(tele.Context) error { panic("boom") })
	err := h(newTextContext(1, "x"))
	assert.ErrorContains(t, err, "boom")
}

func TestUpdateKind(t *testing.T) {
	assert.Equal(t, "callback", UpdateKind(tele.Update{Callback: &tele.Callback{}}))
	assert.Equal(t, "inline_query", UpdateKind(tele.Update{Query: &tele.Query{}}))
	assert.Equal(t, "message", UpdateKind(tele.Update{Message: &tele.Message{}}))
	assert.Equal(t, "other", UpdateKind(tele.Update{}))
}

func TestUserBucketsSweepIdleUsers(t *testing.T) {
	u := &userBuckets{every: rate.Every(time.Second), buckets: make(map[int64]*bucket)}
	start := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	assert.True(t, u.allow(1, start))
	assert.False(t, u.allow(1, start.Add(100*time.Millisecond)))
	assert.True(t, u.allow(2, start))

	later := start.Add(2 * time.Minute)
	assert.True(t, u.allow(3, later))
	assert.Len(t, u.buckets, 1)
}
