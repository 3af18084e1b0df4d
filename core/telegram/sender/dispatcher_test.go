package sender

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	tele "gopkg.in/telebot.v4"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func fastOptions() Options {
	return Options{Workers: 1, MaxRetries: 2, RetryBackoff: time.Millisecond, PerSecond: 1000}
}

func TestDoRetriesTransientFailures(t *testing.T) {
	d := NewDispatcher(fastOptions())
	defer d.Close()

	var calls int
	err := d.Do(context.Background(), Call{Action: "send.text", Endpoint: "sendMessage", Run: func() error {
		calls++
		if calls < 3 {
			return timeoutErr{}
		}
		return nil
	}})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Zero(t, d.Failures())
}

func TestDoStopsOnPermanentFailure(t *testing.T) {
	d := NewDispatcher(fastOptions())
	defer d.Close()

	var calls int
	err := d.Do(context.Background(), Call{Action: "send.text", Run: func() error {
		calls++
		return tele.ErrBlockedByUser
	}})
	assert.ErrorIs(t, err, tele.ErrBlockedByUser)
	assert.Equal(t, 1, calls)
	assert.EqualValues(t, 1, d.Failures())
}

func TestDoGivesUpAfterRetries(t *testing.T) {
	d := NewDispatcher(fastOptions())
	defer d.Close()

	var calls int
	err := d.Do(context.Background(), Call{Action: "send.photo", Run: func() error {
		calls++
		return timeoutErr{}
	}})
	assert.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoHonoursCancelledContext(t *testing.T) {
	d := NewDispatcher(fastOptions())
	defer d.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var calls int
	err := d.Do(ctx, Call{Action: "send.text", Run: func() error {
		calls++
		return nil
	}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}

func TestEnqueueDrainsOnClose(t *testing.T) {
	d := NewDispatcher(Options{Workers: 2, QueueSize: 8, PerSecond: 1000})

	var done atomic.Int32
	for range 5 {
		require.NoError(t, d.Enqueue(context.Background(), Call{Action: "callback.ack", Run: func() error {
			done.Add(1)
			return nil
		}}))
	}
	d.Close()
	d.Close()

	assert.EqualValues(t, 5, done.Load())
	err := d.Enqueue(context.Background(), Call{Action: "x", Run: func() error { return nil }})
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestClassify(t *testing.T) {
	cases := map[string]error{
		"timeout": context.DeadlineExceeded,
		"flood":   tele.FloodError{RetryAfter: 3},
		"blocked": tele.ErrBlockedByUser,
		"unknown": errors.New("boom"),
	}
	for want, err := range cases {
		assert.Equal(t, want, classify(err))
	}
	assert.Equal(t, 3*time.Second, floodWait(tele.FloodError{RetryAfter: 3}))
	assert.True(t, retryable(tele.FloodError{RetryAfter: 1}))
	assert.False(t, retryable(errors.New("bad request")))
}

func TestRedactHidesToken(t *testing.T) {
	err := errors.New(`Post "https://api.telegram.org/bot123456:AA-bb_cc/sendMessage": timeout`)
	assert.Equal(t, `Post "https://api.telegram.org/bot<redacted>/sendMessage": timeout`, redact(err))
}
