package broadcast

import (
	"context"
	"errors"
	"iter"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/m3rciful/kinobot/internal/chat"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type staticRecipients struct {
	ids []int64
	err error
}

func (s staticRecipients) AllIDs(context.Context) iter.Seq2[int64, error] {
	return func(yield func(int64, error) bool) {
		for _, id := range s.ids {
			if !yield(id, nil) {
				return
			}
		}
		if s.err != nil {
			yield(0, s.err)
		}
	}
}

type recordingSender struct {
	mu     sync.Mutex
	fail   map[int64]bool
	got    []int64
	active int
	peak   int
}

func (s *recordingSender) SendTo(_ context.Context, id int64, _ chat.Reply) error {
	s.mu.Lock()
	s.active++
	s.peak = max(s.peak, s.active)
	s.mu.Unlock()

	time.Sleep(time.Millisecond)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.active--
	if s.fail[id] {
		return errors.New("blocked by user")
	}
	s.got = append(s.got, id)
	return nil
}

func TestBroadcastSkipsFailures(t *testing.T) {
	snd := &recordingSender{fail: map[int64]bool{2: true}}
	b := New(staticRecipients{ids: []int64{1, 2, 3}}, snd, Options{Interval: time.Millisecond})

	rep, err := b.Broadcast(context.Background(), chat.Reply{Text: "hi"})
	require.NoError(t, err)
	assert.Equal(t, Report{Sent: 2, Failed: 1, Total: 3}, rep)
	assert.Equal(t, []int64{1, 3}, snd.got)
}

func TestBroadcastRespectsWorkerLimit(t *testing.T) {
	ids := make([]int64, 20)
	for i := range ids {
		ids[i] = int64(i + 1)
	}
	snd := &recordingSender{}
	b := New(staticRecipients{ids: ids}, snd, Options{Interval: time.Microsecond, Workers: 3})

	rep, err := b.Broadcast(context.Background(), chat.Reply{Text: "hi"})
	require.NoError(t, err)
	assert.Equal(t, 20, rep.Sent)
	assert.LessOrEqual(t, snd.peak, 3)
}

func TestBroadcastThrottles(t *testing.T) {
	snd := &recordingSender{}
	b := New(staticRecipients{ids: []int64{1, 2, 3, 4, 5}}, snd, Options{Interval: 20 * time.Millisecond})

	start := time.Now()
	_, err := b.Broadcast(context.Background(), chat.Reply{Text: "hi"})
	require.NoError(t, err)
	// The first token is immediate; four more need at least 4 intervals.
	assert.GreaterOrEqual(t, time.Since(start), 70*time.Millisecond)
}

func TestBroadcastReportsRecipientError(t *testing.T) {
	boom := errors.New("db down")
	snd := &recordingSender{}
	b := New(staticRecipients{ids: []int64{1}, err: boom}, snd, Options{Interval: time.Millisecond})

	rep, err := b.Broadcast(context.Background(), chat.Reply{Text: "hi"})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, rep.Sent)
}

func TestBroadcastStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b := New(staticRecipients{ids: []int64{1, 2}}, &recordingSender{}, Options{Interval: time.Hour})

	rep, err := b.Broadcast(ctx, chat.Reply{Text: "hi"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, rep.Total)
}
