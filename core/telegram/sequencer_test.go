package telegram

import (
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestSequencerKeepsPerKeyOrder(t *testing.T) {
	seq := NewSequencer()

	var (
		mu  sync.Mutex
		got = map[int64][]int{}
	)
	for i := 0; i < 50; i++ {
		for _, key := range []int64{1, 2, 3} {
			i, key := i, key
			if !seq.Submit(key, func() {
				if i%7 == 0 {
					time.Sleep(time.Millisecond)
				}
				mu.Lock()
				got[key] = append(got[key], i)
				mu.Unlock()
			}) {
				t.Fatal("submit rejected before close")
			}
		}
	}
	seq.Close()

	for _, key := range []int64{1, 2, 3} {
		if len(got[key]) != 50 {
			t.Fatalf("key %d ran %d jobs, want 50", key, len(got[key]))
		}
		for i, v := range got[key] {
			if v != i {
				t.Fatalf("key %d out of order at %d: %v", key, i, got[key])
			}
		}
	}
	if seq.Active() != 0 {
		t.Fatalf("active lanes = %d after close", seq.Active())
	}
}

func TestSequencerRunsKeysConcurrently(t *testing.T) {
	seq := NewSequencer()
	defer seq.Close()

	release := make(chan struct{})
	done := make(chan struct{})
	seq.Submit(1, func() { <-release })
	seq.Submit(2, func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("key 2 was blocked by key 1")
	}
	close(release)
}

func TestSequencerRejectsAfterClose(t *testing.T) {
	seq := NewSequencer()
	seq.Close()
	if seq.Submit(1, func() {}) {
		t.Fatal("submit accepted after close")
	}
}
