package telegram

import "sync"

// Sequencer runs submitted jobs one at a time per key, in submission order.
// Jobs for different keys run concurrently. A key's goroutine exits once its
// lane is empty, so idle users cost nothing.
type Sequencer struct {
	mu     sync.Mutex
	lanes  map[int64]*lane
	closed bool
	wg     sync.WaitGroup
}

type lane struct {
	jobs []func()
}

// NewSequencer returns an empty Sequencer.
func NewSequencer() *Sequencer {
	return &Sequencer{lanes: make(map[int64]*lane)}
}

// Submit appends fn to the lane of key. It reports false after Close.
func (s *Sequencer) Submit(key int64, fn func()) bool {
	if fn == nil {
		return false
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	if l, ok := s.lanes[key]; ok {
		l.jobs = append(l.jobs, fn)
		s.mu.Unlock()
		return true
	}
	l := &lane{jobs: []func(){fn}}
	s.lanes[key] = l
	s.wg.Add(1)
	s.mu.Unlock()

	go s.drain(key, l)
	return true
}

func (s *Sequencer) drain(key int64, l *lane) {
	defer s.wg.Done()
	for {
		s.mu.Lock()
		if len(l.jobs) == 0 {
			delete(s.lanes, key)
			s.mu.Unlock()
			return
		}
		fn := l.jobs[0]
		l.jobs[0] = nil
		l.jobs = l.jobs[1:]
		s.mu.Unlock()

		fn()
	}
}

// Active reports how many keys currently have queued or running jobs.
func (s *Sequencer) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lanes)
}

// Close rejects new jobs and waits for queued ones to finish.
func (s *Sequencer) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.wg.Wait()
}
