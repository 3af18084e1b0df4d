package logger

import (
	"strconv"
	"strings"
	"sync/atomic"
)

// sampler lets through keep out of every window events. A zero window
// disables sampling.
type sampler struct {
	keep   atomic.Int64
	window atomic.Int64
	seen   atomic.Uint64
}

func (s *sampler) set(keep, window int) {
	if keep <= 0 || window <= 0 {
		keep, window = 0, 0
	}
	if keep > window {
		keep = window
	}
	s.keep.Store(int64(keep))
	s.window.Store(int64(window))
	s.seen.Store(0)
}

func (s *sampler) allow() bool {
	window := s.window.Load()
	if window == 0 {
		return true
	}
	pos := int64((s.seen.Add(1) - 1) % uint64(window))
	return pos < s.keep.Load()
}

// parseRatio accepts "k/n" or "n" (meaning 1/n). ok is false for anything
// unparseable; "0" and "0/n" disable sampling.
func parseRatio(raw string) (keep, window int, ok bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, 0, false
	}
	if k, n, found := strings.Cut(raw, "/"); found {
		kv, err1 := strconv.Atoi(strings.TrimSpace(k))
		nv, err2 := strconv.Atoi(strings.TrimSpace(n))
		if err1 != nil || err2 != nil || nv < 0 || kv < 0 {
			return 0, 0, false
		}
		return kv, nv, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, 0, false
	}
	if n == 0 {
		return 0, 0, true
	}
	return 1, n, true
}
