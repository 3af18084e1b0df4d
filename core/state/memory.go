package state

import "sync"

// Store keeps one session value per user.
type Store[S any] interface {
	// Get returns the session for a user and whether one exists.
	Get(userID int64) (S, bool)
	// Put stores the session, replacing any previous one.
	Put(userID int64, s S)
	// Clear removes the session for a user. Clearing a missing session is a no-op.
	Clear(userID int64)
	// Len reports the number of active sessions.
	Len() int
}

type memoryStore[S any] struct {
	mu       sync.RWMutex
	sessions map[int64]S
}

// NewMemoryStore constructs an in-memory Store. Sessions do not survive restarts.
func NewMemoryStore[S any]() Store[S] {
	return &memoryStore[S]{
		sessions: make(map[int64]S),
	}
}

// Get returns the session for a user if it exists.
func (m *memoryStore[S]) Get(userID int64) (S, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[userID]
	return s, ok
}

// Put replaces the session for a user.
func (m *memoryStore[S]) Put(userID int64, s S) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[userID] = s
}

// Clear removes the entire session for a user.
func (m *memoryStore[S]) Clear(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
}

// Len reports how many users currently hold a session.
func (m *memoryStore[S]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
