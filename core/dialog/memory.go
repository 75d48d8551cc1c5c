package dialog

import (
	"context"
	"sync"

	"pollbot/core/poll"
)

// MemoryStore is the in-memory Store implementation used in production runs
// and tests. Sessions are copied on the way in and out so two events can
// never observe each other's half-applied mutations.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
}

// NewMemoryStore constructs an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[int64]*Session)}
}

// GetOrCreate returns a copy of the existing session or inserts an idle one.
func (m *MemoryStore) GetOrCreate(_ context.Context, id int64) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sess, ok := m.sessions[id]; ok {
		return sess.Clone(), nil
	}
	sess := &Session{ID: id, State: StateIdle, Draft: poll.NewDraft()}
	m.sessions[id] = sess
	return sess.Clone(), nil
}

// Peek returns a copy of the session if it exists.
func (m *MemoryStore) Peek(_ context.Context, id int64) (*Session, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[id]
	if !ok {
		return nil, false, nil
	}
	return sess.Clone(), true, nil
}

// Save replaces the stored session for the given id.
func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s.Clone()
	return nil
}

// Delete removes the session for the given id.
func (m *MemoryStore) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// ActiveCount returns the number of sessions with an in-progress dialogue.
func (m *MemoryStore) ActiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, sess := range m.sessions {
		if sess.State.Active() {
			n++
		}
	}
	return n
}
