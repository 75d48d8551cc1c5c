package poll

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps finalized polls in memory. It backs tests and the
// database-less run mode.
type MemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	polls  map[int64]Poll
}

// NewMemoryStore constructs an empty in-memory poll store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{polls: make(map[int64]Poll)}
}

// Create validates the draft and stores it as a new poll.
func (s *MemoryStore) Create(_ context.Context, d Draft) (int64, error) {
	if err := d.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	p := Poll{
		ID:         s.nextID,
		Question:   d.Question,
		Options:    append([]string(nil), d.Options...),
		Anonymous:  d.Anonymous,
		LimitVotes: d.LimitVotes,
		CreatedAt:  time.Now(),
	}
	if d.LimitVotes {
		p.MaxVotes = d.MaxVotes
	}
	s.polls[p.ID] = p
	return p.ID, nil
}

// Get returns a stored poll by id.
func (s *MemoryStore) Get(id int64) (Poll, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.polls[id]
	return p, ok
}

// Len returns the number of stored polls.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.polls)
}
