package dialog

import (
	"context"

	"pollbot/core/poll"
)

// State identifies which input the engine currently expects from a session.
type State string

const (
	// StateIdle indicates there is no active dialogue.
	StateIdle State = "idle"
	// StateAwaitingQuestion expects the poll question as free text.
	StateAwaitingQuestion State = "awaiting_question"
	// StateAwaitingOptions expects a comma-separated option list.
	StateAwaitingOptions State = "awaiting_options"
	// StateAwaitingAnonymous expects the anonymous yes/no button choice.
	StateAwaitingAnonymous State = "awaiting_anonymous"
	// StateAwaitingLimit expects the vote-limit yes/no button choice.
	StateAwaitingLimit State = "awaiting_limit"
	// StateAwaitingMaxVotes expects the maximum votes per user as free text.
	StateAwaitingMaxVotes State = "awaiting_max_votes"
)

// Active reports whether the state is part of an in-progress dialogue.
// Finalized and cancelled dialogues have no state: their sessions are deleted.
func (s State) Active() bool {
	return s != StateIdle && s != ""
}

// Session is one user's in-progress poll-creation dialogue.
type Session struct {
	ID    int64
	State State
	Draft poll.Draft
}

// Clone returns a deep copy so stores can hand out sessions without sharing
// mutable draft internals.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Draft = s.Draft.Clone()
	return &out
}

// Store is the session persistence contract. Implementations do no locking
// across calls; the engine serializes access per session id.
type Store interface {
	// GetOrCreate returns the existing session or inserts a fresh idle one.
	GetOrCreate(ctx context.Context, id int64) (*Session, error)
	// Peek returns the session without creating it.
	Peek(ctx context.Context, id int64) (*Session, bool, error)
	// Save persists the session, replacing any prior entry for its id.
	Save(ctx context.Context, s *Session) error
	// Delete removes a session on cancellation or finalization.
	Delete(ctx context.Context, id int64) error
}
