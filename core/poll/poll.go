// Package poll defines the poll entity, the draft accumulated during the
// creation dialogue, and the stores that persist finalized polls.
package poll

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrEmptyQuestion indicates a draft without a question.
	ErrEmptyQuestion = errors.New("poll: question must not be empty")
	// ErrTooFewOptions indicates fewer than two non-empty options.
	ErrTooFewOptions = errors.New("poll: at least two options are required")
	// ErrInvalidMaxVotes indicates vote limiting without a positive max votes value.
	ErrInvalidMaxVotes = errors.New("poll: max votes must be a positive integer")
)

// Draft accumulates poll fields while the creation dialogue is in progress.
// A draft is owned by exactly one session and is never shared.
type Draft struct {
	Question   string
	Options    []string
	Anonymous  bool
	LimitVotes bool
	// MaxVotes is meaningful only when LimitVotes is true.
	MaxVotes int
	// Voters holds ids of users who have cast a vote. It starts empty and is
	// mutated only by the voting subsystem.
	Voters map[int64]struct{}
}

// NewDraft returns an empty draft with an initialized voter set.
func NewDraft() Draft {
	return Draft{Voters: make(map[int64]struct{})}
}

// Validate reports whether the draft is well-formed for finalization.
func (d Draft) Validate() error {
	if d.Question == "" {
		return ErrEmptyQuestion
	}
	if len(d.Options) < 2 {
		return ErrTooFewOptions
	}
	if d.LimitVotes && d.MaxVotes <= 0 {
		return ErrInvalidMaxVotes
	}
	return nil
}

// Clone returns a deep copy of the draft so sessions can be copied safely.
func (d Draft) Clone() Draft {
	out := d
	if d.Options != nil {
		out.Options = append([]string(nil), d.Options...)
	}
	if d.Voters != nil {
		out.Voters = make(map[int64]struct{}, len(d.Voters))
		for id := range d.Voters {
			out.Voters[id] = struct{}{}
		}
	}
	return out
}

// Poll is a finalized poll entity.
type Poll struct {
	ID         int64     `db:"id"`
	Question   string    `db:"question"`
	Options    []string  `db:"-"`
	Anonymous  bool      `db:"anonymous"`
	LimitVotes bool      `db:"limit_votes"`
	MaxVotes   int       `db:"-"`
	CreatedAt  time.Time `db:"created_at"`
}

// Creator persists a finalized draft as a poll and returns its id.
// It is the finalization sink of the conversation engine.
type Creator interface {
	Create(ctx context.Context, d Draft) (int64, error)
}
