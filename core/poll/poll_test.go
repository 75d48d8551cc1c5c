package poll

import (
	"context"
	"errors"
	"testing"
)

func validDraft() Draft {
	d := NewDraft()
	d.Question = "Q?"
	d.Options = []string{"a", "b"}
	return d
}

func TestDraftValidate(t *testing.T) {
	if err := validDraft().Validate(); err != nil {
		t.Fatalf("valid draft rejected: %v", err)
	}

	d := validDraft()
	d.Question = ""
	if err := d.Validate(); !errors.Is(err, ErrEmptyQuestion) {
		t.Fatalf("empty question: %v", err)
	}

	d = validDraft()
	d.Options = []string{"only"}
	if err := d.Validate(); !errors.Is(err, ErrTooFewOptions) {
		t.Fatalf("single option: %v", err)
	}

	d = validDraft()
	d.LimitVotes = true
	if err := d.Validate(); !errors.Is(err, ErrInvalidMaxVotes) {
		t.Fatalf("limit without max votes: %v", err)
	}
	d.MaxVotes = 1
	if err := d.Validate(); err != nil {
		t.Fatalf("limited draft rejected: %v", err)
	}

	d = validDraft()
	d.MaxVotes = -5
	if err := d.Validate(); err != nil {
		t.Fatalf("max votes ignored when limiting disabled: %v", err)
	}
}

func TestDraftClone(t *testing.T) {
	d := validDraft()
	d.Voters[42] = struct{}{}

	c := d.Clone()
	c.Options[0] = "changed"
	c.Voters[99] = struct{}{}

	if d.Options[0] != "a" {
		t.Fatalf("options shared: %v", d.Options)
	}
	if _, ok := d.Voters[99]; ok {
		t.Fatal("voters shared")
	}
}

func TestMemoryStoreCreate(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	id1, err := s.Create(ctx, validDraft())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	id2, err := s.Create(ctx, validDraft())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if id1 == id2 {
		t.Fatalf("ids not unique: %d", id1)
	}
	if s.Len() != 2 {
		t.Fatalf("Len = %d", s.Len())
	}

	p, ok := s.Get(id1)
	if !ok || p.Question != "Q?" {
		t.Fatalf("Get(%d) = %+v, %v", id1, p, ok)
	}

	bad := NewDraft()
	if _, err := s.Create(ctx, bad); !errors.Is(err, ErrEmptyQuestion) {
		t.Fatalf("invalid draft accepted: %v", err)
	}
}
