package dialog

import (
	"context"
	"testing"
)

func TestMemoryStoreCopiesOnReadAndWrite(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	sess, err := m.GetOrCreate(ctx, 1)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	sess.State = StateAwaitingQuestion
	sess.Draft.Question = "local only"

	// Mutating the returned copy must not leak into the store.
	stored, ok, _ := m.Peek(ctx, 1)
	if !ok {
		t.Fatal("session missing")
	}
	if stored.State != StateIdle || stored.Draft.Question != "" {
		t.Fatalf("store observed caller mutation: %+v", stored)
	}

	if err := m.Save(ctx, sess); err != nil {
		t.Fatalf("Save: %v", err)
	}
	sess.Draft.Question = "mutated after save"

	stored, _, _ = m.Peek(ctx, 1)
	if stored.Draft.Question != "local only" {
		t.Fatalf("store observed post-save mutation: %+v", stored)
	}

	// Two reads get independent copies.
	a, _, _ := m.Peek(ctx, 1)
	b, _, _ := m.Peek(ctx, 1)
	a.Draft.Options = append(a.Draft.Options, "x")
	if len(b.Draft.Options) != 0 {
		t.Fatal("reads share a draft")
	}
}

func TestMemoryStorePeekDoesNotCreate(t *testing.T) {
	m := NewMemoryStore()
	if _, ok, _ := m.Peek(context.Background(), 7); ok {
		t.Fatal("Peek created a session")
	}
	if m.ActiveCount() != 0 {
		t.Fatalf("ActiveCount = %d", m.ActiveCount())
	}
}

func TestMemoryStoreActiveCount(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	for id := int64(1); id <= 3; id++ {
		sess, _ := m.GetOrCreate(ctx, id)
		if id != 3 {
			sess.State = StateAwaitingOptions
		}
		if err := m.Save(ctx, sess); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	if got := m.ActiveCount(); got != 2 {
		t.Fatalf("ActiveCount = %d, want 2", got)
	}

	if err := m.Delete(ctx, 1); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got := m.ActiveCount(); got != 1 {
		t.Fatalf("ActiveCount after delete = %d, want 1", got)
	}
}
