package dialog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"pollbot/core/poll"
)

func newTestEngine() (*Engine, *MemoryStore, *poll.MemoryStore) {
	sessions := NewMemoryStore()
	polls := poll.NewMemoryStore()
	return NewEngine(sessions, polls), sessions, polls
}

func mustHandle(t *testing.T, e *Engine, id int64, ev Event) Instruction {
	t.Helper()
	ins, err := e.HandleEvent(context.Background(), id, ev)
	if err != nil {
		t.Fatalf("HandleEvent(%+v): %v", ev, err)
	}
	return ins
}

func TestFullDialogueWithVoteLimit(t *testing.T) {
	e, sessions, polls := newTestEngine()
	const id int64 = 100

	ins := mustHandle(t, e, id, CommandEvent("poll"))
	if ins.Kind != InstructionPrompt {
		t.Fatalf("after /poll: kind = %s", ins.Kind)
	}

	ins = mustHandle(t, e, id, TextEvent("Best language?"))
	if ins.Kind != InstructionPrompt || !strings.Contains(ins.Text, "Best language?") {
		t.Fatalf("after question: %+v", ins)
	}

	ins = mustHandle(t, e, id, TextEvent("Go, Rust, Zig"))
	if ins.Kind != InstructionPromptWithButtons || len(ins.Buttons) != 2 {
		t.Fatalf("after options: %+v", ins)
	}
	if ins.Buttons[0].Payload != ButtonAnonymousYes || ins.Buttons[1].Payload != ButtonAnonymousNo {
		t.Fatalf("anonymous buttons: %+v", ins.Buttons)
	}

	ins = mustHandle(t, e, id, ButtonEvent(ButtonAnonymousYes))
	if ins.Kind != InstructionPromptWithButtons {
		t.Fatalf("after anonymous: %+v", ins)
	}

	ins = mustHandle(t, e, id, ButtonEvent(ButtonLimitYes))
	if ins.Kind != InstructionPrompt {
		t.Fatalf("after limit yes: %+v", ins)
	}

	ins = mustHandle(t, e, id, TextEvent("3"))
	if ins.Kind != InstructionPollCreated {
		t.Fatalf("after max votes: %+v", ins)
	}
	if ins.Question != "Best language?" || len(ins.Options) != 3 {
		t.Fatalf("created payload: %+v", ins)
	}

	created, ok := polls.Get(ins.PollID)
	if !ok {
		t.Fatalf("poll %d not stored", ins.PollID)
	}
	if !created.Anonymous || !created.LimitVotes || created.MaxVotes != 3 {
		t.Fatalf("stored poll: %+v", created)
	}

	if _, ok, _ := sessions.Peek(context.Background(), id); ok {
		t.Fatal("session still addressable after finalize")
	}
}

func TestFullDialogueWithoutVoteLimit(t *testing.T) {
	e, sessions, polls := newTestEngine()
	const id int64 = 101

	mustHandle(t, e, id, CommandEvent("poll"))
	mustHandle(t, e, id, TextEvent("Lunch?"))
	mustHandle(t, e, id, TextEvent("Pizza, Sushi"))
	mustHandle(t, e, id, ButtonEvent(ButtonAnonymousNo))

	ins := mustHandle(t, e, id, ButtonEvent(ButtonLimitNo))
	if ins.Kind != InstructionPollCreated {
		t.Fatalf("after limit no: %+v", ins)
	}

	created, ok := polls.Get(ins.PollID)
	if !ok {
		t.Fatalf("poll %d not stored", ins.PollID)
	}
	if created.Anonymous || created.LimitVotes || created.MaxVotes != 0 {
		t.Fatalf("stored poll: %+v", created)
	}
	if sessions.ActiveCount() != 0 {
		t.Fatalf("active sessions = %d", sessions.ActiveCount())
	}
}

func TestCancelMidDialogue(t *testing.T) {
	e, sessions, polls := newTestEngine()
	const id int64 = 102

	mustHandle(t, e, id, CommandEvent("poll"))
	mustHandle(t, e, id, TextEvent("Color?"))

	ins := mustHandle(t, e, id, CommandEvent("cancel"))
	if !strings.Contains(ins.Text, "cancelled") {
		t.Fatalf("cancel reply: %q", ins.Text)
	}
	if _, ok, _ := sessions.Peek(context.Background(), id); ok {
		t.Fatal("session survived cancel")
	}
	if polls.Len() != 0 {
		t.Fatalf("polls created on cancel: %d", polls.Len())
	}

	// Restart runs on a clean draft.
	mustHandle(t, e, id, CommandEvent("poll"))
	ins = mustHandle(t, e, id, TextEvent("Fruit?"))
	if !strings.Contains(ins.Text, "Fruit?") || strings.Contains(ins.Text, "Color?") {
		t.Fatalf("restart draft not clean: %q", ins.Text)
	}
}

func TestCancelWithoutDialogue(t *testing.T) {
	e, _, _ := newTestEngine()

	ins := mustHandle(t, e, 103, CommandEvent("cancel"))
	if ins.Kind != InstructionRetry || !strings.Contains(ins.Text, "/poll") {
		t.Fatalf("cancel without dialogue: %+v", ins)
	}
}

func TestTextWithoutDialogueIsIgnored(t *testing.T) {
	e, sessions, _ := newTestEngine()

	ins := mustHandle(t, e, 104, TextEvent("hello"))
	if ins.Kind != InstructionRetry {
		t.Fatalf("stray text: %+v", ins)
	}
	if sessions.ActiveCount() != 0 {
		t.Fatal("stray text created a session")
	}
}

func TestInvalidInputsDoNotAdvance(t *testing.T) {
	e, _, _ := newTestEngine()
	const id int64 = 105

	mustHandle(t, e, id, CommandEvent("poll"))

	ins := mustHandle(t, e, id, TextEvent("   "))
	if ins.Kind != InstructionRetry {
		t.Fatalf("blank question: %+v", ins)
	}

	mustHandle(t, e, id, TextEvent("Pets?"))

	ins = mustHandle(t, e, id, TextEvent("Cats"))
	if ins.Kind != InstructionRetry {
		t.Fatalf("single option: %+v", ins)
	}
	ins = mustHandle(t, e, id, TextEvent(" , , "))
	if ins.Kind != InstructionRetry {
		t.Fatalf("empty options: %+v", ins)
	}

	mustHandle(t, e, id, TextEvent("Cats, Dogs"))

	// Text while a button is expected re-prompts with the same buttons.
	ins = mustHandle(t, e, id, TextEvent("yes"))
	if ins.Kind != InstructionRetry || len(ins.Buttons) != 2 {
		t.Fatalf("text at anonymous step: %+v", ins)
	}

	mustHandle(t, e, id, ButtonEvent(ButtonAnonymousYes))

	// A stale anonymous button at the limit step must not advance.
	ins = mustHandle(t, e, id, ButtonEvent(ButtonAnonymousNo))
	if ins.Kind != InstructionRetry {
		t.Fatalf("stale button at limit step: %+v", ins)
	}

	mustHandle(t, e, id, ButtonEvent(ButtonLimitYes))

	for _, bad := range []string{"zero", "-1", "0", "2.5"} {
		ins = mustHandle(t, e, id, TextEvent(bad))
		if ins.Kind != InstructionRetry {
			t.Fatalf("max votes %q accepted: %+v", bad, ins)
		}
	}

	ins = mustHandle(t, e, id, TextEvent("5"))
	if ins.Kind != InstructionPollCreated {
		t.Fatalf("valid max votes: %+v", ins)
	}
}

func TestPollCommandMidDialogueReprompts(t *testing.T) {
	e, _, polls := newTestEngine()
	const id int64 = 106

	mustHandle(t, e, id, CommandEvent("poll"))
	mustHandle(t, e, id, TextEvent("Snack?"))

	ins := mustHandle(t, e, id, CommandEvent("poll"))
	if !strings.Contains(ins.Text, "Snack?") {
		t.Fatalf("mid-dialogue /poll reset the draft: %+v", ins)
	}

	// The dialogue continues where it left off.
	ins = mustHandle(t, e, id, TextEvent("Chips, Nuts"))
	if ins.Kind != InstructionPromptWithButtons {
		t.Fatalf("dialogue broken after mid /poll: %+v", ins)
	}
	if polls.Len() != 0 {
		t.Fatalf("polls created early: %d", polls.Len())
	}
}

func TestReplayAfterFinalizeCreatesNoDuplicate(t *testing.T) {
	e, _, polls := newTestEngine()
	const id int64 = 107

	mustHandle(t, e, id, CommandEvent("poll"))
	mustHandle(t, e, id, TextEvent("Q?"))
	mustHandle(t, e, id, TextEvent("A, B"))
	mustHandle(t, e, id, ButtonEvent(ButtonAnonymousYes))
	mustHandle(t, e, id, ButtonEvent(ButtonLimitNo))

	if polls.Len() != 1 {
		t.Fatalf("polls after finalize = %d", polls.Len())
	}

	// A re-delivered button press lands on a dead session.
	ins := mustHandle(t, e, id, ButtonEvent(ButtonLimitNo))
	if ins.Kind != InstructionRetry {
		t.Fatalf("replayed button: %+v", ins)
	}
	if polls.Len() != 1 {
		t.Fatalf("replay duplicated poll: %d", polls.Len())
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	e, _, polls := newTestEngine()

	mustHandle(t, e, 1, CommandEvent("poll"))
	mustHandle(t, e, 2, CommandEvent("poll"))

	mustHandle(t, e, 1, TextEvent("First?"))
	mustHandle(t, e, 2, TextEvent("Second?"))

	mustHandle(t, e, 1, TextEvent("a, b"))
	mustHandle(t, e, 2, TextEvent("x, y"))

	mustHandle(t, e, 1, ButtonEvent(ButtonAnonymousYes))
	mustHandle(t, e, 2, ButtonEvent(ButtonAnonymousNo))

	ins1 := mustHandle(t, e, 1, ButtonEvent(ButtonLimitNo))
	ins2 := mustHandle(t, e, 2, ButtonEvent(ButtonLimitNo))

	p1, _ := polls.Get(ins1.PollID)
	p2, _ := polls.Get(ins2.PollID)
	if p1.Question != "First?" || p2.Question != "Second?" {
		t.Fatalf("cross-session bleed: %+v / %+v", p1, p2)
	}
	if !p1.Anonymous || p2.Anonymous {
		t.Fatalf("anonymous flags swapped: %+v / %+v", p1, p2)
	}
}

func TestConcurrentDialoguesNoLostUpdates(t *testing.T) {
	e, _, polls := newTestEngine()
	const n = 32

	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(id int64) {
			defer wg.Done()
			ctx := context.Background()
			q := fmt.Sprintf("Question %d?", id)
			_, _ = e.HandleEvent(ctx, id, CommandEvent("poll"))
			_, _ = e.HandleEvent(ctx, id, TextEvent(q))
			_, _ = e.HandleEvent(ctx, id, TextEvent("a, b"))
			_, _ = e.HandleEvent(ctx, id, ButtonEvent(ButtonAnonymousYes))
			_, _ = e.HandleEvent(ctx, id, ButtonEvent(ButtonLimitNo))
		}(int64(i + 1))
	}
	wg.Wait()

	if polls.Len() != n {
		t.Fatalf("polls created = %d, want %d", polls.Len(), n)
	}
}

func TestConcurrentEventsSameSessionSerialized(t *testing.T) {
	e, sessions, _ := newTestEngine()
	const id int64 = 200

	mustHandle(t, e, id, CommandEvent("poll"))

	// Many racing texts: exactly one becomes the question, exactly one the
	// options, the rest are re-prompted at the button step.
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = e.HandleEvent(context.Background(), id, TextEvent(fmt.Sprintf("t%d, u%d", i, i)))
		}(i)
	}
	wg.Wait()

	sess, ok, err := sessions.Peek(context.Background(), id)
	if err != nil || !ok {
		t.Fatalf("session lost: ok=%v err=%v", ok, err)
	}
	if sess.Draft.Question == "" {
		t.Fatal("question lost")
	}
	if len(sess.Draft.Options) != 2 {
		t.Fatalf("options = %v", sess.Draft.Options)
	}
	if sess.State != StateAwaitingAnonymous {
		t.Fatalf("state = %s", sess.State)
	}
}

type failingStore struct {
	*MemoryStore
	failSave bool
}

func (f *failingStore) Save(ctx context.Context, s *Session) error {
	if f.failSave {
		return errors.New("backend down")
	}
	return f.MemoryStore.Save(ctx, s)
}

func TestStoreFailureLeavesLastPersistedState(t *testing.T) {
	store := &failingStore{MemoryStore: NewMemoryStore()}
	e := NewEngine(store, poll.NewMemoryStore())
	const id int64 = 300

	mustHandle(t, e, id, CommandEvent("poll"))
	mustHandle(t, e, id, TextEvent("Q?"))

	store.failSave = true
	if _, err := e.HandleEvent(context.Background(), id, TextEvent("a, b")); err == nil {
		t.Fatal("expected save error")
	}

	sess, ok, _ := store.Peek(context.Background(), id)
	if !ok {
		t.Fatal("session gone after failed save")
	}
	if sess.State != StateAwaitingOptions {
		t.Fatalf("state advanced despite failed save: %s", sess.State)
	}
	if len(sess.Draft.Options) != 0 {
		t.Fatalf("draft mutated despite failed save: %+v", sess.Draft)
	}

	// Recovery: the same input succeeds once the store is back.
	store.failSave = false
	ins := mustHandle(t, e, id, TextEvent("a, b"))
	if ins.Kind != InstructionPromptWithButtons {
		t.Fatalf("retry after recovery: %+v", ins)
	}
}

type failingSink struct {
	err   error
	calls int
}

func (f *failingSink) Create(_ context.Context, _ poll.Draft) (int64, error) {
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	return int64(f.calls), nil
}

func TestSinkFailureKeepsSessionAlive(t *testing.T) {
	sessions := NewMemoryStore()
	sink := &failingSink{err: errors.New("insert failed")}
	e := NewEngine(sessions, sink)
	const id int64 = 301

	mustHandle(t, e, id, CommandEvent("poll"))
	mustHandle(t, e, id, TextEvent("Q?"))
	mustHandle(t, e, id, TextEvent("a, b"))
	mustHandle(t, e, id, ButtonEvent(ButtonAnonymousYes))

	if _, err := e.HandleEvent(context.Background(), id, ButtonEvent(ButtonLimitNo)); err == nil {
		t.Fatal("expected sink error")
	}

	sess, ok, _ := sessions.Peek(context.Background(), id)
	if !ok || sess.State != StateAwaitingLimit {
		t.Fatalf("session not kept at limit step: ok=%v sess=%+v", ok, sess)
	}

	// The user can answer again after the sink recovers.
	sink.err = nil
	ins := mustHandle(t, e, id, ButtonEvent(ButtonLimitNo))
	if ins.Kind != InstructionPollCreated {
		t.Fatalf("finalize after recovery: %+v", ins)
	}
}

func TestInProgress(t *testing.T) {
	e, _, _ := newTestEngine()
	ctx := context.Background()
	const id int64 = 400

	if e.InProgress(ctx, id) {
		t.Fatal("fresh session reported in progress")
	}
	mustHandle(t, e, id, CommandEvent("poll"))
	if !e.InProgress(ctx, id) {
		t.Fatal("dialogue not reported in progress")
	}
	mustHandle(t, e, id, CommandEvent("cancel"))
	if e.InProgress(ctx, id) {
		t.Fatal("cancelled dialogue reported in progress")
	}
}

func TestSplitOptions(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"a, b", []string{"a", "b"}},
		{" a ,b,  c ", []string{"a", "b", "c"}},
		{"a,,b", []string{"a", "b"}},
		{", ,", nil},
		{"one option", []string{"one option"}},
	}
	for _, tc := range cases {
		got := SplitOptions(tc.in)
		if len(got) != len(tc.want) {
			t.Fatalf("SplitOptions(%q) = %v, want %v", tc.in, got, tc.want)
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Fatalf("SplitOptions(%q) = %v, want %v", tc.in, got, tc.want)
			}
		}
	}
}
