package dialog

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"pollbot/core/logger"
	"pollbot/core/poll"
	"log/slog"
)

// Engine owns the poll-creation state machine. Every inbound event is
// validated against the session's current state; invalid input re-prompts
// without advancing, valid input mutates the draft and moves to the next
// state. Store and sink failures are returned as errors and leave the
// session at its last persisted state.
type Engine struct {
	store Store
	polls poll.Creator

	// locks serializes load-mutate-save per session id so two concurrent
	// events for the same session cannot race on a shared snapshot.
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// NewEngine wires the engine to its session store and poll sink.
func NewEngine(store Store, polls poll.Creator) *Engine {
	return &Engine{
		store: store,
		polls: polls,
		locks: make(map[int64]*sync.Mutex),
	}
}

func (e *Engine) sessionLock(id int64) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	lock, ok := e.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[id] = lock
	}
	return lock
}

// InProgress reports whether the session currently has an active dialogue.
func (e *Engine) InProgress(ctx context.Context, sessionID int64) bool {
	sess, ok, err := e.store.Peek(ctx, sessionID)
	if err != nil || !ok {
		return false
	}
	return sess.State.Active()
}

// HandleEvent runs one inbound event through the state machine and returns
// the outbound instruction for the transport to render.
func (e *Engine) HandleEvent(ctx context.Context, sessionID int64, ev Event) (Instruction, error) {
	lock := e.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	if ev.Kind == EventCommand {
		return e.handleCommand(ctx, sessionID, ev.Name)
	}

	sess, ok, err := e.store.Peek(ctx, sessionID)
	if err != nil {
		return Instruction{}, fmt.Errorf("dialog: load session %d: %w", sessionID, err)
	}
	if !ok || !sess.State.Active() {
		// No active dialogue: answer with a fresh start-over prompt.
		return retry(msgNoDialogue), nil
	}

	switch sess.State {
	case StateAwaitingQuestion:
		return e.handleQuestion(ctx, sess, ev)
	case StateAwaitingOptions:
		return e.handleOptions(ctx, sess, ev)
	case StateAwaitingAnonymous:
		return e.handleAnonymous(ctx, sess, ev)
	case StateAwaitingLimit:
		return e.handleLimit(ctx, sess, ev)
	case StateAwaitingMaxVotes:
		return e.handleMaxVotes(ctx, sess, ev)
	default:
		return retry(msgNoDialogue), nil
	}
}

func (e *Engine) handleCommand(ctx context.Context, sessionID int64, name string) (Instruction, error) {
	name = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(name)), "/")
	switch name {
	case CommandPoll:
		sess, err := e.store.GetOrCreate(ctx, sessionID)
		if err != nil {
			return Instruction{}, fmt.Errorf("dialog: load session %d: %w", sessionID, err)
		}
		if sess.State.Active() {
			// Mid-dialogue /poll is not a listed transition; re-prompt instead.
			return e.reprompt(sess), nil
		}
		from := sess.State
		sess.State = StateAwaitingQuestion
		sess.Draft = poll.NewDraft()
		if err := e.store.Save(ctx, sess); err != nil {
			return Instruction{}, fmt.Errorf("dialog: save session %d: %w", sessionID, err)
		}
		e.logTransition(ctx, sessionID, from, sess.State, "command.poll")
		return prompt(msgAskQuestion), nil

	case CommandCancel:
		sess, ok, err := e.store.Peek(ctx, sessionID)
		if err != nil {
			return Instruction{}, fmt.Errorf("dialog: load session %d: %w", sessionID, err)
		}
		if !ok || !sess.State.Active() {
			return retry(msgNoDialogue), nil
		}
		if err := e.store.Delete(ctx, sessionID); err != nil {
			return Instruction{}, fmt.Errorf("dialog: delete session %d: %w", sessionID, err)
		}
		e.logTransition(ctx, sessionID, sess.State, StateIdle, "command.cancel")
		return prompt(msgCancelled), nil

	default:
		sess, ok, err := e.store.Peek(ctx, sessionID)
		if err != nil {
			return Instruction{}, fmt.Errorf("dialog: load session %d: %w", sessionID, err)
		}
		if ok && sess.State.Active() {
			return e.reprompt(sess), nil
		}
		return retry(msgNoDialogue), nil
	}
}

func (e *Engine) handleQuestion(ctx context.Context, sess *Session, ev Event) (Instruction, error) {
	if ev.Kind != EventText {
		return e.reprompt(sess), nil
	}
	question := strings.TrimSpace(ev.Text)
	if question == "" {
		return retry(msgEmptyQuestion), nil
	}
	sess.Draft.Question = question
	sess.State = StateAwaitingOptions
	if err := e.store.Save(ctx, sess); err != nil {
		return Instruction{}, fmt.Errorf("dialog: save session %d: %w", sess.ID, err)
	}
	e.logTransition(ctx, sess.ID, StateAwaitingQuestion, sess.State, "text.question")
	return prompt(fmt.Sprintf(msgAskOptions, question)), nil
}

func (e *Engine) handleOptions(ctx context.Context, sess *Session, ev Event) (Instruction, error) {
	if ev.Kind != EventText {
		return e.reprompt(sess), nil
	}
	options := SplitOptions(ev.Text)
	if len(options) < 2 {
		return retry(msgTooFewOptions), nil
	}
	sess.Draft.Options = options
	sess.State = StateAwaitingAnonymous
	if err := e.store.Save(ctx, sess); err != nil {
		return Instruction{}, fmt.Errorf("dialog: save session %d: %w", sess.ID, err)
	}
	e.logTransition(ctx, sess.ID, StateAwaitingOptions, sess.State, "text.options")
	return promptButtons(
		fmt.Sprintf(msgAskAnonymous, strings.Join(options, ", ")),
		yesNoButtons(ButtonAnonymousYes, ButtonAnonymousNo)...,
	), nil
}

func (e *Engine) handleAnonymous(ctx context.Context, sess *Session, ev Event) (Instruction, error) {
	if ev.Kind != EventButton {
		return e.reprompt(sess), nil
	}
	switch ev.Button {
	case ButtonAnonymousYes:
		sess.Draft.Anonymous = true
	case ButtonAnonymousNo:
		sess.Draft.Anonymous = false
	default:
		return e.reprompt(sess), nil
	}
	sess.State = StateAwaitingLimit
	if err := e.store.Save(ctx, sess); err != nil {
		return Instruction{}, fmt.Errorf("dialog: save session %d: %w", sess.ID, err)
	}
	e.logTransition(ctx, sess.ID, StateAwaitingAnonymous, sess.State, "button."+string(ev.Button))
	return promptButtons(msgAskLimit, yesNoButtons(ButtonLimitYes, ButtonLimitNo)...), nil
}

func (e *Engine) handleLimit(ctx context.Context, sess *Session, ev Event) (Instruction, error) {
	if ev.Kind != EventButton {
		return e.reprompt(sess), nil
	}
	switch ev.Button {
	case ButtonLimitYes:
		sess.Draft.LimitVotes = true
		sess.State = StateAwaitingMaxVotes
		if err := e.store.Save(ctx, sess); err != nil {
			return Instruction{}, fmt.Errorf("dialog: save session %d: %w", sess.ID, err)
		}
		e.logTransition(ctx, sess.ID, StateAwaitingLimit, sess.State, "button.limit_yes")
		return prompt(msgAskMaxVotes), nil
	case ButtonLimitNo:
		sess.Draft.LimitVotes = false
		return e.finalize(ctx, sess, StateAwaitingLimit, "button.limit_no")
	default:
		return e.reprompt(sess), nil
	}
}

func (e *Engine) handleMaxVotes(ctx context.Context, sess *Session, ev Event) (Instruction, error) {
	if ev.Kind != EventText {
		return e.reprompt(sess), nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(ev.Text))
	if err != nil || n <= 0 {
		return retry(msgBadMaxVotes), nil
	}
	sess.Draft.MaxVotes = n
	return e.finalize(ctx, sess, StateAwaitingMaxVotes, "text.max_votes")
}

// finalize asserts the draft invariant, hands the draft to the poll sink,
// and removes the session so it is no longer addressable. Nothing is saved
// on failure: the session stays at its last persisted state.
func (e *Engine) finalize(ctx context.Context, sess *Session, from State, cause string) (Instruction, error) {
	if err := sess.Draft.Validate(); err != nil {
		return Instruction{}, fmt.Errorf("dialog: session %d draft not finalizable: %w", sess.ID, err)
	}
	pollID, err := e.polls.Create(ctx, sess.Draft)
	if err != nil {
		return Instruction{}, fmt.Errorf("dialog: create poll for session %d: %w", sess.ID, err)
	}
	if err := e.store.Delete(ctx, sess.ID); err != nil {
		return Instruction{}, fmt.Errorf("dialog: delete session %d: %w", sess.ID, err)
	}
	logger.Info(ctx, "dialog", "dialog.finalized",
		slog.String("status", "ok"),
		slog.Int64("chat_id", sess.ID),
		slog.Int64("poll_id", pollID),
		slog.String("state", string(from)),
		slog.String("cause", cause),
	)
	return Instruction{
		Kind:     InstructionPollCreated,
		PollID:   pollID,
		Question: sess.Draft.Question,
		Options:  append([]string(nil), sess.Draft.Options...),
	}, nil
}

// reprompt rebuilds the instruction for the session's current state without
// mutating anything. Used for input the state does not recognize.
func (e *Engine) reprompt(sess *Session) Instruction {
	switch sess.State {
	case StateAwaitingQuestion:
		return retry(msgAskQuestion)
	case StateAwaitingOptions:
		return retry(fmt.Sprintf(msgAskOptions, sess.Draft.Question))
	case StateAwaitingAnonymous:
		return retryButtons(msgExpectButton, yesNoButtons(ButtonAnonymousYes, ButtonAnonymousNo)...)
	case StateAwaitingLimit:
		return retryButtons(msgExpectButton, yesNoButtons(ButtonLimitYes, ButtonLimitNo)...)
	case StateAwaitingMaxVotes:
		return retry(msgAskMaxVotes)
	default:
		return retry(msgNoDialogue)
	}
}

func (e *Engine) logTransition(ctx context.Context, sessionID int64, from, to State, cause string) {
	logger.Debug(ctx, "dialog", "fsm.transition",
		slog.String("status", "ok"),
		slog.Int64("chat_id", sessionID),
		slog.String("state", string(from)),
		slog.String("next_state", string(to)),
		slog.String("cause", cause),
	)
}

// SplitOptions splits a comma-delimited option list, trims every entry, and
// drops empty ones.
func SplitOptions(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
