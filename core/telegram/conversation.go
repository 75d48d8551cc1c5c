package telegram

import (
	"pollbot/core/dialog"
	"pollbot/core/telegram/callbacks"
	tghelpers "pollbot/core/telegram/helpers"
	"pollbot/core/telegram/ui"

	tele "gopkg.in/telebot.v4"
)

// Conversation bridges telebot updates into the dialogue engine. Sessions
// are keyed by chat ID so a group chat shares one in-flight dialogue.
type Conversation struct {
	engine *dialog.Engine
}

// NewConversation wraps an engine for transport wiring.
func NewConversation(e *dialog.Engine) *Conversation {
	return &Conversation{engine: e}
}

func chatID(c tele.Context) int64 {
	if chat := c.Chat(); chat != nil {
		return chat.ID
	}
	if sender := c.Sender(); sender != nil {
		return sender.ID
	}
	return 0
}

// InProgress reports whether the chat has an active dialogue.
func (cv *Conversation) InProgress(c tele.Context) bool {
	return cv.engine.InProgress(tghelpers.BuildContext(c), chatID(c))
}

// HandleText feeds a free-text message into the engine and renders the reply.
func (cv *Conversation) HandleText(c tele.Context) error {
	return cv.dispatch(c, dialog.TextEvent(c.Text()))
}

// CommandHandler returns a handler feeding the named command into the engine.
func (cv *Conversation) CommandHandler(name string) tele.HandlerFunc {
	return func(c tele.Context) error {
		return cv.dispatch(c, dialog.CommandEvent(name))
	}
}

// CallbackHandler returns a handler decoding yes/no button presses.
// Unknown payloads are answered with the current step's prompt again.
func (cv *Conversation) CallbackHandler() tele.HandlerFunc {
	return func(c tele.Context) error {
		payload := callbacks.CallbackPayload(c)
		btn, ok := dialog.ParseButton(payload)
		if !ok {
			return cv.dispatch(c, dialog.TextEvent(payload))
		}
		return cv.dispatch(c, dialog.ButtonEvent(btn))
	}
}

func (cv *Conversation) dispatch(c tele.Context, ev dialog.Event) error {
	ctx := tghelpers.BuildContext(c)
	ins, err := cv.engine.HandleEvent(ctx, chatID(c), ev)
	if err != nil {
		return err
	}
	return ui.RenderInstruction(c, ins)
}
