package dialog

// EventKind discriminates inbound event payloads.
type EventKind string

const (
	// EventCommand is a recognized bot command such as /poll.
	EventCommand EventKind = "command"
	// EventText is a free-text message.
	EventText EventKind = "text"
	// EventButton is an inline button press.
	EventButton EventKind = "button"
)

// Recognized commands. The set is closed: poll enters the dialogue,
// cancel leaves it.
const (
	CommandPoll   = "poll"
	CommandCancel = "cancel"
)

// Button identifies an inline button payload of the yes/no steps.
type Button string

const (
	ButtonAnonymousYes Button = "anonymous_yes"
	ButtonAnonymousNo  Button = "anonymous_no"
	ButtonLimitYes     Button = "limit_yes"
	ButtonLimitNo      Button = "limit_no"
)

// Event is one inbound occurrence dispatched to the engine.
type Event struct {
	Kind EventKind

	// Name is set for EventCommand.
	Name string
	// Text is set for EventText.
	Text string
	// Button is set for EventButton.
	Button Button
}

// CommandEvent builds a command event.
func CommandEvent(name string) Event {
	return Event{Kind: EventCommand, Name: name}
}

// TextEvent builds a free-text event.
func TextEvent(text string) Event {
	return Event{Kind: EventText, Text: text}
}

// ButtonEvent builds a button-press event.
func ButtonEvent(b Button) Event {
	return Event{Kind: EventButton, Button: b}
}

// ParseButton maps a raw callback payload to a known button.
func ParseButton(payload string) (Button, bool) {
	switch Button(payload) {
	case ButtonAnonymousYes, ButtonAnonymousNo, ButtonLimitYes, ButtonLimitNo:
		return Button(payload), true
	}
	return "", false
}
