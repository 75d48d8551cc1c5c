package dialog

// InstructionKind discriminates the outbound instruction returned to the
// transport for rendering.
type InstructionKind string

const (
	// InstructionPrompt asks the user for the next input.
	InstructionPrompt InstructionKind = "prompt"
	// InstructionPromptWithButtons asks via an inline button choice.
	InstructionPromptWithButtons InstructionKind = "prompt_with_buttons"
	// InstructionPollCreated confirms a finalized poll.
	InstructionPollCreated InstructionKind = "poll_created"
	// InstructionRetry re-prompts after invalid input; the state did not advance.
	InstructionRetry InstructionKind = "retry"
)

// ButtonSpec describes one inline button to render, in order.
type ButtonSpec struct {
	Label   string
	Payload Button
}

// Instruction is the engine's deterministic answer to one inbound event.
type Instruction struct {
	Kind    InstructionKind
	Text    string
	Buttons []ButtonSpec

	// PollID, Question and Options are set for InstructionPollCreated.
	PollID   int64
	Question string
	Options  []string
}

func prompt(text string) Instruction {
	return Instruction{Kind: InstructionPrompt, Text: text}
}

func retry(text string) Instruction {
	return Instruction{Kind: InstructionRetry, Text: text}
}

func retryButtons(text string, buttons ...ButtonSpec) Instruction {
	return Instruction{Kind: InstructionRetry, Text: text, Buttons: buttons}
}

func promptButtons(text string, buttons ...ButtonSpec) Instruction {
	return Instruction{Kind: InstructionPromptWithButtons, Text: text, Buttons: buttons}
}

func yesNoButtons(yes, no Button) []ButtonSpec {
	return []ButtonSpec{
		{Label: "Yes", Payload: yes},
		{Label: "No", Payload: no},
	}
}
