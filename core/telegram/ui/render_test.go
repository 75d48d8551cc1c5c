package ui

import (
	"strings"
	"testing"

	"pollbot/core/dialog"
)

func TestPollCreatedText(t *testing.T) {
	got := pollCreatedText(dialog.Instruction{
		Kind:     dialog.InstructionPollCreated,
		Question: "Best editor?",
		Options:  []string{"vim", "emacs", "ed"},
	})

	if !strings.HasPrefix(got, "Poll created successfully!") {
		t.Fatalf("missing confirmation prefix: %q", got)
	}
	for _, line := range []string{"Best editor?", "1. vim", "2. emacs", "3. ed"} {
		if !strings.Contains(got, line) {
			t.Fatalf("missing %q in %q", line, got)
		}
	}
	if strings.HasSuffix(got, "\n") {
		t.Fatalf("trailing newline: %q", got)
	}
}

func TestButtonsMarkupRoundTrip(t *testing.T) {
	markup := buttonsMarkup([]dialog.ButtonSpec{
		{Label: "Yes", Payload: dialog.ButtonAnonymousYes},
		{Label: "No", Payload: dialog.ButtonAnonymousNo},
	})

	if len(markup.InlineKeyboard) != 1 || len(markup.InlineKeyboard[0]) != 2 {
		t.Fatalf("keyboard shape: %+v", markup.InlineKeyboard)
	}
	yes := markup.InlineKeyboard[0][0]
	if yes.Text != "Yes" {
		t.Fatalf("label = %q", yes.Text)
	}
	if yes.Data != string(dialog.ButtonAnonymousYes) {
		t.Fatalf("payload lost: %q", yes.Data)
	}
	if yes.Unique != CallbackAnonymous {
		t.Fatalf("unique lost: %q", yes.Unique)
	}
}

func TestUniqueFor(t *testing.T) {
	if uniqueFor(dialog.ButtonLimitYes) != CallbackLimit {
		t.Fatal("limit button mapped to wrong unique")
	}
	if uniqueFor(dialog.ButtonAnonymousNo) != CallbackAnonymous {
		t.Fatal("anonymous button mapped to wrong unique")
	}
}
