package format

import "testing"

func TestEscapeMarkdownV1(t *testing.T) {
	got, err := EscapeMarkdown("a_b*c[d`e", MarkdownV1)
	if err != nil {
		t.Fatalf("EscapeMarkdown: %v", err)
	}
	want := `a\_b\*c\[d` + "\\`e"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestEscapeMarkdownV2(t *testing.T) {
	got, err := EscapeMarkdown("hi! (really.)", MarkdownV2)
	if err != nil {
		t.Fatalf("EscapeMarkdown: %v", err)
	}
	want := `hi\! \(really\.\)`
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestEscapeMarkdownUnknownVersion(t *testing.T) {
	if _, err := EscapeMarkdown("x", 3); err == nil {
		t.Fatal("unknown version accepted")
	}
}
