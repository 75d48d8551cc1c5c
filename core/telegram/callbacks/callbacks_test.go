package callbacks

import (
	"testing"

	tele "gopkg.in/telebot.v4"
)

func TestParseCallbackData(t *testing.T) {
	cases := []struct {
		data    string
		unique  string
		payload string
	}{
		{`\fpoll_anon|anonymous_yes`, "poll_anon", "anonymous_yes"},
		{`\fpoll_limit|limit_no`, "poll_limit", "limit_no"},
		{`\fbare`, "bare", ""},
		{`no_prefix|payload`, "no_prefix", "payload"},
		{``, "", ""},
	}
	for _, tc := range cases {
		u, p := ParseCallbackData(&tele.Callback{Data: tc.data})
		if u != tc.unique || p != tc.payload {
			t.Fatalf("ParseCallbackData(%q) = (%q, %q), want (%q, %q)",
				tc.data, u, p, tc.unique, tc.payload)
		}
	}
}

func TestParseCallbackDataNil(t *testing.T) {
	if u, p := ParseCallbackData(nil); u != "" || p != "" {
		t.Fatalf("nil callback = (%q, %q)", u, p)
	}
}
