package engine

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncateContext(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		budget int
		want   string
	}{
		{name: "under budget", input: "hello", budget: 10, want: "hello"},
		{name: "exact budget", input: "hello", budget: 5, want: "hello"},
		{name: "keeps newest", input: "oldest-newest", budget: 6, want: "newest"},
		{name: "multibyte runes", input: "ééééabc", budget: 4, want: "éabc"},
		{name: "zero budget", input: "abc", budget: 0, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TruncateContext(tt.input, tt.budget); got != tt.want {
				t.Errorf("TruncateContext(%q, %d) = %q, want %q", tt.input, tt.budget, got, tt.want)
			}
		})
	}
}

func TestCombinedContextIsBoundedSuffix(t *testing.T) {
	cases := []struct {
		historyLen int
		contentLen int
	}{
		{historyLen: 4096, contentLen: 1},
		{historyLen: 10, contentLen: 5000},
		{historyLen: 3000, contentLen: 3000},
		{historyLen: 0, contentLen: 4097},
	}

	for _, c := range cases {
		history := strings.Repeat("h", c.historyLen)
		content := strings.Repeat("c", c.contentLen-1) + "Z"
		combined := CombineContext(history, content)

		got := TruncateContext(combined, ContextBudget)
		if n := utf8.RuneCountInString(got); n != ContextBudget {
			t.Fatalf("h=%d c=%d: expected %d chars, got %d", c.historyLen, c.contentLen, ContextBudget, n)
		}
		if !strings.HasSuffix(combined, got) {
			t.Fatalf("h=%d c=%d: truncated text is not a suffix of the combined context", c.historyLen, c.contentLen)
		}
		if !strings.HasSuffix(got, "Z") {
			t.Fatalf("h=%d c=%d: newest character was dropped", c.historyLen, c.contentLen)
		}
	}
}

func TestIsOverBudget(t *testing.T) {
	if IsOverBudget(strings.Repeat("x", ContextBudget), ContextBudget) {
		t.Error("text at the budget should not be over budget")
	}
	if !IsOverBudget(strings.Repeat("x", ContextBudget+1), ContextBudget) {
		t.Error("text past the budget should be over budget")
	}
	// 4096 two-byte runes exceed the budget in bytes but not in characters.
	if IsOverBudget(strings.Repeat("é", ContextBudget), ContextBudget) {
		t.Error("budget is counted in characters, not bytes")
	}
}

func TestBuildMessages(t *testing.T) {
	msgs := BuildMessages("page text", "summarize this")
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Role != RoleSystem || msgs[0].Content != "You are a helpful assistant. Context: page text" {
		t.Errorf("unexpected system message: %+v", msgs[0])
	}
	if msgs[1].Role != RoleUser || msgs[1].Content != "summarize this" {
		t.Errorf("unexpected user message: %+v", msgs[1])
	}
}
