package engine

// TruncateContext keeps the trailing budget characters of s.
// Oldest text is dropped first; the result never exceeds budget.
func TruncateContext(s string, budget int) string {
	if budget <= 0 {
		return ""
	}
	// Fast path: byte length bounds rune count.
	if len(s) <= budget {
		return s
	}
	runes := []rune(s)
	if len(runes) <= budget {
		return s
	}
	return string(runes[len(runes)-budget:])
}

// IsOverBudget reports whether s holds more than budget characters.
func IsOverBudget(s string, budget int) bool {
	if len(s) <= budget {
		return false
	}
	return len([]rune(s)) > budget
}

// CombineContext joins prior history and fresh page content.
func CombineContext(history, content string) string {
	return history + "\n" + content
}

// BuildMessages constructs the two-message exchange sent to the endpoint:
// a system message embedding the context and the raw user utterance.
func BuildMessages(context, utterance string) []ChatMessage {
	return []ChatMessage{
		{Role: RoleSystem, Content: systemPreamble + context},
		{Role: RoleUser, Content: utterance},
	}
}
