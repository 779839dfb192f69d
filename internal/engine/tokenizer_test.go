package engine

import (
	"testing"
)

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int // Approximate expectation
	}{
		{
			name: "empty",
			text: "",
			want: 0,
		},
		{
			name: "short word",
			text: "hello",
			want: 1, // 5 chars / 4 = 1
		},
		{
			name: "sentence",
			text: "hello world this is a test",
			want: 6, // 26 chars / 4 = 6 + whitespace/6 ~ 0 = 6
		},
		{
			name: "page sentence",
			text: "Welcome to the release notes page",
			want: 8, // 33 chars / 4 = 8 + 5 whitespace / 6 = 0
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EstimateTokens(tt.text)
			// Formula: (len(runes) / 4) + (whitespace / 6), minimum 1 for non-empty text.
			if got != tt.want {
				t.Errorf("EstimateTokens() = %v, want %v", got, tt.want)
			}
		})
	}
}
