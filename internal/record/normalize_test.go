package record

import (
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple lowercase", "Hello World", "hello world"},
		{"trim whitespace", "  hello  ", "hello"},
		{"collapse internal whitespace", "hello    world", "hello world"},
		{"tabs and newlines", "hello\t\n  world", "hello world"},
		{"empty string", "", ""},
		{"only whitespace", "   \t\n   ", ""},
		{"unicode characters", "  HÉLLO   WÖRLD  ", "héllo wörld"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.input)
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
