package sanitize

import (
	"strings"
	"testing"
)

func TestSanitizeCommitMessage(t *testing.T) {
	got := SanitizeCommitMessage("fix: handle nil pointer\x00 in parser  ")
	if strings.Contains(got, "\x00") {
		t.Errorf("SanitizeCommitMessage result still contains NUL: %q", got)
	}
	if got != "fix: handle nil pointer in parser" {
		t.Errorf("SanitizeCommitMessage() = %q", got)
	}
}

func TestSanitizeCommitMessage_TruncatesToMax(t *testing.T) {
	got := SanitizeCommitMessage(strings.Repeat("a", MaxCommitMessageLen+100))
	if len(got) > MaxCommitMessageLen {
		t.Errorf("len = %d, want <= %d", len(got), MaxCommitMessageLen)
	}
}
