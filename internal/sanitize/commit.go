package sanitize

import "strings"

// SanitizeCommitMessage strips NUL bytes and caps a commit message at
// MaxCommitMessageLen.
func SanitizeCommitMessage(message string) string {
	result := strings.ReplaceAll(message, "\x00", "")
	if len(result) > MaxCommitMessageLen {
		result = result[:MaxCommitMessageLen]
	}
	return strings.TrimSpace(result)
}
