package sanitize

import (
	"fmt"
	"strings"
)

// EscapeGitOutput strips NUL bytes from raw Git command output before it is
// displayed or logged.
func EscapeGitOutput(output string) string {
	return strings.ReplaceAll(output, "\x00", "")
}

// TruncateText truncates text to maxLength, appending suffix when
// truncation occurs.
func TruncateText(text string, maxLength int, suffix string) string {
	if len(text) <= maxLength {
		return text
	}
	cut := maxLength - len(suffix)
	if cut < 0 {
		cut = 0
	}
	return text[:cut] + suffix
}

// FormatBytes renders a byte count in human-readable form (B/KB/MB/GB/TB/PB).
func FormatBytes(size float64) string {
	units := []string{"B", "KB", "MB", "GB", "TB"}
	for _, unit := range units {
		if size < 1024 {
			return fmt.Sprintf("%.2f %s", size, unit)
		}
		size /= 1024
	}
	return fmt.Sprintf("%.2f PB", size)
}
