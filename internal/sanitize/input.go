package sanitize

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var shellMetacharacters = regexp.MustCompile(`[;&|` + "`" + `$(){}\[\]<>\\"']`)
var newlinesAndNulls = regexp.MustCompile(`[\n\r\x00]`)
var standaloneHyphen = regexp.MustCompile(`(?:^|[^\w])-(?:$|[^\w])`)
var repeatedSpaces = regexp.MustCompile(`\s+`)

// dangerousCommandPatterns strips common shell-injection idioms: destructive
// commands with their flags/arguments, credential-file reads, download
// tools fetching a URL, interpreter one-liners, and direct references to
// sensitive paths or shell metacharacters the metacharacter strip above
// might have left isolated (like a bare "$" or backtick).
var dangerousCommandPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\brm\b[^\s;]*\s*(?:-[a-z]+|--[a-z-]+)?\s*[^\s;]*`),
	regexp.MustCompile(`(?i)\bcat\b\s+/etc/[^\s;]*`),
	regexp.MustCompile(`(?i)\bcat\b\s+/root/[^\s;]*`),
	regexp.MustCompile(`(?i)\bpasswd\b\s+/etc/[^\s;]*`),
	regexp.MustCompile(`(?i)\bsudo\b\s+-[a-z]+\s+[^\s;]*`),
	regexp.MustCompile(`(?i)\bchmod\b\s+[0-7]{3,4}\s+[^\s;]*`),
	regexp.MustCompile(`(?i)\bchown\b\s+[^\s;]+:[^\s;]*\s+[^\s;]*`),
	regexp.MustCompile(`(?i)\bwget\b\s+https?://[^\s;]*`),
	regexp.MustCompile(`(?i)\bcurl\b\s+https?://[^\s;]*`),
	regexp.MustCompile(`(?i)\bnc\b\s+-[lc]\s+[^\s;]*`),
	regexp.MustCompile(`(?i)\bbash\b\s+-c\s+[^\s;]*`),
	regexp.MustCompile(`(?i)\bsh\b\s+-c\s+[^\s;]*`),
	regexp.MustCompile(`(?i)\bpython\b\s+-[cE]\s+[^\s;]*`),
	regexp.MustCompile(`(?i)\bperl\s+-e\s+[^\s;]*`),
	regexp.MustCompile(`(?i)/etc/passwd`),
	regexp.MustCompile(`(?i)/etc/shadow`),
	regexp.MustCompile(`(?i)/etc/sudoers`),
	regexp.MustCompile(`(?i)/root/`),
	regexp.MustCompile(`(?i)/home/`),
	regexp.MustCompile(`\$`),
	regexp.MustCompile("`"),
}

// SanitizeInput normalizes, truncates, and strips shell-injection-prone
// content from arbitrary user-supplied text before it is interpolated into
// any Git command or displayed back to a caller.
func SanitizeInput(input string) string {
	if input == "" {
		return input
	}

	result := norm.NFKC.String(input)

	if len(result) > MaxInputLength {
		result = result[:MaxInputLength]
	}

	result = shellMetacharacters.ReplaceAllString(result, "")
	result = newlinesAndNulls.ReplaceAllString(result, "")

	for _, pattern := range dangerousCommandPatterns {
		result = pattern.ReplaceAllString(result, "")
	}

	result = standaloneHyphen.ReplaceAllString(result, " ")
	result = repeatedSpaces.ReplaceAllString(result, " ")

	return strings.TrimSpace(result)
}
