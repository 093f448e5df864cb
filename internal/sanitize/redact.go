package sanitize

import (
	"regexp"
	"strings"
)

// redactionRule is one ordered find/replace step in the redaction table.
// Order matters: later rules run against the output of earlier ones.
type redactionRule struct {
	pattern     *regexp.Regexp
	replacement string
}

// redactionTable holds every pattern applied by RedactError, in application
// order. Credential-bearing key=value pairs are masked first, then
// credentials embedded in URLs, then SSH private key bodies, then
// filesystem paths that leak a username, then connection strings, then
// environment variable references, then IPv4 octets are partially masked.
var redactionTable = []redactionRule{
	{regexp.MustCompile(`(?i)(password[=:]\s*)\S+`), `$1***`},
	{regexp.MustCompile(`(?i)(token[=:]\s*)\S+`), `$1***`},
	{regexp.MustCompile(`(?i)(secret[=:]\s*)\S+`), `$1***`},
	{regexp.MustCompile(`(?i)(api[_-]?key[=:]\s*)\S+`), `$1***`},
	{regexp.MustCompile(`(?i)(access[_-]?token[=:]\s*)\S+`), `$1***`},

	{regexp.MustCompile(`(?i)(https?://)[^:]+:(.+?)@`), `$1***:***@`},
	{regexp.MustCompile(`(?i)(git@)[^:]+:(.+?)@`), `$1***:***@`},

	{regexp.MustCompile(`(?is)(-----BEGIN\s+.*?PRIVATE\s+KEY-----).+?(-----END\s+.*?PRIVATE\s+KEY-----)`), `$1***$2`},

	{regexp.MustCompile(`/home/[^/\s]+/`), `/home/****/`},
	{regexp.MustCompile(`/root/`), `/****/`},
	{regexp.MustCompile(`/Users/[^/\s]+/`), `/Users/****/`},

	{regexp.MustCompile(`(?i)(mongodb://)[^:]+:[^@]+@`), `$1***:***@`},
	{regexp.MustCompile(`(?i)(postgres://)[^:]+:[^@]+@`), `$1***:***@`},

	{regexp.MustCompile(`(ENV\[)[^\]]+\]`), `$1***`},

	{regexp.MustCompile(`(\d{1,3})\.(\d{1,3})\.(\d{1,3})\.(\d{1,3})`), `$1.***.***.$4`},
}

// RedactError removes sensitive information (credentials, tokens, private
// keys, home-directory paths, connection strings, partial IP addresses)
// from a message before it is logged or returned to a caller.
func RedactError(message string) string {
	if message == "" {
		return message
	}

	redacted := message
	for _, rule := range redactionTable {
		redacted = rule.pattern.ReplaceAllString(redacted, rule.replacement)
	}
	return redacted
}

// RedactErrorWithContext additionally strips a literal repository path and
// any "parameters: {...}" blob from message, matching the context-aware
// sanitization applied around argument dumps and workspace paths.
func RedactErrorWithContext(message, repoPath string, hasParameters bool) string {
	redacted := RedactError(message)

	if hasParameters {
		redacted = parametersBlobPattern.ReplaceAllString(redacted, "parameters: ***")
	}

	if repoPath != "" {
		redacted = strings.ReplaceAll(redacted, repoPath, "/****/")
	}

	return redacted
}

var parametersBlobPattern = regexp.MustCompile(`(?s)parameters:\s*\{.*?\}`)

// sensitiveKeyPatterns are substrings that mark a map key as carrying a
// credential: its value is always fully masked, never passed through
// RedactError's pattern table.
var sensitiveKeyPatterns = []string{
	"password", "passwd", "pwd",
	"token", "access_token", "refresh_token",
	"secret", "api_key", "apikey",
	"private_key", "ssh_key",
}

// RedactMap sanitizes string values in data. Keys matching a sensitive
// pattern are fully masked; all other string values pass through
// RedactError. Non-string values are copied unchanged.
func RedactMap(data map[string]any) map[string]any {
	result := make(map[string]any, len(data))
	for key, value := range data {
		s, isString := value.(string)
		if !isString {
			result[key] = value
			continue
		}
		if isSensitiveKey(key) {
			result[key] = "***"
		} else {
			result[key] = RedactError(s)
		}
	}
	return result
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}
