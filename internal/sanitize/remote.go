package sanitize

import (
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strings"
)

// allowedRemoteProtocols is the strict whitelist of accepted remote URL
// prefixes. Anything else is rejected outright.
var allowedRemoteProtocols = []string{
	"https://",
	"http://",
	"git://",
	"ssh://",
	"git@",
	"/",
}

// localhostPatterns are hostnames that are rejected in http(s) URLs,
// including obfuscated encodings of the loopback address.
var localhostPatterns = map[string]bool{
	"localhost":   true,
	"127.0.0.1":   true,
	"::1":         true,
	"0.0.0.0":     true,
	"127.0.0.2":   true,
	"127.1":       true,
	"127.1.1.1":   true,
	"0177.0.0.1":  true, // octal
	"0x7f.0.0.1":  true, // hex
	"2130706433":  true, // decimal
}

var remoteURLDangerousChars = regexp.MustCompile(`[;&|` + "`" + `$(){}\[\]<>\\"']|[\n\r]`)

// SanitizeRemoteURL validates a Git remote URL against a protocol whitelist
// and, for http(s) URLs, against SSRF defenses: hardcoded localhost
// variants (including obfuscated forms), private/loopback/link-local/
// reserved IP ranges, a DNS-rebinding check via forward resolution, and an
// explicit rejection of the file:// scheme.
func SanitizeRemoteURL(remoteURL string) (string, error) {
	if len(remoteURL) > MaxRemoteURLLength {
		return "", fmt.Errorf("remote URL too long: %d characters (max %d)", len(remoteURL), MaxRemoteURLLength)
	}

	if remoteURLDangerousChars.MatchString(remoteURL) {
		return "", fmt.Errorf("invalid characters in URL: %s", remoteURL)
	}

	trimmed := strings.TrimSpace(remoteURL)
	if trimmed == "" {
		return "", fmt.Errorf("URL cannot be empty")
	}

	lower := strings.ToLower(trimmed)
	allowed := false
	for _, prefix := range allowedRemoteProtocols {
		if strings.HasPrefix(lower, prefix) {
			allowed = true
			break
		}
	}
	if !allowed {
		return "", fmt.Errorf("invalid URL format or unsupported protocol: %s. allowed protocols: %s",
			trimmed, strings.Join(allowedRemoteProtocols, ", "))
	}

	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		if err := checkSSRF(trimmed); err != nil {
			return "", err
		}
	}

	return trimmed, nil
}

func checkSSRF(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if parsed.Scheme == "file" {
		return fmt.Errorf("file:// protocol is not allowed: %s", rawURL)
	}

	hostname := parsed.Hostname()
	if hostname == "" {
		return nil
	}

	if localhostPatterns[strings.ToLower(hostname)] {
		return fmt.Errorf("localhost URLs are not allowed for security reasons: %s", rawURL)
	}

	if ip := net.ParseIP(hostname); ip != nil {
		if isDisallowedIP(ip) {
			return fmt.Errorf("private/local IP addresses are not allowed: %s", hostname)
		}
		return nil
	}

	// Not a literal IP: resolve to defend against DNS rebinding, where a
	// hostname that looks external resolves to a private/loopback address.
	addrs, resolveErr := net.LookupIP(hostname)
	if resolveErr != nil {
		// DNS resolution failed at validation time; the hostname might
		// still be valid by the time the adapter actually dials it, so we
		// don't hard-fail here, matching the lenient original behavior.
		return nil
	}
	for _, addr := range addrs {
		if isDisallowedIP(addr) {
			return fmt.Errorf("hostname resolves to private/local IP: %s -> %s", hostname, addr)
		}
	}

	return nil
}

func isDisallowedIP(ip net.IP) bool {
	return ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() ||
		ip.IsPrivate() || isReservedIP(ip)
}

// isReservedIP covers ranges net.IP's helpers don't classify as private but
// that are still not routable to an arbitrary external host: 0.0.0.0/8,
// multicast, and unspecified.
func isReservedIP(ip net.IP) bool {
	if ip.IsUnspecified() || ip.IsMulticast() {
		return true
	}
	if v4 := ip.To4(); v4 != nil {
		return v4[0] == 0
	}
	return false
}
