package sanitize

import (
	"strings"
	"testing"
)

func TestSanitizeRemoteURL_AllowsStandardProtocols(t *testing.T) {
	tests := []string{
		"https://github.com/org/repo.git",
		"http://example.com/repo.git",
		"git://example.com/repo.git",
		"ssh://git@example.com/repo.git",
		"git@github.com:org/repo.git",
		"/srv/repos/local.git",
	}

	for _, url := range tests {
		t.Run(url, func(t *testing.T) {
			if _, err := SanitizeRemoteURL(url); err != nil {
				t.Errorf("SanitizeRemoteURL(%q) returned error: %v", url, err)
			}
		})
	}
}

func TestSanitizeRemoteURL_RejectsUnknownProtocol(t *testing.T) {
	if _, err := SanitizeRemoteURL("ftp://example.com/repo.git"); err == nil {
		t.Fatal("expected ftp:// to be rejected")
	}
}

func TestSanitizeRemoteURL_RejectsShellMetacharacters(t *testing.T) {
	if _, err := SanitizeRemoteURL("https://example.com/$(whoami).git"); err == nil {
		t.Fatal("expected shell metacharacters to be rejected")
	}
}

func TestSanitizeRemoteURL_RejectsLocalhostVariants(t *testing.T) {
	tests := []string{
		"http://localhost/repo.git",
		"http://127.0.0.1/repo.git",
		"http://0177.0.0.1/repo.git",
		"http://0x7f.0.0.1/repo.git",
		"http://2130706433/repo.git",
	}

	for _, url := range tests {
		t.Run(url, func(t *testing.T) {
			if _, err := SanitizeRemoteURL(url); err == nil {
				t.Errorf("SanitizeRemoteURL(%q) should reject localhost variant", url)
			}
		})
	}
}

func TestSanitizeRemoteURL_RejectsPrivateIP(t *testing.T) {
	if _, err := SanitizeRemoteURL("http://10.0.0.5/repo.git"); err == nil {
		t.Fatal("expected private IP to be rejected")
	}
}

func TestSanitizeRemoteURL_RejectsFileScheme(t *testing.T) {
	if _, err := SanitizeRemoteURL("file:///etc/passwd"); err == nil {
		t.Fatal("expected file:// to be rejected")
	}
}

func TestSanitizeRemoteURL_RejectsTooLong(t *testing.T) {
	url := "https://example.com/" + strings.Repeat("a", MaxRemoteURLLength)
	if _, err := SanitizeRemoteURL(url); err == nil {
		t.Fatal("expected oversized URL to be rejected")
	}
}

func TestSanitizeRemoteURL_BoundaryLength(t *testing.T) {
	prefix := "https://example.com/"
	padding := MaxRemoteURLLength - len(prefix)
	url := prefix + strings.Repeat("a", padding)
	if _, err := SanitizeRemoteURL(url); err != nil {
		t.Errorf("URL at exactly the max length should be accepted: %v", err)
	}
}
