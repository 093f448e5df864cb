// Package sanitize implements the input, path, branch, remote URL, commit
// message, and error redaction battery that every operation routed through
// internal/dispatch passes its arguments through before touching a
// GitAdapter.
//
// Import Path: kv-shepherd.io/shepherd/internal/sanitize
package sanitize

// Length limits enforced on user-supplied strings before they reach a
// GitAdapter. These mirror the limits the Git operations core has always
// used for the corresponding fields.
const (
	MaxInputLength      = 1000
	MaxBranchNameLength = 255
	MaxCommitMessageLen = 10000
	MaxRemoteURLLength  = 2048
	MaxRepoPathLength   = 4096
)
