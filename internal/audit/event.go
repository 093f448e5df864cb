// Package audit provides the security audit log: an in-memory ring of
// recent events plus an optional rotating JSON-lines file, with query
// helpers for the admin surface.
//
// Import Path: kv-shepherd.io/shepherd/internal/audit
package audit

import (
	"time"

	"github.com/google/uuid"
)

// EventType is the closed taxonomy of audit event kinds.
type EventType string

const (
	EventGitClone    EventType = "git_clone"
	EventGitPush     EventType = "git_push"
	EventGitPull     EventType = "git_pull"
	EventGitFetch    EventType = "git_fetch"
	EventGitCommit   EventType = "git_commit"
	EventGitCheckout EventType = "git_checkout"
	EventGitMerge    EventType = "git_merge"
	EventGitRebase   EventType = "git_rebase"

	EventCredentialLoaded   EventType = "credential_loaded"
	EventCredentialAccessed EventType = "credential_accessed"
	EventCredentialCleared  EventType = "credential_cleared"
	EventCredentialRotated  EventType = "credential_rotated"

	EventAuthFailed         EventType = "auth_failed"
	EventAuthSucceeded      EventType = "auth_succeeded"
	EventPermissionDenied   EventType = "permission_denied"
	EventSuspiciousActivity EventType = "suspicious_activity"
	EventRateLimitExceeded  EventType = "rate_limit_exceeded"

	EventSystemStart    EventType = "system_start"
	EventSystemStop     EventType = "system_stop"
	EventConfigChanged  EventType = "config_changed"

	EventWorkspaceAllocated EventType = "workspace_allocated"
	EventWorkspaceReleased  EventType = "workspace_released"
	EventWorkspaceAccessed  EventType = "workspace_accessed"
)

// securityEventTypes are the event types surfaced by GetSecurityEvents.
var securityEventTypes = []EventType{
	EventAuthFailed,
	EventPermissionDenied,
	EventSuspiciousActivity,
	EventRateLimitExceeded,
}

// Severity is the audit severity scale.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Event is a single audit record.
type Event struct {
	EventID     string         `json:"event_id"`
	Timestamp   string         `json:"timestamp"`
	EventType   EventType      `json:"event_type"`
	Severity    Severity       `json:"severity"`
	UserID      string         `json:"user_id,omitempty"`
	WorkspaceID string         `json:"workspace_id,omitempty"`
	Details     map[string]any `json:"details,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// NewEvent constructs an Event with a fresh UUIDv7 ID and a UTC RFC3339
// timestamp, matching the time.Now().isoformat() convention of the
// original implementation this log is ported from, but pinned to UTC.
func NewEvent(eventType EventType, severity Severity, userID, workspaceID string, details map[string]any) Event {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return Event{
		EventID:     id.String(),
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		EventType:   eventType,
		Severity:    severity,
		UserID:      userID,
		WorkspaceID: workspaceID,
		Details:     details,
	}
}
