package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"kv-shepherd.io/shepherd/internal/sanitize"
)

// Config controls the audit logger's memory and file-rotation behavior.
type Config struct {
	// LogPath is the JSON-lines audit file. Empty disables file persistence;
	// the in-memory ring is always active regardless.
	LogPath string

	// MaxFileSizeBytes triggers rotation once the current log file reaches
	// this size. Defaults to 10 MiB.
	MaxFileSizeBytes int64

	// BackupCount is how many rotated files (.log.1 .. .log.N) are kept.
	BackupCount int

	// MaxMemoryEvents bounds the in-memory ring.
	MaxMemoryEvents int
}

func (c Config) withDefaults() Config {
	if c.MaxFileSizeBytes <= 0 {
		c.MaxFileSizeBytes = 10 * 1024 * 1024
	}
	if c.BackupCount <= 0 {
		c.BackupCount = 5
	}
	if c.MaxMemoryEvents <= 0 {
		c.MaxMemoryEvents = 1000
	}
	return c
}

// Logger is the audit log: a bounded in-memory ring, an optional rotating
// file, and query helpers over the in-memory set.
type Logger struct {
	cfg    Config
	ring   *ring
	log    *zap.Logger
	fileMu sync.Mutex
}

// NewLogger constructs an audit Logger. If cfg.LogPath is set, its parent
// directory is created eagerly.
func NewLogger(cfg Config, log *zap.Logger) (*Logger, error) {
	cfg = cfg.withDefaults()
	if log == nil {
		log = zap.NewNop()
	}

	if cfg.LogPath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogPath), 0o750); err != nil {
			return nil, fmt.Errorf("create audit log directory: %w", err)
		}
	}

	return &Logger{
		cfg:  cfg,
		ring: newRing(cfg.MaxMemoryEvents),
		log:  log,
	}, nil
}

// LogEvent records e in the in-memory ring, optionally appends it to the
// audit file (rotating first if the file has grown past the configured
// size), and mirrors it to the structured application log.
func (l *Logger) LogEvent(e Event) {
	l.ring.append(e)

	if l.cfg.LogPath != "" {
		l.writeToFile(e)
	}

	l.log.Log(levelFor(e.Severity), "audit event",
		zap.String("event_type", string(e.EventType)),
		zap.String("event_id", e.EventID),
	)
}

func levelFor(s Severity) zapcore.Level {
	switch s {
	case SeverityWarning:
		return zapcore.WarnLevel
	case SeverityError:
		return zapcore.ErrorLevel
	case SeverityCritical:
		return zapcore.DPanicLevel
	default:
		return zapcore.InfoLevel
	}
}

func (l *Logger) writeToFile(e Event) {
	l.fileMu.Lock()
	defer l.fileMu.Unlock()

	if info, err := os.Stat(l.cfg.LogPath); err == nil && info.Size() >= l.cfg.MaxFileSizeBytes {
		if err := l.rotateLocked(); err != nil {
			l.log.Error("failed to rotate audit log file", zap.Error(err))
		}
	}

	f, err := os.OpenFile(l.cfg.LogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o640)
	if err != nil {
		l.log.Error("failed to open audit log file", zap.Error(err))
		return
	}
	defer f.Close()

	payload, err := json.Marshal(e)
	if err != nil {
		l.log.Error("failed to marshal audit event", zap.Error(err))
		return
	}
	if _, err := f.Write(append(payload, '\n')); err != nil {
		l.log.Error("failed to write audit event to file", zap.Error(err))
	}
}

// rotateLocked shifts .log.1..N-1 to .log.2..N and renames the active file
// to .log.1. Caller must hold fileMu.
func (l *Logger) rotateLocked() error {
	base := l.cfg.LogPath
	for i := l.cfg.BackupCount - 1; i >= 1; i-- {
		oldBackup := fmt.Sprintf("%s.log.%d", base, i)
		newBackup := fmt.Sprintf("%s.log.%d", base, i+1)
		if _, err := os.Stat(oldBackup); err == nil {
			if err := os.Rename(oldBackup, newBackup); err != nil {
				return fmt.Errorf("shift backup %s: %w", oldBackup, err)
			}
		}
	}

	if _, err := os.Stat(base); err == nil {
		if err := os.Rename(base, base+".log.1"); err != nil {
			return fmt.Errorf("rotate active log: %w", err)
		}
	}

	l.log.Info("rotated audit log file", zap.String("path", base))
	return nil
}

// QueryFilter narrows QueryEvents to matching events. Zero-value fields are
// not applied.
type QueryFilter struct {
	EventType   EventType
	Severity    Severity
	UserID      string
	WorkspaceID string
	StartTime   time.Time
	EndTime     time.Time
	Limit       int
}

// QueryEvents returns in-memory events matching filter, newest first,
// capped at filter.Limit (default 100).
func (l *Logger) QueryEvents(filter QueryFilter) []Event {
	events := l.ring.snapshot()

	filtered := make([]Event, 0, len(events))
	for _, e := range events {
		if filter.EventType != "" && e.EventType != filter.EventType {
			continue
		}
		if filter.Severity != "" && e.Severity != filter.Severity {
			continue
		}
		if filter.UserID != "" && e.UserID != filter.UserID {
			continue
		}
		if filter.WorkspaceID != "" && e.WorkspaceID != filter.WorkspaceID {
			continue
		}
		if !filter.StartTime.IsZero() && e.Timestamp < filter.StartTime.UTC().Format(time.RFC3339) {
			continue
		}
		if !filter.EndTime.IsZero() && e.Timestamp > filter.EndTime.UTC().Format(time.RFC3339) {
			continue
		}
		filtered = append(filtered, e)
	}

	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].Timestamp > filtered[j].Timestamp
	})

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	if len(filtered) > limit {
		filtered = filtered[:limit]
	}
	return filtered
}

// GetRecentEvents returns the count most recent events with no filtering.
func (l *Logger) GetRecentEvents(count int) []Event {
	return l.QueryEvents(QueryFilter{Limit: count})
}

// GetSecurityEvents returns security-relevant events (auth failures,
// permission denials, suspicious activity, rate limiting) from the last
// `since` duration, newest first.
func (l *Logger) GetSecurityEvents(since time.Duration) []Event {
	startTime := time.Now().Add(-since)

	var combined []Event
	for _, eventType := range securityEventTypes {
		combined = append(combined, l.QueryEvents(QueryFilter{
			EventType: eventType,
			StartTime: startTime,
			Limit:     1_000_000,
		})...)
	}

	sort.Slice(combined, func(i, j int) bool {
		return combined[i].Timestamp > combined[j].Timestamp
	})
	return combined
}

// Statistics summarizes the in-memory event set.
type Statistics struct {
	TotalEvents    int            `json:"total_events"`
	ByType         map[string]int `json:"by_type"`
	BySeverity     map[string]int `json:"by_severity"`
	RecentActivity []Event        `json:"recent_activity"`
}

// GetStatistics summarizes the in-memory event set: totals by type and
// severity, plus the 10 most recent events.
func (l *Logger) GetStatistics() Statistics {
	events := l.ring.snapshot()
	if len(events) == 0 {
		return Statistics{ByType: map[string]int{}, BySeverity: map[string]int{}}
	}

	byType := map[string]int{}
	bySeverity := map[string]int{}
	for _, e := range events {
		byType[string(e.EventType)]++
		bySeverity[string(e.Severity)]++
	}

	sort.Slice(events, func(i, j int) bool {
		return events[i].Timestamp > events[j].Timestamp
	})
	recent := events
	if len(recent) > 10 {
		recent = recent[:10]
	}

	return Statistics{
		TotalEvents:    len(events),
		ByType:         byType,
		BySeverity:     bySeverity,
		RecentActivity: recent,
	}
}

// gitOperationEventTypes maps an operation name (as used by the
// dispatcher) to its audit event type.
var gitOperationEventTypes = map[string]EventType{
	"clone":    EventGitClone,
	"push":     EventGitPush,
	"pull":     EventGitPull,
	"fetch":    EventGitFetch,
	"commit":   EventGitCommit,
	"checkout": EventGitCheckout,
	"merge":    EventGitMerge,
	"rebase":   EventGitRebase,
}

// LogGitOperation records a Git operation outcome, sanitizing the
// repository URL before it is stored.
func (l *Logger) LogGitOperation(operation, repoURL, userID, workspaceID string, success bool, errMessage string, additional map[string]any) {
	eventType, known := gitOperationEventTypes[strings.ToLower(operation)]
	if !known {
		l.log.Warn("unknown git operation type for audit", zap.String("operation", operation))
		return
	}

	severity := SeverityInfo
	if !success {
		severity = SeverityError
	}

	details := map[string]any{
		"operation": operation,
		"success":   success,
	}
	for k, v := range additional {
		details[k] = v
	}
	if repoURL != "" {
		details["repo_url"] = sanitize.RedactError(repoURL)
	}
	if errMessage != "" {
		details["error"] = sanitize.RedactError(errMessage)
	}

	l.LogEvent(NewEvent(eventType, severity, userID, workspaceID, details))
}

// LogSecurityEvent records a non-Git security event.
func (l *Logger) LogSecurityEvent(eventType EventType, severity Severity, userID string, details map[string]any) {
	l.LogEvent(NewEvent(eventType, severity, userID, "", details))
}
