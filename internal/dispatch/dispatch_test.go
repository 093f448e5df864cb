package dispatch

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap/zaptest"

	"kv-shepherd.io/shepherd/internal/audit"
	"kv-shepherd.io/shepherd/internal/gitops"
	"kv-shepherd.io/shepherd/internal/gitops/gitopstest"
	"kv-shepherd.io/shepherd/internal/metrics"
)

func newTestDispatcher(t *testing.T) (*Dispatcher, *audit.Logger) {
	t.Helper()
	log := zaptest.NewLogger(t)
	auditLog, err := audit.NewLogger(audit.Config{}, log)
	if err != nil {
		t.Fatalf("audit.NewLogger() error = %v", err)
	}
	coll := metrics.NewCollector(metrics.NewRegistry(nil))
	d := New(log, auditLog, coll, gitops.NewNoopTracer(), "/workspace-root")
	return d, auditLog
}

func TestDispatcher_UnknownOperation(t *testing.T) {
	d, _ := newTestDispatcher(t)

	_, err := d.Dispatch(context.Background(), "not_a_real_op", "alice", "ws-1", nil)
	if err == nil {
		t.Fatal("Dispatch() error = nil, want error for unknown operation")
	}
}

func TestDispatcher_ClonePassesSanitizedURL(t *testing.T) {
	d, _ := newTestDispatcher(t)
	adapter := gitopstest.NewFakeGitAdapter()

	var gotURL string
	d.Register("clone", Spec{
		Args: map[string]ArgKind{"url": ArgURL, "branch": ArgBranchOrName},
		Operation: func(ctx context.Context, params map[string]any) (any, error) {
			gotURL = params["url"].(string)
			res, err := adapter.Clone(ctx, "/ws", gotURL, params["branch"].(string), 0)
			return res, err
		},
	})

	_, err := d.Dispatch(context.Background(), "clone", "alice", "ws-1", map[string]any{
		"url":    "https://example.com/repo.git",
		"branch": "main",
	})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if gotURL != "https://example.com/repo.git" {
		t.Errorf("url = %q", gotURL)
	}
	if len(adapter.Calls) != 1 || adapter.Calls[0] != "clone" {
		t.Errorf("adapter.Calls = %v, want [clone]", adapter.Calls)
	}
}

func TestDispatcher_RejectsUnsafeURL(t *testing.T) {
	d, _ := newTestDispatcher(t)

	d.Register("clone", Spec{
		Args: map[string]ArgKind{"url": ArgURL},
		Operation: func(ctx context.Context, params map[string]any) (any, error) {
			return nil, nil
		},
	})

	_, err := d.Dispatch(context.Background(), "clone", "alice", "ws-1", map[string]any{
		"url": "file:///etc/passwd",
	})
	if err == nil {
		t.Fatal("Dispatch() error = nil, want rejection of a file:// url")
	}
}

func TestDispatcher_RecordsAuditEventOnFailure(t *testing.T) {
	d, auditLog := newTestDispatcher(t)

	d.Register("push", Spec{
		Operation: func(ctx context.Context, params map[string]any) (any, error) {
			return nil, errors.New("remote rejected push")
		},
	})

	_, err := d.Dispatch(context.Background(), "push", "alice", "ws-1", nil)
	if err == nil {
		t.Fatal("Dispatch() error = nil, want the operation's error surfaced")
	}

	events := auditLog.GetRecentEvents(10)
	if len(events) != 1 || events[0].EventType != audit.EventGitPush {
		t.Fatalf("audit events = %+v, want one git_push event", events)
	}
}
