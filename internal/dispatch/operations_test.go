package dispatch

import (
	"context"
	"testing"

	"go.uber.org/zap/zaptest"

	"kv-shepherd.io/shepherd/internal/gitops"
	"kv-shepherd.io/shepherd/internal/gitops/gitopstest"
	"kv-shepherd.io/shepherd/internal/queue"
)

func newRegisteredDispatcher(t *testing.T) (*Dispatcher, *gitopstest.FakeGitAdapter, *gitopstest.FakeWorkspaceAllocator, *queue.Queue) {
	t.Helper()
	d, _ := newTestDispatcher(t)
	adapter := gitopstest.NewFakeGitAdapter()
	allocator := gitopstest.NewFakeWorkspaceAllocator()
	q := queue.New(queue.Config{MaxConcurrent: 1}, zaptest.NewLogger(t))
	RegisterOperations(d, adapter, allocator, q)
	return d, adapter, allocator, q
}

func TestRegisterOperations_CoversTaxonomy(t *testing.T) {
	d, _, _, _ := newRegisteredDispatcher(t)

	names := []string{
		"allocate_workspace", "get_workspace", "release_workspace", "list_workspaces", "disk_space",
		"clone", "init", "status", "stage", "commit",
		"push", "pull", "fetch", "list_remotes", "add_remote", "remove_remote",
		"checkout", "list_branches", "create_branch", "delete_branch",
		"merge", "rebase",
		"log", "show", "diff", "blame",
		"stash", "list_stash",
		"list_tags", "create_tag", "delete_tag",
		"lfs_init", "lfs_track", "lfs_untrack", "lfs_status", "lfs_pull", "lfs_push", "lfs_fetch", "lfs_install",
		"sparse_checkout", "submodule_add", "submodule_update", "submodule_deinit", "submodule_list",
		"get_task", "list_tasks", "cancel_task",
	}
	for _, name := range names {
		if _, ok := d.registry[name]; !ok {
			t.Errorf("registry missing operation %q", name)
		}
	}
}

func TestRegisterOperations_CloneRunsAgainstResolvedWorkspace(t *testing.T) {
	d, adapter, allocator, _ := newRegisteredDispatcher(t)

	ws, err := allocator.Allocate(context.Background())
	if err != nil {
		t.Fatalf("Allocate() error = %v", err)
	}

	_, err = d.Dispatch(context.Background(), "clone", "alice", ws.ID, map[string]any{
		"url":    "https://example.com/repo.git",
		"branch": "main",
	})
	if err != nil {
		t.Fatalf("Dispatch(clone) error = %v", err)
	}
	if len(adapter.Calls) != 1 || adapter.Calls[0] != "clone" {
		t.Errorf("adapter.Calls = %v, want [clone]", adapter.Calls)
	}
}

func TestRegisterOperations_UnknownWorkspaceIsRejected(t *testing.T) {
	d, _, _, _ := newRegisteredDispatcher(t)

	_, err := d.Dispatch(context.Background(), "status", "alice", "does-not-exist", nil)
	if err == nil {
		t.Fatal("Dispatch(status) error = nil, want rejection for an unresolved workspace")
	}
}

func TestRegisterOperations_TaskLifecycle(t *testing.T) {
	d, _, _, q := newRegisteredDispatcher(t)

	block := make(chan struct{})
	q.Start(context.Background())
	defer q.Stop()

	id, err := q.Submit(func(ctx context.Context, params map[string]any) (any, error) {
		<-block
		return nil, nil
	}, queue.PriorityNormal, nil, nil)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	pendingID, err := q.Submit(func(ctx context.Context, params map[string]any) (any, error) {
		return nil, nil
	}, queue.PriorityNormal, nil, nil)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	result, err := d.Dispatch(context.Background(), "cancel_task", "alice", "", map[string]any{"id": pendingID})
	if err != nil {
		t.Fatalf("Dispatch(cancel_task) error = %v", err)
	}
	if m, ok := result.(map[string]any); !ok || m["cancelled"] != true {
		t.Errorf("cancel_task result = %+v, want cancelled=true", result)
	}

	close(block)
	_ = id
}
