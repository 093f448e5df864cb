// Package gitopstest provides in-memory fakes of the internal/gitops
// collaborator contracts for dispatcher tests. Nothing here is imported
// by non-test code.
package gitopstest

import (
	"context"
	"fmt"
	"sync"

	"kv-shepherd.io/shepherd/internal/gitops"
)

// FakeGitAdapter returns canned results per call, keyed by the method
// name it recorded, and records every invocation for assertions.
type FakeGitAdapter struct {
	mu      sync.Mutex
	Calls   []string
	Results map[string]gitops.Result
	Errors  map[string]error
}

// NewFakeGitAdapter constructs an empty FakeGitAdapter.
func NewFakeGitAdapter() *FakeGitAdapter {
	return &FakeGitAdapter{
		Results: make(map[string]gitops.Result),
		Errors:  make(map[string]error),
	}
}

func (f *FakeGitAdapter) record(name string) (gitops.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, name)
	return f.Results[name], f.Errors[name]
}

func (f *FakeGitAdapter) Clone(ctx context.Context, workspacePath, url, branch string, depth int) (gitops.Result, error) {
	return f.record("clone")
}
func (f *FakeGitAdapter) Init(ctx context.Context, workspacePath string, bare bool, defaultBranch string) (gitops.Result, error) {
	return f.record("init")
}
func (f *FakeGitAdapter) Status(ctx context.Context, workspacePath string) (gitops.Result, error) {
	return f.record("status")
}
func (f *FakeGitAdapter) Stage(ctx context.Context, workspacePath string, files []string) (gitops.Result, error) {
	return f.record("stage")
}
func (f *FakeGitAdapter) Commit(ctx context.Context, workspacePath, message, authorName, authorEmail string) (gitops.Result, error) {
	return f.record("commit")
}
func (f *FakeGitAdapter) Push(ctx context.Context, workspacePath, remote, branch string, force bool) (gitops.Result, error) {
	return f.record("push")
}
func (f *FakeGitAdapter) Pull(ctx context.Context, workspacePath, remote, branch string, rebase bool) (gitops.Result, error) {
	return f.record("pull")
}
func (f *FakeGitAdapter) Fetch(ctx context.Context, workspacePath, remote string, tags bool) (gitops.Result, error) {
	return f.record("fetch")
}
func (f *FakeGitAdapter) ListRemotes(ctx context.Context, workspacePath string) (gitops.Result, error) {
	return f.record("list_remotes")
}
func (f *FakeGitAdapter) AddRemote(ctx context.Context, workspacePath, name, url string) (gitops.Result, error) {
	return f.record("add_remote")
}
func (f *FakeGitAdapter) RemoveRemote(ctx context.Context, workspacePath, name string) (gitops.Result, error) {
	return f.record("remove_remote")
}
func (f *FakeGitAdapter) Checkout(ctx context.Context, workspacePath, branch string, createNew, force bool) (gitops.Result, error) {
	return f.record("checkout")
}
func (f *FakeGitAdapter) ListBranches(ctx context.Context, workspacePath string, local, remote, all bool) (gitops.Result, error) {
	return f.record("list_branches")
}
func (f *FakeGitAdapter) CreateBranch(ctx context.Context, workspacePath, name, revision string, force bool) (gitops.Result, error) {
	return f.record("create_branch")
}
func (f *FakeGitAdapter) DeleteBranch(ctx context.Context, workspacePath, name string, force, remote bool) (gitops.Result, error) {
	return f.record("delete_branch")
}
func (f *FakeGitAdapter) Merge(ctx context.Context, workspacePath, sourceBranch string, fastForward bool) (gitops.Result, error) {
	return f.record("merge")
}
func (f *FakeGitAdapter) Rebase(ctx context.Context, workspacePath, branch string, abort, continue_ bool) (gitops.Result, error) {
	return f.record("rebase")
}
func (f *FakeGitAdapter) Log(ctx context.Context, workspacePath string, maxCount int, author string, all bool) (gitops.Result, error) {
	return f.record("log")
}
func (f *FakeGitAdapter) Show(ctx context.Context, workspacePath, revision string) (gitops.Result, error) {
	return f.record("show")
}
func (f *FakeGitAdapter) Diff(ctx context.Context, workspacePath string, cached bool, commitOID string) (gitops.Result, error) {
	return f.record("diff")
}
func (f *FakeGitAdapter) Blame(ctx context.Context, workspacePath, path string) (gitops.Result, error) {
	return f.record("blame")
}
func (f *FakeGitAdapter) StashSave(ctx context.Context, workspacePath, message string, includeUntracked bool) (gitops.Result, error) {
	return f.record("stash_save")
}
func (f *FakeGitAdapter) StashPop(ctx context.Context, workspacePath string) (gitops.Result, error) {
	return f.record("stash_pop")
}
func (f *FakeGitAdapter) StashApply(ctx context.Context, workspacePath string) (gitops.Result, error) {
	return f.record("stash_apply")
}
func (f *FakeGitAdapter) StashDrop(ctx context.Context, workspacePath string) (gitops.Result, error) {
	return f.record("stash_drop")
}
func (f *FakeGitAdapter) ListStash(ctx context.Context, workspacePath string) (gitops.Result, error) {
	return f.record("list_stash")
}
func (f *FakeGitAdapter) ListTags(ctx context.Context, workspacePath string) (gitops.Result, error) {
	return f.record("list_tags")
}
func (f *FakeGitAdapter) CreateTag(ctx context.Context, workspacePath, name, message string, force bool) (gitops.Result, error) {
	return f.record("create_tag")
}
func (f *FakeGitAdapter) DeleteTag(ctx context.Context, workspacePath, name string) (gitops.Result, error) {
	return f.record("delete_tag")
}
func (f *FakeGitAdapter) LfsInit(ctx context.Context, workspacePath string) (gitops.Result, error) {
	return f.record("lfs_init")
}
func (f *FakeGitAdapter) LfsTrack(ctx context.Context, workspacePath string, patterns []string) (gitops.Result, error) {
	return f.record("lfs_track")
}
func (f *FakeGitAdapter) LfsUntrack(ctx context.Context, workspacePath string, patterns []string) (gitops.Result, error) {
	return f.record("lfs_untrack")
}
func (f *FakeGitAdapter) LfsStatus(ctx context.Context, workspacePath string) (gitops.Result, error) {
	return f.record("lfs_status")
}
func (f *FakeGitAdapter) LfsPull(ctx context.Context, workspacePath, remote string) (gitops.Result, error) {
	return f.record("lfs_pull")
}
func (f *FakeGitAdapter) LfsPush(ctx context.Context, workspacePath, remote string) (gitops.Result, error) {
	return f.record("lfs_push")
}
func (f *FakeGitAdapter) LfsFetch(ctx context.Context, workspacePath, remote string) (gitops.Result, error) {
	return f.record("lfs_fetch")
}
func (f *FakeGitAdapter) LfsInstall(ctx context.Context, workspacePath string) (gitops.Result, error) {
	return f.record("lfs_install")
}
func (f *FakeGitAdapter) SparseCheckout(ctx context.Context, workspacePath string, paths []string, mode string) (gitops.Result, error) {
	return f.record("sparse_checkout")
}
func (f *FakeGitAdapter) SubmoduleAdd(ctx context.Context, workspacePath, url, path string) (gitops.Result, error) {
	return f.record("submodule_add")
}
func (f *FakeGitAdapter) SubmoduleUpdate(ctx context.Context, workspacePath string, init bool) (gitops.Result, error) {
	return f.record("submodule_update")
}
func (f *FakeGitAdapter) SubmoduleDeinit(ctx context.Context, workspacePath, path string) (gitops.Result, error) {
	return f.record("submodule_deinit")
}
func (f *FakeGitAdapter) SubmoduleList(ctx context.Context, workspacePath string) (gitops.Result, error) {
	return f.record("submodule_list")
}

// FakeWorkspaceAllocator is an in-memory WorkspaceAllocator backed by a
// map, assigning sequential IDs.
type FakeWorkspaceAllocator struct {
	mu      sync.Mutex
	next    int
	spaces  map[string]gitops.WorkspaceInfo
}

// NewFakeWorkspaceAllocator constructs an empty FakeWorkspaceAllocator.
func NewFakeWorkspaceAllocator() *FakeWorkspaceAllocator {
	return &FakeWorkspaceAllocator{spaces: make(map[string]gitops.WorkspaceInfo)}
}

func (f *FakeWorkspaceAllocator) Allocate(ctx context.Context) (gitops.WorkspaceInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	id := fmt.Sprintf("ws-%d", f.next)
	info := gitops.WorkspaceInfo{ID: id, Path: "/tmp/" + id}
	f.spaces[id] = info
	return info, nil
}

func (f *FakeWorkspaceAllocator) Get(ctx context.Context, id string) (gitops.WorkspaceInfo, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	info, ok := f.spaces[id]
	return info, ok
}

func (f *FakeWorkspaceAllocator) Release(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.spaces, id)
	return nil
}

func (f *FakeWorkspaceAllocator) List(ctx context.Context) []gitops.WorkspaceInfo {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]gitops.WorkspaceInfo, 0, len(f.spaces))
	for _, v := range f.spaces {
		out = append(out, v)
	}
	return out
}

func (f *FakeWorkspaceAllocator) DiskSpace(ctx context.Context, warningThreshold float64) (int64, int64, bool) {
	return 0, 0, false
}

var (
	_ gitops.GitAdapter         = (*FakeGitAdapter)(nil)
	_ gitops.WorkspaceAllocator = (*FakeWorkspaceAllocator)(nil)
)
