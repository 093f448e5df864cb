package gitops

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// diskWorkspaceAllocator is the conventional default WorkspaceAllocator: it
// creates one real directory per allocation under root and tracks the set
// of allocated workspaces in memory.
type diskWorkspaceAllocator struct {
	root string

	mu     sync.Mutex
	spaces map[string]WorkspaceInfo
}

// NewDiskWorkspaceAllocator constructs a WorkspaceAllocator rooted at root.
// The constructor does not touch the filesystem; root is created by the
// first Allocate if it does not already exist.
func NewDiskWorkspaceAllocator(root string) WorkspaceAllocator {
	return &diskWorkspaceAllocator{
		root:   root,
		spaces: make(map[string]WorkspaceInfo),
	}
}

func (a *diskWorkspaceAllocator) Allocate(ctx context.Context) (WorkspaceInfo, error) {
	id := uuid.NewString()
	path := filepath.Join(a.root, id)
	if err := os.MkdirAll(path, 0o750); err != nil {
		return WorkspaceInfo{}, err
	}

	info := WorkspaceInfo{ID: id, Path: path, CreatedAt: time.Now().Unix()}

	a.mu.Lock()
	a.spaces[id] = info
	a.mu.Unlock()
	return info, nil
}

func (a *diskWorkspaceAllocator) Get(ctx context.Context, id string) (WorkspaceInfo, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	info, ok := a.spaces[id]
	return info, ok
}

func (a *diskWorkspaceAllocator) Release(ctx context.Context, id string) error {
	a.mu.Lock()
	info, ok := a.spaces[id]
	delete(a.spaces, id)
	a.mu.Unlock()

	if !ok {
		return nil
	}
	return os.RemoveAll(info.Path)
}

func (a *diskWorkspaceAllocator) List(ctx context.Context) []WorkspaceInfo {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]WorkspaceInfo, 0, len(a.spaces))
	for _, v := range a.spaces {
		out = append(out, v)
	}
	return out
}

// DiskSpace reports the total size of every allocated workspace under
// root. It does not query filesystem-level free space, so totalBytes is
// always 0 and aboveThreshold is always false; a real quota backend is an
// external collaborator this default does not implement.
func (a *diskWorkspaceAllocator) DiskSpace(ctx context.Context, warningThreshold float64) (usedBytes, totalBytes int64, aboveThreshold bool) {
	a.mu.Lock()
	roots := make([]string, 0, len(a.spaces))
	for _, v := range a.spaces {
		roots = append(roots, v.Path)
	}
	a.mu.Unlock()

	var used int64
	for _, root := range roots {
		_ = filepath.Walk(root, func(_ string, fi os.FileInfo, err error) error {
			if err != nil || fi == nil || fi.IsDir() {
				return nil
			}
			used += fi.Size()
			return nil
		})
	}
	return used, 0, false
}

var _ WorkspaceAllocator = (*diskWorkspaceAllocator)(nil)
