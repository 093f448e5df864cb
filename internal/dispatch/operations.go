package dispatch

import (
	"context"

	apperrors "kv-shepherd.io/shepherd/internal/pkg/errors"
	"kv-shepherd.io/shepherd/internal/gitops"
	"kv-shepherd.io/shepherd/internal/queue"
	"kv-shepherd.io/shepherd/internal/sanitize"
)

// RegisterOperations wires every name in the operation taxonomy to a
// handler closed over adapter, allocator, and q. Called once from the
// composition root after all three collaborators exist.
func RegisterOperations(d *Dispatcher, adapter gitops.GitAdapter, allocator gitops.WorkspaceAllocator, q *queue.Queue) {
	registerWorkspaceOps(d, allocator)
	registerRepositoryOps(d, adapter, allocator)
	registerCommitOps(d, adapter, allocator)
	registerRemoteOps(d, adapter, allocator)
	registerBranchOps(d, adapter, allocator)
	registerMergeRebaseOps(d, adapter, allocator)
	registerHistoryOps(d, adapter, allocator)
	registerStashOps(d, adapter, allocator)
	registerTagOps(d, adapter, allocator)
	registerLfsOps(d, adapter, allocator)
	registerSparseSubmoduleOps(d, adapter, allocator)
	registerTaskOps(d, q)
}

func strParam(params map[string]any, key string) string {
	v, _ := params[key].(string)
	return v
}

func boolParam(params map[string]any, key string, def bool) bool {
	if v, ok := params[key].(bool); ok {
		return v
	}
	return def
}

func intParam(params map[string]any, key string, def int) int {
	switch v := params[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return def
}

func floatParam(params map[string]any, key string, def float64) float64 {
	switch v := params[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return def
}

func stringSliceParam(params map[string]any, key string) []string {
	switch v := params[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// resolveWorkspace looks up the workspace_id the dispatcher injected into
// params and resolves it to the on-disk path operations must run inside.
func resolveWorkspace(ctx context.Context, allocator gitops.WorkspaceAllocator, params map[string]any) (gitops.WorkspaceInfo, error) {
	id := strParam(params, "workspace_id")
	if id == "" {
		return gitops.WorkspaceInfo{}, apperrors.InvalidArgument(apperrors.CodeMissingField, "workspace_id is required")
	}
	info, ok := allocator.Get(ctx, id)
	if !ok {
		return gitops.WorkspaceInfo{}, apperrors.RepositoryNotFound(apperrors.CodeWorkspaceNotFound, "workspace not found: "+id)
	}
	return info, nil
}

// sanitizedPaths resolves every entry of raw against workspaceRoot,
// rejecting the whole batch if any entry fails. Used for array-valued
// path arguments (stage's files, sparse_checkout's paths) that the
// dispatcher's per-argument Spec.Args sanitization cannot reach because
// it only inspects scalar string values.
func sanitizedPaths(raw []string, workspaceRoot string) ([]string, error) {
	out := make([]string, len(raw))
	for i, p := range raw {
		clean, err := sanitize.SanitizePath(p, workspaceRoot)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.KindInvalidArgument, apperrors.CodeUnsafePath, "invalid path argument")
		}
		out[i] = clean
	}
	return out, nil
}

func registerWorkspaceOps(d *Dispatcher, allocator gitops.WorkspaceAllocator) {
	d.Register("allocate_workspace", Spec{
		Operation: func(ctx context.Context, params map[string]any) (any, error) {
			return allocator.Allocate(ctx)
		},
	})

	d.Register("get_workspace", Spec{
		Args: map[string]ArgKind{"id": ArgBranchOrName},
		Operation: func(ctx context.Context, params map[string]any) (any, error) {
			info, ok := allocator.Get(ctx, strParam(params, "id"))
			if !ok {
				return nil, apperrors.RepositoryNotFound(apperrors.CodeWorkspaceNotFound, "workspace not found")
			}
			return info, nil
		},
	})

	d.Register("release_workspace", Spec{
		Args: map[string]ArgKind{"id": ArgBranchOrName},
		Operation: func(ctx context.Context, params map[string]any) (any, error) {
			return nil, allocator.Release(ctx, strParam(params, "id"))
		},
	})

	d.Register("list_workspaces", Spec{
		Operation: func(ctx context.Context, params map[string]any) (any, error) {
			return allocator.List(ctx), nil
		},
	})

	d.Register("disk_space", Spec{
		Operation: func(ctx context.Context, params map[string]any) (any, error) {
			threshold := floatParam(params, "warning_threshold", 20.0)
			used, total, above := allocator.DiskSpace(ctx, threshold)
			return map[string]any{
				"used_bytes": used, "total_bytes": total, "above_threshold": above,
			}, nil
		},
	})
}

func registerRepositoryOps(d *Dispatcher, adapter gitops.GitAdapter, allocator gitops.WorkspaceAllocator) {
	d.Register("clone", Spec{
		Args: map[string]ArgKind{"url": ArgURL, "branch": ArgBranchOrName},
		Operation: func(ctx context.Context, params map[string]any) (any, error) {
			ws, err := resolveWorkspace(ctx, allocator, params)
			if err != nil {
				return nil, err
			}
			return adapter.Clone(ctx, ws.Path, strParam(params, "url"), strParam(params, "branch"), intParam(params, "depth", 0))
		},
	})

	d.Register("init", Spec{
		Operation: func(ctx context.Context, params map[string]any) (any, error) {
			ws, err := resolveWorkspace(ctx, allocator, params)
			if err != nil {
				return nil, err
			}
			branch := strParam(params, "default_branch")
			if branch == "" {
				branch = "main"
			}
			return adapter.Init(ctx, ws.Path, boolParam(params, "bare", false), branch)
		},
	})

	d.Register("status", Spec{
		Operation: func(ctx context.Context, params map[string]any) (any, error) {
			ws, err := resolveWorkspace(ctx, allocator, params)
			if err != nil {
				return nil, err
			}
			return adapter.Status(ctx, ws.Path)
		},
	})
}

func registerCommitOps(d *Dispatcher, adapter gitops.GitAdapter, allocator gitops.WorkspaceAllocator) {
	d.Register("stage", Spec{
		Operation: func(ctx context.Context, params map[string]any) (any, error) {
			ws, err := resolveWorkspace(ctx, allocator, params)
			if err != nil {
				return nil, err
			}
			files, err := sanitizedPaths(stringSliceParam(params, "files"), ws.Path)
			if err != nil {
				return nil, err
			}
			return adapter.Stage(ctx, ws.Path, files)
		},
	})

	d.Register("commit", Spec{
		Args: map[string]ArgKind{"message": ArgMessage, "author_name": ArgString, "author_email": ArgString},
		Operation: func(ctx context.Context, params map[string]any) (any, error) {
			ws, err := resolveWorkspace(ctx, allocator, params)
			if err != nil {
				return nil, err
			}
			message := strParam(params, "message")
			if message == "" {
				return nil, apperrors.InvalidArgument(apperrors.CodeMissingField, "message is required")
			}
			return adapter.Commit(ctx, ws.Path, message, strParam(params, "author_name"), strParam(params, "author_email"))
		},
	})
}

func registerRemoteOps(d *Dispatcher, adapter gitops.GitAdapter, allocator gitops.WorkspaceAllocator) {
	d.Register("push", Spec{
		Args: map[string]ArgKind{"branch": ArgBranchOrName},
		Operation: func(ctx context.Context, params map[string]any) (any, error) {
			ws, err := resolveWorkspace(ctx, allocator, params)
			if err != nil {
				return nil, err
			}
			remote := strParam(params, "remote")
			if remote == "" {
				remote = "origin"
			}
			return adapter.Push(ctx, ws.Path, remote, strParam(params, "branch"), boolParam(params, "force", false))
		},
	})

	d.Register("pull", Spec{
		Args: map[string]ArgKind{"branch": ArgBranchOrName},
		Operation: func(ctx context.Context, params map[string]any) (any, error) {
			ws, err := resolveWorkspace(ctx, allocator, params)
			if err != nil {
				return nil, err
			}
			remote := strParam(params, "remote")
			if remote == "" {
				remote = "origin"
			}
			return adapter.Pull(ctx, ws.Path, remote, strParam(params, "branch"), boolParam(params, "rebase", false))
		},
	})

	d.Register("fetch", Spec{
		Operation: func(ctx context.Context, params map[string]any) (any, error) {
			ws, err := resolveWorkspace(ctx, allocator, params)
			if err != nil {
				return nil, err
			}
			return adapter.Fetch(ctx, ws.Path, strParam(params, "remote"), boolParam(params, "tags", false))
		},
	})

	d.Register("list_remotes", Spec{
		Operation: func(ctx context.Context, params map[string]any) (any, error) {
			ws, err := resolveWorkspace(ctx, allocator, params)
			if err != nil {
				return nil, err
			}
			return adapter.ListRemotes(ctx, ws.Path)
		},
	})

	d.Register("add_remote", Spec{
		Args: map[string]ArgKind{"name": ArgBranchOrName, "url": ArgURL},
		Operation: func(ctx context.Context, params map[string]any) (any, error) {
			ws, err := resolveWorkspace(ctx, allocator, params)
			if err != nil {
				return nil, err
			}
			return adapter.AddRemote(ctx, ws.Path, strParam(params, "name"), strParam(params, "url"))
		},
	})

	d.Register("remove_remote", Spec{
		Args: map[string]ArgKind{"name": ArgBranchOrName},
		Operation: func(ctx context.Context, params map[string]any) (any, error) {
			ws, err := resolveWorkspace(ctx, allocator, params)
			if err != nil {
				return nil, err
			}
			return adapter.RemoveRemote(ctx, ws.Path, strParam(params, "name"))
		},
	})
}

func registerBranchOps(d *Dispatcher, adapter gitops.GitAdapter, allocator gitops.WorkspaceAllocator) {
	d.Register("checkout", Spec{
		Args: map[string]ArgKind{"branch": ArgBranchOrName},
		Operation: func(ctx context.Context, params map[string]any) (any, error) {
			ws, err := resolveWorkspace(ctx, allocator, params)
			if err != nil {
				return nil, err
			}
			return adapter.Checkout(ctx, ws.Path, strParam(params, "branch"), boolParam(params, "create_new", false), boolParam(params, "force", false))
		},
	})

	d.Register("list_branches", Spec{
		Operation: func(ctx context.Context, params map[string]any) (any, error) {
			ws, err := resolveWorkspace(ctx, allocator, params)
			if err != nil {
				return nil, err
			}
			return adapter.ListBranches(ctx, ws.Path, boolParam(params, "local", true), boolParam(params, "remote", false), boolParam(params, "all", false))
		},
	})

	d.Register("create_branch", Spec{
		Args: map[string]ArgKind{"name": ArgBranchOrName, "revision": ArgString},
		Operation: func(ctx context.Context, params map[string]any) (any, error) {
			ws, err := resolveWorkspace(ctx, allocator, params)
			if err != nil {
				return nil, err
			}
			return adapter.CreateBranch(ctx, ws.Path, strParam(params, "name"), strParam(params, "revision"), boolParam(params, "force", false))
		},
	})

	d.Register("delete_branch", Spec{
		Args: map[string]ArgKind{"name": ArgBranchOrName},
		Operation: func(ctx context.Context, params map[string]any) (any, error) {
			ws, err := resolveWorkspace(ctx, allocator, params)
			if err != nil {
				return nil, err
			}
			return adapter.DeleteBranch(ctx, ws.Path, strParam(params, "name"), boolParam(params, "force", false), boolParam(params, "remote", false))
		},
	})
}

func registerMergeRebaseOps(d *Dispatcher, adapter gitops.GitAdapter, allocator gitops.WorkspaceAllocator) {
	d.Register("merge", Spec{
		Args: map[string]ArgKind{"source_branch": ArgBranchOrName},
		Operation: func(ctx context.Context, params map[string]any) (any, error) {
			ws, err := resolveWorkspace(ctx, allocator, params)
			if err != nil {
				return nil, err
			}
			return adapter.Merge(ctx, ws.Path, strParam(params, "source_branch"), boolParam(params, "fast_forward", true))
		},
	})

	d.Register("rebase", Spec{
		Args: map[string]ArgKind{"branch": ArgBranchOrName},
		Operation: func(ctx context.Context, params map[string]any) (any, error) {
			ws, err := resolveWorkspace(ctx, allocator, params)
			if err != nil {
				return nil, err
			}
			return adapter.Rebase(ctx, ws.Path, strParam(params, "branch"), boolParam(params, "abort", false), boolParam(params, "continue", false))
		},
	})
}

func registerHistoryOps(d *Dispatcher, adapter gitops.GitAdapter, allocator gitops.WorkspaceAllocator) {
	d.Register("log", Spec{
		Args: map[string]ArgKind{"author": ArgString},
		Operation: func(ctx context.Context, params map[string]any) (any, error) {
			ws, err := resolveWorkspace(ctx, allocator, params)
			if err != nil {
				return nil, err
			}
			return adapter.Log(ctx, ws.Path, intParam(params, "max_count", 0), strParam(params, "author"), boolParam(params, "all", false))
		},
	})

	d.Register("show", Spec{
		Args: map[string]ArgKind{"revision": ArgString},
		Operation: func(ctx context.Context, params map[string]any) (any, error) {
			ws, err := resolveWorkspace(ctx, allocator, params)
			if err != nil {
				return nil, err
			}
			return adapter.Show(ctx, ws.Path, strParam(params, "revision"))
		},
	})

	d.Register("diff", Spec{
		Args: map[string]ArgKind{"commit_oid": ArgString},
		Operation: func(ctx context.Context, params map[string]any) (any, error) {
			ws, err := resolveWorkspace(ctx, allocator, params)
			if err != nil {
				return nil, err
			}
			return adapter.Diff(ctx, ws.Path, boolParam(params, "cached", false), strParam(params, "commit_oid"))
		},
	})

	d.Register("blame", Spec{
		Args: map[string]ArgKind{"path": ArgPath},
		Operation: func(ctx context.Context, params map[string]any) (any, error) {
			ws, err := resolveWorkspace(ctx, allocator, params)
			if err != nil {
				return nil, err
			}
			return adapter.Blame(ctx, ws.Path, strParam(params, "path"))
		},
	})
}

func registerStashOps(d *Dispatcher, adapter gitops.GitAdapter, allocator gitops.WorkspaceAllocator) {
	d.Register("stash", Spec{
		Args: map[string]ArgKind{"message": ArgMessage},
		Operation: func(ctx context.Context, params map[string]any) (any, error) {
			ws, err := resolveWorkspace(ctx, allocator, params)
			if err != nil {
				return nil, err
			}
			switch {
			case boolParam(params, "pop", false):
				return adapter.StashPop(ctx, ws.Path)
			case boolParam(params, "apply", false):
				return adapter.StashApply(ctx, ws.Path)
			case boolParam(params, "drop", false):
				return adapter.StashDrop(ctx, ws.Path)
			default: // save
				return adapter.StashSave(ctx, ws.Path, strParam(params, "message"), boolParam(params, "include_untracked", false))
			}
		},
	})

	d.Register("list_stash", Spec{
		Operation: func(ctx context.Context, params map[string]any) (any, error) {
			ws, err := resolveWorkspace(ctx, allocator, params)
			if err != nil {
				return nil, err
			}
			return adapter.ListStash(ctx, ws.Path)
		},
	})
}

func registerTagOps(d *Dispatcher, adapter gitops.GitAdapter, allocator gitops.WorkspaceAllocator) {
	d.Register("list_tags", Spec{
		Operation: func(ctx context.Context, params map[string]any) (any, error) {
			ws, err := resolveWorkspace(ctx, allocator, params)
			if err != nil {
				return nil, err
			}
			return adapter.ListTags(ctx, ws.Path)
		},
	})

	d.Register("create_tag", Spec{
		Args: map[string]ArgKind{"name": ArgBranchOrName, "message": ArgMessage},
		Operation: func(ctx context.Context, params map[string]any) (any, error) {
			ws, err := resolveWorkspace(ctx, allocator, params)
			if err != nil {
				return nil, err
			}
			return adapter.CreateTag(ctx, ws.Path, strParam(params, "name"), strParam(params, "message"), boolParam(params, "force", false))
		},
	})

	d.Register("delete_tag", Spec{
		Args: map[string]ArgKind{"name": ArgBranchOrName},
		Operation: func(ctx context.Context, params map[string]any) (any, error) {
			ws, err := resolveWorkspace(ctx, allocator, params)
			if err != nil {
				return nil, err
			}
			return adapter.DeleteTag(ctx, ws.Path, strParam(params, "name"))
		},
	})
}

func registerLfsOps(d *Dispatcher, adapter gitops.GitAdapter, allocator gitops.WorkspaceAllocator) {
	withWorkspace := func(fn func(ctx context.Context, path string) (gitops.Result, error)) Operation {
		return func(ctx context.Context, params map[string]any) (any, error) {
			ws, err := resolveWorkspace(ctx, allocator, params)
			if err != nil {
				return nil, err
			}
			return fn(ctx, ws.Path)
		}
	}

	d.Register("lfs_init", Spec{Operation: withWorkspace(adapter.LfsInit)})
	d.Register("lfs_status", Spec{Operation: withWorkspace(adapter.LfsStatus)})
	d.Register("lfs_install", Spec{Operation: withWorkspace(adapter.LfsInstall)})

	d.Register("lfs_track", Spec{
		Operation: func(ctx context.Context, params map[string]any) (any, error) {
			ws, err := resolveWorkspace(ctx, allocator, params)
			if err != nil {
				return nil, err
			}
			return adapter.LfsTrack(ctx, ws.Path, stringSliceParam(params, "patterns"))
		},
	})
	d.Register("lfs_untrack", Spec{
		Operation: func(ctx context.Context, params map[string]any) (any, error) {
			ws, err := resolveWorkspace(ctx, allocator, params)
			if err != nil {
				return nil, err
			}
			return adapter.LfsUntrack(ctx, ws.Path, stringSliceParam(params, "patterns"))
		},
	})
	d.Register("lfs_pull", Spec{
		Operation: func(ctx context.Context, params map[string]any) (any, error) {
			ws, err := resolveWorkspace(ctx, allocator, params)
			if err != nil {
				return nil, err
			}
			return adapter.LfsPull(ctx, ws.Path, strParam(params, "remote"))
		},
	})
	d.Register("lfs_push", Spec{
		Operation: func(ctx context.Context, params map[string]any) (any, error) {
			ws, err := resolveWorkspace(ctx, allocator, params)
			if err != nil {
				return nil, err
			}
			return adapter.LfsPush(ctx, ws.Path, strParam(params, "remote"))
		},
	})
	d.Register("lfs_fetch", Spec{
		Operation: func(ctx context.Context, params map[string]any) (any, error) {
			ws, err := resolveWorkspace(ctx, allocator, params)
			if err != nil {
				return nil, err
			}
			return adapter.LfsFetch(ctx, ws.Path, strParam(params, "remote"))
		},
	})
}

func registerSparseSubmoduleOps(d *Dispatcher, adapter gitops.GitAdapter, allocator gitops.WorkspaceAllocator) {
	d.Register("sparse_checkout", Spec{
		Operation: func(ctx context.Context, params map[string]any) (any, error) {
			ws, err := resolveWorkspace(ctx, allocator, params)
			if err != nil {
				return nil, err
			}
			paths, err := sanitizedPaths(stringSliceParam(params, "paths"), ws.Path)
			if err != nil {
				return nil, err
			}
			mode := strParam(params, "mode")
			if mode == "" {
				mode = "replace"
			}
			return adapter.SparseCheckout(ctx, ws.Path, paths, mode)
		},
	})

	d.Register("submodule_add", Spec{
		Args: map[string]ArgKind{"url": ArgURL, "path": ArgPath},
		Operation: func(ctx context.Context, params map[string]any) (any, error) {
			ws, err := resolveWorkspace(ctx, allocator, params)
			if err != nil {
				return nil, err
			}
			return adapter.SubmoduleAdd(ctx, ws.Path, strParam(params, "url"), strParam(params, "path"))
		},
	})

	d.Register("submodule_update", Spec{
		Operation: func(ctx context.Context, params map[string]any) (any, error) {
			ws, err := resolveWorkspace(ctx, allocator, params)
			if err != nil {
				return nil, err
			}
			return adapter.SubmoduleUpdate(ctx, ws.Path, boolParam(params, "init", false))
		},
	})

	d.Register("submodule_deinit", Spec{
		Args: map[string]ArgKind{"path": ArgPath},
		Operation: func(ctx context.Context, params map[string]any) (any, error) {
			ws, err := resolveWorkspace(ctx, allocator, params)
			if err != nil {
				return nil, err
			}
			return adapter.SubmoduleDeinit(ctx, ws.Path, strParam(params, "path"))
		},
	})

	d.Register("submodule_list", Spec{
		Operation: func(ctx context.Context, params map[string]any) (any, error) {
			ws, err := resolveWorkspace(ctx, allocator, params)
			if err != nil {
				return nil, err
			}
			return adapter.SubmoduleList(ctx, ws.Path)
		},
	})
}

// registerTaskOps wires the queue-introspection tool names. Tasks have no
// persisted history once they start running: get_task/list_tasks only see
// tasks still waiting in the queue, matching q.QueuedTasks' scope.
func registerTaskOps(d *Dispatcher, q *queue.Queue) {
	d.Register("get_task", Spec{
		Operation: func(ctx context.Context, params map[string]any) (any, error) {
			id := strParam(params, "id")
			for _, info := range q.QueuedTasks(0) {
				if info.ID == id {
					return info, nil
				}
			}
			return nil, apperrors.InvalidArgument(apperrors.CodeTaskNotFound, "task not found or no longer pending: "+id)
		},
	})

	d.Register("list_tasks", Spec{
		Operation: func(ctx context.Context, params map[string]any) (any, error) {
			status := strParam(params, "status")
			if status != "" && status != "pending" && status != "queued" {
				return []queue.Info{}, nil
			}
			limit := intParam(params, "limit", 100)
			return q.QueuedTasks(limit), nil
		},
	})

	d.Register("cancel_task", Spec{
		Operation: func(ctx context.Context, params map[string]any) (any, error) {
			id := strParam(params, "id")
			if !q.Cancel(id) {
				return nil, apperrors.InvalidArgument(apperrors.CodeTaskNotFound, "task not found or no longer pending: "+id)
			}
			return map[string]any{"cancelled": true}, nil
		},
	})
}
