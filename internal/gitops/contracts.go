// Package gitops defines the collaborator contracts the dispatcher
// depends on to actually perform Git operations, allocate workspaces,
// manage credentials, and trace execution, plus a conventional default
// implementation of the credential store and tracer.
//
// Import Path: kv-shepherd.io/shepherd/internal/gitops
package gitops

import "context"

// Result is the structured outcome of a GitAdapter operation.
type Result struct {
	Output   string         `json:"output,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
	ExitCode int            `json:"exit_code"`
}

// GitAdapter performs the actual Git plumbing behind each operation in
// the tool taxonomy. Implementations receive only already-sanitized
// arguments and must never let raw credentials reach stdout/stderr
// surfaced to callers — any captured stderr must be passed through the
// error redactor before being wrapped into an error.
type GitAdapter interface {
	Clone(ctx context.Context, workspacePath, url, branch string, depth int) (Result, error)
	Init(ctx context.Context, workspacePath string, bare bool, defaultBranch string) (Result, error)
	Status(ctx context.Context, workspacePath string) (Result, error)
	Stage(ctx context.Context, workspacePath string, files []string) (Result, error)
	Commit(ctx context.Context, workspacePath, message, authorName, authorEmail string) (Result, error)
	Push(ctx context.Context, workspacePath, remote, branch string, force bool) (Result, error)
	Pull(ctx context.Context, workspacePath, remote, branch string, rebase bool) (Result, error)
	Fetch(ctx context.Context, workspacePath, remote string, tags bool) (Result, error)
	ListRemotes(ctx context.Context, workspacePath string) (Result, error)
	AddRemote(ctx context.Context, workspacePath, name, url string) (Result, error)
	RemoveRemote(ctx context.Context, workspacePath, name string) (Result, error)
	Checkout(ctx context.Context, workspacePath, branch string, createNew, force bool) (Result, error)
	ListBranches(ctx context.Context, workspacePath string, local, remote, all bool) (Result, error)
	CreateBranch(ctx context.Context, workspacePath, name, revision string, force bool) (Result, error)
	DeleteBranch(ctx context.Context, workspacePath, name string, force, remote bool) (Result, error)
	Merge(ctx context.Context, workspacePath, sourceBranch string, fastForward bool) (Result, error)
	Rebase(ctx context.Context, workspacePath, branch string, abort, continue_ bool) (Result, error)
	Log(ctx context.Context, workspacePath string, maxCount int, author string, all bool) (Result, error)
	Show(ctx context.Context, workspacePath, revision string) (Result, error)
	Diff(ctx context.Context, workspacePath string, cached bool, commitOID string) (Result, error)
	Blame(ctx context.Context, workspacePath, path string) (Result, error)
	StashSave(ctx context.Context, workspacePath, message string, includeUntracked bool) (Result, error)
	StashPop(ctx context.Context, workspacePath string) (Result, error)
	StashApply(ctx context.Context, workspacePath string) (Result, error)
	StashDrop(ctx context.Context, workspacePath string) (Result, error)
	ListStash(ctx context.Context, workspacePath string) (Result, error)
	ListTags(ctx context.Context, workspacePath string) (Result, error)
	CreateTag(ctx context.Context, workspacePath, name, message string, force bool) (Result, error)
	DeleteTag(ctx context.Context, workspacePath, name string) (Result, error)
	LfsInit(ctx context.Context, workspacePath string) (Result, error)
	LfsTrack(ctx context.Context, workspacePath string, patterns []string) (Result, error)
	LfsUntrack(ctx context.Context, workspacePath string, patterns []string) (Result, error)
	LfsStatus(ctx context.Context, workspacePath string) (Result, error)
	LfsPull(ctx context.Context, workspacePath, remote string) (Result, error)
	LfsPush(ctx context.Context, workspacePath, remote string) (Result, error)
	LfsFetch(ctx context.Context, workspacePath, remote string) (Result, error)
	LfsInstall(ctx context.Context, workspacePath string) (Result, error)
	SparseCheckout(ctx context.Context, workspacePath string, paths []string, mode string) (Result, error)
	SubmoduleAdd(ctx context.Context, workspacePath, url, path string) (Result, error)
	SubmoduleUpdate(ctx context.Context, workspacePath string, init bool) (Result, error)
	SubmoduleDeinit(ctx context.Context, workspacePath, path string) (Result, error)
	SubmoduleList(ctx context.Context, workspacePath string) (Result, error)
}

// WorkspaceInfo describes an allocated workspace.
type WorkspaceInfo struct {
	ID        string `json:"id"`
	Path      string `json:"path"`
	CreatedAt int64  `json:"created_at"`
}

// WorkspaceAllocator manages the lifecycle of on-disk workspace
// directories Git operations run inside of.
type WorkspaceAllocator interface {
	Allocate(ctx context.Context) (WorkspaceInfo, error)
	Get(ctx context.Context, id string) (WorkspaceInfo, bool)
	Release(ctx context.Context, id string) error
	List(ctx context.Context) []WorkspaceInfo
	DiskSpace(ctx context.Context, warningThreshold float64) (usedBytes, totalBytes int64, aboveThreshold bool)
}

// Credential is an opaque credential wrapper. Its String method
// deliberately never reveals the secret value, so an accidental %v/%s
// format verb or log.Print call cannot leak it.
type Credential struct {
	Username string
	secret   string
}

// NewCredential constructs a Credential. secret is never copied anywhere
// the Credential itself doesn't explicitly expose it through Secret().
func NewCredential(username, secret string) Credential {
	return Credential{Username: username, secret: secret}
}

// Secret returns the wrapped secret value. Call sites should hold this
// for as short a time as possible and never log it.
func (c Credential) Secret() string { return c.secret }

// String implements fmt.Stringer without revealing the secret.
func (c Credential) String() string {
	return "Credential{Username: " + c.Username + ", secret: [redacted]}"
}

// CredentialStore manages the single active credential used for remote
// Git operations.
type CredentialStore interface {
	GetCredential(ctx context.Context) (Credential, bool, error)
	SetCredential(ctx context.Context, c Credential) error
	ClearCredential(ctx context.Context) error
}

// TraceSpan is a single traced operation span.
type TraceSpan interface {
	SetTag(key string, value any)
}

// Tracer starts and finishes spans around dispatched operations. The
// zero-value contract allows ambient current-span propagation via
// context, the way the system this dispatcher models always traced
// Git operations.
type Tracer interface {
	StartSpan(ctx context.Context, operation string, tags map[string]any) (context.Context, TraceSpan)
	FinishSpan(span TraceSpan, code int, message string)
}
