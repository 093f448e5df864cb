package errors

// Error code constants. Every error carries one of these codes next to its
// English message, so the admin surface can translate by code.

// Argument validation error codes.
const (
	CodeMissingField   = "MISSING_FIELD"
	CodeInvalidField   = "INVALID_FIELD"
	CodeFieldTooLong   = "FIELD_TOO_LONG"
	CodeUnknownOp      = "UNKNOWN_OPERATION"
	CodeUnsafeInput    = "UNSAFE_INPUT"
	CodeUnsafeURL      = "UNSAFE_REMOTE_URL"
	CodeUnsafePath     = "UNSAFE_PATH"
	CodeReservedBranch = "RESERVED_BRANCH_NAME"
)

// Repository error codes.
const (
	CodeRepoNotFound     = "REPOSITORY_NOT_FOUND"
	CodeWorkspaceNotFound = "WORKSPACE_NOT_FOUND"
)

// Auth error codes.
const (
	CodeAuthFailed      = "AUTH_FAILED"
	CodeTokenExpired    = "TOKEN_EXPIRED"
	CodeTokenInvalid    = "TOKEN_INVALID"
	CodeCredentialError = "CREDENTIAL_ERROR"
)

// Git operation error codes.
const (
	CodeMergeConflict  = "MERGE_CONFLICT"
	CodeGitFailed      = "GIT_OPERATION_FAILED"
	CodeCloneFailed    = "CLONE_FAILED"
	CodePushRejected   = "PUSH_REJECTED"
)

// Queue/pool error codes.
const (
	CodeQueueFull     = "QUEUE_FULL"
	CodeTaskCancelled = "TASK_CANCELLED"
	CodeTaskNotFound  = "TASK_NOT_FOUND"
)

// CodeInternal is used for KindUnexpected errors with no more specific code.
const CodeInternal = "INTERNAL_ERROR"
