// Package errors provides domain-specific error types for the Git operations core.
//
// Import Path: kv-shepherd.io/shepherd/internal/pkg/errors
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the closed taxonomy of error categories a Git operation can fail
// with. Every AppError produced by the dispatcher and its collaborators
// carries exactly one Kind.
type Kind string

const (
	KindInvalidArgument    Kind = "invalid_argument"
	KindRepositoryNotFound Kind = "repository_not_found"
	KindAuthenticationErr  Kind = "authentication_error"
	KindMergeConflict      Kind = "merge_conflict"
	KindGitOperationError  Kind = "git_operation_error"
	KindTransientQueueFull Kind = "transient_queue_full"
	KindCancelled          Kind = "cancelled"
	KindUnexpected         Kind = "unexpected"
)

// httpStatusForKind maps a Kind to the status code used by the admin
// surface when an AppError escapes a handler.
func httpStatusForKind(k Kind) int {
	switch k {
	case KindInvalidArgument:
		return http.StatusBadRequest
	case KindRepositoryNotFound:
		return http.StatusNotFound
	case KindAuthenticationErr:
		return http.StatusUnauthorized
	case KindMergeConflict:
		return http.StatusConflict
	case KindGitOperationError:
		return http.StatusUnprocessableEntity
	case KindTransientQueueFull:
		return http.StatusServiceUnavailable
	case KindCancelled:
		return 499 // client closed request, matches nginx convention
	default:
		return http.StatusInternalServerError
	}
}

// Sentinel errors for common failure scenarios.
var (
	ErrNotFound       = errors.New("not found")
	ErrAlreadyExists  = errors.New("already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrBadRequest     = errors.New("bad request")
	ErrInternal       = errors.New("internal error")
	ErrConflict       = errors.New("conflict")
	ErrServiceUnavail = errors.New("service unavailable")
)

// AppError is a structured application error carrying a closed Kind, a
// machine-readable code, an HTTP status, and the wrapped underlying error.
type AppError struct {
	// Kind categorizes the failure per the closed taxonomy.
	Kind Kind `json:"kind"`

	// Code is a machine-readable error code (e.g., "REPO_NOT_FOUND").
	Code string `json:"code"`

	// Message is a human-readable error message. Callers must ensure this
	// has already passed through sanitize.RedactError before it reaches
	// Message, since AppError values may be logged or returned verbatim.
	Message string `json:"message"`

	// HTTPStatus is the corresponding HTTP status code.
	HTTPStatus int `json:"-"`

	// Err is the wrapped underlying error.
	Err error `json:"-"`

	// ConflictedFiles is populated for KindMergeConflict.
	ConflictedFiles []string `json:"conflicted_files,omitempty"`

	// Suggestion is an optional remediation hint for KindGitOperationError.
	Suggestion string `json:"suggestion,omitempty"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError of the given kind.
func New(kind Kind, code, message string) *AppError {
	return &AppError{
		Kind:       kind,
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatusForKind(kind),
	}
}

// Wrap wraps an existing error into an AppError of the given kind.
func Wrap(err error, kind Kind, code, message string) *AppError {
	return &AppError{
		Kind:       kind,
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatusForKind(kind),
		Err:        err,
	}
}

// InvalidArgument creates a KindInvalidArgument error.
func InvalidArgument(code, message string) *AppError {
	return New(KindInvalidArgument, code, message)
}

// RepositoryNotFound creates a KindRepositoryNotFound error.
func RepositoryNotFound(code, message string) *AppError {
	return New(KindRepositoryNotFound, code, message)
}

// AuthenticationError creates a KindAuthenticationErr error.
func AuthenticationError(code, message string) *AppError {
	return New(KindAuthenticationErr, code, message)
}

// MergeConflict creates a KindMergeConflict error carrying the conflicted
// file list.
func MergeConflict(code, message string, conflictedFiles []string) *AppError {
	err := New(KindMergeConflict, code, message)
	err.ConflictedFiles = conflictedFiles
	return err
}

// GitOperationError creates a KindGitOperationError error, optionally
// carrying a remediation suggestion.
func GitOperationError(code, message, suggestion string) *AppError {
	err := New(KindGitOperationError, code, message)
	err.Suggestion = suggestion
	return err
}

// TransientQueueFull creates a KindTransientQueueFull error.
func TransientQueueFull(code, message string) *AppError {
	return New(KindTransientQueueFull, code, message)
}

// Cancelled creates a KindCancelled error.
func Cancelled(code, message string) *AppError {
	return New(KindCancelled, code, message)
}

// Unexpected creates a KindUnexpected error.
func Unexpected(code, message string) *AppError {
	return New(KindUnexpected, code, message)
}

// IsAppError checks if an error is an AppError and returns it.
func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
