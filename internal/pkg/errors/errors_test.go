package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "without wrapped error",
			err:  New(KindRepositoryNotFound, "REPO_NOT_FOUND", "repository not found"),
			want: "REPO_NOT_FOUND: repository not found",
		},
		{
			name: "with wrapped error",
			err:  Wrap(fmt.Errorf("db error"), KindUnexpected, "DB_ERROR", "database failure"),
			want: "DB_ERROR: database failure: db error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	inner := fmt.Errorf("inner error")
	appErr := Wrap(inner, KindUnexpected, "CODE", "msg")

	if !errors.Is(appErr, inner) {
		t.Error("errors.Is should match inner error")
	}
}

func TestIsAppError(t *testing.T) {
	appErr := RepositoryNotFound("NOT_FOUND", "resource not found")
	wrapped := fmt.Errorf("wrapped: %w", appErr)

	got, ok := IsAppError(wrapped)
	if !ok {
		t.Fatal("IsAppError should return true for wrapped AppError")
	}
	if got.Code != "NOT_FOUND" {
		t.Errorf("Code = %q, want NOT_FOUND", got.Code)
	}
}

func TestErrorConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		wantStatus int
	}{
		{"RepositoryNotFound", RepositoryNotFound("NF", "not found"), http.StatusNotFound},
		{"InvalidArgument", InvalidArgument("BR", "bad request"), http.StatusBadRequest},
		{"AuthenticationError", AuthenticationError("UA", "unauthorized"), http.StatusUnauthorized},
		{"MergeConflict", MergeConflict("CF", "conflict", []string{"a.txt"}), http.StatusConflict},
		{"Unexpected", Unexpected("IE", "internal"), http.StatusInternalServerError},
		{"TransientQueueFull", TransientQueueFull("QF", "queue full"), http.StatusServiceUnavailable},
		{"Cancelled", Cancelled("CA", "cancelled"), 499},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.HTTPStatus != tt.wantStatus {
				t.Errorf("HTTPStatus = %d, want %d", tt.err.HTTPStatus, tt.wantStatus)
			}
			if tt.err.Kind == "" {
				t.Error("Kind must not be empty")
			}
		})
	}
}

func TestMergeConflict_CarriesConflictedFiles(t *testing.T) {
	err := MergeConflict("CF", "conflict", []string{"a.txt", "b.txt"})
	if len(err.ConflictedFiles) != 2 {
		t.Fatalf("ConflictedFiles = %v, want 2 entries", err.ConflictedFiles)
	}
}

func TestGitOperationError_CarriesSuggestion(t *testing.T) {
	err := GitOperationError("GIT_FAILED", "push failed", "try fetching first")
	if err.Suggestion != "try fetching first" {
		t.Errorf("Suggestion = %q, want %q", err.Suggestion, "try fetching first")
	}
}
