package gitops

import (
	"context"
	"strings"
	"testing"
)

func TestMemoryCredentialStore_SetAndGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryCredentialStore()

	if err := s.SetCredential(ctx, NewCredential("alice", "s3cr3t")); err != nil {
		t.Fatalf("SetCredential() error = %v", err)
	}

	got, ok, err := s.GetCredential(ctx)
	if err != nil {
		t.Fatalf("GetCredential() error = %v", err)
	}
	if !ok {
		t.Fatal("GetCredential() ok = false, want true")
	}
	if got.Username != "alice" || got.Secret() != "s3cr3t" {
		t.Errorf("GetCredential() = %+v", got)
	}
}

func TestMemoryCredentialStore_GetWithoutSet(t *testing.T) {
	s := NewMemoryCredentialStore()

	_, ok, err := s.GetCredential(context.Background())
	if err != nil {
		t.Fatalf("GetCredential() error = %v", err)
	}
	if ok {
		t.Error("GetCredential() ok = true on empty store, want false")
	}
}

func TestMemoryCredentialStore_Clear(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryCredentialStore()
	s.SetCredential(ctx, NewCredential("alice", "s3cr3t"))

	if err := s.ClearCredential(ctx); err != nil {
		t.Fatalf("ClearCredential() error = %v", err)
	}

	_, ok, _ := s.GetCredential(ctx)
	if ok {
		t.Error("GetCredential() ok = true after Clear, want false")
	}
}

func TestCredential_StringDoesNotLeakSecret(t *testing.T) {
	c := NewCredential("alice", "s3cr3t")
	if got := c.String(); strings.Contains(got, "s3cr3t") {
		t.Errorf("String() = %q, leaks the secret", got)
	}
}
