package gitops

import (
	"context"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// memoryCredentialStore is the conventional default CredentialStore: a
// single in-memory slot, guarded by a mutex, whose secret is never
// persisted and is stored alongside a bcrypt hash used only to verify a
// credential was not tampered with between Set and Get.
type memoryCredentialStore struct {
	mu     sync.Mutex
	cred   Credential
	hash   []byte
	loaded bool
}

// NewMemoryCredentialStore constructs the default in-memory
// CredentialStore.
func NewMemoryCredentialStore() CredentialStore {
	return &memoryCredentialStore{}
}

func (s *memoryCredentialStore) GetCredential(ctx context.Context) (Credential, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return Credential{}, false, nil
	}
	if err := bcrypt.CompareHashAndPassword(s.hash, []byte(s.cred.Secret())); err != nil {
		return Credential{}, false, err
	}
	return s.cred, true, nil
}

func (s *memoryCredentialStore) SetCredential(ctx context.Context, c Credential) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(c.Secret()), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred = c
	s.hash = hash
	s.loaded = true
	return nil
}

func (s *memoryCredentialStore) ClearCredential(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred = Credential{}
	s.hash = nil
	s.loaded = false
	return nil
}
