package handlers

import (
	"errors"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"kv-shepherd.io/shepherd/internal/config"
)

// ErrInvalidCredentials is returned by OperatorStore.Authenticate when the
// username is unknown or the password does not match.
var ErrInvalidCredentials = errors.New("invalid credentials")

// operator is one admin-surface account, held in memory for the lifetime
// of the process.
type operator struct {
	username     string
	passwordHash []byte
	permissions  []string
}

// OperatorStore authenticates admin-surface logins against the operator
// accounts configured at startup. Unlike gitops.CredentialStore (which
// guards Git remote credentials), this guards access to this service's
// own HTTP surface.
type OperatorStore struct {
	mu        sync.RWMutex
	operators map[string]operator
}

// NewOperatorStore builds a store from the configured operator accounts.
func NewOperatorStore(cfgs []config.OperatorConfig) *OperatorStore {
	s := &OperatorStore{operators: make(map[string]operator, len(cfgs))}
	for _, c := range cfgs {
		s.operators[c.Username] = operator{
			username:     c.Username,
			passwordHash: []byte(c.PasswordHash),
			permissions:  c.Permissions,
		}
	}
	return s
}

// Authenticate verifies username/password and returns the operator's
// configured permissions.
func (s *OperatorStore) Authenticate(username, password string) ([]string, error) {
	s.mu.RLock()
	op, ok := s.operators[username]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(op.passwordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return op.permissions, nil
}
