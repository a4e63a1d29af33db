package secrets

import (
	"context"
	"sync"
)

// MemoryStore keeps secrets in memory. Records are copied in and out so
// callers never share maps with the store.
type MemoryStore struct {
	mu      sync.RWMutex
	secrets map[string]*Secret
}

// NewMemoryStore creates a MemoryStore seeded with the given secrets.
func NewMemoryStore(seed ...*Secret) *MemoryStore {
	s := &MemoryStore{secrets: make(map[string]*Secret, len(seed))}
	for _, secret := range seed {
		s.secrets[secret.Name] = secret.Clone()
	}
	return s
}

// GetSecret implements Store.
func (s *MemoryStore) GetSecret(_ context.Context, name string) (*Secret, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	secret, ok := s.secrets[name]
	if !ok {
		return nil, notFound(name)
	}
	return secret.Clone(), nil
}

// SetSecret implements Store.
func (s *MemoryStore) SetSecret(_ context.Context, secret *Secret) error {
	if err := validateSecret(secret); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.secrets[secret.Name] = secret.Clone()
	return nil
}
