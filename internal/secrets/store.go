package secrets

import (
	"context"
	"errors"
	"fmt"
	"maps"
)

// ErrSecretNotFound is returned when no secret exists under a name.
var ErrSecretNotFound = errors.New("secret not found")

// ErrInvalidName is returned for names a backend cannot address.
var ErrInvalidName = errors.New("invalid secret name")

// Backend names.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

// Secret is a named record of values.
type Secret struct {
	Name   string         `json:"name"`
	Values map[string]any `json:"values"`
}

// Clone returns a copy of the secret with its own top-level values map.
func (s *Secret) Clone() *Secret {
	if s == nil {
		return nil
	}
	return &Secret{Name: s.Name, Values: maps.Clone(s.Values)}
}

// Store reads and writes secrets by name.
type Store interface {
	// GetSecret returns the secret stored under name, or ErrSecretNotFound.
	GetSecret(ctx context.Context, name string) (*Secret, error)

	// SetSecret creates or replaces the secret under secret.Name.
	SetSecret(ctx context.Context, secret *Secret) error
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidName)
	}
	return nil
}

func validateSecret(secret *Secret) error {
	if secret == nil {
		return fmt.Errorf("%w: nil secret", ErrInvalidName)
	}
	return validateName(secret.Name)
}

func notFound(name string) error {
	return fmt.Errorf("%w: %q", ErrSecretNotFound, name)
}

// GetOrCreate returns the secret under name, creating it empty when missing.
func GetOrCreate(ctx context.Context, store Store, name string) (*Secret, error) {
	secret, err := store.GetSecret(ctx, name)
	if err == nil {
		return secret, nil
	}
	if !errors.Is(err, ErrSecretNotFound) {
		return nil, err
	}

	secret = &Secret{Name: name, Values: map[string]any{}}
	if err := store.SetSecret(ctx, secret); err != nil {
		return nil, fmt.Errorf("failed to create secret %q: %w", name, err)
	}
	return secret, nil
}
