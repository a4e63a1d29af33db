package secrets

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// FileStore keeps each secret in its own file under a directory.
type FileStore struct {
	dir string
	enc *Encryption
}

// FileOption configures a FileStore.
type FileOption func(*FileStore)

// WithFileEncryption seals secret files with enc.
func WithFileEncryption(enc *Encryption) FileOption {
	return func(s *FileStore) { s.enc = enc }
}

// NewFileStore creates a FileStore rooted at dir. An empty dir selects DefaultDir.
// The directory is created on first write.
func NewFileStore(dir string, opts ...FileOption) *FileStore {
	if dir == "" {
		dir = DefaultDir()
	}
	s := &FileStore{dir: dir}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the directory secrets are stored in.
func (s *FileStore) Dir() string {
	return s.dir
}

// GetSecret implements Store.
func (s *FileStore) GetSecret(_ context.Context, name string) (*Secret, error) {
	path, err := s.path(name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, notFound(name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read secret file: %w", err)
	}

	return unmarshal(s.enc, name, data)
}

// SetSecret implements Store. Files are replaced atomically.
func (s *FileStore) SetSecret(_ context.Context, secret *Secret) error {
	if err := validateSecret(secret); err != nil {
		return err
	}
	path, err := s.path(secret.Name)
	if err != nil {
		return err
	}

	data, err := marshal(s.enc, secret)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("failed to create secrets directory: %w", err)
	}

	// CreateTemp opens the file with mode 0600.
	tmp, err := os.CreateTemp(s.dir, ".tmp-"+secret.Name+"-*")
	if err != nil {
		return fmt.Errorf("failed to create secret file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write secret file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write secret file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace secret file: %w", err)
	}
	return nil
}

func (s *FileStore) path(name string) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}
	if strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return filepath.Join(s.dir, name+".json"), nil
}

// DefaultDir returns <user cache dir>/mailauth/secrets.
func DefaultDir() string {
	return filepath.Join(userCacheDir(), "mailauth", "secrets")
}

func userCacheDir() string {
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(homeDir(), "Library", "Caches")
	case "windows":
		for _, ev := range []string{"TEMP", "TMP"} {
			if v := os.Getenv(ev); v != "" {
				return v
			}
		}
		return os.TempDir()
	}
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return xdg
	}
	return filepath.Join(homeDir(), ".cache")
}

func homeDir() string {
	if runtime.GOOS == "windows" {
		return os.Getenv("HOMEDRIVE") + os.Getenv("HOMEPATH")
	}
	return os.Getenv("HOME")
}
