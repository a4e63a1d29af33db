package config

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/teemow/mailauth/internal/instrumentation"
	"github.com/teemow/mailauth/internal/secrets"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// OpenStore builds the configured secret store, wrapped with instrumentation.
// The returned Closer releases backend connections.
func (c SecretsConfig) OpenStore(metrics *instrumentation.Metrics, logger *slog.Logger) (secrets.Store, io.Closer, error) {
	key, err := secrets.KeyFromBase64(c.Key)
	if err != nil {
		return nil, nil, fmt.Errorf("secrets key: %w", err)
	}
	enc, err := secrets.NewEncryption(key)
	if err != nil {
		return nil, nil, err
	}

	var (
		store  secrets.Store
		closer io.Closer = nopCloser{}
	)

	switch c.Backend {
	case secrets.BackendMemory:
		store = secrets.NewMemoryStore()
	case secrets.BackendFile:
		store = secrets.NewFileStore(c.Dir, secrets.WithFileEncryption(enc))
	case secrets.BackendRedis:
		client := secrets.NewRedisClient(c.RedisAddr, c.RedisPassword, c.RedisDB)
		store = secrets.NewRedisStore(client,
			secrets.WithKeyPrefix(c.RedisKeyPrefix),
			secrets.WithRedisEncryption(enc))
		closer = client
	default:
		return nil, nil, fmt.Errorf("unknown secrets backend %q", c.Backend)
	}

	return secrets.Instrument(store, c.Backend, metrics, logger), closer, nil
}
