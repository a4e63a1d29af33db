package secrets

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKeyPrefix namespaces secret keys.
const DefaultRedisKeyPrefix = "mailauth:secret:"

// RedisStore keeps each secret as a JSON string value in Redis.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	enc    *Encryption
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithKeyPrefix sets the key prefix (default DefaultRedisKeyPrefix).
func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) { s.prefix = prefix }
}

// WithRedisEncryption seals stored values with enc.
func WithRedisEncryption(enc *Encryption) RedisOption {
	return func(s *RedisStore) { s.enc = enc }
}

// NewRedisStore creates a RedisStore on top of client.
func NewRedisStore(client redis.UniversalClient, opts ...RedisOption) *RedisStore {
	s := &RedisStore{client: client, prefix: DefaultRedisKeyPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewRedisClient connects to a single Redis server.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// GetSecret implements Store.
func (s *RedisStore) GetSecret(ctx context.Context, name string) (*Secret, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	data, err := s.client.Get(ctx, s.key(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, notFound(name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read secret from redis: %w", err)
	}

	return unmarshal(s.enc, name, data)
}

// SetSecret implements Store. Values never expire.
func (s *RedisStore) SetSecret(ctx context.Context, secret *Secret) error {
	if err := validateSecret(secret); err != nil {
		return err
	}

	data, err := marshal(s.enc, secret)
	if err != nil {
		return err
	}

	if err := s.client.Set(ctx, s.key(secret.Name), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to write secret to redis: %w", err)
	}
	return nil
}

func (s *RedisStore) key(name string) string {
	return s.prefix + name
}
