package credential

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const redisKeyPrefixDefault = "authclient:credential"

// RedisConfig configures a [RedisStore].
type RedisConfig struct {
	// Prefix namespaces the credential key. Defaults to
	// "authclient:credential".
	Prefix string
	// ClientID distinguishes credentials of multiple logical clients
	// sharing one Redis. Required.
	ClientID string
	// TTL bounds how long a stored pair outlives its last write. Zero
	// means no expiry; the pair is still replaced or cleared by the
	// session lifecycle.
	TTL time.Duration
}

// RedisStore keeps the pair in Redis for headless and multi-process
// deployments where several workers share one session. Corrupted payloads
// are deleted and reported absent, matching the file store's behavior.
type RedisStore struct {
	rdb    *redis.Client
	key    string
	ttl    time.Duration
	logger logrus.FieldLogger
}

// NewRedisStore creates the shared-cache store.
func NewRedisStore(rdb *redis.Client, cfg RedisConfig, logger logrus.FieldLogger) (*RedisStore, error) {
	if rdb == nil {
		return nil, fmt.Errorf("%w: redis client required", ErrStorageFailure)
	}
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("%w: redis store requires ClientID", ErrStorageFailure)
	}
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = redisKeyPrefixDefault
	}
	if logger == nil {
		logger = discardLogger()
	}
	return &RedisStore{
		rdb:    rdb,
		key:    prefix + ":" + cfg.ClientID,
		ttl:    cfg.TTL,
		logger: logger.WithField("component", "credential.redis"),
	}, nil
}

// Kind reports the strategy name.
func (s *RedisStore) Kind() string { return "redis" }

// Get returns the stored pair, or (nil, nil) when absent or corrupted.
// Redis unavailability is a storage failure, not absence.
func (s *RedisStore) Get(ctx context.Context) (*Pair, error) {
	data, err := s.rdb.Get(ctx, s.key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	pair := &Pair{}
	if err := json.Unmarshal(data, pair); err != nil {
		s.logger.Warn("clearing corrupted stored credential")
		_ = s.rdb.Del(ctx, s.key).Err()
		return nil, nil
	}
	return pair, nil
}

// Set persists the pair under the client key.
func (s *RedisStore) Set(ctx context.Context, pair *Pair) error {
	if pair == nil {
		return fmt.Errorf("%w: nil pair", ErrStorageFailure)
	}
	data, err := json.Marshal(pair)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	if err := s.rdb.Set(ctx, s.key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	return nil
}

// Clear removes the stored pair.
func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.rdb.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	return nil
}
