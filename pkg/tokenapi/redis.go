package tokenapi

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClient is the subset of go-redis operations the backend needs.
// *redis.Client, *redis.ClusterClient, and redis.UniversalClient all
// satisfy it; tests use the redis.New*Result constructors to fake replies.
type RedisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// RedisAPI is a Redis-backed token backend, suitable for multi-server
// deployments with shared token state. Tokens live as prefixed keys whose
// value is the owning username, expiring via Redis TTLs.
type RedisAPI struct {
	creds  Credentials
	client RedisClient
	prefix string
	ttl    time.Duration
}

// RedisOption configures RedisAPI behavior.
type RedisOption func(*redisConfig)

type redisConfig struct {
	prefix string
	ttl    time.Duration
}

// WithRedisPrefix sets the key prefix for token keys.
// Default: "liveguard:token:".
func WithRedisPrefix(prefix string) RedisOption {
	return func(c *redisConfig) {
		c.prefix = prefix
	}
}

// WithRedisTokenTTL sets how long an untouched token stays valid.
// Each successful Status check slides the expiry forward.
// Default: 30 minutes.
func WithRedisTokenTTL(d time.Duration) RedisOption {
	return func(c *redisConfig) {
		c.ttl = d
	}
}

// NewRedisAPI creates a Redis-backed token backend.
func NewRedisAPI(creds Credentials, client RedisClient, opts ...RedisOption) *RedisAPI {
	cfg := &redisConfig{
		prefix: "liveguard:token:",
		ttl:    30 * time.Minute,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return &RedisAPI{
		creds:  creds,
		client: client,
		prefix: cfg.prefix,
		ttl:    cfg.ttl,
	}
}

// IssueToken verifies the credentials and stores a fresh token key.
func (r *RedisAPI) IssueToken(ctx context.Context, username, password string) (string, error) {
	ok, err := r.creds.Verify(ctx, username, password)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}

	token := newToken()
	if err := r.client.Set(ctx, r.key(token), username, r.ttl).Err(); err != nil {
		return "", err
	}
	return token, nil
}

// Status returns the token if its key still exists, sliding the TTL.
func (r *RedisAPI) Status(ctx context.Context, token string) (string, error) {
	err := r.client.Get(ctx, r.key(token)).Err()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", err
	}

	if err := r.client.Expire(ctx, r.key(token), r.ttl).Err(); err != nil {
		return "", err
	}
	return token, nil
}

// Revoke deletes the token key. Unknown tokens are ignored.
func (r *RedisAPI) Revoke(ctx context.Context, token string) error {
	return r.client.Del(ctx, r.key(token)).Err()
}

func (r *RedisAPI) key(token string) string {
	return r.prefix + token
}
