package tokenapi

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryAPI is an in-process token backend. It is the default backend and
// suitable for single-server deployments and demos. For multi-server
// deployments, use RedisAPI or SQLAPI.
type MemoryAPI struct {
	creds  Credentials
	tokens *gocache.Cache
	ttl    time.Duration

	mu     sync.Mutex
	closed bool
}

// MemoryOption configures MemoryAPI behavior.
type MemoryOption func(*memoryConfig)

type memoryConfig struct {
	ttl             time.Duration
	cleanupInterval time.Duration
}

// WithTokenTTL sets how long an untouched token stays valid.
// Each successful Status check slides the expiry forward.
// Default: 30 minutes.
func WithTokenTTL(d time.Duration) MemoryOption {
	return func(c *memoryConfig) {
		c.ttl = d
	}
}

// WithCleanupInterval sets how often expired tokens are purged.
// Default: 1 minute.
func WithCleanupInterval(d time.Duration) MemoryOption {
	return func(c *memoryConfig) {
		c.cleanupInterval = d
	}
}

// NewMemoryAPI creates an in-process token backend on top of the given
// credential source.
func NewMemoryAPI(creds Credentials, opts ...MemoryOption) *MemoryAPI {
	cfg := &memoryConfig{
		ttl:             30 * time.Minute,
		cleanupInterval: 1 * time.Minute,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return &MemoryAPI{
		creds:  creds,
		tokens: gocache.New(cfg.ttl, cfg.cleanupInterval),
		ttl:    cfg.ttl,
	}
}

// IssueToken verifies the credentials and mints a token on success.
func (m *MemoryAPI) IssueToken(ctx context.Context, username, password string) (string, error) {
	if m.isClosed() {
		return "", ErrAPIClosed
	}

	ok, err := m.creds.Verify(ctx, username, password)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}

	token := newToken()
	m.tokens.Set(token, username, m.ttl)
	return token, nil
}

// Status returns the token if still live, sliding its expiry forward.
func (m *MemoryAPI) Status(ctx context.Context, token string) (string, error) {
	if m.isClosed() {
		return "", ErrAPIClosed
	}

	username, ok := m.tokens.Get(token)
	if !ok {
		return "", nil
	}

	// Slide the expiry window.
	m.tokens.Set(token, username, m.ttl)
	return token, nil
}

// Revoke removes the token. Unknown tokens are ignored.
func (m *MemoryAPI) Revoke(ctx context.Context, token string) error {
	if m.isClosed() {
		return ErrAPIClosed
	}

	m.tokens.Delete(token)
	return nil
}

// Username returns the user a live token was issued to.
// This is a convenience for content views; it does not slide expiry.
func (m *MemoryAPI) Username(token string) (string, bool) {
	v, ok := m.tokens.Get(token)
	if !ok {
		return "", false
	}
	username, ok := v.(string)
	return username, ok
}

// Count returns the number of live tokens. For monitoring/testing.
func (m *MemoryAPI) Count() int {
	return m.tokens.ItemCount()
}

// Close marks the backend closed. Subsequent operations fail with
// ErrAPIClosed.
func (m *MemoryAPI) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	m.tokens.Flush()
	return nil
}

func (m *MemoryAPI) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
