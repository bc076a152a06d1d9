package tokenapi

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// API is the authentication backend contract.
// All methods must be safe for concurrent use.
type API interface {
	// IssueToken exchanges credentials for a new session token.
	// Returns ("", nil) when the credentials are rejected.
	// Returns ("", err) on backend failure.
	IssueToken(ctx context.Context, username, password string) (string, error)

	// Status revalidates a live token. Returns the same token or a
	// refreshed replacement when still valid, ("", nil) when the token has
	// expired or been revoked, and ("", err) on backend failure.
	Status(ctx context.Context, token string) (string, error)

	// Revoke invalidates a token server-side.
	// Revoking an unknown token is not an error.
	Revoke(ctx context.Context, token string) error
}

// ErrAPIClosed is returned when operations are attempted on a closed backend.
var ErrAPIClosed = errors.New("tokenapi: backend is closed")

// Credentials verifies a username/password pair.
// Token backends delegate credential checks here so that token storage and
// identity storage can vary independently.
type Credentials interface {
	// Verify reports whether the pair identifies a known user.
	// Returns (false, nil) for a clean rejection and (false, err) when the
	// lookup itself failed.
	Verify(ctx context.Context, username, password string) (bool, error)
}

// StaticCredentials is an in-memory credential table with bcrypt-hashed
// passwords. It is intended for demos, development, and tests; production
// deployments should implement Credentials against a real identity store.
type StaticCredentials struct {
	mu     sync.RWMutex
	hashes map[string][]byte
}

// NewStaticCredentials creates an empty credential table.
func NewStaticCredentials() *StaticCredentials {
	return &StaticCredentials{hashes: make(map[string][]byte)}
}

// Register adds a user, hashing the password with bcrypt.
func (c *StaticCredentials) Register(username, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.hashes[username] = hash
	return nil
}

// Verify reports whether the pair matches a registered user.
func (c *StaticCredentials) Verify(ctx context.Context, username, password string) (bool, error) {
	c.mu.RLock()
	hash, ok := c.hashes[username]
	c.mu.RUnlock()

	if !ok {
		return false, nil
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return false, nil
	}
	return true, nil
}

// newToken mints an opaque token value. UUIDs keep tokens unguessable
// enough for demo backends and guarantee no collision with a framework
// null sentinel.
func newToken() string {
	return uuid.NewString()
}
