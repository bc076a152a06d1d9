package tokenapi

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// fakeRedis implements RedisClient over a map, returning replies through
// the go-redis result constructors.
type fakeRedis struct {
	mu     sync.Mutex
	values map[string]string
	ttls   map[string]time.Duration
	err    error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{
		values: make(map[string]string),
		ttls:   make(map[string]time.Duration),
	}
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewStatusResult("", f.err)
	}
	f.values[key] = fmt.Sprint(value)
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewStringResult("", f.err)
	}
	v, ok := f.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	var n int64
	for _, k := range keys {
		if _, ok := f.values[k]; ok {
			delete(f.values, k)
			delete(f.ttls, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (f *fakeRedis) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewBoolResult(false, f.err)
	}
	if _, ok := f.values[key]; !ok {
		return redis.NewBoolResult(false, nil)
	}
	f.ttls[key] = expiration
	return redis.NewBoolResult(true, nil)
}

func TestRedisAPI_IssueAndStatus(t *testing.T) {
	client := newFakeRedis()
	api := NewRedisAPI(testCredentials(t), client, WithRedisTokenTTL(time.Minute))
	ctx := context.Background()

	token, err := api.IssueToken(ctx, "alice", "alice-password")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if token == "" {
		t.Fatal("expected a token for valid credentials")
	}

	// The token key is prefixed and owned by alice.
	key := "liveguard:token:" + token
	if got := client.values[key]; got != "alice" {
		t.Errorf("expected key %q to hold alice, got %q", key, got)
	}
	if client.ttls[key] != time.Minute {
		t.Errorf("expected 1m TTL, got %v", client.ttls[key])
	}

	got, err := api.Status(ctx, token)
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if got != token {
		t.Errorf("expected token %q back, got %q", token, got)
	}
}

func TestRedisAPI_IssueRejected(t *testing.T) {
	client := newFakeRedis()
	api := NewRedisAPI(testCredentials(t), client)

	token, err := api.IssueToken(context.Background(), "alice", "wrong")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != "" {
		t.Errorf("expected empty token, got %q", token)
	}
	if len(client.values) != 0 {
		t.Error("no key should be stored for rejected credentials")
	}
}

func TestRedisAPI_StatusMissingKey(t *testing.T) {
	api := NewRedisAPI(testCredentials(t), newFakeRedis())

	got, err := api.Status(context.Background(), "gone")
	if err != nil {
		t.Fatalf("redis.Nil must map to a clean miss, got error: %v", err)
	}
	if got != "" {
		t.Errorf("expected empty status, got %q", got)
	}
}

func TestRedisAPI_Revoke(t *testing.T) {
	client := newFakeRedis()
	api := NewRedisAPI(testCredentials(t), client)
	ctx := context.Background()

	token, err := api.IssueToken(ctx, "bob", "bob-password")
	if err != nil || token == "" {
		t.Fatalf("issue failed: token=%q err=%v", token, err)
	}

	if err := api.Revoke(ctx, token); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}
	if len(client.values) != 0 {
		t.Error("expected token key to be deleted")
	}

	got, err := api.Status(ctx, token)
	if err != nil || got != "" {
		t.Errorf("expected revoked token to report invalid, got %q err=%v", got, err)
	}
}

func TestRedisAPI_BackendError(t *testing.T) {
	client := newFakeRedis()
	client.err = errors.New("connection refused")
	api := NewRedisAPI(testCredentials(t), client)
	ctx := context.Background()

	if _, err := api.IssueToken(ctx, "alice", "alice-password"); err == nil {
		t.Error("expected issue error when redis is down")
	}
	if _, err := api.Status(ctx, "tok"); err == nil {
		t.Error("expected status error when redis is down")
	}
	if err := api.Revoke(ctx, "tok"); err == nil {
		t.Error("expected revoke error when redis is down")
	}
}

func TestRedisAPI_CustomPrefix(t *testing.T) {
	client := newFakeRedis()
	api := NewRedisAPI(testCredentials(t), client, WithRedisPrefix("app:tok:"))

	token, err := api.IssueToken(context.Background(), "alice", "alice-password")
	if err != nil || token == "" {
		t.Fatalf("issue failed: token=%q err=%v", token, err)
	}

	for key := range client.values {
		if !strings.HasPrefix(key, "app:tok:") {
			t.Errorf("expected key with custom prefix, got %q", key)
		}
	}
}
