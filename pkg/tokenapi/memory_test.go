package tokenapi

import (
	"context"
	"testing"
	"time"
)

func testCredentials(t *testing.T) *StaticCredentials {
	t.Helper()
	creds := NewStaticCredentials()
	for user, pass := range map[string]string{
		"alice": "alice-password",
		"bob":   "bob-password",
	} {
		if err := creds.Register(user, pass); err != nil {
			t.Fatalf("register %s: %v", user, err)
		}
	}
	return creds
}

func TestMemoryAPI_IssueAndStatus(t *testing.T) {
	api := NewMemoryAPI(testCredentials(t))
	defer api.Close()
	ctx := context.Background()

	token, err := api.IssueToken(ctx, "alice", "alice-password")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if token == "" {
		t.Fatal("expected a token for valid credentials")
	}

	got, err := api.Status(ctx, token)
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if got != token {
		t.Errorf("expected token %q back, got %q", token, got)
	}

	user, ok := api.Username(token)
	if !ok || user != "alice" {
		t.Errorf("expected token owner alice, got %q (ok=%v)", user, ok)
	}
}

func TestMemoryAPI_IssueRejected(t *testing.T) {
	api := NewMemoryAPI(testCredentials(t))
	defer api.Close()
	ctx := context.Background()

	token, err := api.IssueToken(ctx, "alice", "wrong")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != "" {
		t.Errorf("expected empty token for bad credentials, got %q", token)
	}
	if api.Count() != 0 {
		t.Errorf("expected no live tokens, got %d", api.Count())
	}
}

func TestMemoryAPI_StatusUnknownToken(t *testing.T) {
	api := NewMemoryAPI(testCredentials(t))
	defer api.Close()

	got, err := api.Status(context.Background(), "not-a-token")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "" {
		t.Errorf("expected empty status for unknown token, got %q", got)
	}
}

func TestMemoryAPI_Revoke(t *testing.T) {
	api := NewMemoryAPI(testCredentials(t))
	defer api.Close()
	ctx := context.Background()

	token, err := api.IssueToken(ctx, "bob", "bob-password")
	if err != nil || token == "" {
		t.Fatalf("issue failed: token=%q err=%v", token, err)
	}

	if err := api.Revoke(ctx, token); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}

	got, err := api.Status(ctx, token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "" {
		t.Error("expected revoked token to report invalid")
	}

	// Revoking again is not an error.
	if err := api.Revoke(ctx, token); err != nil {
		t.Errorf("second revoke failed: %v", err)
	}
}

func TestMemoryAPI_Expiry(t *testing.T) {
	api := NewMemoryAPI(testCredentials(t),
		WithTokenTTL(20*time.Millisecond),
		WithCleanupInterval(5*time.Millisecond))
	defer api.Close()
	ctx := context.Background()

	token, err := api.IssueToken(ctx, "alice", "alice-password")
	if err != nil || token == "" {
		t.Fatalf("issue failed: token=%q err=%v", token, err)
	}

	time.Sleep(50 * time.Millisecond)

	got, err := api.Status(ctx, token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "" {
		t.Error("expected expired token to report invalid")
	}
}

func TestMemoryAPI_Closed(t *testing.T) {
	api := NewMemoryAPI(testCredentials(t))
	if err := api.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	ctx := context.Background()
	if _, err := api.IssueToken(ctx, "alice", "alice-password"); err != ErrAPIClosed {
		t.Errorf("expected ErrAPIClosed, got %v", err)
	}
	if _, err := api.Status(ctx, "x"); err != ErrAPIClosed {
		t.Errorf("expected ErrAPIClosed, got %v", err)
	}
	if err := api.Revoke(ctx, "x"); err != ErrAPIClosed {
		t.Errorf("expected ErrAPIClosed, got %v", err)
	}

	// Close is idempotent.
	if err := api.Close(); err != nil {
		t.Errorf("second close failed: %v", err)
	}
}
