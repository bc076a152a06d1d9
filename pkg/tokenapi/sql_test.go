package tokenapi

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

func newSQLAPI(t *testing.T, opts ...SQLOption) *SQLAPI {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// In-memory SQLite is per-connection; keep the pool at one.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	opts = append([]SQLOption{WithSQLDialect(DialectSQLite)}, opts...)
	api := NewSQLAPI(testCredentials(t), db, opts...)
	t.Cleanup(func() { api.Close() })

	if err := api.CreateTable(context.Background()); err != nil {
		t.Fatalf("create table: %v", err)
	}
	return api
}

func TestSQLAPI_IssueAndStatus(t *testing.T) {
	api := newSQLAPI(t)
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
}

func TestSQLAPI_IssueRejected(t *testing.T) {
	api := newSQLAPI(t)

	token, err := api.IssueToken(context.Background(), "alice", "wrong")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != "" {
		t.Errorf("expected empty token for bad credentials, got %q", token)
	}
}

func TestSQLAPI_StatusUnknownToken(t *testing.T) {
	api := newSQLAPI(t)

	got, err := api.Status(context.Background(), "not-a-token")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "" {
		t.Errorf("expected empty status, got %q", got)
	}
}

func TestSQLAPI_Revoke(t *testing.T) {
	api := newSQLAPI(t)
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

func TestSQLAPI_Expiry(t *testing.T) {
	api := newSQLAPI(t, WithSQLTokenTTL(time.Minute))
	ctx := context.Background()

	base := time.Now()
	api.now = func() time.Time { return base }

	token, err := api.IssueToken(ctx, "alice", "alice-password")
	if err != nil || token == "" {
		t.Fatalf("issue failed: token=%q err=%v", token, err)
	}

	// Just before expiry the token is live and the check slides it forward.
	api.now = func() time.Time { return base.Add(59 * time.Second) }
	got, err := api.Status(ctx, token)
	if err != nil || got != token {
		t.Fatalf("expected live token, got %q err=%v", got, err)
	}

	// The slide moved expiry to base+59s+1m. Two minutes later it is gone.
	api.now = func() time.Time { return base.Add(3 * time.Minute) }
	got, err = api.Status(ctx, token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "" {
		t.Error("expected expired token to report invalid")
	}
}

func TestSQLAPI_Cleanup(t *testing.T) {
	api := newSQLAPI(t, WithSQLTokenTTL(time.Minute))
	ctx := context.Background()

	base := time.Now()
	api.now = func() time.Time { return base }

	token, err := api.IssueToken(ctx, "alice", "alice-password")
	if err != nil || token == "" {
		t.Fatalf("issue failed: token=%q err=%v", token, err)
	}

	api.now = func() time.Time { return base.Add(2 * time.Minute) }
	api.cleanup()

	var n int
	if err := api.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM liveguard_tokens").Scan(&n); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if n != 0 {
		t.Errorf("expected cleanup to purge expired rows, found %d", n)
	}
}

func TestSQLAPI_Closed(t *testing.T) {
	api := newSQLAPI(t)
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
}

func TestSQLAPI_PlaceholderDialects(t *testing.T) {
	pg := &SQLAPI{dialect: DialectPostgreSQL}
	if pg.placeholder(2) != "$2" {
		t.Errorf("postgres placeholder = %s", pg.placeholder(2))
	}
	my := &SQLAPI{dialect: DialectMySQL}
	if my.placeholder(2) != "?" {
		t.Errorf("mysql placeholder = %s", my.placeholder(2))
	}
	lite := &SQLAPI{dialect: DialectSQLite}
	if lite.placeholder(1) != "?" {
		t.Errorf("sqlite placeholder = %s", lite.placeholder(1))
	}
}
