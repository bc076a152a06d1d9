package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"
)

// Kind classifies an authentication event.
type Kind string

const (
	// KindLogin records a successful credential exchange.
	KindLogin Kind = "login"
	// KindLoginFailed records a rejected credential exchange.
	KindLoginFailed Kind = "login_failed"
	// KindLogout records an explicit logout and token revocation.
	KindLogout Kind = "logout"
	// KindTokenRejected records a token the backend refused mid-session.
	KindTokenRejected Kind = "token_rejected"
)

// Event is one authentication event.
type Event struct {
	Time             time.Time `json:"time"`
	Kind             Kind      `json:"kind"`
	Username         string    `json:"username,omitempty"`
	TokenFingerprint string    `json:"token_fingerprint,omitempty"`
}

// Sink receives authentication events. Implementations must be safe for
// concurrent use. Record failures are the caller's to log; the guard never
// fails an interaction over a sink error.
type Sink interface {
	Record(ctx context.Context, ev Event) error
	Close() error
}

// Fingerprint derives a short stable identifier from a token, safe to
// store and correlate without exposing the credential. Returns "" for an
// empty token.
func Fingerprint(token string) string {
	if token == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:8])
}

// SlogSink writes events to a structured logger.
type SlogSink struct {
	logger *slog.Logger
}

// NewSlogSink creates a sink over the given logger.
// A nil logger falls back to slog.Default().
func NewSlogSink(logger *slog.Logger) *SlogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogSink{logger: logger}
}

// Record logs the event at info level.
func (s *SlogSink) Record(ctx context.Context, ev Event) error {
	s.logger.InfoContext(ctx, "auth event",
		"kind", string(ev.Kind),
		"username", ev.Username,
		"token_fp", ev.TokenFingerprint,
	)
	return nil
}

// Close is a no-op; the logger outlives the sink.
func (s *SlogSink) Close() error {
	return nil
}
