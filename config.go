package liveguard

import (
	"log/slog"

	"github.com/vango-dev/liveguard/pkg/audit"
)

// NullToken is the sentinel token value meaning "no active session". It is
// the initial value of both token stores and what every failure path
// collapses to. Backends mint opaque tokens that must never equal it;
// anything UUID-shaped is safe.
const NullToken = "null"

// ComponentIDs names the host components the guard wires itself to.
// The zero value is completed with the defaults below.
type ComponentIDs struct {
	// Content is the region whose children swap between the login and
	// content layouts. Default: "main".
	Content string

	// CurrentToken and LastToken are the host-managed stores holding the
	// live token pair. Defaults: "current_api_token", "last_api_token".
	CurrentToken string
	LastToken    string

	// LoginOut is the button driving the login/logout transition.
	// Default: "loginout".
	LoginOut string

	// Username and Password are the credential inputs on the login view.
	// The content view must carry dummy components under the same IDs so
	// the host can resolve the loginout callback's State deps.
	// Defaults: "username", "password".
	Username string
	Password string
}

// Property names on the wired components.
const (
	// ContentProp is the content region property holding the layout.
	ContentProp = "children"
	// TokenProp is the store property holding a token value.
	TokenProp = "data"
	// ClicksProp is the button property that fires the loginout callback.
	ClicksProp = "n_clicks"
	// FieldProp is the property credential inputs are read from.
	FieldProp = "value"
)

// DefaultComponentIDs returns the standard component wiring.
func DefaultComponentIDs() ComponentIDs {
	return ComponentIDs{
		Content:      "main",
		CurrentToken: "current_api_token",
		LastToken:    "last_api_token",
		LoginOut:     "loginout",
		Username:     "username",
		Password:     "password",
	}
}

// fillDefaults completes unset fields with the standard wiring.
func (ids ComponentIDs) fillDefaults() ComponentIDs {
	def := DefaultComponentIDs()
	if ids.Content == "" {
		ids.Content = def.Content
	}
	if ids.CurrentToken == "" {
		ids.CurrentToken = def.CurrentToken
	}
	if ids.LastToken == "" {
		ids.LastToken = def.LastToken
	}
	if ids.LoginOut == "" {
		ids.LoginOut = def.LoginOut
	}
	if ids.Username == "" {
		ids.Username = def.Username
	}
	if ids.Password == "" {
		ids.Password = def.Password
	}
	return ids
}

// Option configures a Guard.
type Option func(*Guard)

// WithLogger sets the structured logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(g *Guard) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithComponentIDs overrides the host component wiring. Unset fields keep
// their defaults.
func WithComponentIDs(ids ComponentIDs) Option {
	return func(g *Guard) {
		g.ids = ids.fillDefaults()
	}
}

// WithAuditSink records authentication events to the sink. Sink errors are
// logged, never surfaced to the interaction.
func WithAuditSink(sink audit.Sink) Option {
	return func(g *Guard) {
		g.sink = sink
	}
}
