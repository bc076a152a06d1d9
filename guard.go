package liveguard

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vango-dev/liveguard/pkg/audit"
	"github.com/vango-dev/liveguard/pkg/callback"
	"github.com/vango-dev/liveguard/pkg/layout"
	"github.com/vango-dev/liveguard/pkg/tokenapi"
)

// ViewBuilder produces the layout for one side of the logged-in/logged-out
// split. Builders are invoked only when the token transitions, never on
// refreshes where the token is unchanged.
//
// The login layout must contain credential inputs under the guard's
// username/password IDs. The content layout must carry dummy components
// under the same IDs (layout.Store works) so the host can still resolve the
// loginout callback's State deps while logged in.
type ViewBuilder interface {
	BuildLayout() *layout.Node
}

// ViewBuilderFunc adapts a function to the ViewBuilder interface.
type ViewBuilderFunc func() *layout.Node

// BuildLayout calls f.
func (f ViewBuilderFunc) BuildLayout() *layout.Node {
	return f()
}

// Guard layers token authentication over a callback host. Construct with
// New; the zero value is not usable.
//
// The guard keeps no state of its own. The current and last token live in
// two host-managed stores, and the backend alone decides validity: the
// guard's job is moving tokens between the stores and the backend, and
// swapping the content region when they transition.
type Guard struct {
	host        callback.Host
	api         tokenapi.API
	loginView   ViewBuilder
	contentView ViewBuilder

	ids    ComponentIDs
	logger *slog.Logger
	sink   audit.Sink
}

// New wires a guard onto the host. It registers the view-switching callback
// and the login/logout callback immediately; protected application
// callbacks are added afterwards via Guard.Callback.
//
// The host layout must already contain the wired components: the content
// region, the loginout button, and the two token stores initialized to
// NullToken.
func New(host callback.Host, api tokenapi.API, loginView, contentView ViewBuilder, opts ...Option) (*Guard, error) {
	if host == nil {
		return nil, fmt.Errorf("liveguard: host is required")
	}
	if api == nil {
		return nil, fmt.Errorf("liveguard: token API is required")
	}
	if loginView == nil || contentView == nil {
		return nil, fmt.Errorf("liveguard: both view builders are required")
	}

	g := &Guard{
		host:        host,
		api:         api,
		loginView:   loginView,
		contentView: contentView,
		ids:         DefaultComponentIDs(),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}

	// Swaps the content region between login and content views whenever the
	// current token transitions.
	err := host.Callback(
		[]callback.Dep{
			callback.Output(g.ids.Content, ContentProp),
			callback.Input(g.ids.CurrentToken, TokenProp),
			callback.State(g.ids.LastToken, TokenProp),
			callback.State(g.ids.Content, ContentProp),
		},
		g.showView,
	)
	if err != nil {
		return nil, fmt.Errorf("liveguard: registering view callback: %w", err)
	}

	// Handles login and logout. Initial call must be prevented because the
	// outputs duplicate the token stores written by protected callbacks.
	err = host.Callback(
		[]callback.Dep{
			callback.Output(g.ids.CurrentToken, TokenProp, callback.WithAllowDuplicate()),
			callback.Output(g.ids.LastToken, TokenProp, callback.WithAllowDuplicate()),
			callback.Input(g.ids.LoginOut, ClicksProp),
			callback.State(g.ids.CurrentToken, TokenProp),
			callback.State(g.ids.Username, FieldProp),
			callback.State(g.ids.Password, FieldProp),
		},
		g.loginOut,
		callback.PreventInitialCall(),
	)
	if err != nil {
		return nil, fmt.Errorf("liveguard: registering loginout callback: %w", err)
	}

	return g, nil
}

// Callback registers a protected callback on the host. Use it when the
// interaction should check the token for validity or expiry: after the
// handler runs, the current token is revalidated against the backend, and a
// rejected token transitions the UI to the login view on its next refresh.
//
// The handler sees exactly the Input and State values it declared; the
// token plumbing is invisible to it. Callbacks that don't need token
// checking should be registered on the host directly.
func (g *Guard) Callback(deps []callback.Dep, fn callback.Func) error {
	wrapped := make([]callback.Dep, 0, len(deps)+3)
	wrapped = append(wrapped,
		callback.Output(g.ids.CurrentToken, TokenProp, callback.WithAllowDuplicate()),
		callback.Output(g.ids.LastToken, TokenProp, callback.WithAllowDuplicate()),
	)
	wrapped = append(wrapped, deps...)
	wrapped = append(wrapped, callback.State(g.ids.CurrentToken, TokenProp))

	return g.host.Callback(wrapped, g.protect(fn), callback.PreventInitialCall())
}

// protect wraps a handler with token unwrap/revalidate/rewrap.
func (g *Guard) protect(fn callback.Func) callback.Func {
	return func(ctx context.Context, args []any) ([]any, error) {
		st := newCallbackState(args)

		out, err := fn(ctx, st.unwrapInput())
		if err != nil {
			return nil, err
		}

		st.setCurrent(g.checkToken(ctx, st.current))
		if st.current == NullToken && st.last != NullToken {
			g.record(ctx, audit.KindTokenRejected, "", st.last)
			g.logger.InfoContext(ctx, "token rejected mid-session", "token_fp", audit.Fingerprint(st.last))
		}

		return st.wrapOutput(out), nil
	}
}

// checkToken revalidates a token against the backend, collapsing every
// failure to the null-equivalent.
func (g *Guard) checkToken(ctx context.Context, token string) string {
	if token == NullToken {
		return NullToken
	}

	status, err := g.api.Status(ctx, token)
	if err != nil {
		g.logger.WarnContext(ctx, "token status check failed", "error", err)
		return NullToken
	}
	return status
}

// showView returns the login or content layout when the token transitioned,
// and the existing layout untouched when it didn't.
//
// Args: current token (Input), last token (State), existing layout (State).
func (g *Guard) showView(ctx context.Context, args []any) ([]any, error) {
	current := normalizeToken(args[0])
	last := normalizeToken(args[1])
	existing := args[2]

	switch {
	case current == last:
		return []any{existing}, nil
	case current == NullToken:
		return []any{g.loginView.BuildLayout()}, nil
	default:
		return []any{g.contentView.BuildLayout()}, nil
	}
}

// loginOut processes the token pair in response to the loginout button.
// Logged out, it attempts a login with the credential inputs; logged in, it
// revokes the token. Either way the previous token lands in the last-token
// store so showView can detect the transition.
//
// Args: clicks (Input, unused), current token, username, password (States).
func (g *Guard) loginOut(ctx context.Context, args []any) ([]any, error) {
	current := normalizeToken(args[1])
	username, _ := args[2].(string)
	password, _ := args[3].(string)
	last := current

	if current == NullToken {
		token, err := g.api.IssueToken(ctx, username, password)
		if err != nil {
			g.logger.WarnContext(ctx, "login failed against backend", "error", err)
			token = ""
		}
		if token == "" {
			g.record(ctx, audit.KindLoginFailed, username, "")
			return []any{NullToken, last}, nil
		}

		g.record(ctx, audit.KindLogin, username, token)
		g.logger.InfoContext(ctx, "login", "username", username)
		return []any{token, last}, nil
	}

	if err := g.api.Revoke(ctx, current); err != nil {
		// The server-side token may outlive its TTL, but the client is
		// logged out regardless.
		g.logger.WarnContext(ctx, "token revocation failed", "error", err)
	}
	g.record(ctx, audit.KindLogout, "", current)
	g.logger.InfoContext(ctx, "logout", "token_fp", audit.Fingerprint(current))
	return []any{NullToken, last}, nil
}

// record emits an audit event when a sink is configured.
func (g *Guard) record(ctx context.Context, kind audit.Kind, username, token string) {
	if g.sink == nil {
		return
	}

	ev := audit.Event{
		Time:             time.Now().UTC(),
		Kind:             kind,
		Username:         username,
		TokenFingerprint: audit.Fingerprint(token),
	}
	if err := g.sink.Record(ctx, ev); err != nil {
		g.logger.WarnContext(ctx, "audit record failed", "kind", string(kind), "error", err)
	}
}
