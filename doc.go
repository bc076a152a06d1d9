// Package liveguard layers token authentication over a reactive web-UI
// callback host.
//
// A Guard owns three things: the host's token stores, a pair of view
// builders, and an authentication backend. It registers two callbacks on
// construction: one that swaps the content region between the login and
// content views whenever the token transitions, and one that handles the
// login/logout button. Callback registers protected callbacks whose token
// is revalidated on every invocation.
//
//	api := tokenapi.NewMemoryAPI(creds)
//	guard, err := liveguard.New(host, api, loginView, contentView)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// A protected interaction: the token rides along invisibly and is
//	// checked against the backend after the handler runs.
//	guard.Callback(
//	    []callback.Dep{
//	        callback.Output("chk1", "value"),
//	        callback.Input("reset", "n_clicks"),
//	        callback.State("chk1", "value"),
//	    },
//	    func(ctx context.Context, args []any) ([]any, error) {
//	        return []any{[]string{"One", "Three"}}, nil
//	    },
//	)
//
// Callbacks that do not need per-call token checking should be registered
// directly on the host as usual.
//
// The guard stores no tokens itself. State lives in two host-managed stores
// (current and last token); validity is decided entirely by the backend.
// Any backend failure is treated as an invalid token, which forces the
// login view on the next refresh. There is no retry and no finer-grained
// error taxonomy.
package liveguard
