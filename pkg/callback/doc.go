// Package callback defines the registration contract between liveguard and
// a reactive UI host.
//
// A host exposes a graph of component properties. Callbacks declare the
// properties they write (Output), the properties whose changes fire them
// (Input), and the properties they read without subscribing (State). The
// handler receives the Input values followed by the State values, in
// declaration order, and returns one value per declared Output.
//
// liveguard only needs the registration side of this contract; scheduling,
// diffing, and client transport belong to the host. Any framework that can
// express this surface can sit behind the guard:
//
//	host.Callback(
//	    []callback.Dep{
//	        callback.Output("greeting", "children"),
//	        callback.Input("name", "value"),
//	    },
//	    func(ctx context.Context, args []any) ([]any, error) {
//	        return []any{"Hello, " + args[0].(string)}, nil
//	    },
//	)
package callback
