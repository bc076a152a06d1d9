// Package layout provides the minimal server-side layout tree view builders
// hand to the guard, plus HTML rendering for hosts that serve the result.
//
// It is intentionally small: a node is a tag, an optional component ID,
// attributes, and children. The guard never inspects layouts; it only moves
// them between view builders and the host's content region.
//
//	layout.Div(
//	    layout.Label("username_label", "Email Address:").For("username"),
//	    layout.TextInput("username"),
//	)
package layout
