package main

import (
	"fmt"

	"github.com/vango-dev/liveguard/pkg/layout"
)

var demoTasks = []string{
	"Water the plants",
	"Review the release notes",
	"Rotate the API keys",
}

// buildPage is the static page scaffolding: the title, the loginout button,
// and the content region the guard swaps. The token stores live here too so
// the host can resolve them while rendering.
func buildPage() *layout.Node {
	return layout.Div(
		layout.El("h1", layout.Text("Liveguard demo")),
		layout.Button("loginout", "Log in / out"),
		layout.Div().WithID("main"),
		layout.Store("current_api_token"),
		layout.Store("last_api_token"),
	)
}

// loginView is built fresh on every logout, clearing whatever the previous
// user typed.
func loginView() *layout.Node {
	return layout.Div(
		layout.Label("username-label", "Username").For("username"),
		layout.TextInput("username"),
		layout.Label("password-label", "Password").For("password"),
		layout.PasswordInput("password"),
		layout.Div(layout.Text("Sign in, then press Log in / out again to sign out.")),
	)
}

// contentView carries hidden stores under the credential IDs so the
// loginout callback can still resolve its State deps while signed in.
func contentView() *layout.Node {
	return layout.Div(
		layout.El("h2", layout.Text("Team checklist")),
		taskList(),
		layout.Button("reset", "Reset checklist"),
		layout.Store("username"),
		layout.Store("password"),
	)
}

func taskList() *layout.Node {
	list := layout.Div().WithID("tasks")
	for i, task := range demoTasks {
		id := fmt.Sprintf("task-%d", i)
		list.Add(layout.Div(
			layout.Checkbox(id, task),
			layout.Label(id+"-label", task).For(id),
		))
	}
	return list
}
