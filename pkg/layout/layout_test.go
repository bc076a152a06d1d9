package layout

import (
	"strings"
	"testing"
)

func TestRender_Basic(t *testing.T) {
	n := Div(
		Label("username_label", "Email Address:").For("username"),
		TextInput("username"),
	)

	html := Render(n)
	want := `<div><label id="username_label" for="username">Email Address:</label><input id="username" type="text"></div>`
	if html != want {
		t.Errorf("got %s\nwant %s", html, want)
	}
}

func TestRender_TextEscaping(t *testing.T) {
	n := Span(Text(`<script>alert("x")</script>`))
	html := Render(n)

	if strings.Contains(html, "<script>") {
		t.Error("text content must be escaped")
	}
	if !strings.Contains(html, "&lt;script&gt;") {
		t.Errorf("expected escaped entities, got %s", html)
	}
}

func TestRender_AttrEscaping(t *testing.T) {
	n := El("div").With("title", `a"b<c>`)
	html := Render(n)

	if !strings.Contains(html, `title="a&quot;b&lt;c&gt;"`) {
		t.Errorf("attribute not escaped: %s", html)
	}
}

func TestRender_AttrOrderDeterministic(t *testing.T) {
	n := El("div").With("b", "2").With("a", "1").With("c", "3")

	first := Render(n)
	for i := 0; i < 10; i++ {
		if got := Render(n); got != first {
			t.Fatalf("nondeterministic render: %s vs %s", got, first)
		}
	}
	if !strings.Contains(first, `a="1" b="2" c="3"`) {
		t.Errorf("attributes not sorted: %s", first)
	}
}

func TestRender_VoidElements(t *testing.T) {
	n := PasswordInput("password")
	html := Render(n)

	if strings.Contains(html, "</input>") {
		t.Errorf("void element must not have a closing tag: %s", html)
	}
	if !strings.Contains(html, `type="password"`) {
		t.Errorf("missing type attribute: %s", html)
	}
}

func TestRenderAll(t *testing.T) {
	html := RenderAll([]*Node{Text("a"), Span(Text("b"))})
	if html != "a<span>b</span>" {
		t.Errorf("unexpected output: %s", html)
	}
}

func TestClone_Independent(t *testing.T) {
	orig := Div(Button("loginout", "Log In/Out")).With("class", "root")
	clone := orig.Clone()

	clone.With("class", "changed")
	clone.Children[0].Children[0].Text = "changed"

	if orig.Attrs["class"] != "root" {
		t.Error("clone mutated original attrs")
	}
	if orig.Children[0].Children[0].Text != "Log In/Out" {
		t.Error("clone mutated original children")
	}
}

func TestWalk_StopsDescent(t *testing.T) {
	tree := Div(
		Div(Span(Text("deep"))).WithID("skip"),
		Button("ok", "x"),
	)

	var visited []string
	tree.Walk(func(n *Node) bool {
		if n.ID != "" {
			visited = append(visited, n.ID)
		}
		return n.ID != "skip"
	})

	for _, id := range visited {
		if id == "deep" {
			t.Error("walk descended past a stopped node")
		}
	}
	if len(visited) != 2 {
		t.Errorf("expected skip and ok, got %v", visited)
	}
}

func TestStore_RendersHidden(t *testing.T) {
	html := Render(Store("current_api_token"))
	if !strings.Contains(html, `hidden="hidden"`) {
		t.Errorf("store should render hidden: %s", html)
	}
}
