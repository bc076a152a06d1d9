package layout

import (
	"sort"
	"strings"
)

// Node is one element in a layout tree. A node with an empty Tag renders as
// escaped text content.
type Node struct {
	// Tag is the HTML element name. Empty for text nodes.
	Tag string

	// ID is the component identifier hosts use for callback wiring.
	// Rendered as the id attribute when non-empty.
	ID string

	// Attrs are additional attributes.
	Attrs map[string]string

	// Children are nested nodes. Ignored for text and void elements.
	Children []*Node

	// Text is the content of a text node.
	Text string
}

// El creates an element node with the given tag and children.
func El(tag string, children ...*Node) *Node {
	return &Node{Tag: tag, Children: children}
}

// Text creates a text node.
func Text(s string) *Node {
	return &Node{Text: s}
}

// Div creates a div element.
func Div(children ...*Node) *Node {
	return El("div", children...)
}

// Span creates a span element.
func Span(children ...*Node) *Node {
	return El("span", children...)
}

// Label creates a label element with an ID and text content.
func Label(id, text string) *Node {
	n := El("label", Text(text))
	n.ID = id
	return n
}

// Button creates a button element with an ID and text content.
func Button(id, text string) *Node {
	n := El("button", Text(text))
	n.ID = id
	return n
}

// Input creates an input element with an ID and input type.
func Input(id, typ string) *Node {
	n := El("input")
	n.ID = id
	return n.With("type", typ)
}

// TextInput creates a text input.
func TextInput(id string) *Node {
	return Input(id, "text")
}

// PasswordInput creates a password input.
func PasswordInput(id string) *Node {
	return Input(id, "password")
}

// Checkbox creates a checkbox input with a value attribute.
func Checkbox(id, value string) *Node {
	return Input(id, "checkbox").With("value", value)
}

// Store creates a hidden value holder, the layout-level stand-in for
// client-side state that never renders visibly.
func Store(id string) *Node {
	n := El("span")
	n.ID = id
	return n.With("hidden", "hidden")
}

// With sets an attribute and returns the node for chaining.
func (n *Node) With(key, value string) *Node {
	if n.Attrs == nil {
		n.Attrs = make(map[string]string)
	}
	n.Attrs[key] = value
	return n
}

// For sets the for attribute, used on labels.
func (n *Node) For(id string) *Node {
	return n.With("for", id)
}

// WithID sets the component ID and returns the node for chaining.
func (n *Node) WithID(id string) *Node {
	n.ID = id
	return n
}

// Add appends children and returns the node for chaining.
func (n *Node) Add(children ...*Node) *Node {
	n.Children = append(n.Children, children...)
	return n
}

// Clone returns a deep copy of the node tree. Hosts clone layouts before
// merging live property values so builders can reuse trees.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := &Node{Tag: n.Tag, ID: n.ID, Text: n.Text}
	if n.Attrs != nil {
		c.Attrs = make(map[string]string, len(n.Attrs))
		for k, v := range n.Attrs {
			c.Attrs[k] = v
		}
	}
	for _, child := range n.Children {
		c.Children = append(c.Children, child.Clone())
	}
	return c
}

// Walk visits the node and all descendants depth-first.
// Returning false from fn stops descent into that node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, child := range n.Children {
		child.Walk(fn)
	}
}

// voidElements never carry children or a closing tag.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"source": true, "track": true, "wbr": true,
}

// IsVoidElement reports whether the tag renders without a closing tag.
func IsVoidElement(tag string) bool {
	return voidElements[tag]
}

// Render renders the node tree to HTML with escaped text and attributes.
func Render(n *Node) string {
	var b strings.Builder
	renderNode(&b, n)
	return b.String()
}

// RenderAll renders a list of sibling nodes.
func RenderAll(nodes []*Node) string {
	var b strings.Builder
	for _, n := range nodes {
		renderNode(&b, n)
	}
	return b.String()
}

func renderNode(b *strings.Builder, n *Node) {
	if n == nil {
		return
	}
	if n.Tag == "" {
		b.WriteString(escapeHTML(n.Text))
		return
	}

	b.WriteByte('<')
	b.WriteString(n.Tag)
	if n.ID != "" {
		b.WriteString(` id="`)
		b.WriteString(escapeAttr(n.ID))
		b.WriteByte('"')
	}
	// Stable attribute order keeps rendering deterministic for tests and
	// host-side diffing.
	keys := make([]string, 0, len(n.Attrs))
	for k := range n.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteByte(' ')
		b.WriteString(k)
		b.WriteString(`="`)
		b.WriteString(escapeAttr(n.Attrs[k]))
		b.WriteByte('"')
	}
	b.WriteByte('>')

	if IsVoidElement(n.Tag) {
		return
	}

	for _, child := range n.Children {
		renderNode(b, child)
	}

	b.WriteString("</")
	b.WriteString(n.Tag)
	b.WriteByte('>')
}
