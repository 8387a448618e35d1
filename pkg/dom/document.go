// Package dom is the document collaborator used by the form registry and the
// error presenter. Document describes the narrow surface they need: resolving
// references, enumerating named controls, reading values, building message
// nodes and attaching or detaching them. HTMLDocument implements it over a
// golang.org/x/net/html tree with cascadia selectors.
package dom

import (
	"golang.org/x/net/html"
)

// Control describes one named form control in document order.
type Control struct {
	Name string
	Kind string
	Node *html.Node
}

// Document is the collaborator contract consumed by formstate and errormsg.
type Document interface {
	// Resolve returns the element a reference points at.
	Resolve(ref Ref) (*html.Node, error)
	// Fields lists the named controls inside container in document order.
	Fields(container *html.Node) []Control
	// Value reads the current string value of a control.
	Value(field *html.Node) string
	// Parent returns the structural parent of a node, or nil.
	Parent(node *html.Node) *html.Node
	// CreateElement builds a detached element of the given tag.
	CreateElement(tag string, attrs map[string]string, style string) (*html.Node, error)
	// Clone deep-copies a node. The copy is detached.
	Clone(node *html.Node) *html.Node
	// SetText replaces the children of node with a single text node.
	SetText(node *html.Node, text string)
	// AppendChild attaches child as the last child of container, moving it
	// when it is attached elsewhere.
	AppendChild(container, child *html.Node) error
	// RemoveChild detaches child from container. It reports false when child
	// is not attached to container.
	RemoveChild(container, child *html.Node) bool
}
