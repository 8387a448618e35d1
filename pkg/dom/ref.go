package dom

import "golang.org/x/net/html"

// Ref identifies a node in a Document. It is either a CSS selector resolved
// against the document root or a node the caller already holds.
type Ref interface {
	isRef()
}

// Selector is a CSS selector reference resolved to its first match.
type Selector string

func (Selector) isRef() {}

// ElementRef wraps a node handle.
type ElementRef struct {
	Node *html.Node
}

func (ElementRef) isRef() {}

// Select returns a selector reference.
func Select(selector string) Ref {
	return Selector(selector)
}

// Element returns a reference to an existing node.
func Element(node *html.Node) Ref {
	return ElementRef{Node: node}
}
