package dom

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/goliatone/go-formvalidator/pkg/formerrors"
)

var tagNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9-]*$`)

// controlTags lists the elements a form exposes through its elements
// collection.
var controlTags = map[atom.Atom]struct{}{
	atom.Input:    {},
	atom.Select:   {},
	atom.Textarea: {},
	atom.Button:   {},
	atom.Output:   {},
	atom.Fieldset: {},
	atom.Object:   {},
}

// HTMLDocument implements Document over a parsed HTML tree.
type HTMLDocument struct {
	root *html.Node

	mu        sync.Mutex
	selectors map[string]cascadia.Selector
	// values set on controls whose value is never rendered
	hidden map[*html.Node]string
}

var _ Document = (*HTMLDocument)(nil)

// New wraps an existing tree.
func New(root *html.Node) *HTMLDocument {
	return &HTMLDocument{
		root:      root,
		selectors: make(map[string]cascadia.Selector),
		hidden:    make(map[*html.Node]string),
	}
}

// Parse reads a full HTML document.
func Parse(r io.Reader) (*HTMLDocument, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("dom: parse html: %w", err)
	}
	return New(root), nil
}

// ParseString parses markup held in memory.
func ParseString(markup string) (*HTMLDocument, error) {
	return Parse(strings.NewReader(markup))
}

// Root returns the document node.
func (d *HTMLDocument) Root() *html.Node {
	if d == nil {
		return nil
	}
	return d.root
}

// Render writes the document as HTML.
func (d *HTMLDocument) Render(w io.Writer) error {
	if d == nil || d.root == nil {
		return fmt.Errorf("dom: document is empty")
	}
	if err := html.Render(w, d.root); err != nil {
		return fmt.Errorf("dom: render html: %w", err)
	}
	return nil
}

// String renders the document, returning an empty string on failure.
func (d *HTMLDocument) String() string {
	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		return ""
	}
	return buf.String()
}

// Query returns the first element matching selector.
func (d *HTMLDocument) Query(selector string) (*html.Node, error) {
	sel, err := d.compile(selector)
	if err != nil {
		return nil, err
	}
	node := sel.MatchFirst(d.root)
	if node == nil {
		return nil, formerrors.NotFound("dom.query", selector, "selector matched no element")
	}
	return node, nil
}

// QueryAll returns every element matching selector in document order.
func (d *HTMLDocument) QueryAll(selector string) ([]*html.Node, error) {
	sel, err := d.compile(selector)
	if err != nil {
		return nil, err
	}
	return sel.MatchAll(d.root), nil
}

// Resolve implements Document.
func (d *HTMLDocument) Resolve(ref Ref) (*html.Node, error) {
	switch r := ref.(type) {
	case nil:
		return nil, formerrors.InvalidArgument("dom.resolve", "", "reference is nil")
	case Selector:
		return d.Query(string(r))
	case ElementRef:
		if r.Node == nil {
			return nil, formerrors.InvalidArgument("dom.resolve", "", "element reference is nil")
		}
		if r.Node.Type != html.ElementNode {
			return nil, formerrors.InvalidArgument("dom.resolve", r.Node.Data, "node is not an element")
		}
		return r.Node, nil
	default:
		return nil, formerrors.InvalidArgument("dom.resolve", "", "unsupported reference %T", ref)
	}
}

// Fields implements Document.
func (d *HTMLDocument) Fields(container *html.Node) []Control {
	if container == nil {
		return nil
	}
	var out []Control
	walk(container, func(n *html.Node) {
		if n == container || n.Type != html.ElementNode {
			return
		}
		if _, ok := controlTags[n.DataAtom]; !ok {
			return
		}
		name := attr(n, "name")
		if name == "" {
			return
		}
		out = append(out, Control{
			Name: name,
			Kind: strings.ToUpper(n.Data),
			Node: n,
		})
	})
	return out
}

// Value implements Document. Values follow the browser's value property:
// inputs report their value attribute (checkboxes and radios default to
// "on"), textareas their text, selects the first selected option.
func (d *HTMLDocument) Value(field *html.Node) string {
	if field == nil || field.Type != html.ElementNode {
		return ""
	}
	switch field.DataAtom {
	case atom.Input:
		if value, ok := d.hidden[field]; ok {
			return value
		}
		if value, ok := lookupAttr(field, "value"); ok {
			return value
		}
		switch strings.ToLower(attr(field, "type")) {
		case "checkbox", "radio":
			return "on"
		}
		return ""
	case atom.Textarea, atom.Output:
		return textContent(field)
	case atom.Select:
		option := selectedOption(field)
		if option == nil {
			return ""
		}
		return optionValue(option)
	default:
		return attr(field, "value")
	}
}

// SetValue writes a submitted value back onto a control so the re-rendered
// document keeps what the user entered. Password and file inputs hold their
// value in memory only.
func (d *HTMLDocument) SetValue(field *html.Node, value string) {
	if field == nil || field.Type != html.ElementNode {
		return
	}
	switch field.DataAtom {
	case atom.Input:
		switch strings.ToLower(attr(field, "type")) {
		case "checkbox", "radio":
			if d.Value(field) == value {
				setAttr(field, "checked", "")
			} else {
				removeAttr(field, "checked")
			}
		case "password", "file":
			// kept off the markup
			d.hidden[field] = value
		default:
			setAttr(field, "value", value)
		}
	case atom.Textarea:
		d.SetText(field, value)
	case atom.Select:
		for _, option := range options(field) {
			if optionValue(option) == value {
				setAttr(option, "selected", "")
			} else {
				removeAttr(option, "selected")
			}
		}
	default:
		setAttr(field, "value", value)
	}
}

// Parent implements Document.
func (d *HTMLDocument) Parent(node *html.Node) *html.Node {
	if node == nil {
		return nil
	}
	return node.Parent
}

// CreateElement implements Document. Attributes are written in key order so
// rendered output is deterministic.
func (d *HTMLDocument) CreateElement(tag string, attrs map[string]string, style string) (*html.Node, error) {
	trimmed := strings.TrimSpace(tag)
	if !tagNamePattern.MatchString(trimmed) {
		return nil, formerrors.InvalidArgument("dom.create_element", tag, "not a renderable element name")
	}
	lower := strings.ToLower(trimmed)
	node := &html.Node{
		Type:     html.ElementNode,
		Data:     lower,
		DataAtom: atom.Lookup([]byte(lower)),
	}

	keys := make([]string, 0, len(attrs))
	for key := range attrs {
		if strings.TrimSpace(key) == "" {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		name := strings.ToLower(strings.TrimSpace(key))
		if name == "classname" {
			name = "class"
		}
		node.Attr = append(node.Attr, html.Attribute{Key: name, Val: attrs[key]})
	}
	if style = strings.TrimSpace(style); style != "" {
		setAttr(node, "style", style)
	}
	return node, nil
}

// Clone implements Document.
func (d *HTMLDocument) Clone(node *html.Node) *html.Node {
	return cloneNode(node)
}

// SetText implements Document.
func (d *HTMLDocument) SetText(node *html.Node, text string) {
	if node == nil {
		return
	}
	for child := node.FirstChild; child != nil; {
		next := child.NextSibling
		node.RemoveChild(child)
		child = next
	}
	node.AppendChild(&html.Node{Type: html.TextNode, Data: text})
}

// AppendChild implements Document.
func (d *HTMLDocument) AppendChild(container, child *html.Node) error {
	if container == nil || child == nil {
		return formerrors.InvalidArgument("dom.append_child", "", "container and child are required")
	}
	if container.Type != html.ElementNode && container.Type != html.DocumentNode {
		return formerrors.InvalidArgument("dom.append_child", container.Data, "container cannot hold children")
	}
	for ancestor := container; ancestor != nil; ancestor = ancestor.Parent {
		if ancestor == child {
			return formerrors.InvalidArgument("dom.append_child", child.Data, "child is an ancestor of container")
		}
	}
	if child.Parent != nil {
		child.Parent.RemoveChild(child)
	}
	container.AppendChild(child)
	return nil
}

// RemoveChild implements Document.
func (d *HTMLDocument) RemoveChild(container, child *html.Node) bool {
	if container == nil || child == nil || child.Parent != container {
		return false
	}
	container.RemoveChild(child)
	return true
}

func (d *HTMLDocument) compile(selector string) (cascadia.Selector, error) {
	trimmed := strings.TrimSpace(selector)
	if trimmed == "" {
		return nil, formerrors.InvalidArgument("dom.query", selector, "selector is empty")
	}
	if d == nil || d.root == nil {
		return nil, formerrors.InvalidArgument("dom.query", selector, "document is empty")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if sel, ok := d.selectors[trimmed]; ok {
		return sel, nil
	}
	sel, err := cascadia.Compile(trimmed)
	if err != nil {
		return nil, formerrors.InvalidArgument("dom.query", selector, "%v", err)
	}
	if d.selectors == nil {
		d.selectors = make(map[string]cascadia.Selector)
	}
	d.selectors[trimmed] = sel
	return sel, nil
}

func walk(node *html.Node, fn func(*html.Node)) {
	fn(node)
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		walk(child, fn)
	}
}

func cloneNode(node *html.Node) *html.Node {
	if node == nil {
		return nil
	}
	copied := &html.Node{
		Type:      node.Type,
		DataAtom:  node.DataAtom,
		Data:      node.Data,
		Namespace: node.Namespace,
	}
	if len(node.Attr) > 0 {
		copied.Attr = append([]html.Attribute(nil), node.Attr...)
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		copied.AppendChild(cloneNode(child))
	}
	return copied
}

func textContent(node *html.Node) string {
	var b strings.Builder
	walk(node, func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
	})
	return b.String()
}

func options(sel *html.Node) []*html.Node {
	var out []*html.Node
	walk(sel, func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Option {
			out = append(out, n)
		}
	})
	return out
}

func selectedOption(sel *html.Node) *html.Node {
	opts := options(sel)
	for _, option := range opts {
		if _, ok := lookupAttr(option, "selected"); ok {
			return option
		}
	}
	if _, multiple := lookupAttr(sel, "multiple"); multiple || len(opts) == 0 {
		return nil
	}
	return opts[0]
}

func optionValue(option *html.Node) string {
	if value, ok := lookupAttr(option, "value"); ok {
		return value
	}
	return strings.Join(strings.Fields(textContent(option)), " ")
}

func attr(node *html.Node, key string) string {
	value, _ := lookupAttr(node, key)
	return value
}

func lookupAttr(node *html.Node, key string) (string, bool) {
	for _, a := range node.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(node *html.Node, key, value string) {
	for idx, a := range node.Attr {
		if a.Namespace == "" && a.Key == key {
			node.Attr[idx].Val = value
			return
		}
	}
	node.Attr = append(node.Attr, html.Attribute{Key: key, Val: value})
}

func removeAttr(node *html.Node, key string) {
	out := node.Attr[:0]
	for _, a := range node.Attr {
		if a.Namespace == "" && a.Key == key {
			continue
		}
		out = append(out, a)
	}
	node.Attr = out
}

// InputType returns the lower-cased type of an input element, "text" when
// the attribute is missing, or "" for other elements.
func InputType(node *html.Node) string {
	if node == nil || node.DataAtom != atom.Input {
		return ""
	}
	if t := strings.ToLower(strings.TrimSpace(attr(node, "type"))); t != "" {
		return t
	}
	return "text"
}

// OptionValues lists the values of the options of a select element.
func OptionValues(sel *html.Node) []string {
	if sel == nil {
		return nil
	}
	opts := options(sel)
	out := make([]string, 0, len(opts))
	for _, option := range opts {
		out = append(out, optionValue(option))
	}
	return out
}

// Checked reports whether a checkbox or radio input carries the checked
// attribute.
func Checked(node *html.Node) bool {
	if node == nil {
		return false
	}
	_, ok := lookupAttr(node, "checked")
	return ok
}
