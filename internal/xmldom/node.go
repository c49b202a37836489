package xmldom

import (
	"strings"

	"ocahooks/internal/msgctl"
)

// Kind classifies DOM nodes.
type Kind uint8

const (
	Element Kind = iota + 1
	Comment
	ProcInst
	CharData
)

func (k Kind) String() string {
	switch k {
	case Element:
		return "element"
	case Comment:
		return "comment"
	case ProcInst:
		return "procinst"
	case CharData:
		return "chardata"
	default:
		return "unknown"
	}
}

// Attr keeps the attribute as written, prefix included ("t-att-class", "xml:space").
type Attr struct {
	Name  string
	Value string
}

// Node is one token of the document tree.
// Line is the 1-based line of the first byte; Offset/EndOffset are raw byte
// offsets into the parsed content, EndOffset exclusive.
type Node struct {
	Kind      Kind
	Tag       string
	Attrs     []Attr
	Text      string
	Line      int
	EndLine   int
	Offset    int
	EndOffset int
	Parent    *Node
	Children  []*Node

	doc      *Document
	index    int
	disabled msgctl.Set
}

// Get returns the attribute value and whether it is present.
func (n *Node) Get(name string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Attr returns the attribute value or "".
func (n *Node) Attr(name string) string {
	v, _ := n.Get(name)
	return v
}

func (n *Node) Has(name string) bool {
	_, ok := n.Get(name)
	return ok
}

// AttrIndex returns the position of name among the attributes, or -1.
func (n *Node) AttrIndex(name string) int {
	for i, a := range n.Attrs {
		if a.Name == name {
			return i
		}
	}
	return -1
}

// Elements returns the element children.
func (n *Node) Elements() []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Kind == Element {
			out = append(out, c)
		}
	}
	return out
}

// Nodes returns the children that are not character data (elements, comments,
// processing instructions).
func (n *Node) Nodes() []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Kind != CharData {
			out = append(out, c)
		}
	}
	return out
}

// Child returns the element children with the given tag.
func (n *Node) Child(tag string) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Kind == Element && c.Tag == tag {
			out = append(out, c)
		}
	}
	return out
}

// Find returns descendants (not n itself) whose tag is one of tags, in
// document order. No tags matches every element.
func (n *Node) Find(tags ...string) []*Node {
	var out []*Node
	n.walk(func(d *Node) {
		if d == n || d.Kind != Element {
			return
		}
		if len(tags) == 0 {
			out = append(out, d)
			return
		}
		for _, t := range tags {
			if d.Tag == t {
				out = append(out, d)
				return
			}
		}
	})
	return out
}

// Walk visits n and its descendants in document order.
func (n *Node) Walk(fn func(*Node)) {
	n.walk(fn)
}

func (n *Node) walk(fn func(*Node)) {
	if n == nil {
		return
	}
	fn(n)
	for _, c := range n.Children {
		c.walk(fn)
	}
}

func (n *Node) siblings() []*Node {
	switch {
	case n == nil:
		return nil
	case n.Parent != nil:
		return n.Parent.Children
	case n.doc != nil:
		return n.doc.Nodes
	default:
		return nil
	}
}

// PrevSiblingElement returns the previous element sibling or nil.
func (n *Node) PrevSiblingElement() *Node {
	sib := n.siblings()
	for i := n.index - 1; i >= 0; i-- {
		if sib[i].Kind == Element {
			return sib[i]
		}
	}
	return nil
}

// PrevSibling returns the previous non character-data sibling or nil.
// Top-level comments and processing instructions are siblings of the root.
func (n *Node) PrevSibling() *Node {
	sib := n.siblings()
	for i := n.index - 1; i >= 0; i-- {
		if sib[i].Kind != CharData {
			return sib[i]
		}
	}
	return nil
}

// NextSibling returns the next non character-data sibling or nil.
func (n *Node) NextSibling() *Node {
	sib := n.siblings()
	for i := n.index + 1; i < len(sib); i++ {
		if sib[i].Kind != CharData {
			return sib[i]
		}
	}
	return nil
}

// ClassTokens splits the class attribute on whitespace.
func (n *Node) ClassTokens() []string {
	return strings.Fields(n.Attr("class"))
}

// HasClass reports whether token is one of the class tokens.
func (n *Node) HasClass(token string) bool {
	for _, c := range n.ClassTokens() {
		if c == token {
			return true
		}
	}
	return false
}

// LeadingText is the character data before the first non-text child.
func (n *Node) LeadingText() string {
	var b strings.Builder
	for _, c := range n.Children {
		if c.Kind != CharData {
			break
		}
		b.WriteString(c.Text)
	}
	return b.String()
}

// TextContent concatenates every character data below n.
func (n *Node) TextContent() string {
	var b strings.Builder
	n.walk(func(d *Node) {
		if d.Kind == CharData {
			b.WriteString(d.Text)
		}
	})
	return b.String()
}

// Path renders the element chain from the root, e.g. "odoo/record/field".
func (n *Node) Path() string {
	var parts []string
	for cur := n; cur != nil && cur.Kind == Element; cur = cur.Parent {
		parts = append(parts, cur.Tag)
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "/")
}

// Disabled returns the codes disabled for this element by an attached comment.
func (n *Node) Disabled() msgctl.Set {
	if n == nil {
		return nil
	}
	return n.disabled
}
