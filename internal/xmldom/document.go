// Package xmldom builds a small position-aware XML tree.
//
// Every node remembers the line and the raw byte range it came from, comments
// are kept as nodes and attribute order is preserved, so callers can map nodes
// back to source bytes for reporting and for in-place edits.
package xmldom

import (
	"fmt"

	"ocahooks/internal/msgctl"
)

// Document is the parsed state of one XML file.
// On a syntax error Nodes is empty and Err is set; header fields are filled
// either way since they are read from raw bytes.
type Document struct {
	Nodes []*Node

	Err     error
	ErrLine int

	// FirstTag is the raw "<?xml ...?>" declaration when the first non-blank
	// line starts with it, "" otherwise.
	FirstTag     string
	FirstTagLine int

	FileDisabled      msgctl.Set
	DeprecatedMarkers []int
}

// SyntaxError reports a malformed document.
type SyntaxError struct {
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// Root returns the root element or nil for a placeholder document.
func (d *Document) Root() *Node {
	if d == nil {
		return nil
	}
	for _, n := range d.Nodes {
		if n.Kind == Element {
			return n
		}
	}
	return nil
}

// Walk visits every node in document order.
func (d *Document) Walk(fn func(*Node)) {
	if d == nil {
		return
	}
	for _, n := range d.Nodes {
		n.Walk(fn)
	}
}

// Find returns every element of the document, root included, whose tag is one
// of tags. No tags matches every element.
func (d *Document) Find(tags ...string) []*Node {
	root := d.Root()
	if root == nil {
		return nil
	}
	match := len(tags) == 0
	for _, t := range tags {
		if root.Tag == t {
			match = true
		}
	}
	var out []*Node
	if match {
		out = append(out, root)
	}
	return append(out, root.Find(tags...)...)
}

// Disabled returns the codes disabled for n: file-wide ones plus the ones
// attached to n itself.
func (d *Document) Disabled(n *Node) msgctl.Set {
	if d == nil {
		return nil
	}
	local := n.Disabled()
	switch {
	case local.Len() == 0:
		return d.FileDisabled
	case d.FileDisabled.Len() == 0:
		return local
	default:
		return d.FileDisabled.Union(local)
	}
}
