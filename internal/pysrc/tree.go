// Package pysrc wraps tree-sitter's Python grammar for the few things the
// linter needs from Python files: literal evaluation of manifests and shallow
// pattern matching over statements.
package pysrc

import (
	"context"
	"errors"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

var (
	// ErrSyntax is returned when the source does not parse cleanly.
	ErrSyntax = errors.New("invalid python syntax")
	// ErrNotLiteral is returned when an expression is not a plain literal.
	ErrNotLiteral = errors.New("not a python literal")
)

// Tree is a parsed Python file. Close releases the tree-sitter memory.
type Tree struct {
	Content []byte
	tree    *sitter.Tree
}

// Parse builds a syntax tree for content. A new parser is created per call,
// tree-sitter parsers are not safe for concurrent use.
func Parse(ctx context.Context, content []byte) (*Tree, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse failed: %w", err)
	}
	return &Tree{Content: content, tree: tree}, nil
}

func (t *Tree) Close() {
	if t != nil && t.tree != nil {
		t.tree.Close()
	}
}

// Root returns the module node.
func (t *Tree) Root() *sitter.Node {
	return t.tree.RootNode()
}

// HasError reports whether tree-sitter had to recover from a syntax error.
func (t *Tree) HasError() bool {
	root := t.Root()
	return root == nil || root.HasError()
}

// Text returns the source bytes of n.
func (t *Tree) Text(n *sitter.Node) string {
	return Text(n, t.Content)
}

// Text returns the source bytes of n.
func Text(n *sitter.Node, content []byte) string {
	if n == nil {
		return ""
	}
	return string(content[n.StartByte():n.EndByte()])
}

// Line returns the 1-based start line of n.
func Line(n *sitter.Node) int {
	return int(n.StartPoint().Row) + 1
}

// EndLine returns the 1-based line of the last byte of n.
func EndLine(n *sitter.Node) int {
	return int(n.EndPoint().Row) + 1
}

// NamedChildren lists named children skipping comments.
func NamedChildren(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	count := int(n.NamedChildCount())
	out := make([]*sitter.Node, 0, count)
	for i := 0; i < count; i++ {
		c := n.NamedChild(i)
		if c == nil || c.Type() == "comment" {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Walk visits n and its descendants depth-first. Returning false from fn
// skips the children of the node.
func Walk(n *sitter.Node, fn func(*sitter.Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		Walk(n.Child(i), fn)
	}
}

// Unwrap strips parenthesized expressions.
func Unwrap(n *sitter.Node) *sitter.Node {
	for n != nil && n.Type() == "parenthesized_expression" {
		inner := NamedChildren(n)
		if len(inner) != 1 {
			return n
		}
		n = inner[0]
	}
	return n
}
