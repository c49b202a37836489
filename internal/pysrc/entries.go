package pysrc

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// Entry is one key/value pair of a dict literal with its nodes, for fixes
// that need source spans.
type Entry struct {
	Key       string
	StringKey bool
	KeyNode   *sitter.Node
	Value     *sitter.Node
	Pair      *sitter.Node
}

// DictEntries lists the pairs of a dictionary node in source order.
func DictEntries(n *sitter.Node, content []byte) []Entry {
	n = Unwrap(n)
	if n == nil || n.Type() != "dictionary" {
		return nil
	}
	var out []Entry
	for _, c := range NamedChildren(n) {
		if c.Type() != "pair" {
			continue
		}
		e := Entry{Pair: c, KeyNode: c.ChildByFieldName("key"), Value: c.ChildByFieldName("value")}
		if v, err := Literal(e.KeyNode, content); err == nil {
			if s, ok := v.(string); ok {
				e.Key, e.StringKey = s, true
			}
		}
		out = append(out, e)
	}
	return out
}

// TopExpression returns the expression of a file made of a single expression
// statement, or nil.
func TopExpression(t *Tree) *sitter.Node {
	stmts := NamedChildren(t.Root())
	if len(stmts) != 1 || stmts[0].Type() != "expression_statement" {
		return nil
	}
	exprs := NamedChildren(stmts[0])
	if len(exprs) != 1 {
		return nil
	}
	return exprs[0]
}

// RemovalSpan returns the byte range to delete for removing n from a
// comma separated container: the node, its trailing comma and the spaces
// after it. When that leaves the line blank the whole line goes.
func RemovalSpan(content []byte, n *sitter.Node) (int, int) {
	start, end := int(n.StartByte()), int(n.EndByte())
	if next := n.NextSibling(); next != nil && next.Type() == "," {
		end = int(next.EndByte())
	}
	for end < len(content) && (content[end] == ' ' || content[end] == '\t') {
		end++
	}
	lineStart := start
	for lineStart > 0 && (content[lineStart-1] == ' ' || content[lineStart-1] == '\t') {
		lineStart--
	}
	atLineStart := lineStart == 0 || content[lineStart-1] == '\n'
	atLineEnd := end == len(content) || content[end] == '\n' || content[end] == '\r'
	if atLineStart && atLineEnd {
		start = lineStart
		if end < len(content) && content[end] == '\r' {
			end++
		}
		if end < len(content) && content[end] == '\n' {
			end++
		}
	}
	return start, end
}
