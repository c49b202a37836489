package xmldom

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"

	"ocahooks/internal/msgctl"
)

var bom = []byte{0xEF, 0xBB, 0xBF}

// ParseFile reads path and parses it. I/O errors are returned as is; syntax
// errors are recorded on the returned Document.
func ParseFile(path string) (*Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseBytes(content)
}

// ParseBytes builds the tree for content. A syntax error yields a placeholder
// Document with Err set, and the same error is returned.
func ParseBytes(content []byte) (*Document, error) {
	doc := &Document{}
	doc.FirstTag, doc.FirstTagLine = firstTag(content)

	base := 0
	body := content
	if bytes.HasPrefix(body, bom) {
		body = body[len(bom):]
		base = len(bom)
	}

	nodes, err := build(doc, body, base)
	if err != nil {
		var se *SyntaxError
		if errors.As(err, &se) {
			doc.ErrLine = se.Line
		}
		doc.Err = err
		return doc, err
	}
	doc.Nodes = nodes
	collectDisables(doc)
	return doc, nil
}

func build(doc *Document, body []byte, base int) ([]*Node, error) {
	dec := xml.NewDecoder(bytes.NewReader(body))
	dec.Strict = true
	dec.CharsetReader = func(_ string, r io.Reader) (io.Reader, error) { return r, nil }

	var (
		top   []*Node
		stack []*Node
		roots int
	)
	appendNode := func(n *Node) {
		n.doc = doc
		if len(stack) == 0 {
			n.index = len(top)
			top = append(top, n)
			return
		}
		parent := stack[len(stack)-1]
		n.Parent = parent
		n.index = len(parent.Children)
		parent.Children = append(parent.Children, n)
	}

	for {
		start := int(dec.InputOffset())
		line, _ := dec.InputPos()
		tok, err := dec.RawToken()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, asSyntaxError(err, line)
		}
		end := int(dec.InputOffset())
		endLine, _ := dec.InputPos()

		switch t := tok.(type) {
		case xml.StartElement:
			if len(stack) == 0 {
				roots++
				if roots > 1 {
					return nil, &SyntaxError{Line: line, Msg: "extra content at the end of the document"}
				}
			}
			n := &Node{
				Kind:   Element,
				Tag:    qualified(t.Name),
				Line:   line,
				Offset: base + start,
			}
			for _, a := range t.Attr {
				n.Attrs = append(n.Attrs, Attr{Name: qualified(a.Name), Value: a.Value})
			}
			appendNode(n)
			stack = append(stack, n)
		case xml.EndElement:
			if len(stack) == 0 {
				return nil, &SyntaxError{Line: line, Msg: fmt.Sprintf("unexpected end element </%s>", qualified(t.Name))}
			}
			open := stack[len(stack)-1]
			if name := qualified(t.Name); name != open.Tag {
				return nil, &SyntaxError{Line: line, Msg: fmt.Sprintf("element <%s> closed by </%s>", open.Tag, name)}
			}
			open.EndOffset = base + end
			open.EndLine = endLine
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) == 0 {
				if len(bytes.TrimSpace(t)) > 0 {
					return nil, &SyntaxError{Line: line, Msg: "content outside the root element"}
				}
				continue
			}
			appendNode(&Node{Kind: CharData, Text: string(t), Line: line, EndLine: endLine, Offset: base + start, EndOffset: base + end})
		case xml.Comment:
			appendNode(&Node{Kind: Comment, Text: string(t), Line: line, EndLine: endLine, Offset: base + start, EndOffset: base + end})
		case xml.ProcInst:
			if t.Target == "xml" {
				continue
			}
			appendNode(&Node{Kind: ProcInst, Tag: t.Target, Text: string(t.Inst), Line: line, EndLine: endLine, Offset: base + start, EndOffset: base + end})
		case xml.Directive:
			// DOCTYPE и прочее не нужны правилам
		}
	}

	if len(stack) > 0 {
		line, _ := dec.InputPos()
		return nil, &SyntaxError{Line: line, Msg: fmt.Sprintf("premature end of data, <%s> is not closed", stack[len(stack)-1].Tag)}
	}
	if roots == 0 {
		line, _ := dec.InputPos()
		return nil, &SyntaxError{Line: line, Msg: "document is empty"}
	}
	return top, nil
}

func asSyntaxError(err error, line int) error {
	var se *xml.SyntaxError
	if errors.As(err, &se) {
		return &SyntaxError{Line: se.Line, Msg: se.Msg}
	}
	return &SyntaxError{Line: line, Msg: err.Error()}
}

func qualified(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

// firstTag returns the XML declaration of the first non-blank line.
func firstTag(content []byte) (string, int) {
	content = bytes.TrimPrefix(content, bom)
	lineNo := 0
	for len(content) > 0 {
		lineNo++
		var line []byte
		if i := bytes.IndexByte(content, '\n'); i >= 0 {
			line, content = content[:i], content[i+1:]
		} else {
			line, content = content, nil
		}
		trimmed := bytes.TrimSpace(line)
		if len(trimmed) == 0 {
			continue
		}
		if !bytes.HasPrefix(trimmed, []byte("<?xml")) || (len(trimmed) > 5 && !isSpace(trimmed[5])) {
			return "", 0
		}
		if end := bytes.Index(trimmed, []byte("?>")); end >= 0 {
			trimmed = trimmed[:end+2]
		}
		return string(trimmed), lineNo
	}
	return "", 0
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\n'
}

// collectDisables reads "oca-hooks:disable=" comments.
//
//   - a comment right after an element on the element's start or end line
//     disables codes for that element;
//   - a top-level comment or the first child of the root disables codes for
//     the whole file.
func collectDisables(doc *Document) {
	root := doc.Root()
	var firstInRoot *Node
	if root != nil {
		if nodes := root.Nodes(); len(nodes) > 0 {
			firstInRoot = nodes[0]
		}
	}

	doc.Walk(func(n *Node) {
		if n.Kind != Comment {
			return
		}
		codes, deprecated, ok := msgctl.ParseDisableComment(n.Text)
		if !ok {
			return
		}
		if deprecated {
			doc.DeprecatedMarkers = append(doc.DeprecatedMarkers, n.Line)
		}
		if n.Parent == nil || n == firstInRoot {
			doc.FileDisabled = doc.FileDisabled.Union(codes)
			return
		}
		prev := n.PrevSibling()
		if prev == nil || prev.Kind != Element {
			return
		}
		if n.Line == prev.Line || n.Line == prev.EndLine {
			prev.disabled = prev.disabled.Union(codes)
		}
	})
}
