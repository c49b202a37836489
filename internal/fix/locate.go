package fix

import (
	"bytes"
	"errors"
	"fmt"

	"ocahooks/internal/xmldom"
)

var (
	// ErrNodeNotFound is returned when no opening tag matches the node.
	ErrNodeNotFound = errors.New("node not found in source")
	// ErrUnterminated is returned when the element end cannot be found.
	ErrUnterminated = errors.New("element is not terminated")
)

// attrLookahead is how many lines after a candidate are searched for the
// first attribute.
const attrLookahead = 4

// Partition splits file content around one element.
// Before+Node+After is always the original content.
type Partition struct {
	Before []byte
	Node   []byte
	After  []byte

	Start     int
	End       int
	StartLine int
	EndLine   int
}

// Replace returns a fresh buffer with node in place of the located element.
func (p Partition) Replace(node []byte) []byte {
	out := make([]byte, 0, len(p.Before)+len(node)+len(p.After))
	out = append(out, p.Before...)
	out = append(out, node...)
	return append(out, p.After...)
}

type candidate struct {
	line int
	off  int
}

// Locate finds the raw bytes of n inside content using the line numbers of the
// tree, never its serialization.
//
// The search window starts one line after the previous sibling (the parent
// line without one, line 2 for the first top-level node) and ends at n.Line.
// Every "<tag" followed by a tag boundary in the window is a candidate; ties
// are broken by the decoder offset when it points at a candidate, then by the
// first attribute, then by the recorded line, then by taking the last
// candidate.
func Locate(content []byte, n *xmldom.Node) (Partition, error) {
	if n == nil || n.Kind != xmldom.Element {
		return Partition{}, ErrNodeNotFound
	}
	lines := splitLines(content)
	first, last := searchWindow(n)
	if first > last {
		first = last
	}
	if first < 1 {
		first = 1
	}
	if last > len(lines) {
		last = len(lines)
	}

	// кандидаты внутри предыдущего соседа не подходят
	minOff := 0
	if prev := n.PrevSibling(); prev != nil && prev.EndOffset > 0 {
		minOff = prev.EndOffset
		if prev.Kind == xmldom.Element && prev.EndLine > first && prev.EndLine <= last {
			first = prev.EndLine
		}
	}
	// a same-tag parent on the same line is never the node itself
	if par := n.Parent; par != nil && hasOffsets(par) {
		minOff = max(minOff, par.Offset+1)
	}

	pattern := []byte("<" + n.Tag)
	var cands []candidate
	for ln := first; ln <= last; ln++ {
		l := lines[ln-1]
		for from := 0; ; {
			i := bytes.Index(l.text[from:], pattern)
			if i < 0 {
				break
			}
			col := from + i
			from = col + 1
			if !tagBoundary(l.text, col+len(pattern)) {
				continue
			}
			if l.start+col < minOff {
				continue
			}
			cands = append(cands, candidate{line: ln, off: l.start + col})
		}
	}
	if len(cands) == 0 {
		return Partition{}, fmt.Errorf("%w: <%s> at line %d", ErrNodeNotFound, n.Tag, n.Line)
	}

	best := pick(content, lines, cands, n)
	end, err := elementEnd(content, best.off, n.Tag)
	if err != nil {
		return Partition{}, fmt.Errorf("<%s> at line %d: %w", n.Tag, best.line, err)
	}
	return Partition{
		Before:    content[:best.off],
		Node:      content[best.off:end],
		After:     content[end:],
		Start:     best.off,
		End:       end,
		StartLine: best.line,
		EndLine:   best.line + bytes.Count(content[best.off:end], []byte{'\n'}),
	}, nil
}

func searchWindow(n *xmldom.Node) (int, int) {
	switch {
	case n.PrevSibling() != nil:
		return n.PrevSibling().Line + 1, n.Line
	case n.Parent != nil:
		// дочерний тег может стоять на строке родителя
		return n.Parent.Line, n.Line
	default:
		return 2, n.Line
	}
}

func pick(content []byte, lines []line, cands []candidate, n *xmldom.Node) candidate {
	if len(cands) == 1 {
		return cands[0]
	}
	if hasOffsets(n) {
		for _, c := range cands {
			if c.off == n.Offset {
				return c
			}
		}
	}
	if len(n.Attrs) > 0 {
		a := n.Attrs[0]
		exact := [][]byte{
			[]byte(a.Name + `="` + a.Value + `"`),
			[]byte(a.Name + `='` + a.Value + `'`),
		}
		loose := []byte(a.Name + "=")
		for _, c := range cands {
			text := lookahead(content, lines, c)
			if bytes.Contains(text, exact[0]) || bytes.Contains(text, exact[1]) {
				return c
			}
		}
		for _, c := range cands {
			if bytes.Contains(lookahead(content, lines, c), loose) {
				return c
			}
		}
	}
	var onLine []candidate
	for _, c := range cands {
		if c.line == n.Line {
			onLine = append(onLine, c)
		}
	}
	if len(onLine) > 0 {
		return onLine[len(onLine)-1]
	}
	return cands[len(cands)-1]
}

// hasOffsets reports whether n carries decoder offsets into the content it
// was parsed from.
func hasOffsets(n *xmldom.Node) bool { return n.EndOffset > n.Offset }

// lookahead returns the text from the candidate to the end of the line plus
// the next attrLookahead lines.
func lookahead(content []byte, lines []line, c candidate) []byte {
	lastLine := min(c.line+attrLookahead, len(lines))
	l := lines[lastLine-1]
	return content[c.off : l.start+len(l.text)]
}

func tagBoundary(text []byte, pos int) bool {
	if pos >= len(text) {
		return true
	}
	switch text[pos] {
	case ' ', '\t', '>', '/', '\n', '\r':
		return true
	}
	return false
}

// openTagEnd returns the offset just past the '>' closing the tag opened at
// start, honouring quoted attribute values.
func openTagEnd(content []byte, start int) (end int, selfClosed bool, ok bool) {
	var quote byte
	for i := start + 1; i < len(content); i++ {
		c := content[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '>':
			return i + 1, content[i-1] == '/', true
		}
	}
	return 0, false, false
}

// elementEnd finds the end of the element opened at start, counting nested
// elements with the same tag.
func elementEnd(content []byte, start int, tag string) (int, error) {
	end, selfClosed, ok := openTagEnd(content, start)
	if !ok {
		return 0, ErrUnterminated
	}
	if selfClosed {
		return end, nil
	}
	open := []byte("<" + tag)
	closing := []byte("</" + tag)
	depth := 1
	for i := end; i < len(content); {
		j := bytes.IndexByte(content[i:], '<')
		if j < 0 {
			break
		}
		i += j
		rest := content[i:]
		switch {
		case bytes.HasPrefix(rest, []byte("<!--")):
			k := bytes.Index(rest, []byte("-->"))
			if k < 0 {
				return 0, ErrUnterminated
			}
			i += k + 3
		case bytes.HasPrefix(rest, []byte("<![CDATA[")):
			k := bytes.Index(rest, []byte("]]>"))
			if k < 0 {
				return 0, ErrUnterminated
			}
			i += k + 3
		case bytes.HasPrefix(rest, closing) && closeBoundary(rest, len(closing)):
			k := bytes.IndexByte(rest, '>')
			if k < 0 {
				return 0, ErrUnterminated
			}
			i += k + 1
			depth--
			if depth == 0 {
				return i, nil
			}
		case bytes.HasPrefix(rest, open) && tagBoundary(rest, len(open)):
			e, sc, ok := openTagEnd(content, i)
			if !ok {
				return 0, ErrUnterminated
			}
			if !sc {
				depth++
			}
			i = e
		default:
			i++
		}
	}
	return 0, ErrUnterminated
}

func closeBoundary(text []byte, pos int) bool {
	if pos >= len(text) {
		return false
	}
	switch text[pos] {
	case '>', ' ', '\t', '\n', '\r':
		return true
	}
	return false
}

type line struct {
	start int
	text  []byte // без перевода строки
}

func splitLines(content []byte) []line {
	var out []line
	start := 0
	for start <= len(content) {
		i := bytes.IndexByte(content[start:], '\n')
		if i < 0 {
			out = append(out, line{start: start, text: content[start:]})
			break
		}
		out = append(out, line{start: start, text: content[start : start+i]})
		start += i + 1
	}
	return out
}
