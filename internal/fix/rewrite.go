package fix

import (
	"bytes"
	"strings"
)

// Rewriter turns an element's raw bytes into new bytes. ok=false means the
// expected pattern was not found and the node must be left untouched.
type Rewriter func(node []byte) (out []byte, ok bool)

// attrSpan is the byte range of one attribute inside an opening tag.
// textStart..textEnd covers `name="value"`, valStart..valEnd the value
// without quotes.
type attrSpan struct {
	name      string
	textStart int
	textEnd   int
	valStart  int
	valEnd    int
	quote     byte
}

type openTag struct {
	attrs []attrSpan
	// end is the offset past '>' of the opening tag; tail is where the
	// whitespace before '>' or '/>' starts.
	end        int
	tail       int
	selfClosed bool
}

// parseOpenTag scans the opening tag at the start of node. It only accepts
// well-formed `name="value"` / `name='value'` attributes.
func parseOpenTag(node []byte) (openTag, bool) {
	var t openTag
	if len(node) < 2 || node[0] != '<' {
		return t, false
	}
	i := 1
	for i < len(node) && !isTagSpace(node[i]) && node[i] != '>' && node[i] != '/' {
		i++
	}
	for {
		ws := i
		for i < len(node) && isTagSpace(node[i]) {
			i++
		}
		if i >= len(node) {
			return t, false
		}
		switch node[i] {
		case '>':
			t.tail, t.end = ws, i+1
			return t, true
		case '/':
			if i+1 < len(node) && node[i+1] == '>' {
				t.tail, t.end, t.selfClosed = ws, i+2, true
				return t, true
			}
			return t, false
		}
		if i == ws {
			// атрибут без разделителя
			return t, false
		}
		nameStart := i
		for i < len(node) && node[i] != '=' && !isTagSpace(node[i]) && node[i] != '>' {
			i++
		}
		name := string(node[nameStart:i])
		for i < len(node) && isTagSpace(node[i]) {
			i++
		}
		if i >= len(node) || node[i] != '=' || name == "" {
			return t, false
		}
		i++
		for i < len(node) && isTagSpace(node[i]) {
			i++
		}
		if i >= len(node) || (node[i] != '"' && node[i] != '\'') {
			return t, false
		}
		q := node[i]
		valStart := i + 1
		k := bytes.IndexByte(node[valStart:], q)
		if k < 0 {
			return t, false
		}
		valEnd := valStart + k
		i = valEnd + 1
		t.attrs = append(t.attrs, attrSpan{
			name:      name,
			textStart: nameStart,
			textEnd:   i,
			valStart:  valStart,
			valEnd:    valEnd,
			quote:     q,
		})
	}
}

func isTagSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func (t openTag) index(name string) int {
	for i, a := range t.attrs {
		if a.name == name {
			return i
		}
	}
	return -1
}

// MoveAttrFirst moves attr to the first attribute slot. Separators between
// slots stay where they are, only the attribute texts are permuted.
func MoveAttrFirst(node []byte, attr string) ([]byte, bool) {
	t, ok := parseOpenTag(node)
	if !ok {
		return nil, false
	}
	idx := t.index(attr)
	if idx <= 0 {
		return nil, false
	}
	order := make([]attrSpan, 0, len(t.attrs))
	order = append(order, t.attrs[idx])
	order = append(order, t.attrs[:idx]...)
	order = append(order, t.attrs[idx+1:]...)

	var b bytes.Buffer
	b.Grow(len(node))
	b.Write(node[:t.attrs[0].textStart])
	for i, a := range order {
		b.Write(node[a.textStart:a.textEnd])
		if i+1 < len(t.attrs) {
			b.Write(node[t.attrs[i].textEnd:t.attrs[i+1].textStart])
		}
	}
	b.Write(node[t.attrs[len(t.attrs)-1].textEnd:])
	return b.Bytes(), true
}

// SetAttrValue replaces the value of attr keeping its quote style.
func SetAttrValue(node []byte, attr, value string) ([]byte, bool) {
	t, ok := parseOpenTag(node)
	if !ok {
		return nil, false
	}
	idx := t.index(attr)
	if idx < 0 {
		return nil, false
	}
	a := t.attrs[idx]
	escaped := escapeAttr(value, a.quote)
	out := make([]byte, 0, len(node)+len(escaped))
	out = append(out, node[:a.valStart]...)
	out = append(out, escaped...)
	return append(out, node[a.valEnd:]...), true
}

// TextToEval turns `<field name="x">True</field>` into
// `<field name="x" eval="True" />`. The element must hold plain text only.
func TextToEval(node []byte, attr string) ([]byte, bool) {
	t, ok := parseOpenTag(node)
	if !ok || t.selfClosed || t.index(attr) >= 0 {
		return nil, false
	}
	closeAt := bytes.LastIndex(node, []byte("</"))
	if closeAt < t.end || !bytes.HasSuffix(bytes.TrimRight(node, " \t\r\n"), []byte(">")) {
		return nil, false
	}
	inner := node[t.end:closeAt]
	if bytes.ContainsAny(inner, "<&") {
		return nil, false
	}
	value := strings.TrimSpace(string(inner))
	if value == "" {
		return nil, false
	}
	out := make([]byte, 0, t.tail+len(attr)+len(value)+8)
	out = append(out, node[:t.tail]...)
	out = append(out, ' ')
	out = append(out, attr...)
	out = append(out, `="`...)
	out = append(out, escapeAttr(value, '"')...)
	out = append(out, `" />`...)
	return out, true
}

func escapeAttr(v string, quote byte) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;")
	v = r.Replace(v)
	if quote == '\'' {
		return strings.ReplaceAll(v, "'", "&apos;")
	}
	return strings.ReplaceAll(v, `"`, "&quot;")
}
