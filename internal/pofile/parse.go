package pofile

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"
)

// SyntaxError reports a malformed catalog line.
type SyntaxError struct {
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("Syntax error in po file (line %d)", e.Line)
	}
	return fmt.Sprintf("Syntax error in po file (line %d): %s", e.Line, e.Msg)
}

// ParseFile reads and parses path.
func ParseFile(path string) (*Catalog, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(content)
}

type field int

const (
	fieldNone field = iota
	fieldCtxt
	fieldMsgid
	fieldPlural
	fieldMsgstr
	fieldMsgstrN
	fieldPrevious
)

type parser struct {
	cat *Catalog
	cur *Entry

	seenMsgid  bool
	seenMsgstr bool
	field      field
	pluralIdx  int
}

// Parse parses a catalog. Errors are *SyntaxError except for invalid UTF-8.
func Parse(content []byte) (*Catalog, error) {
	if !utf8.Valid(content) {
		return nil, fmt.Errorf("'utf-8' codec can't decode the file: invalid continuation byte")
	}
	text := strings.TrimPrefix(string(content), "\ufeff")
	p := &parser{cat: &Catalog{}}
	for i, raw := range strings.Split(text, "\n") {
		if err := p.line(i+1, strings.TrimRight(raw, "\r")); err != nil {
			return nil, err
		}
	}
	p.flush()
	return p.cat, nil
}

func (p *parser) begin(line int) {
	p.flush()
	p.cur = &Entry{Line: line}
}

func (p *parser) flush() {
	e := p.cur
	p.cur = nil
	p.seenMsgid, p.seenMsgstr = false, false
	p.field = fieldNone
	if e == nil || e.MsgidLine == 0 {
		// одни комментарии без msgid
		return
	}
	if p.cat.Header == nil && len(p.cat.Entries) == 0 && e.Msgid == "" && !e.HasCtxt && !e.Obsolete {
		p.cat.Header = e
		return
	}
	p.cat.Entries = append(p.cat.Entries, e)
}

func (p *parser) line(n int, raw string) error {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	obsolete := false
	if strings.HasPrefix(s, "#~") {
		obsolete = true
		s = strings.TrimSpace(s[2:])
		if s == "" {
			return nil
		}
	}

	if obsolete && strings.HasPrefix(s, "|") {
		s = "#" + s
	}
	if strings.HasPrefix(s, "#") {
		return p.comment(n, s)
	}

	if s[0] == '"' {
		return p.continuation(n, s)
	}

	keyword, rest := s, ""
	if idx := strings.IndexAny(s, " \t\""); idx > 0 {
		keyword, rest = s[:idx], s[idx:]
	}
	value, err := unquote(strings.TrimSpace(rest))
	if err != nil {
		return &SyntaxError{Line: n, Msg: err.Error()}
	}

	switch {
	case keyword == "msgctxt":
		if p.cur == nil || p.seenMsgstr || p.seenMsgid {
			p.begin(n)
		}
		p.cur.MsgCtxt, p.cur.HasCtxt = value, true
		p.field = fieldCtxt
	case keyword == "msgid":
		switch {
		case p.cur == nil || p.seenMsgstr:
			p.begin(n)
		case p.seenMsgid:
			return &SyntaxError{Line: n}
		}
		p.cur.Msgid = value
		p.cur.MsgidLine = n
		p.seenMsgid = true
		p.field = fieldMsgid
	case keyword == "msgid_plural":
		if !p.seenMsgid || p.seenMsgstr {
			return &SyntaxError{Line: n}
		}
		p.cur.MsgidPlural = value
		p.field = fieldPlural
	case keyword == "msgstr":
		if !p.seenMsgid {
			return &SyntaxError{Line: n}
		}
		p.cur.Msgstr = value
		p.seenMsgstr = true
		p.field = fieldMsgstr
	case strings.HasPrefix(keyword, "msgstr[") && strings.HasSuffix(keyword, "]"):
		if !p.seenMsgid {
			return &SyntaxError{Line: n}
		}
		idx, err := strconv.Atoi(keyword[len("msgstr[") : len(keyword)-1])
		if err != nil || idx < 0 {
			return &SyntaxError{Line: n}
		}
		if p.cur.MsgstrPlural == nil {
			p.cur.MsgstrPlural = map[int]string{}
		}
		p.cur.MsgstrPlural[idx] = value
		p.pluralIdx = idx
		p.seenMsgstr = true
		p.field = fieldMsgstrN
	default:
		return &SyntaxError{Line: n}
	}
	if obsolete {
		p.cur.Obsolete = true
	}
	return nil
}

func (p *parser) comment(n int, s string) error {
	if p.cur == nil || p.seenMsgstr {
		p.begin(n)
	} else if p.seenMsgid {
		// комментарий между msgid и msgstr
		return &SyntaxError{Line: n}
	}
	e := p.cur
	p.field = fieldNone
	switch {
	case strings.HasPrefix(s, "#,"):
		for _, f := range strings.Split(s[2:], ",") {
			if f = strings.TrimSpace(f); f != "" {
				e.Flags = append(e.Flags, f)
			}
		}
	case strings.HasPrefix(s, "#:"):
		e.Occurrences = append(e.Occurrences, strings.Fields(s[2:])...)
	case strings.HasPrefix(s, "#."):
		if e.Comment != "" {
			e.Comment += "\n"
		}
		e.Comment += strings.TrimSpace(s[2:])
	case strings.HasPrefix(s, "#|"):
		e.Previous = append(e.Previous, strings.TrimSpace(s[2:]))
		p.field = fieldPrevious
	default:
		if e.TComment != "" {
			e.TComment += "\n"
		}
		e.TComment += strings.TrimSpace(s[1:])
	}
	return nil
}

func (p *parser) continuation(n int, s string) error {
	value, err := unquote(s)
	if err != nil {
		return &SyntaxError{Line: n, Msg: err.Error()}
	}
	if p.cur == nil {
		return &SyntaxError{Line: n}
	}
	e := p.cur
	switch p.field {
	case fieldCtxt:
		e.MsgCtxt += value
	case fieldMsgid:
		e.Msgid += value
	case fieldPlural:
		e.MsgidPlural += value
	case fieldMsgstr:
		e.Msgstr += value
	case fieldMsgstrN:
		e.MsgstrPlural[p.pluralIdx] += value
	default:
		return &SyntaxError{Line: n}
	}
	return nil
}

// unquote decodes a C-style quoted PO string.
func unquote(s string) (string, error) {
	if len(s) < 2 || s[0] != '"' {
		return "", fmt.Errorf("string literal expected")
	}
	var b strings.Builder
	for i := 1; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"':
			if strings.TrimSpace(s[i+1:]) != "" {
				return "", fmt.Errorf("unescaped double quote found")
			}
			return b.String(), nil
		case '\\':
			i++
			if i >= len(s) {
				return "", fmt.Errorf("unterminated escape")
			}
			switch s[i] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case 'a':
				b.WriteByte('\a')
			case 'b':
				b.WriteByte('\b')
			case 'f':
				b.WriteByte('\f')
			case 'v':
				b.WriteByte('\v')
			case '\\', '"', '\'', '?':
				b.WriteByte(s[i])
			default:
				b.WriteByte('\\')
				b.WriteByte(s[i])
			}
		default:
			b.WriteByte(c)
		}
	}
	return "", fmt.Errorf("unterminated string")
}
