// Package pyfmt checks that a translated string accepts the same dummy
// arguments as its source under Python printf (%) and str.format rules.
package pyfmt

import (
	"fmt"
	"strings"
)

// Kind is the Python type of a dummy argument.
type Kind int

const (
	KindInt Kind = iota
	KindStr
	KindDict
	KindMethod
)

func (k Kind) typeName() string {
	switch k {
	case KindStr:
		return "str"
	case KindDict:
		return "dict"
	case KindMethod:
		return "builtin_function_or_method"
	default:
		return "int"
	}
}

// PyError mirrors a Python exception: repr gives TypeError('...').
type PyError struct {
	Type string
	Msg  string
}

func (e *PyError) Error() string {
	return e.Type + "(" + pyRepr(e.Msg) + ")"
}

func typeErr(format string, args ...any) *PyError {
	return &PyError{Type: "TypeError", Msg: fmt.Sprintf(format, args...)}
}

func valueErr(format string, args ...any) *PyError {
	return &PyError{Type: "ValueError", Msg: fmt.Sprintf(format, args...)}
}

func keyErr(key string) *PyError {
	return &PyError{Type: "KeyError", Msg: key}
}

func indexErr(format string, args ...any) *PyError {
	return &PyError{Type: "IndexError", Msg: fmt.Sprintf(format, args...)}
}

func attrErr(format string, args ...any) *PyError {
	return &PyError{Type: "AttributeError", Msg: fmt.Sprintf(format, args...)}
}

// pyRepr quotes s the way Python repr() does for str.
func pyRepr(s string) string {
	quote := byte('\'')
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		quote = '"'
	}
	var b strings.Builder
	b.WriteByte(quote)
	for _, r := range s {
		switch {
		case r == '\\':
			b.WriteString(`\\`)
		case r == rune(quote):
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\t':
			b.WriteString(`\t`)
		case r == '\r':
			b.WriteString(`\r`)
		case r < 0x20 || r == 0x7f:
			fmt.Fprintf(&b, `\x%02x`, r)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte(quote)
	return b.String()
}
