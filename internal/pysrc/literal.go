package pysrc

import (
	"context"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Dict is an ordered Python dict literal.
type Dict struct {
	Keys   []any
	Values []any
}

func (d *Dict) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Keys)
}

// Get looks up a string key.
func (d *Dict) Get(key string) (any, bool) {
	if d == nil {
		return nil, false
	}
	for i := len(d.Keys) - 1; i >= 0; i-- {
		if k, ok := d.Keys[i].(string); ok && k == key {
			return d.Values[i], true
		}
	}
	return nil, false
}

// Map returns the string-keyed entries; later duplicates win like in Python.
func (d *Dict) Map() map[string]any {
	out := make(map[string]any, d.Len())
	if d == nil {
		return out
	}
	for i, k := range d.Keys {
		if s, ok := k.(string); ok {
			out[s] = d.Values[i]
		}
	}
	return out
}

// Tuple distinguishes tuples from lists.
type Tuple []any

// ParseLiteral parses content as a file holding a single literal expression,
// the shape of an Odoo manifest. Comments around it are allowed.
func ParseLiteral(ctx context.Context, content []byte) (any, error) {
	tree, err := Parse(ctx, content)
	if err != nil {
		return nil, err
	}
	defer tree.Close()
	if tree.HasError() {
		return nil, ErrSyntax
	}
	stmts := NamedChildren(tree.Root())
	if len(stmts) != 1 || stmts[0].Type() != "expression_statement" {
		return nil, fmt.Errorf("%w: expected a single expression", ErrNotLiteral)
	}
	exprs := NamedChildren(stmts[0])
	if len(exprs) != 1 {
		return nil, fmt.Errorf("%w: expected a single expression", ErrNotLiteral)
	}
	return Literal(exprs[0], content)
}

// Literal evaluates a literal expression node without executing anything.
func Literal(n *sitter.Node, content []byte) (any, error) {
	if n == nil {
		return nil, ErrNotLiteral
	}
	switch n.Type() {
	case "dictionary":
		d := &Dict{}
		for _, c := range NamedChildren(n) {
			if c.Type() != "pair" {
				return nil, fmt.Errorf("%w: %s in dict", ErrNotLiteral, c.Type())
			}
			k, err := Literal(c.ChildByFieldName("key"), content)
			if err != nil {
				return nil, err
			}
			v, err := Literal(c.ChildByFieldName("value"), content)
			if err != nil {
				return nil, err
			}
			d.Keys = append(d.Keys, k)
			d.Values = append(d.Values, v)
		}
		return d, nil
	case "list", "set":
		return sequence(n, content)
	case "tuple":
		items, err := sequence(n, content)
		if err != nil {
			return nil, err
		}
		return Tuple(items), nil
	case "parenthesized_expression":
		inner := NamedChildren(n)
		if len(inner) != 1 {
			return nil, ErrNotLiteral
		}
		return Literal(inner[0], content)
	case "string":
		return stringLiteral(Text(n, content))
	case "concatenated_string":
		var b strings.Builder
		for _, c := range NamedChildren(n) {
			s, err := Literal(c, content)
			if err != nil {
				return nil, err
			}
			str, ok := s.(string)
			if !ok {
				return nil, ErrNotLiteral
			}
			b.WriteString(str)
		}
		return b.String(), nil
	case "integer":
		return intLiteral(Text(n, content))
	case "float":
		f, err := strconv.ParseFloat(strings.ReplaceAll(Text(n, content), "_", ""), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNotLiteral, err)
		}
		return f, nil
	case "true":
		return true, nil
	case "false":
		return false, nil
	case "none":
		return nil, nil
	case "unary_operator":
		op := n.ChildByFieldName("operator")
		arg, err := Literal(n.ChildByFieldName("argument"), content)
		if err != nil {
			return nil, err
		}
		sign := Text(op, content)
		switch v := arg.(type) {
		case int64:
			if sign == "-" {
				return -v, nil
			}
			if sign == "+" {
				return v, nil
			}
		case float64:
			if sign == "-" {
				return -v, nil
			}
			if sign == "+" {
				return v, nil
			}
		}
		return nil, fmt.Errorf("%w: unary %s", ErrNotLiteral, sign)
	default:
		return nil, fmt.Errorf("%w: %s", ErrNotLiteral, n.Type())
	}
}

func sequence(n *sitter.Node, content []byte) ([]any, error) {
	children := NamedChildren(n)
	out := make([]any, 0, len(children))
	for _, c := range children {
		v, err := Literal(c, content)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func intLiteral(text string) (any, error) {
	clean := strings.ReplaceAll(strings.ToLower(text), "_", "")
	if strings.HasSuffix(clean, "j") || strings.HasSuffix(clean, "l") {
		return nil, fmt.Errorf("%w: %s", ErrNotLiteral, text)
	}
	base := 10
	digits := clean
	switch {
	case strings.HasPrefix(clean, "0x"):
		base, digits = 16, clean[2:]
	case strings.HasPrefix(clean, "0o"):
		base, digits = 8, clean[2:]
	case strings.HasPrefix(clean, "0b"):
		base, digits = 2, clean[2:]
	}
	if v, err := strconv.ParseInt(digits, base, 64); err == nil {
		return v, nil
	}
	// слишком большое для int64
	if bi, ok := new(big.Int).SetString(digits, base); ok {
		f, _ := new(big.Float).SetInt(bi).Float64()
		return f, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNotLiteral, text)
}

// stringLiteral decodes one Python string token including its prefix.
func stringLiteral(raw string) (any, error) {
	i := 0
	for i < len(raw) && raw[i] != '"' && raw[i] != '\'' {
		i++
	}
	prefix := strings.ToLower(raw[:i])
	body := raw[i:]
	if strings.Contains(prefix, "f") {
		if strings.ContainsAny(body, "{}") {
			return nil, fmt.Errorf("%w: f-string", ErrNotLiteral)
		}
	}
	for _, c := range prefix {
		if !strings.ContainsRune("rbuf", c) {
			return nil, fmt.Errorf("%w: string prefix %q", ErrNotLiteral, prefix)
		}
	}
	quote := ""
	switch {
	case strings.HasPrefix(body, `"""`), strings.HasPrefix(body, `'''`):
		quote = body[:3]
	case len(body) > 0:
		quote = body[:1]
	}
	if quote == "" || len(body) < 2*len(quote) || !strings.HasSuffix(body, quote) {
		return nil, fmt.Errorf("%w: unterminated string", ErrNotLiteral)
	}
	inner := body[len(quote) : len(body)-len(quote)]
	if strings.Contains(prefix, "r") {
		return inner, nil
	}
	return unescape(inner), nil
}

// unescape handles Python escape sequences; unknown ones are kept verbatim.
func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch e := s[i]; e {
		case '\n':
			// продолжение строки
		case '\\', '\'', '"':
			b.WriteByte(e)
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
		case 'x', 'u', 'U':
			width := 2
			if e == 'u' {
				width = 4
			} else if e == 'U' {
				width = 8
			}
			if i+width < len(s) {
				if r, err := strconv.ParseUint(s[i+1:i+1+width], 16, 32); err == nil {
					b.WriteRune(rune(r))
					i += width
					continue
				}
			}
			b.WriteByte('\\')
			b.WriteByte(e)
		case '0', '1', '2', '3', '4', '5', '6', '7':
			j := i
			for j < len(s) && j < i+3 && s[j] >= '0' && s[j] <= '7' {
				j++
			}
			r, _ := strconv.ParseUint(s[i:j], 8, 32)
			b.WriteRune(rune(r))
			i = j - 1
		default:
			b.WriteByte('\\')
			b.WriteByte(e)
		}
	}
	return b.String()
}

// Truthy applies Python truthiness to a literal value.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case int64:
		return x != 0
	case float64:
		return x != 0
	case string:
		return x != ""
	case []any:
		return len(x) > 0
	case Tuple:
		return len(x) > 0
	case *Dict:
		return x.Len() > 0
	default:
		return true
	}
}
