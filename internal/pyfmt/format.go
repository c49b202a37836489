package pyfmt

import (
	"sort"
	"strconv"
	"strings"
)

// field is one replacement field as string.Formatter().parse yields it.
type field struct {
	name       string
	spec       string
	conversion rune
	nested     bool
}

// parseFormat splits s into its top-level replacement fields.
func parseFormat(s []rune) ([]field, error) {
	var out []field
	pos := 0
	for pos < len(s) {
		// литерал до { или }
		var c rune
		markup := false
		for pos < len(s) {
			c = s[pos]
			pos++
			if c == '{' || c == '}' {
				markup = true
				break
			}
		}
		if !markup {
			break
		}
		atEnd := pos >= len(s)
		if c == '}' && (atEnd || s[pos] != '}') {
			return nil, valueErr("Single '}' encountered in format string")
		}
		if atEnd && c == '{' {
			return nil, valueErr("Single '{' encountered in format string")
		}
		if s[pos] == c {
			pos++
			continue
		}
		f, next, err := parseField(s, pos)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
		pos = next
	}
	return out, nil
}

func parseField(s []rune, pos int) (field, int, error) {
	var f field
	start := pos
	var c rune
	for pos < len(s) {
		c = s[pos]
		pos++
		if c == '{' {
			return f, pos, valueErr("unexpected '{' in field name")
		}
		if c == '[' {
			for pos < len(s) && s[pos] != ']' {
				pos++
			}
			continue
		}
		if c == '}' || c == ':' || c == '!' {
			break
		}
	}
	f.name = string(s[start : pos-1])
	if c != '!' && c != ':' {
		if c != '}' {
			return f, pos, valueErr("expected '}' before end of string")
		}
		return f, pos, nil
	}
	if c == '!' {
		if pos >= len(s) {
			return f, pos, valueErr("end of string while looking for conversion specifier")
		}
		f.conversion = s[pos]
		pos++
		if pos < len(s) {
			c = s[pos]
			pos++
			if c == '}' {
				return f, pos, nil
			}
			if c != ':' {
				return f, pos, valueErr("expected ':' after conversion specifier")
			}
		}
	}
	specStart := pos
	depth := 1
	for pos < len(s) {
		c = s[pos]
		pos++
		switch c {
		case '{':
			f.nested = true
			depth++
		case '}':
			depth--
			if depth == 0 {
				f.spec = string(s[specStart : pos-1])
				return f, pos, nil
			}
		}
	}
	return f, pos, valueErr("unmatched '{' in format spec")
}

// FormatArgs derives dummy str.format arguments from s: the number of
// positional arguments and the keyword names. Unnumbered fields count one
// each, numbered fields use the highest index so strings mixing both are
// accepted.
func FormatArgs(s string) (positional int, keywords []string) {
	var numbers []int
	kw := map[string]struct{}{}
	for _, line := range splitLines(s) {
		fields, err := parseFormat([]rune(line))
		if err != nil {
			continue
		}
		for _, f := range fields {
			switch {
			case f.name == "":
				numbers = append(numbers, 0)
			case isDigits(f.name):
				n, err := strconv.Atoi(f.name)
				if err != nil {
					continue
				}
				numbers = append(numbers, n+1)
			default:
				kw[f.name] = struct{}{}
			}
		}
	}
	if len(numbers) > 0 {
		highest := 0
		for _, n := range numbers {
			highest = max(highest, n)
		}
		positional = highest
		if highest == 0 {
			positional = len(numbers)
		}
	}
	return positional, sortedKeys(kw)
}

// CheckFormat reports whether dst accepts the dummy arguments of src under
// str.format. A src that itself fails is not an error.
func CheckFormat(src, dst string) error {
	positional, keywords := FormatArgs(src)
	if positional == 0 && len(keywords) == 0 {
		return nil
	}
	if err := Format(src, positional, keywords); err != nil {
		return nil
	}
	return Format(dst, positional, keywords)
}

type autoState int

const (
	autoInit autoState = iota
	autoAuto
	autoManual
)

type formatter struct {
	positional int
	keywords   map[string]struct{}
	auto       autoState
	autoNext   int
}

// Format evaluates s.format(*range(positional), **{k: 0}) for errors only.
func Format(s string, positional int, keywords []string) error {
	fm := &formatter{positional: positional, keywords: map[string]struct{}{}}
	for _, k := range keywords {
		fm.keywords[k] = struct{}{}
	}
	return fm.build([]rune(s), 2)
}

func (fm *formatter) build(s []rune, depth int) error {
	if depth <= 0 {
		return valueErr("Max string recursion exceeded")
	}
	fields, err := parseFormat(s)
	if err != nil {
		return err
	}
	for _, f := range fields {
		if err := fm.render(f, depth); err != nil {
			return err
		}
	}
	return nil
}

func (fm *formatter) render(f field, depth int) error {
	obj, err := fm.lookup(f.name)
	if err != nil {
		return err
	}
	if f.conversion != 0 {
		switch f.conversion {
		case 'r', 's', 'a':
			obj = KindStr
		default:
			if f.conversion > 32 && f.conversion < 127 {
				return valueErr("Unknown conversion specifier %c", f.conversion)
			}
			return valueErr("Unknown conversion specifier \\x%x", f.conversion)
		}
	}
	spec := f.spec
	if f.nested {
		// вложенные поля в спецификаторе форматируются с тем же счётчиком
		if err := fm.build([]rune(spec), depth-1); err != nil {
			return err
		}
		spec = expandNested(spec)
	}
	return formatValue(obj, spec)
}

func (fm *formatter) lookup(name string) (Kind, error) {
	rest := []rune(name)
	i := 0
	for i < len(rest) && rest[i] != '.' && rest[i] != '[' {
		i++
	}
	first := string(rest[:i])
	rest = rest[i:]

	var obj Kind
	numeric := first == "" || isDigits(first)
	if numeric {
		empty := first == ""
		if fm.auto == autoInit {
			if empty {
				fm.auto = autoAuto
			} else {
				fm.auto = autoManual
			}
		}
		switch {
		case fm.auto == autoManual && empty:
			return 0, valueErr("cannot switch from manual field specification to automatic field numbering")
		case fm.auto == autoAuto && !empty:
			return 0, valueErr("cannot switch from automatic field numbering to manual field specification")
		}
		idx := fm.autoNext
		if empty {
			fm.autoNext++
		} else {
			n, err := strconv.Atoi(first)
			if err != nil {
				return 0, valueErr("Too many decimal digits in format string")
			}
			idx = n
		}
		if idx >= fm.positional {
			return 0, indexErr("Replacement index %d out of range for positional args tuple", idx)
		}
		obj = KindInt
	} else {
		if _, ok := fm.keywords[first]; !ok {
			return 0, keyErr(first)
		}
		obj = KindInt
	}

	for len(rest) > 0 {
		switch rest[0] {
		case '.':
			j := 1
			for j < len(rest) && rest[j] != '.' && rest[j] != '[' {
				j++
			}
			attr := string(rest[1:j])
			rest = rest[j:]
			if attr == "" {
				return 0, valueErr("Empty attribute in format string")
			}
			var err error
			if obj, err = getattr(obj, attr); err != nil {
				return 0, err
			}
		case '[':
			j := 1
			for j < len(rest) && rest[j] != ']' {
				j++
			}
			if j >= len(rest) {
				return 0, valueErr("Missing ']' in format string")
			}
			if j == 1 {
				return 0, valueErr("Empty attribute in format string")
			}
			return 0, typeErr("'%s' object is not subscriptable", obj.typeName())
		default:
			return 0, valueErr("Only '.' or '[' may follow ']' in format field specifier")
		}
	}
	return obj, nil
}

var intAttrs = map[string]Kind{
	"real":             KindInt,
	"imag":             KindInt,
	"numerator":        KindInt,
	"denominator":      KindInt,
	"as_integer_ratio": KindMethod,
	"bit_count":        KindMethod,
	"bit_length":       KindMethod,
	"conjugate":        KindMethod,
	"from_bytes":       KindMethod,
	"is_integer":       KindMethod,
	"to_bytes":         KindMethod,
}

func getattr(obj Kind, attr string) (Kind, error) {
	if strings.HasPrefix(attr, "__") && strings.HasSuffix(attr, "__") {
		return KindMethod, nil
	}
	if obj == KindInt {
		if k, ok := intAttrs[attr]; ok {
			return k, nil
		}
	}
	return 0, attrErr("'%s' object has no attribute '%s'", obj.typeName(), attr)
}

// expandNested replaces nested fields of a spec with a neutral value so the
// outer spec can be validated. Ints format as "0".
func expandNested(spec string) string {
	var b strings.Builder
	depth := 0
	for _, r := range spec {
		switch {
		case r == '{':
			if depth == 0 {
				b.WriteByte('0')
			}
			depth++
		case r == '}':
			depth--
		case depth == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}

type formatSpec struct {
	align      rune
	fill       bool
	sign       rune
	noNegZero  bool
	alternate  bool
	width      int
	thousands  rune
	precision  int
	formatType rune
}

func isAlign(r rune) bool { return r == '<' || r == '>' || r == '=' || r == '^' }

func parseSpec(spec []rune, defaultType, defaultAlign rune, typeName string) (formatSpec, error) {
	fs := formatSpec{width: -1, precision: -1, formatType: defaultType}
	pos, end := 0, len(spec)
	switch {
	case end-pos >= 2 && isAlign(spec[pos+1]):
		fs.align, fs.fill = spec[pos+1], true
		pos += 2
	case end-pos >= 1 && isAlign(spec[pos]):
		fs.align = spec[pos]
		pos++
	}
	if pos < end && (spec[pos] == '+' || spec[pos] == '-' || spec[pos] == ' ') {
		fs.sign = spec[pos]
		pos++
	}
	if pos < end && spec[pos] == 'z' {
		fs.noNegZero = true
		pos++
	}
	if pos < end && spec[pos] == '#' {
		fs.alternate = true
		pos++
	}
	if !fs.fill && pos < end && spec[pos] == '0' {
		if fs.align == 0 && defaultAlign == '>' {
			fs.align = '='
		}
		pos++
	}
	if n, ok := readInt(spec, &pos); ok {
		fs.width = n
	}
	if pos < end && spec[pos] == ',' {
		fs.thousands = ','
		pos++
	}
	if pos < end && spec[pos] == '_' {
		if fs.thousands != 0 {
			return fs, valueErr("Cannot specify both ',' and '_'.")
		}
		fs.thousands = '_'
		pos++
	}
	if pos < end && spec[pos] == ',' && fs.thousands == '_' {
		return fs, valueErr("Cannot specify both ',' and '_'.")
	}
	if pos < end && spec[pos] == '.' {
		pos++
		n, ok := readInt(spec, &pos)
		if !ok {
			return fs, valueErr("Format specifier missing precision")
		}
		fs.precision = n
	}
	if end-pos > 1 {
		return fs, valueErr("Invalid format specifier '%s' for object of type '%s'", string(spec), typeName)
	}
	if end-pos == 1 {
		fs.formatType = spec[pos]
	}
	if fs.thousands != 0 {
		switch fs.formatType {
		case 'd', 'e', 'f', 'g', 'E', 'G', '%', 'F', 0:
		case 'b', 'o', 'x', 'X':
			if fs.thousands != '_' {
				return fs, thousandsErr(fs)
			}
		default:
			return fs, thousandsErr(fs)
		}
	}
	return fs, nil
}

func readInt(spec []rune, pos *int) (int, bool) {
	start := *pos
	for *pos < len(spec) && spec[*pos] >= '0' && spec[*pos] <= '9' {
		*pos++
	}
	if *pos == start {
		return 0, false
	}
	n, err := strconv.Atoi(string(spec[start:*pos]))
	if err != nil {
		return 0, false
	}
	return n, true
}

func thousandsErr(fs formatSpec) error {
	if fs.formatType > 32 && fs.formatType < 128 {
		return valueErr("Cannot specify '%c' with '%c'.", fs.thousands, fs.formatType)
	}
	return valueErr("Cannot specify '%c' with '\\x%x'.", fs.thousands, fs.formatType)
}

func unknownCode(t rune, typeName string) error {
	if t > 32 && t < 128 {
		return valueErr("Unknown format code '%c' for object of type '%s'", t, typeName)
	}
	return valueErr("Unknown format code '\\x%x' for object of type '%s'", t, typeName)
}

// formatValue applies format(obj, spec) for the dummy value kinds.
func formatValue(obj Kind, spec string) error {
	if spec == "" {
		return nil
	}
	switch obj {
	case KindStr:
		fs, err := parseSpec([]rune(spec), 's', '<', "str")
		if err != nil {
			return err
		}
		if fs.formatType != 's' {
			return unknownCode(fs.formatType, "str")
		}
		switch {
		case fs.sign == ' ':
			return valueErr("Space not allowed in string format specifier")
		case fs.sign != 0:
			return valueErr("Sign not allowed in string format specifier")
		case fs.noNegZero:
			return valueErr("Negative zero coercion (z) not allowed in string format specifier")
		case fs.alternate:
			return valueErr("Alternate form (#) not allowed in string format specifier")
		case fs.align == '=':
			return valueErr("'=' alignment not allowed in string format specifier")
		}
		return nil
	case KindInt:
		fs, err := parseSpec([]rune(spec), 'd', '>', "int")
		if err != nil {
			return err
		}
		switch fs.formatType {
		case 'b', 'c', 'd', 'o', 'x', 'X', 'n':
			switch {
			case fs.precision != -1:
				return valueErr("Precision not allowed in integer format specifier")
			case fs.noNegZero:
				return valueErr("Negative zero coercion (z) not allowed in integer format specifier")
			case fs.formatType == 'c' && fs.sign != 0:
				return valueErr("Sign not allowed with integer format specifier 'c'")
			case fs.formatType == 'c' && fs.alternate:
				return valueErr("Alternate form (#) not allowed with integer format specifier 'c'")
			}
			return nil
		case 'e', 'E', 'f', 'F', 'g', 'G', '%':
			return nil
		default:
			return unknownCode(fs.formatType, "int")
		}
	default:
		return typeErr("unsupported format string passed to %s.__format__", obj.typeName())
	}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
