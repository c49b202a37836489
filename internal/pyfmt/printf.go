package pyfmt

import (
	"regexp"
	"strings"
)

// printfPattern is the translate-toolkit printf placeholder regex.
var printfPattern = regexp.MustCompile(`%((?P<boost_ord>\d+)%|(?:(?P<ord>\d+)\$|\((?P<key>\w+)\))?(?P<fullvar>[+#-]*(?:\d+)?(?:\.\d+)?(hh\|h\|l\|ll)?(?P<type>[\w@])))`)

var (
	keyGroup  = printfPattern.SubexpIndex("key")
	typeGroup = printfPattern.SubexpIndex("type")
)

// Args are the dummy arguments derived from a source string: "" for %s and
// 0 for every other conversion.
type Args struct {
	Positional []Kind
	Keyed      map[string]Kind
}

// Empty reports that the string has no placeholders.
func (a Args) Empty() bool {
	return len(a.Positional) == 0 && len(a.Keyed) == 0
}

// Mixed reports that both positional and keyed placeholders were found.
func (a Args) Mixed() bool {
	return len(a.Positional) > 0 && len(a.Keyed) > 0
}

// PrintfArgs collects the placeholders of s with "%%" removed.
func PrintfArgs(s string) Args {
	args := Args{Keyed: map[string]Kind{}}
	s = strings.ReplaceAll(s, "%%", "")
	for _, line := range splitLines(s) {
		for _, m := range printfPattern.FindAllStringSubmatchIndex(line, -1) {
			kind := KindInt
			if m[2*typeGroup] >= 0 && line[m[2*typeGroup]:m[2*typeGroup+1]] == "s" {
				kind = KindStr
			}
			if m[2*keyGroup] < 0 {
				args.Positional = append(args.Positional, kind)
				continue
			}
			args.Keyed[line[m[2*keyGroup]:m[2*keyGroup+1]]] = kind
		}
	}
	return args
}

// CheckPrintf reports whether dst accepts the dummy arguments of src under
// Python's % operator. A src that itself fails is not an error.
func CheckPrintf(src, dst string) error {
	args := PrintfArgs(src)
	if args.Empty() {
		return nil
	}
	if args.Mixed() {
		return checkShape(args, PrintfArgs(dst))
	}
	if err := Printf(src, args); err != nil {
		return nil
	}
	if err := Printf(dst, args); err != nil {
		return err
	}
	return nil
}

// checkShape compares placeholder shapes for strings that mix %s and
// %(name)s, which Python itself can never format.
func checkShape(src, dst Args) error {
	switch {
	case len(dst.Positional) < len(src.Positional):
		return typeErr("not enough arguments for format string")
	case len(dst.Positional) > len(src.Positional):
		return typeErr("not all arguments converted during string formatting")
	}
	for _, key := range sortedKeys(dst.Keyed) {
		if _, ok := src.Keyed[key]; !ok {
			return keyErr(key)
		}
	}
	return nil
}

// printfState mirrors the argument cursor of CPython's formatter: a tuple
// walks argidx up to arglen, a single value uses arglen -1.
type printfState struct {
	items  []Kind
	single Kind
	dict   map[string]Kind
	arglen int
	argidx int
}

func (st *printfState) next() (Kind, error) {
	if st.argidx < st.arglen {
		idx := st.argidx
		st.argidx++
		if st.arglen < 0 {
			return st.single, nil
		}
		return st.items[idx], nil
	}
	return 0, typeErr("not enough arguments for format string")
}

// Printf evaluates format % args for errors only. With positional
// placeholders args is a tuple, otherwise it is the keyed mapping.
func Printf(format string, args Args) error {
	st := &printfState{}
	if len(args.Positional) > 0 {
		st.items = args.Positional
		st.arglen = len(args.Positional)
	} else {
		st.dict = args.Keyed
		st.single = KindDict
		st.arglen, st.argidx = -1, -2
	}

	fmtr := []rune(format)
	pos := 0
	for pos < len(fmtr) {
		if fmtr[pos] != '%' {
			pos++
			continue
		}
		pos++
		if err := st.conversion(fmtr, &pos); err != nil {
			return err
		}
	}
	if st.argidx < st.arglen && st.dict == nil {
		return typeErr("not all arguments converted during string formatting")
	}
	return nil
}

func (st *printfState) conversion(f []rune, pos *int) error {
	p := *pos
	defer func() { *pos = p }()

	if p < len(f) && f[p] == '(' {
		if st.dict == nil {
			return typeErr("format requires a mapping")
		}
		p++
		start, depth := p, 1
		for depth > 0 && p < len(f) {
			switch f[p] {
			case '(':
				depth++
			case ')':
				depth--
			}
			p++
		}
		if depth > 0 {
			return valueErr("incomplete format key")
		}
		key := string(f[start : p-1])
		v, ok := st.dict[key]
		if !ok {
			return keyErr(key)
		}
		st.single = v
		st.arglen, st.argidx = -1, -2
	}

	for p < len(f) && strings.ContainsRune("-+ #0", f[p]) {
		p++
	}
	if p < len(f) && f[p] == '*' {
		v, err := st.next()
		if err != nil {
			return err
		}
		if v != KindInt {
			return typeErr("* wants int")
		}
		p++
	} else {
		for p < len(f) && f[p] >= '0' && f[p] <= '9' {
			p++
		}
	}
	if p < len(f) && f[p] == '.' {
		p++
		if p < len(f) && f[p] == '*' {
			v, err := st.next()
			if err != nil {
				return err
			}
			if v != KindInt {
				return typeErr("* wants int")
			}
			p++
		} else {
			for p < len(f) && f[p] >= '0' && f[p] <= '9' {
				p++
			}
		}
	}
	if p < len(f) && (f[p] == 'h' || f[p] == 'l' || f[p] == 'L') {
		p++
	}
	if p >= len(f) {
		return valueErr("incomplete format")
	}
	c := f[p]
	p++
	if c == '%' {
		return nil
	}
	v, err := st.next()
	if err != nil {
		return err
	}
	switch c {
	case 's', 'r', 'a':
		return nil
	case 'i', 'd', 'u':
		if v != KindInt {
			return typeErr("%%%c format: a real number is required, not %s", c, v.typeName())
		}
	case 'o', 'x', 'X':
		if v != KindInt {
			return typeErr("%%%c format: an integer is required, not %s", c, v.typeName())
		}
	case 'e', 'E', 'f', 'F', 'g', 'G':
		if v != KindInt {
			return typeErr("must be real number, not %s", v.typeName())
		}
	case 'c':
		if v != KindInt {
			return typeErr("%%c requires int or char")
		}
	default:
		return valueErr("unsupported format character '%c' (0x%x) at index %d", c, c, p-1)
	}
	return nil
}

// splitLines splits like str.splitlines for the separators found in catalogs.
func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	lines := strings.Split(s, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
