package msgctl

import (
	"sort"
	"strings"
)

// Set is a set of check codes.
type Set map[string]struct{}

// NewSet builds a set from codes, dropping empty strings.
func NewSet(codes ...string) Set {
	s := make(Set, len(codes))
	for _, c := range codes {
		if c = strings.TrimSpace(c); c != "" {
			s[c] = struct{}{}
		}
	}
	return s
}

// ParseSet splits a comma separated list ("a, b,,c") into a Set.
func ParseSet(value string) Set {
	return NewSet(strings.Split(value, ",")...)
}

func (s Set) Has(code string) bool {
	if s == nil {
		return false
	}
	_, ok := s[code]
	return ok
}

func (s Set) Len() int {
	return len(s)
}

// Union returns a new set holding the codes of s and others.
func (s Set) Union(others ...Set) Set {
	out := make(Set, len(s))
	for c := range s {
		out[c] = struct{}{}
	}
	for _, o := range others {
		for c := range o {
			out[c] = struct{}{}
		}
	}
	return out
}

// Sorted returns the codes in lexical order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

func (s Set) String() string {
	return strings.Join(s.Sorted(), ",")
}
