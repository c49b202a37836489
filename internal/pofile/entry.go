// Package pofile reads gettext PO/POT catalogs with line information.
package pofile

import (
	"sort"
	"strings"
)

// Entry is one catalog message.
type Entry struct {
	MsgCtxt      string
	HasCtxt      bool
	Msgid        string
	MsgidPlural  string
	Msgstr       string
	MsgstrPlural map[int]string

	// Comment holds the extracted "#." lines joined with newlines.
	Comment string
	// TComment holds the translator "# " lines.
	TComment    string
	Occurrences []string
	Flags       []string
	Previous    []string
	Obsolete    bool

	// Line is the first line of the entry, MsgidLine the line of msgid.
	Line      int
	MsgidLine int
}

// HasFlag reports whether the "#," line lists flag.
func (e *Entry) HasFlag(flag string) bool {
	for _, f := range e.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// Translated reports whether any msgstr form is non-empty.
func (e *Entry) Translated() bool {
	if e.Msgstr != "" {
		return true
	}
	for _, s := range e.MsgstrPlural {
		if s != "" {
			return true
		}
	}
	return false
}

// PluralIndexes returns the msgstr[n] indexes in ascending order.
func (e *Entry) PluralIndexes() []int {
	out := make([]int, 0, len(e.MsgstrPlural))
	for i := range e.MsgstrPlural {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// Catalog is a parsed file. The header entry (empty msgid) is kept apart.
type Catalog struct {
	Header  *Entry
	Entries []*Entry
}

// Metadata parses the header msgstr into "Key: value" pairs.
func (c *Catalog) Metadata() map[string]string {
	out := map[string]string{}
	if c.Header == nil {
		return out
	}
	for _, line := range strings.Split(c.Header.Msgstr, "\n") {
		k, v, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		out[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return out
}

// Active returns the non-obsolete entries.
func (c *Catalog) Active() []*Entry {
	out := make([]*Entry, 0, len(c.Entries))
	for _, e := range c.Entries {
		if !e.Obsolete {
			out = append(out, e)
		}
	}
	return out
}
