package pycheck

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"ocahooks/internal/checker"
	"ocahooks/internal/diag"
	"ocahooks/internal/fix"
	"ocahooks/internal/manifest"
	"ocahooks/internal/msgctl"
	"ocahooks/internal/pysrc"
)

// ignoreInfo is attached to source findings so users know how to silence them.
const ignoreInfo = "You can disable this check by adding the following comment to the affected line or just above it `# lint-ignore=%s` or `# lint-ignore`"

var lintIgnoreRe = regexp.MustCompile(`^#\s*lint-(?:ignore|fixme)\b(?:\s*[:=]\s*([\w\-]+(?:\s*,\s*[\w\-]+)*))?`)

// ignore is the suppression attached to one line: every code, or a list.
type ignore struct {
	all   bool
	codes msgctl.Set
}

// source is one parsed Python file. Fixes found by a rule are collected in
// edits and written once the rule is done with the file.
type source struct {
	ref     manifest.ReferencedFile
	tree    *pysrc.Tree
	content []byte
	ignores map[int]ignore
	edits   []fix.Edit
}

func (c *Checker) parse(ref manifest.ReferencedFile) (*source, error) {
	content, err := os.ReadFile(ref.Filename)
	if err != nil {
		return nil, err
	}
	tree, err := pysrc.Parse(c.ctx.Context(), content)
	if err != nil {
		return nil, err
	}
	s := &source{ref: ref, tree: tree, content: content, ignores: map[int]ignore{}}
	s.collectIgnores()
	return s, nil
}

func (s *source) close() {
	s.tree.Close()
}

// collectIgnores reads "# lint-ignore" comments. A trailing comment covers its
// own line, a comment on a line of its own also covers the next one.
func (s *source) collectIgnores() {
	pysrc.Walk(s.tree.Root(), func(n *sitter.Node) bool {
		if n.Type() != "comment" {
			return true
		}
		m := lintIgnoreRe.FindStringSubmatch(s.tree.Text(n))
		if m == nil {
			return false
		}
		ig := ignore{all: m[1] == ""}
		if !ig.all {
			ig.codes = msgctl.ParseSet(strings.ReplaceAll(m[1], " ", ""))
		}
		line := pysrc.Line(n)
		s.addIgnore(line, ig)
		if s.standalone(n) {
			s.addIgnore(line+1, ig)
		}
		return false
	})
}

func (s *source) addIgnore(line int, ig ignore) {
	prev := s.ignores[line]
	prev.all = prev.all || ig.all
	prev.codes = prev.codes.Union(ig.codes)
	s.ignores[line] = prev
}

func (s *source) standalone(n *sitter.Node) bool {
	start := lineStart(s.content, int(n.StartByte()))
	return strings.TrimSpace(string(s.content[start:n.StartByte()])) == ""
}

// disabled returns the set silencing code on line, if any.
func (s *source) disabled(code diag.Code, line int) msgctl.Set {
	ig, ok := s.ignores[line]
	switch {
	case !ok:
		return nil
	case ig.all:
		return msgctl.NewSet(code.ID())
	default:
		return ig.codes
	}
}

// report emits a source finding at n and tells whether its fix should be
// queued.
func (c *Checker) report(s *source, code diag.Code, n *sitter.Node, msg string) bool {
	line := pysrc.Line(n)
	off := s.disabled(code, line)
	b := c.ctx.Report(code, s.ref.Short, line, msg, off)
	if b == nil {
		return false
	}
	b.WithColumn(int(n.StartPoint().Column) + 1).
		WithInfo(fmt.Sprintf(ignoreInfo, code)).
		Emit()
	return c.ctx.Fixing(code, off)
}

// flush writes the queued edits of s.
func (c *Checker) flush(s *source, code diag.Code) {
	if len(s.edits) == 0 {
		return
	}
	edits := s.edits
	s.edits = nil
	if _, err := c.ctx.Editor.Edit(code, checker.Target(s.ref, 0), edits); err != nil {
		c.ctx.Warnf("%s: %v", s.ref.Short, err)
	}
}

// span returns the edit removing content[start:end] with a guard.
func span(content []byte, start, end int) fix.Edit {
	return fix.Delete(start, string(content[start:end]))
}

func lineStart(content []byte, pos int) int {
	for pos > 0 && content[pos-1] != '\n' {
		pos--
	}
	return pos
}

func lineEnd(content []byte, pos int) int {
	for pos < len(content) && content[pos] != '\n' {
		pos++
	}
	if pos < len(content) {
		pos++
	}
	return pos
}
