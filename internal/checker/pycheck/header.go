package pycheck

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"

	"ocahooks/internal/checker"
	"ocahooks/internal/diag"
	"ocahooks/internal/fix"
)

// HeaderDirectives mark header comments that tools read and must stay.
var HeaderDirectives = []string{"pylint:", "flake8:", "noqa", "#!", "coding", "-*-", "type:", "isort:", "ruff:"}

func (c *Checker) checkHeaderComments() {
	for _, path := range c.pythonFiles() {
		content, err := os.ReadFile(path)
		if err != nil {
			c.ctx.Warnf("%s: %v", c.rec.Short(path), err)
			continue
		}
		lines, edits := headerComments(content)
		if len(lines) == 0 {
			continue
		}
		nums := make([]string, len(lines))
		for i, l := range lines {
			nums[i] = strconv.Itoa(l)
		}
		ref := c.ref(path)
		b := c.ctx.Report(diag.UseHeaderComments, ref.Short, lines[len(lines)-1],
			fmt.Sprintf("Use of header comments in lines %s", strings.Join(nums, ", ")))
		if b == nil {
			continue
		}
		b.Emit()
		if !c.ctx.Fixing(diag.UseHeaderComments) {
			continue
		}
		if _, err := c.ctx.Editor.Edit(diag.UseHeaderComments, checker.Target(ref, 0), edits); err != nil {
			c.ctx.Warnf("%s: %v", ref.Short, err)
		}
	}
}

// headerComments scans the leading block of blank and comment lines. It
// returns the comment lines that are not directives with the edits deleting
// them. A file made only of comments yields nothing.
func headerComments(content []byte) ([]int, []fix.Edit) {
	var (
		lines []int
		edits []fix.Edit
	)
	pos := 0
	for no := 1; pos < len(content); no++ {
		end := lineEnd(content, pos)
		line := content[pos:end]
		switch {
		case len(bytes.Trim(line, " \r\n")) == 0:
		case line[0] == '#':
			if !directive(line) {
				lines = append(lines, no)
				edits = append(edits, span(content, pos, end))
			}
		default:
			return lines, edits
		}
		pos = end
	}
	return nil, nil
}

func directive(line []byte) bool {
	for _, tok := range HeaderDirectives {
		if bytes.Contains(line, []byte(tok)) {
			return true
		}
	}
	return false
}
