package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"ocahooks/internal/diag"
)

// ListMsgs prints one `code  title` line per code with the titles aligned.
// Fixable codes are marked.
func ListMsgs(w io.Writer, codes []diag.Code) {
	width := 0
	for _, c := range codes {
		width = max(width, runewidth.StringWidth(c.ID()))
	}
	for _, c := range codes {
		pad := strings.Repeat(" ", width-runewidth.StringWidth(c.ID()))
		title := c.Title()
		if c.Fixable() {
			title += " [autofix]"
		}
		fmt.Fprintf(w, "%s%s  %s\n", c.ID(), pad, title)
	}
}
