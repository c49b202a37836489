// Package report renders findings for people (text grouped by code) and for
// tools (JSON).
package report

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"ocahooks/internal/diag"
	"ocahooks/internal/fix"
)

// Options configures the text renderer.
type Options struct {
	Color   bool
	Modules int
}

type palette struct {
	code, path, info, summary *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		code:    color.New(color.FgRed, color.Bold),
		path:    color.New(color.FgCyan),
		info:    color.New(color.Faint),
		summary: color.New(color.Bold),
	}
	for _, c := range []*color.Color{p.code, p.path, p.info, p.summary} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// Text prints findings grouped by code, codes in order of first appearance:
//
//	****<code>****
//	<path>:<line> <message> - [<code>]
//	    <info>
//
// followed by a summary line. findings are expected sorted.
func Text(w io.Writer, findings []diag.Finding, opts Options) error {
	p := newPalette(opts.Color)
	bag := diag.NewBag(0)
	for _, f := range findings {
		bag.Add(f)
	}
	order, groups := bag.ByCode()
	for _, code := range order {
		if _, err := fmt.Fprintf(w, "\n%s\n", p.code.Sprintf("****%s****", code)); err != nil {
			return err
		}
		for _, f := range groups[code] {
			fmt.Fprintf(w, "%s %s - [%s]\n", p.path.Sprint(f.Location()), f.Message, code)
			if f.Info != "" {
				fmt.Fprintf(w, "    %s\n", p.info.Sprint(f.Info))
			}
		}
	}
	_, err := fmt.Fprintf(w, "\n%s\n", p.summary.Sprint(Summary(len(findings), opts.Modules)))
	return err
}

// Summary is the closing line of the text report. A negative module count
// is left out.
func Summary(findings, modules int) string {
	if modules < 0 {
		return fmt.Sprintf("%d finding(s)", findings)
	}
	return fmt.Sprintf("%d finding(s) in %d module(s)", findings, modules)
}

// Fixes prints what autofix changed and what it had to give up.
func Fixes(w io.Writer, res fix.ApplyResult) {
	if len(res.Applied) == 0 && len(res.Skipped) == 0 {
		return
	}
	files := map[string]bool{}
	for _, a := range res.Applied {
		files[a.Path] = true
	}
	fmt.Fprintf(w, "Applied %d fix(es) in %d file(s)", len(res.Applied), len(files))
	if n := len(res.Skipped); n > 0 {
		fmt.Fprintf(w, ", %d skipped", n)
	}
	fmt.Fprintln(w)
}
