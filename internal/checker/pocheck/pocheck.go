// Package pocheck validates translation catalogs: module comments,
// placeholders kept by translations and duplicate msgids.
package pocheck

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"ocahooks/internal/checker"
	"ocahooks/internal/diag"
	"ocahooks/internal/dupes"
	"ocahooks/internal/manifest"
	"ocahooks/internal/msgctl"
	"ocahooks/internal/pofile"
	"ocahooks/internal/pyfmt"
)

// same expression Odoo uses when importing translations
var moduleComment = regexp.MustCompile(`^(module[s]?): (\w+)`)

var newlineTab = regexp.MustCompile(`[\n\t]*`)

const shortMsgid = 40

type catalog struct {
	ref manifest.ReferencedFile
	cat *pofile.Catalog
	err error
}

// Checker runs the po rules over a set of catalogs, each on its own.
type Checker struct {
	ctx  *checker.Context
	cats []*catalog
}

func New(ctx *checker.Context, refs []manifest.ReferencedFile) *Checker {
	c := &Checker{ctx: ctx}
	for _, ref := range refs {
		cat, err := pofile.ParseFile(ref.Filename)
		c.cats = append(c.cats, &catalog{ref: ref, cat: cat, err: err})
	}
	return c
}

func Descriptors() []msgctl.Descriptor[*Checker] {
	return []msgctl.Descriptor[*Checker]{
		{
			Name:             "check_po_syntax_error",
			Codes:            []diag.Code{diag.POSyntaxError},
			NeedsInstallable: true,
			Run:              (*Checker).checkSyntax,
		},
		{
			Name: "check_po",
			Codes: []diag.Code{
				diag.PODuplicateMessageDefinition, diag.PORequiresModule,
				diag.POPythonParsePrintf, diag.POPythonParseFormat,
			},
			NeedsInstallable: true,
			Run:              (*Checker).checkEntries,
		},
	}
}

func (c *Checker) Run(installable bool, guard checker.Guard) []msgctl.Skip {
	return checker.RunActive(c.ctx, Descriptors(), c, installable, guard)
}

func (c *Checker) checkSyntax() {
	for _, pc := range c.cats {
		if pc.err != nil {
			c.ctx.Report(diag.POSyntaxError, pc.ref.Short, 1, pc.err.Error()).Emit()
		}
	}
}

func (c *Checker) checkEntries() {
	for _, pc := range c.cats {
		if pc.err != nil || pc.cat == nil {
			continue
		}
		msgids := dupes.New[string, *pofile.Entry]()
		for _, e := range pc.cat.Active() {
			msgids.Add(e.Msgid, dupes.Occurrence[*pofile.Entry]{Path: pc.ref.Short, Line: e.MsgidLine, Ref: e})
			c.visitEntry(pc.ref, e)
		}
		for _, g := range msgids.Groups() {
			lines := make([]string, len(g.Others))
			extra := make([]diag.Position, len(g.Others))
			for i, o := range g.Others {
				lines[i] = strconv.Itoa(o.Line)
				extra[i] = diag.Position{Path: o.Path, Line: o.Line}
			}
			c.ctx.Report(diag.PODuplicateMessageDefinition, pc.ref.Short, g.First.Line,
				fmt.Sprintf(`Duplicate PO message definition "%s" in lines %s`, shorten(g.Key), strings.Join(lines, ", "))).
				WithExtra(extra...).
				Emit()
		}
	}
}

func shorten(msgid string) string {
	runes := []rune(msgid)
	cut := msgid
	if len(runes) > shortMsgid {
		cut = string(runes[:shortMsgid])
	}
	short := strings.TrimSpace(newlineTab.ReplaceAllString(cut, ""))
	if len(runes) > shortMsgid {
		short += "..."
	}
	return short
}

func (c *Checker) visitEntry(ref manifest.ReferencedFile, e *pofile.Entry) {
	if !moduleComment.MatchString(e.Comment) {
		c.ctx.Report(diag.PORequiresModule, ref.Short, e.Line,
			"Translation entry requires comment `#. module: MODULE`").Emit()
	}
	if !e.HasFlag("python-format") {
		return
	}
	// untranslated entries are skipped, "%s" % var would not be parsed
	if e.Msgstr != "" {
		c.visitPlaceholders(ref, e, e.Msgid, e.Msgstr)
	}
	for _, i := range e.PluralIndexes() {
		if s := e.MsgstrPlural[i]; s != "" {
			src := e.MsgidPlural
			if src == "" {
				src = e.Msgid
			}
			c.visitPlaceholders(ref, e, src, s)
		}
	}
}

// visitPlaceholders checks printf first; a printf mismatch already explains
// the entry so str.format is only checked when printf passes.
func (c *Checker) visitPlaceholders(ref manifest.ReferencedFile, e *pofile.Entry, src, dst string) {
	if err := pyfmt.CheckPrintf(src, dst); err != nil {
		c.ctx.Report(diag.POPythonParsePrintf, ref.Short, e.MsgidLine,
			"Translation string couldn't be parsed correctly using str%variables "+err.Error()).Emit()
		return
	}
	if err := pyfmt.CheckFormat(src, dst); err != nil {
		c.ctx.Report(diag.POPythonParseFormat, ref.Short, e.MsgidLine,
			"Translation string couldn't be parsed correctly using str.format "+err.Error()).Emit()
	}
}
