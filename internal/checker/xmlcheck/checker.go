// Package xmlcheck implements the rules over the xml files a module
// references. Every file is parsed once; rules that rewrite a file queue
// their fixes and the file is parsed again after each write.
package xmlcheck

import (
	"errors"

	"ocahooks/internal/checker"
	"ocahooks/internal/diag"
	"ocahooks/internal/fix"
	"ocahooks/internal/manifest"
	"ocahooks/internal/msgctl"
	"ocahooks/internal/source"
	"ocahooks/internal/xmldom"
)

// MinPriority is the lowest priority at which a "replace" is considered safe.
const MinPriority = 99

// defaultViewPriority is what Odoo assigns to views and templates without one.
const defaultViewPriority = 16

// Checker runs the xml rules of one module.
type Checker struct {
	ctx     *checker.Context
	set     *source.FileSet
	files   []*file
	pending []pendingFix
}

type pendingFix struct {
	code    diag.Code
	file    *file
	ord     int
	line    int
	rewrite fix.Rewriter
	// edits is used instead of rewrite for changes outside an element.
	edits func(content []byte) []fix.Edit
}

// New loads every referenced file. Files that do not parse get a
// placeholder document and an xml-syntax-error finding.
func New(ctx *checker.Context, refs []manifest.ReferencedFile) *Checker {
	c := &Checker{ctx: ctx, set: source.NewFileSet()}
	for _, ref := range refs {
		f := loadFile(c.set, ref)
		if f.readErr != nil {
			ctx.Warnf("%s: %v", ref.Short, f.readErr)
			continue
		}
		c.files = append(c.files, f)
		if f.broken() {
			line, msg := 1, f.doc.Err.Error()
			var se *xmldom.SyntaxError
			if errors.As(f.doc.Err, &se) {
				line, msg = se.Line, se.Msg
			}
			ctx.Report(diag.XMLSyntaxError, ref.Short, line, msg).Emit()
			continue
		}
		if len(f.doc.DeprecatedMarkers) > 0 {
			ctx.Warnf("%s:%d deprecated %q marker, use %q", ref.Short, f.doc.DeprecatedMarkers[0],
				trimEq(msgctl.DeprecatedMarker), trimEq(msgctl.Marker))
		}
	}
	return c
}

func trimEq(marker string) string {
	return marker[:len(marker)-1]
}

// Descriptors is the check table in execution order.
func Descriptors() []msgctl.Descriptor[*Checker] {
	return []msgctl.Descriptor[*Checker]{
		{
			Name: "check_xml_records",
			Codes: []diag.Code{
				diag.XMLDuplicateRecordID, diag.XMLDuplicateFields, diag.XMLRedundantModuleName,
				diag.XMLViewDangerousReplaceLowPrio, diag.XMLDeprecatedTreeAttribute,
				diag.XMLCreateUserWoResetPassword, diag.XMLDangerousFilterWoUser,
				diag.XMLRecordMissingID, diag.XMLIDPositionFirst,
				diag.XMLFieldBoolWithoutEval, diag.XMLFieldNumericWithoutEval,
			},
			NeedsInstallable: true,
			Run:              flushing((*Checker).checkRecords),
		},
		{
			Name:             "check_xml_templates",
			Codes:            []diag.Code{diag.XMLDuplicateTemplateID, diag.XMLRedundantModuleName, diag.XMLIDPositionFirst},
			NeedsInstallable: true,
			Run:              flushing((*Checker).checkTemplates),
		},
		{
			Name:             "check_xml_dangerous_qweb_replace_low_priority",
			Codes:            []diag.Code{diag.XMLDangerousQwebReplaceLowPrio},
			NeedsInstallable: true,
			Run:              flushing((*Checker).checkQwebReplace),
		},
		{
			Name:             "check_xml_deprecated_data_node",
			Codes:            []diag.Code{diag.XMLDeprecatedDataNode},
			NeedsInstallable: true,
			Run:              flushing((*Checker).checkDataNode),
		},
		{
			Name:             "check_xml_deprecated_openerp_node",
			Codes:            []diag.Code{diag.XMLDeprecatedOpenerpNode},
			NeedsInstallable: true,
			Run:              flushing((*Checker).checkOpenerpNode),
		},
		{
			Name:             "check_xml_deprecated_qweb_directive",
			Codes:            []diag.Code{diag.XMLDeprecatedQwebDirective},
			NeedsInstallable: true,
			Run:              flushing((*Checker).checkQwebDirective),
		},
		{
			Name:             "check_xml_not_valid_char_link",
			Codes:            []diag.Code{diag.XMLNotValidCharLink},
			NeedsInstallable: true,
			Run:              flushing((*Checker).checkCharLink),
		},
		{
			Name:             "check_xml_xpath_translatable_item",
			Codes:            []diag.Code{diag.XMLXpathTranslatableItem},
			NeedsInstallable: true,
			Run:              flushing((*Checker).checkXpathTranslatable),
		},
		{
			Name:             "check_xml_oe_structure_missing_id",
			Codes:            []diag.Code{diag.XMLOeStructureMissingID},
			NeedsInstallable: true,
			Run:              flushing((*Checker).checkOeStructure),
		},
		{
			Name:             "check_xml_header",
			Codes:            []diag.Code{diag.XMLHeaderMissing, diag.XMLHeaderWrong},
			NeedsInstallable: true,
			Run:              flushing((*Checker).checkHeader),
		},
		{
			Name:             "check_xml_deprecated_oe_chatter",
			Codes:            []diag.Code{diag.XMLDeprecatedOeChatter},
			NeedsInstallable: true,
			Run:              flushing((*Checker).checkOeChatter),
		},
	}
}

// flushing applies the fixes a rule queued before the next rule runs.
func flushing(run func(*Checker)) func(*Checker) {
	return func(c *Checker) {
		run(c)
		c.flush()
	}
}

// Run executes the active descriptors in order and returns the skipped ones.
func (c *Checker) Run(installable bool, guard checker.Guard) []msgctl.Skip {
	return checker.RunActive(c.ctx, Descriptors(), c, installable, guard)
}

// parsed returns the files that have a usable document.
func (c *Checker) parsed() []*file {
	out := make([]*file, 0, len(c.files))
	for _, f := range c.files {
		if !f.broken() {
			out = append(out, f)
		}
	}
	return out
}

// report emits a finding at n honouring the node and file disable comments.
func (c *Checker) report(code diag.Code, f *file, n *xmldom.Node, msg string) *diag.ReportBuilder {
	return c.ctx.Report(code, f.ref.Short, n.Line, msg, f.doc.Disabled(n))
}

// queue schedules rw over n when autofix is on for code at n.
func (c *Checker) queue(code diag.Code, f *file, n *xmldom.Node, rw fix.Rewriter) {
	if !c.ctx.Fixing(code, f.doc.Disabled(n)) {
		return
	}
	c.pending = append(c.pending, pendingFix{code: code, file: f, ord: f.ordinal(n), line: n.Line, rewrite: rw})
}

func (c *Checker) queueEdits(code diag.Code, f *file, line int, edits func([]byte) []fix.Edit) {
	if !c.ctx.Fixing(code, f.doc.FileDisabled) {
		return
	}
	c.pending = append(c.pending, pendingFix{code: code, file: f, ord: -1, line: line, edits: edits})
}

// flush applies the queued fixes one at a time. The file is parsed again
// after each write, and the next fix finds its element in the new tree.
func (c *Checker) flush() {
	pending := c.pending
	c.pending = nil
	for _, p := range pending {
		tgt := checker.Target(p.file.ref, p.line)
		var (
			changed bool
			err     error
		)
		if p.edits != nil {
			changed, err = c.ctx.Editor.Edit(p.code, tgt, p.edits(p.file.content))
		} else {
			n := p.file.element(p.ord)
			if n == nil {
				continue
			}
			changed, err = c.ctx.Editor.Rewrite(p.code, tgt, n, p.rewrite)
		}
		if err != nil {
			c.ctx.Warnf("autofix %s failed for %s:%d: %v", p.code, p.file.ref.Short, p.line, err)
			continue
		}
		if changed {
			p.file.reload()
		}
	}
}
