package xmlcheck

import (
	"bytes"
	"fmt"
	"path"
	"regexp"
	"strings"

	"ocahooks/internal/diag"
	"ocahooks/internal/dupes"
	"ocahooks/internal/fix"
	"ocahooks/internal/xmldom"
)

// Header is the only accepted xml declaration.
const Header = `<?xml version="1.0" encoding="UTF-8"?>`

var (
	validExt          = regexp.MustCompile(`^\.[a-zA-Z]+$`)
	translatableXpath = regexp.MustCompile(`@string\s*=|text\(\)\s*=|contains\(\s*text\(\)`)

	deprecatedQwebDirectives = map[string]bool{
		"t-esc-options":   true,
		"t-field-options": true,
		"t-raw-options":   true,
	}
)

type templateKey struct {
	section string
	id      string
}

// checkTemplates covers <template> ids and the id conventions shared with
// <menuitem>.
func (c *Checker) checkTemplates() {
	ids := dupes.New[templateKey, *xmldom.Node]()
	owner := make(map[*xmldom.Node]*file)
	for _, f := range c.parsed() {
		root := f.odooRoot()
		if root == nil {
			continue
		}
		for _, n := range root.Find("template", "menuitem") {
			id, ok := n.Get("id")
			if !ok {
				continue
			}
			if n.Tag == "template" {
				ids.Add(templateKey{section: f.ref.Section, id: c.normalizeID(id)},
					dupes.Occurrence[*xmldom.Node]{Path: f.ref.Short, Line: n.Line, Ref: n})
				owner[n] = f
			}
			c.visitRedundantModuleName(f, n)
			c.visitIDFirst(f, n)
		}
	}
	for _, g := range ids.Groups() {
		first := g.First.Ref
		c.report(diag.XMLDuplicateTemplateID, owner[first], first,
			fmt.Sprintf("Duplicate xml template id %q in %s", first.Attr("id"), positions(g.Others))).
			WithExtra(extra(g.Others)...).
			Emit()
	}
}

func (c *Checker) checkQwebReplace() {
	for _, f := range c.parsed() {
		root := f.odooRoot()
		if root == nil {
			continue
		}
		for _, tmpl := range root.Find("template") {
			prio := defaultViewPriority
			if v, ok := tmpl.Get("priority"); ok {
				prio = priority(v)
			}
			if prio < MinPriority && replaces(tmpl) {
				c.report(diag.XMLDangerousQwebReplaceLowPrio, f, tmpl,
					fmt.Sprintf(`Dangerous use of "replace" from view with priority %d < %d`, prio, MinPriority)).Emit()
			}
		}
	}
}

// checkDataNode flags <odoo><data> wrappers that hold the whole file.
func (c *Checker) checkDataNode() {
	for _, f := range c.parsed() {
		root := f.odooRoot()
		if root == nil {
			continue
		}
		children := root.Nodes()
		if len(children) != 1 || children[0].Kind != xmldom.Element || children[0].Tag != "data" {
			continue
		}
		c.report(diag.XMLDeprecatedDataNode, f, root,
			`Use <odoo> instead of <odoo><data> or use <odoo noupdate="1"> instead of <odoo><data noupdate="1">`).Emit()
	}
}

func (c *Checker) checkOpenerpNode() {
	for _, f := range c.parsed() {
		if root := f.doc.Root(); root != nil && root.Tag == "openerp" {
			c.report(diag.XMLDeprecatedOpenerpNode, f, root, "Deprecated <openerp> xml node").Emit()
		}
	}
}

func (c *Checker) checkQwebDirective() {
	for _, f := range c.parsed() {
		for _, n := range f.doc.Find() {
			found := sortedAttrs(n, deprecatedQwebDirectives)
			if len(found) == 0 {
				continue
			}
			c.report(diag.XMLDeprecatedQwebDirective, f, n,
				fmt.Sprintf(`Deprecated QWeb directive "%s". Use "t-options" instead`, strings.Join(found, ", "))).Emit()
		}
	}
}

// checkCharLink flags local resources whose extension carries odd characters,
// usually a stray query string or a typo.
func (c *Checker) checkCharLink() {
	for _, f := range c.parsed() {
		for _, n := range f.doc.Find("link", "script") {
			attr := "href"
			if n.Tag == "script" {
				attr = "src"
			}
			res, ok := n.Get(attr)
			if !ok || !strings.HasPrefix(res, "/") {
				continue
			}
			if validExt.MatchString(path.Ext(path.Base(res))) {
				continue
			}
			c.report(diag.XMLNotValidCharLink, f, n, "The resource in src/href contains a not valid character").Emit()
		}
	}
}

func (c *Checker) checkXpathTranslatable() {
	for _, f := range c.parsed() {
		for _, n := range f.doc.Find("xpath") {
			expr, ok := n.Get("expr")
			if !ok || !translatableXpath.MatchString(expr) {
				continue
			}
			c.report(diag.XMLXpathTranslatableItem, f, n,
				fmt.Sprintf("Use of translatable xpath `%s` could break if the text is translated", expr)).Emit()
		}
	}
}

func (c *Checker) checkOeStructure() {
	for _, f := range c.parsed() {
		for _, n := range f.doc.Find() {
			if n.HasClass("oe_structure") && !n.Has("id") {
				c.report(diag.XMLOeStructureMissingID, f, n,
					fmt.Sprintf("Tag <%s> has 'oe_structure' as a class and therefore must have an id", n.Tag)).Emit()
			}
		}
	}
}

// checkHeader also runs on files that failed to parse: the declaration is
// read from raw bytes.
func (c *Checker) checkHeader() {
	for _, f := range c.files {
		switch {
		case f.doc.FirstTag == "":
			c.ctx.Report(diag.XMLHeaderMissing, f.ref.Short, 1,
				"Missing xml header, use "+Header, f.doc.FileDisabled).Emit()
			c.queueEdits(diag.XMLHeaderMissing, f, 1, insertHeader)
		case f.doc.FirstTag != Header:
			line := f.doc.FirstTagLine
			c.ctx.Report(diag.XMLHeaderWrong, f.ref.Short, line,
				fmt.Sprintf("Wrong xml header %s, use %s", f.doc.FirstTag, Header), f.doc.FileDisabled).Emit()
			found := f.doc.FirstTag
			c.queueEdits(diag.XMLHeaderWrong, f, line, func(content []byte) []fix.Edit {
				at := bytes.Index(content, []byte(found))
				if at < 0 {
					return nil
				}
				return []fix.Edit{{Start: at, End: at + len(found), NewText: Header, OldText: found}}
			})
		}
	}
}

// insertHeader puts the declaration on a new first line, after a BOM if any,
// with the file's own line ending.
func insertHeader(content []byte) []fix.Edit {
	at := 0
	if bytes.HasPrefix(content, []byte("\xef\xbb\xbf")) {
		at = 3
	}
	eol := "\n"
	if bytes.Contains(content, []byte("\r\n")) {
		eol = "\r\n"
	}
	return []fix.Edit{fix.Insert(at, Header+eol)}
}

func (c *Checker) checkOeChatter() {
	if !c.ctx.Version.AtLeast(17) {
		return
	}
	for _, f := range c.parsed() {
		for _, n := range f.doc.Find("div") {
			if n.HasClass("oe_chatter") {
				c.report(diag.XMLDeprecatedOeChatter, f, n,
					`Please replace <div class="oe_chatter"> by <chatter/>`).Emit()
			}
		}
	}
}
