package xmlcheck

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"ocahooks/internal/diag"
	"ocahooks/internal/dupes"
	"ocahooks/internal/fix"
	"ocahooks/internal/xmldom"
)

type recordKey struct {
	section  string
	id       string
	noupdate string
}

type fieldKey struct {
	name         string
	context      string
	filterDomain string
	parent       *xmldom.Node
}

var deprecatedTreeAttrs = []string{"colors", "fonts", "string"}

var (
	numericText = regexp.MustCompile(`^-?\d+(\.\d+)?$`)
	// text fields that commonly hold digits
	numericExempt = regexp.MustCompile(`(phone|mobile|fax|zip|vat|barcode|_code|^ref)$`)
)

// checkRecords is the single pass over <record> nodes that feeds every record
// visitor and the duplicate id aggregator.
func (c *Checker) checkRecords() {
	ids := dupes.New[recordKey, *xmldom.Node]()
	owner := make(map[*xmldom.Node]*file)
	for _, f := range c.parsed() {
		root := f.odooRoot()
		if root == nil {
			continue
		}
		for _, rec := range root.Find("record") {
			c.visitFieldValues(f, rec)
			id, ok := rec.Get("id")
			if !ok {
				c.report(diag.XMLRecordMissingID, f, rec,
					"Record has no id, add a unique one to create a new record or reference the record to modify").Emit()
				continue
			}
			// the record visitors only see records with an id
			key := recordKey{
				section:  f.ref.Section,
				id:       c.normalizeID(id),
				noupdate: noupdate(rec),
			}
			ids.Add(key, dupes.Occurrence[*xmldom.Node]{Path: f.ref.Short, Line: rec.Line, Ref: rec})
			owner[rec] = f
			c.visitRedundantModuleName(f, rec)
			c.visitIDFirst(f, rec)
			c.visitDuplicateFields(f, rec)
			c.visitRecordView(f, rec)
			c.visitRecordUser(f, rec)
			c.visitRecordFilter(f, rec)
		}
	}

	for _, g := range ids.Groups() {
		first := g.First.Ref
		f := owner[first]
		c.report(diag.XMLDuplicateRecordID, f, first,
			fmt.Sprintf("Duplicate xml record id %q in %s", first.Attr("id"), positions(g.Others))).
			WithExtra(extra(g.Others)...).
			Emit()
	}
}

// normalizeID drops our own module prefix: "sale.view_x" and "view_x" are the
// same record inside module sale.
func (c *Checker) normalizeID(id string) string {
	if c.ctx.Module != "" {
		return strings.TrimPrefix(id, c.ctx.Module+".")
	}
	return id
}

func noupdate(n *xmldom.Node) string {
	if n.Parent != nil {
		if v, ok := n.Parent.Get("noupdate"); ok {
			return v
		}
	}
	return "0"
}

func positions[V any](occ []dupes.Occurrence[V]) string {
	return diag.FormatPositions(extra(occ))
}

func extra[V any](occ []dupes.Occurrence[V]) []diag.Position {
	out := make([]diag.Position, len(occ))
	for i, o := range occ {
		out[i] = diag.Position{Path: o.Path, Line: o.Line}
	}
	return out
}

func (c *Checker) visitRedundantModuleName(f *file, n *xmldom.Node) {
	if c.ctx.Module == "" {
		return
	}
	id := n.Attr("id")
	module, name, ok := strings.Cut(id, ".")
	if !ok || module != c.ctx.Module {
		return
	}
	c.report(diag.XMLRedundantModuleName, f, n,
		fmt.Sprintf(`Redundant module name <%s id="%s"> better using only <%s id="%s">`, n.Tag, id, n.Tag, name)).Emit()
	c.queue(diag.XMLRedundantModuleName, f, n, func(b []byte) ([]byte, bool) {
		return fix.SetAttrValue(b, "id", name)
	})
}

func (c *Checker) visitIDFirst(f *file, n *xmldom.Node) {
	if n.AttrIndex("id") <= 0 {
		return
	}
	c.report(diag.XMLIDPositionFirst, f, n,
		fmt.Sprintf(`Attribute "id" should be the first attribute of <%s>`, n.Tag)).Emit()
	c.queue(diag.XMLIDPositionFirst, f, n, func(b []byte) ([]byte, bool) {
		return fix.MoveAttrFirst(b, "id")
	})
}

// visitDuplicateFields looks for the same field set twice at the same level
// of one record. Inheriting views may legitimately repeat fields.
func (c *Checker) visitDuplicateFields(f *file, rec *xmldom.Node) {
	for _, fld := range rec.Child("field") {
		if fld.Attr("name") == "inherit_id" {
			return
		}
	}
	agg := dupes.New[fieldKey, *xmldom.Node]()
	add := func(fld *xmldom.Node) {
		name, ok := fld.Get("name")
		if !ok {
			return
		}
		key := fieldKey{
			name:         name,
			context:      fld.Attr("context"),
			filterDomain: fld.Attr("filter_domain"),
			parent:       fld.Parent,
		}
		agg.Add(key, dupes.Occurrence[*xmldom.Node]{Path: f.ref.Short, Line: fld.Line, Ref: fld})
	}
	for _, fld := range rec.Child("field") {
		add(fld)
		for _, inner := range fld.Elements() {
			for _, sub := range inner.Child("field") {
				add(sub)
				for _, view := range sub.Elements() {
					if view.Tag != "tree" && view.Tag != "form" {
						continue
					}
					for _, leaf := range view.Child("field") {
						add(leaf)
					}
				}
			}
		}
	}
	for _, g := range agg.Groups() {
		lines := make([]string, len(g.Others))
		for i, o := range g.Others {
			lines[i] = strconv.Itoa(o.Line)
		}
		c.report(diag.XMLDuplicateFields, f, g.First.Ref,
			fmt.Sprintf("Duplicate xml field %q in lines %s", g.Key.name, strings.Join(lines, ", "))).
			WithExtra(extra(g.Others)...).
			Emit()
	}
}

func fieldNamed(rec *xmldom.Node, name string) *xmldom.Node {
	for _, fld := range rec.Child("field") {
		if fld.Attr("name") == name {
			return fld
		}
	}
	return nil
}

// priority parses a priority value, falling back to the Odoo default for
// values that are not integers.
func priority(raw string) int {
	p, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return defaultViewPriority
	}
	return p
}

func viewPriority(rec *xmldom.Node) int {
	fld := fieldNamed(rec, "priority")
	if fld == nil {
		return defaultViewPriority
	}
	if v, ok := fld.Get("eval"); ok {
		return priority(v)
	}
	return priority(fld.TextContent())
}

// replaces reports whether some element below n uses position="replace".
// Inner replaces of an xpath keep the node itself and are not dangerous.
func replaces(n *xmldom.Node) bool {
	for _, d := range n.Find() {
		if d.Attr("position") == "replace" && d.Attr("mode") != "inner" {
			return true
		}
	}
	return false
}

func (c *Checker) visitRecordView(f *file, rec *xmldom.Node) {
	if rec.Attr("model") != "ir.ui.view" {
		return
	}
	var arch *xmldom.Node
	for _, fld := range rec.Child("field") {
		if fld.Attr("name") == "arch" {
			arch = fld
			break
		}
	}
	if arch == nil {
		return
	}
	if prio := viewPriority(rec); prio < MinPriority && replaces(arch) {
		c.report(diag.XMLViewDangerousReplaceLowPrio, f, rec,
			fmt.Sprintf(`Dangerous use of "replace" from view with priority %d < %d`, prio, MinPriority)).Emit()
	}
	for _, tree := range arch.Find("tree") {
		var found []string
		for _, a := range deprecatedTreeAttrs {
			if tree.Has(a) {
				found = append(found, a)
			}
		}
		if len(found) == 0 {
			continue
		}
		c.report(diag.XMLDeprecatedTreeAttribute, f, tree,
			fmt.Sprintf(`Deprecated "<tree %s=..."`, strings.Join(found, ","))).Emit()
	}
}

// visitRecordUser only looks at records creating a user, recognised by the
// name field.
func (c *Checker) visitRecordUser(f *file, rec *xmldom.Node) {
	if rec.Attr("model") != "res.users" || fieldNamed(rec, "name") == nil {
		return
	}
	if strings.Contains(rec.Attr("context"), "no_reset_password") {
		return
	}
	c.report(diag.XMLCreateUserWoResetPassword, f, rec,
		`record res.users without context="{'no_reset_password': True}"`).Emit()
}

func (c *Checker) visitRecordFilter(f *file, rec *xmldom.Node) {
	if rec.Attr("model") != "ir.filters" {
		return
	}
	if fieldNamed(rec, "name") == nil || fieldNamed(rec, "user_id") != nil {
		return
	}
	c.report(diag.XMLDangerousFilterWoUser, f, rec, "Dangerous filter without explicit `user_id`").Emit()
}

// visitFieldValues flags literal booleans and numbers written as field text,
// which Odoo stores as strings.
func (c *Checker) visitFieldValues(f *file, rec *xmldom.Node) {
	for _, fld := range rec.Child("field") {
		if fld.Has("eval") || fld.Has("ref") || fld.Has("type") || fld.Has("attrs") || fld.Has("search") || fld.Has("file") {
			continue
		}
		if len(fld.Elements()) > 0 {
			continue
		}
		name := fld.Attr("name")
		value := strings.TrimSpace(fld.TextContent())
		switch {
		case value == "True" || value == "False":
			c.report(diag.XMLFieldBoolWithoutEval, f, fld,
				fmt.Sprintf(`Use <field name="%s" eval="%s"/> instead of <field name="%s">%s</field>`, name, value, name, value)).Emit()
			c.queue(diag.XMLFieldBoolWithoutEval, f, fld, func(b []byte) ([]byte, bool) {
				return fix.TextToEval(b, "eval")
			})
		case numericText.MatchString(value) && !numericExempt.MatchString(name):
			c.report(diag.XMLFieldNumericWithoutEval, f, fld,
				fmt.Sprintf(`Use <field name="%s" eval="%s"/> instead of <field name="%s">%s</field>`, name, value, name, value)).Emit()
			if fitsInt32(value) {
				c.queue(diag.XMLFieldNumericWithoutEval, f, fld, func(b []byte) ([]byte, bool) {
					return fix.TextToEval(b, "eval")
				})
			}
		}
	}
}

func fitsInt32(s string) bool {
	v, err := strconv.ParseInt(s, 10, 64)
	return err == nil && v >= math.MinInt32 && v <= math.MaxInt32
}

// sortedAttrs returns the names of n's attributes that are in set, sorted.
func sortedAttrs(n *xmldom.Node, set map[string]bool) []string {
	var out []string
	for _, a := range n.Attrs {
		if set[a.Name] {
			out = append(out, a.Name)
		}
	}
	sort.Strings(out)
	return out
}
