package xmlcheck

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"ocahooks/internal/checker"
	"ocahooks/internal/diag"
	"ocahooks/internal/fix"
	"ocahooks/internal/manifest"
	"ocahooks/internal/msgctl"
)

type env struct {
	ctx  *checker.Context
	bag  *diag.Bag
	warn *bytes.Buffer
	dir  string
}

func newEnv(t *testing.T, autofix bool, enable ...string) *env {
	t.Helper()
	bag := diag.NewBag(0)
	warn := &bytes.Buffer{}
	return &env{
		ctx: &checker.Context{
			Reporter: diag.BagReporter{Bag: bag},
			Control:  msgctl.Control{Enable: msgctl.NewSet(enable...)},
			Module:   "sale",
			Version:  manifest.Version{Major: 18},
			Autofix:  autofix,
			Warn:     warn,
			Editor:   fix.NewEditor(warn),
		},
		bag:  bag,
		warn: warn,
		dir:  t.TempDir(),
	}
}

// write creates files under the env dir and returns them as data references.
func (e *env) write(t *testing.T, files ...[2]string) []manifest.ReferencedFile {
	t.Helper()
	var refs []manifest.ReferencedFile
	for _, f := range files {
		path := filepath.Join(e.dir, f[0])
		if err := os.WriteFile(path, []byte(f[1]), 0o644); err != nil {
			t.Fatalf("write %s: %v", f[0], err)
		}
		refs = append(refs, manifest.ReferencedFile{Filename: path, Short: f[0], Section: "data"})
	}
	return refs
}

func (e *env) run(refs []manifest.ReferencedFile) {
	New(e.ctx, refs).Run(true, nil)
}

func codes(items []diag.Finding) []diag.Code {
	var out []diag.Code
	for _, f := range items {
		out = append(out, f.Code)
	}
	return out
}

func wrap(body string) string {
	return Header + "\n<odoo>\n" + body + "\n</odoo>\n"
}

func TestDuplicateRecordIDAcrossFiles(t *testing.T) {
	e := newEnv(t, false, string(diag.XMLDuplicateRecordID))
	rec := wrap(`    <record id="x.foo" model="m"/>`)
	e.run(e.write(t, [2]string{"a.xml", rec}, [2]string{"b.xml", rec}))

	items := e.bag.Items()
	if len(items) != 1 {
		t.Fatalf("expected one finding, got %d: %v", len(items), items)
	}
	got := items[0]
	if got.Path != "a.xml" || got.Line != 3 {
		t.Fatalf("finding anchored at %s", got.Location())
	}
	if diff := cmp.Diff([]diag.Position{{Path: "b.xml", Line: 3}}, got.Extra); diff != "" {
		t.Fatalf("extra positions (-want +got):\n%s", diff)
	}
	if got.Message != `Duplicate xml record id "x.foo" in b.xml:3` {
		t.Fatalf("message = %q", got.Message)
	}
}

func TestDuplicateRecordIDKey(t *testing.T) {
	e := newEnv(t, false, string(diag.XMLDuplicateRecordID))
	a := wrap(`    <record id="sale.foo" model="m"/>
    <data noupdate="1"><record id="foo" model="m"/></data>`)
	b := wrap(`    <record id="foo" model="m"/>
    <record id="bar" model="m"/>`)
	e.run(e.write(t, [2]string{"a.xml", a}, [2]string{"b.xml", b}, [2]string{"c.xml", b}))

	items := e.bag.Items()
	if len(items) != 2 {
		t.Fatalf("expected two findings, got %v", items)
	}
	// the module prefix is ignored, the noupdate block is a different scope
	want := [][]diag.Position{
		{{Path: "b.xml", Line: 3}, {Path: "c.xml", Line: 3}},
		{{Path: "c.xml", Line: 4}},
	}
	for i, f := range items {
		if diff := cmp.Diff(want[i], f.Extra); diff != "" {
			t.Errorf("finding %d extra (-want +got):\n%s", i, diff)
		}
	}
	if items[0].Path != "a.xml" || items[1].Path != "b.xml" {
		t.Fatalf("unexpected anchors: %s, %s", items[0].Location(), items[1].Location())
	}
}

func TestRules(t *testing.T) {
	view := func(arch string, extra string) string {
		return `<record id="v" model="ir.ui.view">` + extra + `<field name="arch" type="xml">` + arch + `</field></record>`
	}
	tests := []struct {
		name string
		body string
		raw  string
		want []diag.Code
	}{
		{name: "clean", body: `<record id="r" model="m"><field name="name">A</field></record>`},
		{name: "missing id", body: `<record model="m"><field name="name">A</field></record>`,
			want: []diag.Code{diag.XMLRecordMissingID}},
		{name: "user without id", body: `<record model="res.users"><field name="name">U</field></record>`,
			want: []diag.Code{diag.XMLRecordMissingID}},
		{name: "filter without id", body: `<record model="ir.filters"><field name="name">F</field></record>`,
			want: []diag.Code{diag.XMLRecordMissingID}},
		{name: "view without id", body: `<record model="ir.ui.view"><field name="arch" type="xml"><tree string="S"><field name="a"/></tree></field></record>`,
			want: []diag.Code{diag.XMLRecordMissingID}},
		{name: "duplicate fields without id", body: `<record model="m"><field name="a">x</field><field name="a">y</field></record>`,
			want: []diag.Code{diag.XMLRecordMissingID}},
		{name: "bool text without id", body: `<record model="m"><field name="active">True</field></record>`,
			want: []diag.Code{diag.XMLFieldBoolWithoutEval, diag.XMLRecordMissingID}},
		{name: "redundant module name", body: `<record id="sale.rec" model="m"/>`,
			want: []diag.Code{diag.XMLRedundantModuleName}},
		{name: "other module prefix", body: `<record id="base.rec" model="m"/>`},
		{name: "view replace", body: view(`<field name="x" position="replace"/>`, `<field name="inherit_id" ref="base.v"/>`),
			want: []diag.Code{diag.XMLViewDangerousReplaceLowPrio}},
		{name: "view replace high priority", body: view(`<field name="x" position="replace"/>`, `<field name="priority" eval="100"/>`)},
		{name: "view inner replace", body: view(`<xpath expr="//div" position="replace" mode="inner"/>`, "")},
		{name: "tree attrs", body: view(`<tree string="S" colors="red:x"><field name="a"/></tree>`, ""),
			want: []diag.Code{diag.XMLDeprecatedTreeAttribute}},
		{name: "user", body: `<record id="u" model="res.users"><field name="name">U</field></record>`,
			want: []diag.Code{diag.XMLCreateUserWoResetPassword}},
		{name: "user with context", body: `<record id="u" model="res.users" context="{'no_reset_password': True}"><field name="name">U</field></record>`},
		{name: "filter", body: `<record id="f" model="ir.filters"><field name="name">F</field></record>`,
			want: []diag.Code{diag.XMLDangerousFilterWoUser}},
		{name: "filter with user", body: `<record id="f" model="ir.filters"><field name="name">F</field><field name="user_id" ref="base.user_root"/></record>`},
		{name: "id position", body: `<record model="m" id="r"/>`,
			want: []diag.Code{diag.XMLIDPositionFirst}},
		{name: "menuitem id position", body: `<menuitem name="M" id="menu"/>`,
			want: []diag.Code{diag.XMLIDPositionFirst}},
		{name: "bool text", body: `<record id="r" model="m"><field name="active">True</field></record>`,
			want: []diag.Code{diag.XMLFieldBoolWithoutEval}},
		{name: "numeric text", body: `<record id="r" model="m"><field name="sequence">10</field><field name="phone">123</field></record>`,
			want: []diag.Code{diag.XMLFieldNumericWithoutEval}},
		{name: "duplicate fields", body: `<record id="r" model="m"><field name="a">x</field><field name="a">y</field></record>`,
			want: []diag.Code{diag.XMLDuplicateFields}},
		{name: "duplicate template", body: `<template id="t"><div/></template><template id="sale.t"><div/></template>`,
			want: []diag.Code{diag.XMLRedundantModuleName, diag.XMLDuplicateTemplateID}},
		{name: "qweb replace", body: `<template id="t" inherit_id="web.layout"><xpath expr="//div" position="replace"/></template>`,
			want: []diag.Code{diag.XMLDangerousQwebReplaceLowPrio}},
		{name: "qweb replace high priority", body: `<template id="t" inherit_id="web.layout" priority="100"><xpath expr="//div" position="replace"/></template>`},
		{name: "data node", raw: Header + "\n<odoo>\n<data noupdate=\"1\"><record id=\"r\" model=\"m\"/></data>\n</odoo>\n",
			want: []diag.Code{diag.XMLDeprecatedDataNode}},
		{name: "openerp node", raw: Header + "\n<openerp>\n<record id=\"r\" model=\"m\"/>\n</openerp>\n",
			want: []diag.Code{diag.XMLDeprecatedOpenerpNode}},
		{name: "qweb directive", body: `<template id="t"><span t-esc="x" t-esc-options="{}"/></template>`,
			want: []diag.Code{diag.XMLDeprecatedQwebDirective}},
		{name: "char link", body: `<template id="t"><link href="/web/static/a.css?v=1"/><script src="/web/static/a.js"/></template>`,
			want: []diag.Code{diag.XMLNotValidCharLink}},
		{name: "xpath translatable", body: `<template id="t" inherit_id="x"><xpath expr="//span[text()='Hi']" position="after"/></template>`,
			want: []diag.Code{diag.XMLXpathTranslatableItem}},
		{name: "oe_structure", body: `<template id="t"><div class="oe_structure"/><div id="s" class="oe_structure"/></template>`,
			want: []diag.Code{diag.XMLOeStructureMissingID}},
		{name: "oe_chatter", body: view(`<form><div class="oe_chatter"/></form>`, ""),
			want: []diag.Code{diag.XMLDeprecatedOeChatter}},
		{name: "wrong header", raw: "<?xml version='1.0' encoding='utf-8'?>\n<odoo/>\n",
			want: []diag.Code{diag.XMLHeaderWrong}},
		{name: "missing header", raw: "<odoo/>\n",
			want: []diag.Code{diag.XMLHeaderMissing}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t, false)
			content := tt.raw
			if content == "" {
				content = wrap(tt.body)
			}
			e.run(e.write(t, [2]string{"data.xml", content}))
			if diff := cmp.Diff(tt.want, codes(e.bag.Items())); diff != "" {
				t.Fatalf("codes (-want +got):\n%s\n%v", diff, e.bag.Items())
			}
		})
	}
}

func TestAutofixSuffix(t *testing.T) {
	e := newEnv(t, false, string(diag.XMLIDPositionFirst))
	e.run(e.write(t, [2]string{"data.xml", wrap(`<record model="m" id="r"/>`)}))
	items := e.bag.Items()
	if len(items) != 1 || !strings.HasSuffix(items[0].Message, checker.AutofixSuffix) {
		t.Fatalf("expected the autofix suffix: %v", items)
	}
}

func TestAutofixIsIdempotent(t *testing.T) {
	src := Header + `
<odoo>
    <record model="res.partner" id="sale.partner_demo">
        <field name="active">True</field>
        <field name="name">Demo</field>
    </record>
</odoo>
`
	want := Header + `
<odoo>
    <record id="partner_demo" model="res.partner">
        <field name="active" eval="True" />
        <field name="name">Demo</field>
    </record>
</odoo>
`
	e := newEnv(t, true)
	refs := e.write(t, [2]string{"data.xml", src})
	e.run(refs)

	wantCodes := []diag.Code{diag.XMLRedundantModuleName, diag.XMLIDPositionFirst, diag.XMLFieldBoolWithoutEval}
	if diff := cmp.Diff(wantCodes, codes(e.bag.Items())); diff != "" {
		t.Fatalf("first run codes (-want +got):\n%s", diff)
	}
	for _, f := range e.bag.Items() {
		if strings.HasSuffix(f.Message, checker.AutofixSuffix) {
			t.Errorf("suffix must not be added with autofix on: %q", f.Message)
		}
	}
	got, err := os.ReadFile(refs[0].Filename)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if diff := cmp.Diff(want, string(got)); diff != "" {
		t.Fatalf("fixed content (-want +got):\n%s", diff)
	}
	if n := len(e.ctx.Editor.Result().Applied); n != 3 {
		t.Fatalf("applied %d fixes, want 3", n)
	}

	again := newEnv(t, true)
	again.run(refs)
	if again.bag.Len() != 0 {
		t.Fatalf("second run reported %v", again.bag.Items())
	}
	if again.warn.Len() != 0 {
		t.Fatalf("unexpected warnings: %s", again.warn.String())
	}
}

func TestHeaderAutofix(t *testing.T) {
	e := newEnv(t, true)
	body := "<odoo>\r\n    <record id=\"r\" model=\"m\"/>\r\n</odoo>\r\n"
	refs := e.write(t, [2]string{"data.xml", body})
	e.run(refs)
	got, err := os.ReadFile(refs[0].Filename)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != Header+"\r\n"+body {
		t.Fatalf("unexpected content %q", got)
	}
}

func TestNodeDisableComment(t *testing.T) {
	e := newEnv(t, false, string(diag.XMLIDPositionFirst))
	src := wrap(`    <record model="m" id="r"/> <!-- oca-hooks:disable=xml-id-position-first -->
    <record model="m" id="r2"/> <!-- pylint:disable=xml-record-missing-id -->`)
	e.run(e.write(t, [2]string{"data.xml", src}))
	items := e.bag.Items()
	if len(items) != 1 || items[0].Line != 4 {
		t.Fatalf("expected only line 4: %v", items)
	}
	if !strings.Contains(e.warn.String(), `data.xml:4 deprecated "pylint:disable" marker`) {
		t.Fatalf("missing deprecation warning: %q", e.warn.String())
	}
}

func TestSyntaxErrorKeepsHeaderCheck(t *testing.T) {
	e := newEnv(t, false)
	e.run(e.write(t, [2]string{"broken.xml", "<odoo>\n<record id=\"r\">\n</odoo>\n"}))
	want := []diag.Code{diag.XMLSyntaxError, diag.XMLHeaderMissing}
	if diff := cmp.Diff(want, codes(e.bag.Items())); diff != "" {
		t.Fatalf("codes (-want +got):\n%s", diff)
	}
}

func TestNotInstallableSkipsEverything(t *testing.T) {
	e := newEnv(t, false)
	c := New(e.ctx, e.write(t, [2]string{"data.xml", "<odoo/>\n"}))
	skipped := c.Run(false, nil)
	if e.bag.Len() != 0 {
		t.Fatalf("unexpected findings: %v", e.bag.Items())
	}
	if len(skipped) != len(Descriptors()) {
		t.Fatalf("skipped %d of %d descriptors", len(skipped), len(Descriptors()))
	}
}
