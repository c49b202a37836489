package fix

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ocahooks/internal/diag"
	"ocahooks/internal/xmldom"
)

func TestEditorRewriteIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.xml")
	src := "<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n<odoo>\n    <record model=\"res.partner\" id=\"p1\">\n        <field name=\"name\">P</field>\n    </record>\n</odoo>\n"
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	var warn bytes.Buffer
	ed := NewEditor(&warn)
	tgt := Target{Path: path, Short: "data.xml", Line: 3}
	move := func(node []byte) ([]byte, bool) { return MoveAttrFirst(node, "id") }

	for pass := 0; pass < 2; pass++ {
		doc, err := xmldom.ParseFile(path)
		if err != nil {
			t.Fatalf("parse pass %d: %v", pass, err)
		}
		rec := doc.Root().Child("record")[0]
		if rec.AttrIndex("id") == 0 {
			continue
		}
		if _, err := ed.Rewrite(diag.XMLIDPositionFirst, tgt, rec, move); err != nil {
			t.Fatalf("Rewrite: %v", err)
		}
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := strings.Replace(src, `model="res.partner" id="p1"`, `id="p1" model="res.partner"`, 1)
	if string(got) != want {
		t.Fatalf("content mismatch:\n%s", got)
	}
	res := ed.Result()
	if len(res.Applied) != 1 || len(res.Skipped) != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if warn.Len() != 0 {
		t.Fatalf("unexpected warnings: %s", warn.String())
	}
}

func TestEditorRewriteNestedSameTag(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "menu.xml")
	src := "<odoo>\n    <menuitem name=\"A\" id=\"a\"><menuitem name=\"B\" id=\"b\"/></menuitem>\n</odoo>\n"
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	var warn bytes.Buffer
	ed := NewEditor(&warn)
	tgt := Target{Path: path, Short: "menu.xml", Line: 2}
	move := func(node []byte) ([]byte, bool) { return MoveAttrFirst(node, "id") }

	// the parse is repeated after every rewrite, as the xml checker does
	for _, nested := range []bool{true, false} {
		doc, err := xmldom.ParseFile(path)
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		n := doc.Root().Child("menuitem")[0]
		if nested {
			n = n.Child("menuitem")[0]
		}
		if _, err := ed.Rewrite(diag.XMLIDPositionFirst, tgt, n, move); err != nil {
			t.Fatalf("Rewrite: %v", err)
		}
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := "<odoo>\n    <menuitem id=\"a\" name=\"A\"><menuitem id=\"b\" name=\"B\"/></menuitem>\n</odoo>\n"
	if string(got) != want {
		t.Fatalf("content mismatch:\n%s", got)
	}
	if res := ed.Result(); len(res.Applied) != 2 || len(res.Skipped) != 0 {
		t.Fatalf("unexpected result: %+v, warnings %q", res, warn.String())
	}
}

func TestEditorSkipsUnmatchedPattern(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.xml")
	src := "<odoo>\n<record id=\"p1\" model=\"m\"/>\n</odoo>\n"
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	doc, err := xmldom.ParseFile(path)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var warn bytes.Buffer
	ed := NewEditor(&warn)
	changed, err := ed.Rewrite(diag.XMLIDPositionFirst, Target{Path: path, Short: "data.xml", Line: 2}, doc.Root().Child("record")[0],
		func(node []byte) ([]byte, bool) { return MoveAttrFirst(node, "id") })
	if err != nil || changed {
		t.Fatalf("changed=%v err=%v", changed, err)
	}
	if want := "WARNING: autofix xml-id-position-first skipped for data.xml:2: pattern not matched\n"; warn.String() != want {
		t.Fatalf("warning = %q", warn.String())
	}
	got, _ := os.ReadFile(path)
	if string(got) != src {
		t.Fatalf("file must be untouched")
	}
}

func TestEditorEditAndRename(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "README.md")
	if err := os.WriteFile(path, []byte("# title\nbody\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	ed := NewEditor(nil)
	changed, err := ed.Edit(diag.UseHeaderComments, Target{Path: path, Short: "README.md", Line: 1}, []Edit{Delete(0, "# title\n")})
	if err != nil || !changed {
		t.Fatalf("Edit changed=%v err=%v", changed, err)
	}
	newPath := filepath.Join(dir, "README.rst")
	if err := ed.Rename(diag.PreferReadmeRst, Target{Path: path, Short: "README.md"}, newPath); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	got, err := os.ReadFile(newPath)
	if err != nil || string(got) != "body\n" {
		t.Fatalf("renamed content = %q, %v", got, err)
	}
	if n := len(ed.Result().Applied); n != 2 {
		t.Fatalf("applied = %d, want 2", n)
	}
}
