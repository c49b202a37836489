package pycheck

import (
	"bytes"
	"context"
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

const baseManifest = `{
    "name": "Sale",
    "version": "18.0.1.0.0",
    "data": ["views/a.xml"],
}
`

type env struct {
	ctx  *checker.Context
	bag  *diag.Bag
	warn *bytes.Buffer
	root string
}

func newEnv(t *testing.T, autofix bool, enable ...diag.Code) *env {
	t.Helper()
	ids := make([]string, len(enable))
	for i, c := range enable {
		ids[i] = c.ID()
	}
	bag := diag.NewBag(0)
	warn := &bytes.Buffer{}
	return &env{
		ctx: &checker.Context{
			Reporter: diag.BagReporter{Bag: bag},
			Control:  msgctl.Control{Enable: msgctl.NewSet(ids...)},
			Module:   "sale",
			Version:  manifest.Version{Major: 18},
			Autofix:  autofix,
			Warn:     warn,
			Editor:   fix.NewEditor(warn),
		},
		bag:  bag,
		warn: warn,
		root: t.TempDir(),
	}
}

// module writes the files of the "sale" module; paths are relative to it.
func (e *env) module(t *testing.T, files map[string]string) {
	t.Helper()
	if _, ok := files["__manifest__.py"]; !ok {
		files["__manifest__.py"] = baseManifest
	}
	if _, ok := files["__init__.py"]; !ok {
		files["__init__.py"] = "from . import models\n"
	}
	for name, body := range files {
		path := filepath.Join(e.root, "sale", filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

func (e *env) path(name string) string {
	return filepath.Join(e.root, "sale", filepath.FromSlash(name))
}

func (e *env) load(t *testing.T) *manifest.Record {
	t.Helper()
	rec, err := manifest.Load(context.Background(), e.path("__manifest__.py"), e.root)
	if err != nil {
		t.Fatalf("load manifest: %v", err)
	}
	return rec
}

// run checks the module as if the module directory was passed.
func (e *env) run(t *testing.T, changed ...string) []msgctl.Skip {
	t.Helper()
	rec := e.load(t)
	if len(changed) == 0 {
		changed = []string{rec.Dir}
	}
	return New(e.ctx, rec, changed).Run(rec.Installable, nil)
}

func (e *env) read(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(e.path(name))
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

type loc struct {
	Code diag.Code
	Path string
	Line int
}

func locs(items []diag.Finding) []loc {
	var out []loc
	for _, f := range items {
		out = append(out, loc{f.Code, f.Path, f.Line})
	}
	return out
}

func TestManifestSyntaxError(t *testing.T) {
	e := newEnv(t, false)
	e.module(t, map[string]string{"__manifest__.py": "{'name': "})
	skipped := e.run(t)

	items := e.bag.Items()
	if len(items) != 1 {
		t.Fatalf("expected one finding, got %v", items)
	}
	want := "sale/__manifest__.py could not be loaded: manifest malformed"
	if items[0].Code != diag.ManifestSyntaxError || items[0].Message != want || items[0].Line != 1 {
		t.Fatalf("got %s", items[0])
	}
	if len(skipped) != len(Descriptors())-1 {
		t.Fatalf("expected every gated check to be skipped, got %v", skipped)
	}
}

func TestMissingInitSkipsGatedChecks(t *testing.T) {
	e := newEnv(t, false)
	e.module(t, map[string]string{"views/b.xml": "<odoo/>"})
	if err := os.Remove(e.path("__init__.py")); err != nil {
		t.Fatal(err)
	}
	e.run(t)
	if items := e.bag.Items(); len(items) != 0 {
		t.Fatalf("expected no findings, got %v", items)
	}
}

func TestSuperfluousKeys(t *testing.T) {
	src := `{
    "name": "Sale",
    "depends": [],
    "summary": "",
    "installable": True,
    "data": ["views/a.xml"],
    "assets": {"web.assets_backend": []},
}
`
	e := newEnv(t, false, diag.ManifestSuperfluousKey)
	e.module(t, map[string]string{"__manifest__.py": src})
	e.run(t, e.path("__manifest__.py"))

	want := []loc{
		{diag.ManifestSuperfluousKey, "sale/__manifest__.py", 3},
		{diag.ManifestSuperfluousKey, "sale/__manifest__.py", 4},
		{diag.ManifestSuperfluousKey, "sale/__manifest__.py", 5},
		{diag.ManifestSuperfluousKey, "sale/__manifest__.py", 7},
	}
	if diff := cmp.Diff(want, locs(e.bag.Items())); diff != "" {
		t.Fatalf("findings (-want +got):\n%s", diff)
	}
	if got := e.bag.Items()[0].Message; got != "Delete empty values."+checker.AutofixSuffix {
		t.Fatalf("message = %q", got)
	}
}

func TestSuperfluousKeysAutofix(t *testing.T) {
	src := `{
    "name": "Sale",
    "depends": [],
    "summary": "",
    "installable": True,
    "data": ["views/a.xml"],
}
`
	e := newEnv(t, true, diag.ManifestSuperfluousKey)
	e.module(t, map[string]string{"__manifest__.py": src})
	e.run(t, e.path("__manifest__.py"))
	if n := e.bag.Len(); n != 3 {
		t.Fatalf("expected 3 findings, got %v", e.bag.Items())
	}
	want := `{
    "name": "Sale",
    "data": ["views/a.xml"],
}
`
	if diff := cmp.Diff(want, e.read(t, "__manifest__.py")); diff != "" {
		t.Fatalf("fixed manifest (-want +got):\n%s", diff)
	}

	again := newEnv(t, true, diag.ManifestSuperfluousKey)
	again.root = e.root
	again.run(t, again.path("__manifest__.py"))
	if n := again.bag.Len(); n != 0 {
		t.Fatalf("second run reported %v", again.bag.Items())
	}
}

func TestSuperfluousKeysNeedChangedManifest(t *testing.T) {
	e := newEnv(t, false, diag.ManifestSuperfluousKey)
	e.module(t, map[string]string{
		"__manifest__.py": "{\"name\": \"Sale\", \"depends\": []}\n",
		"models/sale.py":  "x = 1\n",
	})
	e.run(t, e.path("models/sale.py"))
	if n := e.bag.Len(); n != 0 {
		t.Fatalf("manifest was not changed, got %v", e.bag.Items())
	}
}

func TestReadme(t *testing.T) {
	e := newEnv(t, false, diag.MissingReadme, diag.PreferReadmeRst)
	e.module(t, map[string]string{})
	e.run(t)
	items := e.bag.Items()
	if len(items) != 1 || items[0].Code != diag.MissingReadme {
		t.Fatalf("expected missing-readme, got %v", items)
	}
	if want := "sale/README.rst missed file. Template here: " + ReadmeTemplateURL; items[0].Message != want {
		t.Fatalf("message = %q", items[0].Message)
	}

	e = newEnv(t, true, diag.MissingReadme, diag.PreferReadmeRst)
	e.module(t, map[string]string{"README.md": "# Sale\n"})
	e.run(t)
	items = e.bag.Items()
	if len(items) != 1 || items[0].Code != diag.PreferReadmeRst || items[0].Path != "sale/README.md" {
		t.Fatalf("expected prefer-readme-rst, got %v", items)
	}
	if got := e.read(t, "README.rst"); got != "# Sale\n" {
		t.Fatalf("README.rst = %q", got)
	}
	if _, err := os.Stat(e.path("README.md")); !os.IsNotExist(err) {
		t.Fatalf("README.md still there: %v", err)
	}
}

func TestFilesNotUsed(t *testing.T) {
	e := newEnv(t, false, diag.FileNotUsed)
	e.module(t, map[string]string{
		"views/a.xml":           "<odoo/>",
		"views/b.xml":           "<odoo/>",
		"security/access.csv":   "id\n",
		"static/src/xml/t.xml":  "<templates/>",
		"tests/data.xml":        "<odoo/>",
		"i18n/es.po":            "",
		"migrations/1.0/pre.py": "",
		"models/__init__.py":    "from . import sale\n",
		"models/sale.py":        "",
		"models/stock.py":       "",
		"scripts/tool.py":       "",
	})
	e.run(t)

	want := []string{
		"File sale/models/stock.py is not imported from sale/models/__init__.py",
		"File sale/security/access.csv is not referenced in the manifest",
		"File sale/views/b.xml is not referenced in the manifest",
	}
	var got []string
	for _, f := range e.bag.Items() {
		got = append(got, f.Message)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("findings (-want +got):\n%s", diff)
	}
}

func TestWalkErrorsAreReported(t *testing.T) {
	e := newEnv(t, false, diag.FileNotUsed)
	e.module(t, map[string]string{"views/a.xml": "<odoo/>"})
	rec := e.load(t)
	if err := os.RemoveAll(rec.Dir); err != nil {
		t.Fatal(err)
	}

	var files []string
	c := New(e.ctx, rec, []string{rec.Dir})
	c.moduleFiles(func(path string) { files = append(files, path) })
	if len(files) != 0 {
		t.Fatalf("walked %v in a removed module", files)
	}
	if got := e.warn.String(); !strings.HasPrefix(got, "WARNING: sale: ") || !strings.Contains(got, "no such file or directory") {
		t.Fatalf("warnings = %q", got)
	}
}

func TestHeaderComments(t *testing.T) {
	src := `#!/usr/bin/env python
# Copyright 2024 Sale Team
# License AGPL-3.0 or later
# pylint: disable=missing-docstring

from odoo import models
# not part of the header
`
	e := newEnv(t, true, diag.UseHeaderComments)
	e.module(t, map[string]string{
		"models/__init__.py": "from . import sale\n",
		"models/sale.py":     src,
		"models/only.py":     "# only comments\n# here\n",
	})
	e.run(t)

	items := e.bag.Items()
	if len(items) != 1 {
		t.Fatalf("expected one finding, got %v", items)
	}
	if items[0].Path != "sale/models/sale.py" || items[0].Line != 3 || items[0].Message != "Use of header comments in lines 2, 3" {
		t.Fatalf("got %s", items[0])
	}
	want := `#!/usr/bin/env python
# pylint: disable=missing-docstring

from odoo import models
# not part of the header
`
	if diff := cmp.Diff(want, e.read(t, "models/sale.py")); diff != "" {
		t.Fatalf("fixed file (-want +got):\n%s", diff)
	}
	if got := e.read(t, "models/only.py"); got != "# only comments\n# here\n" {
		t.Fatalf("comment only file changed: %q", got)
	}
}

func TestSourceRules(t *testing.T) {
	tests := []struct {
		name    string
		version int
		src     string
		want    []loc
		fixed   string
	}{
		{
			name:    "unused logger",
			version: 18,
			src: `import logging

from odoo import models

_logger = logging.getLogger(__name__)


class Sale(models.Model):
    _name = "x.sale"
`,
			want: []loc{{diag.UnusedLogger, "sale/models/sale.py", 5}},
			fixed: `import logging

from odoo import models


class Sale(models.Model):
    _name = "x.sale"
`,
		},
		{
			name:    "used logger",
			version: 18,
			src: `import logging

_logger = logging.getLogger(__name__)


def helper():
    _logger.info("hello")
`,
		},
		{
			name:    "env translation",
			version: 18,
			src: `from odoo import _, models
from odoo import _lt as lt


def helper(self):
    return _("Outside")


class Sale(models.Model):
    _name = "x.sale"
    label = _("Attribute")

    def action(self):
        return _("Done"), lt("Later")
`,
			want: []loc{
				{diag.PreferEnvTranslation, "sale/models/sale.py", 14},
				{diag.PreferEnvTranslation, "sale/models/sale.py", 14},
			},
			fixed: `from odoo import _, models
from odoo import _lt as lt


def helper(self):
    return _("Outside")


class Sale(models.Model):
    _name = "x.sale"
    label = _("Attribute")

    def action(self):
        return self.env._("Done"), self.env._("Later")
`,
		},
		{
			name:    "env translation before 18",
			version: 17,
			src: `from odoo import _, http


class Main(http.Controller):
    def page(self):
        return _("Done")
`,
		},
		{
			name:    "translation not from odoo",
			version: 18,
			src: `from odoo import models
from gettext import gettext as _


class Sale(models.Model):
    def action(self):
        return _("Done")
`,
		},
		{
			name:    "redundant field string",
			version: 18,
			src: `from odoo import fields, models


class Sale(models.Model):
    _name = "x.sale"

    name = fields.Char("Name")
    partner_id = fields.Many2one("res.partner", string="Partner")
    line_ids = fields.One2many("x.line", "sale_id", "Line")
    other = fields.Char(string="Different")
    label = fields.Char("Label", related="partner_id.name")

    def compute(self):
        date = fields.Date("Date")
`,
			want: []loc{
				{diag.FieldStringRedundant, "sale/models/sale.py", 7},
				{diag.FieldStringRedundant, "sale/models/sale.py", 8},
				{diag.FieldStringRedundant, "sale/models/sale.py", 9},
			},
			fixed: `from odoo import fields, models


class Sale(models.Model):
    _name = "x.sale"

    name = fields.Char()
    partner_id = fields.Many2one("res.partner", )
    line_ids = fields.One2many("x.line", "sale_id", )
    other = fields.Char(string="Different")
    label = fields.Char("Label", related="partner_id.name")

    def compute(self):
        date = fields.Date("Date")
`,
		},
		{
			name:    "field outside odoo model",
			version: 18,
			src: `from odoo import fields


class Plain:
    name = fields.Char("Name")
`,
		},
		{
			name:    "lint-ignore comments",
			version: 18,
			src: `from odoo import fields, models


class Sale(models.Model):
    name = fields.Char("Name")  # lint-ignore
    # lint-ignore=field-string-redundant
    description = fields.Text("Description")
    # lint-ignore=unused-logger
    note = fields.Text("Note")
`,
			want: []loc{{diag.FieldStringRedundant, "sale/models/sale.py", 9}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t, tt.fixed != "", diag.UnusedLogger, diag.PreferEnvTranslation, diag.FieldStringRedundant)
			e.ctx.Version = manifest.Version{Major: tt.version}
			e.module(t, map[string]string{
				"models/__init__.py": "from . import sale\n",
				"models/sale.py":     tt.src,
			})
			e.run(t, e.path("models/sale.py"))

			if diff := cmp.Diff(tt.want, locs(e.bag.Items())); diff != "" {
				t.Fatalf("findings (-want +got):\n%s", diff)
			}
			if tt.fixed == "" {
				if got := e.read(t, "models/sale.py"); got != tt.src {
					t.Fatalf("file changed without autofix:\n%s", got)
				}
				return
			}
			if diff := cmp.Diff(tt.fixed, e.read(t, "models/sale.py")); diff != "" {
				t.Fatalf("fixed file (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSourceFindingDetails(t *testing.T) {
	e := newEnv(t, false, diag.PreferEnvTranslation)
	e.module(t, map[string]string{
		"models/__init__.py": "from . import sale\n",
		"models/sale.py":     `from odoo import _, models


class Sale(models.Model):
    def action(self):
        return _("Done")
`,
	})
	e.run(t)

	items := e.bag.Items()
	if len(items) != 1 {
		t.Fatalf("expected one finding, got %v", items)
	}
	got := items[0]
	if got.Column != 16 {
		t.Errorf("column = %d", got.Column)
	}
	if !strings.HasSuffix(got.Message, checker.AutofixSuffix) {
		t.Errorf("message = %q", got.Message)
	}
	if !strings.Contains(got.Info, "`# lint-ignore=prefer-env-translation`") {
		t.Errorf("info = %q", got.Info)
	}
}

func TestSyntaxErrorSkipsSourceRules(t *testing.T) {
	e := newEnv(t, false, diag.UnusedLogger)
	e.module(t, map[string]string{
		"models/__init__.py": "from . import sale\n",
		"models/sale.py":     "import logging\n_logger = logging.getLogger(__name__)\ndef broken(:\n",
	})
	e.run(t)
	if n := e.bag.Len(); n != 0 {
		t.Fatalf("expected no findings, got %v", e.bag.Items())
	}
	if !strings.Contains(e.warn.String(), "sale/models/sale.py") {
		t.Fatalf("missing warning, got %q", e.warn.String())
	}
}

func TestTitle(t *testing.T) {
	tests := map[string]string{
		"partner_id": "Partner",
		"line_ids":   "Line",
		"date_order": "Date Order",
		"x2many":     "X2Many",
		"HTML_body":  "Html Body",
		"name":       "Name",
	}
	for in, want := range tests {
		if got := fieldLabel(in); got != want {
			t.Errorf("fieldLabel(%q) = %q, want %q", in, got, want)
		}
	}
}
