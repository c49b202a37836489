package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"ocahooks/internal/diag"
	"ocahooks/internal/fix"
)

func sample() []diag.Finding {
	dup := diag.New(diag.XMLDuplicateRecordID, "sale/a.xml", 3, `Duplicate xml record id "x.foo" in sale/b.xml:3`).
		WithExtra(diag.Position{Path: "sale/b.xml", Line: 3})
	return []diag.Finding{
		dup,
		diag.New(diag.MissingReadme, "sale/__manifest__.py", 1, "sale/README.rst missed file").WithInfo("see template"),
		diag.New(diag.XMLDuplicateRecordID, "sale/c.xml", 7, `Duplicate xml record id "x.bar" in sale/d.xml:2`),
	}
}

func TestText(t *testing.T) {
	var buf bytes.Buffer
	if err := Text(&buf, sample(), Options{Modules: 1}); err != nil {
		t.Fatalf("Text: %v", err)
	}
	want := strings.Join([]string{
		"",
		"****xml-duplicate-record-id****",
		`sale/a.xml:3 Duplicate xml record id "x.foo" in sale/b.xml:3 - [xml-duplicate-record-id]`,
		`sale/c.xml:7 Duplicate xml record id "x.bar" in sale/d.xml:2 - [xml-duplicate-record-id]`,
		"",
		"****missing-readme****",
		"sale/__manifest__.py:1 sale/README.rst missed file - [missing-readme]",
		"    see template",
		"",
		"3 finding(s) in 1 module(s)",
		"",
	}, "\n")
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Fatalf("text (-want +got):\n%s", diff)
	}
}

func TestTextColor(t *testing.T) {
	var buf bytes.Buffer
	if err := Text(&buf, sample()[:1], Options{Color: true, Modules: 1}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "\x1b[") {
		t.Fatalf("expected ANSI sequences in %q", buf.String())
	}
}

func TestSummary(t *testing.T) {
	if got := Summary(2, -1); got != "2 finding(s)" {
		t.Errorf("Summary(2, -1) = %q", got)
	}
	if got := Summary(0, 3); got != "0 finding(s) in 3 module(s)" {
		t.Errorf("Summary(0, 3) = %q", got)
	}
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := JSON(&buf, sample()); err != nil {
		t.Fatalf("JSON: %v", err)
	}
	var got Output
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v\n%s", err, buf.String())
	}
	if got.Count != 3 || len(got.Findings) != 3 {
		t.Fatalf("count %d, findings %d", got.Count, len(got.Findings))
	}
	want := FindingJSON{
		Code:           "xml-duplicate-record-id",
		Message:        `Duplicate xml record id "x.foo" in sale/b.xml:3`,
		Path:           "sale/a.xml",
		Line:           3,
		Column:         -1,
		ExtraPositions: []PositionJSON{{Path: "sale/b.xml", Line: 3}},
	}
	if diff := cmp.Diff(want, got.Findings[0]); diff != "" {
		t.Fatalf("first finding (-want +got):\n%s", diff)
	}
	if got.Findings[1].Info != "see template" {
		t.Fatalf("info = %q", got.Findings[1].Info)
	}
}

func TestJSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := JSON(&buf, nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"findings": []`) {
		t.Fatalf("empty report = %s", buf.String())
	}
}

func TestListMsgs(t *testing.T) {
	var buf bytes.Buffer
	ListMsgs(&buf, []diag.Code{diag.MissingReadme, diag.SpaceInFilename, diag.XMLDuplicateRecordID})
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %q", lines)
	}
	col := len("xml-duplicate-record-id") + 2
	for _, l := range lines {
		if len(l) <= col || l[col-1] != ' ' || l[col] == ' ' {
			t.Errorf("title not aligned at %d: %q", col, l)
		}
	}
	if !strings.HasSuffix(lines[1], "[autofix]") {
		t.Errorf("fixable code not marked: %q", lines[1])
	}
}

func TestFixes(t *testing.T) {
	var buf bytes.Buffer
	Fixes(&buf, fix.ApplyResult{})
	if buf.Len() != 0 {
		t.Fatalf("empty result printed %q", buf.String())
	}
	Fixes(&buf, fix.ApplyResult{
		Applied: []fix.AppliedFix{{Path: "a.xml"}, {Path: "a.xml"}, {Path: "b.xml"}},
		Skipped: []fix.SkippedFix{{Path: "c.xml"}},
	})
	if got, want := buf.String(), "Applied 3 fix(es) in 2 file(s), 1 skipped\n"; got != want {
		t.Fatalf("Fixes = %q, want %q", got, want)
	}
}
