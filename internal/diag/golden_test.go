package diag

import (
	"testing"
)

func TestFormatGolden(t *testing.T) {
	findings := []Finding{
		New(XMLSyntaxError, "mod/views/b.xml", 3, "first\nsecond"),
		New(XMLDuplicateRecordID, "mod/views/a.xml", 7, `Duplicate xml record id "foo"`).
			WithExtra(Position{Path: "mod/views/b.xml", Line: 2}),
		New(ManifestSyntaxError, "mod/__manifest__.py", -1, "could not be loaded"),
	}

	got := FormatGolden(findings)
	want := "manifest-syntax-error mod/__manifest__.py could not be loaded\n" +
		`xml-duplicate-record-id mod/views/a.xml:7 Duplicate xml record id "foo" [mod/views/b.xml:2]` + "\n" +
		`xml-syntax-error mod/views/b.xml:3 first\nsecond`
	if got != want {
		t.Fatalf("unexpected golden output:\n%s\nwant:\n%s", got, want)
	}

	// исходный срез не должен переупорядочиваться
	if findings[0].Code != XMLSyntaxError {
		t.Fatalf("input slice was modified")
	}
}

func TestFormatGoldenEmpty(t *testing.T) {
	if got := FormatGolden(nil); got != "" {
		t.Fatalf("expected empty output, got %q", got)
	}
}

func TestBagByCodeAndDedup(t *testing.T) {
	bag := NewBag(0)
	r := NewDedupReporter(BagReporter{Bag: bag})

	r.Report(New(CSVDuplicateRecordID, "a.csv", 2, "dup"))
	r.Report(New(CSVDuplicateRecordID, "a.csv", 2, "dup"))
	r.Report(New(CSVSyntaxError, "b.csv", 1, "bad"))
	r.Report(New(CSVDuplicateRecordID, "c.csv", 4, "dup"))

	if bag.Len() != 3 {
		t.Fatalf("expected 3 findings after dedup, got %d", bag.Len())
	}
	order, groups := bag.ByCode()
	if len(order) != 2 || order[0] != CSVDuplicateRecordID || order[1] != CSVSyntaxError {
		t.Fatalf("unexpected code order %v", order)
	}
	if len(groups[CSVDuplicateRecordID]) != 2 {
		t.Fatalf("expected 2 duplicate findings, got %d", len(groups[CSVDuplicateRecordID]))
	}
}

func TestBagLimit(t *testing.T) {
	bag := NewBag(1)
	if !bag.Add(New(XMLSyntaxError, "a.xml", 1, "x")) {
		t.Fatalf("first add must succeed")
	}
	if bag.Add(New(XMLSyntaxError, "b.xml", 1, "x")) {
		t.Fatalf("second add must hit the limit")
	}
}

func TestFilterReporter(t *testing.T) {
	bag := NewBag(0)
	r := FilterReporter{
		Next:  BagReporter{Bag: bag},
		Allow: func(f Finding) bool { return f.Code != XMLHeaderMissing },
	}
	Build(r, XMLHeaderMissing, "a.xml", 1, "missing").Emit()
	b := Build(r, XMLHeaderWrong, "a.xml", 1, "wrong").WithInfo("use UTF-8")
	b.Emit()
	b.Emit()

	if bag.Len() != 1 {
		t.Fatalf("expected exactly one finding, got %d", bag.Len())
	}
	if got := bag.Items()[0]; got.Code != XMLHeaderWrong || got.Info != "use UTF-8" {
		t.Fatalf("unexpected finding %+v", got)
	}
}

func TestCatalog(t *testing.T) {
	codes := Codes()
	if len(codes) == 0 {
		t.Fatalf("empty catalog")
	}
	for i := 1; i < len(codes); i++ {
		if codes[i-1] >= codes[i] {
			t.Fatalf("codes not sorted at %d: %s >= %s", i, codes[i-1], codes[i])
		}
	}
	if !XMLIDPositionFirst.Fixable() || XMLDuplicateRecordID.Fixable() {
		t.Errorf("unexpected fixable flags")
	}
	if Code("nope").Known() {
		t.Errorf("unknown code reported as known")
	}
}
