package msgctl

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"ocahooks/internal/diag"
)

func TestParseSet(t *testing.T) {
	got := ParseSet(" a, b,,c ,").Sorted()
	want := []string{"a", "b", "c"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ParseSet mismatch (-want +got):\n%s", diff)
	}
	if ParseSet("").Len() != 0 {
		t.Fatalf("empty input must give empty set")
	}
}

func TestIsEnabled(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		enable  Set
		disable Set
		extra   Set
		want    bool
	}{
		{"default", "x", nil, nil, nil, true},
		{"extra wins", "x", NewSet("x"), nil, NewSet("x"), false},
		{"enable only", "x", NewSet("x"), nil, nil, true},
		{"enable excludes", "y", NewSet("x"), nil, nil, false},
		{"enable beats disable", "x", NewSet("x"), NewSet("x"), nil, true},
		{"disable", "x", nil, NewSet("x"), nil, false},
		{"disable other", "y", nil, NewSet("x"), nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsEnabled(tt.code, tt.enable, tt.disable, tt.extra); got != tt.want {
				t.Errorf("IsEnabled(%q) = %v, want %v", tt.code, got, tt.want)
			}
		})
	}
}

func TestActive(t *testing.T) {
	var ran []string
	descs := []Descriptor[*[]string]{
		{Name: "dup", Codes: []diag.Code{diag.XMLDuplicateRecordID}, Run: func(*[]string) { ran = append(ran, "dup") }},
		{Name: "both", Codes: []diag.Code{diag.XMLRedundantModuleName, diag.XMLRecordMissingID}},
		{Name: "always"},
		{Name: "gated", NeedsInstallable: true},
	}

	tests := []struct {
		name        string
		ctl         Control
		installable bool
		want        []string
	}{
		{"all", Control{}, true, []string{"dup", "both", "always", "gated"}},
		{"not installable", Control{}, false, []string{"dup", "both", "always"}},
		{"enable one", Control{Enable: NewSet(string(diag.XMLRecordMissingID))}, true, []string{"both", "always", "gated"}},
		{"disable partial", Control{Disable: NewSet(string(diag.XMLRecordMissingID))}, true, []string{"dup", "both", "always", "gated"}},
		{"disable all codes", Control{Disable: NewSet(string(diag.XMLRedundantModuleName), string(diag.XMLRecordMissingID))}, true, []string{"dup", "always", "gated"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			active, _ := Active(descs, tt.ctl, tt.installable)
			got := make([]string, 0, len(active))
			for _, d := range active {
				got = append(got, d.Name)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Active mismatch (-want +got):\n%s", diff)
			}
		})
	}

	active, _ := Active(descs[:1], Control{}, true)
	active[0].Run(nil)
	if len(ran) != 1 {
		t.Fatalf("descriptor Run was not invoked")
	}
}

func TestActiveSkipReasons(t *testing.T) {
	descs := []Descriptor[int]{
		{Name: "a", Codes: []diag.Code{diag.CSVDuplicateRecordID}},
		{Name: "b", NeedsInstallable: true},
	}
	_, skipped := Active(descs, Control{Enable: NewSet("other")}, false)
	want := []Skip{{Name: "a", Reason: SkipNotEnabled}, {Name: "b", Reason: SkipNotInstallable}}
	if diff := cmp.Diff(want, skipped); diff != "" {
		t.Fatalf("skips mismatch (-want +got):\n%s", diff)
	}
}

func TestParseDisableComment(t *testing.T) {
	tests := []struct {
		text       string
		want       []string
		deprecated bool
		ok         bool
	}{
		{" oca-hooks:disable=a,b ", []string{"a", "b"}, false, true},
		{"pylint:disable=a", []string{"a"}, true, true},
		{"oca-hooks:disable=a trailing words", []string{"a"}, false, true},
		{"just a comment", nil, false, false},
	}
	for _, tt := range tests {
		codes, deprecated, ok := ParseDisableComment(tt.text)
		if ok != tt.ok || deprecated != tt.deprecated {
			t.Errorf("ParseDisableComment(%q) ok=%v deprecated=%v", tt.text, ok, deprecated)
			continue
		}
		if !ok {
			continue
		}
		if diff := cmp.Diff(tt.want, codes.Sorted()); diff != "" {
			t.Errorf("codes mismatch for %q (-want +got):\n%s", tt.text, diff)
		}
	}
}

func TestActiveEnableWinsOverDisable(t *testing.T) {
	descs := []Descriptor[int]{{Name: "dup", Codes: []diag.Code{diag.XMLDuplicateRecordID}}}
	code := string(diag.XMLDuplicateRecordID)
	active, _ := Active(descs, Control{Enable: NewSet(code), Disable: NewSet(code)}, true)
	if len(active) != 1 {
		t.Fatalf("descriptor must run when its code is both enabled and disabled")
	}
}
