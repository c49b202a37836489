package fix

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestApplyEdits(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		edits []Edit
		want  string
	}{
		{"insert at start", "<odoo/>", []Edit{Insert(0, "<?xml?>\n")}, "<?xml?>\n<odoo/>"},
		{"replace and insert", "abcdef", []Edit{{Start: 1, End: 3, NewText: "XYZ", OldText: "bc"}, Insert(5, "!")}, "aXYZde!f"},
		{"same position inserts keep order", "ab", []Edit{Insert(1, "1"), Insert(1, "2")}, "a12b"},
		{"insert before replace", "abcd", []Edit{{Start: 1, End: 3, NewText: "_"}, Insert(1, ">")}, "a>_d"},
		{"delete", "line1\nline2\n", []Edit{Delete(0, "line1\n")}, "line2\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ApplyEdits([]byte(tt.src), tt.edits)
			if err != nil {
				t.Fatalf("ApplyEdits: %v", err)
			}
			if string(got) != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestApplyEditsErrors(t *testing.T) {
	src := []byte("abcdef")
	tests := []struct {
		name  string
		edits []Edit
		want  error
	}{
		{"none", nil, ErrNoFixes},
		{"overlap", []Edit{{Start: 0, End: 3}, {Start: 2, End: 4}}, ErrConflict},
		{"insert inside span", []Edit{{Start: 0, End: 3}, Insert(1, "x")}, ErrConflict},
		{"guard", []Edit{{Start: 0, End: 2, OldText: "zz"}}, ErrGuard},
		{"range", []Edit{{Start: 4, End: 10}}, ErrOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ApplyEdits(src, tt.edits)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
	if string(src) != "abcdef" {
		t.Fatalf("input must not be modified")
	}
}

func TestSpansConflict(t *testing.T) {
	if spansConflict(Insert(2, "a"), Insert(2, "b")) {
		t.Fatalf("two inserts never conflict")
	}
	if spansConflict(Edit{Start: 0, End: 2}, Insert(2, "x")) {
		t.Fatalf("insert at end of span must not conflict")
	}
	if !spansConflict(Edit{Start: 0, End: 2}, Edit{Start: 1, End: 5}) {
		t.Fatalf("overlapping spans must conflict")
	}
}

func TestApplyKeepsModeAndIsAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "view.xml")
	if err := os.WriteFile(path, []byte("old"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := Apply(path, []byte("new")); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil || string(got) != "new" {
		t.Fatalf("content = %q, %v", got, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("mode = %v, want 0600", info.Mode().Perm())
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("temporary files left behind: %v", entries)
	}
}
