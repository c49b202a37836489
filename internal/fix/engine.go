package fix

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

var (
	// ErrNoFixes is returned when no edits were applied.
	ErrNoFixes = errors.New("no applicable fixes found")
	// ErrConflict is returned when two edits touch the same bytes.
	ErrConflict = errors.New("conflicting edits")
	// ErrGuard is returned when OldText does not match the current content.
	ErrGuard = errors.New("existing text does not match expected content")
	// ErrOutOfRange is returned for spans outside the content.
	ErrOutOfRange = errors.New("edit span out of range")
)

// Edit replaces content[Start:End] with NewText. A non-empty OldText must match
// the replaced bytes exactly.
type Edit struct {
	Start   int
	End     int
	NewText string
	OldText string
}

// Insert builds a zero-length edit.
func Insert(at int, text string) Edit {
	return Edit{Start: at, End: at, NewText: text}
}

// Delete builds an edit removing old, which must start at at.
func Delete(at int, old string) Edit {
	return Edit{Start: at, End: at + len(old), OldText: old}
}

// ApplyEdits applies edits to a copy of content. Edits are expressed against
// the original content; overlapping spans are rejected as a whole.
func ApplyEdits(content []byte, edits []Edit) ([]byte, error) {
	if len(edits) == 0 {
		return nil, ErrNoFixes
	}
	sorted := append([]Edit(nil), edits...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Start == sorted[j].Start {
			return sorted[i].End < sorted[j].End
		}
		return sorted[i].Start < sorted[j].Start
	})

	for i, e := range sorted {
		if e.Start < 0 || e.End < e.Start || e.End > len(content) {
			return nil, fmt.Errorf("%w: [%d,%d) of %d bytes", ErrOutOfRange, e.Start, e.End, len(content))
		}
		if e.OldText != "" && string(content[e.Start:e.End]) != e.OldText {
			return nil, fmt.Errorf("%w at offset %d", ErrGuard, e.Start)
		}
		for _, prev := range sorted[:i] {
			if spansConflict(prev, e) {
				return nil, fmt.Errorf("%w: [%d,%d) and [%d,%d)", ErrConflict, prev.Start, prev.End, e.Start, e.End)
			}
		}
	}

	working := append([]byte(nil), content...)
	applied := make([]Edit, 0, len(sorted))
	for _, e := range sorted {
		start := e.Start + cumulativeDelta(applied, e.Start)
		end := e.End + cumulativeDelta(applied, e.End)
		suffix := append([]byte(nil), working[end:]...)
		working = append(append(working[:start], e.NewText...), suffix...)
		applied = insertEditSorted(applied, e)
	}
	return working, nil
}

// spansConflict reports whether two edits' spans overlap.
// Spans are treated as half-open intervals [Start, End). Two zero-length edits
// never conflict. A zero-length edit conflicts with a non-zero span if its
// position is within that span (Start <= pos < End).
func spansConflict(a, b Edit) bool {
	if a.Start == a.End && b.Start == b.End {
		return false
	}
	if a.Start == a.End {
		return b.Start <= a.Start && a.Start < b.End
	}
	if b.Start == b.End {
		return a.Start <= b.Start && b.Start < a.End
	}
	return a.Start < b.End && b.Start < a.End
}

// cumulativeDelta is the length change introduced before pos by already
// applied edits.
func cumulativeDelta(edits []Edit, pos int) int {
	delta := 0
	for _, e := range edits {
		if e.Start > pos {
			break
		}
		if e.End <= pos {
			delta += len(e.NewText) - (e.End - e.Start)
		}
	}
	return delta
}

func insertEditSorted(edits []Edit, edit Edit) []Edit {
	idx := sort.Search(len(edits), func(i int) bool {
		if edits[i].Start == edit.Start {
			return edits[i].End >= edit.End
		}
		return edits[i].Start > edit.Start
	})
	edits = append(edits, Edit{})
	copy(edits[idx+1:], edits[idx:])
	edits[idx] = edit
	return edits
}

// Apply overwrites path with content atomically: the bytes go to a temporary
// file next to path which then replaces it. The file mode is kept.
// Callers must re-parse the file before reading positions again.
func Apply(path string, content []byte) (err error) {
	mode := os.FileMode(0o644)
	if info, statErr := os.Stat(path); statErr == nil {
		mode = info.Mode().Perm()
	}

	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, "."+base+".tmp*")
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(content); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err = tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
