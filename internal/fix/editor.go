package fix

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"ocahooks/internal/diag"
	"ocahooks/internal/xmldom"
)

// AppliedFix records one successful rewrite.
type AppliedFix struct {
	Code      diag.Code
	Path      string
	Line      int
	EditCount int
}

// SkippedFix records an abandoned rewrite with its reason.
type SkippedFix struct {
	Code   diag.Code
	Path   string
	Line   int
	Reason string
}

// ApplyResult aggregates what an Editor did.
type ApplyResult struct {
	Applied []AppliedFix
	Skipped []SkippedFix
}

// Target names the file a fix works on: Path is opened, Short is used in
// messages.
type Target struct {
	Path  string
	Short string
	Line  int
}

// Editor performs located rewrites on disk one at a time and keeps a log of
// applied and skipped fixes. Warnings about abandoned fixes go to Warn.
type Editor struct {
	Warn io.Writer

	mu     sync.Mutex
	result ApplyResult
}

func NewEditor(warn io.Writer) *Editor {
	return &Editor{Warn: warn}
}

// Rewrite locates n in the file, feeds its bytes to fn and writes the result.
// It reports whether the file changed. A location or pattern failure is not an
// error: the fix is skipped with a warning and the file is left alone.
func (e *Editor) Rewrite(code diag.Code, tgt Target, n *xmldom.Node, fn Rewriter) (bool, error) {
	content, err := os.ReadFile(tgt.Path)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", tgt.Path, err)
	}
	p, err := Locate(content, n)
	if err != nil {
		e.skip(code, tgt, err.Error())
		return false, nil
	}
	node, ok := fn(p.Node)
	if !ok {
		e.skip(code, tgt, "pattern not matched")
		return false, nil
	}
	if bytes.Equal(node, p.Node) {
		return false, nil
	}
	if err := Apply(tgt.Path, p.Replace(node)); err != nil {
		return false, err
	}
	e.applied(code, tgt, 1)
	return true, nil
}

// Edit applies byte edits to the file.
func (e *Editor) Edit(code diag.Code, tgt Target, edits []Edit) (bool, error) {
	content, err := os.ReadFile(tgt.Path)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", tgt.Path, err)
	}
	out, err := ApplyEdits(content, edits)
	switch {
	case errors.Is(err, ErrNoFixes):
		return false, nil
	case err != nil:
		e.skip(code, tgt, err.Error())
		return false, nil
	}
	if bytes.Equal(out, content) {
		return false, nil
	}
	if err := Apply(tgt.Path, out); err != nil {
		return false, err
	}
	e.applied(code, tgt, len(edits))
	return true, nil
}

// Rename moves a file for fixes that change names rather than content.
func (e *Editor) Rename(code diag.Code, tgt Target, newPath string) error {
	if _, err := os.Lstat(newPath); err == nil {
		e.skip(code, tgt, fmt.Sprintf("%s already exists", newPath))
		return nil
	}
	if err := os.Rename(tgt.Path, newPath); err != nil {
		return fmt.Errorf("rename %s: %w", tgt.Path, err)
	}
	e.applied(code, tgt, 1)
	return nil
}

// Result returns a copy of the log.
func (e *Editor) Result() ApplyResult {
	if e == nil {
		return ApplyResult{}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return ApplyResult{
		Applied: append([]AppliedFix(nil), e.result.Applied...),
		Skipped: append([]SkippedFix(nil), e.result.Skipped...),
	}
}

func (e *Editor) applied(code diag.Code, tgt Target, edits int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.result.Applied = append(e.result.Applied, AppliedFix{Code: code, Path: tgt.Short, Line: tgt.Line, EditCount: edits})
}

func (e *Editor) skip(code diag.Code, tgt Target, reason string) {
	e.mu.Lock()
	e.result.Skipped = append(e.result.Skipped, SkippedFix{Code: code, Path: tgt.Short, Line: tgt.Line, Reason: reason})
	e.mu.Unlock()
	if e.Warn != nil {
		fmt.Fprintf(e.Warn, "WARNING: autofix %s skipped for %s:%d: %s\n", code, tgt.Short, tgt.Line, reason)
	}
}
