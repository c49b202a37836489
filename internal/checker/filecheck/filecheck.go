// Package filecheck holds the rules about file names. They work on plain
// directories, no manifest is needed.
package filecheck

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"ocahooks/internal/checker"
	"ocahooks/internal/diag"
	"ocahooks/internal/fix"
	"ocahooks/internal/msgctl"
	"ocahooks/internal/trace"
)

// DefaultAutofixChar replaces spaces in renamed files.
const DefaultAutofixChar = "_"

// characters that would change the meaning of a file name
const illegalAutofixChars = `/\.: `

// Checker runs the file name rules below one directory.
type Checker struct {
	ctx  *checker.Context
	root string
	char string
}

// New returns a checker for root. An empty or illegal autofix char falls
// back to DefaultAutofixChar, with a warning for the illegal one.
func New(ctx *checker.Context, root, autofixChar string) *Checker {
	c := &Checker{ctx: ctx, root: root, char: autofixChar}
	switch {
	case c.char == "":
		c.char = DefaultAutofixChar
	case strings.Contains(illegalAutofixChars, c.char):
		if ctx.Autofix {
			ctx.Warnf("Illegal autofix_char %s changed to %s", c.char, DefaultAutofixChar)
		}
		c.char = DefaultAutofixChar
	}
	return c
}

func Descriptors() []msgctl.Descriptor[*Checker] {
	return []msgctl.Descriptor[*Checker]{
		{
			Name:  "check_filename_spaces",
			Codes: []diag.Code{diag.SpaceInFilename},
			Run:   (*Checker).checkFilenameSpaces,
		},
	}
}

func (c *Checker) Run(guard checker.Guard) []msgctl.Skip {
	return checker.RunActive(c.ctx, Descriptors(), c, true, guard)
}

func (c *Checker) checkFilenameSpaces() {
	if info, err := os.Stat(c.root); err != nil || !info.IsDir() {
		c.ctx.Warnf("Directory %s does not exist", c.root)
		return
	}
	var spaced []string
	_ = filepath.WalkDir(c.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			c.ctx.Warnf("%s: %v", filepath.ToSlash(path), err)
			return nil
		}
		if !d.IsDir() && strings.Contains(d.Name(), " ") {
			spaced = append(spaced, path)
		}
		return nil
	})
	sort.Strings(spaced)

	for _, path := range spaced {
		name := filepath.Base(path)
		short := filepath.ToSlash(path)
		b := c.ctx.Report(diag.SpaceInFilename, short, -1, fmt.Sprintf("file %s has a space in its name", name))
		if b == nil {
			continue
		}
		b.Emit()
		if !c.ctx.Fixing(diag.SpaceInFilename) {
			continue
		}
		dst := filepath.Join(filepath.Dir(path), UniqueName(filepath.Dir(path), name, c.char))
		if err := c.ctx.Editor.Rename(diag.SpaceInFilename, fix.Target{Path: path, Short: short, Line: -1}, dst); err != nil {
			c.ctx.Warnf("%s: %v", short, err)
			continue
		}
		trace.Point(c.ctx.Context(), trace.ScopeFile, "rename", fmt.Sprintf("File %s renamed to %s", path, dst))
	}
}

// UniqueName replaces the spaces of name and appends _1, _2... before the
// extension until no file of that name exists in dir.
func UniqueName(dir, name, char string) string {
	base := strings.ReplaceAll(name, " ", char)
	stem, ext := splitExt(base)
	candidate := base
	for i := 1; exists(filepath.Join(dir, candidate)); i++ {
		candidate = fmt.Sprintf("%s_%d%s", stem, i, ext)
	}
	return candidate
}

// splitExt keeps leading dots in the stem, ".env" has no extension.
func splitExt(name string) (string, string) {
	ext := filepath.Ext(name)
	if ext == "" || strings.TrimLeft(name, ".") == strings.TrimLeft(ext, ".") {
		return name, ""
	}
	return strings.TrimSuffix(name, ext), ext
}

func exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
