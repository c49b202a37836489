// Package pycheck holds the module level rules: the manifest itself, the
// README, files nobody references and a few shallow Python source patterns.
package pycheck

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"ocahooks/internal/checker"
	"ocahooks/internal/diag"
	"ocahooks/internal/manifest"
	"ocahooks/internal/msgctl"
)

// Checker runs the rules of one module. changed lists the inputs that led to
// the module; source rules only look at Python files among them.
type Checker struct {
	ctx     *checker.Context
	rec     *manifest.Record
	changed []string
}

func New(ctx *checker.Context, rec *manifest.Record, changed []string) *Checker {
	return &Checker{ctx: ctx, rec: rec, changed: changed}
}

func Descriptors() []msgctl.Descriptor[*Checker] {
	return []msgctl.Descriptor[*Checker]{
		{
			Name:  "check_manifest",
			Codes: []diag.Code{diag.ManifestSyntaxError},
			Run:   (*Checker).checkManifest,
		},
		{
			Name:             "check_manifest_superfluous_key",
			Codes:            []diag.Code{diag.ManifestSuperfluousKey},
			NeedsInstallable: true,
			Run:              (*Checker).checkSuperfluousKeys,
		},
		{
			Name:             "check_missing_readme",
			Codes:            []diag.Code{diag.MissingReadme, diag.PreferReadmeRst},
			NeedsInstallable: true,
			Run:              (*Checker).checkReadme,
		},
		{
			Name:             "check_file_not_used",
			Codes:            []diag.Code{diag.FileNotUsed},
			NeedsInstallable: true,
			Run:              (*Checker).checkFilesNotUsed,
		},
		{
			Name:             "check_py_header_comments",
			Codes:            []diag.Code{diag.UseHeaderComments},
			NeedsInstallable: true,
			Run:              (*Checker).checkHeaderComments,
		},
		{
			Name:             "check_py_source",
			Codes:            []diag.Code{diag.UnusedLogger, diag.PreferEnvTranslation, diag.FieldStringRedundant},
			NeedsInstallable: true,
			Run:              (*Checker).checkSource,
		},
	}
}

func (c *Checker) Run(installable bool, guard checker.Guard) []msgctl.Skip {
	return checker.RunActive(c.ctx, Descriptors(), c, installable, guard)
}

// changedSet resolves the inputs: only the manifest means the whole module,
// and the module directory implies its manifest, which no __init__.py imports.
func (c *Checker) changedSet() map[string]bool {
	set := map[string]bool{}
	for _, p := range c.changed {
		if abs, err := filepath.Abs(p); err == nil {
			set[filepath.Clean(abs)] = true
		}
	}
	if len(set) == 0 || (len(set) == 1 && set[c.rec.Path]) {
		set = map[string]bool{c.rec.Dir: true}
	}
	if set[c.rec.Dir] {
		set[c.rec.Path] = true
	}
	return set
}

func (c *Checker) manifestChanged() bool {
	return c.changedSet()[c.rec.Path]
}

// pythonFiles expands the changed set to .py files, directories recursively,
// in path order.
func (c *Checker) pythonFiles() []string {
	seen := map[string]bool{}
	for p := range c.changedSet() {
		info, err := os.Stat(p)
		switch {
		case err != nil:
			continue
		case !info.IsDir():
			if strings.HasSuffix(p, ".py") {
				seen[p] = true
			}
			continue
		}
		_ = filepath.WalkDir(p, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return c.walkFailed(path, err)
			}
			if d.IsDir() {
				if path != p && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if strings.HasSuffix(path, ".py") {
				seen[path] = true
			}
			return nil
		})
	}
	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func (c *Checker) manifestRef() manifest.ReferencedFile {
	return manifest.ReferencedFile{Filename: c.rec.Path, Short: c.rec.ShortPath()}
}

func (c *Checker) ref(path string) manifest.ReferencedFile {
	return manifest.ReferencedFile{Filename: path, Short: c.rec.Short(path)}
}

func (c *Checker) checkManifest() {
	if c.rec.Err == "" {
		return
	}
	short := c.rec.ShortPath()
	c.ctx.Report(diag.ManifestSyntaxError, short, 1, short+" could not be loaded: "+c.rec.Err).Emit()
}

// walkFailed reports an entry the walk could not read and goes on with the
// next one.
func (c *Checker) walkFailed(path string, err error) error {
	c.ctx.Warnf("%s: %v", c.rec.Short(path), err)
	return nil
}
