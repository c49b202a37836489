package pycheck

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"ocahooks/internal/checker"
	"ocahooks/internal/diag"
	"ocahooks/internal/manifest"
	"ocahooks/internal/pysrc"
)

// ReadmeTemplateURL is suggested when a module has no README.
const ReadmeTemplateURL = "https://github.com/OCA/maintainer-tools/blob/master/template/module/README.rst"

// keys whose True value is the default anyway
var defaultTrueKeys = map[string]bool{"installable": true, "active": true}

// checkSuperfluousKeys looks at every dict of the manifest, bundles included.
func (c *Checker) checkSuperfluousKeys() {
	if !c.manifestChanged() {
		return
	}
	s, err := c.parse(c.manifestRef())
	if err != nil {
		c.ctx.Warnf("%s: %v", c.rec.ShortPath(), err)
		return
	}
	defer s.close()

	pysrc.Walk(s.tree.Root(), func(n *sitter.Node) bool {
		if n.Type() != "dictionary" {
			return true
		}
		for _, e := range pysrc.DictEntries(n, s.content) {
			if !e.StringKey || !superfluous(e, s.content) {
				continue
			}
			if c.report(s, diag.ManifestSuperfluousKey, e.Pair, "Delete empty values.") {
				start, end := pysrc.RemovalSpan(s.content, e.Pair)
				s.edits = append(s.edits, span(s.content, start, end))
			}
		}
		return true
	})
	c.flush(s, diag.ManifestSuperfluousKey)
}

func superfluous(e pysrc.Entry, content []byte) bool {
	v := pysrc.Unwrap(e.Value)
	if v == nil {
		return false
	}
	switch v.Type() {
	case "list":
		return len(pysrc.NamedChildren(v)) == 0
	case "string":
		if !isPlainString(v, content) {
			return false
		}
		lit, err := pysrc.Literal(v, content)
		return err == nil && lit == ""
	case "true":
		return defaultTrueKeys[e.Key]
	}
	return false
}

// isPlainString rejects f-strings and byte strings.
func isPlainString(n *sitter.Node, content []byte) bool {
	text := pysrc.Text(n, content)
	if text == "" {
		return false
	}
	switch text[0] {
	case '\'', '"':
		return true
	}
	prefix := strings.ToLower(text[:strings.IndexAny(text, `'"`)+1])
	return !strings.ContainsAny(prefix, "fb")
}

func (c *Checker) checkReadme() {
	readme, ok := c.rec.Readme()
	if !ok {
		short := c.rec.Short(filepath.Join(c.rec.Dir, "README.rst"))
		c.ctx.Report(diag.MissingReadme, c.rec.ShortPath(), 1,
			fmt.Sprintf("%s missed file. Template here: %s", short, ReadmeTemplateURL)).Emit()
		return
	}
	if filepath.Base(readme.Filename) == "README.rst" {
		return
	}
	name := filepath.Base(readme.Short)
	b := c.ctx.Report(diag.PreferReadmeRst, readme.Short, 1, fmt.Sprintf("Use README.rst instead of %s", name))
	if b == nil {
		return
	}
	b.Emit()
	if !c.ctx.Fixing(diag.PreferReadmeRst) {
		return
	}
	src := filepath.Join(c.rec.Dir, name)
	tgt := checker.Target(readme, 1)
	tgt.Path = src
	if err := c.ctx.Editor.Rename(diag.PreferReadmeRst, tgt, filepath.Join(c.rec.Dir, "README.rst")); err != nil {
		c.ctx.Warnf("%s: %v", readme.Short, err)
	}
}

// skippedDirs never hold files the manifest has to list.
var skippedDirs = map[string]bool{"static": true, "tests": true, "migrations": true, "upgrades": true}

func skipDir(name string) bool {
	return skippedDirs[name] || strings.HasPrefix(name, "i18n") || strings.HasPrefix(name, ".") || name == "__pycache__"
}

// moduleFiles walks the module in path order without entering skipped
// directories or nested modules.
func (c *Checker) moduleFiles(fn func(path string)) {
	var files []string
	_ = filepath.WalkDir(c.rec.Dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return c.walkFailed(path, err)
		}
		if d.IsDir() {
			if path == c.rec.Dir {
				return nil
			}
			if skipDir(d.Name()) || manifest.Find(path) != "" {
				return filepath.SkipDir
			}
			return nil
		}
		files = append(files, path)
		return nil
	})
	sort.Strings(files)
	for _, f := range files {
		fn(f)
	}
}

func (c *Checker) checkFilesNotUsed() {
	imports := map[string]map[string]bool{}
	c.moduleFiles(func(path string) {
		short := c.rec.Short(path)
		switch strings.ToLower(filepath.Ext(path)) {
		case ".xml", ".csv":
			if !c.rec.Listed(path) {
				c.ctx.Report(diag.FileNotUsed, short, 1,
					fmt.Sprintf("File %s is not referenced in the manifest", short)).Emit()
			}
		case ".py":
			base := filepath.Base(path)
			if base == "__init__.py" || manifest.IsManifest(base) {
				return
			}
			dir := filepath.Dir(path)
			names, ok := imports[dir]
			if !ok {
				names = c.initImports(dir)
				imports[dir] = names
			}
			if names == nil || names[strings.TrimSuffix(base, ".py")] {
				return
			}
			c.ctx.Report(diag.FileNotUsed, short, 1,
				fmt.Sprintf("File %s is not imported from %s", short, c.rec.Short(filepath.Join(dir, "__init__.py")))).Emit()
		}
	})
}

// initImports returns the names imported by "from ... import" statements of
// dir/__init__.py, or nil when dir is not a package.
func (c *Checker) initImports(dir string) map[string]bool {
	initPath := filepath.Join(dir, "__init__.py")
	if _, err := os.Stat(initPath); err != nil {
		return nil
	}
	s, err := c.parse(c.ref(initPath))
	if err != nil {
		c.ctx.Warnf("%s: %v", c.rec.Short(initPath), err)
		return nil
	}
	defer s.close()

	names := map[string]bool{}
	for _, im := range topImports(s.tree.Root(), s.content) {
		if im.module != "" {
			names[im.name] = true
		}
	}
	return names
}
