package manifest

import (
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar"

	"ocahooks/internal/dupes"
	"ocahooks/internal/pysrc"
)

// Pseudo sections for files the manifest does not list.
const (
	SectionAssets = "assets"
	SectionReadme = "readme"
)

// ReadmeNames in lookup order.
var ReadmeNames = []string{"README.rst", "README.md", "README.txt"}

func (r *Record) resolveFiles() {
	for _, section := range DataSections {
		for _, name := range stringList(r.Dict[section]) {
			r.addFile(filepath.Join(r.Dir, filepath.FromSlash(name)), section)
		}
	}
	r.resolveAssets()

	// i18n каталоги в манифесте не перечисляются
	pattern := filepath.Join(r.Dir, "{i18n,i18n_extra}", "*.{po,pot}")
	matches, err := doublestar.Glob(pattern)
	if err == nil {
		sort.Strings(matches)
		for _, m := range matches {
			r.addFile(m, filepath.Base(filepath.Dir(m)))
		}
	}

	for _, name := range ReadmeNames {
		r.addFile(filepath.Join(r.Dir, name), SectionReadme)
	}

	for ext, files := range r.Files {
		r.Files[ext] = dupes.UniqueRefs(files, func(f ReferencedFile) [2]string {
			return [2]string{f.Filename, f.Section}
		})
	}
}

// resolveAssets expands bundle patterns that point inside this module.
// Patterns are relative to the addons directory.
func (r *Record) resolveAssets() {
	d, ok := r.Dict["assets"].(*pysrc.Dict)
	if !ok {
		return
	}
	bundles := d.Map()
	names := make([]string, 0, len(bundles))
	for name := range bundles {
		names = append(names, name)
	}
	sort.Strings(names)

	addons := filepath.Dir(r.Dir)
	prefix := r.Name + "/"
	for _, bundle := range names {
		for _, pattern := range assetPatterns(bundles[bundle]) {
			// "sale/../other/*.js" must not leave the module
			pattern = strings.TrimPrefix(path.Clean("/"+pattern), "/")
			if !strings.HasPrefix(pattern, prefix) {
				continue
			}
			matches, err := doublestar.Glob(filepath.Join(addons, filepath.FromSlash(pattern)))
			if err != nil {
				continue
			}
			sort.Strings(matches)
			for _, m := range matches {
				r.addFile(m, SectionAssets)
			}
		}
	}
}

func assetPatterns(v any) []string {
	var items []any
	switch list := v.(type) {
	case []any:
		items = list
	case pysrc.Tuple:
		items = list
	default:
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		switch it := item.(type) {
		case string:
			out = append(out, it)
		case pysrc.Tuple:
			// ('include', 'web._assets_helpers'), ('replace', old, new)
			if len(it) > 0 {
				if s, ok := it[len(it)-1].(string); ok {
					out = append(out, s)
				}
			}
		case []any:
			if len(it) > 0 {
				if s, ok := it[len(it)-1].(string); ok {
					out = append(out, s)
				}
			}
		}
	}
	return out
}

func (r *Record) addFile(path, section string) {
	path = filepath.Clean(path)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return
	}
	real, err := filepath.EvalSymlinks(path)
	if err != nil {
		return
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	r.Files[ext] = append(r.Files[ext], ReferencedFile{
		Filename: real,
		Short:    r.Short(path),
		Section:  section,
	})
}

// Readme returns the first README file found, if any.
func (r *Record) Readme() (ReferencedFile, bool) {
	for _, files := range [][]ReferencedFile{r.Files["rst"], r.Files["md"], r.Files["txt"]} {
		for _, f := range files {
			if f.Section == SectionReadme {
				return f, true
			}
		}
	}
	return ReferencedFile{}, false
}

// Listed reports whether the manifest or its assets reference abs.
func (r *Record) Listed(abs string) bool {
	real, err := filepath.EvalSymlinks(abs)
	if err != nil {
		real = abs
	}
	for _, files := range r.Files {
		for _, f := range files {
			if f.Filename == real {
				return true
			}
		}
	}
	return false
}

func stringList(v any) []string {
	var items []any
	switch list := v.(type) {
	case []any:
		items = list
	case pysrc.Tuple:
		items = list
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
