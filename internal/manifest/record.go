// Package manifest loads Odoo module manifests and resolves the files they
// reference.
package manifest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"ocahooks/internal/pysrc"
	"ocahooks/internal/source"
)

// Names are the manifest file names, newest first.
var Names = []string{"__manifest__.py", "__openerp__.py"}

// DataSections are the manifest keys listing data files, in resolution order.
var DataSections = []string{"data", "demo", "demo_xml", "init_xml", "qweb", "test", "update_xml"}

// ErrMalformed is the text stored in Record.Err for unparsable manifests.
const ErrMalformed = "manifest malformed"

// ReferencedFile is one file the module uses. Filename is absolute with
// symlinks resolved, Short is slash separated and relative to the repo top.
type ReferencedFile struct {
	Filename string
	Short    string
	Section  string
}

// Record is the parsed state of one module.
type Record struct {
	Path string
	Dir  string
	Name string
	Root string

	Dict   map[string]any
	Source []byte
	Err    string

	MissingInit bool
	Installable bool
	Version     string

	// Files is keyed by lower-case extension without the dot.
	Files map[string][]ReferencedFile
}

// IsManifest reports whether base is a manifest file name.
func IsManifest(base string) bool {
	for _, n := range Names {
		if base == n {
			return true
		}
	}
	return false
}

// Find returns the manifest inside dir, or "".
func Find(dir string) string {
	for _, n := range Names {
		p := filepath.Join(dir, n)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

// Load reads the manifest at path. root is the repository top used for short
// paths. A missing __init__.py or a malformed manifest is recorded on the
// Record, not returned as an error.
func Load(ctx context.Context, path, root string) (*Record, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	source, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	dir := filepath.Dir(abs)
	rec := &Record{
		Path:   abs,
		Dir:    dir,
		Name:   filepath.Base(dir),
		Root:   root,
		Dict:   map[string]any{},
		Source: source,
		Files:  map[string][]ReferencedFile{},
	}
	if rec.Root == "" {
		rec.Root = filepath.Dir(dir)
	}

	if _, err := os.Stat(filepath.Join(dir, "__init__.py")); errors.Is(err, os.ErrNotExist) {
		rec.MissingInit = true
	} else {
		v, err := pysrc.ParseLiteral(ctx, source)
		d, ok := v.(*pysrc.Dict)
		switch {
		case err != nil, !ok:
			rec.Err = ErrMalformed
		default:
			rec.Dict = d.Map()
		}
	}

	if len(rec.Dict) > 0 {
		inst, present := rec.Dict["installable"]
		rec.Installable = !present || pysrc.Truthy(inst)
	}
	if v, ok := rec.Dict["version"].(string); ok {
		rec.Version = v
	}
	rec.resolveFiles()
	return rec, nil
}

// Short returns p relative to the repo top in slash form. Paths outside of
// the top stay absolute.
func (r *Record) Short(p string) string {
	rel, err := source.RelativePath(p, r.Root)
	if err != nil {
		return filepath.ToSlash(p)
	}
	return rel
}

// ShortPath is the manifest path relative to the repo top.
func (r *Record) ShortPath() string {
	return r.Short(r.Path)
}

// Broken returns the reason installable-gated checks must not run, or "".
func (r *Record) Broken() string {
	switch {
	case r.Err != "":
		return r.Err
	case r.MissingInit:
		return "missing __init__.py"
	default:
		return ""
	}
}

// Referenced lists the files of the given extensions in resolution order.
func (r *Record) Referenced(exts ...string) []ReferencedFile {
	var out []ReferencedFile
	for _, ext := range exts {
		out = append(out, r.Files[ext]...)
	}
	return out
}
