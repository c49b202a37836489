package xmlcheck

import (
	"ocahooks/internal/manifest"
	"ocahooks/internal/source"
	"ocahooks/internal/xmldom"
)

// file is one referenced xml file with its current parse state. Elements are
// addressed by their document-order ordinal, which survives the rewrites the
// fixes perform, so nodes can be found again after a re-parse.
type file struct {
	set     *source.FileSet
	ref     manifest.ReferencedFile
	content []byte
	doc     *xmldom.Document
	elems   []*xmldom.Node
	readErr error
}

func loadFile(set *source.FileSet, ref manifest.ReferencedFile) *file {
	f := &file{set: set, ref: ref}
	f.reload()
	return f
}

// reload rebuilds the document from disk. Offsets of the edits must match
// the bytes on disk, so the file is kept raw. A write that left the bytes
// as they were keeps the current document.
func (f *file) reload() {
	id, changed, err := f.set.Reload(f.ref.Filename)
	if err != nil {
		f.readErr = err
		f.content = nil
		f.doc = &xmldom.Document{Err: err}
		f.elems = nil
		return
	}
	if !changed && f.doc != nil && f.readErr == nil {
		return
	}
	content := f.set.Get(id).Content
	f.readErr = nil
	f.content = content
	f.doc, _ = xmldom.ParseBytes(content)
	f.elems = f.elems[:0]
	f.doc.Walk(func(n *xmldom.Node) {
		if n.Kind == xmldom.Element {
			f.elems = append(f.elems, n)
		}
	})
}

func (f *file) broken() bool {
	return f.doc == nil || f.doc.Err != nil
}

// ordinal returns the position of n among the elements, or -1.
func (f *file) ordinal(n *xmldom.Node) int {
	for i, e := range f.elems {
		if e == n {
			return i
		}
	}
	return -1
}

func (f *file) element(ord int) *xmldom.Node {
	if ord < 0 || ord >= len(f.elems) {
		return nil
	}
	return f.elems[ord]
}

// odooRoot returns the root element when it is <odoo> or <openerp>.
func (f *file) odooRoot() *xmldom.Node {
	root := f.doc.Root()
	if root == nil || (root.Tag != "odoo" && root.Tag != "openerp") {
		return nil
	}
	return root
}
