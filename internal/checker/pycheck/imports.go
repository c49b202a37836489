package pycheck

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"ocahooks/internal/pysrc"
)

// imported is one name bound by a top-level import statement.
type imported struct {
	module string // "" for plain "import x"
	name   string
	alias  string
}

// binding is the identifier the import introduces.
func (im imported) binding() string {
	switch {
	case im.alias != "":
		return im.alias
	case im.module == "":
		// import odoo.models binds odoo
		if i := strings.IndexByte(im.name, '.'); i >= 0 {
			return im.name[:i]
		}
	}
	return im.name
}

// qualified is the dotted path the binding stands for.
func (im imported) qualified() string {
	switch {
	case im.module == "" && im.alias == "":
		return im.binding()
	case im.module == "":
		return im.name
	}
	return im.module + "." + im.name
}

// topImports lists the imports at module level in source order.
func topImports(root *sitter.Node, content []byte) []imported {
	var out []imported
	for _, stmt := range pysrc.NamedChildren(root) {
		switch stmt.Type() {
		case "import_statement":
			for i := 0; i < int(stmt.ChildCount()); i++ {
				child := stmt.Child(i)
				switch child.Type() {
				case "dotted_name":
					out = append(out, imported{name: pysrc.Text(child, content)})
				case "aliased_import":
					out = append(out, aliased("", child, content))
				}
			}
		case "import_from_statement":
			var module string
			sawImport := false
			for i := 0; i < int(stmt.ChildCount()); i++ {
				child := stmt.Child(i)
				switch child.Type() {
				case "import":
					sawImport = true
				case "relative_import":
					module = pysrc.Text(child, content)
				case "dotted_name", "identifier":
					if !sawImport {
						module = pysrc.Text(child, content)
						continue
					}
					out = append(out, imported{module: module, name: pysrc.Text(child, content)})
				case "aliased_import":
					out = append(out, aliased(module, child, content))
				}
			}
		}
	}
	return out
}

func aliased(module string, n *sitter.Node, content []byte) imported {
	return imported{
		module: module,
		name:   pysrc.Text(n.ChildByFieldName("name"), content),
		alias:  pysrc.Text(n.ChildByFieldName("alias"), content),
	}
}

// scope resolves names of a file to the dotted paths they were imported as.
type scope map[string]string

func newScope(root *sitter.Node, content []byte) scope {
	s := scope{}
	for _, im := range topImports(root, content) {
		if strings.HasPrefix(im.module, ".") {
			continue
		}
		s[im.binding()] = im.qualified()
	}
	return s
}

// resolve turns an identifier or attribute chain into its qualified name, or
// "" when the head was not imported.
func (s scope) resolve(n *sitter.Node, content []byte) string {
	n = pysrc.Unwrap(n)
	if n == nil {
		return ""
	}
	switch n.Type() {
	case "identifier":
		return s[pysrc.Text(n, content)]
	case "attribute":
		head := s.resolve(n.ChildByFieldName("object"), content)
		if head == "" {
			return ""
		}
		return head + "." + pysrc.Text(n.ChildByFieldName("attribute"), content)
	}
	return ""
}
