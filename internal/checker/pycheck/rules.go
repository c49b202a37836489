package pycheck

import (
	"strings"
	"unicode"

	sitter "github.com/smacker/go-tree-sitter"

	"ocahooks/internal/diag"
	"ocahooks/internal/fix"
	"ocahooks/internal/pysrc"
)

type sourceRule struct {
	code  diag.Code
	visit func(*Checker, *source)
}

// sourceRules run one after the other on every file so each sees the fixes
// of the previous one.
var sourceRules = []sourceRule{
	{diag.UnusedLogger, (*Checker).unusedLogger},
	{diag.PreferEnvTranslation, (*Checker).preferEnvTranslation},
	{diag.FieldStringRedundant, (*Checker).fieldStringRedundant},
}

var (
	modelBases = map[string]bool{
		"odoo.models.AbstractModel":     true,
		"odoo.models.Model":             true,
		"odoo.models.TransientModel":    true,
		"openerp.models.AbstractModel":  true,
		"openerp.models.Model":          true,
		"openerp.models.TransientModel": true,
	}
	controllerBases = map[string]bool{
		"odoo.http.Controller":    true,
		"openerp.http.Controller": true,
	}
	translationFuncs = map[string]bool{
		"odoo._":      true,
		"openerp._":   true,
		"odoo._lt":    true,
		"openerp._lt": true,
	}
	// index of the positional string argument per field type, 0 otherwise
	fieldStringPositions = map[string]int{
		"Selection": 1,
		"Reference": 1,
		"Many2one":  1,
		"One2many":  2,
		"Many2many": 1,
	}
)

const (
	unusedLoggerMsg    = "Unused `_logger` is not allowed in Odoo models. Remove it if not used."
	envTranslationMsg  = "Use self.env._(...) instead of _(…) directly inside Odoo model methods."
	stringRedundantMsg = "The 'string' attribute is redundant and should be removed."
)

func (c *Checker) checkSource() {
	for _, path := range c.pythonFiles() {
		ref := c.ref(path)
		for _, r := range sourceRules {
			if !c.ctx.Enabled(r.code) {
				continue
			}
			s, err := c.parse(ref)
			if err != nil {
				c.ctx.Warnf("%s: %v", ref.Short, err)
				break
			}
			if s.tree.HasError() {
				c.ctx.Warnf("%s: %v, source rules skipped", ref.Short, pysrc.ErrSyntax)
				s.close()
				break
			}
			r.visit(c, s)
			c.flush(s, r.code)
			s.close()
		}
	}
}

func (c *Checker) unusedLogger(s *source) {
	var assign *sitter.Node
	used := false
	pysrc.Walk(s.tree.Root(), func(n *sitter.Node) bool {
		switch n.Type() {
		case "assignment":
			if loggerAssignment(n, s.content) {
				assign = n
			}
		case "attribute":
			obj := n.ChildByFieldName("object")
			if obj != nil && obj.Type() == "identifier" && s.tree.Text(obj) == "_logger" {
				used = true
			}
		}
		return true
	})
	if assign == nil || used {
		return
	}
	stmt := assign
	if p := assign.Parent(); p != nil && p.Type() == "expression_statement" {
		stmt = p
	}
	if c.report(s, diag.UnusedLogger, stmt, unusedLoggerMsg) {
		start, end := statementSpan(s.content, stmt)
		s.edits = append(s.edits, span(s.content, start, end))
	}
}

// loggerAssignment matches `_logger = logging.getLogger(__name__)`.
func loggerAssignment(n *sitter.Node, content []byte) bool {
	left, right := n.ChildByFieldName("left"), n.ChildByFieldName("right")
	if left == nil || right == nil || n.ChildByFieldName("type") != nil {
		return false
	}
	if left.Type() != "identifier" || pysrc.Text(left, content) != "_logger" || right.Type() != "call" {
		return false
	}
	if pysrc.Text(right.ChildByFieldName("function"), content) != "logging.getLogger" {
		return false
	}
	args := pysrc.NamedChildren(right.ChildByFieldName("arguments"))
	return len(args) == 1 && args[0].Type() == "identifier" && pysrc.Text(args[0], content) == "__name__"
}

// statementSpan is the byte range removing a statement on a line of its own
// with the blank lines right above it. A statement sharing its line keeps the
// line.
func statementSpan(content []byte, n *sitter.Node) (int, int) {
	start, end := int(n.StartByte()), int(n.EndByte())
	ls, le := lineStart(content, start), lineEnd(content, end)
	if strings.TrimSpace(string(content[ls:start])) != "" {
		return start, end
	}
	if rest := strings.TrimSpace(string(content[end:le])); rest != "" && !strings.HasPrefix(rest, "#") {
		return start, end
	}
	start, end = ls, le
	for start > 0 {
		prev := lineStart(content, start-1)
		if strings.TrimSpace(string(content[prev:start])) != "" {
			break
		}
		start = prev
	}
	return start, end
}

func (c *Checker) preferEnvTranslation(s *source) {
	if !c.ctx.Version.AtLeast(18) {
		return
	}
	sc := newScope(s.tree.Root(), s.content)
	funcs := map[string]bool{}
	for name, q := range sc {
		if translationFuncs[q] {
			funcs[name] = true
		}
	}
	if len(funcs) == 0 {
		return
	}
	pysrc.Walk(s.tree.Root(), func(n *sitter.Node) bool {
		if n.Type() != "call" {
			return true
		}
		fn := n.ChildByFieldName("function")
		if fn == nil || fn.Type() != "identifier" || !funcs[s.tree.Text(fn)] {
			return true
		}
		method := enclosingFunction(n)
		if method == nil || !firstParamIsSelf(method, s.content) {
			return true
		}
		class := enclosingClass(n)
		if class == nil || !(sc.extends(class, s.content, modelBases) || sc.extends(class, s.content, controllerBases)) {
			return true
		}
		if c.report(s, diag.PreferEnvTranslation, n, envTranslationMsg) {
			s.edits = append(s.edits, fix.Edit{
				Start:   int(fn.StartByte()),
				End:     int(fn.EndByte()),
				NewText: "self.env._",
				OldText: s.tree.Text(fn),
			})
		}
		return true
	})
}

// enclosingFunction returns the closest function around n unless a class
// comes first: class attributes are not method code.
func enclosingFunction(n *sitter.Node) *sitter.Node {
	for p := n.Parent(); p != nil; p = p.Parent() {
		switch p.Type() {
		case "function_definition":
			return p
		case "class_definition":
			return nil
		}
	}
	return nil
}

func enclosingClass(n *sitter.Node) *sitter.Node {
	for p := n.Parent(); p != nil; p = p.Parent() {
		if p.Type() == "class_definition" {
			return p
		}
	}
	return nil
}

func firstParamIsSelf(fn *sitter.Node, content []byte) bool {
	params := pysrc.NamedChildren(fn.ChildByFieldName("parameters"))
	if len(params) == 0 {
		return false
	}
	p := params[0]
	switch p.Type() {
	case "typed_parameter":
		p = p.NamedChild(0)
	case "default_parameter", "typed_default_parameter":
		p = p.ChildByFieldName("name")
	}
	return p != nil && p.Type() == "identifier" && pysrc.Text(p, content) == "self"
}

// extends reports whether one of the bases of class resolves into bases.
func (s scope) extends(class *sitter.Node, content []byte, bases map[string]bool) bool {
	for _, b := range pysrc.NamedChildren(class.ChildByFieldName("superclasses")) {
		if q := s.resolve(b, content); q != "" && bases[q] {
			return true
		}
	}
	return false
}

func (c *Checker) fieldStringRedundant(s *source) {
	sc := newScope(s.tree.Root(), s.content)
	pysrc.Walk(s.tree.Root(), func(n *sitter.Node) bool {
		if n.Type() == "class_definition" && sc.extends(n, s.content, modelBases) {
			for _, stmt := range pysrc.NamedChildren(n.ChildByFieldName("body")) {
				c.visitField(s, sc, stmt)
			}
		}
		return true
	})
}

// visitField looks at one class level statement `name = fields.X(...)`.
func (c *Checker) visitField(s *source, sc scope, stmt *sitter.Node) {
	if stmt.Type() != "expression_statement" {
		return
	}
	inner := pysrc.NamedChildren(stmt)
	if len(inner) != 1 || inner[0].Type() != "assignment" {
		return
	}
	assign := inner[0]
	left, call := assign.ChildByFieldName("left"), assign.ChildByFieldName("right")
	if left == nil || call == nil || left.Type() != "identifier" || call.Type() != "call" {
		return
	}
	fn := call.ChildByFieldName("function")
	if fn == nil || fn.Type() != "attribute" {
		return
	}
	obj := fn.ChildByFieldName("object")
	if obj == nil || obj.Type() != "identifier" {
		return
	}
	if q := sc.resolve(obj, s.content); !strings.Contains(q, "odoo.fields") && !strings.Contains(q, "openerp.fields") {
		return
	}

	args := pysrc.NamedChildren(call.ChildByFieldName("arguments"))
	var label *sitter.Node
	for _, a := range args {
		if a.Type() != "keyword_argument" {
			continue
		}
		switch pysrc.Text(a.ChildByFieldName("name"), s.content) {
		case "related":
			// the label follows the related field
			return
		case "string":
			label = a
		}
	}
	var value *sitter.Node
	if label != nil {
		value = label.ChildByFieldName("value")
	} else {
		pos := fieldStringPositions[s.tree.Text(fn.ChildByFieldName("attribute"))]
		if pos < len(args) && args[pos].Type() == "string" {
			label, value = args[pos], args[pos]
		}
	}
	if value == nil || value.Type() != "string" {
		return
	}
	raw := s.tree.Text(value)
	if raw == "" || (raw[0] != '\'' && raw[0] != '"') {
		return
	}
	if strings.Trim(raw, raw[:1]) != fieldLabel(s.tree.Text(left)) {
		return
	}
	if c.report(s, diag.FieldStringRedundant, assign, stringRedundantMsg) {
		start, end := pysrc.RemovalSpan(s.content, label)
		s.edits = append(s.edits, span(s.content, start, end))
	}
}

// fieldLabel is the label Odoo derives from a field name.
func fieldLabel(name string) string {
	name = strings.TrimSuffix(strings.TrimSuffix(name, "_ids"), "_id")
	return title(strings.ReplaceAll(name, "_", " "))
}

// title follows str.title: a letter is upper-cased after a non-letter and
// lower-cased after a letter.
func title(s string) string {
	var sb strings.Builder
	prevLetter := false
	for _, r := range s {
		if prevLetter {
			sb.WriteRune(unicode.ToLower(r))
		} else {
			sb.WriteRune(unicode.ToTitle(r))
		}
		prevLetter = unicode.IsLetter(r)
	}
	return sb.String()
}
