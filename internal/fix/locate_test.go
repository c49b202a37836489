package fix

import (
	"errors"
	"strings"
	"testing"

	"ocahooks/internal/xmldom"
)

const viewXML = `<?xml version="1.0" encoding="UTF-8"?>
<odoo>
    <!-- partner form -->
    <record id="view_form" model="ir.ui.view">
        <field name="model">res.partner</field>
        <field name="arch" type="xml">
            <form>
                <field name="name"/>
                <field
                    name="email"
                    widget="email"
                />
            </form>
        </field>
        <field name="priority">10</field>
    </record>
    <record model="res.partner" id="p1"><field name="a">True</field><field name="b">1</field></record>
</odoo>
`

func parse(t *testing.T, src string) *xmldom.Document {
	t.Helper()
	doc, err := xmldom.ParseBytes([]byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func TestLocateMatchesDecoderOffsets(t *testing.T) {
	doc := parse(t, viewXML)
	count := 0
	doc.Walk(func(n *xmldom.Node) {
		if n.Kind != xmldom.Element {
			return
		}
		count++
		p, err := Locate([]byte(viewXML), n)
		if err != nil {
			t.Errorf("Locate <%s> line %d: %v", n.Tag, n.Line, err)
			return
		}
		if p.Start != n.Offset || p.End != n.EndOffset {
			t.Errorf("<%s %s> line %d: located [%d,%d), decoder [%d,%d)\n%q",
				n.Tag, n.Attr("name"), n.Line, p.Start, p.End, n.Offset, n.EndOffset, p.Node)
		}
		if got := string(p.Before) + string(p.Node) + string(p.After); got != viewXML {
			t.Errorf("partition of <%s> line %d is not byte-identical", n.Tag, n.Line)
		}
	})
	if count < 10 {
		t.Fatalf("walked only %d elements", count)
	}
}

func TestLocateMultilineTag(t *testing.T) {
	doc := parse(t, viewXML)
	var email *xmldom.Node
	doc.Walk(func(n *xmldom.Node) {
		if n.Attr("name") == "email" {
			email = n
		}
	})
	p, err := Locate([]byte(viewXML), email)
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if !strings.HasPrefix(string(p.Node), "<field\n") || !strings.HasSuffix(string(p.Node), "/>") {
		t.Fatalf("unexpected node bytes %q", p.Node)
	}
	if p.StartLine != 9 || p.EndLine != 12 {
		t.Fatalf("lines = %d..%d, want 9..12", p.StartLine, p.EndLine)
	}
}

func TestLocateCRLF(t *testing.T) {
	src := strings.ReplaceAll(viewXML, "\n", "\r\n")
	doc := parse(t, src)
	rec := doc.Root().Child("record")[1]
	p, err := Locate([]byte(src), rec)
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if !strings.HasPrefix(string(p.Node), `<record model="res.partner" id="p1">`) || !strings.HasSuffix(string(p.Node), "</record>") {
		t.Fatalf("unexpected node bytes %q", p.Node)
	}
}

func TestLocateNotFound(t *testing.T) {
	doc := parse(t, viewXML)
	rec := doc.Root().Child("record")[0]
	_, err := Locate([]byte("<odoo>\n</odoo>\n"), rec)
	if !errors.Is(err, ErrNodeNotFound) {
		t.Fatalf("expected ErrNodeNotFound, got %v", err)
	}
}

func TestLocateUnterminated(t *testing.T) {
	doc := parse(t, "<odoo>\n<record id=\"x\">\n</record>\n</odoo>\n")
	rec := doc.Root().Child("record")[0]
	_, err := Locate([]byte("<odoo>\n<record id=\"x\">\n"), rec)
	if !errors.Is(err, ErrUnterminated) {
		t.Fatalf("expected ErrUnterminated, got %v", err)
	}
}

func TestLocateNestedSameTagOnOneLine(t *testing.T) {
	src := "<odoo>\n    <menuitem name=\"A\" id=\"a\"><menuitem name=\"B\" id=\"b\"/></menuitem>\n</odoo>\n"
	doc := parse(t, src)
	parent := doc.Root().Child("menuitem")[0]
	child := parent.Child("menuitem")[0]

	tests := []struct {
		node *xmldom.Node
		want string
	}{
		{parent, `<menuitem name="A" id="a"><menuitem name="B" id="b"/></menuitem>`},
		{child, `<menuitem name="B" id="b"/>`},
	}
	for _, tt := range tests {
		p, err := Locate([]byte(src), tt.node)
		if err != nil {
			t.Fatalf("Locate %s: %v", tt.node.Attr("id"), err)
		}
		if string(p.Node) != tt.want {
			t.Errorf("Locate %s = %q, want %q", tt.node.Attr("id"), p.Node, tt.want)
		}
	}
}
