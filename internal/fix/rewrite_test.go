package fix

import (
	"testing"
)

func TestMoveAttrFirst(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"simple", `<record model="res.partner" id="p1">`, `<record id="p1" model="res.partner">`, true},
		{"keeps quotes and slots", "<record model='m'\n        context=\"{}\"  id='x'/>", "<record id='x'\n        model='m'  context=\"{}\"/>", true},
		{"already first", `<record id="p1" model="m"/>`, "", false},
		{"missing", `<record model="m"/>`, "", false},
		{"broken tag", `<record model=m id="x">`, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MoveAttrFirst([]byte(tt.in), "id")
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && string(got) != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSetAttrValue(t *testing.T) {
	got, ok := SetAttrValue([]byte(`<record id="mod.view" model="m"></record>`), "id", "view")
	if !ok || string(got) != `<record id="view" model="m"></record>` {
		t.Fatalf("got %q, %v", got, ok)
	}
	got, ok = SetAttrValue([]byte(`<menuitem id='a' name="x"/>`), "id", "it's")
	if !ok || string(got) != `<menuitem id='it&apos;s' name="x"/>` {
		t.Fatalf("got %q, %v", got, ok)
	}
	if _, ok := SetAttrValue([]byte(`<menuitem name="x"/>`), "id", "v"); ok {
		t.Fatalf("missing attribute must not match")
	}
}

func TestTextToEval(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{`<field name="active">True</field>`, `<field name="active" eval="True" />`, true},
		{`<field name="sequence" >  10 </field>`, `<field name="sequence" eval="10" />`, true},
		{`<field name="active"/>`, "", false},
		{`<field name="active" eval="1">True</field>`, "", false},
		{`<field name="x"><b>1</b></field>`, "", false},
	}
	for _, tt := range tests {
		got, ok := TextToEval([]byte(tt.in), "eval")
		if ok != tt.ok || (ok && string(got) != tt.want) {
			t.Errorf("TextToEval(%q) = %q, %v", tt.in, got, ok)
		}
	}
}
