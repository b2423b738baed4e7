package token

import "testing"

func TestReadValueScalars(t *testing.T) {
	cases := []struct {
		input string
		typ   AttrType
	}{
		{`"hello\nworld"`, String},
		{`:weapon`, Keyword},
		{`#kitchen`, Ref},
		{`42`, Number},
		{`-3.5`, Number},
		{`true`, Boolean},
		{`false`, Boolean},
	}
	for _, c := range cases {
		r := NewReader(c.input)
		v, err := r.ReadValue()
		if err != nil {
			t.Fatalf("ReadValue(%q) error: %v", c.input, err)
		}
		if v.Type != c.typ {
			t.Errorf("ReadValue(%q).Type = %v, want %v", c.input, v.Type, c.typ)
		}
	}
}

func TestReadValueString_Escapes(t *testing.T) {
	v, err := NewReader(`"a\tb\"c"`).ReadValue()
	if err != nil {
		t.Fatal(err)
	}
	if want := "a\tb\"c"; v.Str != want {
		t.Errorf("Str = %q, want %q", v.Str, want)
	}
}

func TestReadValueList(t *testing.T) {
	v, err := NewReader(`[1 2 3]`).ReadValue()
	if err != nil {
		t.Fatal(err)
	}
	if v.Type != List || len(v.Items) != 3 {
		t.Fatalf("got %+v", v)
	}
}

func TestReadValueSet(t *testing.T) {
	v, err := NewReader(`#{:a :b}`).ReadValue()
	if err != nil {
		t.Fatal(err)
	}
	if v.Type != Set || len(v.Items) != 2 {
		t.Fatalf("got %+v", v)
	}
}

func TestReadValueFunction(t *testing.T) {
	v, err := NewReader(`random(1, 6)`).ReadValue()
	if err != nil {
		t.Fatal(err)
	}
	if v.Type != Function || v.Call.Name != "random" || len(v.Call.Args) != 2 {
		t.Fatalf("got %+v", v)
	}
}

func TestReadValueUnterminatedString(t *testing.T) {
	_, err := NewReader(`"oops`).ReadValue()
	if err == nil {
		t.Fatal("expected error for unterminated string")
	}
}

func TestReadValueBTree(t *testing.T) {
	v, err := NewReader(`wait { seconds: 2 }`).ReadValue()
	if err != nil {
		t.Fatal(err)
	}
	if v.Type != BTree || v.Tree.Task != "wait" {
		t.Fatalf("got %+v", v)
	}
	if v.Tree.Options["seconds"].Num != 2 {
		t.Errorf("options = %+v", v.Tree.Options)
	}
}

func TestReadValueBTreeWithChildren(t *testing.T) {
	v, err := NewReader(`sequence { } [ wait { seconds: 1 } say_line { text: "hi" } ]`).ReadValue()
	if err != nil {
		t.Fatal(err)
	}
	if v.Type != BTree || v.Tree.Task != "sequence" || len(v.Tree.Children) != 2 {
		t.Fatalf("got %+v", v)
	}
	if v.Tree.Children[0].Task != "wait" || v.Tree.Children[1].Task != "say_line" {
		t.Fatalf("children = %+v", v.Tree.Children)
	}
}
