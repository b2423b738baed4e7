package block

import (
	"testing"

	"github.com/islemaster/rez/internal/ast"
	"github.com/islemaster/rez/internal/idmap"
	"github.com/islemaster/rez/internal/parse"
	"github.com/islemaster/rez/internal/pos"
	"github.com/islemaster/rez/internal/typehier"
)

func newData() *parse.Data {
	return &parse.Data{IDs: idmap.New(), Types: typehier.NewHierarchy()}
}

func TestWithIDParsesSceneLikeBlock(t *testing.T) {
	p := WithID("scene", func(pos pos.Position, id string, attrs ast.AttrMap) ast.Node {
		return ast.NewScene(pos, id, attrs)
	})
	ctx := p(parse.NewContext(`scene kitchen { title: "Kitchen" }`, newData()))
	if !ctx.OK() {
		t.Fatalf("parse failed: %v", ctx.Err)
	}
	node := ctx.AST[len(ctx.AST)-1].(*ast.Scene)
	if node.ID() != "kitchen" {
		t.Errorf("ID = %q", node.ID())
	}
	if _, ok := node.Attributes["title"]; !ok {
		t.Errorf("expected title attribute, got %+v", node.Attributes)
	}
}

func TestBareSynthesizesID(t *testing.T) {
	p := Bare("asset", func(pos pos.Position, attrs ast.AttrMap) ast.Node {
		return ast.NewAsset(pos, DefaultID(attrs), attrs)
	})
	ctx := p(parse.NewContext(`asset { name: "Lantern", kind: :image }`, newData()))
	if !ctx.OK() {
		t.Fatalf("parse failed: %v", ctx.Err)
	}
	node := ctx.AST[len(ctx.AST)-1].(*ast.Asset)
	if node.ID() != "lantern" {
		t.Errorf("ID = %q, want slugified name", node.ID())
	}
}

func TestWithIDAndChildrenAttachesCards(t *testing.T) {
	cardParser := WithID("card", func(p pos.Position, id string, attrs ast.AttrMap) ast.Node {
		return ast.NewCard(p, id, attrs)
	})
	sceneParser := WithIDAndChildren(
		"scene",
		cardParser,
		func(parent, child ast.Node) {
			parent.(*ast.Scene).AddCard(child.(*ast.Card))
		},
		func(p pos.Position, id string, attrs ast.AttrMap) ast.Node {
			return ast.NewScene(p, id, attrs)
		},
	)
	src := `scene kitchen {} {
		card intro { content: "You are in a kitchen." }
	}`
	ctx := sceneParser(parse.NewContext(src, newData()))
	if !ctx.OK() {
		t.Fatalf("parse failed: %v", ctx.Err)
	}
	scene := ctx.AST[len(ctx.AST)-1].(*ast.Scene)
	if len(scene.CardList) != 1 || scene.CardList[0].ID() != "intro" {
		t.Fatalf("got %+v", scene.CardList)
	}
}

func TestDelimitedExtractsRawText(t *testing.T) {
	p := Delimited("helper", true)
	ctx := p(parse.NewContext("helper begin\n  some raw text\nend", newData()))
	if !ctx.OK() {
		t.Fatalf("parse failed: %v", ctx.Err)
	}
	text := ctx.AST[len(ctx.AST)-1].(string)
	if text != "some raw text" {
		t.Errorf("text = %q", text)
	}
}

func TestDeriveFoldsIntoTypeHierarchy(t *testing.T) {
	data := newData()
	p := Derive()
	ctx := p(parse.NewContext(`@derive :sword :weapon`, data))
	if !ctx.OK() {
		t.Fatalf("parse failed: %v", ctx.Err)
	}
	fanOut := data.Types.FanOut("sword")
	found := false
	for _, tag := range fanOut {
		if tag == "weapon" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected weapon in fan-out, got %v", fanOut)
	}
}

func TestWithIDRegistersIDCollisionLeniently(t *testing.T) {
	data := newData()
	p := WithID("scene", func(p pos.Position, id string, attrs ast.AttrMap) ast.Node {
		return ast.NewScene(p, id, attrs)
	})
	ctx := parse.NewContext(`scene kitchen {}`, data)
	ctx = p(ctx)
	if !ctx.OK() {
		t.Fatalf("first parse failed: %v", ctx.Err)
	}
	ctx2 := parse.NewContext(`scene kitchen {}`, data)
	ctx2 = p(ctx2)
	if !ctx2.OK() {
		t.Fatalf("second parse with duplicate id should still succeed: %v", ctx2.Err)
	}
	if len(data.IDs.Collisions("kitchen")) != 1 {
		t.Errorf("expected one recorded collision, got %v", data.IDs.Collisions("kitchen"))
	}
}
