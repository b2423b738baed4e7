package ast

import (
	"testing"

	"github.com/islemaster/rez/internal/pos"
	"github.com/islemaster/rez/internal/token"
)

func TestItemPreProcessAndProcessExpandTags(t *testing.T) {
	g := NewGame()
	if err := g.TypeHierarchy.Derive("sword", "weapon"); err != nil {
		t.Fatal(err)
	}
	if err := g.TypeHierarchy.Derive("weapon", "item"); err != nil {
		t.Fatal(err)
	}

	attrs := AttrMap{"type": {Type: token.Keyword, Kw: "sword"}}
	it := NewItem(pos.Position{}, "excalibur", attrs)
	it.PreProcess()
	it.Process(g)

	for _, want := range []string{"sword", "weapon", "item"} {
		if !it.Tags[want] {
			t.Errorf("expected tag %q in %v", want, it.Tags)
		}
	}
}

func TestInventoryDefaultsApplyEffectsFalse(t *testing.T) {
	inv := NewInventory(pos.Position{}, "backpack", AttrMap{})
	inv.PreProcess()
	if inv.ApplyEffects {
		t.Error("expected apply_effects to default to false")
	}
}

func TestTaskAcceptsChildCount(t *testing.T) {
	attrs := AttrMap{
		"min_children": {Type: token.Number, Num: 1},
		"max_children": {Type: token.Number, Num: 2},
	}
	task := NewTask(pos.Position{}, "sequence", attrs)
	task.PreProcess()

	if err := task.AcceptsChildCount(0); err == nil {
		t.Error("expected error for too few children")
	}
	if err := task.AcceptsChildCount(1); err != nil {
		t.Errorf("expected 1 child to be accepted: %v", err)
	}
	if err := task.AcceptsChildCount(3); err == nil {
		t.Error("expected error for too many children")
	}
}

func TestSceneChildrenTracksCards(t *testing.T) {
	scene := NewScene(pos.Position{}, "kitchen", AttrMap{})
	card := NewCard(pos.Position{}, "kitchen-default", AttrMap{"content": {Type: token.String, Str: "hi"}})
	scene.AddCard(card)

	children := scene.Children()
	if len(children) != 1 || children[0].ID() != "kitchen-default" {
		t.Fatalf("got %+v", children)
	}
}

func TestCardProcessCompilesTemplate(t *testing.T) {
	card := NewCard(pos.Position{}, "c1", AttrMap{"content": {Type: token.String, Str: "Hello {{.Name}}"}})
	card.Process(nil)
	if card.CompiledContent == nil {
		t.Fatal("expected compiled template")
	}
}
