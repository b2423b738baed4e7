package idmap

import (
	"testing"

	"github.com/islemaster/rez/internal/pos"
)

func TestRegisterAndLookup(t *testing.T) {
	m := New()
	p := pos.Position{File: "g.rez", Line: 1, Column: 1}
	if collided := m.Register("kitchen", "scene", p); collided {
		t.Fatal("first registration should not collide")
	}
	e, ok := m.Lookup("kitchen")
	if !ok || e.Kind != "scene" {
		t.Fatalf("Lookup = %+v, %v", e, ok)
	}
}

func TestRegisterCollisionIsRecordedNotRejected(t *testing.T) {
	m := New()
	p1 := pos.Position{File: "g.rez", Line: 1, Column: 1}
	p2 := pos.Position{File: "g.rez", Line: 10, Column: 1}

	m.Register("kitchen", "scene", p1)
	collided := m.Register("kitchen", "item", p2)
	if !collided {
		t.Fatal("second registration should report collision")
	}

	// Lookup resolves to the most-recently-parsed registration.
	e, _ := m.Lookup("kitchen")
	if e.Kind != "item" {
		t.Fatalf("Lookup = %+v, want most recent (item)", e)
	}

	cols := m.Collisions("kitchen")
	if len(cols) != 1 || cols[0].Kind != "scene" {
		t.Fatalf("Collisions = %+v", cols)
	}
}

func TestCollisionsAreNewestFirst(t *testing.T) {
	m := New()
	p1 := pos.Position{File: "g.rez", Line: 1, Column: 1}
	p2 := pos.Position{File: "g.rez", Line: 2, Column: 1}
	p3 := pos.Position{File: "g.rez", Line: 3, Column: 1}

	m.Register("a", "item", p1)
	m.Register("a", "item", p2)
	m.Register("a", "item", p3)

	e, _ := m.Lookup("a")
	if e.Pos.Line != 3 {
		t.Fatalf("Lookup = %+v, want the block parsed at line 3", e)
	}

	cols := m.Collisions("a")
	if len(cols) != 2 || cols[0].Pos.Line != 2 || cols[1].Pos.Line != 1 {
		t.Fatalf("Collisions = %+v, want [line 2, line 1] newest-first", cols)
	}
}
