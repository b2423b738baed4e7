package typehier

import (
	"reflect"
	"testing"
)

func TestFanOut(t *testing.T) {
	h := NewHierarchy()
	must(t, h.Derive("sword", "weapon"))
	must(t, h.Derive("weapon", "item"))
	must(t, h.Derive("shield", "item"))

	got := h.FanOut("sword")
	want := []string{"item", "sword", "weapon"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FanOut(sword) = %v, want %v", got, want)
	}
}

func TestDeriveRejectsCycle(t *testing.T) {
	h := NewHierarchy()
	must(t, h.Derive("a", "b"))
	must(t, h.Derive("b", "c"))
	if err := h.Derive("c", "a"); err == nil {
		t.Fatal("expected cycle rejection")
	}
}

func TestDeriveRejectsSelf(t *testing.T) {
	h := NewHierarchy()
	if err := h.Derive("a", "a"); err == nil {
		t.Fatal("expected self-derive rejection")
	}
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}
