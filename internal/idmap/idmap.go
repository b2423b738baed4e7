// Package idmap is the identifier map: it records every id a block
// introduces and where it came from, and tracks collisions instead of
// rejecting them outright. It is never a singleton — callers thread a
// *Map explicitly through the parse context.
package idmap

import "github.com/islemaster/rez/internal/pos"

// Entry is one registration of an identifier: the kind of block that
// introduced it and the source position it appeared at.
type Entry struct {
	ID   string
	Kind string
	Pos  pos.Position
}

// Map is the identifier table built up during a single parse. Each id
// maps to every entry registered for it, newest-first.
type Map struct {
	entries map[string][]Entry
}

// New returns an empty Map.
func New() *Map {
	return &Map{entries: make(map[string][]Entry)}
}

// Register records id as introduced by kind at p, prepending it ahead of
// any earlier registrations for the same id and reporting the collision
// via its bool result; parsing continues either way — this layer never
// fails.
func (m *Map) Register(id, kind string, p pos.Position) (collided bool) {
	entry := Entry{ID: id, Kind: kind, Pos: p}
	existing := m.entries[id]
	collided = len(existing) > 0
	m.entries[id] = append([]Entry{entry}, existing...)
	return collided
}

// Lookup returns the most-recently-registered entry for id.
func (m *Map) Lookup(id string) (Entry, bool) {
	es := m.entries[id]
	if len(es) == 0 {
		return Entry{}, false
	}
	return es[0], true
}

// Collisions returns every entry registered for id before the most
// recent one, newest-first. A nil/empty result means no collision
// occurred.
func (m *Map) Collisions(id string) []Entry {
	es := m.entries[id]
	if len(es) < 2 {
		return nil
	}
	return es[1:]
}

// AllCollisions returns every id that collided, mapped to its
// before-the-most-recent entries (see Collisions).
func (m *Map) AllCollisions() map[string][]Entry {
	out := make(map[string][]Entry)
	for id, es := range m.entries {
		if len(es) > 1 {
			out[id] = es[1:]
		}
	}
	return out
}

// Len returns the number of distinct ids registered.
func (m *Map) Len() int {
	return len(m.entries)
}
