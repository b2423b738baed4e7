// Package ast defines the Rez node model: one variant per block shape
// the compiler recognizes, all satisfying a single uniform capability
// set so the validation driver can walk them without a type switch.
package ast

import (
	"fmt"
	"html/template"

	"github.com/islemaster/rez/internal/idmap"
	"github.com/islemaster/rez/internal/pos"
	"github.com/islemaster/rez/internal/token"
	"github.com/islemaster/rez/internal/typehier"
)

// AttrMap is a block's attribute list, already resolved to a
// name -> value map by the block schema layer's shared post-match step.
type AttrMap map[string]token.AttrValue

// Validator is the shape every validator DSL builder produces: a
// function that either approves a node in the context of the whole game
// or returns a descriptive error. Defined here, not in the validator
// package, so Node can reference it without an import cycle.
type Validator func(n Node, g *Game) error

// Node is the capability set every block variant implements: its kind
// name, the two processing hooks the block schema layer calls, its
// children (for nodes that nest other nodes), the validators that apply
// to it, and its source position/identifier.
type Node interface {
	NodeType() string
	PreProcess() Node
	Process(g *Game) Node
	Children() []Node
	Validators(g *Game) []Validator
	Pos() pos.Position
	ID() string
}

// Game is the root of a compiled source file: every top-level node,
// plus the two cross-cutting tables (identifiers, is_a hierarchy) built
// up while parsing.
type Game struct {
	IDMap         *idmap.Map
	TypeHierarchy *typehier.Hierarchy

	Scenes      []*Scene
	Cards       []*Card
	Items       []*Item
	Inventories []*Inventory
	Slots       []*Slot
	Assets      []*Asset
	Groups      []*Group
	Helpers     []*Helper
	Tasks       []*Task

	// Notes holds free-form `@notes begin ... end` blocks: author
	// commentary with no structural meaning, attached to the game
	// rather than any single node since it carries no id.
	Notes []string
}

// NewGame returns an empty Game wired to fresh id-map and type-hierarchy
// tables.
func NewGame() *Game {
	return &Game{IDMap: idmap.New(), TypeHierarchy: typehier.NewHierarchy()}
}

// AllNodes returns every top-level node in a fixed, deterministic order
// (declaration-kind order, then the order each kind was appended in).
func (g *Game) AllNodes() []Node {
	var out []Node
	for _, n := range g.Scenes {
		out = append(out, n)
	}
	for _, n := range g.Cards {
		out = append(out, n)
	}
	for _, n := range g.Items {
		out = append(out, n)
	}
	for _, n := range g.Inventories {
		out = append(out, n)
	}
	for _, n := range g.Slots {
		out = append(out, n)
	}
	for _, n := range g.Assets {
		out = append(out, n)
	}
	for _, n := range g.Groups {
		out = append(out, n)
	}
	for _, n := range g.Helpers {
		out = append(out, n)
	}
	for _, n := range g.Tasks {
		out = append(out, n)
	}
	return out
}

// Process runs the lifecycle's second pass over every node the parser
// produced: pre_process has already run (at parse time, per node, inside
// the block schema layer's shared post-match step); this runs process on
// every top-level node, which is where type-tag fan-out, template
// compilation, and any other step that needs the whole Game (not just
// the node in isolation) happens. This must run once, after parsing
// completes for the whole source, and before any validator sees the tree.
func (g *Game) Process() {
	for _, n := range g.AllNodes() {
		processTree(n, g)
	}
}

func processTree(n Node, g *Game) {
	n.Process(g)
	for _, c := range n.Children() {
		processTree(c, g)
	}
}

// FindTask returns the task node with the given id, if one was declared.
func (g *Game) FindTask(id string) (*Task, bool) {
	for _, t := range g.Tasks {
		if t.ID() == id {
			return t, true
		}
	}
	return nil, false
}

func attrString(attrs AttrMap, key string) (string, bool) {
	v, ok := attrs[key]
	if !ok {
		return "", false
	}
	switch v.Type {
	case token.String:
		return v.Str, true
	case token.Keyword:
		return v.Kw, true
	default:
		return "", false
	}
}

func attrBool(attrs AttrMap, key string, def bool) bool {
	v, ok := attrs[key]
	if !ok || v.Type != token.Boolean {
		return def
	}
	return v.Bool
}

func attrNumber(attrs AttrMap, key string, def float64) float64 {
	v, ok := attrs[key]
	if !ok || v.Type != token.Number {
		return def
	}
	return v.Num
}

// --- Scene ---

type Scene struct {
	Position   pos.Position
	Identifier string
	Attributes AttrMap
	CardList   []*Card
	Rules      []Validator
}

func NewScene(p pos.Position, id string, attrs AttrMap) *Scene {
	return &Scene{Position: p, Identifier: id, Attributes: attrs}
}

func (s *Scene) NodeType() string    { return "scene" }
func (s *Scene) Pos() pos.Position   { return s.Position }
func (s *Scene) ID() string          { return s.Identifier }
func (s *Scene) PreProcess() Node    { return s }
func (s *Scene) Process(g *Game) Node { return s }
func (s *Scene) Children() []Node {
	out := make([]Node, len(s.CardList))
	for i, c := range s.CardList {
		out[i] = c
	}
	return out
}
func (s *Scene) Validators(g *Game) []Validator { return s.Rules }

// AddCard appends a card as a child of this scene, the way the
// with-children block shape's add function does.
func (s *Scene) AddCard(c *Card) { s.CardList = append(s.CardList, c) }

// --- Card ---

type Card struct {
	Position        pos.Position
	Identifier      string
	Attributes      AttrMap
	CompiledContent *template.Template
	Rules           []Validator
}

func NewCard(p pos.Position, id string, attrs AttrMap) *Card {
	return &Card{Position: p, Identifier: id, Attributes: attrs}
}

func (c *Card) NodeType() string  { return "card" }
func (c *Card) Pos() pos.Position { return c.Position }
func (c *Card) ID() string        { return c.Identifier }
func (c *Card) PreProcess() Node  { return c }

// Process compiles the card's content attribute into an html/template,
// mirroring the Handlebars-like compiled-template step every
// content-bearing node goes through.
func (c *Card) Process(g *Game) Node {
	content, _ := attrString(c.Attributes, "content")
	tmpl, err := template.New(c.Identifier).Parse(content)
	if err == nil {
		c.CompiledContent = tmpl
	}
	return c
}
func (c *Card) Children() []Node               { return nil }
func (c *Card) Validators(g *Game) []Validator { return c.Rules }

// --- Item ---

type Item struct {
	Position   pos.Position
	Identifier string
	Attributes AttrMap
	Tags       map[string]bool
	Rules      []Validator
}

func NewItem(p pos.Position, id string, attrs AttrMap) *Item {
	return &Item{Position: p, Identifier: id, Attributes: attrs}
}

func (it *Item) NodeType() string  { return "item" }
func (it *Item) Pos() pos.Position { return it.Position }
func (it *Item) ID() string        { return it.Identifier }

// PreProcess seeds Tags with the item's own declared type so the node is
// usable before a Game exists (e.g. in isolated parser tests). Expanding
// the type into its full set of ancestor tags via the type hierarchy's
// fan-out needs the Game's type hierarchy, so that happens in Process.
func (it *Item) PreProcess() Node {
	it.Tags = map[string]bool{}
	if t, ok := attrString(it.Attributes, "type"); ok {
		it.Tags[t] = true
	}
	return it
}

func (it *Item) Process(g *Game) Node {
	if t, ok := attrString(it.Attributes, "type"); ok && g != nil && g.TypeHierarchy != nil {
		for _, tag := range g.TypeHierarchy.FanOut(t) {
			it.Tags[tag] = true
		}
	}
	return it
}
func (it *Item) Children() []Node               { return nil }
func (it *Item) Validators(g *Game) []Validator { return it.Rules }

// --- Inventory ---

type Inventory struct {
	Position     pos.Position
	Identifier   string
	Attributes   AttrMap
	SlotList     []*Slot
	ApplyEffects bool
	Rules        []Validator
}

func NewInventory(p pos.Position, id string, attrs AttrMap) *Inventory {
	return &Inventory{Position: p, Identifier: id, Attributes: attrs}
}

func (inv *Inventory) NodeType() string  { return "inventory" }
func (inv *Inventory) Pos() pos.Position { return inv.Position }
func (inv *Inventory) ID() string        { return inv.Identifier }

// PreProcess defaults apply_effects to false when absent, per spec.
func (inv *Inventory) PreProcess() Node {
	inv.ApplyEffects = attrBool(inv.Attributes, "apply_effects", false)
	return inv
}
func (inv *Inventory) Process(g *Game) Node { return inv }
func (inv *Inventory) Children() []Node {
	out := make([]Node, len(inv.SlotList))
	for i, s := range inv.SlotList {
		out[i] = s
	}
	return out
}
func (inv *Inventory) Validators(g *Game) []Validator { return inv.Rules }
func (inv *Inventory) AddSlot(s *Slot)                { inv.SlotList = append(inv.SlotList, s) }

// --- Slot ---

type Slot struct {
	Position   pos.Position
	Identifier string
	Attributes AttrMap
	Rules      []Validator
}

func NewSlot(p pos.Position, id string, attrs AttrMap) *Slot {
	return &Slot{Position: p, Identifier: id, Attributes: attrs}
}

func (s *Slot) NodeType() string               { return "slot" }
func (s *Slot) Pos() pos.Position              { return s.Position }
func (s *Slot) ID() string                     { return s.Identifier }
func (s *Slot) PreProcess() Node               { return s }
func (s *Slot) Process(g *Game) Node           { return s }
func (s *Slot) Children() []Node               { return nil }
func (s *Slot) Validators(g *Game) []Validator { return s.Rules }

// --- Asset ---

type Asset struct {
	Position   pos.Position
	Identifier string
	Attributes AttrMap
	Rules      []Validator
}

func NewAsset(p pos.Position, id string, attrs AttrMap) *Asset {
	return &Asset{Position: p, Identifier: id, Attributes: attrs}
}

func (a *Asset) NodeType() string               { return "asset" }
func (a *Asset) Pos() pos.Position              { return a.Position }
func (a *Asset) ID() string                     { return a.Identifier }
func (a *Asset) PreProcess() Node               { return a }
func (a *Asset) Process(g *Game) Node           { return a }
func (a *Asset) Children() []Node               { return nil }
func (a *Asset) Validators(g *Game) []Validator { return a.Rules }

// --- Group ---

type Group struct {
	Position   pos.Position
	Identifier string
	Attributes AttrMap
	Rules      []Validator
}

func NewGroup(p pos.Position, id string, attrs AttrMap) *Group {
	return &Group{Position: p, Identifier: id, Attributes: attrs}
}

func (gr *Group) NodeType() string               { return "group" }
func (gr *Group) Pos() pos.Position              { return gr.Position }
func (gr *Group) ID() string                     { return gr.Identifier }
func (gr *Group) PreProcess() Node               { return gr }
func (gr *Group) Process(g *Game) Node           { return gr }
func (gr *Group) Children() []Node               { return nil }
func (gr *Group) Validators(g *Game) []Validator { return gr.Rules }

// --- Helper ---

type Helper struct {
	Position     pos.Position
	Identifier   string
	Attributes   AttrMap
	Args         []string
	CompiledBody *template.Template
	Rules        []Validator
}

func NewHelper(p pos.Position, id string, attrs AttrMap) *Helper {
	return &Helper{Position: p, Identifier: id, Attributes: attrs}
}

func (h *Helper) NodeType() string  { return "helper" }
func (h *Helper) Pos() pos.Position { return h.Position }
func (h *Helper) ID() string        { return h.Identifier }
func (h *Helper) PreProcess() Node {
	if params, ok := h.Attributes["params"]; ok && params.Type == token.List {
		for _, p := range params.Items {
			if p.Type == token.Keyword {
				h.Args = append(h.Args, p.Kw)
			}
		}
	}
	return h
}
func (h *Helper) Process(g *Game) Node {
	body, _ := attrString(h.Attributes, "body")
	tmpl, err := template.New(h.Identifier).Parse(body)
	if err == nil {
		h.CompiledBody = tmpl
	}
	return h
}
func (h *Helper) Children() []Node               { return nil }
func (h *Helper) Validators(g *Game) []Validator { return nil }

// --- Task ---

type Task struct {
	Position     pos.Position
	Identifier   string
	Attributes   AttrMap
	MinChildren  int
	MaxChildren  int
	OptionNames  []string
}

func NewTask(p pos.Position, id string, attrs AttrMap) *Task {
	return &Task{Position: p, Identifier: id, Attributes: attrs, MaxChildren: -1}
}

func (t *Task) NodeType() string  { return "task" }
func (t *Task) Pos() pos.Position { return t.Position }
func (t *Task) ID() string        { return t.Identifier }
func (t *Task) PreProcess() Node {
	t.MinChildren = int(attrNumber(t.Attributes, "min_children", -1))
	t.MaxChildren = int(attrNumber(t.Attributes, "max_children", -1))
	if opts, ok := t.Attributes["options"]; ok && (opts.Type == token.Set || opts.Type == token.List) {
		for _, o := range opts.Items {
			if o.Type == token.Keyword {
				t.OptionNames = append(t.OptionNames, o.Kw)
			} else if o.Type == token.String {
				t.OptionNames = append(t.OptionNames, o.Str)
			}
		}
	}
	return t
}
func (t *Task) Process(g *Game) Node           { return t }
func (t *Task) Children() []Node               { return nil }
func (t *Task) Validators(g *Game) []Validator { return nil }

// AcceptsChildCount reports whether n children satisfies this task's
// declared arity.
func (t *Task) AcceptsChildCount(n int) error {
	if n < t.MinChildren {
		return fmt.Errorf("task %q requires at least %d children, got %d", t.Identifier, t.MinChildren, n)
	}
	if t.MaxChildren >= 0 && n > t.MaxChildren {
		return fmt.Errorf("task %q allows at most %d children, got %d", t.Identifier, t.MaxChildren, n)
	}
	return nil
}

// HasOption reports whether name is one of this task's declared option
// keys.
func (t *Task) HasOption(name string) bool {
	for _, o := range t.OptionNames {
		if o == name {
			return true
		}
	}
	return false
}

// --- Derive ---

// Derive is a @derive statement: it never becomes a Game child. It folds
// directly into the type hierarchy at parse time.
type Derive struct {
	Position pos.Position
	Tag      string
	Parent   string
}
