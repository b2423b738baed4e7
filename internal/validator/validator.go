// Package validator implements the declarative validator DSL: small
// composable builders that return an ast.Validator, chainable so that a
// single attribute can be checked for presence, type, and value all at
// once, plus the behaviour-tree recursion and the driver that walks a
// whole Game and collects every failure.
package validator

import (
	"fmt"
	"sort"

	"github.com/islemaster/rez/internal/ast"
	"github.com/islemaster/rez/internal/token"
)

// Chained is a validator stage that runs once an attribute has already
// been located: it receives the attribute value itself, the node it
// belongs to, and the whole game for cross-reference checks.
type Chained func(v token.AttrValue, n ast.Node, g *ast.Game) error

func runChain(v token.AttrValue, n ast.Node, g *ast.Game, chain []Chained) error {
	for _, c := range chain {
		if err := c(v, n, g); err != nil {
			return err
		}
	}
	return nil
}

func attrsOf(n ast.Node) ast.AttrMap {
	switch t := n.(type) {
	case *ast.Scene:
		return t.Attributes
	case *ast.Card:
		return t.Attributes
	case *ast.Item:
		return t.Attributes
	case *ast.Inventory:
		return t.Attributes
	case *ast.Slot:
		return t.Attributes
	case *ast.Asset:
		return t.Attributes
	case *ast.Group:
		return t.Attributes
	case *ast.Helper:
		return t.Attributes
	case *ast.Task:
		return t.Attributes
	default:
		return ast.AttrMap{}
	}
}

// Present requires key to exist on the node's attribute map, then runs
// chain against its value.
func Present(key string, chain ...Chained) ast.Validator {
	return func(n ast.Node, g *ast.Game) error {
		v, ok := attrsOf(n)[key]
		if !ok {
			return fmt.Errorf("%s %q: missing required attribute %q", n.NodeType(), n.ID(), key)
		}
		return runChain(v, n, g, chain)
	}
}

// IfPresent runs chain against key's value only if key exists; absence
// is not an error.
func IfPresent(key string, chain ...Chained) ast.Validator {
	return func(n ast.Node, g *ast.Game) error {
		v, ok := attrsOf(n)[key]
		if !ok {
			return nil
		}
		return runChain(v, n, g, chain)
	}
}

// Either passes if at least one of a, b passes.
func Either(a, b ast.Validator) ast.Validator {
	return func(n ast.Node, g *ast.Game) error {
		if err := a(n, g); err == nil {
			return nil
		}
		return b(n, g)
	}
}

// OneOfPresent requires exactly one (if exclusive) or at least one (if
// not) of keys to be present on the node.
func OneOfPresent(keys []string, exclusive bool) ast.Validator {
	return func(n ast.Node, g *ast.Game) error {
		attrs := attrsOf(n)
		count := 0
		for _, k := range keys {
			if _, ok := attrs[k]; ok {
				count++
			}
		}
		if count == 0 {
			return fmt.Errorf("%s %q: expected one of %v to be present", n.NodeType(), n.ID(), keys)
		}
		if exclusive && count > 1 {
			return fmt.Errorf("%s %q: expected exactly one of %v, found %d", n.NodeType(), n.ID(), keys, count)
		}
		return nil
	}
}

// OtherAttrsPresent requires every key in keys to be present before
// running chain against the originally-located value.
func OtherAttrsPresent(keys []string, chain ...Chained) Chained {
	return func(v token.AttrValue, n ast.Node, g *ast.Game) error {
		attrs := attrsOf(n)
		for _, k := range keys {
			if _, ok := attrs[k]; !ok {
				return fmt.Errorf("%s %q: requires attribute %q to also be present", n.NodeType(), n.ID(), k)
			}
		}
		return runChain(v, n, g, chain)
	}
}

// HasType requires the value's type to match t before running chain.
func HasType(t token.AttrType, chain ...Chained) Chained {
	return func(v token.AttrValue, n ast.Node, g *ast.Game) error {
		if v.Type != t {
			return fmt.Errorf("%s %q: expected type %s, got %s", n.NodeType(), n.ID(), t, v.Type)
		}
		return runChain(v, n, g, chain)
	}
}

// ValueOneOf requires the value to equal one of values.
func ValueOneOf(values []token.AttrValue, chain ...Chained) Chained {
	return func(v token.AttrValue, n ast.Node, g *ast.Game) error {
		for _, want := range values {
			if valuesEqual(v, want) {
				return runChain(v, n, g, chain)
			}
		}
		return fmt.Errorf("%s %q: value %s is not one of the allowed values", n.NodeType(), n.ID(), v.String())
	}
}

func valuesEqual(a, b token.AttrValue) bool {
	if a.Type != b.Type {
		return false
	}
	switch a.Type {
	case token.Number:
		return a.Num == b.Num
	case token.String:
		return a.Str == b.Str
	case token.Boolean:
		return a.Bool == b.Bool
	case token.Keyword:
		return a.Kw == b.Kw
	case token.Ref:
		return a.RefID == b.RefID
	default:
		return a.String() == b.String()
	}
}

// NotEmpty requires a List/Set/String value to be non-empty.
func NotEmpty(chain ...Chained) Chained {
	return func(v token.AttrValue, n ast.Node, g *ast.Game) error {
		empty := false
		switch v.Type {
		case token.List, token.Set:
			empty = len(v.Items) == 0
		case token.String:
			empty = v.Str == ""
		}
		if empty {
			return fmt.Errorf("%s %q: value must not be empty", n.NodeType(), n.ID())
		}
		return runChain(v, n, g, chain)
	}
}

// CollOf requires a List/Set value whose every item has one of types.
func CollOf(types []token.AttrType, chain ...Chained) Chained {
	return func(v token.AttrValue, n ast.Node, g *ast.Game) error {
		if v.Type != token.List && v.Type != token.Set {
			return fmt.Errorf("%s %q: expected a collection, got %s", n.NodeType(), n.ID(), v.Type)
		}
		for _, item := range v.Items {
			ok := false
			for _, t := range types {
				if item.Type == t {
					ok = true
					break
				}
			}
			if !ok {
				return fmt.Errorf("%s %q: collection item %s has unexpected type %s", n.NodeType(), n.ID(), item.String(), item.Type)
			}
		}
		return runChain(v, n, g, chain)
	}
}

// ListReferences requires a List/Set of Ref values, each pointing at an
// id registered in the game, optionally of the given kind.
func ListReferences(kind string, chain ...Chained) Chained {
	return func(v token.AttrValue, n ast.Node, g *ast.Game) error {
		if v.Type != token.List && v.Type != token.Set {
			return fmt.Errorf("%s %q: expected a collection of references", n.NodeType(), n.ID())
		}
		for _, item := range v.Items {
			if item.Type != token.Ref {
				return fmt.Errorf("%s %q: collection item %s is not a reference", n.NodeType(), n.ID(), item.String())
			}
			if err := checkRef(g, n, item.RefID, kind); err != nil {
				return err
			}
		}
		return runChain(v, n, g, chain)
	}
}

// RefersTo requires a Ref value pointing at an id registered in the
// game, optionally of the given kind ("" means any kind).
func RefersTo(kind string, chain ...Chained) Chained {
	return func(v token.AttrValue, n ast.Node, g *ast.Game) error {
		if v.Type != token.Ref {
			return fmt.Errorf("%s %q: expected a reference, got %s", n.NodeType(), n.ID(), v.Type)
		}
		if err := checkRef(g, n, v.RefID, kind); err != nil {
			return err
		}
		return runChain(v, n, g, chain)
	}
}

func checkRef(g *ast.Game, n ast.Node, id, kind string) error {
	entry, ok := g.IDMap.Lookup(id)
	if !ok {
		return fmt.Errorf("%s %q: reference to unknown id %q", n.NodeType(), n.ID(), id)
	}
	if kind != "" && entry.Kind != kind {
		return fmt.Errorf("%s %q: reference %q is a %s, expected a %s", n.NodeType(), n.ID(), id, entry.Kind, kind)
	}
	return nil
}

// ValuePasses requires pred(v) to be true, reporting desc on failure.
func ValuePasses(pred func(token.AttrValue) bool, desc string, chain ...Chained) Chained {
	return func(v token.AttrValue, n ast.Node, g *ast.Game) error {
		if !pred(v) {
			return fmt.Errorf("%s %q: %s", n.NodeType(), n.ID(), desc)
		}
		return runChain(v, n, g, chain)
	}
}

// ValidateIfValue only runs chain when v equals testval; otherwise it
// passes unconditionally.
func ValidateIfValue(testval token.AttrValue, chain Chained) Chained {
	return func(v token.AttrValue, n ast.Node, g *ast.Game) error {
		if !valuesEqual(v, testval) {
			return nil
		}
		return chain(v, n, g)
	}
}

// IsBTree requires the value to be an inline behaviour-tree literal.
func IsBTree(chain ...Chained) Chained {
	return func(v token.AttrValue, n ast.Node, g *ast.Game) error {
		if v.Type != token.BTree || v.Tree == nil {
			return fmt.Errorf("%s %q: expected a behaviour tree literal", n.NodeType(), n.ID())
		}
		return runChain(v, n, g, chain)
	}
}

// HasParams requires a Function value to have exactly n arguments.
func HasParams(n int, chain ...Chained) Chained {
	return func(v token.AttrValue, node ast.Node, g *ast.Game) error {
		if v.Type != token.Function || v.Call == nil {
			return fmt.Errorf("%s %q: expected a function call", node.NodeType(), node.ID())
		}
		if len(v.Call.Args) != n {
			return fmt.Errorf("%s %q: function %s expects %d arguments, got %d", node.NodeType(), node.ID(), v.Call.Name, n, len(v.Call.Args))
		}
		return runChain(v, node, g, chain)
	}
}

// ExpectsParams requires a Helper's declared params to match names
// exactly, in order.
func ExpectsParams(names []string, chain ...Chained) Chained {
	return func(v token.AttrValue, n ast.Node, g *ast.Game) error {
		h, ok := n.(*ast.Helper)
		if !ok {
			return fmt.Errorf("%s %q: expects-params only applies to helpers", n.NodeType(), n.ID())
		}
		if len(h.Args) != len(names) {
			return fmt.Errorf("helper %q: expects %d params, declared %d", h.ID(), len(names), len(h.Args))
		}
		for i, want := range names {
			if h.Args[i] != want {
				return fmt.Errorf("helper %q: param %d is %q, want %q", h.ID(), i, h.Args[i], want)
			}
		}
		return runChain(v, n, g, chain)
	}
}

// NodePasses wraps an arbitrary whole-node predicate as an ast.Validator,
// for checks too irregular to express through the attribute-chain DSL
// (e.g. DuplicateID below).
func NodePasses(fn func(ast.Node, *ast.Game) error) ast.Validator {
	return func(n ast.Node, g *ast.Game) error {
		return fn(n, g)
	}
}

// DuplicateID is an opt-in validator (not run automatically on every
// node) surfacing id collisions recorded in the game's identifier map,
// including ones synthesized for auto-id blocks. See the decision on
// auto-id collisions: they are recorded, never a hard parse failure, and
// this validator is how a caller chooses to promote them to errors.
func DuplicateID() ast.Validator {
	return NodePasses(func(n ast.Node, g *ast.Game) error {
		if g == nil || g.IDMap == nil {
			return nil
		}
		cols := g.IDMap.Collisions(n.ID())
		if len(cols) == 0 {
			return nil
		}
		return fmt.Errorf("%s %q: id collides with %d other declaration(s)", n.NodeType(), n.ID(), len(cols))
	})
}

// ValidateTask implements the behaviour-tree recursion: look up the
// named task, check the child count against its declared arity, check
// that every option key the task declares is supplied, then recurse
// into every child.
func ValidateTask(g *ast.Game, n ast.Node, taskID string, options map[string]token.AttrValue, children []token.BTreeNode) error {
	task, ok := g.FindTask(taskID)
	if !ok {
		return fmt.Errorf("%s %q: behaviour tree references unknown task %q", n.NodeType(), n.ID(), taskID)
	}
	if err := task.AcceptsChildCount(len(children)); err != nil {
		return fmt.Errorf("%s %q: %w", n.NodeType(), n.ID(), err)
	}
	for _, name := range task.OptionNames {
		if _, ok := options[name]; !ok {
			return fmt.Errorf("%s %q: task %q requires option %q", n.NodeType(), n.ID(), taskID, name)
		}
	}

	var childErrs []string
	for _, c := range children {
		if err := ValidateTask(g, n, c.Task, c.Options, c.Children); err != nil {
			childErrs = append(childErrs, err.Error())
		}
	}
	if len(childErrs) > 0 {
		joined := childErrs[0]
		for _, e := range childErrs[1:] {
			joined += ", " + e
		}
		return fmt.Errorf("%s %q: %s", n.NodeType(), n.ID(), joined)
	}
	return nil
}

// Finding pairs one validator's failure with the node it was raised
// against.
type Finding struct {
	Node    ast.Node
	Message string
}

// Validation is the output of a full validation pass: the game that was
// checked, every finding (in deterministic traversal order), and a
// record of which nodes were visited at all.
type Validation struct {
	Game      *ast.Game
	Errors    []Finding
	Validated []string
}

// Driver walks a Game's nodes in deterministic order and runs each
// node's declared validators against it, accumulating every failure
// rather than stopping at the first one.
type Driver struct{}

// Validate runs every node's validators (and recurses into its
// children) and returns the accumulated findings.
func (Driver) Validate(g *ast.Game) Validation {
	v := Validation{Game: g}
	for _, n := range g.AllNodes() {
		validateNode(g, n, &v)
	}
	return v
}

func validateNode(g *ast.Game, n ast.Node, v *Validation) {
	v.Validated = append(v.Validated, fmt.Sprintf("%s:%s", n.NodeType(), n.ID()))
	for _, validate := range n.Validators(g) {
		if err := validate(n, g); err != nil {
			v.Errors = append(v.Errors, Finding{Node: n, Message: err.Error()})
		}
	}
	for _, child := range n.Children() {
		validateNode(g, child, v)
	}
}

// SortedErrorMessages returns every finding's message, sorted, useful
// for assertions that don't care about traversal order.
func (v Validation) SortedErrorMessages() []string {
	out := make([]string, len(v.Errors))
	for i, f := range v.Errors {
		out[i] = f.Message
	}
	sort.Strings(out)
	return out
}
