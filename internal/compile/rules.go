package compile

import (
	"fmt"

	"github.com/islemaster/rez/internal/ast"
	"github.com/islemaster/rez/internal/token"
	"github.com/islemaster/rez/internal/validator"
)

// Concrete validator rule sets per node kind, composed from the
// validator package's DSL builders. These are plain package vars, not
// closures over a particular node instance — the builders already take
// the node as a runtime argument, so one rule set serves every node of
// a kind.

var sceneRules = []ast.Validator{
	validator.IfPresent("initial_card", validator.RefersTo("card")),
}

var cardRules = []ast.Validator{
	validator.IfPresent("content", validator.HasType(token.String)),
	validator.IfPresent("on_enter", validator.IsBTree(validateBTreeChain)),
}

// itemRules requires that a consumable item also declare how many uses
// it has.
var itemRules = []ast.Validator{
	validator.Present("type", validator.HasType(token.Keyword)),
	validator.IfPresent("size", validator.HasType(token.Number)),
	validator.IfPresent("consumable", validator.HasType(token.Boolean,
		validator.ValidateIfValue(token.AttrValue{Type: token.Boolean, Bool: true},
			validator.OtherAttrsPresent([]string{"uses"})))),
	itemHasAcceptingSlot,
}

var inventoryRules = []ast.Validator{}

var slotRules = []ast.Validator{
	validator.IfPresent("accepts", acceptsIsKeywordOrCollection),
}

var assetRules = []ast.Validator{
	validator.Present("kind", validator.HasType(token.Keyword)),
}

// groupRules requires a group to narrow its membership by exactly one
// of include_tags/exclude_tags.
var groupRules = []ast.Validator{
	validator.OneOfPresent([]string{"include_tags", "exclude_tags"}, true),
}

// acceptsIsKeywordOrCollection accepts either a bare keyword or a
// collection of keywords, since a slot may restrict to exactly one item
// type or several.
func acceptsIsKeywordOrCollection(v token.AttrValue, n ast.Node, g *ast.Game) error {
	switch v.Type {
	case token.Keyword:
		return nil
	case token.Set, token.List:
		for _, item := range v.Items {
			if item.Type != token.Keyword {
				return fmt.Errorf("slot %q: accepts collection must contain only keywords", n.ID())
			}
		}
		return nil
	default:
		return fmt.Errorf("slot %q: accepts must be a keyword or a collection of keywords", n.ID())
	}
}

// validateBTreeChain hands a behaviour-tree-typed attribute value off to
// the recursive task validator.
func validateBTreeChain(v token.AttrValue, n ast.Node, g *ast.Game) error {
	return validator.ValidateTask(g, n, v.Tree.Task, v.Tree.Options, v.Tree.Children)
}

// itemHasAcceptingSlot checks that an item's expanded type tags
// (including is_a ancestors, via typehier.FanOut, already folded into
// Item.Tags by Process) match at least one declared slot's accepts set.
// A game with no slots at all is lenient: there is no inventory system
// to be incompatible with.
func itemHasAcceptingSlot(n ast.Node, g *ast.Game) error {
	it, ok := n.(*ast.Item)
	if !ok || g == nil || len(g.Slots) == 0 {
		return nil
	}
	typeVal, ok := it.Attributes["type"]
	if !ok || typeVal.Type != token.Keyword {
		return nil
	}
	for _, slot := range g.Slots {
		accepts, ok := slot.Attributes["accepts"]
		if !ok {
			continue
		}
		for _, kw := range keywordsOf(accepts) {
			if it.Tags[kw] {
				return nil
			}
		}
	}
	return fmt.Errorf("No slot found accepting type %s for item %s", typeVal.Kw, it.ID())
}

// keywordsOf flattens a scalar keyword or a collection of keywords into
// a slice, ignoring any non-keyword elements a malformed collection
// might contain (that malformation is itself reported by
// acceptsIsKeywordOrCollection on the slot's own validation).
func keywordsOf(v token.AttrValue) []string {
	switch v.Type {
	case token.Keyword:
		return []string{v.Kw}
	case token.Set, token.List:
		out := make([]string, 0, len(v.Items))
		for _, item := range v.Items {
			if item.Type == token.Keyword {
				out = append(out, item.Kw)
			}
		}
		return out
	default:
		return nil
	}
}
