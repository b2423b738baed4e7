// Package compile binds the block schema layer's seven shapes to the
// concrete `@label`s the Rez surface grammar defines, attaches each node
// kind's validator rule set, and wires the whole thing into a single
// Compile entry point: parse the source, run the Game-wide process
// pass, then validate.
package compile

import (
	"fmt"

	"github.com/islemaster/rez/internal/ast"
	"github.com/islemaster/rez/internal/block"
	"github.com/islemaster/rez/internal/parse"
	"github.com/islemaster/rez/internal/pos"
	"github.com/islemaster/rez/internal/validator"
)

// cardParser recognizes `@card <id> { attrs }`, used both as a
// standalone top-level declaration and as the child parser scenes use
// to collect their cards.
func cardParser() parse.Parser {
	return block.WithID("@card", func(p pos.Position, id string, attrs ast.AttrMap) ast.Node {
		c := ast.NewCard(p, id, attrs)
		c.Rules = cardRules
		return c
	})
}

// sceneParser recognizes `@scene <id> { attrs } { card* }`.
func sceneParser() parse.Parser {
	return block.WithIDAndChildren(
		"@scene",
		cardParser(),
		func(parent, child ast.Node) {
			parent.(*ast.Scene).AddCard(child.(*ast.Card))
		},
		func(p pos.Position, id string, attrs ast.AttrMap) ast.Node {
			s := ast.NewScene(p, id, attrs)
			s.Rules = sceneRules
			return s
		},
	)
}

// itemParser recognizes `@item <id> { attrs }`.
func itemParser() parse.Parser {
	return block.WithID("@item", func(p pos.Position, id string, attrs ast.AttrMap) ast.Node {
		it := ast.NewItem(p, id, attrs)
		it.Rules = itemRules
		return it
	})
}

// slotParser recognizes `@slot <id>` with an optional attribute list,
// used both standalone and as an inventory's child parser.
func slotParser() parse.Parser {
	return block.WithOptionalAttrs("@slot", func(p pos.Position, id string, attrs ast.AttrMap) ast.Node {
		s := ast.NewSlot(p, id, attrs)
		s.Rules = slotRules
		return s
	})
}

// inventoryParser recognizes `@inventory <id> { attrs } { slot* }`.
func inventoryParser() parse.Parser {
	return block.WithIDAndChildren(
		"@inventory",
		slotParser(),
		func(parent, child ast.Node) {
			parent.(*ast.Inventory).AddSlot(child.(*ast.Slot))
		},
		func(p pos.Position, id string, attrs ast.AttrMap) ast.Node {
			inv := ast.NewInventory(p, id, attrs)
			inv.Rules = inventoryRules
			return inv
		},
	)
}

// assetParser recognizes `@asset { attrs }`: an auto-id block whose id
// is synthesized from its "name" attribute (or a generated fallback).
func assetParser() parse.Parser {
	return block.Bare("@asset", func(p pos.Position, attrs ast.AttrMap) ast.Node {
		a := ast.NewAsset(p, block.DefaultID(attrs), attrs)
		a.Rules = assetRules
		return a
	})
}

// assetBundle is a transient grouping construct for `@assets { asset* }`:
// it is never itself a Game child. Its only purpose is to let an author
// declare several assets inside one block instead of repeating `@asset`
// at the top level; Compile unpacks its contents into Game.Assets and
// discards the bundle node.
type assetBundle struct {
	pos    pos.Position
	assets []*ast.Asset
}

func (b *assetBundle) NodeType() string                        { return "assets" }
func (b *assetBundle) Pos() pos.Position                        { return b.pos }
func (b *assetBundle) ID() string                               { return "" }
func (b *assetBundle) PreProcess() ast.Node                     { return b }
func (b *assetBundle) Process(g *ast.Game) ast.Node             { return b }
func (b *assetBundle) Validators(g *ast.Game) []ast.Validator   { return nil }
func (b *assetBundle) Children() []ast.Node {
	out := make([]ast.Node, len(b.assets))
	for i, a := range b.assets {
		out[i] = a
	}
	return out
}

func assetsContainerParser() parse.Parser {
	return block.WithChildren(
		"@assets",
		assetParser(),
		func(parent, child ast.Node) {
			parent.(*assetBundle).assets = append(parent.(*assetBundle).assets, child.(*ast.Asset))
		},
		func(p pos.Position, attrs ast.AttrMap) ast.Node {
			return &assetBundle{pos: p}
		},
	)
}

// groupParser recognizes `@group <id> { attrs }`.
func groupParser() parse.Parser {
	return block.WithID("@group", func(p pos.Position, id string, attrs ast.AttrMap) ast.Node {
		gr := ast.NewGroup(p, id, attrs)
		gr.Rules = groupRules
		return gr
	})
}

// helperParser recognizes `@helper <id>` with an optional attribute
// list holding "params" and "body".
func helperParser() parse.Parser {
	return block.WithOptionalAttrs("@helper", func(p pos.Position, id string, attrs ast.AttrMap) ast.Node {
		h := ast.NewHelper(p, id, attrs)
		return h
	})
}

// taskParser recognizes `@task <id>` with an optional attribute list
// holding "min_children", "max_children", and "options".
func taskParser() parse.Parser {
	return block.WithOptionalAttrs("@task", func(p pos.Position, id string, attrs ast.AttrMap) ast.Node {
		return ast.NewTask(p, id, attrs)
	})
}

// topLevel is the full grammar: every top-level construct a source file
// may contain, tried in an order where more specific keywords (the
// multi-word "@assets" container) don't get shadowed by the plainer
// "@asset".
func topLevel() parse.Parser {
	return parse.Choice(
		sceneParser(),
		cardParser(),
		itemParser(),
		inventoryParser(),
		slotParser(),
		assetsContainerParser(),
		assetParser(),
		groupParser(),
		helperParser(),
		taskParser(),
		block.Derive(),
		block.Delimited("@notes", true),
	)
}

// Compile parses name's source into a fully populated, processed, and
// validated Game. Parsing errors (a committed block that fails to match,
// or trailing unparsed input) halt compilation; validation errors do
// not — they come back in the returned Validation for the caller to
// inspect.
func Compile(name, source string) (*ast.Game, validator.Validation, error) {
	g := ast.NewGame()
	data := &parse.Data{
		Source: pos.NewLogicalFile(name, source),
		IDs:    g.IDMap,
		Types:  g.TypeHierarchy,
	}

	ctx := parse.NewContext(source, data)
	grammar := topLevel()

	for {
		ctx = parse.IWS()(ctx)
		if ctx.Pos >= len(ctx.Input) {
			break
		}
		// Each top-level block commits on its own; a flag left over from
		// the previous block would hide this block's committed failure
		// from Choice.
		ctx.Committed = false
		next := grammar(ctx)
		if !next.OK() {
			return nil, validator.Validation{}, fmt.Errorf("compile: %s: %w", name, next.Err)
		}
		if len(next.AST) == 0 {
			return nil, validator.Validation{}, fmt.Errorf("compile: %s: block matched but produced no node at offset %d", name, ctx.Pos)
		}
		top := next.AST[len(next.AST)-1]
		next.AST = next.AST[:len(next.AST)-1]
		if err := attach(g, top); err != nil {
			return nil, validator.Validation{}, fmt.Errorf("compile: %s: %w", name, err)
		}
		ctx = next
	}

	g.Process()
	v := validator.Driver{}.Validate(g)
	return g, v, nil
}

// attach classifies a freshly parsed top-level value and folds it into
// the game under construction.
func attach(g *ast.Game, top any) error {
	switch n := top.(type) {
	case *ast.Scene:
		g.Scenes = append(g.Scenes, n)
	case *ast.Card:
		g.Cards = append(g.Cards, n)
	case *ast.Item:
		g.Items = append(g.Items, n)
	case *ast.Inventory:
		g.Inventories = append(g.Inventories, n)
	case *ast.Slot:
		g.Slots = append(g.Slots, n)
	case *ast.Asset:
		g.Assets = append(g.Assets, n)
	case *assetBundle:
		g.Assets = append(g.Assets, n.assets...)
	case *ast.Group:
		g.Groups = append(g.Groups, n)
	case *ast.Helper:
		g.Helpers = append(g.Helpers, n)
	case *ast.Task:
		g.Tasks = append(g.Tasks, n)
	case ast.Derive:
		// Already folded into g.TypeHierarchy by block.Derive(); nothing
		// further to attach.
	case string:
		g.Notes = append(g.Notes, n)
	default:
		return fmt.Errorf("unrecognized top-level node %T", top)
	}
	return nil
}
