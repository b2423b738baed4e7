// Package block implements the seven parameterized block shapes every
// Rez top-level construct is built from, and the post-match procedure
// they share: resolve the block's source position, turn its attribute
// list into a map, construct the node, run its pre-processing hook, and
// register its identifier.
package block

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/islemaster/rez/internal/ast"
	"github.com/islemaster/rez/internal/parse"
	"github.com/islemaster/rez/internal/pos"
	"github.com/islemaster/rez/internal/token"
)

// header matches a block's leading keyword and commits: once the
// keyword has matched, a later failure inside this block is no longer a
// candidate for backtracking to a sibling alternative.
func header(label string) parse.Parser {
	return parse.Sequence(parse.ILiteral(label), parse.Commit(), parse.IWS())
}

func isIdentChar(c byte) bool {
	return unicode.IsLetter(rune(c)) || unicode.IsDigit(rune(c)) || c == '_' || c == '-'
}

func readIdentifier(ctx parse.Context) (parse.Context, string, error) {
	ctx = parse.IWS()(ctx)
	start := ctx.Pos
	for ctx.Pos < len(ctx.Input) && isIdentChar(ctx.Input[ctx.Pos]) {
		ctx.Pos++
	}
	if ctx.Pos == start {
		return ctx, "", fmt.Errorf("block: expected identifier at offset %d", start)
	}
	return ctx, ctx.Input[start:ctx.Pos], nil
}

// readAttrs parses a required `{ key: value ... }` attribute list.
func readAttrs(ctx parse.Context) (parse.Context, ast.AttrMap, error) {
	ctx = parse.IWS()(ctx)
	if ctx.Pos >= len(ctx.Input) || ctx.Input[ctx.Pos] != '{' {
		return ctx, nil, fmt.Errorf("expected '{' at offset %d", ctx.Pos)
	}
	ctx.Pos++
	attrs := ast.AttrMap{}
	for {
		ctx = parse.IWS()(ctx)
		if ctx.Pos >= len(ctx.Input) {
			return ctx, nil, fmt.Errorf("unterminated attribute list starting near offset %d", ctx.Pos)
		}
		if ctx.Input[ctx.Pos] == '}' {
			ctx.Pos++
			return ctx, attrs, nil
		}
		var key string
		var err error
		ctx, key, err = readIdentifier(ctx)
		if err != nil {
			return ctx, nil, err
		}
		ctx = parse.IWS()(ctx)
		if ctx.Pos >= len(ctx.Input) || ctx.Input[ctx.Pos] != ':' {
			return ctx, nil, fmt.Errorf("expected ':' after attribute key %q at offset %d", key, ctx.Pos)
		}
		ctx.Pos++
		ctx = parse.IWS()(ctx)

		r := token.NewReader(ctx.Input[ctx.Pos:])
		v, err := r.ReadValue()
		if err != nil {
			return ctx, nil, fmt.Errorf("reading value for attribute %q: %w", key, err)
		}
		ctx.Pos += r.Pos()
		attrs[key] = v

		ctx = parse.IWS()(ctx)
		if ctx.Pos < len(ctx.Input) && ctx.Input[ctx.Pos] == ',' {
			ctx.Pos++
		}
	}
}

// readAttrsOptional parses a `{ ... }` attribute list if one is present,
// or returns an empty map without consuming anything otherwise.
func readAttrsOptional(ctx parse.Context) (parse.Context, ast.AttrMap) {
	save := ctx
	next, attrs, err := readAttrs(ctx)
	if err != nil {
		return save, ast.AttrMap{}
	}
	return next, attrs
}

func resolvePos(ctx parse.Context, offset int) pos.Position {
	if ctx.Data != nil && ctx.Data.Source != nil {
		return ctx.Data.Source.ResolveLine(offset)
	}
	return pos.Position{Line: 1, Column: offset + 1}
}

// DefaultID synthesizes an id for an auto-id block: the "name" attribute
// slugified if present, otherwise a generated UUID, matching the
// lenient behavior preserved for auto-id collisions.
func DefaultID(attrs ast.AttrMap) string {
	if v, ok := attrs["name"]; ok {
		switch v.Type {
		case token.String:
			return slugify(v.Str)
		case token.Keyword:
			return v.Kw
		}
	}
	return uuid.New().String()
}

func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var sb strings.Builder
	lastDash := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			sb.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				sb.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(sb.String(), "-")
}

// finish is the shared post-match procedure: resolve position (already
// done by the caller, since position must be captured before any child
// content is consumed), build the attribute map (already done), run
// pre_process, register the id, and push the finished node. The id map
// records the node's own NodeType() as its kind label, not the surface
// `@label` keyword that introduced it (the two coincide for most blocks,
// but the map entry is what cross-reference validators like RefersTo
// compare against, so it must match what nodes report about themselves).
func finish(ctx parse.Context, label, id string, node ast.Node) parse.Context {
	node = node.PreProcess()
	if id != "" && ctx.Data != nil && ctx.Data.IDs != nil {
		ctx.Data.IDs.Register(id, node.NodeType(), node.Pos())
	}
	return ctx.Push(node)
}

// Bare is shape 1 (auto-id): `label { attrs }`, where build decides the
// node's own id (typically via DefaultID).
func Bare(label string, build func(p pos.Position, attrs ast.AttrMap) ast.Node) parse.Parser {
	return func(ctx parse.Context) parse.Context {
		start := ctx.Pos
		ctx = header(label)(ctx)
		if !ctx.OK() {
			return ctx
		}
		var attrs ast.AttrMap
		var err error
		ctx, attrs, err = readAttrs(ctx)
		if err != nil {
			return ctx.Fail(fmt.Errorf("block: %s: %w", label, err))
		}
		node := build(resolvePos(ctx, start), attrs)
		return finish(ctx, label, node.ID(), node)
	}
}

// WithID is shape 2 (required-id): `label identifier { attrs }`.
func WithID(label string, build func(p pos.Position, id string, attrs ast.AttrMap) ast.Node) parse.Parser {
	return func(ctx parse.Context) parse.Context {
		start := ctx.Pos
		ctx = header(label)(ctx)
		if !ctx.OK() {
			return ctx
		}
		var id string
		var err error
		ctx, id, err = readIdentifier(ctx)
		if err != nil {
			return ctx.Fail(fmt.Errorf("block: %s: %w", label, err))
		}
		var attrs ast.AttrMap
		ctx, attrs, err = readAttrs(ctx)
		if err != nil {
			return ctx.Fail(fmt.Errorf("block: %s %s: %w", label, id, err))
		}
		node := build(resolvePos(ctx, start), id, attrs)
		return finish(ctx, label, id, node)
	}
}

// WithOptionalAttrs is shape 3: `label identifier` with an optional
// `{ attrs }` tail.
func WithOptionalAttrs(label string, build func(p pos.Position, id string, attrs ast.AttrMap) ast.Node) parse.Parser {
	return func(ctx parse.Context) parse.Context {
		start := ctx.Pos
		ctx = header(label)(ctx)
		if !ctx.OK() {
			return ctx
		}
		var id string
		var err error
		ctx, id, err = readIdentifier(ctx)
		if err != nil {
			return ctx.Fail(fmt.Errorf("block: %s: %w", label, err))
		}
		var attrs ast.AttrMap
		ctx, attrs = readAttrsOptional(ctx)
		node := build(resolvePos(ctx, start), id, attrs)
		return finish(ctx, label, id, node)
	}
}

// WithChildren is shape 4: `label { attrs } { child* }` with no id of
// its own. parseChild and addChild let the caller decide which nested
// parser recognizes a child and how it attaches to the parent node.
func WithChildren(
	label string,
	parseChild parse.Parser,
	addChild func(parent, child ast.Node),
	build func(p pos.Position, attrs ast.AttrMap) ast.Node,
) parse.Parser {
	return func(ctx parse.Context) parse.Context {
		start := ctx.Pos
		ctx = header(label)(ctx)
		if !ctx.OK() {
			return ctx
		}
		var attrs ast.AttrMap
		ctx, attrs = readAttrsOptional(ctx)
		node := build(resolvePos(ctx, start), attrs)

		ctx, failure := consumeChildren(ctx, label, parseChild, node, addChild)
		if failure != nil {
			return *failure
		}
		return finish(ctx, label, node.ID(), node)
	}
}

// WithIDAndChildren is shape 5: `label identifier { attrs } { child* }`.
func WithIDAndChildren(
	label string,
	parseChild parse.Parser,
	addChild func(parent, child ast.Node),
	build func(p pos.Position, id string, attrs ast.AttrMap) ast.Node,
) parse.Parser {
	return func(ctx parse.Context) parse.Context {
		start := ctx.Pos
		ctx = header(label)(ctx)
		if !ctx.OK() {
			return ctx
		}
		var id string
		var err error
		ctx, id, err = readIdentifier(ctx)
		if err != nil {
			return ctx.Fail(fmt.Errorf("block: %s: %w", label, err))
		}
		var attrs ast.AttrMap
		ctx, attrs = readAttrsOptional(ctx)
		node := build(resolvePos(ctx, start), id, attrs)

		ctx, failure := consumeChildren(ctx, label, parseChild, node, addChild)
		if failure != nil {
			return *failure
		}
		return finish(ctx, label, id, node)
	}
}

// consumeChildren reads an optional `{ child* }` list, applying
// parseChild repeatedly and handing each result to addChild. Absence of
// the opening brace is not an error: a block with no children is
// allowed to omit the list entirely.
func consumeChildren(
	ctx parse.Context,
	label string,
	parseChild parse.Parser,
	node ast.Node,
	addChild func(parent, child ast.Node),
) (parse.Context, *parse.Context) {
	probe := parse.IWS()(ctx)
	if probe.Pos >= len(probe.Input) || probe.Input[probe.Pos] != '{' {
		return ctx, nil
	}
	ctx = probe
	ctx.Pos++
	for {
		ctx = parse.IWS()(ctx)
		if ctx.Pos < len(ctx.Input) && ctx.Input[ctx.Pos] == '}' {
			ctx.Pos++
			return ctx, nil
		}
		if ctx.Pos >= len(ctx.Input) {
			failed := ctx.Fail(fmt.Errorf("block: %s: unterminated child list", label))
			return ctx, &failed
		}
		childCtx := parseChild(ctx)
		if !childCtx.OK() {
			return ctx, &childCtx
		}
		if len(childCtx.AST) == 0 {
			failed := childCtx.Fail(fmt.Errorf("block: %s: child parser matched but pushed no node", label))
			return ctx, &failed
		}
		child, ok := childCtx.AST[len(childCtx.AST)-1].(ast.Node)
		if !ok {
			failed := childCtx.Fail(fmt.Errorf("block: %s: child parser pushed a non-node value", label))
			return ctx, &failed
		}
		addChild(node, child)
		childCtx.AST = childCtx.AST[:len(childCtx.AST)-1]
		ctx = childCtx
	}
}

// Delimited is shape 6: `label begin <raw text> end`, a non-nesting
// delimited text block. It pushes the extracted text as a plain string,
// for callers to fold into an attribute themselves (e.g. a helper's
// body or a card's content written in long form).
func Delimited(label string, trim bool) parse.Parser {
	return func(ctx parse.Context) parse.Context {
		ctx = header(label)(ctx)
		if !ctx.OK() {
			return ctx
		}
		ctx = parse.Sequence(parse.ILiteral("begin"), parse.IWS())(ctx)
		if !ctx.OK() {
			return ctx
		}
		idx := findEnd(ctx.Input, ctx.Pos)
		if idx < 0 {
			return ctx.Fail(fmt.Errorf("block: %s: missing closing 'end'", label))
		}
		text := ctx.Input[ctx.Pos:idx]
		if trim {
			text = strings.TrimSpace(text)
		}
		ctx.Pos = idx + len("end")
		return ctx.Push(text)
	}
}

// findEnd locates the first "end" token on a word boundary at or after
// from. Delimited text blocks do not nest, so the first such token
// always closes the block.
func findEnd(input string, from int) int {
	for i := from; i+3 <= len(input); i++ {
		if strings.EqualFold(input[i:i+3], "end") {
			before, after := byte(' '), byte(' ')
			if i > 0 {
				before = input[i-1]
			}
			if i+3 < len(input) {
				after = input[i+3]
			}
			if !isIdentChar(before) && !isIdentChar(after) {
				return i
			}
		}
	}
	return -1
}

// Derive is shape 7: `@derive :tag :parent`. It never produces a Game
// child; it folds directly into the type hierarchy threaded through
// ctx.Data, and pushes an ast.Derive record purely for callers that want
// to observe the statement (e.g. diagnostics, tests).
func Derive() parse.Parser {
	return func(ctx parse.Context) parse.Context {
		start := ctx.Pos
		ctx = parse.Sequence(parse.ILiteral("@derive"), parse.Commit(), parse.IWS())(ctx)
		if !ctx.OK() {
			return ctx
		}

		tagR := token.NewReader(ctx.Input[ctx.Pos:])
		tagVal, err := tagR.ReadValue()
		if err != nil || tagVal.Type != token.Keyword {
			return ctx.Fail(fmt.Errorf("block: @derive: expected tag keyword at offset %d", ctx.Pos))
		}
		ctx.Pos += tagR.Pos()
		ctx = parse.IWS()(ctx)

		parentR := token.NewReader(ctx.Input[ctx.Pos:])
		parentVal, err := parentR.ReadValue()
		if err != nil || parentVal.Type != token.Keyword {
			return ctx.Fail(fmt.Errorf("block: @derive: expected parent keyword at offset %d", ctx.Pos))
		}
		ctx.Pos += parentR.Pos()

		if ctx.Data != nil && ctx.Data.Types != nil {
			if err := ctx.Data.Types.Derive(tagVal.Kw, parentVal.Kw); err != nil {
				return ctx.Fail(fmt.Errorf("block: %w", err))
			}
		}
		d := ast.Derive{Position: resolvePos(ctx, start), Tag: tagVal.Kw, Parent: parentVal.Kw}
		return ctx.Push(d)
	}
}
