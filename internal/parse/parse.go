// Package parse provides the primitive parsers and combinators the block
// schema layer is built from. A parser is a function from one Context to
// another: it either advances the position and pushes matched values onto
// the AST stack, or it fails, leaving the caller to decide whether to
// backtrack.
package parse

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/islemaster/rez/internal/idmap"
	"github.com/islemaster/rez/internal/pos"
	"github.com/islemaster/rez/internal/typehier"
)

// Status is the outcome of the last parser applied to a Context.
type Status int

const (
	StatusOK Status = iota
	StatusFail
)

// Data carries the collaborators threaded through a parse: the logical
// file for position resolution, the identifier map, and the type
// hierarchy. None of these are package-level singletons; every Context
// carries its own.
type Data struct {
	Source *pos.LogicalFile
	IDs    *idmap.Map
	Types  *typehier.Hierarchy
}

// Context is the parser's working state: the input, the current byte
// offset into it, the stack of matched values, and the outcome of the
// last parser applied.
type Context struct {
	Input     string
	Pos       int
	AST       []any
	Status    Status
	Err       error
	Committed bool
	Data      *Data
}

// NewContext starts a fresh parse of input with the given collaborators.
func NewContext(input string, data *Data) Context {
	return Context{Input: input, Data: data}
}

// OK reports whether the last parser applied to this Context succeeded.
func (c Context) OK() bool { return c.Status == StatusOK }

// Push returns a copy of c with v appended to its AST stack. Copying
// instead of mutating in place keeps backtracking (Choice reverting to a
// pre-alternative Context) safe.
func (c Context) Push(v any) Context {
	next := make([]any, len(c.AST), len(c.AST)+1)
	copy(next, c.AST)
	c.AST = append(next, v)
	return c
}

// Fail returns a copy of c marked failed with err.
func (c Context) Fail(err error) Context {
	c.Status = StatusFail
	c.Err = err
	return c
}

// Parser is a single step of parsing: Context in, Context out.
type Parser func(Context) Context

// Sequence runs each parser in order, threading the Context through. It
// stops and returns the first failure.
func Sequence(parsers ...Parser) Parser {
	return func(ctx Context) Context {
		cur := ctx
		for _, p := range parsers {
			cur = p(cur)
			if !cur.OK() {
				return cur
			}
		}
		return cur
	}
}

// Choice tries each alternative in order and returns the first that
// succeeds. An alternative that fails without committing is discarded —
// Choice reverts to the Context it started with before trying the next
// one. An alternative that fails after committing is a hard failure:
// Choice stops and returns it without trying the rest.
func Choice(parsers ...Parser) Parser {
	return func(ctx Context) Context {
		if len(parsers) == 0 {
			return ctx.Fail(fmt.Errorf("parse: choice has no alternatives"))
		}
		var last Context
		for i, p := range parsers {
			attempt := p(ctx)
			if attempt.OK() {
				return attempt
			}
			if attempt.Committed != ctx.Committed {
				return attempt
			}
			last = attempt
			if i == len(parsers)-1 {
				return last
			}
		}
		return last
	}
}

// Many applies p repeatedly until it fails, collecting zero or more
// matches. A non-committing failure ends the repetition without being
// reported; a committing failure propagates.
func Many(p Parser) Parser {
	return func(ctx Context) Context {
		cur := ctx
		for {
			attempt := p(cur)
			if !attempt.OK() {
				if attempt.Committed != cur.Committed {
					return attempt
				}
				return cur
			}
			if attempt.Pos == cur.Pos {
				// no progress made; stop to avoid looping forever
				return attempt
			}
			cur = attempt
		}
	}
}

// Optional tries p; if it fails without committing, Optional succeeds
// with the original Context unchanged.
func Optional(p Parser) Parser {
	return func(ctx Context) Context {
		attempt := p(ctx)
		if attempt.OK() {
			return attempt
		}
		if attempt.Committed != ctx.Committed {
			return attempt
		}
		return ctx
	}
}

// NotLookahead succeeds, without consuming input, exactly when p would
// fail. It is used to assert the absence of a following token.
func NotLookahead(p Parser) Parser {
	return func(ctx Context) Context {
		attempt := p(ctx)
		if attempt.OK() {
			return ctx.Fail(fmt.Errorf("parse: unexpected match at offset %d", ctx.Pos))
		}
		return ctx
	}
}

// Ignore runs p for its effect on Pos/Committed/Status but discards any
// AST entries it pushed.
func Ignore(p Parser) Parser {
	return func(ctx Context) Context {
		attempt := p(ctx)
		if !attempt.OK() {
			return attempt
		}
		attempt.AST = ctx.AST
		return attempt
	}
}

// Commit marks the Context as committed: once set, a later failure in
// the enclosing Sequence is no longer a candidate for backtracking by an
// outer Choice or Many/Optional. Used right after a block keyword that
// uniquely identifies which alternative the parser is in.
func Commit() Parser {
	return func(ctx Context) Context {
		ctx.Committed = true
		return ctx
	}
}

// ILiteral matches lit case-insensitively at the current position.
func ILiteral(lit string) Parser {
	return func(ctx Context) Context {
		end := ctx.Pos + len(lit)
		if end > len(ctx.Input) || !strings.EqualFold(ctx.Input[ctx.Pos:end], lit) {
			return ctx.Fail(fmt.Errorf("parse: expected %q at offset %d", lit, ctx.Pos))
		}
		ctx.Pos = end
		return ctx
	}
}

// IWS consumes zero or more whitespace characters. It always succeeds.
func IWS() Parser {
	return func(ctx Context) Context {
		i := ctx.Pos
		for i < len(ctx.Input) && unicode.IsSpace(rune(ctx.Input[i])) {
			i++
		}
		ctx.Pos = i
		return ctx
	}
}

// Any matches a single arbitrary character, failing only at end of input.
func Any() Parser {
	return func(ctx Context) Context {
		if ctx.Pos >= len(ctx.Input) {
			return ctx.Fail(fmt.Errorf("parse: unexpected end of input at offset %d", ctx.Pos))
		}
		ctx.Pos++
		return ctx
	}
}
