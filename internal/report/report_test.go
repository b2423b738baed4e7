package report

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/islemaster/rez/internal/ast"
	"github.com/islemaster/rez/internal/pos"
	"github.com/islemaster/rez/internal/validator"
)

func TestNewReportFlattensFindings(t *testing.T) {
	it := ast.NewItem(pos.Position{}, "sword", nil)
	v := validator.Validation{
		Validated: []string{"item:sword", "slot:main"},
		Errors:    []validator.Finding{{Node: it, Message: "no accepting slot"}},
	}

	r := NewReport("game.rez", v)
	assert.Equal(t, "game.rez", r.Game, "expected game name to be carried through")
	assert.NotEmpty(t, r.ID.String(), "expected a non-empty id")
	assert.Len(t, r.Validated, 2, "expected 2 validated entries")
	if assert.Len(t, r.Errors, 1, "expected exactly one flattened error") {
		assert.Equal(t, "item", r.Errors[0].NodeKind)
		assert.Equal(t, "sword", r.Errors[0].NodeID)
	}
	assert.False(t, r.OK(), "expected OK() false when errors are present")
}

func TestReportOKWithNoErrors(t *testing.T) {
	r := NewReport("clean.rez", validator.Validation{Validated: []string{"item:sword"}})
	assert.True(t, r.OK(), "expected OK() true when there are no errors")
}
