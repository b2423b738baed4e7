// Package report turns a validator.Validation into a durable record and
// persists it through a pluggable Store, letting the command layer write
// through either a real database or a mock adapter without knowing which.
package report

import (
	"time"

	"github.com/google/uuid"

	"github.com/islemaster/rez/internal/validator"
)

// Finding is a flattened, storage-friendly copy of a validator.Finding:
// the node's kind/id instead of the live ast.Node, so a Report survives
// round-tripping through JSON or a database row.
type Finding struct {
	NodeKind string `json:"node_kind"`
	NodeID   string `json:"node_id"`
	Message  string `json:"message"`
}

// Report is the persisted result of compiling and validating one source
// file: which nodes were visited and which validators failed against
// them.
type Report struct {
	ID        uuid.UUID `json:"id"`
	Game      string    `json:"game"`
	CreatedAt time.Time `json:"created_at"`
	Validated []string  `json:"validated"`
	Errors    []Finding `json:"errors"`
}

// NewReport flattens a validator.Validation into a Report named after
// the game/file it came from, stamping a fresh id and the current time.
func NewReport(game string, v validator.Validation) Report {
	errs := make([]Finding, len(v.Errors))
	for i, f := range v.Errors {
		errs[i] = Finding{NodeKind: f.Node.NodeType(), NodeID: f.Node.ID(), Message: f.Message}
	}
	return Report{
		ID:        uuid.New(),
		Game:      game,
		CreatedAt: time.Now(),
		Validated: append([]string(nil), v.Validated...),
		Errors:    errs,
	}
}

// OK reports whether the validation run that produced r found zero
// errors.
func (r Report) OK() bool {
	return len(r.Errors) == 0
}
