package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/islemaster/rez/internal/compile"
)

// jsonFinding mirrors validator.Finding but swaps the live ast.Node for
// its kind/id pair, the same flattening report.Finding does, so this
// command doesn't need to depend on internal/report just to print JSON.
type jsonFinding struct {
	NodeKind string `json:"node_kind"`
	NodeID   string `json:"node_id"`
	Message  string `json:"message"`
}

// ValidateCommand creates the validate command: compile a source file
// and print every validation finding, either as human-readable text or,
// with --json, as a machine-readable report.
func ValidateCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "validate <file.rez>",
		Short: "Validate a Rez source file and list every finding",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(args[0], asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print findings as JSON instead of text")
	return cmd
}

func runValidate(path string, asJSON bool) error {
	source, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("validate: read %s: %w", path, err)
	}

	_, v, err := compile.Compile(path, string(source))
	if err != nil {
		return fmt.Errorf("validate: %w", err)
	}

	findings := make([]jsonFinding, len(v.Errors))
	for i, f := range v.Errors {
		findings[i] = jsonFinding{NodeKind: f.Node.NodeType(), NodeID: f.Node.ID(), Message: f.Message}
	}

	if asJSON {
		data, err := json.MarshalIndent(findings, "", "  ")
		if err != nil {
			return fmt.Errorf("validate: marshal findings: %w", err)
		}
		fmt.Println(string(data))
		if len(findings) > 0 {
			return fmt.Errorf("validate: %d finding(s)", len(findings))
		}
		return nil
	}

	if len(findings) == 0 {
		fmt.Printf("%s: OK (%d node(s) validated)\n", path, len(v.Validated))
		return nil
	}
	for _, f := range findings {
		fmt.Printf("%s %s: %s\n", f.NodeKind, f.NodeID, f.Message)
	}
	return fmt.Errorf("validate: %d finding(s)", len(findings))
}
