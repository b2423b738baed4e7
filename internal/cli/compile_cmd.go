package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/islemaster/rez/internal/compile"
)

// CompileCommand creates the compile command: parse, process, and
// validate a source file, failing only on hard parse errors. Validation
// findings are counted but not listed here — that's what the validate
// command is for.
func CompileCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compile <file.rez>",
		Short: "Compile a Rez source file",
		Long: `Compile parses, processes, and validates a Rez source file.

It prints a short summary of the declared scenes, cards, items, and other
constructs found, along with a count of any validation errors. Use
'rez validate' for the full list of findings.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(args[0])
		},
	}
	return cmd
}

func runCompile(path string) error {
	source, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("compile: read %s: %w", path, err)
	}

	g, v, err := compile.Compile(path, string(source))
	if err != nil {
		return fmt.Errorf("compile: %w", err)
	}

	fmt.Printf("Compiled %s\n", path)
	fmt.Printf("  scenes: %d, cards: %d, items: %d, inventories: %d, slots: %d\n",
		len(g.Scenes), len(g.Cards), len(g.Items), len(g.Inventories), len(g.Slots))
	fmt.Printf("  assets: %d, groups: %d, helpers: %d, tasks: %d, notes: %d\n",
		len(g.Assets), len(g.Groups), len(g.Helpers), len(g.Tasks), len(g.Notes))

	if len(v.Errors) == 0 {
		fmt.Println("  validation: OK")
		return nil
	}
	fmt.Printf("  validation: %d error(s) found (run 'rez validate' for details)\n", len(v.Errors))
	return nil
}
