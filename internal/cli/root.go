// Package cli assembles the rez command-line tool's cobra commands.
package cli

import (
	"github.com/spf13/cobra"
)

// RootCommand builds the top-level "rez" command with every subcommand
// attached.
func RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "rez",
		Short: "Compile and validate Rez interactive-fiction sources",
	}

	root.AddCommand(CompileCommand())
	root.AddCommand(ValidateCommand())
	root.AddCommand(StoreReportCommand())

	return root
}
