package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/islemaster/rez/internal/compile"
	"github.com/islemaster/rez/internal/config"
	"github.com/islemaster/rez/internal/report"
)

// StoreReportCommand creates the store-report command: compile and
// validate a source file, then persist the resulting report through
// either the mock or PostgreSQL store.
func StoreReportCommand() *cobra.Command {
	var (
		storeType string
		connStr   string
		mockPath  string
	)

	cmd := &cobra.Command{
		Use:   "store-report <file.rez>",
		Short: "Compile, validate, and persist a validation report",
		Long: `store-report compiles and validates a Rez source file, then saves the
resulting report through the configured store.

Examples:
  # Store to a local mock directory
  rez store-report game.rez --store=mock --mock-path=data/reports

  # Store to PostgreSQL
  rez store-report game.rez --store=postgres --conn="postgres://localhost/rez"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStoreReport(args[0], storeType, connStr, mockPath)
		},
	}

	cmd.Flags().StringVar(&storeType, "store", "", "Store type: postgres or mock (overrides REZ_STORE_TYPE)")
	cmd.Flags().StringVar(&connStr, "conn", "", "PostgreSQL connection string (overrides REZ_STORE_CONN_STRING)")
	cmd.Flags().StringVar(&mockPath, "mock-path", "", "Mock store data directory (overrides REZ_MOCK_DATA_PATH)")
	cmd.MarkFlagsMutuallyExclusive("conn", "mock-path")

	return cmd
}

func runStoreReport(path, storeType, connStr, mockPath string) error {
	source, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("store-report: read %s: %w", path, err)
	}

	cfg := config.ReportStoreConfig()
	if storeType != "" {
		cfg = overrideStoreType(cfg, storeType)
	}
	if connStr != "" {
		cfg.ConnectionString = connStr
	}
	if mockPath != "" {
		cfg.MockDataPath = mockPath
	}

	if cfg.Type == report.Mock {
		fmt.Printf("Running in MOCK mode (data from: %s)\n", cfg.MockDataPath)
	} else {
		fmt.Println("Running in DATABASE mode")
	}

	store, err := report.NewStore(cfg)
	if err != nil {
		return fmt.Errorf("store-report: %w", err)
	}
	defer store.Close()

	_, v, err := compile.Compile(path, string(source))
	if err != nil {
		return fmt.Errorf("store-report: %w", err)
	}

	rep := report.NewReport(path, v)
	ctx := context.Background()
	if err := store.Save(ctx, rep); err != nil {
		return fmt.Errorf("store-report: %w", err)
	}

	fmt.Printf("Stored report %s for %s (%d error(s))\n", rep.ID, path, len(rep.Errors))
	return nil
}

// overrideStoreType applies an explicit --store flag on top of the
// environment-derived config, re-deriving whichever connection detail
// that store type actually needs.
func overrideStoreType(cfg report.Config, storeType string) report.Config {
	switch report.Type(storeType) {
	case report.Postgres:
		cfg.Type = report.Postgres
		if cfg.ConnectionString == "" {
			cfg.ConnectionString = os.Getenv("REZ_STORE_CONN_STRING")
		}
	default:
		cfg.Type = report.Mock
		if cfg.MockDataPath == "" {
			cfg.MockDataPath = os.Getenv("REZ_MOCK_DATA_PATH")
		}
	}
	return cfg
}
