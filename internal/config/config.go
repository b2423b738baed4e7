package config

import (
	"os"
	"strings"

	"github.com/islemaster/rez/internal/report"
)

// ReportStoreConfig returns the report store configuration based on
// environment variables.
func ReportStoreConfig() report.Config {
	storeType := os.Getenv("REZ_STORE_TYPE")
	if storeType == "" {
		storeType = "mock" // Default to the disconnected mock store.
	}

	cfg := report.Config{}
	switch strings.ToLower(storeType) {
	case "postgres", "postgresql", "db":
		cfg.Type = report.Postgres
		cfg.ConnectionString = getConnectionString()
	default:
		cfg.Type = report.Mock
		cfg.MockDataPath = getMockDataPath()
	}
	return cfg
}

// getMockDataPath returns the path to mock report data files.
func getMockDataPath() string {
	path := os.Getenv("REZ_MOCK_DATA_PATH")
	if path == "" {
		return "data/reports"
	}
	return path
}

// getConnectionString returns the PostgreSQL connection string.
func getConnectionString() string {
	return os.Getenv("REZ_STORE_CONN_STRING")
}
