package report

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Store defines persistence operations for validation Reports. Both the
// mock and PostgreSQL adapters below implement it, so the CLI layer can
// write through either without knowing which is live.
type Store interface {
	Save(ctx context.Context, r Report) error
	Get(ctx context.Context, id string) (Report, error)
	List(ctx context.Context) ([]Report, error)
	Close() error
}

// Type selects which Store implementation Config builds.
type Type string

const (
	// Postgres persists reports to a real PostgreSQL database.
	Postgres Type = "postgres"
	// Mock persists reports as JSON files on disk.
	Mock Type = "mock"
)

// Config holds the settings needed to construct a Store, mirroring the
// REZ_STORE_TYPE / REZ_STORE_CONN_STRING / REZ_MOCK_DATA_PATH environment
// variables the CLI reads.
type Config struct {
	Type             Type
	ConnectionString string
	MockDataPath     string
}

// NewStore builds the Store cfg.Type selects.
func NewStore(cfg Config) (Store, error) {
	switch cfg.Type {
	case Postgres:
		db, err := sqlx.Connect("postgres", cfg.ConnectionString)
		if err != nil {
			return nil, fmt.Errorf("report: connect to postgres: %w", err)
		}
		return newPostgresStore(db)
	case Mock:
		return newMockStore(cfg.MockDataPath)
	default:
		return nil, &UnsupportedStoreTypeError{Type: string(cfg.Type)}
	}
}

// UnsupportedStoreTypeError is returned when Config names a Type NewStore
// doesn't recognize.
type UnsupportedStoreTypeError struct {
	Type string
}

func (e *UnsupportedStoreTypeError) Error() string {
	return "report: unsupported store type: " + e.Type
}
