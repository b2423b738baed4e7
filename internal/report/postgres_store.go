package report

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// PostgresStore persists Reports to a "rez".validation_reports table,
// keeping the findings and validated-node list as JSON columns since
// neither has a fixed shape worth normalizing into its own table.
type PostgresStore struct {
	db *sqlx.DB
}

func newPostgresStore(db *sqlx.DB) (*PostgresStore, error) {
	return &PostgresStore{db: db}, nil
}

const initSchemaSQL = `
CREATE SCHEMA IF NOT EXISTS "rez";
CREATE TABLE IF NOT EXISTS "rez".validation_reports (
	id         uuid PRIMARY KEY,
	game       text NOT NULL,
	created_at timestamptz NOT NULL,
	validated  jsonb NOT NULL,
	errors     jsonb NOT NULL
);`

// InitSchema creates the validation_reports table if it doesn't already
// exist.
func (s *PostgresStore) InitSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, initSchemaSQL); err != nil {
		return fmt.Errorf("report: init schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

type reportRow struct {
	ID        string    `db:"id"`
	Game      string    `db:"game"`
	CreatedAt time.Time `db:"created_at"`
	Validated []byte    `db:"validated"`
	Errors    []byte    `db:"errors"`
}

func (s *PostgresStore) Save(ctx context.Context, r Report) error {
	validated, err := json.Marshal(r.Validated)
	if err != nil {
		return fmt.Errorf("report: marshal validated nodes: %w", err)
	}
	errs, err := json.Marshal(r.Errors)
	if err != nil {
		return fmt.Errorf("report: marshal errors: %w", err)
	}

	query := `
		INSERT INTO "rez".validation_reports
		(id, game, created_at, validated, errors)
		VALUES ($1, $2, $3, $4, $5)`
	_, err = s.db.ExecContext(ctx, query, r.ID.String(), r.Game, r.CreatedAt, validated, errs)
	if err != nil {
		return fmt.Errorf("report: save report %s: %w", r.ID, err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (Report, error) {
	query := `
		SELECT id, game, created_at, validated, errors
		FROM "rez".validation_reports
		WHERE id = $1`
	var row reportRow
	if err := s.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Report{}, fmt.Errorf("report: no report with id %s", id)
		}
		return Report{}, fmt.Errorf("report: get report %s: %w", id, err)
	}
	return row.toReport()
}

func (s *PostgresStore) List(ctx context.Context) ([]Report, error) {
	query := `
		SELECT id, game, created_at, validated, errors
		FROM "rez".validation_reports
		ORDER BY created_at DESC`
	var rows []reportRow
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("report: list reports: %w", err)
	}
	out := make([]Report, len(rows))
	for i, row := range rows {
		r, err := row.toReport()
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	return out, nil
}

func (row reportRow) toReport() (Report, error) {
	var r Report
	if err := r.ID.UnmarshalText([]byte(row.ID)); err != nil {
		return Report{}, fmt.Errorf("report: parse id %q: %w", row.ID, err)
	}
	r.Game = row.Game
	r.CreatedAt = row.CreatedAt
	if err := json.Unmarshal(row.Validated, &r.Validated); err != nil {
		return Report{}, fmt.Errorf("report: unmarshal validated nodes: %w", err)
	}
	if err := json.Unmarshal(row.Errors, &r.Errors); err != nil {
		return Report{}, fmt.Errorf("report: unmarshal errors: %w", err)
	}
	return r, nil
}
