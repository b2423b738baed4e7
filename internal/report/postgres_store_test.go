package report

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockPostgresStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err, "failed to create mock DB")
	t.Cleanup(func() { db.Close() })
	return &PostgresStore{db: sqlx.NewDb(db, "postgres")}, mock
}

func TestPostgresStoreSave(t *testing.T) {
	store, mock := newMockPostgresStore(t)
	r := Report{
		ID:        uuid.New(),
		Game:      "game.rez",
		CreatedAt: time.Now(),
		Validated: []string{"item:sword"},
		Errors:    []Finding{{NodeKind: "item", NodeID: "sword", Message: "boom"}},
	}

	mock.ExpectExec(`INSERT INTO "rez".validation_reports`).
		WithArgs(r.ID.String(), r.Game, r.CreatedAt, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, store.Save(context.Background(), r))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreGet(t *testing.T) {
	store, mock := newMockPostgresStore(t)
	id := uuid.New()
	validated, _ := json.Marshal([]string{"item:sword"})
	errs, _ := json.Marshal([]Finding{{NodeKind: "item", NodeID: "sword", Message: "boom"}})

	rows := sqlmock.NewRows([]string{"id", "game", "created_at", "validated", "errors"}).
		AddRow(id.String(), "game.rez", time.Now(), validated, errs)
	mock.ExpectQuery(`SELECT id, game, created_at, validated, errors`).
		WithArgs(id.String()).
		WillReturnRows(rows)

	r, err := store.Get(context.Background(), id.String())
	require.NoError(t, err)
	assert.Equal(t, "game.rez", r.Game)
	if assert.Len(t, r.Errors, 1) {
		assert.Equal(t, "boom", r.Errors[0].Message)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreList(t *testing.T) {
	store, mock := newMockPostgresStore(t)
	id1, id2 := uuid.New(), uuid.New()
	validated, _ := json.Marshal([]string{})
	errs, _ := json.Marshal([]Finding{})

	rows := sqlmock.NewRows([]string{"id", "game", "created_at", "validated", "errors"}).
		AddRow(id1.String(), "a.rez", time.Now(), validated, errs).
		AddRow(id2.String(), "b.rez", time.Now(), validated, errs)
	mock.ExpectQuery(`SELECT id, game, created_at, validated, errors`).
		WillReturnRows(rows)

	reports, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, reports, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}
