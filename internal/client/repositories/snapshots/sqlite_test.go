package snapshots

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/adminconsole/internal/client/models"
	"github.com/dmitrijs2005/adminconsole/internal/common"
	"github.com/dmitrijs2005/adminconsole/internal/cryptox"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE snapshots (
  resource TEXT    NOT NULL,
  position INTEGER NOT NULL,
  id       TEXT    NOT NULL,
  payload  BLOB    NOT NULL,
  saved_at INTEGER NOT NULL,
  PRIMARY KEY (resource, position)
);`)
	require.NoError(t, err)
	return db
}

func q(id string, order int, text string) models.Entity {
	return models.Entity{ID: id, Order: order, Fields: map[string]string{"question": text}}
}

func TestSaveAndLoad(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	at := time.UnixMilli(1_700_000_000_000)
	r.now = func() time.Time { return at }
	ctx := context.Background()

	items := []models.Entity{q("3", 1, "c"), q("1", 2, "a"), q("2", 3, "b")}
	require.NoError(t, r.Save(ctx, "chatbot", items))

	snap, err := r.Load(ctx, "chatbot")
	require.NoError(t, err)
	assert.Equal(t, items, snap.Items, "position order is preserved")
	assert.True(t, at.Equal(snap.SavedAt))

	// Save replaces the previous rows.
	require.NoError(t, r.Save(ctx, "chatbot", items[:1]))
	snap, err = r.Load(ctx, "chatbot")
	require.NoError(t, err)
	assert.Len(t, snap.Items, 1)

	_, err = r.Load(ctx, "slider")
	require.ErrorIs(t, err, common.ErrNotFound)

	require.NoError(t, r.Clear(ctx, "chatbot"))
	_, err = r.Load(ctx, "chatbot")
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestSave_RollsBackOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM snapshots`).WithArgs("client").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`INSERT INTO snapshots`).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	r := NewSQLiteRepository(db)
	err = r.Save(context.Background(), "client", []models.Entity{{ID: "1"}})
	require.ErrorContains(t, err, "failed to insert snapshot row")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLoad_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT payload, saved_at FROM snapshots`).WillReturnError(errors.New("locked"))
	_, err = NewSQLiteRepository(db).Load(context.Background(), "client")
	require.ErrorContains(t, err, "failed to select snapshot client")
}

func TestSealedRows(t *testing.T) {
	db := setupDB(t)
	sealer, err := cryptox.NewPassphraseSealer("hunter2", []byte("fixed-salt"))
	require.NoError(t, err)
	ctx := context.Background()

	r := NewSQLiteRepository(db, WithSealer(sealer))
	require.NoError(t, r.Save(ctx, "chatbot", []models.Entity{q("1", 1, "Where are you based?")}))

	var raw []byte
	require.NoError(t, db.QueryRow(`SELECT payload FROM snapshots WHERE resource = 'chatbot'`).Scan(&raw))
	assert.NotContains(t, string(raw), "Where are you based?")

	snap, err := r.Load(ctx, "chatbot")
	require.NoError(t, err)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, "Where are you based?", snap.Items[0].Get("question"))

	_, err = NewSQLiteRepository(db).Load(ctx, "chatbot")
	require.ErrorContains(t, err, "decode snapshot row", "sealed rows need the key")
}
