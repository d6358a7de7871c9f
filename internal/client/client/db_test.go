package client

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/adminconsole/internal/client/models"

	_ "modernc.org/sqlite"
)

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, name).Scan(&n)
	if err != nil {
		t.Fatalf("tableExists query failed: %v", err)
	}
	return n > 0
}

func TestInitDatabase_CreatesTables(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "console.db")

	repos, err := InitDatabase(ctx, dsn)
	if err != nil {
		t.Fatalf("InitDatabase error: %v", err)
	}
	defer repos.Close()

	for _, table := range []string{"goose_db_version", "snapshots", "metadata"} {
		if !tableExists(t, repos.DB, table) {
			t.Fatalf("expected table %s after migrations", table)
		}
	}
}

func TestRunMigrations_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "console.db"))
	if err != nil {
		t.Fatalf("sql.Open error: %v", err)
	}
	defer db.Close()

	if err := RunMigrations(ctx, db); err != nil {
		t.Fatalf("RunMigrations (first) error: %v", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		t.Fatalf("RunMigrations (second) should be idempotent, got error: %v", err)
	}
}

func TestInitDatabase_ReposShareDB(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "console.db")

	repos, err := InitDatabase(ctx, dsn)
	if err != nil {
		t.Fatalf("InitDatabase error: %v", err)
	}

	items := []models.Entity{{ID: "1", Order: 1, Fields: map[string]string{"question": "q"}}}
	if err := repos.Snapshots.Save(ctx, "chatbot", items); err != nil {
		t.Fatalf("save snapshot: %v", err)
	}
	if err := repos.Metadata.Set(ctx, "console.resource", "chatbot"); err != nil {
		t.Fatalf("set metadata: %v", err)
	}
	repos.Close()

	repos, err = InitDatabase(ctx, dsn)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer repos.Close()

	snap, err := repos.Snapshots.Load(ctx, "chatbot")
	if err != nil {
		t.Fatalf("load snapshot: %v", err)
	}
	if len(snap.Items) != 1 || snap.Items[0].Get("question") != "q" {
		t.Fatalf("unexpected snapshot: %+v", snap.Items)
	}
	var kind string
	if ok, err := repos.Metadata.Get(ctx, "console.resource", &kind); err != nil || !ok || kind != "chatbot" {
		t.Fatalf("metadata = %q, %v, %v", kind, ok, err)
	}
}

func TestEncryptSnapshots_SaltSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "console.db")
	items := []models.Entity{{ID: "1", Fields: map[string]string{"name": "Acme"}}}

	repos, err := InitDatabase(ctx, dsn)
	if err != nil {
		t.Fatalf("InitDatabase error: %v", err)
	}
	if err := repos.EncryptSnapshots(ctx, "hunter2"); err != nil {
		t.Fatalf("EncryptSnapshots error: %v", err)
	}
	if err := repos.Snapshots.Save(ctx, "client", items); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	repos.Close()

	repos, err = InitDatabase(ctx, dsn)
	if err != nil {
		t.Fatalf("InitDatabase (reopen) error: %v", err)
	}
	defer repos.Close()

	if _, err := repos.Snapshots.Load(ctx, "client"); err == nil {
		t.Fatalf("plain repository should not read sealed rows")
	}
	if err := repos.EncryptSnapshots(ctx, "hunter2"); err != nil {
		t.Fatalf("EncryptSnapshots (reopen) error: %v", err)
	}
	snap, err := repos.Snapshots.Load(ctx, "client")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(snap.Items) != 1 || snap.Items[0].Get("name") != "Acme" {
		t.Fatalf("unexpected snapshot: %+v", snap.Items)
	}
}
