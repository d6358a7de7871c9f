package client

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/dmitrijs2005/adminconsole/internal/client/migrations"
	"github.com/dmitrijs2005/adminconsole/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/adminconsole/internal/client/repositories/snapshots"
	"github.com/dmitrijs2005/adminconsole/internal/cryptox"
	"github.com/dmitrijs2005/adminconsole/internal/dbx"
)

// Repositories are the local cache repositories sharing one database.
type Repositories struct {
	DB        *sql.DB
	Snapshots snapshots.Repository
	Metadata  metadata.Repository
}

func (r *Repositories) Close() error {
	return r.DB.Close()
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	return goose.UpContext(ctx, db, ".")
}

// InitDatabase opens the cache database at dsn and migrates it.
func InitDatabase(ctx context.Context, dsn string) (*Repositories, error) {
	db, err := dbx.OpenSQLite(dsn)
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate %s: %w", dsn, err)
	}

	return &Repositories{
		DB:        db,
		Snapshots: snapshots.NewSQLiteRepository(db),
		Metadata:  metadata.NewSQLiteRepository(db),
	}, nil
}

// EncryptSnapshots switches Snapshots to rows sealed with a key derived from
// passphrase. The salt is created on first use and kept in Metadata.
func (r *Repositories) EncryptSnapshots(ctx context.Context, passphrase string) error {
	var salt []byte
	ok, err := r.Metadata.Get(ctx, metadata.KeyCacheSalt, &salt)
	if err != nil {
		return fmt.Errorf("read cache salt: %w", err)
	}
	if !ok || len(salt) == 0 {
		if salt, err = cryptox.NewSalt(); err != nil {
			return fmt.Errorf("new cache salt: %w", err)
		}
		if err := r.Metadata.Set(ctx, metadata.KeyCacheSalt, salt); err != nil {
			return fmt.Errorf("store cache salt: %w", err)
		}
	}

	sealer, err := cryptox.NewPassphraseSealer(passphrase, salt)
	if err != nil {
		return err
	}
	r.Snapshots = snapshots.NewSQLiteRepository(r.DB, snapshots.WithSealer(sealer))
	return nil
}
