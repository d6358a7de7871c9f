package snapshots

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/adminconsole/internal/client/models"
	"github.com/dmitrijs2005/adminconsole/internal/common"
	"github.com/dmitrijs2005/adminconsole/internal/dbx"
)

// SQLiteRepository implements Repository. Save needs a *sql.DB to open its
// transaction; reads accept any DBTX.
type SQLiteRepository struct {
	db     *sql.DB
	now    func() time.Time
	sealer Sealer
}

type Option func(*SQLiteRepository)

// WithSealer encrypts every row payload with s.
func WithSealer(s Sealer) Option {
	return func(r *SQLiteRepository) { r.sealer = s }
}

func NewSQLiteRepository(db *sql.DB, opts ...Option) *SQLiteRepository {
	r := &SQLiteRepository{db: db, now: time.Now}
	for _, o := range opts {
		o(r)
	}
	return r
}

func (r *SQLiteRepository) Save(ctx context.Context, resource string, items []models.Entity) error {
	savedAt := r.now().UnixMilli()
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := clearResource(ctx, tx, resource); err != nil {
			return err
		}
		for i, e := range items {
			payload, err := r.encode(e)
			if err != nil {
				return fmt.Errorf("encode %s/%s: %w", resource, e.ID, err)
			}
			_, err = tx.ExecContext(ctx,
				`INSERT INTO snapshots (resource, position, id, payload, saved_at) VALUES (?, ?, ?, ?, ?)`,
				resource, i, e.ID, payload, savedAt)
			if err != nil {
				return fmt.Errorf("failed to insert snapshot row: %w", err)
			}
		}
		return nil
	})
}

func (r *SQLiteRepository) Load(ctx context.Context, resource string) (Snapshot, error) {
	return r.load(ctx, r.db, resource)
}

func (r *SQLiteRepository) Clear(ctx context.Context, resource string) error {
	return clearResource(ctx, r.db, resource)
}

func clearResource(ctx context.Context, db dbx.DBTX, resource string) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM snapshots WHERE resource = ?`, resource); err != nil {
		return fmt.Errorf("failed to clear snapshot %s: %w", resource, err)
	}
	return nil
}

func (r *SQLiteRepository) encode(e models.Entity) ([]byte, error) {
	b, err := json.Marshal(e)
	if err != nil || r.sealer == nil {
		return b, err
	}
	return r.sealer.Seal(b)
}

func (r *SQLiteRepository) decode(payload []byte) (models.Entity, error) {
	var e models.Entity
	if r.sealer != nil {
		b, err := r.sealer.Open(payload)
		if err != nil {
			return e, err
		}
		payload = b
	}
	err := json.Unmarshal(payload, &e)
	return e, err
}

func (r *SQLiteRepository) load(ctx context.Context, db dbx.DBTX, resource string) (Snapshot, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT payload, saved_at FROM snapshots WHERE resource = ? ORDER BY position`, resource)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to select snapshot %s: %w", resource, err)
	}
	defer rows.Close()

	var (
		snap    Snapshot
		savedAt int64
		found   bool
	)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload, &savedAt); err != nil {
			return Snapshot{}, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		e, err := r.decode(payload)
		if err != nil {
			return Snapshot{}, fmt.Errorf("decode snapshot row: %w", err)
		}
		snap.Items = append(snap.Items, e)
		found = true
	}
	if err := rows.Err(); err != nil {
		return Snapshot{}, err
	}
	if !found {
		return Snapshot{}, fmt.Errorf("snapshot %s: %w", resource, common.ErrNotFound)
	}
	snap.SavedAt = time.UnixMilli(savedAt)
	return snap, nil
}
