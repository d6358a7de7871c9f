package snapshots

import (
	"context"
	"time"

	"github.com/dmitrijs2005/adminconsole/internal/client/models"
)

// Snapshot is a cached collection.
type Snapshot struct {
	Items   []models.Entity
	SavedAt time.Time
}

type Repository interface {
	Save(ctx context.Context, resource string, items []models.Entity) error
	// Load returns common.ErrNotFound when nothing is cached for resource.
	Load(ctx context.Context, resource string) (Snapshot, error)
	Clear(ctx context.Context, resource string) error
}

// Sealer encrypts snapshot rows at rest.
type Sealer interface {
	Seal(plaintext []byte) ([]byte, error)
	Open(sealed []byte) ([]byte, error)
}
