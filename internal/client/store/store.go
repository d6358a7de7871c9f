package store

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/dmitrijs2005/adminconsole/internal/client/models"
	"github.com/dmitrijs2005/adminconsole/internal/common"
)

// Lister reads a full collection from the remote source of truth.
type Lister interface {
	List(ctx context.Context) ([]models.Entity, error)
}

// Snapshot is the collection state captured before an intent was applied.
type Snapshot struct {
	items      []models.Entity
	version    uint64
	generation uint64
}

// Items returns a copy of the captured collection.
func (s Snapshot) Items() []models.Entity { return models.CloneAll(s.items) }

// Store is the client-held collection of one resource type.
type Store struct {
	mu sync.RWMutex

	items []models.Entity
	// dense keeps order values a permutation of 1..N after deletes.
	dense bool

	// version counts every change; generation counts loads.
	version    uint64
	generation uint64

	pending map[string]models.IntentKind
}

// New returns an empty store. dense enables order renumbering for
// order-aware, reorderable resources.
func New(dense bool) *Store {
	return &Store{dense: dense, pending: map[string]models.IntentKind{}}
}

// Load replaces the collection with a fresh read from src.
func (s *Store) Load(ctx context.Context, src Lister) ([]models.Entity, error) {
	items, err := src.List(ctx)
	if err != nil {
		return nil, err
	}
	s.Replace(items)
	return s.Items(), nil
}

// Replace swaps in a full collection. Duplicate ids keep their first
// occurrence. Intents still in flight reconcile against it by id.
func (s *Store) Replace(items []models.Entity) {
	seen := make(map[string]bool, len(items))
	fresh := make([]models.Entity, 0, len(items))
	for _, e := range items {
		if seen[e.ID] {
			continue
		}
		seen[e.ID] = true
		fresh = append(fresh, e.Clone())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = fresh
	s.version++
	s.generation++
}

// Items returns a copy of the current collection.
func (s *Store) Items() []models.Entity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.CloneAll(s.items)
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Get returns the entity with the given id.
func (s *Store) Get(id string) (models.Entity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.items[i].Clone(), true
	}
	return models.Entity{}, false
}

// IndexOf returns the position of id, or -1.
func (s *Store) IndexOf(id string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexOf(id)
}

// Generation is bumped by every Replace.
func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// Pending returns the number of intents applied locally but not settled.
func (s *Store) Pending() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pending)
}

func (s *Store) indexOf(id string) int {
	return slices.IndexFunc(s.items, func(e models.Entity) bool { return e.ID == id })
}

func (s *Store) snapshot() Snapshot {
	return Snapshot{items: models.CloneAll(s.items), version: s.version, generation: s.generation}
}

// ApplyLocal mutates the collection for in before remote confirmation and
// returns the snapshot taken just before. Delete and move of an id that is
// not held locally fail with common.ErrStaleTarget and change nothing.
func (s *Store) ApplyLocal(in *models.Intent) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prior := s.snapshot()

	switch in.Kind {
	case models.IntentCreate:
		if s.indexOf(in.Entity.ID) >= 0 {
			return prior, fmt.Errorf("create %s: duplicate id", in.Entity.ID)
		}
		s.items = append(s.items, in.Entity.Clone())

	case models.IntentUpdate:
		i := s.indexOf(in.TargetID)
		if i < 0 {
			return prior, fmt.Errorf("update %s: %w", in.TargetID, common.ErrStaleTarget)
		}
		updated := s.items[i].Clone()
		maps.Copy(updated.Fields, in.Entity.Fields)
		for _, f := range in.Clear {
			delete(updated.Fields, f)
		}
		if in.Entity.Order != 0 {
			updated.Order = in.Entity.Order
		}
		s.items[i] = updated

	case models.IntentDelete:
		i := s.indexOf(in.TargetID)
		if i < 0 {
			return prior, fmt.Errorf("delete %s: %w", in.TargetID, common.ErrStaleTarget)
		}
		s.items = slices.Delete(s.items, i, i+1)
		if s.dense {
			renumber(s.items)
		}

	case models.IntentMove:
		from := in.From
		if in.TargetID != "" {
			from = s.indexOf(in.TargetID)
			if from < 0 {
				return prior, fmt.Errorf("move %s: %w", in.TargetID, common.ErrStaleTarget)
			}
		}
		moved, err := Move(s.items, from, in.To)
		if err != nil {
			return prior, err
		}
		in.From = from
		s.items = moved

	default:
		return prior, fmt.Errorf("unknown intent kind %q", in.Kind)
	}

	s.version++
	if in.ID != "" {
		s.pending[in.ID] = in.Kind
	}
	in.Status = models.StatusApplied
	return prior, nil
}

// Commit marks in as confirmed. The local state already reflects it.
func (s *Store) Commit(in *models.Intent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, in.ID)
	in.Status = models.StatusConfirmed
}

// Revert rolls in back. When nothing else touched the collection since the
// intent was applied, the prior snapshot is restored verbatim. Otherwise only
// the entity the intent addressed is compensated, so an intervening load or
// another in-flight intent is not clobbered.
func (s *Store) Revert(in *models.Intent, prior Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.pending, in.ID)
	in.Status = models.StatusRolledBack

	if s.version == prior.version+1 && s.generation == prior.generation {
		s.items = models.CloneAll(prior.items)
		s.version++
		return
	}

	sameLoad := s.generation == prior.generation
	priorIdx := slices.IndexFunc(prior.items, func(e models.Entity) bool { return e.ID == in.TargetID })

	switch in.Kind {
	case models.IntentCreate:
		if i := s.indexOf(in.TargetID); i >= 0 {
			s.items = slices.Delete(s.items, i, i+1)
		}
	case models.IntentUpdate:
		if i := s.indexOf(in.TargetID); sameLoad && i >= 0 && priorIdx >= 0 {
			s.items[i] = prior.items[priorIdx].Clone()
		}
	case models.IntentDelete:
		if sameLoad && priorIdx >= 0 && s.indexOf(in.TargetID) < 0 {
			at := min(priorIdx, len(s.items))
			s.items = slices.Insert(s.items, at, prior.items[priorIdx].Clone())
			if s.dense {
				renumber(s.items)
			}
		}
	case models.IntentMove:
		if i := s.indexOf(in.TargetID); sameLoad && i >= 0 && in.From < len(s.items) {
			if moved, err := Move(s.items, i, in.From); err == nil {
				s.items = moved
			}
		}
	}
	s.version++
}

// Reconcile swaps a create placeholder for the confirmed entity. If a load
// already dropped the placeholder, the confirmed entity is upserted by id.
func (s *Store) Reconcile(placeholderID string, confirmed models.Entity) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(placeholderID); i >= 0 {
		if j := s.indexOf(confirmed.ID); j >= 0 && j != i {
			s.items[j] = confirmed.Clone()
			s.items = slices.Delete(s.items, i, i+1)
		} else {
			s.items[i] = confirmed.Clone()
		}
	} else {
		s.upsert(confirmed)
	}
	s.version++
}

// Upsert replaces the entity with the same id, or appends it.
func (s *Store) Upsert(e models.Entity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsert(e)
	s.version++
}

// Refresh replaces an entity only if it is still held locally; confirmed
// updates for entities dropped by a newer load are ignored.
func (s *Store) Refresh(e models.Entity) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(e.ID)
	if i < 0 {
		return false
	}
	s.items[i] = e.Clone()
	s.version++
	return true
}

func (s *Store) upsert(e models.Entity) {
	if i := s.indexOf(e.ID); i >= 0 {
		s.items[i] = e.Clone()
		return
	}
	s.items = append(s.items, e.Clone())
}

// Move returns a copy of items with the entity at from spliced into to and
// every order renumbered to its new 1-based position.
func Move(items []models.Entity, from, to int) ([]models.Entity, error) {
	n := len(items)
	if from < 0 || from >= n || to < 0 || to >= n {
		return nil, fmt.Errorf("%w: %d -> %d with %d items", common.ErrInvalidMove, from, to, n)
	}
	out := models.CloneAll(items)
	e := out[from]
	out = slices.Delete(out, from, from+1)
	out = slices.Insert(out, to, e)
	renumber(out)
	return out, nil
}

func renumber(items []models.Entity) {
	for i := range items {
		items[i].Order = i + 1
	}
}
