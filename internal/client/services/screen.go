// Package services binds the collection store, mutation controller, reorder
// engine and drawer of one resource into a Screen: the imperative surface a
// UI drives.
package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/dmitrijs2005/adminconsole/internal/client/draft"
	"github.com/dmitrijs2005/adminconsole/internal/client/drawer"
	"github.com/dmitrijs2005/adminconsole/internal/client/models"
	"github.com/dmitrijs2005/adminconsole/internal/client/mutation"
	"github.com/dmitrijs2005/adminconsole/internal/client/reorder"
	"github.com/dmitrijs2005/adminconsole/internal/client/repositories/snapshots"
	"github.com/dmitrijs2005/adminconsole/internal/client/resources"
	"github.com/dmitrijs2005/adminconsole/internal/client/store"
	"github.com/dmitrijs2005/adminconsole/internal/common"
	"github.com/dmitrijs2005/adminconsole/internal/logging"
)

// Remote is everything a screen needs from the API for one resource.
type Remote interface {
	mutation.Remote
	reorder.Mover
	draft.FileRemover
}

type Deps struct {
	Remote    Remote
	Snapshots snapshots.Repository
	Notifier  mutation.Notifier
	Log       logging.Logger
	PageSize  int
}

type Screen struct {
	schema resources.Schema
	remote Remote
	snaps  snapshots.Repository
	notify mutation.Notifier
	log    logging.Logger

	store  *store.Store
	viewer *store.Viewer
	ctrl   *mutation.Controller
	engine *reorder.Engine
	drawer *drawer.Lifecycle

	mu      sync.Mutex
	offline bool
	asOf    time.Time
}

func NewScreen(schema resources.Schema, d Deps) *Screen {
	log := d.Log
	if log == nil {
		log = logging.Nop()
	}
	log = log.With("resource", string(schema.Kind))

	st := store.New(schema.Order == resources.OrderDense)
	s := &Screen{
		schema: schema,
		remote: d.Remote,
		snaps:  d.Snapshots,
		notify: d.Notifier,
		log:    log,
		store:  st,
		viewer: store.NewViewer(schema.SearchFields, schema.DefaultSort, d.PageSize),
		ctrl:   mutation.New(schema, st, d.Remote, d.Notifier, log),
		drawer: drawer.New(schema.Kind),
	}
	if schema.Reorderable() {
		s.engine = reorder.NewEngine(st, d.Remote, d.Notifier, log)
	}
	return s
}

func (s *Screen) Schema() resources.Schema { return s.schema }

// Activate loads the collection. When the API is unreachable and a cached
// snapshot exists, the snapshot is shown and the screen is marked offline.
func (s *Screen) Activate(ctx context.Context) error {
	items, err := s.store.Load(ctx, s.remote)
	if err == nil {
		s.setOffline(false, time.Now())
		s.log.Info(ctx, "collection loaded", "count", len(items))
		s.cache(ctx)
		return nil
	}

	if !errors.Is(err, common.ErrNetworkFailure) || s.snaps == nil {
		s.failure(err)
		return err
	}
	snap, serr := s.snaps.Load(ctx, string(s.schema.Kind))
	if serr != nil {
		s.failure(err)
		return err
	}
	s.store.Replace(snap.Items)
	s.setOffline(true, snap.SavedAt)
	s.log.Warn(ctx, "showing cached collection", "saved_at", snap.SavedAt, "error", err)
	return nil
}

// Refresh reloads the collection.
func (s *Screen) Refresh(ctx context.Context) error {
	return s.Activate(ctx)
}

// Offline reports whether the collection comes from the cache and the time
// it reflects.
func (s *Screen) Offline() (bool, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.offline, s.asOf
}

func (s *Screen) View() store.Page                    { return s.viewer.View(s.store.Items()) }
func (s *Screen) Query() store.Query                  { return s.viewer.Query() }
func (s *Screen) Items() []models.Entity              { return s.store.Items() }
func (s *Screen) SetFilter(q string)                  { s.viewer.SetFilter(q) }
func (s *Screen) SetSort(field string)                { s.viewer.SetSort(field) }
func (s *Screen) SetPage(n int)                       { s.viewer.SetPage(n) }
func (s *Screen) Drawer() *drawer.Lifecycle           { return s.drawer }
func (s *Screen) Engine() *reorder.Engine             { return s.engine }
func (s *Screen) Get(id string) (models.Entity, bool) { return s.store.Get(id) }

func (s *Screen) form() draft.Form {
	return draft.Form{
		Rules:      s.schema.Rules(),
		FileFields: s.schema.FileFields(),
		Siblings:   s.store.Items,
	}
}

// OpenAdd opens the drawer for a new entity. A bounded resource that is
// already full refuses with ErrCapacityExceeded.
func (s *Screen) OpenAdd() (*draft.Session, error) {
	if err := reorder.CheckCapacity(s.schema.Capacity, s.store.Len()); err != nil {
		return nil, err
	}
	return s.drawer.OpenAdd(s.form())
}

// OpenEdit opens the drawer pre-populated from entity id.
func (s *Screen) OpenEdit(id string) (*draft.Session, error) {
	e, ok := s.store.Get(id)
	if !ok {
		return nil, fmt.Errorf("%s %s: %w", s.schema.Kind, id, common.ErrNotFound)
	}
	return s.drawer.OpenEdit(e, s.form())
}

func (s *Screen) SetField(field, value string) error {
	sess, err := s.drawer.Current()
	if err != nil {
		return err
	}
	if f, ok := s.schema.Field(field); ok && f.File {
		return fmt.Errorf("%s is a file field", field)
	}
	return sess.Set(field, value)
}

func (s *Screen) AttachFile(field, uri string) error {
	sess, err := s.drawer.Current()
	if err != nil {
		return err
	}
	if f, ok := s.schema.Field(field); !ok || !f.File {
		return fmt.Errorf("%s is not a file field", field)
	}
	return sess.Attach(field, uri)
}

// RemoveExistingFile deletes the file already attached to the edited entity.
// The collection drops the file optimistically through the controller.
func (s *Screen) RemoveExistingFile(ctx context.Context, field string) error {
	sess, err := s.drawer.Current()
	if err != nil {
		return err
	}
	if err := sess.RemoveExisting(ctx, field, s.ctrl); err != nil {
		return err
	}
	s.cache(ctx)
	return nil
}

// Lookup returns the entity addressed by an id or, for keyed resources, by
// its key, reading it from the API when it is not loaded yet.
func (s *Screen) Lookup(ctx context.Context, key string) (models.Entity, error) {
	e, err := s.ctrl.Fetch(ctx, key)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			s.failure(err)
		}
		return models.Entity{}, err
	}
	return e, nil
}

// SubmitDraft validates and saves the open draft. On success the drawer
// closes; if it was closed while the request was in flight the saved entity
// still lands in the collection.
func (s *Screen) SubmitDraft(ctx context.Context) (models.Entity, error) {
	sess, err := s.drawer.Current()
	if err != nil {
		return models.Entity{}, err
	}

	saved, err := sess.Submit(ctx, s.submit)
	if err != nil {
		if errors.Is(err, common.ErrValidation) || errors.Is(err, common.ErrCapacityExceeded) {
			s.log.Debug(ctx, "submit rejected locally", "error", err)
		}
		return models.Entity{}, err
	}

	if !s.drawer.Finish(sess) {
		s.log.Info(ctx, "saved after drawer was closed", "id", saved.ID)
	}
	s.cache(ctx)
	return saved, nil
}

func (s *Screen) submit(ctx context.Context, mode models.Mode, id string, p models.Payload) (models.Entity, error) {
	if mode == models.ModeEdit {
		return s.ctrl.Update(ctx, id, p)
	}
	return s.ctrl.Create(ctx, p)
}

// CloseDrawer hides the drawer. An in-flight submit is not aborted.
func (s *Screen) CloseDrawer() {
	s.drawer.Close()
}

// RequestDelete deletes id after confirm agrees.
func (s *Screen) RequestDelete(ctx context.Context, id string, confirm mutation.Confirmer) error {
	if err := s.ctrl.Delete(ctx, id, confirm); err != nil {
		return err
	}
	s.cache(ctx)
	return nil
}

// RequestMove moves the entity at index from to index to.
func (s *Screen) RequestMove(ctx context.Context, from, to int) error {
	if s.engine == nil {
		return fmt.Errorf("%s cannot be reordered: %w", s.schema.Kind, common.ErrInvalidMove)
	}
	if err := s.engine.RequestMove(ctx, from, to); err != nil {
		return err
	}
	s.cache(ctx)
	return nil
}

// AvailableOrders lists the free order slots for the open draft, or for a
// new entity when no drawer is open. Only slot-ordered resources have any.
func (s *Screen) AvailableOrders() []int {
	if s.schema.Order != resources.OrderSlots {
		return nil
	}
	owner := ""
	if sess, err := s.drawer.Current(); err == nil {
		owner = sess.OwnerID()
	}
	return reorder.FreeOrders(s.schema.Capacity, s.store.Items(), owner)
}

// SortFields lists the fields a view can be sorted by.
func (s *Screen) SortFields() []string {
	out := make([]string, 0, len(s.schema.Fields)+1)
	if s.schema.Ordered() {
		out = append(out, models.OrderField)
	}
	for _, f := range s.schema.Fields {
		if !f.File && !slices.Contains(out, f.Name) {
			out = append(out, f.Name)
		}
	}
	return out
}

func (s *Screen) cache(ctx context.Context) {
	if s.snaps == nil || s.store.Pending() > 0 {
		return
	}
	if err := s.snaps.Save(ctx, string(s.schema.Kind), s.store.Items()); err != nil {
		s.log.Warn(ctx, "snapshot save failed", "error", err)
	}
}

func (s *Screen) failure(err error) {
	if s.notify != nil {
		s.notify.Failure(common.UserMessage(err))
	}
}

func (s *Screen) setOffline(offline bool, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offline = offline
	s.asOf = at
}
