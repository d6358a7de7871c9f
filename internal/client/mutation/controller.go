// Package mutation applies create, update and delete intents to a collection
// store optimistically and settles them against the remote API.
package mutation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/adminconsole/internal/client/models"
	"github.com/dmitrijs2005/adminconsole/internal/client/reorder"
	"github.com/dmitrijs2005/adminconsole/internal/client/resources"
	"github.com/dmitrijs2005/adminconsole/internal/client/store"
	"github.com/dmitrijs2005/adminconsole/internal/common"
	"github.com/dmitrijs2005/adminconsole/internal/logging"
)

// Remote is the per-resource API collaborator.
type Remote interface {
	List(ctx context.Context) ([]models.Entity, error)
	// Create returns the server-issued entity. A zero entity means the API
	// answered without a body.
	Create(ctx context.Context, p models.Payload) (models.Entity, error)
	Update(ctx context.Context, id string, p models.Payload) (models.Entity, error)
	Delete(ctx context.Context, id string) error
}

// FileRemover deletes the file attached to one field of an entity.
type FileRemover interface {
	RemoveFile(ctx context.Context, id, field string) error
}

// Fetcher reads a single entity by its id or natural key.
type Fetcher interface {
	Fetch(ctx context.Context, key string) (models.Entity, error)
}

// Notifier surfaces user-visible outcomes.
type Notifier interface {
	Success(msg string)
	Failure(msg string)
}

// Confirmer asks the user to confirm a destructive action.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool { return f(ctx, prompt) }

type nopNotifier struct{}

func (nopNotifier) Success(string) {}
func (nopNotifier) Failure(string) {}

// Controller runs the optimistic mutation flow for one resource. It never
// retries: a failed intent is rolled back and the user decides what next.
type Controller struct {
	schema resources.Schema
	store  *store.Store
	remote Remote
	notify Notifier
	log    logging.Logger
}

// New returns a Controller. A nil notifier discards notifications.
func New(schema resources.Schema, st *store.Store, remote Remote, notify Notifier, log logging.Logger) *Controller {
	if notify == nil {
		notify = nopNotifier{}
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Controller{
		schema: schema,
		store:  st,
		remote: remote,
		notify: notify,
		log:    log.With("resource", string(schema.Kind)),
	}
}

// Create issues a create intent for p. Bounded resources are checked for
// capacity first; when full, ErrCapacityExceeded is returned and nothing is
// sent. A placeholder entity is shown until the server answers. For keyed
// resources a payload whose key is already held updates that entity.
func (c *Controller) Create(ctx context.Context, p models.Payload) (models.Entity, error) {
	if id, ok := c.keyed(p); ok {
		c.log.Debug(ctx, "create of existing key becomes update", "id", id)
		return c.Update(ctx, id, p)
	}
	if err := reorder.CheckCapacity(c.schema.Capacity, c.store.Len()); err != nil {
		c.log.Debug(ctx, "create rejected locally", "error", err)
		return models.Entity{}, err
	}

	order := 0
	switch c.schema.Order {
	case resources.OrderDense:
		order = c.store.Len() + 1
		p = p.With(models.OrderField, strconv.Itoa(order))
	case resources.OrderSlots:
		order, _ = strconv.Atoi(p.Fields[models.OrderField])
	}

	placeholder := "tmp-" + uuid.NewString()
	in := models.Intent{
		ID:       uuid.NewString(),
		Kind:     models.IntentCreate,
		Status:   models.StatusIssued,
		TargetID: placeholder,
		Entity:   p.Entity(placeholder, order),
	}
	prior, err := c.store.ApplyLocal(&in)
	if err != nil {
		return models.Entity{}, err
	}

	created, err := c.remote.Create(ctx, p)
	if err != nil {
		c.fail(ctx, &in, prior, err)
		return models.Entity{}, err
	}

	if created.ID == "" {
		// No body: drop the placeholder and take the server's list.
		c.store.Revert(&in, prior)
		in.Status = models.StatusConfirmed
		if _, lerr := c.store.Load(ctx, c.remote); lerr != nil {
			c.log.Warn(ctx, "reload after create failed", "error", lerr)
		}
	} else {
		c.store.Reconcile(placeholder, created)
		c.store.Commit(&in)
	}

	c.log.Info(ctx, "entity created", "id", created.ID)
	c.notify.Success(fmt.Sprintf("%s created", c.schema.Title))
	return created, nil
}

// Update applies the fields of p to id, leaving other fields as they are.
// On failure the collection is restored to its state before the update.
func (c *Controller) Update(ctx context.Context, id string, p models.Payload) (models.Entity, error) {
	order := 0
	if c.schema.Order == resources.OrderSlots {
		order, _ = strconv.Atoi(p.Fields[models.OrderField])
	}

	in := models.Intent{
		ID:       uuid.NewString(),
		Kind:     models.IntentUpdate,
		Status:   models.StatusIssued,
		TargetID: id,
		Entity:   p.Entity(id, order),
	}
	prior, err := c.store.ApplyLocal(&in)
	if err != nil {
		c.log.Warn(ctx, "update target missing", "id", id, "error", err)
		c.notify.Failure(common.UserMessage(err))
		return models.Entity{}, err
	}

	updated, err := c.remote.Update(ctx, id, p)
	if err != nil {
		c.fail(ctx, &in, prior, err)
		return models.Entity{}, err
	}

	c.store.Commit(&in)
	switch {
	case updated.ID != "":
		c.store.Refresh(updated)
	case len(p.Files) > 0:
		// Only the server knows where a new upload landed.
		if _, lerr := c.store.Load(ctx, c.remote); lerr != nil {
			c.log.Warn(ctx, "reload after update failed", "error", lerr)
		}
	}

	c.log.Info(ctx, "entity updated", "id", id)
	c.notify.Success(fmt.Sprintf("%s updated", c.schema.Title))
	if updated.ID == "" {
		updated, _ = c.store.Get(id)
	}
	return updated, nil
}

// Delete removes id after the user confirms. A refusal returns
// ErrDeleteNotConfirmed without issuing an intent. Deleting an id that is no
// longer held locally is a silent no-op.
func (c *Controller) Delete(ctx context.Context, id string, confirm Confirmer) error {
	if c.schema.Endpoints.Delete == "" {
		return fmt.Errorf("%s delete: %w", c.schema.Kind, common.ErrNotOffered)
	}
	if c.store.IndexOf(id) < 0 {
		c.log.Debug(ctx, "delete of missing entity ignored", "id", id)
		return nil
	}
	if confirm == nil || !confirm.Confirm(ctx, fmt.Sprintf("Delete %s %s?", c.schema.Title, id)) {
		return common.ErrDeleteNotConfirmed
	}

	in := models.Intent{
		ID:       uuid.NewString(),
		Kind:     models.IntentDelete,
		Status:   models.StatusIssued,
		TargetID: id,
	}
	prior, err := c.store.ApplyLocal(&in)
	if errors.Is(err, common.ErrStaleTarget) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := c.remote.Delete(ctx, id); err != nil {
		c.fail(ctx, &in, prior, err)
		return err
	}
	c.store.Commit(&in)

	c.log.Info(ctx, "entity deleted", "id", id)
	c.notify.Success(fmt.Sprintf("%s deleted", c.schema.Title))
	return nil
}

// RemoveFile deletes the file attached to field of id. The field is cleared
// locally at once and comes back if the API refuses.
func (c *Controller) RemoveFile(ctx context.Context, id, field string) error {
	r, ok := c.remote.(FileRemover)
	if !ok || c.schema.Endpoints.RemoveFile == "" {
		return fmt.Errorf("%s remove %s: %w", c.schema.Kind, field, common.ErrNotOffered)
	}

	in := models.Intent{
		ID:       uuid.NewString(),
		Kind:     models.IntentUpdate,
		Status:   models.StatusIssued,
		TargetID: id,
		Clear:    []string{field},
	}
	prior, err := c.store.ApplyLocal(&in)
	if err != nil {
		c.log.Warn(ctx, "remove file target missing", "id", id, "error", err)
		c.notify.Failure(common.UserMessage(err))
		return err
	}

	if err := r.RemoveFile(ctx, id, field); err != nil {
		c.fail(ctx, &in, prior, err)
		return err
	}
	c.store.Commit(&in)

	c.log.Info(ctx, "file removed", "id", id, "field", field)
	label := field
	if f, ok := c.schema.Field(field); ok {
		label = f.Label
	}
	c.notify.Success(fmt.Sprintf("%s removed", label))
	return nil
}

// Fetch returns the entity addressed by key, an id or the value of the
// schema's key field. An entity not held locally is read from the API and
// joins the collection.
func (c *Controller) Fetch(ctx context.Context, key string) (models.Entity, error) {
	if e, ok := c.find(key); ok {
		return e, nil
	}
	f, ok := c.remote.(Fetcher)
	if !ok || c.schema.Endpoints.Get == "" {
		return models.Entity{}, fmt.Errorf("%s %s: %w", c.schema.Kind, key, common.ErrNotFound)
	}
	e, err := f.Fetch(ctx, key)
	if err != nil {
		return models.Entity{}, err
	}
	c.store.Upsert(e)
	c.log.Debug(ctx, "entity fetched", "id", e.ID)
	return e, nil
}

func (c *Controller) find(key string) (models.Entity, bool) {
	if e, ok := c.store.Get(key); ok {
		return e, true
	}
	if c.schema.Key == "" {
		return models.Entity{}, false
	}
	for _, e := range c.store.Items() {
		if e.Get(c.schema.Key) == key {
			return e, true
		}
	}
	return models.Entity{}, false
}

// keyed returns the id of the held entity sharing p's natural key.
func (c *Controller) keyed(p models.Payload) (string, bool) {
	if c.schema.Key == "" {
		return "", false
	}
	key := strings.TrimSpace(p.Fields[c.schema.Key])
	if key == "" {
		return "", false
	}
	e, ok := c.find(key)
	if !ok || e.Get(c.schema.Key) != key {
		return "", false
	}
	return e.ID, true
}

func (c *Controller) fail(ctx context.Context, in *models.Intent, prior store.Snapshot, err error) {
	in.Status = models.StatusRejected
	c.store.Revert(in, prior)
	c.log.Warn(ctx, "intent rolled back", "intent", in.String(), "error", err)
	c.notify.Failure(common.UserMessage(err))
}
