package reorder

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/adminconsole/internal/client/models"
	"github.com/dmitrijs2005/adminconsole/internal/client/store"
	"github.com/dmitrijs2005/adminconsole/internal/common"
	"github.com/dmitrijs2005/adminconsole/internal/logging"
)

// Moved is the API's answer to a persisted move.
type Moved struct {
	// Items is the authoritative reordered collection, nil when the API
	// answered without one.
	Items   []models.Entity
	Message string
}

// Mover persists a move on the remote side.
type Mover interface {
	Move(ctx context.Context, from, to int) (Moved, error)
}

// Notifier surfaces move outcomes to the user.
type Notifier interface {
	Success(msg string)
	Failure(msg string)
}

const movedMessage = "Order updated"

// State is the engine's position in a drag.
type State int

const (
	Settled State = iota
	Previewing
	Persisting
)

func (s State) String() string {
	switch s {
	case Settled:
		return "settled"
	case Previewing:
		return "previewing"
	case Persisting:
		return "persisting"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Drag is an in-progress drag gesture. It remembers the entity by id so a
// reload during the drag cannot redirect the drop to another entity.
type Drag struct {
	ID   string
	From int
}

// Engine moves entities within a densely ordered collection. Only one move
// is handled at a time.
type Engine struct {
	mu    sync.Mutex
	state State

	store  *store.Store
	mover  Mover
	notify Notifier
	log    logging.Logger
}

// NewEngine returns an engine over st. notify may be nil.
func NewEngine(st *store.Store, mover Mover, notify Notifier, log logging.Logger) *Engine {
	if log == nil {
		log = logging.Nop()
	}
	return &Engine{store: st, mover: mover, notify: notify, log: log}
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Begin starts dragging the entity at from.
func (e *Engine) Begin(from int) (*Drag, error) {
	items := e.store.Items()
	if from < 0 || from >= len(items) {
		return nil, fmt.Errorf("%w: no item at %d", common.ErrInvalidMove, from)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != Settled {
		return nil, fmt.Errorf("move %s: %w", e.state, common.ErrBusy)
	}
	e.state = Previewing
	return &Drag{ID: items[from].ID, From: from}, nil
}

// Preview returns the collection as it would look with the dragged entity
// over index to. The store is not changed.
func (e *Engine) Preview(d *Drag, to int) ([]models.Entity, error) {
	items := e.store.Items()
	from := indexOf(items, d.ID)
	if from < 0 {
		return nil, fmt.Errorf("preview %s: %w", d.ID, common.ErrStaleTarget)
	}
	return store.Move(items, from, to)
}

// Cancel ends a drag without a drop.
func (e *Engine) Cancel(*Drag) {
	e.setState(Settled)
}

// Drop completes a drag. A nil destination, a drop onto the source index or
// a dragged entity that has since disappeared is a no-op with no request.
func (e *Engine) Drop(ctx context.Context, d *Drag, to *int) error {
	if to == nil {
		e.setState(Settled)
		return nil
	}
	from := e.store.IndexOf(d.ID)
	if from < 0 || from == *to {
		e.setState(Settled)
		return nil
	}
	return e.persist(ctx, d.ID, from, *to)
}

// RequestMove moves the entity at from to to in one step.
func (e *Engine) RequestMove(ctx context.Context, from, to int) error {
	if from == to {
		return nil
	}
	d, err := e.Begin(from)
	if err != nil {
		return err
	}
	return e.Drop(ctx, d, &to)
}

func (e *Engine) persist(ctx context.Context, id string, from, to int) error {
	defer e.setState(Settled)

	in := models.Intent{
		ID:       uuid.NewString(),
		Kind:     models.IntentMove,
		Status:   models.StatusIssued,
		TargetID: id,
		From:     from,
		To:       to,
	}
	prior, err := e.store.ApplyLocal(&in)
	if errors.Is(err, common.ErrStaleTarget) {
		return nil
	}
	if err != nil {
		return err
	}
	e.setState(Persisting)

	moved, err := e.mover.Move(ctx, in.From, in.To)
	if err != nil {
		in.Status = models.StatusRejected
		e.store.Revert(&in, prior)
		e.log.Warn(ctx, "move rolled back", "intent", in.String(), "error", err)
		if e.notify != nil {
			e.notify.Failure(common.UserMessage(err))
		}
		return err
	}

	if moved.Items != nil {
		e.store.Replace(moved.Items)
	}
	e.store.Commit(&in)
	e.log.Info(ctx, "entity moved", "id", id, "from", in.From, "to", in.To)
	if e.notify != nil {
		msg := moved.Message
		if msg == "" {
			msg = movedMessage
		}
		e.notify.Success(msg)
	}
	return nil
}

func (e *Engine) setState(s State) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = s
}

func indexOf(items []models.Entity, id string) int {
	for i, e := range items {
		if e.ID == id {
			return i
		}
	}
	return -1
}
