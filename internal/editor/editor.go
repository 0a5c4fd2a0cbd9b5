package editor

import (
	"context"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"mealboard/internal/entity"
)

// Quantity edits settle after this quiet period before listeners and the
// autosave loop are notified, so typing or repeated clicks don't flood
// recalculation.
const quantityDebounce = 300 * time.Millisecond

// Structural-change notifications are batched to roughly one animation
// frame.
const changeBatch = 16 * time.Millisecond

// Saver persists the serialized plan. Implementations go through the
// mutation interceptor path (directly on the server, over HTTP from a
// client).
type Saver interface {
	Save(ctx context.Context, plan entity.MealPlan) (*entity.MealPlan, error)
}

// Autosave states.
type saveState int

const (
	saveClean saveState = iota
	saveDirty
	saveSaving
)

// Editor drives a Board with debounced notifications and an optional
// live-edit autosave loop.
type Editor struct {
	Board *Board

	saver Saver
	plan  entity.MealPlan

	mu        sync.Mutex
	lastSaved []entity.MealPlanItem
	liveEdit  bool
	state     saveState
	closed    bool
	saveCtx   context.Context

	onChange func()
	onError  func(error)

	changeNotify *debouncer
	quantityTick *debouncer
	autosave     *debouncer
}

// Option configures an Editor.
type Option func(*Editor)

// WithOnChange registers a listener for settled board changes.
func WithOnChange(fn func()) Option {
	return func(e *Editor) { e.onChange = fn }
}

// WithOnError registers a listener for failed commits.
func WithOnError(fn func(error)) Option {
	return func(e *Editor) { e.onError = fn }
}

// New opens an editor over a plan (possibly empty) and the owner's
// catalogs. The board is rebuilt from the persisted plan; editor state is
// discarded on Close.
func New(plan entity.MealPlan, ingredients []entity.Ingredient, meals []entity.Meal, saver Saver, opts ...Option) *Editor {
	e := &Editor{
		Board:    NewBoard(&plan, ingredients, meals),
		saver:    saver,
		plan:     plan,
		onChange: func() {},
		onError:  func(error) {},
	}
	for _, opt := range opts {
		opt(e)
	}
	// The opening snapshot counts as persisted; opening an editor and
	// saving untouched must be a no-op.
	e.lastSaved = e.Board.Serialize()

	e.changeNotify = newDebouncer(changeBatch, func() { e.onChange() })
	e.quantityTick = newDebouncer(quantityDebounce, e.settled)
	e.autosave = newDebouncer(quantityDebounce, e.runAutosave)
	return e
}

// settled fires after a change burst quiets down.
func (e *Editor) settled() {
	e.changeNotify.trigger()
	e.mu.Lock()
	live := e.liveEdit && !e.closed
	if live {
		if e.state == saveSaving {
			// A save is in flight; remember to run again.
			e.state = saveDirty
			live = false
		} else {
			e.state = saveDirty
		}
	}
	e.mu.Unlock()
	if live {
		e.autosave.trigger()
	}
}

// structural change entry points. Each defers its notification so rapid
// interaction batches into one recompute.

// Move proxies Board.Move and notifies on success.
func (e *Editor) Move(itemID, source, target string, index int) bool {
	if !e.Board.Move(itemID, source, target, index) {
		return false
	}
	e.settled()
	return true
}

// MoveGroup proxies Board.MoveGroup and notifies on success.
func (e *Editor) MoveGroup(groupID string, index int) bool {
	if !e.Board.MoveGroup(groupID, index) {
		return false
	}
	e.settled()
	return true
}

// AddGroup proxies Board.AddGroup and notifies.
func (e *Editor) AddGroup() Group {
	g := e.Board.AddGroup()
	e.settled()
	return g
}

// RemoveGroup proxies Board.RemoveGroup and notifies on success.
func (e *Editor) RemoveGroup(groupID string) bool {
	if !e.Board.RemoveGroup(groupID) {
		return false
	}
	e.settled()
	return true
}

// RenameGroup proxies Board.RenameGroup and notifies on success.
func (e *Editor) RenameGroup(groupID, title string) bool {
	if !e.Board.RenameGroup(groupID, title) {
		return false
	}
	e.settled()
	return true
}

// SetQuantity applies the clamped quantity immediately but debounces the
// settled notification.
func (e *Editor) SetQuantity(itemID string, q float64) float64 {
	clamped := e.Board.SetQuantity(itemID, q)
	e.quantityTick.trigger()
	return clamped
}

// Dirty reports whether the current board differs from the last persisted
// shape.
func (e *Editor) Dirty() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dirtyLocked()
}

func (e *Editor) dirtyLocked() bool {
	return !reflect.DeepEqual(e.Board.Serialize(), e.lastSaved)
}

// Save serializes the board and persists it through the saver. When
// nothing changed since the last persisted shape, the call is a no-op.
// A failed commit leaves editor state untouched; the user may retry.
func (e *Editor) Save(ctx context.Context) error {
	e.mu.Lock()
	if !e.dirtyLocked() {
		e.mu.Unlock()
		return nil
	}
	items := e.Board.Serialize()
	plan := e.plan
	e.mu.Unlock()

	plan.Items = items
	plan.Totals, plan.TotalPrice = e.Board.Totals()

	saved, err := e.saver.Save(ctx, plan)
	if err != nil {
		e.onError(err)
		return err
	}

	e.mu.Lock()
	e.lastSaved = items
	if saved != nil {
		e.plan.ID = saved.ID
	}
	e.mu.Unlock()
	return nil
}

// SetLiveEdit toggles the autosave loop. Turning it off cancels any
// pending debounced save so nothing stale fires later.
func (e *Editor) SetLiveEdit(ctx context.Context, enabled bool) {
	e.mu.Lock()
	e.liveEdit = enabled
	if enabled {
		e.saveCtx = ctx
	}
	dirty := enabled && e.dirtyLocked()
	if dirty && e.state == saveClean {
		e.state = saveDirty
	}
	e.mu.Unlock()

	if !enabled {
		e.autosave.cancel()
		return
	}
	if dirty {
		e.autosave.trigger()
	}
}

func (e *Editor) runAutosave() {
	e.mu.Lock()
	if e.closed || !e.liveEdit || e.state != saveDirty {
		e.mu.Unlock()
		return
	}
	e.state = saveSaving
	ctx := e.saveCtx
	e.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}

	if err := e.Save(ctx); err != nil {
		slog.Warn("autosave failed", "error", err)
	}

	e.mu.Lock()
	rerun := false
	if e.state == saveDirty {
		// A change landed while the save was in flight.
		rerun = e.liveEdit && !e.closed
	} else {
		e.state = saveClean
	}
	e.mu.Unlock()
	if rerun {
		e.autosave.trigger()
	}
}

// Close discards editor state and cancels all pending timers so no stale
// save fires after the editor is gone.
func (e *Editor) Close() {
	e.mu.Lock()
	e.closed = true
	e.liveEdit = false
	e.mu.Unlock()
	e.quantityTick.cancel()
	e.autosave.cancel()
	e.changeNotify.cancel()
}
