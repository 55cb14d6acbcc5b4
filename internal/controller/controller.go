// Package controller holds the todo list state and mediates every user
// action: call the backend, then reload the whole collection.
package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/idilsaglam/tada-remote/internal/model"
)

// Backend is the subset of the resource client the controller uses.
type Backend interface {
	List(ctx context.Context) ([]model.Item, error)
	Create(ctx context.Context, item model.Item) (model.Item, error)
	Update(ctx context.Context, id int64, item model.Item) (model.Item, error)
	Delete(ctx context.Context, id int64) error
}

// FilterMode decides what Visible returns.
type FilterMode int

const (
	// FilterAll shows every item whatever ViewCompleted says.
	FilterAll FilterMode = iota
	// FilterByStatus shows items whose Completed equals ViewCompleted.
	FilterByStatus
)

func (m FilterMode) String() string {
	switch m {
	case FilterByStatus:
		return "status"
	default:
		return "all"
	}
}

// ParseFilterMode accepts "all" and "status".
func ParseFilterMode(s string) (FilterMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return FilterAll, nil
	case "status", "completed":
		return FilterByStatus, nil
	}
	return FilterAll, fmt.Errorf("unknown filter mode %q (want all or status)", s)
}

// ErrNoID is returned for actions that need a persisted item.
var ErrNoID = errors.New("item has no id")

// State is a snapshot of the controller. Items is a copy the caller may keep.
type State struct {
	Items         []model.Item
	ModalOpen     bool
	ActiveItem    model.Item
	ViewCompleted bool
	// Loading is true while at least one action is in flight.
	Loading bool
	// Err is the outcome of the last finished action; nil on success.
	Err error
}

// Controller is safe for concurrent use; bubbletea runs commands on
// their own goroutines.
type Controller struct {
	backend Backend
	mode    FilterMode
	logger  *slog.Logger

	mu       sync.Mutex
	state    State
	inFlight int
}

// New returns a controller in its initial state: modal closed, no items,
// blank draft as the active item.
func New(backend Backend, mode FilterMode, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		backend: backend,
		mode:    mode,
		logger:  logger,
		state: State{
			Items:      []model.Item{},
			ActiveItem: model.Draft(),
		},
	}
}

// Mode returns the configured filter mode.
func (c *Controller) Mode() FilterMode { return c.mode }

// State returns a copy of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

func (c *Controller) snapshot() State {
	s := c.state
	s.Items = append([]model.Item(nil), c.state.Items...)
	return s
}

// Visible returns the items the list should show under the filter mode.
func (c *Controller) Visible() []model.Item {
	s := c.State()
	return Filter(s.Items, c.mode, s.ViewCompleted)
}

// Filter applies mode to items. The result never shares backing storage
// with items.
func Filter(items []model.Item, mode FilterMode, viewCompleted bool) []model.Item {
	out := make([]model.Item, 0, len(items))
	for _, it := range items {
		if mode == FilterAll || it.Completed == viewCompleted {
			out = append(out, it)
		}
	}
	return out
}

// OnMount performs the initial load.
func (c *Controller) OnMount(ctx context.Context) error {
	return c.Dispatch(ctx, Refresh{})
}

// Dispatch applies one action. Server actions block until the mutation and
// the follow-up reload have both finished. The returned error is also kept
// in State().Err.
func (c *Controller) Dispatch(ctx context.Context, action Action) error {
	switch a := action.(type) {
	case OpenCreate:
		c.update(func(s *State) {
			s.ActiveItem = model.Draft()
			s.ModalOpen = true
		})
		return nil

	case OpenEdit:
		c.update(func(s *State) {
			s.ActiveItem = a.Item
			s.ModalOpen = true
		})
		return nil

	case CloseModal:
		c.update(func(s *State) { s.ModalOpen = false })
		return nil

	case SetFilter:
		c.update(func(s *State) { s.ViewCompleted = a.Completed })
		return nil

	case Refresh:
		return c.run(ctx, "refresh", nil)

	case Submit:
		// The modal closes before the request; a failed save does not reopen it.
		c.update(func(s *State) {
			s.ModalOpen = false
			s.ActiveItem = a.Item
		})
		return c.run(ctx, "submit", func(ctx context.Context) error {
			if a.Item.ID != nil {
				_, err := c.backend.Update(ctx, *a.Item.ID, a.Item)
				return err
			}
			_, err := c.backend.Create(ctx, a.Item)
			return err
		})

	case Delete:
		if a.Item.ID == nil {
			return c.fail("delete", ErrNoID)
		}
		id := *a.Item.ID
		return c.run(ctx, "delete", func(ctx context.Context) error {
			return c.backend.Delete(ctx, id)
		})

	case ToggleComplete:
		if a.Item.ID == nil {
			return c.fail("toggle", ErrNoID)
		}
		next := a.Item.Toggled()
		return c.run(ctx, "toggle", func(ctx context.Context) error {
			_, err := c.backend.Update(ctx, *next.ID, next)
			return err
		})
	}
	return fmt.Errorf("unknown action %T", action)
}

func (c *Controller) update(fn func(s *State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.state)
}

// run executes mutate (if any) and then reloads the collection. The
// collection is only replaced by a successful list call.
func (c *Controller) run(ctx context.Context, name string, mutate func(context.Context) error) error {
	c.mu.Lock()
	c.inFlight++
	c.state.Loading = true
	c.mu.Unlock()

	var items []model.Item
	var err error
	if mutate != nil {
		err = mutate(ctx)
		if err != nil {
			err = fmt.Errorf("%s: %w", name, err)
		}
	}
	if err == nil {
		items, err = c.backend.List(ctx)
		if err != nil {
			err = fmt.Errorf("%s: reload: %w", name, err)
		}
	}

	c.mu.Lock()
	c.inFlight--
	c.state.Loading = c.inFlight > 0
	c.state.Err = err
	if err == nil {
		c.state.Items = items
	}
	c.mu.Unlock()

	if err != nil {
		c.logger.Error("todo action failed", "action", name, "err", err)
		return err
	}
	c.logger.Debug("todo action done", "action", name, "items", len(items))
	return nil
}

func (c *Controller) fail(name string, err error) error {
	err = fmt.Errorf("%s: %w", name, err)
	c.update(func(s *State) { s.Err = err })
	c.logger.Error("todo action failed", "action", name, "err", err)
	return err
}
