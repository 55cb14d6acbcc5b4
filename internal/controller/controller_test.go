package controller

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/tada-remote/internal/api"
	"github.com/idilsaglam/tada-remote/internal/model"
	"github.com/idilsaglam/tada-remote/internal/server"
	"github.com/idilsaglam/tada-remote/internal/server/servertest"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newLiveController(t *testing.T, mode FilterMode) *Controller {
	t.Helper()
	backend := servertest.New(t, server.Options{RequireCSRF: true})
	client, err := api.NewClient(api.Config{BaseURL: backend.URL, Logger: quietLogger()})
	require.NoError(t, err)
	return New(client, mode, quietLogger())
}

// fakeBackend records calls and fails when told to.
type fakeBackend struct {
	items  []model.Item
	nextID int64
	calls  []string
	failOn map[string]error
}

func newFake(items ...model.Item) *fakeBackend {
	f := &fakeBackend{items: items, nextID: 100, failOn: map[string]error{}}
	return f
}

func (f *fakeBackend) List(context.Context) ([]model.Item, error) {
	f.calls = append(f.calls, "list")
	if err := f.failOn["list"]; err != nil {
		return nil, err
	}
	return append([]model.Item(nil), f.items...), nil
}

func (f *fakeBackend) Create(_ context.Context, it model.Item) (model.Item, error) {
	f.calls = append(f.calls, "create")
	if err := f.failOn["create"]; err != nil {
		return model.Item{}, err
	}
	f.nextID++
	it = it.WithID(f.nextID)
	f.items = append(f.items, it)
	return it, nil
}

func (f *fakeBackend) Update(_ context.Context, id int64, it model.Item) (model.Item, error) {
	f.calls = append(f.calls, "update")
	if err := f.failOn["update"]; err != nil {
		return model.Item{}, err
	}
	for i := range f.items {
		if f.items[i].IDValue() == id {
			f.items[i] = it.WithID(id)
			return f.items[i], nil
		}
	}
	return model.Item{}, errors.New("not found")
}

func (f *fakeBackend) Delete(_ context.Context, id int64) error {
	f.calls = append(f.calls, "delete")
	if err := f.failOn["delete"]; err != nil {
		return err
	}
	for i := range f.items {
		if f.items[i].IDValue() == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return errors.New("not found")
}

func TestInitialState(t *testing.T) {
	c := New(newFake(), FilterAll, quietLogger())
	s := c.State()
	assert.False(t, s.ModalOpen)
	assert.Empty(t, s.Items)
	assert.Equal(t, model.Draft(), s.ActiveItem)
	assert.False(t, s.Loading)
	assert.NoError(t, s.Err)
}

func TestOnMountLoadsOnce(t *testing.T) {
	f := newFake(model.Item{Title: "a"}.WithID(1))
	c := New(f, FilterAll, quietLogger())
	require.NoError(t, c.OnMount(context.Background()))
	assert.Equal(t, []string{"list"}, f.calls)
	assert.Len(t, c.State().Items, 1)
}

func TestModalTransitions(t *testing.T) {
	ctx := context.Background()
	f := newFake()
	c := New(f, FilterAll, quietLogger())
	a := model.Item{Title: "a"}.WithID(1)
	b := model.Item{Title: "b"}.WithID(2)

	require.NoError(t, c.Dispatch(ctx, OpenCreate{}))
	s := c.State()
	assert.True(t, s.ModalOpen)
	assert.True(t, s.ActiveItem.IsDraft())

	require.NoError(t, c.Dispatch(ctx, OpenEdit{Item: a}))
	assert.Equal(t, a, c.State().ActiveItem)

	// A second open replaces the active item.
	require.NoError(t, c.Dispatch(ctx, OpenEdit{Item: b}))
	s = c.State()
	assert.True(t, s.ModalOpen)
	assert.Equal(t, b, s.ActiveItem)

	require.NoError(t, c.Dispatch(ctx, CloseModal{}))
	assert.False(t, c.State().ModalOpen)

	require.NoError(t, c.Dispatch(ctx, SetFilter{Completed: true}))
	assert.True(t, c.State().ViewCompleted)
	assert.Empty(t, f.calls, "UI-only actions must not reach the server")
}

func TestSubmitCreatesOrUpdates(t *testing.T) {
	ctx := context.Background()
	f := newFake()
	c := New(f, FilterAll, quietLogger())

	require.NoError(t, c.Dispatch(ctx, OpenCreate{}))
	require.NoError(t, c.Dispatch(ctx, Submit{Item: model.Item{Title: "new"}}))
	assert.False(t, c.State().ModalOpen)
	assert.Equal(t, []string{"create", "list"}, f.calls)

	created := c.State().Items[0]
	created.Title = "renamed"
	f.calls = nil
	require.NoError(t, c.Dispatch(ctx, Submit{Item: created}))
	assert.Equal(t, []string{"update", "list"}, f.calls)
	assert.Equal(t, "renamed", c.State().Items[0].Title)
}

func TestFailedActionsKeepCollection(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("connection refused")
	seed := model.Item{Title: "keep"}.WithID(1)

	for _, op := range []string{"create", "update", "delete", "list"} {
		t.Run(op, func(t *testing.T) {
			f := newFake(seed)
			c := New(f, FilterAll, quietLogger())
			require.NoError(t, c.OnMount(ctx))
			before := c.State().Items

			f.failOn[op] = boom
			var err error
			switch op {
			case "create":
				err = c.Dispatch(ctx, Submit{Item: model.Item{Title: "x"}})
			case "update":
				err = c.Dispatch(ctx, ToggleComplete{Item: seed})
			case "delete":
				err = c.Dispatch(ctx, Delete{Item: seed})
			case "list":
				err = c.Dispatch(ctx, Refresh{})
			}
			require.ErrorIs(t, err, boom)

			s := c.State()
			assert.Equal(t, before, s.Items)
			assert.ErrorIs(t, s.Err, boom)
			assert.False(t, s.ModalOpen)
			assert.False(t, s.Loading)
		})
	}
}

func TestFailedMutationSkipsReload(t *testing.T) {
	f := newFake(model.Item{Title: "a"}.WithID(1))
	f.failOn["delete"] = errors.New("nope")
	c := New(f, FilterAll, quietLogger())
	_ = c.Dispatch(context.Background(), Delete{Item: model.Item{Title: "a"}.WithID(1)})
	assert.Equal(t, []string{"delete"}, f.calls)
}

func TestErrorClearsOnNextSuccess(t *testing.T) {
	ctx := context.Background()
	f := newFake()
	f.failOn["list"] = errors.New("down")
	c := New(f, FilterAll, quietLogger())
	require.Error(t, c.OnMount(ctx))

	delete(f.failOn, "list")
	require.NoError(t, c.Dispatch(ctx, Refresh{}))
	assert.NoError(t, c.State().Err)
}

func TestDraftCannotBeDeletedOrToggled(t *testing.T) {
	ctx := context.Background()
	f := newFake()
	c := New(f, FilterAll, quietLogger())

	assert.ErrorIs(t, c.Dispatch(ctx, Delete{Item: model.Draft()}), ErrNoID)
	assert.ErrorIs(t, c.Dispatch(ctx, ToggleComplete{Item: model.Draft()}), ErrNoID)
	assert.Empty(t, f.calls)
}

func TestFilterModes(t *testing.T) {
	items := []model.Item{
		model.Item{Title: "done", Completed: true}.WithID(1),
		model.Item{Title: "todo"}.WithID(2),
	}
	ctx := context.Background()

	all := New(newFake(items...), FilterAll, quietLogger())
	require.NoError(t, all.OnMount(ctx))
	require.NoError(t, all.Dispatch(ctx, SetFilter{Completed: true}))
	assert.Len(t, all.Visible(), 2)

	byStatus := New(newFake(items...), FilterByStatus, quietLogger())
	require.NoError(t, byStatus.OnMount(ctx))
	require.NoError(t, byStatus.Dispatch(ctx, SetFilter{Completed: true}))
	vis := byStatus.Visible()
	require.Len(t, vis, 1)
	assert.Equal(t, "done", vis[0].Title)

	require.NoError(t, byStatus.Dispatch(ctx, SetFilter{Completed: false}))
	vis = byStatus.Visible()
	require.Len(t, vis, 1)
	assert.Equal(t, "todo", vis[0].Title)
}

func TestParseFilterMode(t *testing.T) {
	m, err := ParseFilterMode("status")
	require.NoError(t, err)
	assert.Equal(t, FilterByStatus, m)
	m, err = ParseFilterMode("")
	require.NoError(t, err)
	assert.Equal(t, FilterAll, m)
	_, err = ParseFilterMode("sideways")
	assert.Error(t, err)
	assert.Equal(t, "status", FilterByStatus.String())
}

func TestStateIsACopy(t *testing.T) {
	c := New(newFake(model.Item{Title: "a"}.WithID(1)), FilterAll, quietLogger())
	require.NoError(t, c.OnMount(context.Background()))
	s := c.State()
	s.Items[0].Title = "mutated"
	assert.Equal(t, "a", c.State().Items[0].Title)
}

func TestScenarioAgainstServer(t *testing.T) {
	ctx := context.Background()
	c := newLiveController(t, FilterAll)

	require.NoError(t, c.OnMount(ctx))
	assert.Empty(t, c.State().Items)

	require.NoError(t, c.Dispatch(ctx, OpenCreate{}))
	require.NoError(t, c.Dispatch(ctx, Submit{Item: model.Item{Title: "buy milk", Description: "", Completed: false}}))
	items := c.State().Items
	require.Len(t, items, 1)
	assert.Equal(t, "buy milk", items[0].Title)
	assert.False(t, items[0].Completed)
	require.False(t, items[0].IsDraft())

	require.NoError(t, c.Dispatch(ctx, ToggleComplete{Item: items[0]}))
	items = c.State().Items
	require.Len(t, items, 1)
	assert.True(t, items[0].Completed)

	require.NoError(t, c.Dispatch(ctx, ToggleComplete{Item: items[0]}))
	assert.False(t, c.State().Items[0].Completed, "toggling twice restores the original value")

	require.NoError(t, c.Dispatch(ctx, Delete{Item: c.State().Items[0]}))
	assert.Empty(t, c.State().Items)
}

func TestFilterReturnsACopy(t *testing.T) {
	items := []model.Item{
		model.Item{Title: "a"}.WithID(1),
		model.Item{Title: "b", Completed: true}.WithID(2),
	}
	for _, mode := range []FilterMode{FilterAll, FilterByStatus} {
		t.Run(mode.String(), func(t *testing.T) {
			out := Filter(items, mode, false)
			require.NotEmpty(t, out)
			out[0].Title = "mutated"
			assert.Equal(t, "a", items[0].Title)
		})
	}
}
