package tui

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/tada-remote/internal/controller"
	"github.com/idilsaglam/tada-remote/internal/model"
)

type fakeBackend struct {
	items  []model.Item
	nextID int64
	calls  []string
	failOn map[string]error
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

func keyRunes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

var (
	keySpace = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	keyTab   = tea.KeyMsg{Type: tea.KeyTab}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
	keySave  = tea.KeyMsg{Type: tea.KeyCtrlS}
)

// mounted returns a model whose initial load has already landed.
func mounted(t *testing.T, mode controller.FilterMode, items ...model.Item) (modelTUI, *fakeBackend) {
	t.Helper()
	f := &fakeBackend{items: items, nextID: 100, failOn: map[string]error{}}
	ctrl := controller.New(f, mode, slog.New(slog.NewTextHandler(io.Discard, nil)))
	m := newModel(context.Background(), ctrl)
	m = settle(t, m, m.Init())
	f.calls = nil
	return m, f
}

func press(t *testing.T, m modelTUI, k tea.KeyMsg) (modelTUI, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(k)
	mm, ok := next.(modelTUI)
	require.True(t, ok)
	return mm, cmd
}

// settle runs a dispatched action's commands and feeds the results back.
// Spinner ticks are dropped.
func settle(t *testing.T, m modelTUI, cmd tea.Cmd) modelTUI {
	t.Helper()
	if cmd == nil {
		return m
	}
	var msgs []tea.Msg
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			if c != nil {
				msgs = append(msgs, c())
			}
		}
	default:
		msgs = append(msgs, msg)
	}
	for _, msg := range msgs {
		if _, ok := msg.(syncedMsg); !ok {
			continue
		}
		next, _ := m.Update(msg)
		m = next.(modelTUI)
	}
	return m
}

func TestInitLoadsItems(t *testing.T) {
	m, _ := mounted(t, controller.FilterAll,
		model.Item{Title: "buy milk"}.WithID(1),
		model.Item{Title: "walk dog", Completed: true}.WithID(2),
	)
	assert.Len(t, m.list.Items(), 2)
	assert.Equal(t, 0, m.pending)
	assert.Contains(t, m.View(), "buy milk")
}

func TestAddOpensFormAndEscCloses(t *testing.T) {
	m, f := mounted(t, controller.FilterAll)

	m, _ = press(t, m, keyRunes("a"))
	st := m.ctrl.State()
	require.True(t, st.ModalOpen)
	assert.True(t, st.ActiveItem.IsDraft())
	assert.Contains(t, m.View(), "Add new item")

	m, _ = press(t, m, keyEsc)
	assert.False(t, m.ctrl.State().ModalOpen)
	assert.Empty(t, f.calls)
}

func TestSubmitCreates(t *testing.T) {
	m, f := mounted(t, controller.FilterAll)

	m, _ = press(t, m, keyRunes("a"))
	m, _ = press(t, m, keyRunes("buy milk"))
	m, cmd := press(t, m, keySave)
	assert.False(t, m.ctrl.State().ModalOpen, "form hides before the request returns")

	m = settle(t, m, cmd)
	assert.Equal(t, []string{"create", "list"}, f.calls)
	require.Len(t, m.list.Items(), 1)
	it, ok := m.selected()
	require.True(t, ok)
	assert.Equal(t, "buy milk", it.Title)
	assert.False(t, it.IsDraft())
	assert.Empty(t, m.status)
}

func TestEditSendsFullRecord(t *testing.T) {
	m, f := mounted(t, controller.FilterAll, model.Item{Title: "walk", Description: "the dog"}.WithID(7))

	m, _ = press(t, m, keyRunes("e"))
	require.True(t, m.ctrl.State().ModalOpen)
	assert.Contains(t, m.View(), "Edit item")

	// Move to the completed box and tick it.
	m, _ = press(t, m, keyTab)
	m, _ = press(t, m, keyTab)
	m, _ = press(t, m, keySpace)
	m, cmd := press(t, m, keySave)
	m = settle(t, m, cmd)

	assert.Equal(t, []string{"update", "list"}, f.calls)
	require.Len(t, f.items, 1)
	assert.Equal(t, int64(7), f.items[0].IDValue())
	assert.True(t, f.items[0].Completed)
	assert.Equal(t, "the dog", f.items[0].Description)
}

func TestToggleAndDelete(t *testing.T) {
	m, f := mounted(t, controller.FilterAll, model.Item{Title: "a"}.WithID(1))

	m, cmd := press(t, m, keySpace)
	m = settle(t, m, cmd)
	assert.Equal(t, []string{"update", "list"}, f.calls)
	assert.True(t, f.items[0].Completed)

	f.calls = nil
	m, cmd = press(t, m, keyRunes("d"))
	m = settle(t, m, cmd)
	assert.Equal(t, []string{"delete", "list"}, f.calls)
	assert.Empty(t, m.list.Items())
}

func TestTabSwitchesFilter(t *testing.T) {
	items := []model.Item{
		model.Item{Title: "done", Completed: true}.WithID(1),
		model.Item{Title: "todo"}.WithID(2),
	}

	m, f := mounted(t, controller.FilterByStatus, items...)
	require.Len(t, m.list.Items(), 1)
	it, _ := m.selected()
	assert.Equal(t, "todo", it.Title)

	m, cmd := press(t, m, keyTab)
	assert.Nil(t, cmd)
	assert.True(t, m.ctrl.State().ViewCompleted)
	it, _ = m.selected()
	assert.Equal(t, "done", it.Title)
	assert.Empty(t, f.calls)

	all, _ := mounted(t, controller.FilterAll, items...)
	all, _ = press(t, all, keyTab)
	assert.Len(t, all.list.Items(), 2)
}

func TestFailureShowsInStatusLine(t *testing.T) {
	m, f := mounted(t, controller.FilterAll, model.Item{Title: "keep"}.WithID(1))
	f.failOn["delete"] = errors.New("boom")

	m, cmd := press(t, m, keyRunes("d"))
	m = settle(t, m, cmd)

	assert.Equal(t, []string{"delete"}, f.calls)
	assert.Contains(t, m.status, "boom")
	assert.Len(t, m.list.Items(), 1)
	assert.True(t, strings.Contains(m.View(), "boom"))

	// The next successful action clears it.
	m, cmd = press(t, m, keyRunes("r"))
	m = settle(t, m, cmd)
	assert.Empty(t, m.status)
}

func TestQuit(t *testing.T) {
	m, _ := mounted(t, controller.FilterAll)
	_, cmd := press(t, m, keyRunes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}
