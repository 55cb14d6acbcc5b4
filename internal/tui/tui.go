// Package tui is the interactive todo list. All state lives in the
// controller; this package turns keys into controller actions and
// renders controller snapshots.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/idilsaglam/tada-remote/internal/controller"
	"github.com/idilsaglam/tada-remote/internal/model"
	"github.com/idilsaglam/tada-remote/internal/ui"
)

// syncedMsg reports that a controller action (and its reload) finished.
type syncedMsg struct {
	action string
	err    error
}

type keyMap struct {
	Add, Edit, Toggle, Delete, Refresh, Tab, Quit key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Add:     key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		Edit:    key.NewBinding(key.WithKeys("e", "enter"), key.WithHelp("e", "edit")),
		Toggle:  key.NewBinding(key.WithKeys(" ", "x"), key.WithHelp("space", "done")),
		Delete:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Tab:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "complete/incomplete")),
		Quit:    key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

type modelTUI struct {
	ctx  context.Context
	ctrl *controller.Controller
	keys keyMap

	list    list.Model
	form    form
	spinner spinner.Model

	width, height int
	status        string
	// pending counts dispatched actions whose syncedMsg has not arrived.
	pending int
}

func newModel(ctx context.Context, ctrl *controller.Controller) modelTUI {
	keys := defaultKeyMap()

	l := list.New(nil, itemDelegate{}, 0, 0)
	l.SetShowHelp(true)
	l.SetShowPagination(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = ui.Current().Title
	l.Styles.HelpStyle = ui.Current().Muted
	l.Styles.PaginationStyle = ui.Current().Muted
	l.FilterInput.Prompt = "/ "
	l.SetStatusBarItemName("item", "items")
	extra := func() []key.Binding {
		return []key.Binding{keys.Add, keys.Edit, keys.Toggle, keys.Delete, keys.Refresh, keys.Tab}
	}
	l.AdditionalShortHelpKeys = extra
	l.AdditionalFullHelpKeys = extra

	s := spinner.New()
	s.Spinner = spinner.Dot

	m := modelTUI{
		ctx:     ctx,
		ctrl:    ctrl,
		pending: 1, // the initial load from Init
		keys:    keys,
		list:    l,
		form:    newForm(),
		spinner: s,
		width:   80,
		height:  24,
	}
	m.syncList()
	return m
}

// Run starts the program and blocks until the user quits.
func Run(ctx context.Context, ctrl *controller.Controller) error {
	p := tea.NewProgram(newModel(ctx, ctrl), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

func (m modelTUI) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.dispatch("load", nil))
}

// dispatch runs a server-bound action off the UI goroutine. A nil action
// means the initial mount.
func (m modelTUI) dispatch(name string, action controller.Action) tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		var err error
		if action == nil {
			err = ctrl.OnMount(ctx)
		} else {
			err = ctrl.Dispatch(ctx, action)
		}
		return syncedMsg{action: name, err: err}
	}
}

// start counts a dispatched action and keeps the spinner going.
func (m *modelTUI) start(name string, action controller.Action) tea.Cmd {
	m.pending++
	return tea.Batch(m.spinner.Tick, m.dispatch(name, action))
}

// local applies a UI-only action; these never fail.
func (m *modelTUI) local(action controller.Action) {
	_ = m.ctrl.Dispatch(m.ctx, action)
}

func (m modelTUI) selected() (model.Item, bool) {
	li, ok := m.list.SelectedItem().(listItem)
	if !ok {
		return model.Item{}, false
	}
	return li.item, true
}

// syncList copies the controller's visible items into the list widget.
func (m *modelTUI) syncList() {
	st := m.ctrl.State()
	idx := m.list.Index()
	m.list.SetItems(toListItems(controller.Filter(st.Items, m.ctrl.Mode(), st.ViewCompleted)))
	if n := len(m.list.Items()); idx >= n && n > 0 {
		idx = n - 1
	}
	m.list.Select(idx)

	t := ui.Current()
	done, pending := model.Stats(st.Items)
	m.list.Title = fmt.Sprintf("%s   %s %d  %s %d  %s %d",
		t.Title.Render("Todos"),
		t.Success.Render(t.SymDone), done,
		t.Pending.Render(t.SymPending), pending,
		t.Accent.Render("Total"), len(st.Items),
	)
}

func (m modelTUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case spinner.TickMsg:
		if m.pending == 0 {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case syncedMsg:
		if m.pending > 0 {
			m.pending--
		}
		m.syncList()
		if msg.err != nil {
			m.status = msg.err.Error()
		} else {
			m.status = ""
		}
		return m, nil
	}

	if m.ctrl.State().ModalOpen {
		return m.updateForm(msg)
	}

	k, isKey := msg.(tea.KeyMsg)
	if !isKey || m.list.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(k, m.keys.Quit):
		if k.String() == "esc" && m.list.FilterState() == list.FilterApplied {
			break
		}
		return m, tea.Quit

	case key.Matches(k, m.keys.Add):
		m.local(controller.OpenCreate{})
		return m, m.form.load(m.ctrl.State().ActiveItem)

	case key.Matches(k, m.keys.Edit):
		it, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.local(controller.OpenEdit{Item: it})
		return m, m.form.load(m.ctrl.State().ActiveItem)

	case key.Matches(k, m.keys.Toggle):
		it, ok := m.selected()
		if !ok {
			return m, nil
		}
		return m, m.start("toggle", controller.ToggleComplete{Item: it})

	case key.Matches(k, m.keys.Delete):
		it, ok := m.selected()
		if !ok {
			return m, nil
		}
		return m, m.start("delete", controller.Delete{Item: it})

	case key.Matches(k, m.keys.Refresh):
		return m, m.start("refresh", controller.Refresh{})

	case key.Matches(k, m.keys.Tab):
		m.local(controller.SetFilter{Completed: !m.ctrl.State().ViewCompleted})
		m.syncList()
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m modelTUI) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	k, isKey := msg.(tea.KeyMsg)
	if !isKey {
		return m, m.form.update(msg)
	}
	switch k.String() {
	case "esc":
		m.local(controller.CloseModal{})
		return m, nil
	case "tab", "down":
		return m, m.form.next()
	case "shift+tab", "up":
		return m, m.form.prev()
	case " ":
		if m.form.focus == fieldCompleted {
			m.form.completed = !m.form.completed
			return m, nil
		}
	case "enter":
		if m.form.focus != fieldCompleted {
			return m, m.form.next()
		}
		return m.submit()
	case "ctrl+s":
		return m.submit()
	}
	return m, m.form.update(msg)
}

// submit hides the form right away; the controller closes it again when
// Submit starts, and the list catches up when the reload lands.
func (m modelTUI) submit() (tea.Model, tea.Cmd) {
	it := m.form.item()
	m.local(controller.CloseModal{})
	return m, m.start("save", controller.Submit{Item: it})
}

func (m modelTUI) View() string {
	st := m.ctrl.State()

	var b strings.Builder
	b.WriteString(m.tabs(st))
	b.WriteString("\n")

	bottom := m.detail(st)
	if st.ModalOpen {
		bottom = m.form.view()
	}
	status := m.statusLine(st)

	// Border and padding take 4 columns and 2 rows.
	innerW := max(m.width-4, 20)
	listH := m.height - 2 - 1 - lipgloss.Height(bottom) - lipgloss.Height(status) - 1
	m.list.SetSize(innerW, max(listH, 3))

	b.WriteString(m.list.View())
	b.WriteString("\n")
	if bottom != "" {
		b.WriteString(bottom)
		b.WriteString("\n")
	}
	b.WriteString(status)
	return ui.PanelString(b.String())
}

func (m modelTUI) tabs(st controller.State) string {
	t := ui.Current()
	complete, incomplete := "Complete", "Incomplete"
	if st.ViewCompleted {
		complete = t.Selected.Render(" " + complete + " ")
		incomplete = t.Muted.Render(" " + incomplete + " ")
	} else {
		complete = t.Muted.Render(" " + complete + " ")
		incomplete = t.Selected.Render(" " + incomplete + " ")
	}
	mode := t.Muted.Render("filter: " + m.ctrl.Mode().String())
	return complete + " " + incomplete + "  " + mode
}

func (m modelTUI) detail(st controller.State) string {
	it, ok := m.selected()
	if !ok || strings.TrimSpace(it.Description) == "" {
		return ""
	}
	out, err := ui.Markdown(it.Description, max(m.width-8, 20))
	if err != nil {
		return ui.Current().Muted.Render(it.Description)
	}
	return out
}

func (m modelTUI) statusLine(st controller.State) string {
	t := ui.Current()
	switch {
	case st.Loading:
		return m.spinner.View() + " syncing…"
	case m.status != "":
		return t.Error.Render("✖ " + m.status)
	}
	return t.Muted.Render("a add • e edit • space done • d delete • r refresh • tab filter • q quit")
}
