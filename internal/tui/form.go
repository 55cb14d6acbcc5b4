package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/idilsaglam/tada-remote/internal/model"
	"github.com/idilsaglam/tada-remote/internal/ui"
)

type formField int

const (
	fieldTitle formField = iota
	fieldDescription
	fieldCompleted
	fieldCount
)

// form is the add/edit modal. It edits a copy of the controller's
// active item; nothing reaches the server until submit.
type form struct {
	base      model.Item
	title     textinput.Model
	desc      textinput.Model
	completed bool
	focus     formField
}

func newForm() form {
	f := form{title: textinput.New(), desc: textinput.New()}
	f.title.Prompt = "Title       > "
	f.title.Placeholder = "Item title..."
	f.title.CharLimit = 200
	f.desc.Prompt = "Description > "
	f.desc.Placeholder = "optional, markdown"
	f.desc.CharLimit = 2000
	return f
}

// load resets the form to it and focuses the title.
func (f *form) load(it model.Item) tea.Cmd {
	f.base = it
	f.title.SetValue(it.Title)
	f.title.CursorEnd()
	f.desc.SetValue(it.Description)
	f.desc.CursorEnd()
	f.completed = it.Completed
	f.focus = fieldTitle
	return f.applyFocus()
}

// item builds the full record to submit. The id comes from the item
// the form was opened on.
func (f form) item() model.Item {
	it := f.base
	it.Title = strings.TrimSpace(f.title.Value())
	it.Description = f.desc.Value()
	it.Completed = f.completed
	return it
}

func (f *form) next() tea.Cmd {
	f.focus = (f.focus + 1) % fieldCount
	return f.applyFocus()
}

func (f *form) prev() tea.Cmd {
	f.focus = (f.focus + fieldCount - 1) % fieldCount
	return f.applyFocus()
}

func (f *form) applyFocus() tea.Cmd {
	f.title.Blur()
	f.desc.Blur()
	switch f.focus {
	case fieldTitle:
		return f.title.Focus()
	case fieldDescription:
		return f.desc.Focus()
	}
	return nil
}

// update routes typing to the focused input.
func (f *form) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch f.focus {
	case fieldTitle:
		f.title, cmd = f.title.Update(msg)
	case fieldDescription:
		f.desc, cmd = f.desc.Update(msg)
	}
	return cmd
}

func (f form) view() string {
	t := ui.Current()
	heading := "Add new item"
	if !f.base.IsDraft() {
		heading = "Edit item"
	}
	check := ui.Box(f.completed) + " completed"
	if f.focus == fieldCompleted {
		check = t.Selected.Render(check)
	}
	lines := []string{
		t.Title.Render(heading),
		f.title.View(),
		f.desc.View(),
		check,
		t.Muted.Render("tab next • space toggle • ctrl+s save • esc cancel"),
	}
	return ui.PanelString(strings.Join(lines, "\n"))
}
