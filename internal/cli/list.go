package cli

import (
	"fmt"

	"github.com/charmbracelet/x/ansi"
	"github.com/spf13/cobra"

	"github.com/idilsaglam/tada-remote/internal/controller"
	"github.com/idilsaglam/tada-remote/internal/model"
	"github.com/idilsaglam/tada-remote/internal/ui"
)

func newListCmd(a *app) *cobra.Command {
	var group, completed, incomplete bool
	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List items",
		Args:    noArgs("ls"),
		RunE: func(cmd *cobra.Command, args []string) error {
			if completed && incomplete {
				return usagef("ls: --completed and --incomplete are exclusive")
			}
			ctrl := a.controller()
			if err := ctrl.OnMount(cmd.Context()); err != nil {
				return err
			}
			items := ctrl.State().Items
			if completed || incomplete {
				items = controller.Filter(items, controller.FilterByStatus, completed)
			}
			printList(items, group)
			return nil
		},
	}
	cmd.Flags().BoolVar(&group, "group", false, "group output by pending/done")
	cmd.Flags().BoolVar(&completed, "completed", false, "only completed items")
	cmd.Flags().BoolVar(&incomplete, "incomplete", false, "only incomplete items")
	return cmd
}

func printList(items []model.Item, group bool) {
	t := ui.Current()
	d, p := model.Stats(items)
	header := fmt.Sprintf("%s  %s %d  %s %d  %s %d",
		t.Title.Render("Todos"),
		t.Success.Render(t.SymDone), d,
		t.Pending.Render(t.SymPending), p,
		t.Accent.Render("Total"), len(items),
	)

	var lines []string
	lines = append(lines, header)
	lines = append(lines, t.Muted.Render(ui.ProgressBar(d, d+p, 28)))
	lines = append(lines, "")

	if group {
		lines = append(lines, groupLines(items)...)
	} else {
		lines = append(lines, flatLines(items)...)
	}
	lines = append(lines, "")
	lines = append(lines, t.Muted.Render("Tip: add with `tada add \"Buy milk\"`"))
	ui.Panel(lines)
}

// flatLines prints one row per item, keyed by server id.
func flatLines(items []model.Item) []string {
	t := ui.Current()
	if len(items) == 0 {
		return []string{t.Muted.Render("no items")}
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		id := t.Muted.Render(fmt.Sprintf("%4d", it.IDValue()))
		box := t.Muted.Render(t.BoxUnchecked)
		title := ansi.Truncate(it.Title, 80, "...")
		if it.Completed {
			box = t.Success.Render(t.BoxChecked)
			title = t.Done.Render(title)
		}
		out = append(out, fmt.Sprintf("%s %s %s", id, box, title))
	}
	return out
}

func groupLines(items []model.Item) []string {
	t := ui.Current()
	pend := controller.Filter(items, controller.FilterByStatus, false)
	done := controller.Filter(items, controller.FilterByStatus, true)

	var lines []string
	lines = append(lines, t.Accent.Render("Pending"))
	if len(pend) == 0 {
		lines = append(lines, t.Muted.Render("(none)"))
	} else {
		lines = append(lines, flatLines(pend)...)
	}
	lines = append(lines, "")
	lines = append(lines, t.Accent.Render("Done"))
	if len(done) == 0 {
		lines = append(lines, t.Muted.Render("(none)"))
	} else {
		lines = append(lines, flatLines(done)...)
	}
	return lines
}
