package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/idilsaglam/tada-remote/internal/controller"
	"github.com/idilsaglam/tada-remote/internal/model"
	"github.com/idilsaglam/tada-remote/internal/ui"
)

func noArgs(name string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 {
			return usagef("%s: unexpected argument %q", name, args[0])
		}
		return nil
	}
}

func oneID(usage string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != 1 {
			return usagef("usage: tada %s", usage)
		}
		if _, err := parseID(args[0]); err != nil {
			return err
		}
		return nil
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(s, "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, usagef("not an item id: %s", s)
	}
	return id, nil
}

// lookup loads the collection and returns the item with id.
func lookup(ctx context.Context, ctrl *controller.Controller, arg string) (model.Item, error) {
	id, err := parseID(arg)
	if err != nil {
		return model.Item{}, err
	}
	if err := ctrl.OnMount(ctx); err != nil {
		return model.Item{}, err
	}
	it, ok := model.FindByID(ctrl.State().Items, id)
	if !ok {
		ui.Hint("Hint: run `tada ls` to see item ids")
		return model.Item{}, fmt.Errorf("no item with id %d", id)
	}
	return it, nil
}

func newAddCmd(a *app) *cobra.Command {
	var desc string
	cmd := &cobra.Command{
		Use:   "add <title...>",
		Short: "Add a new item (title can be multiple words)",
		Example: `  tada add Buy milk
  tada add "Call mum" -d "about **sunday**"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			title := strings.TrimSpace(strings.Join(args, " "))
			if title == "" {
				return usagef("usage: tada add <title...>")
			}
			ctrl := a.controller()
			ctx := cmd.Context()
			// The first load also picks up the server's csrftoken cookie.
			if err := ctrl.OnMount(ctx); err != nil {
				return err
			}
			if err := ctrl.Dispatch(ctx, controller.OpenCreate{}); err != nil {
				return err
			}
			it := ctrl.State().ActiveItem
			it.Title = title
			it.Description = desc
			if err := ctrl.Dispatch(ctx, controller.Submit{Item: it}); err != nil {
				return err
			}
			ui.OK("added")
			return nil
		},
	}
	cmd.Flags().StringVarP(&desc, "description", "d", "", "item description (markdown)")
	return cmd
}

func newEditCmd(a *app) *cobra.Command {
	var title, desc string
	var completed bool
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change an item's title, description or completion",
		Args:  oneID("edit <id> [--title T] [-d D] [--completed=true|false]"),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := cmd.Flags()
			if !f.Changed("title") && !f.Changed("description") && !f.Changed("completed") {
				return usagef("edit: nothing to change (use --title, -d or --completed)")
			}
			ctrl := a.controller()
			ctx := cmd.Context()
			it, err := lookup(ctx, ctrl, args[0])
			if err != nil {
				return err
			}
			if err := ctrl.Dispatch(ctx, controller.OpenEdit{Item: it}); err != nil {
				return err
			}
			if f.Changed("title") {
				it.Title = strings.TrimSpace(title)
			}
			if f.Changed("description") {
				it.Description = desc
			}
			if f.Changed("completed") {
				it.Completed = completed
			}
			if err := ctrl.Dispatch(ctx, controller.Submit{Item: it}); err != nil {
				return err
			}
			ui.OK("updated")
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVarP(&desc, "description", "d", "", "new description")
	cmd.Flags().BoolVar(&completed, "completed", false, "completion state")
	return cmd
}

func newDoneCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "done <id>",
		Short: "Toggle done for the item with id",
		Args:  oneID("done <id>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl := a.controller()
			ctx := cmd.Context()
			it, err := lookup(ctx, ctrl, args[0])
			if err != nil {
				return err
			}
			if err := ctrl.Dispatch(ctx, controller.ToggleComplete{Item: it}); err != nil {
				return err
			}
			if it.Completed {
				ui.OK("reopened")
			} else {
				ui.OK("done")
			}
			return nil
		},
	}
}

func newRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Remove the item with id",
		Args:    oneID("rm <id>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl := a.controller()
			ctx := cmd.Context()
			it, err := lookup(ctx, ctrl, args[0])
			if err != nil {
				return err
			}
			if err := ctrl.Dispatch(ctx, controller.Delete{Item: it}); err != nil {
				return err
			}
			ui.OK("removed")
			return nil
		},
	}
}

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print one item with its rendered description",
		Args:  oneID("show <id>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			it, err := lookup(cmd.Context(), a.controller(), args[0])
			if err != nil {
				return err
			}
			t := ui.Current()
			lines := []string{
				t.Title.Render(fmt.Sprintf("#%d", it.IDValue())) + " " + ui.Box(it.Completed) + " " + it.Summary(),
			}
			if strings.TrimSpace(it.Description) != "" {
				body, err := ui.Markdown(it.Description, 76)
				if err != nil {
					body = it.Description
				}
				lines = append(lines, "", strings.TrimRight(body, "\n"))
			}
			ui.Panel(lines)
			return nil
		},
	}
}
