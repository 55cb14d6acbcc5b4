package cli

import (
	"fmt"
	"sync/atomic"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/idilsaglam/tada-remote/internal/store/jsonstore"
	"github.com/idilsaglam/tada-remote/internal/ui"
)

func newExportCmd(a *app) *cobra.Command {
	var out, format string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the server's list as JSON or YAML",
		Args:  noArgs("export"),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := jsonstore.ParseFormat(format)
			if err != nil {
				return usageError{msg: err.Error()}
			}
			if !cmd.Flags().Changed("format") && out != "" {
				f = jsonstore.FormatFor(out)
			}
			ctrl := a.controller()
			if err := ctrl.OnMount(cmd.Context()); err != nil {
				return err
			}
			items := ctrl.State().Items
			if out == "" {
				b, err := jsonstore.Encode(items, f)
				if err != nil {
					return err
				}
				_, err = ui.Stdout.Write(b)
				return err
			}
			if err := jsonstore.Save(out, items, f); err != nil {
				return err
			}
			ui.OK(fmt.Sprintf("exported %d items to %s", len(items), out))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "file to write (default stdout)")
	cmd.Flags().StringVar(&format, "format", "json", "json or yaml")
	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	var parallel int
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Create server items from a todos.json or an export",
		Long: `Import reads a list written by "tada export" or the todos.json of the
local-only tada CLI and creates every entry on the server. Ids in the file
are ignored; the server assigns new ones.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return usagef("usage: tada import <file>")
			}
			if parallel < 1 {
				return usagef("import: --parallel must be at least 1")
			}
			items, err := jsonstore.Load(args[0])
			if err != nil {
				return err
			}
			if len(items) == 0 {
				ui.Hint("nothing to import")
				return nil
			}

			// One read first so a csrftoken cookie is in the jar before the
			// writes fan out.
			if _, err := a.client.List(cmd.Context()); err != nil {
				return err
			}

			var created atomic.Int64
			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(parallel)
			for _, it := range items {
				it.ID = nil
				g.Go(func() error {
					if _, err := a.client.Create(ctx, it); err != nil {
						return fmt.Errorf("import %q: %w", it.Title, err)
					}
					created.Add(1)
					return nil
				})
			}
			err = g.Wait()
			a.logger.Info("import finished", "file", args[0], "created", created.Load(), "total", len(items))
			if err != nil {
				ui.Hint(fmt.Sprintf("%d of %d items were created before the failure", created.Load(), len(items)))
				return err
			}
			ui.OK(fmt.Sprintf("imported %d items", created.Load()))
			return nil
		},
	}
	cmd.Flags().IntVarP(&parallel, "parallel", "p", 4, "concurrent create requests")
	return cmd
}
