// Package cli wires config, logging, the resource client and the
// controller behind the tada command line. Without a subcommand it starts
// the TUI.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/idilsaglam/tada-remote/internal/api"
	"github.com/idilsaglam/tada-remote/internal/auth"
	"github.com/idilsaglam/tada-remote/internal/config"
	"github.com/idilsaglam/tada-remote/internal/controller"
	"github.com/idilsaglam/tada-remote/internal/logging"
	"github.com/idilsaglam/tada-remote/internal/tui"
	"github.com/idilsaglam/tada-remote/internal/ui"
)

// Exit codes.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// usageError marks bad invocations; they exit with exitUsage.
type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func usagef(format string, a ...any) error { return usageError{msg: fmt.Sprintf(format, a...)} }

// Options are the root flags shared by every subcommand.
type Options struct {
	ConfigFile string
	NoColor    bool
}

// app carries what PersistentPreRunE resolved for the running command.
type app struct {
	opt    Options
	in     io.Reader
	cfg    config.Config
	logger *slog.Logger
	creds  auth.Store
	client *api.Client

	// closers run after the command, in order.
	closers []func() error
}

// Run executes args and returns an exit code (0 ok, 1 error, 2 usage).
func Run(ctx context.Context, args []string) int {
	return run(ctx, args, os.Stdin)
}

func run(ctx context.Context, args []string, in io.Reader) int {
	a := &app{in: in}
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(ui.Stdout)
	root.SetErr(ui.Stderr)

	err := root.ExecuteContext(ctx)
	for _, c := range a.closers {
		_ = c()
	}
	if err == nil {
		return exitOK
	}
	ui.Fail(err.Error())
	var ue usageError
	if errors.As(err, &ue) {
		ui.Hint("Run `tada --help` for usage.")
		return exitUsage
	}
	return exitError
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "tada",
		Short: "tada is a terminal client for a todo REST backend",
		Long: `tada lists, adds, edits, completes and deletes todo items stored on a
REST backend. Run it without a subcommand for the interactive list.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return usagef("unknown subcommand: %s", args[0])
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTUI(cmd.Context())
		},
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{msg: err.Error()}
	})

	pf := root.PersistentFlags()
	pf.StringVar(&a.opt.ConfigFile, "config", "", "config file (default: $XDG_CONFIG_HOME/tada/config.yaml)")
	pf.String("base-url", "", "backend base URL (default http://localhost:8000)")
	pf.String("log-level", "", "debug, info, warn or error")
	pf.String("filter-mode", "", "all: list every item; status: only the selected tab")
	pf.String("theme", "", "classic, neon or mono")
	pf.String("timeout", "", "per-request timeout, e.g. 10s")
	pf.BoolVar(&a.opt.NoColor, "no-color", false, "disable colors")

	root.AddCommand(
		newListCmd(a),
		newAddCmd(a),
		newEditCmd(a),
		newDoneCmd(a),
		newRemoveCmd(a),
		newShowCmd(a),
		newAuthCmd(a),
		newExportCmd(a),
		newImportCmd(a),
	)
	return root
}

// setup resolves config, logging and the client. Subcommands log to
// stderr; the TUI owns the terminal, so it logs to a file instead.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.opt.ConfigFile, cmd.Flags())
	if err != nil {
		return err
	}
	a.cfg = cfg

	ui.SetTheme(cfg.Theme)
	if a.opt.NoColor || os.Getenv("NO_COLOR") != "" {
		ui.SetTheme("mono")
		ui.SetColorForcing(false, true)
	}

	var logOut io.Writer = ui.Stderr
	if cmd == cmd.Root() {
		dir, err := config.StateDir()
		if err != nil {
			return err
		}
		f, err := logging.OpenFile(filepath.Join(dir, "tada.log"))
		if err != nil {
			return err
		}
		a.closers = append(a.closers, f.Close)
		logOut = f
	}
	logger, err := logging.New(logOut, cfg.LogLevel)
	if err != nil {
		return usageError{msg: err.Error()}
	}
	a.logger = logger
	a.creds = auth.Store{Dir: cfg.Dir, CSRFCookie: cfg.CSRFCookie}

	hc, err := api.NewHTTPClient(cfg.Timeout)
	if err != nil {
		return err
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return usagef("base url: %v", err)
	}
	client, err := api.NewClient(api.Config{
		BaseURL:    cfg.BaseURL,
		HTTPClient: hc,
		Token:      a.creds.RequestToken(hc.Jar, base),
		CSRFHeader: cfg.CSRFHeader,
		Logger:     logger,
	})
	if err != nil {
		return usageError{msg: err.Error()}
	}
	if err := a.creds.SeedJar(hc.Jar, client.BaseURL()); err != nil {
		logger.Warn("stored credentials unreadable", "err", err)
	}
	a.client = client
	logger.Debug("client ready", "base_url", cfg.BaseURL, "config", cfg.File)
	return nil
}

func (a *app) controller() *controller.Controller {
	return controller.New(a.client, a.cfg.FilterMode, a.logger)
}

func (a *app) runTUI(ctx context.Context) error {
	if err := tui.Run(ctx, a.controller()); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
