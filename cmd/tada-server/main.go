// Command tada-server is a small backend for the /api/todos/ resource,
// stored in SQLite. It exists so the client can be run and tested end to
// end without the original web stack.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/idilsaglam/tada-remote/internal/logging"
	"github.com/idilsaglam/tada-remote/internal/server"
)

func main() {
	if err := mainInner(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func mainInner() error {
	addr := pflag.String("addr", "localhost:8000", "the address to listen on")
	dbPath := pflag.String("db", "todos.sqlite3", "sqlite database file")
	requireCSRF := pflag.Bool("require-csrf", false, "reject writes without a matching X-CSRFToken header")
	level := pflag.String("log-level", "info", "debug, info, warn or error")
	pflag.Parse()

	logger, err := logging.New(os.Stderr, *level)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	logger.Info("opening database", "path", *dbPath)
	store, err := server.OpenSQLite(*dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	httpServer := &http.Server{
		Addr:              *addr,
		Handler:           server.NewHandler(store, server.Options{RequireCSRF: *requireCSRF, Logger: logger}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", *addr, "require_csrf", *requireCSRF)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("listen: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("signal caught, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}
