// Package servertest starts the reference backend on an httptest server
// backed by a temporary SQLite database.
package servertest

import (
	"io"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/idilsaglam/tada-remote/internal/server"
)

// Backend is a running reference server.
type Backend struct {
	*httptest.Server
	Store *server.SQLiteStore
}

// New starts a backend that is closed when the test ends.
func New(t testing.TB, opt server.Options) *Backend {
	t.Helper()
	store, err := server.OpenSQLite(filepath.Join(t.TempDir(), "todos.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if opt.Logger == nil {
		opt.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	srv := httptest.NewServer(server.NewHandler(store, opt))
	t.Cleanup(func() {
		srv.Close()
		store.Close()
	})
	return &Backend{Server: srv, Store: store}
}
