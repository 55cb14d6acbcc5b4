package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/tada-remote/internal/model"
)

func newTestServer(t *testing.T, opt Options) (*httptest.Server, *SQLiteStore) {
	t.Helper()
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "todos.db"))
	require.NoError(t, err)
	opt.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := httptest.NewServer(NewHandler(store, opt))
	t.Cleanup(func() {
		srv.Close()
		store.Close()
	})
	return srv, store
}

func doJSON(t *testing.T, method, url, body string, header http.Header) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, r)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v[0])
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, b
}

func TestStoreCRUD(t *testing.T) {
	store, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	items, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)

	created, err := store.Create(ctx, model.Item{Title: "a", Description: "d"})
	require.NoError(t, err)
	require.NotNil(t, created.ID)

	updated, err := store.Update(ctx, created.IDValue(), model.Item{Title: "a2", Completed: true})
	require.NoError(t, err)
	assert.Equal(t, "a2", updated.Title)
	assert.Equal(t, "", updated.Description)

	got, err := store.Get(ctx, created.IDValue())
	require.NoError(t, err)
	assert.Equal(t, updated, got)

	require.NoError(t, store.Delete(ctx, created.IDValue()))
	assert.ErrorIs(t, store.Delete(ctx, created.IDValue()), ErrNotFound)
	_, err = store.Get(ctx, created.IDValue())
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Update(ctx, created.IDValue(), model.Item{Title: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHandlerLifecycle(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	base := srv.URL + "/api/todos/"

	resp, body := doJSON(t, http.MethodGet, base, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(body))

	resp, body = doJSON(t, http.MethodPost, base, `{"title":"buy milk","description":"","completed":false}`, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created model.Item
	require.NoError(t, json.Unmarshal(body, &created))
	require.NotNil(t, created.ID)

	itemURL := srv.URL + "/api/todos/" + jsonID(created) + "/"
	resp, body = doJSON(t, http.MethodPut, itemURL, `{"title":"buy milk","description":"","completed":true}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated model.Item
	require.NoError(t, json.Unmarshal(body, &updated))
	assert.True(t, updated.Completed)

	resp, _ = doJSON(t, http.MethodDelete, itemURL, "", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodGet, itemURL, "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandlerValidation(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	base := srv.URL + "/api/todos/"

	tests := []struct {
		name string
		body string
		want string
	}{
		{"missing title", `{"description":"x"}`, "required"},
		{"blank title", `{"title":"  "}`, "blank"},
		{"long title", `{"title":"` + strings.Repeat("x", MaxTitleLength+1) + `"}`, "no more than"},
		{"bad json", `{`, "JSON parse error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := doJSON(t, http.MethodPost, base, tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Contains(t, string(body), tt.want)
		})
	}
}

func TestHandlerRequireCSRF(t *testing.T) {
	srv, _ := newTestServer(t, Options{RequireCSRF: true})
	base := srv.URL + "/api/todos/"

	resp, _ := doJSON(t, http.MethodGet, base, "", nil)
	var token string
	for _, c := range resp.Cookies() {
		if c.Name == csrfCookie {
			token = c.Value
		}
	}
	require.NotEmpty(t, token)

	// No cookie at all.
	resp, _ = doJSON(t, http.MethodPost, base, `{"title":"x"}`, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Cookie but wrong header.
	h := http.Header{"Cookie": {csrfCookie + "=" + token}, csrfHeader: {"nope"}}
	resp, _ = doJSON(t, http.MethodPost, base, `{"title":"x"}`, h)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	h = http.Header{"Cookie": {csrfCookie + "=" + token}, csrfHeader: {token}}
	resp, _ = doJSON(t, http.MethodPost, base, `{"title":"x"}`, h)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func jsonID(it model.Item) string {
	b, _ := json.Marshal(it.IDValue())
	return string(b)
}
