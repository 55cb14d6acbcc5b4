// Package server is a small reference backend for the /api/todos/
// resource, used for local development and by the client tests.
package server

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/felixge/httpsnoop"
	"github.com/gorilla/mux"

	"github.com/idilsaglam/tada-remote/internal/model"
)

// MaxTitleLength matches the column limit of the original backend.
const MaxTitleLength = 120

const (
	csrfCookie = "csrftoken"
	csrfHeader = "X-CSRFToken"
)

// Options tune the handler.
type Options struct {
	// RequireCSRF rejects unsafe methods whose X-CSRFToken header does not
	// match the csrftoken cookie.
	RequireCSRF bool
	Logger      *slog.Logger
}

type server struct {
	store  Store
	opt    Options
	logger *slog.Logger
}

// NewHandler returns the routed HTTP handler over store.
func NewHandler(store Store, opt Options) http.Handler {
	logger := opt.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &server{store: store, opt: opt, logger: logger}

	r := mux.NewRouter()
	r.Use(s.accessLog)
	r.Use(s.csrf)

	api := r.PathPrefix("/api/todos").Subrouter()
	api.Methods(http.MethodGet).Path("/").HandlerFunc(s.list)
	api.Methods(http.MethodPost).Path("/").HandlerFunc(s.create)
	api.Methods(http.MethodGet).Path("/{id:[0-9]+}/").HandlerFunc(s.get)
	api.Methods(http.MethodPut).Path("/{id:[0-9]+}/").HandlerFunc(s.update)
	api.Methods(http.MethodDelete).Path("/{id:[0-9]+}/").HandlerFunc(s.destroy)
	return r
}

func (s *server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)
		s.logger.Info("handled",
			"method", r.Method,
			"url", r.URL.String(),
			"duration", m.Duration,
			"status", m.Code,
			"request_id", r.Header.Get("X-Request-ID"),
		)
	})
}

// csrf issues the token cookie to clients that lack one and, when
// enabled, checks it on writes.
func (s *server) csrf(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(csrfCookie)
		if err != nil || cookie.Value == "" {
			tok := newToken()
			http.SetCookie(w, &http.Cookie{Name: csrfCookie, Value: tok, Path: "/", SameSite: http.SameSiteLaxMode})
			cookie = &http.Cookie{Name: csrfCookie, Value: tok}
			if isUnsafe(r.Method) && s.opt.RequireCSRF {
				writeError(w, http.StatusForbidden, "CSRF cookie not set.")
				return
			}
		}
		if isUnsafe(r.Method) && s.opt.RequireCSRF {
			got := r.Header.Get(csrfHeader)
			if subtle.ConstantTimeCompare([]byte(got), []byte(cookie.Value)) != 1 {
				writeError(w, http.StatusForbidden, "CSRF token missing or incorrect.")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func isUnsafe(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return false
	}
	return true
}

func newToken() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func (s *server) list(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.List(r.Context())
	if err != nil {
		s.internal(w, "list", err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *server) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	it, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.storeError(w, "get", err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

func (s *server) create(w http.ResponseWriter, r *http.Request) {
	it, ok := decodeItem(w, r)
	if !ok {
		return
	}
	out, err := s.store.Create(r.Context(), it)
	if err != nil {
		s.internal(w, "create", err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *server) update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	it, ok := decodeItem(w, r)
	if !ok {
		return
	}
	out, err := s.store.Update(r.Context(), id, it)
	if err != nil {
		s.storeError(w, "update", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *server) destroy(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.store.Delete(r.Context(), id); err != nil {
		s.storeError(w, "delete", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, "Not found.")
		return 0, false
	}
	return id, true
}

// decodeItem reads a full todo body and validates it the way the
// original serializer did: title required and bounded.
func decodeItem(w http.ResponseWriter, r *http.Request) (model.Item, bool) {
	var body struct {
		Title       *string `json:"title"`
		Description string  `json:"description"`
		Completed   bool    `json:"completed"`
	}
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "JSON parse error - "+err.Error())
		return model.Item{}, false
	}

	fields := map[string][]string{}
	switch {
	case body.Title == nil:
		fields["title"] = []string{"This field is required."}
	case strings.TrimSpace(*body.Title) == "":
		fields["title"] = []string{"This field may not be blank."}
	case utf8.RuneCountInString(*body.Title) > MaxTitleLength:
		fields["title"] = []string{"Ensure this field has no more than " + strconv.Itoa(MaxTitleLength) + " characters."}
	}
	if len(fields) > 0 {
		writeJSON(w, http.StatusBadRequest, fields)
		return model.Item{}, false
	}
	return model.Item{Title: *body.Title, Description: body.Description, Completed: body.Completed}, true
}

func (s *server) storeError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, "Not found.")
		return
	}
	s.internal(w, op, err)
}

func (s *server) internal(w http.ResponseWriter, op string, err error) {
	s.logger.Error("store failed", "op", op, "err", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
