// Package auth keeps the anti-forgery token and session cookie the client
// replays to the backend.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/idilsaglam/tada-remote/internal/api"
)

const credFileName = "credentials.json"

// EnvToken overrides any stored token.
const EnvToken = "TADA_CSRF_TOKEN"

// EnvSession overrides any stored session id.
const EnvSession = "TADA_SESSION"

// SessionCookie is the cookie Django keeps the login session in.
const SessionCookie = "sessionid"

type Credentials struct {
	CSRFToken string     `json:"csrf_token"`
	SessionID string     `json:"session_id,omitempty"`
	Source    string     `json:"source"`     // "env" | "file"
	CreatedAt time.Time  `json:"created_at"` // when we saved to file
	ExpiresAt *time.Time `json:"expires_at"` // optional
}

// Expired reports whether the credentials carry an expiry in the past.
func (c *Credentials) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && now.After(*c.ExpiresAt)
}

// DefaultCSRFCookie is the cookie Django keeps the anti-forgery token in.
const DefaultCSRFCookie = "csrftoken"

// Store reads and writes credentials.json inside Dir.
type Store struct {
	Dir string
	// CSRFCookie names the token cookie; a pasted "<CSRFCookie>=value" is
	// reduced to its value. Defaults to DefaultCSRFCookie.
	CSRFCookie string
}

func (s Store) path() string { return filepath.Join(s.Dir, credFileName) }

func (s Store) cookieName() string {
	if s.CSRFCookie == "" {
		return DefaultCSRFCookie
	}
	return s.CSRFCookie
}

// Get returns the current credentials, or nil when none are configured.
// The environment wins over the file.
func (s Store) Get() (*Credentials, error) {
	if c := s.fromEnv(); c != nil {
		return c, nil
	}
	return s.fromFile()
}

func (s Store) fromEnv() *Credentials {
	env := strings.TrimSpace(os.Getenv(EnvToken))
	if env == "" {
		return nil
	}
	return &Credentials{
		CSRFToken: stripCookiePrefix(env, s.cookieName()),
		SessionID: stripCookiePrefix(strings.TrimSpace(os.Getenv(EnvSession)), SessionCookie),
		Source:    "env",
	}
}

func (s Store) fromFile() (*Credentials, error) {
	b, err := os.ReadFile(s.path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil // not logged in
		}
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	var c Credentials
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	c.CSRFToken = stripCookiePrefix(c.CSRFToken, s.cookieName())
	c.Source = "file"
	return &c, nil
}

// Set writes the token (and optional session id) with owner-only
// permissions.
func (s Store) Set(token, session string, expires *time.Time) error {
	token = stripCookiePrefix(strings.TrimSpace(token), s.cookieName())
	if token == "" {
		return fmt.Errorf("empty token")
	}
	// ensure the directory exists with 0700
	if err := os.MkdirAll(s.Dir, 0o700); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	c := Credentials{
		CSRFToken: token,
		SessionID: stripCookiePrefix(strings.TrimSpace(session), SessionCookie),
		Source:    "file",
		CreatedAt: time.Now(),
		ExpiresAt: expires,
	}
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	// write with 0600 (owner-only)
	if err := os.WriteFile(s.path(), b, 0o600); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

// Delete removes the credentials file. A missing file is not an error.
func (s Store) Delete() error {
	if err := os.Remove(s.path()); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("remove: %w", err)
	}
	return nil
}

// Token is an api.TokenFunc that rereads the store on every request, so
// `tada auth login` in another terminal takes effect on the next call.
func (s Store) Token() api.TokenFunc {
	return func(context.Context) (string, error) {
		c, err := s.Get()
		return tokenOf(c, err)
	}
}

// EnvToken reads only the environment override.
func (s Store) EnvToken() api.TokenFunc {
	return func(context.Context) (string, error) {
		return tokenOf(s.fromEnv(), nil)
	}
}

// FileToken reads only credentials.json.
func (s Store) FileToken() api.TokenFunc {
	return func(context.Context) (string, error) {
		return tokenOf(s.fromFile())
	}
}

// RequestToken is the header token for a client whose cookies live in
// jar: the environment override, then the cookie the server last set,
// then the saved token. A cookie rotated by the server wins over the
// saved value on the very next request.
func (s Store) RequestToken(jar http.CookieJar, base *url.URL) api.TokenFunc {
	return api.FirstToken(
		s.EnvToken(),
		api.CookieToken(jar, base, s.cookieName()),
		s.FileToken(),
	)
}

func tokenOf(c *Credentials, err error) (string, error) {
	if err != nil || c == nil {
		return "", err
	}
	if c.Expired(time.Now()) {
		return "", nil
	}
	return c.CSRFToken, nil
}

// SeedJar places the stored cookies into jar for base, the way a browser
// would already hold them. Cookies the server sets later replace these.
func (s Store) SeedJar(jar http.CookieJar, base *url.URL) error {
	if jar == nil {
		return nil
	}
	c, err := s.Get()
	if err != nil || c == nil {
		return err
	}
	var cookies []*http.Cookie
	if c.CSRFToken != "" && !c.Expired(time.Now()) {
		cookies = append(cookies, &http.Cookie{Name: s.cookieName(), Value: c.CSRFToken, Path: "/"})
	}
	if c.SessionID != "" {
		cookies = append(cookies, &http.Cookie{Name: SessionCookie, Value: c.SessionID, Path: "/"})
	}
	jar.SetCookies(base, cookies)
	return nil
}

// stripCookiePrefix accepts a pasted "name=value" pair as well as a bare
// value.
func stripCookiePrefix(s, name string) string {
	if strings.HasPrefix(strings.ToLower(s), strings.ToLower(name)+"=") {
		return strings.TrimSpace(s[len(name)+1:])
	}
	return s
}
