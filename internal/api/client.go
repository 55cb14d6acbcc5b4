// Package api is the HTTP client for the /api/todos/ resource.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/publicsuffix"

	"github.com/idilsaglam/tada-remote/internal/model"
)

// ResourcePath is the collection endpoint. The trailing slash is part of
// the contract; the server redirects or 404s without it.
const ResourcePath = "/api/todos/"

// DefaultCSRFHeader is the header Django reads the anti-forgery token from.
const DefaultCSRFHeader = "X-CSRFToken"

const maxErrorBody = 4 << 10

// Config holds what NewClient needs. Only BaseURL is required.
type Config struct {
	// BaseURL is the scheme and host of the backend, e.g.
	// "http://localhost:8000". A path prefix is kept.
	BaseURL string

	// HTTPClient carries the transport, timeout and cookie jar. Defaults to
	// a client with a fresh jar and a 10s timeout.
	HTTPClient *http.Client

	// Token is consulted before every request. Defaults to reading
	// the "csrftoken" cookie from the client's jar.
	Token TokenFunc

	// CSRFHeader defaults to DefaultCSRFHeader.
	CSRFHeader string

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Client performs the four todo operations. It is safe for concurrent use.
type Client struct {
	base       *url.URL
	httpClient *http.Client
	token      TokenFunc
	csrfHeader string
	logger     *slog.Logger
}

// NewClient validates cfg and fills in defaults.
func NewClient(cfg Config) (*Client, error) {
	raw := strings.TrimSpace(cfg.BaseURL)
	if raw == "" {
		return nil, errors.New("api: base URL is required")
	}
	base, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil {
		return nil, fmt.Errorf("api: parse base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("api: base URL must be http or https (got %q)", raw)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc, err = NewHTTPClient(10 * time.Second)
		if err != nil {
			return nil, err
		}
	}

	token := cfg.Token
	if token == nil {
		token = CookieToken(hc.Jar, base, "csrftoken")
	}

	header := cfg.CSRFHeader
	if header == "" {
		header = DefaultCSRFHeader
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		base:       base,
		httpClient: hc,
		token:      token,
		csrfHeader: header,
		logger:     logger,
	}, nil
}

// NewHTTPClient returns an http.Client with a cookie jar, so session and
// csrftoken cookies set by the server are sent back on later requests.
func NewHTTPClient(timeout time.Duration) (*http.Client, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("api: cookie jar: %w", err)
	}
	return &http.Client{Jar: jar, Timeout: timeout}, nil
}

// BaseURL returns the parsed base URL.
func (c *Client) BaseURL() *url.URL {
	u := *c.base
	return &u
}

// Jar returns the cookie jar of the underlying HTTP client, if any.
func (c *Client) Jar() http.CookieJar { return c.httpClient.Jar }

// List returns the full collection in server order.
func (c *Client) List(ctx context.Context) ([]model.Item, error) {
	var items []model.Item
	if err := c.do(ctx, "list", http.MethodGet, ResourcePath, nil, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.Item{}
	}
	return items, nil
}

// Create persists a new item. Any id on item is ignored by the server.
func (c *Client) Create(ctx context.Context, item model.Item) (model.Item, error) {
	item.ID = nil
	var out model.Item
	if err := c.do(ctx, "create", http.MethodPost, ResourcePath, item, &out); err != nil {
		return model.Item{}, err
	}
	return out, nil
}

// Update replaces the whole record at id with item. Fields the caller
// leaves at their zero value are written as such.
func (c *Client) Update(ctx context.Context, id int64, item model.Item) (model.Item, error) {
	item.ID = &id
	var out model.Item
	if err := c.do(ctx, "update", http.MethodPut, itemPath(id), item, &out); err != nil {
		return model.Item{}, err
	}
	return out, nil
}

// Delete removes the record at id.
func (c *Client) Delete(ctx context.Context, id int64) error {
	return c.do(ctx, "delete", http.MethodDelete, itemPath(id), nil, nil)
}

func itemPath(id int64) string {
	return ResourcePath + strconv.FormatInt(id, 10) + "/"
}

// do runs one request and decodes a 2xx body into result when result is
// non-nil. Every failure is logged here and returned unchanged.
func (c *Client) do(ctx context.Context, op, method, path string, body, result any) error {
	err := c.roundTrip(ctx, op, method, path, body, result)
	if err != nil {
		c.logger.Error("todo request failed", "op", op, "method", method, "path", path, "err", err)
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, op, method, path string, body, result any) error {
	target := c.base.JoinPath(path)
	// JoinPath cleans the trailing slash away.
	if strings.HasSuffix(path, "/") && !strings.HasSuffix(target.Path, "/") {
		target.Path += "/"
	}
	u := target.String()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode body: %w", op, err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("%s: new request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)

	tok, err := c.token(ctx)
	if err != nil {
		return fmt.Errorf("%s: csrf token: %w", op, err)
	}
	if tok != "" {
		req.Header.Set(c.csrfHeader, tok)
	}
	// Django's CSRF check compares Referer with the host on https.
	if c.base.Scheme == "https" {
		req.Header.Set("Referer", c.base.String()+"/")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Op: op, Method: method, URL: u, Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug("todo request",
		"op", op,
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
		"request_id", requestID,
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Op:         op,
			Method:     method,
			URL:        u,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(raw)),
		}
	}

	if result == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return &TransportError{Op: op, Method: method, URL: u, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
