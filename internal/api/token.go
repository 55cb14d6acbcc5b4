package api

import (
	"context"
	"net/http"
	"net/url"
)

// TokenFunc returns the anti-forgery token to send with the next request.
// It is called once per request so a rotated token is picked up without
// rebuilding the client. An empty token means no header is sent.
type TokenFunc func(ctx context.Context) (string, error)

// StaticToken always returns tok.
func StaticToken(tok string) TokenFunc {
	return func(context.Context) (string, error) { return tok, nil }
}

// CookieToken reads the named cookie for base from jar on every call,
// which is what a browser does when a page reads document.cookie.
func CookieToken(jar http.CookieJar, base *url.URL, name string) TokenFunc {
	return func(context.Context) (string, error) {
		if jar == nil || base == nil {
			return "", nil
		}
		for _, c := range jar.Cookies(base) {
			if c.Name == name {
				if v, err := url.QueryUnescape(c.Value); err == nil {
					return v, nil
				}
				return c.Value, nil
			}
		}
		return "", nil
	}
}

// FirstToken tries each source in order and returns the first non-empty
// token. Errors stop the chain.
func FirstToken(sources ...TokenFunc) TokenFunc {
	return func(ctx context.Context) (string, error) {
		for _, src := range sources {
			if src == nil {
				continue
			}
			tok, err := src(ctx)
			if err != nil {
				return "", err
			}
			if tok != "" {
				return tok, nil
			}
		}
		return "", nil
	}
}
