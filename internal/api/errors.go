package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// TransportError means the request never produced a usable response:
// DNS, refused connections, timeouts, or a 2xx body that does not decode.
type TransportError struct {
	Op     string
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %s %s: %v", e.Op, e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// StatusError is a non-2xx response from the server.
type StatusError struct {
	Op         string
	Method     string
	URL        string
	StatusCode int
	// Body is the raw response body, trimmed. Django REST framework puts
	// field validation errors here.
	Body string
}

func (e *StatusError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s %s: HTTP %d", e.Op, e.Method, e.URL, e.StatusCode)
	if e.Body != "" {
		fmt.Fprintf(&b, ": %s", e.Body)
	}
	return b.String()
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}

// IsForbidden reports whether err is a 403, which is what a stale or
// missing CSRF token produces.
func IsForbidden(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusForbidden
}

// IsTransport reports whether err failed below the HTTP status layer.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
