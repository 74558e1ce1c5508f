// Package proxy forwards unmatched requests to the configured default
// backend and relays the backend's response verbatim.
package proxy

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/mockfwd/mockfwd/pkg/logging"
)

// Error wraps a transport-level failure talking to the backend
// (connection refused, timeout, TLS failure, malformed response).
// The dispatcher maps it to a 502; forwarding is never retried.
type Error struct {
	Err error
}

func (e *Error) Error() string {
	return "proxy: " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Forwarder relays requests to a single backend base URL over a shared
// connection-pooled client. TLS verification uses the system trust
// roots; there is deliberately no option to disable it.
type Forwarder struct {
	base   string
	client *http.Client
	log    *slog.Logger
}

// Option customizes a Forwarder.
type Option func(*Forwarder)

// WithLogger sets the operational logger.
func WithLogger(log *slog.Logger) Option {
	return func(f *Forwarder) {
		if log != nil {
			f.log = log
		}
	}
}

// New creates a Forwarder for the given backend base URL, e.g.
// "http://backend.local:9000". A trailing slash is trimmed so the
// original request path can be appended directly.
//
// The client carries no overall timeout: cancellation rides the inbound
// request's context, so a client disconnect abandons the upstream call.
// The missing default timeout is a known gap, kept rather than fixed.
func New(base string, opts ...Option) (*Forwarder, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("backend URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("backend URL must be http or https, got %q", base)
	}

	transport, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		return nil, fmt.Errorf("default transport is not *http.Transport")
	}

	f := &Forwarder{
		base: strings.TrimSuffix(base, "/"),
		client: &http.Client{
			Transport: transport.Clone(),
			// Relay redirects verbatim instead of following them.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		log: logging.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Base returns the configured backend base URL.
func (f *Forwarder) Base() string {
	return f.base
}

// Forward rewrites r's target to base + path (+ query), preserves
// method, headers and body, sends the request, and streams the
// backend's status, headers and body back through w unchanged.
//
// A transport failure is returned as *Error before anything is written
// to w, so the caller can still produce its own error response. Errors
// while streaming an already-started response body are only logged.
func (f *Forwarder) Forward(w http.ResponseWriter, r *http.Request) error {
	target := f.base + r.URL.Path
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}

	out, err := http.NewRequestWithContext(r.Context(), r.Method, target, r.Body)
	if err != nil {
		return &Error{Err: err}
	}
	out.ContentLength = r.ContentLength
	out.Header = r.Header.Clone()
	// The original Host must not reach the backend: it would confuse
	// virtual hosting. Go keeps the inbound Host in r.Host rather than
	// the header map, and leaving out.Host empty makes the client send
	// the backend URL's host instead. The delete guards against clients
	// that smuggle an explicit Host header entry.
	out.Header.Del("Host")

	f.log.Debug("forwarding request", "target", target, "method", r.Method)

	resp, err := f.client.Do(out)
	if err != nil {
		return &Error{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	copyHeader(w.Header(), resp.Header)
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		f.log.Warn("relaying backend body interrupted", "target", target, "error", err)
	}
	return nil
}

func copyHeader(dst, src http.Header) {
	for k, values := range src {
		for _, v := range values {
			dst.Add(k, v)
		}
	}
}
