// Package engine wires the per-request dispatcher, the middleware chain
// and the HTTP server.
package engine

import (
	"log/slog"
	"net/http"

	"github.com/mockfwd/mockfwd/pkg/httputil"
	"github.com/mockfwd/mockfwd/pkg/logging"
	"github.com/mockfwd/mockfwd/pkg/proxy"
	"github.com/mockfwd/mockfwd/pkg/registry"
	"github.com/mockfwd/mockfwd/pkg/rule"
	"github.com/mockfwd/mockfwd/pkg/synth"
)

// Dispatch outcomes recorded for request logging.
const (
	outcomeMock  = "mock"
	outcomeProxy = "proxy"
	outcomeError = "error"
)

// Dispatcher answers every request not claimed by a reserved route:
// from a mock rule when the current snapshot matches path and method,
// otherwise by forwarding to the default backend. Every request reaches
// exactly one response; faults map to 5xx, never to a crash.
type Dispatcher struct {
	registry  *registry.Registry
	forwarder *proxy.Forwarder
	log       *slog.Logger
}

// NewDispatcher creates a Dispatcher. A nil logger disables logging.
func NewDispatcher(reg *registry.Registry, fwd *proxy.Forwarder, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = logging.Nop()
	}
	return &Dispatcher{registry: reg, forwarder: fwd, log: log}
}

// ServeHTTP implements http.Handler.
//
// The snapshot is captured once: a concurrent admin update cannot
// change which rules this request sees. A path match whose method
// disagrees is deliberately treated as no match and falls through to
// the proxy.
func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	snap := d.registry.Current()
	if matched, params, ok := snap.Lookup(r.URL.Path); ok && matched.MethodMatches(r.Method) {
		d.serveMock(w, r, matched, params)
		return
	}
	d.serveProxy(w, r)
}

func (d *Dispatcher) serveMock(w http.ResponseWriter, r *http.Request, matched *rule.Rule, params map[string]string) {
	status, contentType, body, err := synth.Synthesize(matched, params)
	if err != nil {
		d.log.Error("synthesis failed", "method", r.Method, "path", r.URL.Path, "error", err)
		setOutcome(r, outcomeError)
		httputil.WriteInternalError(w, "internal_error", "internal server error")
		return
	}

	d.log.Debug("matched mock rule", "method", r.Method, "path", r.URL.Path, "status", status)
	setOutcome(r, outcomeMock)

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func (d *Dispatcher) serveProxy(w http.ResponseWriter, r *http.Request) {
	d.log.Debug("proxying to default backend", "method", r.Method, "path", r.URL.Path)

	if err := d.forwarder.Forward(w, r); err != nil {
		d.log.Error("proxy request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		setOutcome(r, outcomeError)
		httputil.WriteBadGateway(w, "bad_gateway", "upstream request failed")
		return
	}
	setOutcome(r, outcomeProxy)
}
