package engine

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/mockfwd/mockfwd/pkg/admin"
	"github.com/mockfwd/mockfwd/pkg/config"
	"github.com/mockfwd/mockfwd/pkg/logging"
	"github.com/mockfwd/mockfwd/pkg/proxy"
	"github.com/mockfwd/mockfwd/pkg/registry"
)

// Server binds the admin surface, the static file server and the
// dispatcher fallback onto one HTTP listener.
type Server struct {
	cfg        *config.Config
	dispatcher *Dispatcher
	httpServer *http.Server
	log        *slog.Logger
}

// Option is a functional option for configuring a Server.
type Option func(*Server)

// WithLogger sets the operational logger for the server.
func WithLogger(log *slog.Logger) Option {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// NewServer creates a Server. Reserved routes (the admin surface and
// /static/) are mounted first; everything else falls through to the
// dispatcher, which mocks or proxies per the current registry snapshot.
func NewServer(cfg *config.Config, reg *registry.Registry, fwd *proxy.Forwarder, opts ...Option) *Server {
	if cfg == nil {
		cfg = config.Default()
	}
	s := &Server{
		cfg: cfg,
		log: logging.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.dispatcher = NewDispatcher(reg, fwd, s.log)

	mux := http.NewServeMux()
	admin.New(reg, s.log).Register(mux)
	if cfg.StaticDir != "" {
		// Static assets bypass the mock/proxy dispatch logic.
		mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticDir))))
	}
	mux.Handle("/", s.dispatcher)

	// RequestLog must wrap Recover: the recorder it installs lets the
	// recovery handler know whether a response was already started.
	handler := RequestLogMiddleware(s.log)(RecoverMiddleware(s.log)(mux))

	s.httpServer = &http.Server{
		Addr:              cfg.Listen,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the fully wired handler chain, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start runs the HTTP server until Shutdown is called. A clean
// shutdown returns nil.
func (s *Server) Start() error {
	s.log.Info("listening", "addr", s.cfg.Listen)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down")
	return s.httpServer.Shutdown(ctx)
}
