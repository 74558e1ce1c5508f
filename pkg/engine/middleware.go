package engine

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/mockfwd/mockfwd/pkg/httputil"
)

// requestMeta carries per-request facts from the dispatcher back to the
// logging middleware.
type requestMeta struct {
	outcome string
}

type metaKey struct{}

func withMeta(r *http.Request) (*http.Request, *requestMeta) {
	meta := &requestMeta{}
	return r.WithContext(context.WithValue(r.Context(), metaKey{}, meta)), meta
}

func setOutcome(r *http.Request, outcome string) {
	if meta, ok := r.Context().Value(metaKey{}).(*requestMeta); ok {
		meta.outcome = outcome
	}
}

// statusRecorder captures the status code written downstream.
type statusRecorder struct {
	http.ResponseWriter
	status  int
	written bool
}

func (sr *statusRecorder) WriteHeader(code int) {
	if !sr.written {
		sr.status = code
		sr.written = true
	}
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(p []byte) (int, error) {
	if !sr.written {
		sr.status = http.StatusOK
		sr.written = true
	}
	return sr.ResponseWriter.Write(p)
}

// RequestLogMiddleware logs one line per request with a generated
// request ID, the dispatch outcome, the response status and duration.
func RequestLogMiddleware(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			id := uuid.NewString()

			r, meta := withMeta(r)
			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			if !rec.written {
				rec.status = http.StatusOK
			}
			log.Info("request",
				"id", id,
				"method", r.Method,
				"path", r.URL.Path,
				"outcome", meta.outcome,
				"status", rec.status,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}

// RecoverMiddleware converts downstream panics into a generic 500. The
// panic value is logged but never echoed to the client, and the serving
// process keeps running.
func RecoverMiddleware(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec, ok := w.(*statusRecorder)
			defer func() {
				if v := recover(); v != nil {
					log.Error("panic in request handler", "method", r.Method, "path", r.URL.Path, "panic", v)
					setOutcome(r, outcomeError)
					if ok && rec.written {
						return // response already started, nothing safe to write
					}
					httputil.WriteInternalError(w, "internal_error", "internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
