package proxy

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsBadBase(t *testing.T) {
	tests := []string{
		"ftp://backend",
		"backend.local:9000",
		"://",
	}
	for _, base := range tests {
		t.Run(base, func(t *testing.T) {
			_, err := New(base)
			assert.Error(t, err)
		})
	}
}

func TestNewTrimsTrailingSlash(t *testing.T) {
	f, err := New("http://backend.local:9000/")
	require.NoError(t, err)
	assert.Equal(t, "http://backend.local:9000", f.Base())
}

func TestForwardRelaysResponse(t *testing.T) {
	var got *http.Request
	var gotBody string
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(r.Context())
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("X-Backend", "yes")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"created":true}`))
	}))
	defer backend.Close()

	f, err := New(backend.URL)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "http://mock.local/api/items?limit=5&q=a+b", strings.NewReader(`{"name":"x"}`))
	req.Header.Set("X-Custom", "value")
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	require.NoError(t, f.Forward(w, req))

	// Path, query, method, headers and body reach the backend.
	require.NotNil(t, got)
	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, "/api/items", got.URL.Path)
	assert.Equal(t, "limit=5&q=a+b", got.URL.RawQuery)
	assert.Equal(t, "value", got.Header.Get("X-Custom"))
	assert.Equal(t, `{"name":"x"}`, gotBody)

	// The backend sees its own host, not the mock server's.
	assert.NotEqual(t, "mock.local", got.Host)
	assert.Empty(t, got.Header.Get("Host"))

	// Status, headers and body are relayed verbatim.
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "yes", w.Header().Get("X-Backend"))
	assert.Equal(t, `{"created":true}`, w.Body.String())
}

func TestForwardRelaysRedirectVerbatim(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "http://elsewhere.local/moved", http.StatusFound)
	}))
	defer backend.Close()

	f, err := New(backend.URL)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "http://mock.local/old", nil)
	w := httptest.NewRecorder()

	require.NoError(t, f.Forward(w, req))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "http://elsewhere.local/moved", w.Header().Get("Location"))
}

func TestForwardRelaysBackendErrors(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer backend.Close()

	f, err := New(backend.URL)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	require.NoError(t, f.Forward(w, httptest.NewRequest(http.MethodGet, "http://mock.local/x", nil)))

	// A backend 5xx is a valid response, not a proxy error.
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

// The client carries no overall timeout, so a slow backend is awaited
// rather than cut off.
func TestForwardAwaitsSlowBackend(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte("slow ok"))
	}))
	defer backend.Close()

	f, err := New(backend.URL)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	require.NoError(t, f.Forward(w, httptest.NewRequest(http.MethodGet, "http://mock.local/slow", nil)))
	assert.Equal(t, "slow ok", w.Body.String())
}

// Cancellation rides the inbound request's context: a client disconnect
// abandons the upstream call.
func TestForwardHonorsRequestContext(t *testing.T) {
	release := make(chan struct{})
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer backend.Close()
	defer close(release)

	f, err := New(backend.URL)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "http://mock.local/slow", nil).WithContext(ctx)

	w := httptest.NewRecorder()
	err = f.Forward(w, req)

	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestForwardTransportFailure(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := backend.URL
	backend.Close()

	f, err := New(base)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	err = f.Forward(w, httptest.NewRequest(http.MethodGet, "http://mock.local/x", nil))

	var perr *Error
	require.ErrorAs(t, err, &perr)

	// Nothing was written, the caller still owns the response.
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, w.Body.Len())
	assert.False(t, w.Flushed)
}
