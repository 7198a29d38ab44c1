package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func serve(h http.Handler, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

func TestAuth(t *testing.T) {
	h := Auth("secret", "/api/health")(ok)

	cases := []struct {
		name   string
		req    func() *http.Request
		status int
	}{
		{"missing", func() *http.Request {
			return httptest.NewRequest(http.MethodGet, "/api/markets", nil)
		}, http.StatusUnauthorized},
		{"wrong", func() *http.Request {
			r := httptest.NewRequest(http.MethodGet, "/api/markets", nil)
			r.Header.Set("Authorization", "Bearer nope")
			return r
		}, http.StatusUnauthorized},
		{"bearer", func() *http.Request {
			r := httptest.NewRequest(http.MethodGet, "/api/markets", nil)
			r.Header.Set("Authorization", "Bearer secret")
			return r
		}, http.StatusOK},
		{"header", func() *http.Request {
			r := httptest.NewRequest(http.MethodGet, "/api/markets", nil)
			r.Header.Set("X-API-Key", "secret")
			return r
		}, http.StatusOK},
		{"open path", func() *http.Request {
			return httptest.NewRequest(http.MethodGet, "/api/health", nil)
		}, http.StatusOK},
		{"preflight", func() *http.Request {
			return httptest.NewRequest(http.MethodOptions, "/api/markets", nil)
		}, http.StatusOK},
		{"ws query", func() *http.Request {
			return httptest.NewRequest(http.MethodGet, "/ws?api_key=secret", nil)
		}, http.StatusOK},
		{"query ignored off ws", func() *http.Request {
			return httptest.NewRequest(http.MethodGet, "/api/markets?api_key=secret", nil)
		}, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.status, serve(h, tc.req()).Code)
		})
	}
}

func TestAuthDisabled(t *testing.T) {
	rec := serve(Auth("")(ok), httptest.NewRequest(http.MethodGet, "/api/markets", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCORS(t *testing.T) {
	require := require.New(t)
	h := CORS([]string{"https://app.example"})(ok)

	r := httptest.NewRequest(http.MethodGet, "/api/markets", nil)
	r.Header.Set("Origin", "https://app.example")
	rec := serve(h, r)
	require.Equal("https://app.example", rec.Header().Get("Access-Control-Allow-Origin"))

	r = httptest.NewRequest(http.MethodGet, "/api/markets", nil)
	r.Header.Set("Origin", "https://evil.example")
	rec = serve(h, r)
	require.Empty(rec.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(http.StatusOK, rec.Code)

	r = httptest.NewRequest(http.MethodOptions, "/api/markets", nil)
	r.Header.Set("Origin", "https://app.example")
	require.Equal(http.StatusNoContent, serve(h, r).Code)
}

type fakeLimiter struct {
	allow bool
	err   error
	keys  []string
}

func (l *fakeLimiter) Allow(_ context.Context, key string, _ int, _ time.Duration) (bool, error) {
	l.keys = append(l.keys, key)
	return l.allow, l.err
}

func TestRateLimit(t *testing.T) {
	require := require.New(t)

	l := &fakeLimiter{allow: false}
	h := RateLimit(l, 10, time.Minute, discard())(ok)
	r := httptest.NewRequest(http.MethodGet, "/api/markets", nil)
	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	rec := serve(h, r)
	require.Equal(http.StatusTooManyRequests, rec.Code)
	require.Equal("60", rec.Header().Get("Retry-After"))
	require.Equal([]string{"api:203.0.113.7"}, l.keys)

	l = &fakeLimiter{allow: true}
	rec = serve(RateLimit(l, 10, time.Minute, discard())(ok), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(http.StatusOK, rec.Code)

	// An unreachable limiter lets traffic through.
	l = &fakeLimiter{err: errors.New("redis down")}
	rec = serve(RateLimit(l, 10, time.Minute, discard())(ok), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(http.StatusOK, rec.Code)
}

func TestRateLimitDisabled(t *testing.T) {
	require := require.New(t)
	rec := serve(RateLimit(nil, 10, time.Minute, discard())(ok), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(http.StatusOK, rec.Code)

	l := &fakeLimiter{}
	rec = serve(RateLimit(l, 0, time.Minute, discard())(ok), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(http.StatusOK, rec.Code)
	require.Empty(l.keys)
}

func TestLoggingKeepsStatus(t *testing.T) {
	h := Logging(discard())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusTeapot, rec.Code)
}
