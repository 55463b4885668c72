package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codenestai/client/internal/logging"
)

func TestRequestLoggerReusesIncomingRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	var seen string
	handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logging.RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/courses", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "req-123", seen)
	assert.Equal(t, "req-123", rec.Header().Get(RequestIDHeader))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "request completed", entry["msg"])
	assert.Equal(t, float64(http.StatusTeapot), entry["status"])
	assert.Equal(t, "req-123", entry["request_id"])
}

func TestRequestLoggerRecoversPanics(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	handler := RequestLogger(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestChainOrdersTripperware(t *testing.T) {
	var order []string
	mark := func(name string) Tripperware {
		return func(next http.RoundTripper) http.RoundTripper {
			return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
				order = append(order, name)
				return next.RoundTrip(r)
			})
		}
	}
	base := RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
		order = append(order, "base")
		return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody, Request: r}, nil
	})

	rt := Chain(base, mark("first"), mark("second"))
	req := httptest.NewRequest(http.MethodGet, "http://example.test/", nil)
	_, err := rt.RoundTrip(req)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "base"}, order)
}

func TestRequestIDTransport(t *testing.T) {
	var got []string
	base := RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
		got = append(got, r.Header.Get(RequestIDHeader))
		return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody, Request: r}, nil
	})
	rt := Chain(base, RequestID())

	ctx := logging.WithRequestID(context.Background(), "from-ctx")
	req := httptest.NewRequest(http.MethodGet, "http://example.test/", nil).WithContext(ctx)
	_, err := rt.RoundTrip(req)
	require.NoError(t, err)
	assert.Empty(t, req.Header.Get(RequestIDHeader), "original request must not be mutated")

	_, err = rt.RoundTrip(httptest.NewRequest(http.MethodGet, "http://example.test/", nil))
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "from-ctx", got[0])
	assert.Len(t, got[1], 36)
}

func TestLoggingTransportOmitsCredentials(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	base := RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: http.StatusCreated, Body: http.NoBody, Request: r}, nil
	})
	rt := Chain(base, Logging(logger))

	req := httptest.NewRequest(http.MethodPost, "http://example.test/api/community/posts", nil)
	req.Header.Set("Authorization", "Bearer secret-token")
	_, err := rt.RoundTrip(req)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "outbound request completed")
	assert.Contains(t, out, `"status":201`)
	assert.Contains(t, out, `"authenticated":true`)
	assert.False(t, strings.Contains(out, "secret-token"))
}

func TestRateLimitTransportHonoursContext(t *testing.T) {
	base := RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody, Request: r}, nil
	})
	rt := Chain(base, RateLimit(1, 1))

	_, err := rt.RoundTrip(httptest.NewRequest(http.MethodGet, "http://example.test/", nil))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = rt.RoundTrip(httptest.NewRequest(http.MethodGet, "http://example.test/", nil).WithContext(ctx))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit wait")
}

func TestRateLimitDisabled(t *testing.T) {
	base := RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody, Request: r}, nil
	})
	rt := Chain(base, RateLimit(0, 0))
	for i := 0; i < 10; i++ {
		_, err := rt.RoundTrip(httptest.NewRequest(http.MethodGet, "http://example.test/", nil))
		require.NoError(t, err)
	}
}

func TestIPRateLimiterPerKey(t *testing.T) {
	limiter := NewIPRateLimiter(1, time.Minute, 2, time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	keyed := limiter.(*keyedLimiter)
	keyed.WithNowFunc(func() time.Time { return now })

	allowed := func(key string) bool {
		ok, _ := limiter.Allow(key)
		return ok
	}

	assert.True(t, allowed("login:10.0.0.1"))
	assert.True(t, allowed("login:10.0.0.1"))
	ok, retryAfter := limiter.Allow("login:10.0.0.1")
	assert.False(t, ok)
	assert.InDelta(t, float64(time.Minute), float64(retryAfter), float64(time.Millisecond))
	assert.True(t, allowed("login:10.0.0.2"), "keys are limited independently")

	now = now.Add(time.Minute)
	assert.True(t, allowed("login:10.0.0.1"))

	now = now.Add(2 * time.Minute)
	assert.True(t, allowed("login:10.0.0.3"))
	assert.Equal(t, 1, keyed.Len(), "idle keys are forgotten")
}
