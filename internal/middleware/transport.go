package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/codenestai/client/internal/logging"
)

// RoundTripperFunc adapts a function to http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

// Tripperware wraps an outbound transport.
type Tripperware func(http.RoundTripper) http.RoundTripper

// Chain wraps base with the given tripperware. The first one listed sees the request first.
func Chain(base http.RoundTripper, wares ...Tripperware) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	for i := len(wares) - 1; i >= 0; i-- {
		base = wares[i](base)
	}
	return base
}

// RequestID stamps every outbound request with an X-Request-ID, taken from the context when
// one was stored with logging.WithRequestID.
func RequestID() Tripperware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			if r.Header.Get(RequestIDHeader) != "" {
				return next.RoundTrip(r)
			}

			requestID := logging.RequestIDFromContext(r.Context())
			if requestID == "" {
				requestID = uuid.NewString()
			}

			r = r.Clone(logging.WithRequestID(r.Context(), requestID))
			r.Header.Set(RequestIDHeader, requestID)
			return next.RoundTrip(r)
		})
	}
}

// Logging emits one structured entry per outbound exchange. The call-scoped logger from the
// request context wins over base. Authorization headers are never logged.
func Logging(base *slog.Logger) Tripperware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			logger := base
			if logging.TraceIDFromContext(r.Context()) != "" || base == nil {
				logger = logging.FromContext(r.Context())
			}

			start := time.Now()
			attrs := []any{
				slog.String("method", r.Method),
				slog.String("url", r.URL.Redacted()),
				slog.Bool("authenticated", r.Header.Get("Authorization") != ""),
			}
			if requestID := r.Header.Get(RequestIDHeader); requestID != "" {
				attrs = append(attrs, slog.String("request_id", requestID))
			}

			resp, err := next.RoundTrip(r)
			attrs = append(attrs, slog.Duration("duration", time.Since(start)))
			if err != nil {
				logger.Warn("outbound request failed", append(attrs, slog.Any("error", err))...)
				return nil, err
			}

			logger.Debug("outbound request completed", append(attrs, slog.Int("status", resp.StatusCode))...)
			return resp, nil
		})
	}
}

// RateLimit paces outbound requests to at most perSecond requests per second with the given
// burst. Requests wait for a token; a cancelled context aborts the wait. A perSecond of zero
// or less disables pacing.
func RateLimit(perSecond, burst int) Tripperware {
	if perSecond <= 0 {
		return func(next http.RoundTripper) http.RoundTripper { return next }
	}
	if burst <= 0 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(perSecond), burst)

	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			if err := limiter.Wait(r.Context()); err != nil {
				return nil, fmt.Errorf("rate limit wait: %w", err)
			}
			return next.RoundTrip(r)
		})
	}
}
