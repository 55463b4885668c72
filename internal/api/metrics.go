package api

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records client-side request outcomes. A nil *Metrics is valid and records nothing.
type Metrics struct {
	requests  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	refreshes *prometheus.CounterVec
	retries   prometheus.Counter
}

// NewMetrics creates the client collectors and registers them with reg when reg is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "codenest",
				Subsystem: "client",
				Name:      "requests_total",
				Help:      "HTTP requests sent to the platform API.",
			},
			[]string{"method", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "codenest",
				Subsystem: "client",
				Name:      "request_duration_seconds",
				Help:      "Platform API request latencies in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		refreshes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "codenest",
				Subsystem: "client",
				Name:      "token_refreshes_total",
				Help:      "Token refresh exchanges by result.",
			},
			[]string{"result"},
		),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "codenest",
			Subsystem: "client",
			Name:      "retries_total",
			Help:      "Requests resent after a successful token refresh.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.requests, m.duration, m.refreshes, m.retries)
	}
	return m
}

func (m *Metrics) observeRequest(method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.requests.WithLabelValues(method, label).Inc()
	m.duration.WithLabelValues(method).Observe(elapsed.Seconds())
}

func (m *Metrics) observeRefresh(ok bool) {
	if m == nil {
		return
	}
	result := "failure"
	if ok {
		result = "success"
	}
	m.refreshes.WithLabelValues(result).Inc()
}

func (m *Metrics) observeRetry() {
	if m == nil {
		return
	}
	m.retries.Inc()
}
