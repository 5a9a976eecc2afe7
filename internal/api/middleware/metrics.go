package middleware

import (
	"net/http"
	"sync/atomic"
	"time"
)

// Metrics counts requests by outcome since the process started.
type Metrics struct {
	started      time.Time
	requests     atomic.Int64
	clientErrors atomic.Int64
	serverErrors atomic.Int64
}

func NewMetrics() *Metrics {
	return &Metrics{started: time.Now()}
}

// MetricsSnapshot is a point-in-time copy of the counters.
type MetricsSnapshot struct {
	Uptime       time.Duration
	Requests     int64
	ClientErrors int64
	ServerErrors int64
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Uptime:       time.Since(m.started),
		Requests:     m.requests.Load(),
		ClientErrors: m.clientErrors.Load(),
		ServerErrors: m.serverErrors.Load(),
	}
}

func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.requests.Add(1)

		rw := newResponseWriter(w)
		next.ServeHTTP(rw, r)

		switch {
		case rw.statusCode >= 500:
			m.serverErrors.Add(1)
		case rw.statusCode >= 400:
			m.clientErrors.Add(1)
		}
	})
}
