// Package metrics provides Prometheus instrumentation for the session
// lifecycle: how sessions are opened and closed, whether the process slot is
// held, and how the session middleware finished each request.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// SessionsStarted counts sessions opened by handlers, labeled by kind:
	// "fresh" (new ID allocated) or "resumed" (incoming cookie ID reused).
	SessionsStarted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sessiond_sessions_started_total",
		Help: "Total number of sessions started",
	}, []string{"kind"})

	// SessionsClosed counts sessions released from the process slot, labeled
	// by mode: "written" (persisted) or "aborted" (changes discarded).
	SessionsClosed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sessiond_sessions_closed_total",
		Help: "Total number of sessions closed",
	}, []string{"mode"})

	// SlotActive is 1 while a session occupies the process slot.
	SlotActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sessiond_session_slot_active",
		Help: "Whether a session currently occupies the process slot",
	})

	// MiddlewareRequests counts requests through the session middleware,
	// labeled by outcome: "ok", "handler_error" or "headers_sent".
	MiddlewareRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sessiond_middleware_requests_total",
		Help: "Total number of requests processed by the session middleware",
	}, []string{"outcome"})

	// CookiesIssued counts Set-Cookie headers written for sessions.
	CookiesIssued = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sessiond_cookies_issued_total",
		Help: "Total number of session cookies attached to responses",
	})

	// DispatchDuration records how long the worker holds the process slot
	// per request, from dispatch to session close.
	DispatchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sessiond_dispatch_duration_seconds",
		Help:    "Time spent dispatching a request through the worker",
		Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
	})
)

func init() {
	prometheus.MustRegister(
		SessionsStarted,
		SessionsClosed,
		SlotActive,
		MiddlewareRequests,
		CookiesIssued,
		DispatchDuration,
	)
}

// Handler returns an HTTP handler that serves the registered metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
