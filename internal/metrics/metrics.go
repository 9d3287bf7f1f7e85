// Package metrics exposes the server's Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "befriend",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "befriend",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "befriend",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	rpcs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "befriend",
			Subsystem: "rpc",
			Name:      "calls_total",
			Help:      "Connect RPC calls by procedure and result code.",
		},
		[]string{"procedure", "code"},
	)

	balanceComputations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "befriend",
			Subsystem: "ledger",
			Name:      "balance_computations_total",
			Help:      "Group balance computations by outcome.",
		},
		[]string{"outcome"},
	)

	contributions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "befriend",
			Subsystem: "ledger",
			Name:      "contributions_total",
			Help:      "Pool contribution attempts by outcome.",
		},
		[]string{"outcome"},
	)

	reconciliations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "befriend",
			Subsystem: "auth",
			Name:      "reconciliations_total",
			Help:      "Federated identity reconciliations by outcome.",
		},
		[]string{"outcome"},
	)

	usernameCollisions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "befriend",
			Subsystem: "auth",
			Name:      "username_collisions_total",
			Help:      "Username candidates that were already taken.",
		},
	)

	invitations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "befriend",
			Subsystem: "invite",
			Name:      "invitations_total",
			Help:      "Invitation operations by action.",
		},
		[]string{"action"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		rpcs,
		balanceComputations,
		contributions,
		reconciliations,
		usernameCollisions,
		invitations,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		path := canonicalPath(r.URL.Path)
		method := strings.ToUpper(r.Method)

		httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	})
}

// RecordRPC counts a finished RPC. code is "ok" or a connect code name.
func RecordRPC(procedure, code string) {
	rpcs.WithLabelValues(procedure, code).Inc()
}

// RecordBalanceComputation counts a balance computation. outcome is one of
// "ok", "group_not_found" or "error".
func RecordBalanceComputation(outcome string) {
	balanceComputations.WithLabelValues(outcome).Inc()
}

// RecordContribution counts a contribution attempt.
func RecordContribution(outcome string) {
	contributions.WithLabelValues(outcome).Inc()
}

// RecordReconciliation counts a reconciliation. outcome is one of "linked",
// "refreshed", "created", "retried" or "error".
func RecordReconciliation(outcome string) {
	reconciliations.WithLabelValues(outcome).Inc()
}

// RecordUsernameCollision counts one taken username candidate.
func RecordUsernameCollision() {
	usernameCollisions.Inc()
}

// RecordInvitation counts an invitation action ("created", "accepted").
func RecordInvitation(action string) {
	invitations.WithLabelValues(action).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// Flush lets streaming responses pass through the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// canonicalPath keeps RPC procedure paths ("/befriend.v1.GroupService/GetGroup")
// and collapses everything else to its first segment so label cardinality
// stays bounded.
func canonicalPath(raw string) string {
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return "/"
	}
	parts := strings.Split(trimmed, "/")
	if strings.HasPrefix(parts[0], "befriend.") && len(parts) == 2 {
		return "/" + parts[0] + "/" + parts[1]
	}
	return "/" + parts[0]
}
