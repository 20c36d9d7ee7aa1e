package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Allocation outcomes.
const (
	OutcomeBooked      = "booked"
	OutcomeWaitingList = "waiting_list"
	OutcomeRejected    = "rejected"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	allocationDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "allocation_decisions_total",
			Help: "Allocation decisions by department and outcome",
		},
		[]string{"department", "outcome"},
	)

	configurationReplacementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "configuration_replacements_total",
			Help: "Configuration replacements by result",
		},
		[]string{"result"},
	)

	staleConfigurationsRemoved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "configuration_stale_removed_total",
			Help: "Superseded configuration documents deleted",
		},
	)
)

// RecordDecision counts one allocation decision.
func RecordDecision(department, outcome string) {
	allocationDecisionsTotal.WithLabelValues(department, outcome).Inc()
}

// RecordReplacement counts one configuration replace and how many stale
// documents it removed.
func RecordReplacement(ok bool, removed int) {
	result := "ok"
	if !ok {
		result = "partial"
	}
	configurationReplacementsTotal.WithLabelValues(result).Inc()
	staleConfigurationsRemoved.Add(float64(removed))
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records HTTP RED metrics (Rate, Errors, Duration).
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		wrapped := &statusResponseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()

		// Use route pattern if available (chi router)
		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			path = rctx.RoutePattern()
		}

		httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

type statusResponseWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusResponseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
