package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "biznesnet",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "biznesnet",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "biznesnet",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "route"},
	)

	reactions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "biznesnet",
			Subsystem: "feedback",
			Name:      "reactions_total",
			Help:      "Like/dislike toggles by outcome.",
		},
		[]string{"status"},
	)

	ratingsSubmitted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "biznesnet",
			Subsystem: "feedback",
			Name:      "ratings_total",
			Help:      "Ratings created or updated.",
		},
	)

	premiumCheckouts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "biznesnet",
			Subsystem: "premium",
			Name:      "checkouts_total",
			Help:      "Premium checkout attempts by provider and outcome.",
		},
		[]string{"provider", "outcome"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		reactions,
		ratingsSubmitted,
		premiumCheckouts,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler records request counts and latency labelled with the
// chi route pattern, so /businesses/1 and /businesses/2 share a series.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := routePattern(r)
		method := strings.ToUpper(r.Method)

		httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
		httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	})
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

func RecordReaction(status string) {
	reactions.WithLabelValues(status).Inc()
}

func RecordRating() {
	ratingsSubmitted.Inc()
}

// RecordPremiumCheckout counts checkout events; outcome is one of
// "initiated", "failed" or "paid".
func RecordPremiumCheckout(provider, outcome string) {
	if provider == "" {
		provider = "unknown"
	}
	premiumCheckouts.WithLabelValues(provider, outcome).Inc()
}
