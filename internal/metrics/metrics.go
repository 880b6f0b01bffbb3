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
			Namespace: "catalog",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "catalog",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "catalog",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	overdueLoans = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "catalog",
			Subsystem: "loans",
			Name:      "overdue",
			Help:      "Number of loans past their due date at the last scan.",
		},
	)

	loanEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "catalog",
			Subsystem: "loans",
			Name:      "events_total",
			Help:      "Total number of loan lifecycle events.",
		},
		[]string{"action"},
	)

	loginAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "catalog",
			Subsystem: "auth",
			Name:      "logins_total",
			Help:      "Total number of login attempts.",
		},
		[]string{"success"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		overdueLoans,
		loanEvents,
		loginAttempts,
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

// SetOverdueLoans publishes the latest overdue loan count.
func SetOverdueLoans(count int) {
	if count < 0 {
		count = 0
	}
	overdueLoans.Set(float64(count))
}

// RecordLoanEvent counts a loan lifecycle event such as checkout or renew.
func RecordLoanEvent(action string) {
	if action == "" {
		action = "unknown"
	}
	loanEvents.WithLabelValues(action).Inc()
}

// RecordLogin counts a login attempt.
func RecordLogin(success bool) {
	result := "false"
	if success {
		result = "true"
	}
	loginAttempts.WithLabelValues(result).Inc()
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

// canonicalPath collapses record identifiers out of request paths so the
// per-path label set stays bounded.
func canonicalPath(raw string) string {
	if raw == "" || raw == "/" {
		return "/"
	}
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return "/"
	}
	parts := strings.Split(trimmed, "/")
	if parts[0] != "catalog" {
		if len(parts) == 1 {
			return "/" + parts[0]
		}
		return "/" + parts[0] + "/" + parts[1]
	}
	if len(parts) == 1 {
		return "/catalog"
	}
	resource := parts[1]
	if len(parts) == 2 {
		return "/catalog/" + resource
	}
	if parts[2] == "create" {
		return "/catalog/" + resource + "/create"
	}
	if len(parts) == 3 {
		return "/catalog/" + resource + "/:id"
	}
	return "/catalog/" + resource + "/:id/" + parts[3]
}
