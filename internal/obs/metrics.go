package obs

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTP-level metrics.
var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

// Game-level metrics.
var (
	roundsStarted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "game_rounds_started_total",
		Help: "Rounds started since process start.",
	})

	phaseTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "game_phase_transitions_total",
			Help: "Round phase transitions by target phase.",
		},
		[]string{"phase"},
	)

	messagesSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "game_messages_submitted_total",
			Help: "Role messages submitted, by author role.",
		},
		[]string{"role"},
	)

	judgementsSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "game_judgements_submitted_total",
			Help: "Judgements submitted, by verdict.",
		},
		[]string{"verdict"},
	)
)

// Init registers all metrics with the default registry.
func Init() {
	prometheus.MustRegister(
		httpInFlight, httpRequestsTotal, httpRequestDuration,
		roundsStarted, phaseTransitions, messagesSubmitted, judgementsSubmitted,
	)
}

// Handler returns the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RoundStarted records a newly started round.
func RoundStarted() { roundsStarted.Inc() }

// PhaseAdvanced records a transition into the given phase.
func PhaseAdvanced(phase string) { phaseTransitions.WithLabelValues(phase).Inc() }

// MessageSubmitted records a submitted role message.
func MessageSubmitted(role string) { messagesSubmitted.WithLabelValues(role).Inc() }

// JudgementSubmitted records a submitted judgement.
func JudgementSubmitted(verdict string) { judgementsSubmitted.WithLabelValues(verdict).Inc() }

// CanonicalPath collapses round identifiers so metric label cardinality
// stays bounded.
func CanonicalPath(p string) string {
	if p == "" {
		return "/"
	}
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p = p[:i]
	}
	parts := strings.Split(strings.Trim(p, "/"), "/")
	if len(parts) == 4 && parts[0] == "api" && parts[1] == "rounds" {
		switch parts[3] {
		case "phase", "report", "export":
			return "/api/rounds/:id/" + parts[3]
		}
	}
	return p
}

// Instrument wraps a handler with RPS, latency and in-flight tracking.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := CanonicalPath(r.URL.Path)
		method := r.Method

		httpInFlight.Inc()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: 200}
		next.ServeHTTP(sw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(sw.code)

		httpRequestDuration.WithLabelValues(method, path, status).Observe(duration)
		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpInFlight.Dec()
	})
}

// statusWriter captures the response code for metric labels.
type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
