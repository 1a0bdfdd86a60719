package middleware

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	domain "github.com/bryanwahyu/repo-audit/internal/domain/analysis"
)

// Metrics holds the service's Prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	requests      *prometheus.CounterVec
	inFlight      prometheus.Gauge
	analyses      *prometheus.CounterVec
	analysisTime  prometheus.Histogram
	tools         *prometheus.CounterVec
	toolDurations *prometheus.HistogramVec
}

// NewMetrics registers all collectors plus the Go and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "repo_audit",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method and status class.",
		}, []string{"method", "code"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "repo_audit",
			Name:      "http_requests_in_flight",
			Help:      "HTTP requests currently being served.",
		}),
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "repo_audit",
			Name:      "analyses_total",
			Help:      "Finished analyses by outcome.",
		}, []string{"status"}),
		analysisTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "repo_audit",
			Name:      "analysis_duration_seconds",
			Help:      "Wall time of a whole analysis request.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		}),
		tools: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "repo_audit",
			Name:      "tool_invocations_total",
			Help:      "Analyzer results by tool and status.",
		}, []string{"tool", "status"}),
		toolDurations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "repo_audit",
			Name:      "tool_duration_seconds",
			Help:      "Analyzer wall time.",
			Buckets:   []float64{0.5, 1, 5, 15, 30, 60, 120, 300},
		}, []string{"tool"}),
	}
	reg.MustRegister(
		m.requests, m.inFlight, m.analyses, m.analysisTime, m.tools, m.toolDurations,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveTool records one analyzer result. Skipped slots are counted but
// not timed.
func (m *Metrics) ObserveTool(res domain.ToolResult) {
	m.tools.WithLabelValues(string(res.Slot), string(res.Status)).Inc()
	if res.Status != domain.StatusSkipped && res.Status != domain.StatusNotRun {
		m.toolDurations.WithLabelValues(string(res.Slot)).Observe(float64(res.DurationMS) / 1000)
	}
}

// ObserveRun records one finished analysis.
func (m *Metrics) ObserveRun(run *domain.Run) {
	m.analyses.WithLabelValues(string(run.Status)).Inc()
	m.analysisTime.Observe(float64(run.DurationMS) / 1000)
}

// Middleware tracks request counts by status class.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.inFlight.Inc()
		defer m.inFlight.Dec()

		wrapped := wrapWriter(w)
		next.ServeHTTP(wrapped, r)

		m.requests.WithLabelValues(r.Method, statusClass(wrapped.statusCode)).Inc()
	})
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func statusClass(code int) string {
	return strconv.Itoa(code/100) + "xx"
}
