package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/joseph-ayodele/deal-analyzer/internal/metrics"
)

const metricsNamespace = "deal_analyzer"

// Instrumentation holds the service's Prometheus collectors.
type Instrumentation struct {
	gatherer prometheus.Gatherer

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	analyses     *prometheus.CounterVec
	detected     *prometheus.CounterVec
	queueDepth   prometheus.GaugeFunc
}

// NewInstrumentation registers the collectors on reg. queueLen may be nil.
func NewInstrumentation(reg *prometheus.Registry, queueLen func() int) *Instrumentation {
	in := &Instrumentation{
		gatherer: reg,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   []float64{.005, .025, .1, .5, 1, 5, 15, 60},
		}, []string{"route"}),
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "analyses_total",
			Help:      "Completed analyses by final status.",
		}, []string{"status"}),
		detected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "metrics_detected_total",
			Help:      "Deal metrics produced, by label.",
		}, []string{"label"}),
	}
	reg.MustRegister(in.httpRequests, in.httpDuration, in.analyses, in.detected)
	if queueLen != nil {
		in.queueDepth = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "inbox_queue_depth",
			Help:      "Documents waiting for an ingest worker.",
		}, func() float64 { return float64(queueLen()) })
		reg.MustRegister(in.queueDepth)
	}
	return in
}

// Handler serves the registry in the Prometheus exposition format.
func (in *Instrumentation) Handler() http.Handler {
	return promhttp.HandlerFor(in.gatherer, promhttp.HandlerOpts{})
}

// Middleware records request count and latency keyed by the chi route pattern.
func (in *Instrumentation) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		in.httpRequests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		in.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// ObserveAnalysis counts a finished analysis.
func (in *Instrumentation) ObserveAnalysis(status string) {
	if in == nil {
		return
	}
	in.analyses.WithLabelValues(status).Inc()
}

// ObserveMetrics counts each label present in ms.
func (in *Instrumentation) ObserveMetrics(ms metrics.MetricSet) {
	if in == nil {
		return
	}
	for _, l := range ms.Labels() {
		in.detected.WithLabelValues(string(l)).Inc()
	}
}
