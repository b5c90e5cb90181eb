// Package metrics exposes Prometheus counters for HTTP traffic and chart
// rendering.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics implements timeline.Recorder.
type Metrics struct {
	gatherer prometheus.Gatherer

	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	rendersTotal   *prometheus.CounterVec
	renderDuration prometheus.Histogram
	inputErrors    *prometheus.CounterVec
}

// New registers every collector on reg. Go runtime and process collectors
// are added too.
func New(reg *prometheus.Registry) *Metrics {
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		gatherer: reg,

		// HTTP metrics
		httpRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		httpRequestsInFlight: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
		),

		// Render metrics
		rendersTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "timeline_renders_total",
				Help: "Total number of timeline renders by outcome",
			},
			[]string{"outcome"},
		),
		renderDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "timeline_render_duration_seconds",
				Help:    "Time to load, normalize and draw one workbook",
				Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
		),
		inputErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "timeline_input_errors_total",
				Help: "Uploads rejected for bad data, by table",
			},
			[]string{"table"},
		),
	}
}

// Handler returns the Prometheus metrics HTTP handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// RenderCompleted records one pipeline run.
func (m *Metrics) RenderCompleted(outcome string, elapsed time.Duration) {
	m.rendersTotal.WithLabelValues(outcome).Inc()
	m.renderDuration.Observe(elapsed.Seconds())
}

// InputRejected counts an upload rejected because of table.
func (m *Metrics) InputRejected(table string) {
	m.inputErrors.WithLabelValues(table).Inc()
}

// Middleware records request counts and latency. Paths are labeled by route
// template so unmatched URLs cannot blow up cardinality.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			m.httpRequestsInFlight.Inc()
			defer m.httpRequestsInFlight.Dec()

			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			method := c.Request().Method

			m.httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
			m.httpRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
			return err
		}
	}
}
