// Package metrics exposes prometheus instruments for scoring, evaluation
// lifecycle, dashboard aggregation and HTTP traffic.
package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the service's collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	// Evaluation writes by instrument and operation (create, update, delete).
	EvaluationOps *prometheus.CounterVec

	// Classifications assigned on create or recalculation.
	Classifications *prometheus.CounterVec

	// Rejected submissions by instrument and reason.
	ValidationFailures *prometheus.CounterVec

	// Aggregation latency by instrument and dashboard view.
	DashboardLatency *prometheus.HistogramVec

	HTTPDuration *prometheus.HistogramVec
}

// New registers every collector on reg. Passing a fresh prometheus.NewRegistry
// keeps tests isolated from the default registry.
func New(reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		gatherer: reg,
		EvaluationOps: f.NewCounterVec(prometheus.CounterOpts{
			Name: "painel_evaluations_total",
			Help: "Evaluation writes by instrument and operation",
		}, []string{"instrument", "operation"}),

		Classifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "painel_classifications_total",
			Help: "Classifications assigned by instrument and label",
		}, []string{"instrument", "classification"}),

		ValidationFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "painel_validation_failures_total",
			Help: "Rejected evaluation submissions by instrument and reason",
		}, []string{"instrument", "reason"}),

		DashboardLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "painel_dashboard_duration_seconds",
			Help:    "Duration of dashboard aggregations including the store query",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"instrument", "view"}),

		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "painel_http_request_duration_seconds",
			Help:    "HTTP request duration by method, route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

// IncEvaluation records an evaluation write.
func (m *Metrics) IncEvaluation(instrument, operation string) {
	if m != nil {
		m.EvaluationOps.WithLabelValues(instrument, operation).Inc()
	}
}

// IncClassification records an assigned classification label.
func (m *Metrics) IncClassification(instrument, classification string) {
	if m != nil && classification != "" {
		m.Classifications.WithLabelValues(instrument, classification).Inc()
	}
}

// IncValidationFailure records a rejected submission.
func (m *Metrics) IncValidationFailure(instrument, reason string) {
	if m != nil {
		m.ValidationFailures.WithLabelValues(instrument, reason).Inc()
	}
}

// ObserveDashboard records how long one dashboard view took.
func (m *Metrics) ObserveDashboard(instrument, view string, d time.Duration) {
	if m != nil {
		m.DashboardLatency.WithLabelValues(instrument, view).Observe(d.Seconds())
	}
}

// Middleware records request durations labelled by the matched route pattern.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if m == nil {
				return next(c)
			}
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			m.HTTPDuration.WithLabelValues(c.Request().Method, route, strconv.Itoa(status)).
				Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() echo.HandlerFunc {
	if m == nil {
		return func(c echo.Context) error { return echo.ErrNotFound }
	}
	return echo.WrapHandler(promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{}))
}
