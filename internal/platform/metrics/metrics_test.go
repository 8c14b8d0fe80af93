package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.IncEvaluation("ivcf20", "create")
	m.IncClassification("ivcf20", "Frágil")
	m.IncValidationFailure("factf", "out_of_range")
	m.ObserveDashboard("ivcf20", "summary", time.Millisecond)

	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	called := false
	err := m.Middleware()(func(echo.Context) error { called = true; return nil })(c)
	require.NoError(t, err)
	assert.True(t, called)

	err = m.Handler()(c)
	assert.ErrorIs(t, err, echo.ErrNotFound)
}

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.IncEvaluation("ivcf20", "create")
	m.IncEvaluation("ivcf20", "create")
	m.IncClassification("factf", "Fadiga Grave")
	m.IncClassification("factf", "")
	m.IncValidationFailure("physical_activity", "out_of_range")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.EvaluationOps.WithLabelValues("ivcf20", "create")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Classifications.WithLabelValues("factf", "Fadiga Grave")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.Classifications))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ValidationFailures.WithLabelValues("physical_activity", "out_of_range")))
}

func TestMiddlewareUsesHTTPErrorCode(t *testing.T) {
	m := New(prometheus.NewRegistry())
	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/api/v1/ivcf/evaluations/:id", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "evaluation not found")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/ivcf/evaluations/abc", nil))

	assert.Equal(t, 1, testutil.CollectAndCount(m.HTTPDuration))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.IncEvaluation("factf", "delete")
	m.ObserveDashboard("factf", "summary", 20*time.Millisecond)

	e := echo.New()
	e.GET("/metrics", m.Handler())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `painel_evaluations_total{instrument="factf",operation="delete"} 1`))
	assert.True(t, strings.Contains(body, "painel_dashboard_duration_seconds_bucket"))
}

func TestMiddlewarePassesErrorsThrough(t *testing.T) {
	m := New(prometheus.NewRegistry())
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/x", nil), httptest.NewRecorder())
	boom := errors.New("boom")
	err := m.Middleware()(func(echo.Context) error { return boom })(c)
	assert.ErrorIs(t, err, boom)
}
