package metrics

import (
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

func TestMetrics_RenderCompleted(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.RenderCompleted("ok", 120*time.Millisecond)
	m.RenderCompleted("ok", 80*time.Millisecond)
	m.RenderCompleted("input_error", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.rendersTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rendersTotal.WithLabelValues("input_error")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.renderDuration))
}

func TestMetrics_InputRejected(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.InputRejected("steroids")
	m.InputRejected("steroids")
	assert.Equal(t, 2.0, testutil.ToFloat64(m.inputErrors.WithLabelValues("steroids")))
}

func TestMetrics_Middleware(t *testing.T) {
	m := New(prometheus.NewRegistry())
	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/health", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.POST("/timeline", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusTooManyRequests)
	})

	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/timeline", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("GET", "/health", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("POST", "/timeline", "429")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.httpRequestsInFlight))
}

func TestMetrics_Handler(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.RenderCompleted("ok", time.Second)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `timeline_renders_total{outcome="ok"} 1`))
	assert.Contains(t, body, "go_goroutines")
}
