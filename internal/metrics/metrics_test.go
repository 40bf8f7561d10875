package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveReport(t *testing.T) {
	r := NewRegistry()

	r.ObserveReport("daily", "ok", 10*time.Millisecond)
	r.ObserveReport("daily", "stale", 5*time.Millisecond)
	r.ObserveReport("dashboard", "error", time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.ReportLoads.WithLabelValues("daily", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.ReportLoads.WithLabelValues("daily", "stale")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.StaleServed.WithLabelValues("daily")))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.StaleServed.WithLabelValues("dashboard")))
}

func TestGinMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRegistry()

	e := gin.New()
	e.Use(r.GinMiddleware())
	e.GET("/sales/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	e.GET("/metrics", gin.WrapH(r.Handler()))

	for i := 0; i < 2; i++ {
		e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/sales/abc", nil))
	}
	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	assert.Equal(t, 2.0, testutil.ToFloat64(r.Requests.WithLabelValues("/sales/:id", "GET", "204")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Requests.WithLabelValues("unmatched", "GET", "404")))

	w := httptest.NewRecorder()
	e.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `pos_http_requests_total{method="GET",route="/sales/:id",status="204"} 2`)
}
