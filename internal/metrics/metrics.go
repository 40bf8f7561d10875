// Package metrics exposes Prometheus metrics for HTTP traffic and report loads.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the service collectors on a private registry.
type Registry struct {
	reg             *prometheus.Registry
	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ReportLoads     *prometheus.CounterVec
	ReportDuration  *prometheus.HistogramVec
	StaleServed     *prometheus.CounterVec
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_http_requests_total",
		Help: "HTTP requests by route, method and status.",
	}, []string{"route", "method", "status"})
	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pos_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})
	reportLoads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_report_loads_total",
		Help: "Report loads by kind and outcome.",
	}, []string{"kind", "outcome"})
	reportDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pos_report_load_duration_seconds",
		Help:    "Report load latency by kind.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})
	staleServed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_report_stale_served_total",
		Help: "Reports answered from the last successful load after a failed fetch.",
	}, []string{"kind"})

	r.MustRegister(requests, requestDuration, reportLoads, reportDuration, staleServed)
	return &Registry{
		reg:             r,
		Requests:        requests,
		RequestDuration: requestDuration,
		ReportLoads:     reportLoads,
		ReportDuration:  reportDuration,
		StaleServed:     staleServed,
	}
}

// ObserveReport records one report load.
func (r *Registry) ObserveReport(kind, outcome string, elapsed time.Duration) {
	r.ReportLoads.WithLabelValues(kind, outcome).Inc()
	r.ReportDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
	if outcome == "stale" {
		r.StaleServed.WithLabelValues(kind).Inc()
	}
}

// GinMiddleware counts requests by matched route.
func (r *Registry) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		r.Requests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		r.RequestDuration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }
