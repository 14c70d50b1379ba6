// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file exports Prometheus instrumentation for the API. Series are keyed
// by the registered route, never the raw path, except for unmatched requests.
// Live snapshot streams are counted but stay out of the latency histogram.
package middleware

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	apiRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route, status and caller kind.",
		},
		[]string{"method", "route", "status", "caller"},
	)

	apiLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latency of non-streaming HTTP requests.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route"},
	)

	apiInflight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_requests_inflight",
		Help: "HTTP requests being served, open streams included.",
	})

	apiReplays = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_idempotent_replays_total",
			Help: "Requests answered from a stored idempotent result.",
		},
		[]string{"route"},
	)
)

func init() {
	prometheus.MustRegister(apiRequests, apiLatency, apiInflight, apiReplays)
}

// Metrics instruments every request. Mount promhttp.Handler() separately.
// It must run after Identity and before IdempotencyValidator so both the
// caller and the replay flag are known when the handler returns.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		apiInflight.Inc()
		defer apiInflight.Dec()

		c.Next()

		route := routeLabel(c)
		caller := "anonymous"
		if UserID(c) != "" {
			caller = "user"
		}
		apiRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), caller).Inc()
		if IsReplay(c) {
			apiReplays.WithLabelValues(route).Inc()
		}
		if !isEventStream(c) {
			apiLatency.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
		}
	}
}

func routeLabel(c *gin.Context) string {
	if r := c.FullPath(); r != "" {
		return r
	}
	return "unmatched"
}

func isEventStream(c *gin.Context) bool {
	return strings.HasPrefix(c.Writer.Header().Get("Content-Type"), "text/event-stream")
}
