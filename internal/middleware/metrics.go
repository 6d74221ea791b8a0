package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/prime-cvd-risk/internal/domain"
)

// Metrics holds the Prometheus collectors for the HTTP surface and the engine.
type Metrics struct {
	requests    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	evaluations *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "prime_cvd",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "prime_cvd",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "prime_cvd",
			Name:      "risk_evaluations_total",
			Help:      "Risk evaluations by result status and baseline tier.",
		}, []string{"status", "tier"}),
	}

	reg.MustRegister(m.requests, m.duration, m.evaluations)
	return m
}

// Handler records request counts and latency.
func (m *Metrics) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		m.duration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

// ObserveEvaluation counts a completed risk evaluation.
func (m *Metrics) ObserveEvaluation(result *domain.RiskResult) {
	if m == nil || result == nil {
		return
	}
	m.evaluations.WithLabelValues(string(result.Status), string(result.BaselineTier)).Inc()
}
