package server

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the server's collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight prometheus.Gauge
	panicRecoveries  prometheus.Counter
	predictions      *prometheus.CounterVec
	predictErrors    *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		requestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "croprec_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "croprec_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		requestsInFlight: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "croprec_http_requests_in_flight",
				Help: "Current number of HTTP requests being processed",
			},
		),
		panicRecoveries: f.NewCounter(
			prometheus.CounterOpts{
				Name: "croprec_panic_recoveries_total",
				Help: "Total number of panics recovered in HTTP handlers",
			},
		),
		predictions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "croprec_predictions_total",
				Help: "Successful predictions by recommended crop",
			},
			[]string{"crop"},
		),
		predictErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "croprec_prediction_errors_total",
				Help: "Rejected prediction requests by error kind",
			},
			[]string{"kind"},
		),
	}
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// middleware records rate, errors and duration per route template.
func (m *Metrics) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		m.requestsInFlight.Inc()
		defer m.requestsInFlight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.requestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.requestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
