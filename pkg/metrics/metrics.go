package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the service
type Metrics struct {
	RequestCounter   *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight *prometheus.GaugeVec
	DBConnPoolStats  *prometheus.GaugeVec
}

// NewMetrics creates a new metrics instance
func NewMetrics(serviceName string) *Metrics {
	return &Metrics{
		RequestCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "algobank",
				Subsystem: serviceName,
				Name:      "requests_total",
				Help:      "Total number of requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "algobank",
				Subsystem: serviceName,
				Name:      "request_duration_seconds",
				Help:      "Request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		RequestsInFlight: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "algobank",
				Subsystem: serviceName,
				Name:      "requests_in_flight",
				Help:      "Number of requests currently being processed",
			},
			[]string{"method"},
		),
		DBConnPoolStats: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "algobank",
				Subsystem: serviceName,
				Name:      "db_connection_pool",
				Help:      "Database connection pool statistics",
			},
			[]string{"stat"}, // stat can be: open, in_use, idle, wait_count, etc.
		),
	}
}

// Middleware returns a Gin middleware that records request metrics
func Middleware(m *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		method := c.Request.Method

		// Track requests in flight
		m.RequestsInFlight.WithLabelValues(method).Inc()
		defer m.RequestsInFlight.WithLabelValues(method).Dec()

		start := time.Now()
		c.Next()

		// Use the route template so path cardinality stays bounded
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		m.RequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
		m.RequestCounter.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

// RecordDBPoolStats records database connection pool statistics
func (m *Metrics) RecordDBPoolStats(open, inUse, idle int, waitCount int64, waitDuration time.Duration) {
	m.DBConnPoolStats.WithLabelValues("open").Set(float64(open))
	m.DBConnPoolStats.WithLabelValues("in_use").Set(float64(inUse))
	m.DBConnPoolStats.WithLabelValues("idle").Set(float64(idle))
	m.DBConnPoolStats.WithLabelValues("wait_count").Set(float64(waitCount))
	m.DBConnPoolStats.WithLabelValues("wait_duration_ms").Set(float64(waitDuration.Milliseconds()))
}
