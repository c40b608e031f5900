package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	// 引擎侧指标
	ActivityEventCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engagement_activity_events_total",
			Help: "Activity events processed, by activity type",
		},
		[]string{"activity_type"},
	)

	SessionFinalizeCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engagement_sessions_finalized_total",
			Help: "Study sessions finalized, by trigger (completed, timeout, manual)",
		},
		[]string{"trigger"},
	)

	AlertCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engagement_alerts_total",
			Help: "Engagement alerts emitted, by kind",
		},
		[]string{"kind"},
	)
)

func Init() {
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(ActivityEventCounter)
	prometheus.MustRegister(SessionFinalizeCounter)
	prometheus.MustRegister(AlertCounter)
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
