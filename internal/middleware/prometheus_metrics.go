package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/primoscope/echotune/internal/metrics"
)

// MetricsMiddleware collects HTTP metrics for Prometheus
func MetricsMiddleware() gin.HandlerFunc {
	m := metrics.Get()

	return func(c *gin.Context) {
		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		startTime := time.Now()

		c.Next()

		duration := time.Since(startTime).Seconds()
		// Use numeric status code as string (e.g., "200", "500") for Prometheus label
		// This allows Grafana queries like status=~"5.." to match 5xx errors
		statusStr := strconv.Itoa(c.Writer.Status())

		m.HTTPRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
		m.HTTPRequestDuration.WithLabelValues(method, path, statusStr).Observe(duration)
	}
}
