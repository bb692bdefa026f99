package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"chovha/internal/metrics"
)

// Metrics records request counts, error counts and latency per route.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		status := strconv.Itoa(c.Writer.Status())

		m.HTTPRequests.WithLabelValues(method, route, status).Inc()
		m.HTTPDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
		if c.Writer.Status() >= 400 {
			m.HTTPErrors.WithLabelValues(method, route, status).Inc()
		}
	}
}
