package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/textsimplify/api/internal/logging"
	"github.com/textsimplify/api/internal/metrics"
)

// RequestLogger middleware logs request details and records metrics
func RequestLogger(log *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		log.LogHTTPRequest(c.Request.Method, path, c.ClientIP(), status, latency)

		metrics.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method, path, strconv.Itoa(status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(
			c.Request.Method, path).Observe(latency.Seconds())
	}
}
