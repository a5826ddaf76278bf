package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/unitrack/attendance-api/internal/service"
)

// Metrics records per-request duration and status. Unmatched routes collapse
// into one label value to keep the series cardinality bounded, and the
// metrics endpoint itself is not observed.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil || c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
