package middleware

import (
	"strconv"

	"github.com/countryrates/country-service/pkg/metrics"
	"github.com/gin-gonic/gin"
)

// RequestMetrics counts handled requests by method, route template and status.
// Unmatched paths are grouped under "unmatched" to keep label cardinality bounded.
func RequestMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
