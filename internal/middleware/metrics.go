package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/substitution-api/internal/service"
)

// Metrics records per-request duration and count. Route templates are used
// as the path label so parameterised routes stay low-cardinality; the
// metrics endpoint itself is not observed.
func Metrics(metrics *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metrics == nil || c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		metrics.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
