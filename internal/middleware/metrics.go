package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/classconnect-api/internal/service"
)

// UnmatchedRoute is the path label for requests no route handled. Raw URLs
// are never used as labels so probes against random paths cannot grow the
// series count.
const UnmatchedRoute = "unmatched"

// Metrics records method, route pattern, status and latency of every request
// except scrapes of skip paths.
func Metrics(metrics *service.MetricsService, skip ...string) gin.HandlerFunc {
	skipped := make(map[string]bool, len(skip))
	for _, p := range skip {
		skipped[p] = true
	}
	return func(c *gin.Context) {
		if metrics == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if skipped[route] {
			return
		}
		if route == "" {
			route = UnmatchedRoute
		}
		metrics.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
