package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

// RequestObserver records the duration of a handled request
type RequestObserver interface {
	ObserveHTTP(method, route string, status int, d time.Duration)
}

// Metrics observes every request under its route template. Unmatched routes are
// reported as "unmatched" to keep label cardinality bounded.
func Metrics(observer RequestObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		observer.ObserveHTTP(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
