package middleware

import (
	"time"

	"github.com/coretrack/backend/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
)

// Metrics records request counts and latency per route pattern. Paths in
// skip are not measured.
func Metrics(m *telemetry.HTTPMetrics, skip ...string) gin.HandlerFunc {
	if m == nil {
		return func(c *gin.Context) { c.Next() }
	}
	skipped := make(map[string]bool, len(skip))
	for _, p := range skip {
		skipped[p] = true
	}
	return func(c *gin.Context) {
		if skipped[c.Request.URL.Path] {
			c.Next()
			return
		}
		start := time.Now()
		m.Begin()
		c.Next()
		m.Observe(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}
