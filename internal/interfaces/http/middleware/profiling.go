package middleware

import (
	"context"

	"github.com/coretrack/backend/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
)

// Profiling labels CPU samples taken while serving a request with the route,
// method and tenant so profiles can be sliced per endpoint. It must run after
// Auth to see the tenant.
func Profiling(enabled bool) gin.HandlerFunc {
	if !enabled {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			c.Next()
			return
		}
		tenantID := ""
		if actor, ok := GetActor(c); ok {
			tenantID = actor.TenantID.String()
		}
		labels := telemetry.RequestLabels(route, c.Request.Method, tenantID)
		telemetry.WithProfilingLabels(c.Request.Context(), labels, func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}
