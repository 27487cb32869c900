package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/infrastructure/telemetry"
)

// Profiling labels the rest of the request with the tenant and route, so
// CPU spent in a sync triggered over HTTP shows up per tenant in Pyroscope.
// Place it after TenantAuth.
func Profiling(enabled bool) gin.HandlerFunc {
	if !enabled {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		tenantID := c.GetString(TenantIDKey)
		if tenantID == "" {
			c.Next()
			return
		}
		operation := c.Request.Method + " " + c.FullPath()
		telemetry.ProfileTenantRun(c.Request.Context(), tenantID, operation, func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}
