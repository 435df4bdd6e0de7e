package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ledgerly/backend/internal/infrastructure/telemetry"
)

// Profiling labels CPU samples of each request with "METHOD /route" so that
// Pyroscope can filter profiles per endpoint. Health and swagger requests are
// left unlabelled.
func Profiling(enabled bool) gin.HandlerFunc {
	if !enabled {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" || strings.HasSuffix(route, "/health") || strings.HasPrefix(route, "/swagger") {
			c.Next()
			return
		}
		telemetry.WithProfilingLabels(c.Request.Context(), ProfilingOperation(c.Request.Method, route), func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}

// ProfilingOperation builds the operation label of a route.
// "/api/v1/invoices/:id" with GET becomes "GET invoices/:id".
func ProfilingOperation(method, route string) string {
	route = strings.TrimPrefix(route, "/api/v1/")
	return method + " " + strings.TrimPrefix(route, "/")
}
