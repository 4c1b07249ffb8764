package middleware

import (
	"context"
	"slices"
	"strings"

	"github.com/erp/pos/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
)

// ProfilingConfig holds configuration for the profiling middleware.
type ProfilingConfig struct {
	Enabled bool
	// SkipPaths don't get profiling labels (health checks).
	SkipPaths []string
}

// DefaultProfilingConfig returns default profiling middleware configuration.
func DefaultProfilingConfig() ProfilingConfig {
	return ProfilingConfig{
		Enabled:   true,
		SkipPaths: []string{"/health", "/ready"},
	}
}

// Profiling tags the request goroutine with pyroscope labels:
//   - route: matched route pattern ("/api/v1/sales/:id")
//   - method: HTTP method
//   - operation: resource segment of the route ("sales")
//   - branch_id: branch of the resolved actor, when known
//
// Run it after ResolveActor so the branch label is available.
func Profiling(cfg ProfilingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		if slices.Contains(cfg.SkipPaths, c.Request.URL.Path) {
			c.Next()
			return
		}

		telemetry.WithProfilingLabels(c.Request.Context(), profilingLabels(c), func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}

func profilingLabels(c *gin.Context) map[string]string {
	route := c.FullPath()
	labels := map[string]string{
		telemetry.ProfilingLabelMethod:    c.Request.Method,
		telemetry.ProfilingLabelRoute:     route,
		telemetry.ProfilingLabelOperation: resourceFromRoute(route),
	}
	if actor, ok := GetActor(c); ok && actor.BranchID != nil {
		labels[telemetry.ProfilingLabelBranchID] = actor.BranchID.String()
	}
	return labels
}

// resourceFromRoute returns the first literal segment after the /api/vN prefix.
// "/api/v1/drawers/:id/close" -> "drawers"
func resourceFromRoute(route string) string {
	for _, part := range strings.Split(route, "/") {
		if part == "" || part == "api" || isVersionSegment(part) || strings.HasPrefix(part, ":") {
			continue
		}
		return part
	}
	return ""
}

func isVersionSegment(segment string) bool {
	if len(segment) < 2 || (segment[0] != 'v' && segment[0] != 'V') {
		return false
	}
	for _, r := range segment[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
