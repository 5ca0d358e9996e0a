package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/invoicing/backend/internal/infrastructure/telemetry"
)

// ProfilingConfig holds configuration for the profiling middleware.
type ProfilingConfig struct {
	Enabled          bool
	SkipPaths        []string
	SkipPathPrefixes []string
}

// DefaultProfilingConfig skips health checks and the API docs.
func DefaultProfilingConfig() ProfilingConfig {
	return ProfilingConfig{
		Enabled:          true,
		SkipPaths:        []string{"/health"},
		SkipPathPrefixes: []string{"/swagger"},
	}
}

// Profiling returns profiling middleware with default configuration.
func Profiling() gin.HandlerFunc {
	return ProfilingWithConfig(DefaultProfilingConfig())
}

// ProfilingWithConfig labels the request goroutine for Pyroscope with the
// controller ("invoices", "persons"), the route pattern and the method.
func ProfilingWithConfig(cfg ProfilingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return passThrough
	}

	return func(c *gin.Context) {
		if skipProfiling(cfg, c.Request.URL.Path) {
			c.Next()
			return
		}

		route := c.FullPath()
		labels := telemetry.RequestLabels(extractControllerFromRoute(route), route, c.Request.Method)

		telemetry.WithProfilingLabels(c.Request.Context(), labels, func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}

func skipProfiling(cfg ProfilingConfig, path string) bool {
	for _, p := range cfg.SkipPaths {
		if path == p {
			return true
		}
	}
	for _, prefix := range cfg.SkipPathPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// extractControllerFromRoute returns the first resource segment after the
// api prefix: "/api/v1/invoices/:id/pdf" -> "invoices".
func extractControllerFromRoute(route string) string {
	for _, part := range strings.Split(route, "/") {
		if part == "" || part == "api" || isVersionSegment(part) {
			continue
		}
		if strings.HasPrefix(part, ":") || strings.HasPrefix(part, "*") {
			continue
		}
		return part
	}
	return ""
}

// isVersionSegment reports whether segment looks like v1, v2, ...
func isVersionSegment(segment string) bool {
	if len(segment) < 2 || (segment[0] != 'v' && segment[0] != 'V') {
		return false
	}
	for i := 1; i < len(segment); i++ {
		if segment[i] < '0' || segment[i] > '9' {
			return false
		}
	}
	return true
}
