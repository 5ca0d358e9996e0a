package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracingConfig holds configuration for the tracing middleware.
type TracingConfig struct {
	ServiceName string
	Enabled     bool
}

// DefaultTracingConfig returns default tracing configuration.
func DefaultTracingConfig() TracingConfig {
	return TracingConfig{
		ServiceName: "invoicing-backend",
		Enabled:     true,
	}
}

// Tracing returns OpenTelemetry tracing middleware with default configuration.
func Tracing() gin.HandlerFunc {
	return TracingWithConfig(DefaultTracingConfig())
}

// TracingWithConfig wraps otelgin. Spans are named "METHOD route_pattern"
// ("GET /api/v1/invoices/:id"); health checks and the API docs are not traced.
// Place TracingAttributeInjector and SpanErrorMarker after it.
func TracingWithConfig(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return passThrough
	}
	return otelgin.Middleware(cfg.ServiceName, otelgin.WithFilter(traceable))
}

func traceable(r *http.Request) bool {
	path := r.URL.Path
	return path != "/health" && !strings.HasPrefix(path, "/swagger")
}

// TracingAttributeInjector adds the request id to the active span.
func TracingAttributeInjector() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if span.IsRecording() {
			if requestID := GetRequestID(c); requestID != "" {
				span.SetAttributes(attribute.String("request_id", requestID))
			}
		}
		c.Next()
	}
}

// SpanErrorMarker marks the span as failed for 4xx and 5xx responses.
func SpanErrorMarker() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			return
		}

		statusCode := c.Writer.Status()
		if statusCode < http.StatusBadRequest {
			return
		}
		span.SetStatus(codes.Error, spanErrorMessage(statusCode))
		span.SetAttributes(attribute.Int("http.status_code", statusCode))
	}
}

func spanErrorMessage(statusCode int) string {
	switch {
	case statusCode >= http.StatusInternalServerError:
		return "Internal Server Error"
	case statusCode == http.StatusNotFound:
		return "Not Found"
	case statusCode == http.StatusConflict:
		return "Conflict"
	case statusCode == http.StatusTooManyRequests:
		return "Too Many Requests"
	default:
		return "Client Error"
	}
}
