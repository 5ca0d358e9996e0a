// Package telemetry wires OpenTelemetry traces, metrics and logs, Pyroscope
// profiling and the GORM instrumentation used by the invoicing service.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
)

// ServiceVersion is reported as service.version on every exported signal.
// It is overridden at build time with -ldflags "-X ...telemetry.ServiceVersion=...".
var ServiceVersion = "dev"

const shutdownTimeout = 10 * time.Second

// serviceResource describes this process to the collector
func serviceResource(serviceName string) (*resource.Resource, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return res, nil
}

// withShutdownTimeout bounds provider shutdown so a dead collector cannot hang exit
func withShutdownTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, shutdownTimeout)
}
