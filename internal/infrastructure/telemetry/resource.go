// Package telemetry exports traces, metrics and logs over OTLP and runs the
// Pyroscope profiler. Every signal is optional and degrades to a no-op.
package telemetry

import (
	"fmt"
	"time"

	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
)

// ServiceVersion is reported on every exported span, metric and log record.
const ServiceVersion = "1.0.0"

// DefaultServiceName is used when no service name is configured.
const DefaultServiceName = "erpsync"

// shutdownTimeout bounds the final flush of each provider
const shutdownTimeout = 10 * time.Second

// newServiceResource describes this process to the collector.
func newServiceResource(serviceName string) (*resource.Resource, error) {
	if serviceName == "" {
		serviceName = DefaultServiceName
	}
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
