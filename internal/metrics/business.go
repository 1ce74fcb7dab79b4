package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	apperrors "github.com/allisson/kmi/internal/errors"
)

// BusinessMetrics records facility operations.
type BusinessMetrics interface {
	// RecordOperation counts one operation and records its duration. A nil err is
	// status "success"; any other value is status "error" labelled with ErrorKind(err).
	// Domain examples: "facility". Operation examples: "generate", "get_encryption_key", "delete".
	RecordOperation(ctx context.Context, domain, operation string, duration time.Duration, err error)
}

// ErrorKind buckets err by the sentinel it wraps so dashboards can separate unknown
// keys from corrupt KEKs and from an unreachable master.
func ErrorKind(err error) string {
	return apperrors.Kind(err)
}

// businessMetrics implements BusinessMetrics using OpenTelemetry metrics.
type businessMetrics struct {
	operationCounter metric.Int64Counter
	durationHisto    metric.Float64Histogram
}

// NewBusinessMetrics creates the operation counter and duration histogram, both
// prefixed with namespace (e.g. "kmi").
func NewBusinessMetrics(meterProvider metric.MeterProvider, namespace string) (BusinessMetrics, error) {
	meter := meterProvider.Meter(namespace)

	operationCounter, err := meter.Int64Counter(
		fmt.Sprintf("%s_operations_total", namespace),
		metric.WithDescription("Total number of facility operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create operation counter: %w", err)
	}

	durationHisto, err := meter.Float64Histogram(
		fmt.Sprintf("%s_operation_duration_seconds", namespace),
		metric.WithDescription("Duration of facility operations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}

	return &businessMetrics{
		operationCounter: operationCounter,
		durationHisto:    durationHisto,
	}, nil
}

// RecordOperation increments the counter and records the duration in seconds.
// Only the counter carries error_kind, which keeps the histogram's series count fixed.
func (b *businessMetrics) RecordOperation(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	err error,
) {
	status := "success"
	if err != nil {
		status = "error"
	}
	attrs := []attribute.KeyValue{
		attribute.String("domain", domain),
		attribute.String("operation", operation),
		attribute.String("status", status),
	}

	b.durationHisto.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))

	if err != nil {
		attrs = append(attrs, attribute.String("error_kind", ErrorKind(err)))
	}
	b.operationCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// NoOpBusinessMetrics is used when metrics are disabled.
type NoOpBusinessMetrics struct{}

// NewNoOpBusinessMetrics creates a no-op BusinessMetrics implementation.
func NewNoOpBusinessMetrics() BusinessMetrics {
	return &NoOpBusinessMetrics{}
}

// RecordOperation does nothing.
func (n *NoOpBusinessMetrics) RecordOperation(context.Context, string, string, time.Duration, error) {
}
