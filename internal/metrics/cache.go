package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// SizeFunc reports the current number of entries held by a cache.
type SizeFunc func() int

// RegisterCacheSize exposes the entry count of named caches as an observable gauge.
// The callbacks are sampled on every collection, so nothing is recorded on the hot path.
func RegisterCacheSize(
	meterProvider metric.MeterProvider,
	namespace string,
	caches map[string]SizeFunc,
) (metric.Registration, error) {
	meter := meterProvider.Meter(namespace)

	gauge, err := meter.Int64ObservableGauge(
		fmt.Sprintf("%s_cache_entries", namespace),
		metric.WithDescription("Number of entries held by in-memory caches"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache entries gauge: %w", err)
	}

	return meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		for name, size := range caches {
			o.ObserveInt64(gauge, int64(size()), metric.WithAttributes(attribute.String("cache", name)))
		}
		return nil
	}, gauge)
}
