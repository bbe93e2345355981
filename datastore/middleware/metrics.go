/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package middleware

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// NewMetrics counts operations and records their duration in milliseconds, both attributed
// by resource, operation, backend and status. A nil provider yields a middleware that does nothing.
func NewMetrics(provider metric.MeterProvider) (Middleware, error) {
	if provider == nil {
		return noopMiddleware{}, nil
	}
	meter := provider.Meter(instrumentationName, metric.WithInstrumentationVersion(instrumentationVersion))

	counter, err := meter.Int64Counter(
		metricKeyPrefix+"operation.count",
		metric.WithDescription("Number of resource operations"),
		metric.WithUnit("{operations}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create operation.count counter: %w", err)
	}
	duration, err := meter.Float64Histogram(
		metricKeyPrefix+"operation.duration",
		metric.WithDescription("Duration of resource operations"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create operation.duration histogram: %w", err)
	}

	return Intercept(func(ctx context.Context, call Call, next func(ctx context.Context) error) error {
		start := time.Now()
		err := next(ctx)
		elapsed := float64(time.Since(start).Microseconds()) / 1000

		status := "success"
		if err != nil {
			status = "error"
		}
		attrs := metric.WithAttributes(
			attribute.String("resource", call.Resource),
			attribute.String("operation", string(call.Operation)),
			attribute.String("backend", call.Backend),
			attribute.String("status", status),
		)
		counter.Add(ctx, 1, attrs)
		duration.Record(ctx, elapsed, attrs)
		return err
	}), nil
}
