/*
Package middleware decorates datastore.Store implementations with cross-cutting behaviour.

Every decorator is an Interceptor run around each of the six operations. Logging uses log/slog,
metrics and tracing use OpenTelemetry:

	metrics, err := middleware.NewMetrics(otel.GetMeterProvider())
	store = middleware.Chain(store,
		middleware.NewTracing(otel.GetTracerProvider()),
		metrics,
		middleware.NewLogging(slog.Default()),
	)

The first middleware of a chain is the outermost one.
*/
package middleware
