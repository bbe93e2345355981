/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package middleware

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// NewTracing starts one client span per operation and records its error.
// A nil provider yields a middleware that does nothing.
func NewTracing(tp trace.TracerProvider) Middleware {
	if tp == nil {
		return noopMiddleware{}
	}
	tracer := tp.Tracer(instrumentationName, trace.WithInstrumentationVersion(instrumentationVersion))

	return Intercept(func(ctx context.Context, call Call, next func(ctx context.Context) error) error {
		ctx, span := tracer.Start(ctx, fmt.Sprintf("%s %s", call.Resource, call.Operation),
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				attribute.String("resource", call.Resource),
				attribute.String("operation", string(call.Operation)),
				attribute.String("db.system", call.Backend),
			),
		)
		defer span.End()

		err := next(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return err
	})
}
