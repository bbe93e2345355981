/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package middleware

import (
	"context"
	"log/slog"
	"time"
)

// NewLogging logs every operation with its duration, and its error when it fails.
// A nil logger yields a middleware that does nothing.
func NewLogging(logger *slog.Logger) Middleware {
	if logger == nil {
		return noopMiddleware{}
	}
	return Intercept(func(ctx context.Context, call Call, next func(ctx context.Context) error) error {
		start := time.Now()
		err := next(ctx)
		attrs := []any{
			slog.String("resource", call.Resource),
			slog.String("operation", string(call.Operation)),
			slog.String("backend", call.Backend),
			slog.Duration("duration", time.Since(start)),
		}
		if err != nil {
			logger.ErrorContext(ctx, "resource operation failed", append(attrs, slog.Any("error", err))...)
			return err
		}
		logger.DebugContext(ctx, "resource operation", attrs...)
		return nil
	})
}
