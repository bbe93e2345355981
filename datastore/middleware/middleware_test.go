/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package middleware_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/suparena/resourcestore/datastore"
	"github.com/suparena/resourcestore/datastore/memory"
	"github.com/suparena/resourcestore/datastore/middleware"
	"github.com/suparena/resourcestore/errors"
	"github.com/suparena/resourcestore/registry"
	"github.com/suparena/resourcestore/rest"
)

func newTodos(t *testing.T) *memory.Store {
	t.Helper()
	store, err := memory.New(registry.Definition{Name: "todos", Fields: []string{"text"}})
	require.NoError(t, err)
	return store
}

func TestChainOrder(t *testing.T) {
	var order []string
	record := func(name string) middleware.Middleware {
		return middleware.Intercept(func(ctx context.Context, call middleware.Call, next func(ctx context.Context) error) error {
			order = append(order, name+" "+string(call.Operation))
			return next(ctx)
		})
	}

	store := middleware.Chain(newTodos(t), record("outer"), record("inner"))
	_, err := store.Replace(context.Background(), []rest.Item{{"text": "iron"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"outer replace", "inner replace"}, order)
}

func TestInterceptSeesEveryOperation(t *testing.T) {
	ctx := context.Background()
	var calls []middleware.Call
	store := middleware.Chain(newTodos(t), middleware.Intercept(func(ctx context.Context, call middleware.Call, next func(ctx context.Context) error) error {
		calls = append(calls, call)
		return next(ctx)
	}))

	ids, err := store.Replace(ctx, []rest.Item{{"id": 10, "text": "iron"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, []rest.ID{int64(10)}, ids)

	item, err := store.Retrieve(ctx, 10, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "iron", item["text"])

	item, err = store.Update(ctx, 10, []rest.Item{{"text": "iron shirts"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, "iron shirts", item["text"])

	_, err = store.Create(ctx, []rest.Item{{"text": "laundry"}}, nil)
	require.NoError(t, err)

	res, err := store.Fetch(ctx, nil, nil, rest.Options{rest.OptionCount: true})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Count)

	deleted, err := store.Delete(ctx, []rest.ID{10}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []rest.ID{int64(10)}, deleted)

	ops := make([]datastore.Operation, len(calls))
	for i, c := range calls {
		ops[i] = c.Operation
		assert.Equal(t, "todos", c.Resource)
		assert.Equal(t, "memory", c.Backend)
	}
	assert.Equal(t, []datastore.Operation{
		datastore.OpReplace, datastore.OpRetrieve, datastore.OpUpdate,
		datastore.OpCreate, datastore.OpFetch, datastore.OpDelete,
	}, ops)
}

func TestNilProvidersAreNoops(t *testing.T) {
	store := newTodos(t)

	metrics, err := middleware.NewMetrics(nil)
	require.NoError(t, err)
	wrapped := middleware.Chain(store, middleware.NewLogging(nil), metrics, middleware.NewTracing(nil))
	assert.Same(t, store, wrapped)
}

func TestLogging(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	store := middleware.Chain(newTodos(t), middleware.NewLogging(logger))

	_, err := store.Replace(ctx, []rest.Item{{"id": 1, "text": "iron"}}, nil)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `msg="resource operation" resource=todos operation=replace backend=memory`)

	buf.Reset()
	_, err = store.Retrieve(ctx, 2, nil, nil)
	assert.True(t, errors.IsNotFound(err))
	assert.Contains(t, buf.String(), "level=ERROR")
	assert.Contains(t, buf.String(), "operation=retrieve")
	assert.Contains(t, buf.String(), "error=")
}

func TestMetrics(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	metrics, err := middleware.NewMetrics(provider)
	require.NoError(t, err)
	store := middleware.Chain(newTodos(t), metrics)

	_, err = store.Replace(ctx, []rest.Item{{"id": 1, "text": "iron"}}, nil)
	require.NoError(t, err)
	_, err = store.Retrieve(ctx, 1, nil, nil)
	require.NoError(t, err)
	_, err = store.Retrieve(ctx, 2, nil, nil)
	require.Error(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	counts := map[string]int64{}
	var histogramPoints uint64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				assert.Equal(t, "resourcestore.operation.count", m.Name)
				for _, dp := range data.DataPoints {
					op, _ := dp.Attributes.Value(attribute.Key("operation"))
					status, _ := dp.Attributes.Value(attribute.Key("status"))
					backend, _ := dp.Attributes.Value(attribute.Key("backend"))
					assert.Equal(t, "memory", backend.AsString())
					counts[op.AsString()+"/"+status.AsString()] += dp.Value
				}
			case metricdata.Histogram[float64]:
				assert.Equal(t, "resourcestore.operation.duration", m.Name)
				for _, dp := range data.DataPoints {
					histogramPoints += dp.Count
				}
			}
		}
	}
	assert.Equal(t, map[string]int64{
		"replace/success":  1,
		"retrieve/success": 1,
		"retrieve/error":   1,
	}, counts)
	assert.Equal(t, uint64(3), histogramPoints)
}

func TestTracing(t *testing.T) {
	ctx := context.Background()
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	store := middleware.Chain(newTodos(t), middleware.NewTracing(provider))

	_, err := store.Replace(ctx, []rest.Item{{"id": 1, "text": "iron"}}, nil)
	require.NoError(t, err)
	_, err = store.Update(ctx, 2, []rest.Item{{"text": "x"}}, nil)
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	assert.Equal(t, "todos replace", spans[0].Name())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.Contains(t, spans[0].Attributes(), attribute.String("db.system", "memory"))

	assert.Equal(t, "todos update", spans[1].Name())
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	require.Len(t, spans[1].Events(), 1)
	assert.Equal(t, "exception", spans[1].Events()[0].Name)
}

func TestErrorsPassThroughUnchanged(t *testing.T) {
	ctx := context.Background()
	injected := errors.NewNotSupportedError("memory", "fetch")
	inner := newTodos(t).WithFetchError(injected)

	metrics, err := middleware.NewMetrics(sdkmetric.NewMeterProvider())
	require.NoError(t, err)
	store := middleware.Chain(inner,
		middleware.NewTracing(sdktrace.NewTracerProvider()),
		metrics,
		middleware.NewLogging(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))),
	)

	_, err = store.Fetch(ctx, nil, nil, nil)
	assert.Same(t, injected, err)
}
