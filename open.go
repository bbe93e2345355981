/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package resourcestore

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/suparena/resourcestore/config"
	"github.com/suparena/resourcestore/datastore"
	"github.com/suparena/resourcestore/datastore/ddb"
	"github.com/suparena/resourcestore/datastore/memory"
	"github.com/suparena/resourcestore/datastore/middleware"
	"github.com/suparena/resourcestore/datastore/sqlstore"
	"github.com/suparena/resourcestore/errors"
	"github.com/suparena/resourcestore/registry"
)

type options struct {
	logger         *slog.Logger
	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
	ddbClient      ddb.API
	middlewares    []middleware.Middleware
}

// Option customizes Open.
type Option func(*options)

// WithLogger sets the logger of the logging middleware. Without it slog.Default is used.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMeterProvider sets the provider used when metrics are enabled, instead of the global one.
func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(o *options) {
		o.meterProvider = provider
	}
}

// WithTracerProvider sets the provider used when tracing is enabled, instead of the global one.
func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(o *options) {
		o.tracerProvider = provider
	}
}

// WithDynamoDBClient uses client instead of building one from the configuration.
func WithDynamoDBClient(client ddb.API) Option {
	return func(o *options) {
		o.ddbClient = client
	}
}

// WithMiddleware adds middleware inside the built-in logging, metrics and tracing ones.
func WithMiddleware(mw ...middleware.Middleware) Option {
	return func(o *options) {
		o.middlewares = append(o.middlewares, mw...)
	}
}

// Open builds a store, and a querier where the backend has one, for every definition on the
// backend selected by cfg. Stores are wrapped in tracing, metrics and logging middleware.
func Open(ctx context.Context, cfg config.Config, defs []registry.Definition, opts ...Option) (*Storage, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	chain, err := o.chain(cfg)
	if err != nil {
		return nil, err
	}
	b, err := newBackend(ctx, cfg, o)
	if err != nil {
		return nil, err
	}

	s := NewStorage()
	s.backend = cfg.Backend
	if b.closer != nil {
		s.closers = append(s.closers, b.closer)
	}

	for _, def := range defs {
		store, querier, err := b.build(ctx, def)
		if err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("failed to open %s on %s: %w", def.Name, cfg.Backend, err)
		}
		if err := s.Register(def.Name, middleware.Chain(store, chain...), querier); err != nil {
			_ = s.Close()
			return nil, err
		}
	}

	o.logger.DebugContext(ctx, "storage opened",
		slog.String("backend", cfg.Backend),
		slog.Int("resources", len(defs)))
	return s, nil
}

// chain lists the middleware wrapped around every store, outermost first.
func (o options) chain(cfg config.Config) ([]middleware.Middleware, error) {
	var chain []middleware.Middleware
	if cfg.Tracing {
		tp := o.tracerProvider
		if tp == nil {
			tp = otel.GetTracerProvider()
		}
		chain = append(chain, middleware.NewTracing(tp))
	}
	if cfg.Metrics {
		mp := o.meterProvider
		if mp == nil {
			mp = otel.GetMeterProvider()
		}
		metrics, err := middleware.NewMetrics(mp)
		if err != nil {
			return nil, err
		}
		chain = append(chain, metrics)
	}
	chain = append(chain, middleware.NewLogging(o.logger))
	return append(chain, o.middlewares...), nil
}

// backend builds the stores of one configured backend.
type backend struct {
	build  func(ctx context.Context, def registry.Definition) (datastore.Store, datastore.Querier, error)
	closer interface{ Close() error }
}

func newBackend(ctx context.Context, cfg config.Config, o options) (backend, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return backend{build: func(_ context.Context, def registry.Definition) (datastore.Store, datastore.Querier, error) {
			store, err := memory.New(def)
			return store, nil, err
		}}, nil

	case config.BackendSQLite, config.BackendPostgres, config.BackendMySQL:
		dialect, err := sqlstore.DialectFor(cfg.Backend)
		if err != nil {
			return backend{}, err
		}
		db, err := sqlstore.Open(ctx, dialect, cfg.DSN)
		if err != nil {
			return backend{}, err
		}
		return backend{closer: db, build: func(ctx context.Context, def registry.Definition) (datastore.Store, datastore.Querier, error) {
			store, err := sqlstore.New(db, dialect, def)
			if err != nil {
				return nil, nil, err
			}
			if err := store.EnsureTable(ctx); err != nil {
				return nil, nil, err
			}
			querier, err := sqlstore.NewQuerier(dialect, def)
			if err != nil {
				return nil, nil, err
			}
			return store, querier, nil
		}}, nil

	case config.BackendDynamoDB:
		client := o.ddbClient
		if client == nil {
			c, err := ddb.NewDynamoDBClient(ctx, ddb.ClientConfig{
				Region:    cfg.AWSRegion,
				AccessKey: cfg.AWSAccessKey,
				SecretKey: cfg.AWSSecretKey,
				Endpoint:  cfg.DDBEndpoint,
			})
			if err != nil {
				return backend{}, err
			}
			client = c
		}
		return backend{build: func(_ context.Context, def registry.Definition) (datastore.Store, datastore.Querier, error) {
			store, err := ddb.New(client, cfg.DDBTable, def, cfg.RetryOptions()...)
			if err != nil {
				return nil, nil, err
			}
			querier, err := ddb.NewQuerier(cfg.DDBTable, def)
			if err != nil {
				return nil, nil, err
			}
			return store, querier, nil
		}}, nil
	}
	return backend{}, errors.NewValidationError("RESOURCESTORE_BACKEND", fmt.Sprintf("unknown backend %q", cfg.Backend))
}
