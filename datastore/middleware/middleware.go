/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package middleware

import (
	"context"
	"strings"

	"github.com/goccy/go-reflect"

	"github.com/suparena/resourcestore/datastore"
	"github.com/suparena/resourcestore/registry"
	"github.com/suparena/resourcestore/rest"
)

const (
	instrumentationName    = "github.com/suparena/resourcestore/datastore/middleware"
	instrumentationVersion = "0.1.0"
	metricKeyPrefix        = "resourcestore."
)

// Middleware decorates a store.
type Middleware interface {
	Wrap(next datastore.Store) datastore.Store
}

// MiddlewareFunc adapts a plain function to Middleware.
type MiddlewareFunc func(next datastore.Store) datastore.Store

// Wrap implements Middleware.
func (f MiddlewareFunc) Wrap(next datastore.Store) datastore.Store {
	return f(next)
}

// Call describes one store operation as seen by an Interceptor.
type Call struct {
	Resource  string
	Backend   string
	Operation datastore.Operation
}

// Interceptor runs around one operation. It must call next exactly once and return its error,
// unless it decides to fail the call itself.
type Interceptor func(ctx context.Context, call Call, next func(ctx context.Context) error) error

// Intercept turns an Interceptor into a Middleware that sees every operation of the store.
func Intercept(around Interceptor) Middleware {
	return MiddlewareFunc(func(next datastore.Store) datastore.Store {
		resource, backend := describe(next)
		return &intercepted{next: next, resource: resource, backend: backend, around: around}
	})
}

// Chain applies middlewares so that the first one is the outermost.
func Chain(store datastore.Store, middlewares ...Middleware) datastore.Store {
	s := store
	for i := len(middlewares) - 1; i >= 0; i-- {
		s = middlewares[i].Wrap(s)
	}
	return s
}

// noopMiddleware leaves the store untouched.
type noopMiddleware struct{}

func (noopMiddleware) Wrap(next datastore.Store) datastore.Store {
	return next
}

// describe finds the resource and backend names of a store. Backends are named after
// the package implementing them.
func describe(store datastore.Store) (resource, backend string) {
	if d, ok := store.(interface{ Definition() registry.Definition }); ok {
		resource = d.Definition().Name
	}
	if b, ok := store.(interface{ Backend() string }); ok {
		return resource, b.Backend()
	}

	typ := reflect.TypeOf(store)
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	path := typ.PkgPath()
	backend = path[strings.LastIndex(path, "/")+1:]
	if backend == "" {
		backend = "unknown"
	}
	return resource, backend
}

// intercepted routes every operation of next through around.
type intercepted struct {
	next     datastore.Store
	resource string
	backend  string
	around   Interceptor
}

func (s *intercepted) call(op datastore.Operation) Call {
	return Call{Resource: s.resource, Backend: s.backend, Operation: op}
}

// Definition is passed through so outer middleware can name the resource.
func (s *intercepted) Definition() registry.Definition {
	if d, ok := s.next.(interface{ Definition() registry.Definition }); ok {
		return d.Definition()
	}
	return registry.Definition{Name: s.resource}
}

// Backend reports the innermost store's backend.
func (s *intercepted) Backend() string {
	return s.backend
}

func (s *intercepted) Replace(ctx context.Context, items []rest.Item, opts rest.Options) (ids []rest.ID, err error) {
	err = s.around(ctx, s.call(datastore.OpReplace), func(ctx context.Context) error {
		ids, err = s.next.Replace(ctx, items, opts)
		return err
	})
	return ids, err
}

func (s *intercepted) Retrieve(ctx context.Context, id rest.ID, fields []string, opts rest.Options) (item rest.Item, err error) {
	err = s.around(ctx, s.call(datastore.OpRetrieve), func(ctx context.Context) error {
		item, err = s.next.Retrieve(ctx, id, fields, opts)
		return err
	})
	return item, err
}

func (s *intercepted) Update(ctx context.Context, id rest.ID, patches []rest.Item, opts rest.Options) (item rest.Item, err error) {
	err = s.around(ctx, s.call(datastore.OpUpdate), func(ctx context.Context) error {
		item, err = s.next.Update(ctx, id, patches, opts)
		return err
	})
	return item, err
}

func (s *intercepted) Create(ctx context.Context, items []rest.Item, opts rest.Options) (ids []rest.ID, err error) {
	err = s.around(ctx, s.call(datastore.OpCreate), func(ctx context.Context) error {
		ids, err = s.next.Create(ctx, items, opts)
		return err
	})
	return ids, err
}

func (s *intercepted) Delete(ctx context.Context, ids []rest.ID, criteria []rest.Criterion, opts rest.Options) (deleted []rest.ID, err error) {
	err = s.around(ctx, s.call(datastore.OpDelete), func(ctx context.Context) error {
		deleted, err = s.next.Delete(ctx, ids, criteria, opts)
		return err
	})
	return deleted, err
}

func (s *intercepted) Fetch(ctx context.Context, criteria []rest.Criterion, fields []string, opts rest.Options) (res rest.FetchResult, err error) {
	err = s.around(ctx, s.call(datastore.OpFetch), func(ctx context.Context) error {
		res, err = s.next.Fetch(ctx, criteria, fields, opts)
		return err
	})
	return res, err
}
