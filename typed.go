/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package resourcestore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/suparena/resourcestore/datastore"
	"github.com/suparena/resourcestore/errors"
	"github.com/suparena/resourcestore/registry"
	"github.com/suparena/resourcestore/rest"
)

// Typed provides type-safe access to one resource for a struct type T.
// Field names follow the struct's json tags; nested structs are stored as nested objects.
type Typed[T any] struct {
	store   datastore.Store
	idField string
}

// NewTyped wraps the store registered under name for values of type T.
func NewTyped[T any](s *Storage, name string) (*Typed[T], error) {
	store, err := s.Store(name)
	if err != nil {
		return nil, err
	}
	return TypedStore[T](store), nil
}

// TypedStore wraps a single store for values of type T.
func TypedStore[T any](store datastore.Store) *Typed[T] {
	idField := registry.DefaultIDField
	if d, ok := store.(interface{ Definition() registry.Definition }); ok && d.Definition().IDField != "" {
		idField = d.Definition().IDField
	}
	return &Typed[T]{store: store, idField: idField}
}

// ToItem converts v into an item. Nested values are converted too.
func ToItem[T any](v T) (rest.Item, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.NewValidationError("item", fmt.Sprintf("cannot encode %T: %v", v, err))
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var item rest.Item
	if err := dec.Decode(&item); err != nil {
		return nil, errors.NewValidationError("item", fmt.Sprintf("%T does not encode to an object", v))
	}
	for k, e := range item {
		item[k] = plainNumbers(e)
	}
	return item, nil
}

// FromItem decodes item into a new T.
func FromItem[T any](item rest.Item) (T, error) {
	var out T
	if err := decodeInto(item, &out); err != nil {
		return out, err
	}
	return out, nil
}

func decodeInto(item rest.Item, target any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:    "json",
		Result:     target,
		DecodeHook: mapstructure.StringToTimeHookFunc(time.RFC3339Nano),
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(map[string]any(item)); err != nil {
		return errors.NewValidationError("item", fmt.Sprintf("cannot decode into %T: %v", target, err))
	}
	return nil
}

// plainNumbers turns json.Number into int64 when integral and float64 otherwise.
func plainNumbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n
		}
		f, _ := t.Float64()
		return f
	case map[string]any:
		for k, e := range t {
			t[k] = plainNumbers(e)
		}
	case []any:
		for i, e := range t {
			t[i] = plainNumbers(e)
		}
	}
	return v
}

// items converts values, dropping zero identifiers so the backend assigns them.
func (t *Typed[T]) items(values []*T) ([]rest.Item, error) {
	items := make([]rest.Item, len(values))
	for i, v := range values {
		if v == nil {
			return nil, errors.NewValidationError("items", fmt.Sprintf("value %d is nil", i))
		}
		item, err := ToItem(*v)
		if err != nil {
			return nil, err
		}
		switch id := item[t.idField].(type) {
		case int64:
			if id == 0 {
				delete(item, t.idField)
			}
		case string:
			if id == "" {
				delete(item, t.idField)
			}
		}
		items[i] = item
	}
	return items, nil
}

// fillIDs writes the identifiers the backend reported back into values.
func (t *Typed[T]) fillIDs(values []*T, ids []rest.ID) error {
	for i, id := range ids {
		if err := decodeInto(rest.Item{t.idField: id}, values[i]); err != nil {
			return err
		}
	}
	return nil
}

// Replace upserts values and sets their identifiers.
func (t *Typed[T]) Replace(ctx context.Context, values ...*T) error {
	items, err := t.items(values)
	if err != nil {
		return err
	}
	ids, err := t.store.Replace(ctx, items, nil)
	if err != nil {
		return err
	}
	return t.fillIDs(values, ids)
}

// Create inserts values and sets their identifiers.
func (t *Typed[T]) Create(ctx context.Context, values ...*T) error {
	items, err := t.items(values)
	if err != nil {
		return err
	}
	ids, err := t.store.Create(ctx, items, nil)
	if err != nil {
		return err
	}
	return t.fillIDs(values, ids)
}

// Retrieve reads one resource.
func (t *Typed[T]) Retrieve(ctx context.Context, id rest.ID) (T, error) {
	item, err := t.store.Retrieve(ctx, id, nil, nil)
	if err != nil {
		var zero T
		return zero, err
	}
	return FromItem[T](item)
}

// Update applies patches in order and returns the updated value.
func (t *Typed[T]) Update(ctx context.Context, id rest.ID, patches ...rest.Item) (T, error) {
	item, err := t.store.Update(ctx, id, patches, nil)
	if err != nil {
		var zero T
		return zero, err
	}
	return FromItem[T](item)
}

// Delete removes the given resources and returns the identifiers actually deleted.
func (t *Typed[T]) Delete(ctx context.Context, ids ...rest.ID) ([]rest.ID, error) {
	if len(ids) == 0 {
		return nil, errors.NewValidationError("ids", "no identifiers given")
	}
	return t.store.Delete(ctx, ids, nil, nil)
}

// Fetch lists the resources matching criteria, ordered by identifier.
func (t *Typed[T]) Fetch(ctx context.Context, criteria ...rest.Criterion) ([]T, error) {
	res, err := t.store.Fetch(ctx, criteria, nil, nil)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(res.Items))
	for _, item := range res.Items {
		v, err := FromItem[T](item)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
