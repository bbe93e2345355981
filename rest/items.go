/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package rest

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/suparena/resourcestore/errors"
)

// NormalizeID converts an identifier into its canonical form.
//
// Any Go integer, an integral float or an integral json.Number becomes int64; a non-empty
// string is kept as is. Anything else, including nil, is an errors.ErrInvalidInput.
func NormalizeID(v any) (ID, error) {
	switch id := v.(type) {
	case nil:
		return nil, errors.NewValidationError("id", "identifier is empty")
	case int:
		return int64(id), nil
	case int8:
		return int64(id), nil
	case int16:
		return int64(id), nil
	case int32:
		return int64(id), nil
	case int64:
		return id, nil
	case uint:
		return uintID(uint64(id))
	case uint8:
		return int64(id), nil
	case uint16:
		return int64(id), nil
	case uint32:
		return int64(id), nil
	case uint64:
		return uintID(id)
	case float32:
		return floatID(float64(id))
	case float64:
		return floatID(id)
	case json.Number:
		if i, err := id.Int64(); err == nil {
			return i, nil
		}
		f, err := id.Float64()
		if err != nil {
			return nil, errors.NewValidationError("id", fmt.Sprintf("malformed number %q", id.String()))
		}
		return floatID(f)
	case string:
		if id == "" {
			return nil, errors.NewValidationError("id", "identifier is empty")
		}
		return id, nil
	default:
		return nil, errors.NewValidationError("id", fmt.Sprintf("unsupported identifier type %T", v))
	}
}

func uintID(v uint64) (ID, error) {
	if v > math.MaxInt64 {
		return nil, errors.NewValidationError("id", "identifier overflows int64")
	}
	return int64(v), nil
}

func floatID(f float64) (ID, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return nil, errors.NewValidationError("id", fmt.Sprintf("identifier %v is not an integer", f))
	}
	if f > math.MaxInt64 || f < math.MinInt64 {
		return nil, errors.NewValidationError("id", "identifier overflows int64")
	}
	return int64(f), nil
}

// IDOf returns the normalized identifier stored under field.
// ok is false when the field is absent or nil.
func IDOf(item Item, field string) (id ID, ok bool, err error) {
	raw, present := item[field]
	if !present || raw == nil {
		return nil, false, nil
	}
	id, err = NormalizeID(raw)
	if err != nil {
		return nil, false, err
	}
	return id, true, nil
}

// Clone returns a deep copy of item. Nested maps and slices of the shapes decoded JSON
// produces are copied too, so the copy shares no mutable state with item. A nil item clones
// to an empty one.
func Clone(item Item) Item {
	out := make(Item, len(item))
	for k, v := range item {
		out[k] = CopyValue(v)
	}
	return out
}

// CopyValue returns a deep copy of v when it is a map or slice, and v itself otherwise.
func CopyValue(v any) any {
	switch t := v.(type) {
	case Item:
		return Clone(t)
	case map[string]any:
		return map[string]any(Clone(Item(t)))
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = CopyValue(e)
		}
		return out
	case []Item:
		out := make([]Item, len(t))
		for i, e := range t {
			out[i] = Clone(e)
		}
		return out
	case []map[string]any:
		out := make([]map[string]any, len(t))
		for i, e := range t {
			out[i] = map[string]any(Clone(Item(e)))
		}
		return out
	case map[string]string:
		out := make(map[string]string, len(t))
		for k, e := range t {
			out[k] = e
		}
		return out
	case []string:
		return append([]string(nil), t...)
	case []int:
		return append([]int(nil), t...)
	case []int64:
		return append([]int64(nil), t...)
	case []float64:
		return append([]float64(nil), t...)
	case []bool:
		return append([]bool(nil), t...)
	case []byte:
		return append([]byte(nil), t...)
	}
	return v
}

// Project returns a copy of item restricted to fields. An empty selector keeps every field;
// selected fields missing from item are left out.
func Project(item Item, fields []string) Item {
	if len(fields) == 0 {
		return Clone(item)
	}
	out := make(Item, len(fields))
	for _, f := range fields {
		if v, ok := item[f]; ok {
			out[f] = CopyValue(v)
		}
	}
	return out
}

// ApplyPatch returns a copy of item with patch merged in. A nil value removes the field.
func ApplyPatch(item Item, patch Item) Item {
	out := Clone(item)
	for k, v := range patch {
		if v == nil {
			delete(out, k)
			continue
		}
		out[k] = CopyValue(v)
	}
	return out
}

// AsItems accepts a single item or a sequence of items in any of the shapes decoded JSON
// produces and returns them as a slice.
func AsItems(v any) ([]Item, error) {
	switch items := v.(type) {
	case Item:
		return []Item{items}, nil
	case map[string]any:
		return []Item{Item(items)}, nil
	case []Item:
		return items, nil
	case []map[string]any:
		out := make([]Item, len(items))
		for i, m := range items {
			out[i] = Item(m)
		}
		return out, nil
	case []any:
		out := make([]Item, 0, len(items))
		for i, raw := range items {
			switch m := raw.(type) {
			case map[string]any:
				out = append(out, Item(m))
			case Item:
				out = append(out, m)
			default:
				return nil, errors.NewValidationError("items", fmt.Sprintf("element %d is %T, not an object", i, raw))
			}
		}
		return out, nil
	default:
		return nil, errors.NewValidationError("items", fmt.Sprintf("expected an object or a list of objects, got %T", v))
	}
}
