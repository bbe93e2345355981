/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sqlstore

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/suparena/resourcestore/errors"
	"github.com/suparena/resourcestore/rest"
)

// encodeValue converts an item value into something every driver binds: nil, bool, int64,
// float64, string or time.Time. Documents and lists are stored as JSON text.
func encodeValue(v any) (any, error) {
	switch tv := v.(type) {
	case nil, bool, int64, float64, string, time.Time:
		return v, nil
	case int:
		return int64(tv), nil
	case int8:
		return int64(tv), nil
	case int16:
		return int64(tv), nil
	case int32:
		return int64(tv), nil
	case uint:
		return uintValue(uint64(tv))
	case uint8:
		return int64(tv), nil
	case uint16:
		return int64(tv), nil
	case uint32:
		return int64(tv), nil
	case uint64:
		return uintValue(tv)
	case float32:
		return float64(tv), nil
	case json.Number:
		if n, err := tv.Int64(); err == nil {
			return n, nil
		}
		f, err := tv.Float64()
		if err != nil {
			return nil, errors.NewValidationError("value", fmt.Sprintf("invalid number %q", tv))
		}
		return f, nil
	case []byte:
		return string(tv), nil
	}

	b, err := json.Marshal(v)
	if err != nil {
		return nil, errors.NewValidationError("value", fmt.Sprintf("cannot store %T: %v", v, err))
	}
	return string(b), nil
}

func uintValue(u uint64) (any, error) {
	if u > math.MaxInt64 {
		return nil, errors.NewValidationError("value", fmt.Sprintf("%d overflows int64", u))
	}
	return int64(u), nil
}

// decodeValue converts a scanned column back into an item value using the declared type.
func decodeValue(logical string, v any) (any, error) {
	if b, ok := v.([]byte); ok {
		v = string(b)
	}
	if v == nil {
		return nil, nil
	}

	switch logical {
	case TypeInteger:
		switch tv := v.(type) {
		case int64:
			return tv, nil
		case float64:
			if tv == math.Trunc(tv) {
				return int64(tv), nil
			}
			return tv, nil
		case string:
			return strconv.ParseInt(tv, 10, 64)
		}
	case TypeNumber:
		switch tv := v.(type) {
		case int64:
			return float64(tv), nil
		case float64:
			return tv, nil
		case string:
			return strconv.ParseFloat(tv, 64)
		}
	case TypeBoolean:
		switch tv := v.(type) {
		case bool:
			return tv, nil
		case int64:
			return tv != 0, nil
		case string:
			return strconv.ParseBool(tv)
		}
	case TypeJSON:
		if s, ok := v.(string); ok {
			var out any
			if err := json.Unmarshal([]byte(s), &out); err != nil {
				return nil, fmt.Errorf("failed to decode json column: %w", err)
			}
			return out, nil
		}
	case TypeText:
		switch tv := v.(type) {
		case string:
			return tv, nil
		case time.Time:
			return tv.UTC().Format(time.RFC3339Nano), nil
		default:
			return fmt.Sprint(tv), nil
		}
	}
	return v, nil
}

// decodeRow builds an item from scanned columns. NULL columns are left out, as a field
// set to nil is a field that does not exist.
func decodeRow(types map[string]string, columns []string, values []any) (rest.Item, error) {
	item := make(rest.Item, len(columns))
	for i, col := range columns {
		v, err := decodeValue(types[col], values[i])
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", col, err)
		}
		if v != nil {
			item[col] = v
		}
	}
	return item, nil
}
