/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package rest_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/resourcestore/errors"
	"github.com/suparena/resourcestore/rest"
)

func TestNormalizeID(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		want    rest.ID
		wantErr bool
	}{
		{name: "int", in: 10, want: int64(10)},
		{name: "int32", in: int32(7), want: int64(7)},
		{name: "uint64", in: uint64(3), want: int64(3)},
		{name: "integral float", in: 10.0, want: int64(10)},
		{name: "json number", in: json.Number("42"), want: int64(42)},
		{name: "string", in: "abc", want: "abc"},
		{name: "fractional float", in: 1.5, wantErr: true},
		{name: "empty string", in: "", wantErr: true},
		{name: "nil", in: nil, wantErr: true},
		{name: "bool", in: true, wantErr: true},
		{name: "overflow", in: uint64(1 << 63), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := rest.NormalizeID(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsValidationError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIDOf(t *testing.T) {
	id, ok, err := rest.IDOf(rest.Item{"id": 10.0}, "id")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, rest.ID(int64(10)), id)

	_, ok, err = rest.IDOf(rest.Item{"id": nil}, "id")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = rest.IDOf(rest.Item{"text": "x"}, "id")
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = rest.IDOf(rest.Item{"id": []int{1}}, "id")
	assert.True(t, errors.IsValidationError(err))
}

func TestProject(t *testing.T) {
	item := rest.Item{"id": int64(1), "text": "iron", "done": false}

	all := rest.Project(item, nil)
	assert.Equal(t, item, all)

	some := rest.Project(item, []string{"id", "missing"})
	assert.Equal(t, rest.Item{"id": int64(1)}, some)

	// the full projection is a superset of any narrower one
	for k, v := range some {
		assert.Equal(t, v, all[k])
	}

	all["text"] = "changed"
	assert.Equal(t, "iron", item["text"], "projection must not alias the source")
}

func TestApplyPatchIsOrdered(t *testing.T) {
	original := rest.Item{"id": int64(1), "text": "a", "note": "keep"}
	p1 := rest.Item{"text": "b", "note": nil}
	p2 := rest.Item{"text": "c", "done": true}

	got := rest.ApplyPatch(rest.ApplyPatch(original, p1), p2)
	assert.Equal(t, rest.Item{"id": int64(1), "text": "c", "done": true}, got)
	assert.Equal(t, "a", original["text"])
}

func TestCloneIsDeep(t *testing.T) {
	item := rest.Item{
		"meta": map[string]any{"colour": "red"},
		"tags": []any{"a", map[string]any{"k": "v"}},
		"refs": []string{"x"},
	}
	clone := rest.Clone(item)
	clone["meta"].(map[string]any)["colour"] = "blue"
	clone["tags"].([]any)[1].(map[string]any)["k"] = "w"
	clone["refs"].([]string)[0] = "y"

	assert.Equal(t, "red", item["meta"].(map[string]any)["colour"])
	assert.Equal(t, "v", item["tags"].([]any)[1].(map[string]any)["k"])
	assert.Equal(t, "x", item["refs"].([]string)[0])

	projected := rest.Project(item, []string{"meta"})
	projected["meta"].(map[string]any)["colour"] = "green"
	assert.Equal(t, "red", item["meta"].(map[string]any)["colour"])

	patch := rest.Item{"meta": map[string]any{"colour": "white"}}
	patched := rest.ApplyPatch(item, patch)
	patch["meta"].(map[string]any)["colour"] = "black"
	assert.Equal(t, "white", patched["meta"].(map[string]any)["colour"])
}

func TestAsItems(t *testing.T) {
	single, err := rest.AsItems(map[string]any{"text": "x"})
	require.NoError(t, err)
	assert.Len(t, single, 1)

	var decoded any
	require.NoError(t, json.Unmarshal([]byte(`[{"id":10,"text":"iron"},{"text":"laundry"}]`), &decoded))
	many, err := rest.AsItems(decoded)
	require.NoError(t, err)
	require.Len(t, many, 2)
	assert.Equal(t, "laundry", many[1]["text"])

	_, err = rest.AsItems([]any{map[string]any{}, 3})
	assert.True(t, errors.IsValidationError(err))

	_, err = rest.AsItems("nope")
	assert.True(t, errors.IsValidationError(err))
}

func TestOptionsBool(t *testing.T) {
	var nilOpts rest.Options
	assert.False(t, nilOpts.Bool(rest.OptionCount))

	opts := rest.Options{rest.OptionCount: true, "a": "true", "b": 0, "c": "nope"}
	assert.True(t, opts.Bool(rest.OptionCount))
	assert.True(t, opts.Bool("a"))
	assert.False(t, opts.Bool("b"))
	assert.False(t, opts.Bool("c"))
}

func TestSortIDs(t *testing.T) {
	ids := []rest.ID{"b", int64(10), "a", int64(2)}
	rest.SortIDs(ids)
	assert.Equal(t, []rest.ID{int64(2), int64(10), "a", "b"}, ids)

	items := []rest.Item{{"id": "x"}, {"id": int64(3)}, {"id": int64(1)}}
	rest.SortItems(items, "id")
	assert.Equal(t, []rest.Item{{"id": int64(1)}, {"id": int64(3)}, {"id": "x"}}, items)
}
