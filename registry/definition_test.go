/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"testing"

	"github.com/go-openapi/strfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/resourcestore/errors"
	"github.com/suparena/resourcestore/rest"
)

func todoDefinition(t *testing.T) Definition {
	t.Helper()
	def, err := Definition{
		Name:       "todos",
		Fields:     []string{"text", "done"},
		SoftDelete: "deleted_at",
	}.Normalize()
	require.NoError(t, err)
	return def
}

func TestNormalizeDefaults(t *testing.T) {
	def := todoDefinition(t)

	assert.Equal(t, "todos", def.Table)
	assert.Equal(t, "id", def.IDField)
	assert.Equal(t, StrategySequence, def.IDStrategy)
	assert.Equal(t, []string{"id", "text", "done", "deleted_at"}, def.Fields)
	assert.Equal(t, map[string]string{"PK": "TODOS#{id}", "SK": "TODOS"}, def.IndexMap)
}

func TestNormalizeRejects(t *testing.T) {
	_, err := Definition{}.Normalize()
	assert.True(t, errors.IsValidationError(err))

	_, err = Definition{Name: "x", IDStrategy: "dice"}.Normalize()
	assert.True(t, errors.IsValidationError(err))

	_, err = Definition{Name: "x", IndexMap: map[string]string{"PK": "X#{id}"}}.Normalize()
	assert.True(t, errors.IsValidationError(err))
}

func TestRegisterAndLookup(t *testing.T) {
	def, err := Register(Definition{Name: "registry-test"})
	require.NoError(t, err)
	t.Cleanup(func() { Unregister("registry-test") })

	got, ok := Get("registry-test")
	require.True(t, ok)
	assert.Equal(t, def, got)
	assert.Contains(t, Names(), "registry-test")

	_, err = Lookup("nope")
	assert.ErrorIs(t, err, errors.ErrNoDefinition)
}

func TestPrepareBatch(t *testing.T) {
	def := todoDefinition(t)

	entries, err := def.PrepareBatch([]rest.Item{
		{"id": 10, "text": "I really have to iron"},
		{"text": "Do laundry"},
	}, true)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, rest.ID(int64(10)), entries[0].ID)
	assert.True(t, entries[0].Explicit)
	assert.Equal(t, int64(10), entries[0].Item["id"])

	assert.False(t, entries[1].HasID(), "sequence identifiers are assigned by the backend")
	assert.NotContains(t, entries[1].Item, "id")
}

func TestBatchSequenceAndWriteOrder(t *testing.T) {
	def := todoDefinition(t)

	entries, err := def.PrepareBatch([]rest.Item{
		{"text": "new"},
		{"id": 7, "text": "seven"},
		{"text": "newer"},
		{"id": 3, "text": "three"},
	}, true)
	require.NoError(t, err)

	assert.Equal(t, int64(7), def.MaxSequenceID(entries))
	assert.Equal(t, []int{1, 3, 0, 2}, WriteOrder(entries))

	natural := def
	natural.IDStrategy = StrategyNatural
	assert.Zero(t, natural.MaxSequenceID(entries))
}

func TestPrepareBatchErrors(t *testing.T) {
	def := todoDefinition(t)

	tests := []struct {
		name  string
		items []rest.Item
		check func(error) bool
	}{
		{"empty", nil, errors.IsValidationError},
		{"nil item", []rest.Item{nil}, errors.IsValidationError},
		{"unknown field", []rest.Item{{"colour": "red"}}, errors.IsUnknownField},
		{"malformed id", []rest.Item{{"id": 1.5}}, errors.IsValidationError},
		{"non-positive sequence id", []rest.Item{{"id": 0}}, errors.IsValidationError},
		{"string sequence id", []rest.Item{{"id": "ten"}}, errors.IsValidationError},
		{"duplicate id", []rest.Item{{"id": 3}, {"id": int32(3)}}, errors.IsConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := def.PrepareBatch(tt.items, true)
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error %v", err)
		})
	}
}

func TestPrepareBatchStrategies(t *testing.T) {
	uuidDef, err := Definition{Name: "tokens", IDStrategy: StrategyUUID}.Normalize()
	require.NoError(t, err)

	entries, err := uuidDef.PrepareBatch([]rest.Item{{"label": "a"}}, true)
	require.NoError(t, err)
	id, ok := entries[0].ID.(string)
	require.True(t, ok)
	assert.True(t, strfmt.IsUUID(id))
	assert.False(t, entries[0].Explicit)

	entries, err = uuidDef.PrepareBatch([]rest.Item{{"label": "a"}}, false)
	require.NoError(t, err)
	assert.False(t, entries[0].HasID())

	_, err = uuidDef.PrepareBatch([]rest.Item{{"id": "not-a-uuid"}}, true)
	assert.True(t, errors.IsValidationError(err))

	ulidDef, err := Definition{Name: "events", IDStrategy: StrategyULID}.Normalize()
	require.NoError(t, err)
	entries, err = ulidDef.PrepareBatch([]rest.Item{{}}, true)
	require.NoError(t, err)
	assert.Len(t, entries[0].ID, 26)

	naturalDef, err := Definition{Name: "codes", IDStrategy: StrategyNatural}.Normalize()
	require.NoError(t, err)
	_, err = naturalDef.PrepareBatch([]rest.Item{{"label": "a"}}, true)
	assert.True(t, errors.IsValidationError(err))
	entries, err = naturalDef.PrepareBatch([]rest.Item{{"id": "EUR"}}, true)
	require.NoError(t, err)
	assert.Equal(t, rest.ID("EUR"), entries[0].ID)
}

func TestPreparePatches(t *testing.T) {
	def := todoDefinition(t)
	id := rest.ID(int64(7))

	patches, err := def.PreparePatches(id, []rest.Item{{"id": 7, "text": "a"}, {"done": true}})
	require.NoError(t, err)
	assert.Equal(t, []rest.Item{{"text": "a"}, {"done": true}}, patches)

	_, err = def.PreparePatches(id, nil)
	assert.True(t, errors.IsValidationError(err))

	_, err = def.PreparePatches(id, []rest.Item{{}})
	assert.True(t, errors.IsValidationError(err))

	_, err = def.PreparePatches(id, []rest.Item{{"id": 8}})
	assert.True(t, errors.IsConflict(err))

	_, err = def.PreparePatches(id, []rest.Item{{"id": nil}})
	assert.True(t, errors.IsConflict(err))

	_, err = def.PreparePatches(id, []rest.Item{{"colour": "red"}})
	assert.True(t, errors.IsUnknownField(err))

	_, err = def.PreparePatches(id, []rest.Item{{"deleted_at": "now"}})
	assert.True(t, errors.IsValidationError(err))
}

func TestCheckSoftDelete(t *testing.T) {
	def := todoDefinition(t)

	soft, err := def.CheckSoftDelete(rest.Options{rest.OptionSoftDelete: true})
	require.NoError(t, err)
	assert.True(t, soft)

	soft, err = def.CheckSoftDelete(nil)
	require.NoError(t, err)
	assert.False(t, soft)

	plain, err := Definition{Name: "plain"}.Normalize()
	require.NoError(t, err)
	_, err = plain.CheckSoftDelete(rest.Options{rest.OptionSoftDelete: true})
	assert.True(t, errors.IsValidationError(err))
}

func TestSchemalessAcceptsAnyField(t *testing.T) {
	def, err := Definition{Name: "notes"}.Normalize()
	require.NoError(t, err)

	assert.True(t, def.Schemaless())
	assert.NoError(t, def.CheckItem(rest.Item{"anything": 1}))
	assert.NoError(t, def.CheckFields([]string{"whatever"}))
	assert.Error(t, def.CheckFields([]string{""}))
}
