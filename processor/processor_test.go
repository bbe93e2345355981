/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package processor_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/resourcestore/errors"
	"github.com/suparena/resourcestore/processor"
	"github.com/suparena/resourcestore/registry"
)

const resourcesYAML = `
resources:
  - name: todos
    idStrategy: sequence
    fields: [text, done]
    types: {done: boolean}
    softDelete: deleted_at
    x-dynamodb-indexmap:
      PK: "TODO#{id}"
      SK: "TODO"
  - name: notes
`

func TestParseResourcesList(t *testing.T) {
	defs, err := processor.Parse([]byte(resourcesYAML))
	require.NoError(t, err)
	require.Len(t, defs, 2)

	todos := defs[0]
	assert.Equal(t, "todos", todos.Name)
	assert.Equal(t, "todos", todos.Table)
	assert.Equal(t, []string{"id", "text", "done", "deleted_at"}, todos.Fields)
	assert.Equal(t, "boolean", todos.Types["done"])
	assert.Equal(t, "TODO#{id}", todos.IndexMap["PK"])

	notes := defs[1]
	assert.True(t, notes.Schemaless())
	assert.Equal(t, registry.StrategySequence, notes.IDStrategy)
	assert.Equal(t, "NOTES#{id}", notes.IndexMap["PK"])
}

const openAPIYAML = `
openapi: 3.0.0
components:
  schemas:
    UserProfile:
      type: object
      x-resourcestore-id-strategy: uuid
      x-dynamodb-indexmap:
        PK: "USER#{id}"
        SK: "PROFILE"
        GSI1PK: "EMAIL#{email}"
        GSI1SK: "USER"
      properties:
        id:
          type: string
        email:
          type: string
        age:
          type: integer
        tags:
          type: array
    Error:
      type: object
      properties:
        message:
          type: string
`

func TestParseOpenAPISchemas(t *testing.T) {
	defs, err := processor.Parse([]byte(openAPIYAML))
	require.NoError(t, err)
	require.Len(t, defs, 1, "schemas without an index map are not resources")

	profile := defs[0]
	assert.Equal(t, "UserProfile", profile.Name)
	assert.Equal(t, registry.StrategyUUID, profile.IDStrategy)
	assert.Equal(t, []string{"id", "age", "email", "tags"}, profile.Fields)
	assert.Equal(t, map[string]string{"id": "text", "email": "text", "age": "integer", "tags": "json"}, profile.Types)
	assert.Equal(t, "EMAIL#{email}", profile.IndexMap["GSI1PK"])
}

func TestParseErrors(t *testing.T) {
	_, err := processor.Parse([]byte("resources: [ {name: a}, {name: a} ]"))
	assert.True(t, errors.IsValidationError(err))

	_, err = processor.Parse([]byte("resources: [ {fields: [x]} ]"))
	assert.True(t, errors.IsValidationError(err))

	_, err = processor.Parse([]byte("resources: [ {name: a, idStrategy: dice} ]"))
	assert.True(t, errors.IsValidationError(err))

	_, err = processor.Parse([]byte("resources: {"))
	assert.Error(t, err)

	defs, err := processor.Parse(nil)
	require.NoError(t, err)
	assert.Empty(t, defs)
}

func TestLoadFileAndRegisterAll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resources.yaml")
	require.NoError(t, os.WriteFile(path, []byte(resourcesYAML), 0o600))

	defs, err := processor.LoadFile(path)
	require.NoError(t, err)
	require.NoError(t, processor.RegisterAll(defs))
	t.Cleanup(func() {
		registry.Unregister("todos")
		registry.Unregister("notes")
	})

	todos, err := registry.Lookup("todos")
	require.NoError(t, err)
	assert.Equal(t, "deleted_at", todos.SoftDelete)

	_, err = processor.LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
