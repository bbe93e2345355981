/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package processor

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/suparena/resourcestore/errors"
	"github.com/suparena/resourcestore/registry"
)

// document is either a plain resources list or an OpenAPI document, or both.
type document struct {
	Resources  []registry.Definition `yaml:"resources"`
	Components struct {
		Schemas map[string]schema `yaml:"schemas"`
	} `yaml:"components"`
}

// schema is the part of an OpenAPI schema object a resource is derived from.
type schema struct {
	IndexMap   map[string]string   `yaml:"x-dynamodb-indexmap"`
	Table      string              `yaml:"x-resourcestore-table"`
	IDField    string              `yaml:"x-resourcestore-id-field"`
	IDStrategy string              `yaml:"x-resourcestore-id-strategy"`
	SoftDelete string              `yaml:"x-resourcestore-soft-delete"`
	Properties map[string]property `yaml:"properties"`
}

type property struct {
	Type string `yaml:"type"`
}

// logicalTypes maps OpenAPI types to the column types of the SQL backends.
var logicalTypes = map[string]string{
	"integer": "integer",
	"number":  "number",
	"boolean": "boolean",
	"string":  "text",
	"object":  "json",
	"array":   "json",
}

// Parse reads resource definitions from YAML. Entries of a top level `resources` list are taken
// as they are; OpenAPI schemas under components.schemas become resources when they carry the
// x-dynamodb-indexmap extension. Every definition is normalized and names must be unique.
func Parse(data []byte) ([]registry.Definition, error) {
	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&doc); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to parse resource definitions: %w", err)
	}

	defs := append([]registry.Definition(nil), doc.Resources...)

	names := make([]string, 0, len(doc.Components.Schemas))
	for name, s := range doc.Components.Schemas {
		if len(s.IndexMap) > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		defs = append(defs, doc.Components.Schemas[name].definition(name))
	}

	seen := make(map[string]bool, len(defs))
	for i, def := range defs {
		normalized, err := def.Normalize()
		if err != nil {
			return nil, fmt.Errorf("resource %d: %w", i, err)
		}
		if seen[normalized.Name] {
			return nil, errors.NewValidationError("name", fmt.Sprintf("resource %q is defined twice", normalized.Name))
		}
		seen[normalized.Name] = true
		defs[i] = normalized
	}
	return defs, nil
}

func (s schema) definition(name string) registry.Definition {
	def := registry.Definition{
		Name:       name,
		Table:      s.Table,
		IDField:    s.IDField,
		IDStrategy: s.IDStrategy,
		SoftDelete: s.SoftDelete,
		IndexMap:   s.IndexMap,
	}
	if len(s.Properties) == 0 {
		return def
	}

	def.Types = make(map[string]string, len(s.Properties))
	for field, p := range s.Properties {
		def.Fields = append(def.Fields, field)
		if t, ok := logicalTypes[p.Type]; ok {
			def.Types[field] = t
		}
	}
	sort.Strings(def.Fields)
	return def
}

// LoadFile parses the definitions stored at path.
func LoadFile(path string) ([]registry.Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read resource definitions: %w", err)
	}
	defs, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return defs, nil
}

// RegisterAll adds every definition to the global registry.
func RegisterAll(defs []registry.Definition) error {
	for _, def := range defs {
		if _, err := registry.Register(def); err != nil {
			return fmt.Errorf("failed to register %s: %w", def.Name, err)
		}
	}
	return nil
}
