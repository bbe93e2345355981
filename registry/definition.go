/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"fmt"
	"strings"

	"github.com/suparena/resourcestore/errors"
	"github.com/suparena/resourcestore/rest"
)

// DefaultIDField is the identifier field used when a definition names none.
const DefaultIDField = "id"

// Definition describes one resource type and how backends lay it out.
type Definition struct {
	// Name identifies the resource, e.g. "todos".
	Name string `yaml:"name"`
	// Table is the backing table; defaults to Name.
	Table string `yaml:"table,omitempty"`
	// IDField is the field holding the identifier; defaults to "id".
	IDField string `yaml:"idField,omitempty"`
	// IDStrategy names a registered IDStrategy; defaults to "sequence".
	IDStrategy string `yaml:"idStrategy,omitempty"`
	// Fields declares the schema. Empty means schemaless.
	Fields []string `yaml:"fields,omitempty"`
	// Types maps fields to column types used when bootstrapping SQL tables.
	Types map[string]string `yaml:"types,omitempty"`
	// SoftDelete names the timestamp field stamped by soft deletes. Empty disables them.
	SoftDelete string `yaml:"softDelete,omitempty"`
	// IndexMap holds DynamoDB key templates such as {"PK": "TODO#{id}", "SK": "TODO"}.
	IndexMap map[string]string `yaml:"x-dynamodb-indexmap,omitempty"`
}

// Normalize fills defaults and checks the definition is usable.
func (d Definition) Normalize() (Definition, error) {
	if strings.TrimSpace(d.Name) == "" {
		return d, errors.NewValidationError("name", "resource name is required")
	}
	if d.Table == "" {
		d.Table = d.Name
	}
	if d.IDField == "" {
		d.IDField = DefaultIDField
	}
	if d.IDStrategy == "" {
		d.IDStrategy = StrategySequence
	}
	if _, err := GetIDStrategy(d.IDStrategy); err != nil {
		return d, err
	}

	if len(d.Fields) > 0 {
		fields := make([]string, 0, len(d.Fields)+2)
		seen := make(map[string]bool, len(d.Fields)+2)
		add := func(f string) {
			if f != "" && !seen[f] {
				seen[f] = true
				fields = append(fields, f)
			}
		}
		add(d.IDField)
		for _, f := range d.Fields {
			add(f)
		}
		add(d.SoftDelete)
		d.Fields = fields
	}

	if len(d.IndexMap) == 0 {
		prefix := strings.ToUpper(d.Name)
		d.IndexMap = map[string]string{
			"PK": fmt.Sprintf("%s#{%s}", prefix, d.IDField),
			"SK": prefix,
		}
	}
	if d.IndexMap["PK"] == "" || d.IndexMap["SK"] == "" {
		return d, errors.NewValidationError("x-dynamodb-indexmap", "index map needs PK and SK templates")
	}
	return d, nil
}

// Strategy returns the definition's identifier strategy.
func (d Definition) Strategy() IDStrategy {
	s, err := GetIDStrategy(d.IDStrategy)
	if err != nil {
		return IDStrategy{Name: d.IDStrategy}
	}
	return s
}

// Schemaless reports whether any field name is accepted.
func (d Definition) Schemaless() bool {
	return len(d.Fields) == 0
}

// HasField reports whether field is declared, or always true for schemaless resources.
func (d Definition) HasField(field string) bool {
	if d.Schemaless() {
		return true
	}
	for _, f := range d.Fields {
		if f == field {
			return true
		}
	}
	return false
}

// CheckFields rejects undeclared names in a field selector.
func (d Definition) CheckFields(fields []string) error {
	for _, f := range fields {
		if f == "" {
			return errors.NewValidationError("fields", "empty field name in selector")
		}
		if !d.HasField(f) {
			return errors.NewUnknownFieldError(d.Name, f)
		}
	}
	return nil
}

// CheckItem rejects undeclared fields in an item or patch.
func (d Definition) CheckItem(item rest.Item) error {
	for f := range item {
		if f == "" {
			return errors.NewValidationError("", "empty field name")
		}
		if !d.HasField(f) {
			return errors.NewUnknownFieldError(d.Name, f)
		}
	}
	return nil
}

// CheckCriteria validates each criterion and its field.
func (d Definition) CheckCriteria(criteria []rest.Criterion) error {
	for _, c := range criteria {
		if err := c.Validate(); err != nil {
			return err
		}
		if !d.HasField(c.Field) {
			return errors.NewUnknownFieldError(d.Name, c.Field)
		}
	}
	return nil
}

// ValidateID normalizes id and checks it against the identifier strategy.
func (d Definition) ValidateID(id any) (rest.ID, error) {
	n, err := rest.NormalizeID(id)
	if err != nil {
		return nil, err
	}
	if s := d.Strategy(); s.Validate != nil {
		if err := s.Validate(n); err != nil {
			return nil, err
		}
	}
	return n, nil
}

// ValidateIDs validates a list of identifiers, keeping order.
func (d Definition) ValidateIDs(ids []rest.ID) ([]rest.ID, error) {
	out := make([]rest.ID, len(ids))
	for i, id := range ids {
		n, err := d.ValidateID(id)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}
