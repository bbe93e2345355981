/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/resourcestore/errors"
	"github.com/suparena/resourcestore/registry"
	"github.com/suparena/resourcestore/rest"
)

const (
	partitionKey = "PK"
	sortKey      = "SK"

	// EntityTypeAttribute is injected into every stored item so one table can hold many resources.
	EntityTypeAttribute = "EntityType"
)

var macroPattern = regexp.MustCompile(`{([^}]+)}`)

// expandMacros fills every template of indexMap with values from the item. A template whose
// macros cannot all be resolved expands to the empty string.
func expandMacros(indexMap map[string]string, item rest.Item) (map[string]string, error) {
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal key input: %w", err)
	}

	res := make(map[string]string, len(indexMap))
	for fieldName, template := range indexMap {
		missing := false
		expanded := macroPattern.ReplaceAllStringFunc(template, func(macro string) string {
			key := strings.Trim(macro, "{}")
			s, ok := macroValue(av[key])
			if !ok {
				missing = true
			}
			return s
		})
		if missing {
			expanded = ""
		}
		res[fieldName] = expanded
	}
	return res, nil
}

// macroValue converts a scalar attribute into its key text.
func macroValue(val types.AttributeValue) (string, bool) {
	switch tv := val.(type) {
	case *types.AttributeValueMemberS:
		return tv.Value, tv.Value != ""
	case *types.AttributeValueMemberN:
		return tv.Value, true
	case *types.AttributeValueMemberBOOL:
		return fmt.Sprintf("%v", tv.Value), true
	default:
		// NULL, binary, sets and documents cannot be part of a key
		return "", false
	}
}

// buildKeyFromExpanded builds a DynamoDB key from the expanded index map.
func buildKeyFromExpanded(expanded map[string]string) (map[string]types.AttributeValue, error) {
	pk, okPK := expanded[partitionKey]
	sk, okSK := expanded[sortKey]

	if !okPK || !okSK || pk == "" || sk == "" {
		return nil, fmt.Errorf("expanded index map missing valid PK or SK")
	}

	return map[string]types.AttributeValue{
		partitionKey: &types.AttributeValueMemberS{Value: pk},
		sortKey:      &types.AttributeValueMemberS{Value: sk},
	}, nil
}

// checkKeyTemplates makes sure the primary key can be derived from the identifier alone.
func checkKeyTemplates(def registry.Definition) error {
	for _, k := range []string{partitionKey, sortKey} {
		for _, m := range macroPattern.FindAllStringSubmatch(def.IndexMap[k], -1) {
			if m[1] != def.IDField {
				return errors.NewValidationError("x-dynamodb-indexmap",
					fmt.Sprintf("%s of %s references %q, only {%s} can be used", k, def.Name, m[1], def.IDField))
			}
		}
	}
	return nil
}

// keyFor returns the primary key of the resource with the given identifier.
func keyFor(def registry.Definition, id rest.ID) (map[string]types.AttributeValue, error) {
	expanded, err := expandMacros(map[string]string{
		partitionKey: def.IndexMap[partitionKey],
		sortKey:      def.IndexMap[sortKey],
	}, rest.Item{def.IDField: id})
	if err != nil {
		return nil, err
	}
	return buildKeyFromExpanded(expanded)
}

// reserved reports whether name is an attribute managed by the store.
func reserved(def registry.Definition, name string) bool {
	if name == EntityTypeAttribute {
		return true
	}
	_, ok := def.IndexMap[name]
	return ok
}

// checkReserved rejects items that try to write store-managed attributes.
func checkReserved(def registry.Definition, item rest.Item) error {
	for k := range item {
		if reserved(def, k) {
			return errors.NewValidationError(k, "attribute is managed by the store")
		}
	}
	return nil
}

// encodeItem marshals item and adds the expanded index attributes and the entity type.
// Secondary index attributes whose templates cannot be filled are left out.
func encodeItem(def registry.Definition, item rest.Item) (map[string]types.AttributeValue, error) {
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal item: %w", err)
	}

	expanded, err := expandMacros(def.IndexMap, item)
	if err != nil {
		return nil, err
	}
	if _, err := buildKeyFromExpanded(expanded); err != nil {
		return nil, err
	}
	for k, v := range expanded {
		if v == "" {
			continue
		}
		av[k] = &types.AttributeValueMemberS{Value: v}
	}
	av[EntityTypeAttribute] = &types.AttributeValueMemberS{Value: def.Name}
	return av, nil
}

// decodeItem unmarshals a stored item and strips the store-managed attributes.
// Integral numbers come back as int64, other numbers as float64.
func decodeItem(def registry.Definition, av map[string]types.AttributeValue) (rest.Item, error) {
	var raw map[string]any
	err := attributevalue.UnmarshalMapWithOptions(av, &raw, func(o *attributevalue.DecoderOptions) {
		o.UseNumber = true
	})
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal item: %w", err)
	}

	item := make(rest.Item, len(raw))
	for k, v := range raw {
		if reserved(def, k) {
			continue
		}
		item[k] = convertNumbers(v)
	}
	return item, nil
}

func convertNumbers(v any) any {
	switch tv := v.(type) {
	case attributevalue.Number:
		if n, err := tv.Int64(); err == nil {
			return n
		}
		if f, err := tv.Float64(); err == nil {
			return f
		}
		return tv.String()
	case map[string]any:
		for k, e := range tv {
			tv[k] = convertNumbers(e)
		}
		return tv
	case []any:
		for i, e := range tv {
			tv[i] = convertNumbers(e)
		}
		return tv
	default:
		return v
	}
}
