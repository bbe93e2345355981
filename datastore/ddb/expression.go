/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/resourcestore/errors"
	"github.com/suparena/resourcestore/rest"
)

// exprBuilder allocates expression attribute name and value placeholders.
// Names are reused so an attribute has one placeholder per request.
type exprBuilder struct {
	names  map[string]string
	values map[string]types.AttributeValue
	byAttr map[string]string
}

func newExprBuilder() *exprBuilder {
	return &exprBuilder{
		names:  make(map[string]string),
		values: make(map[string]types.AttributeValue),
		byAttr: make(map[string]string),
	}
}

func (b *exprBuilder) name(attr string) string {
	if p, ok := b.byAttr[attr]; ok {
		return p
	}
	p := fmt.Sprintf("#f%d", len(b.byAttr))
	b.byAttr[attr] = p
	b.names[p] = attr
	return p
}

func (b *exprBuilder) value(v any) (string, error) {
	av, err := attributevalue.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal expression value: %w", err)
	}
	p := fmt.Sprintf(":v%d", len(b.values))
	b.values[p] = av
	return p, nil
}

// attributeNames returns nil rather than an empty map, which DynamoDB rejects.
func (b *exprBuilder) attributeNames() map[string]string {
	if len(b.names) == 0 {
		return nil
	}
	return b.names
}

func (b *exprBuilder) attributeValues() map[string]types.AttributeValue {
	if len(b.values) == 0 {
		return nil
	}
	return b.values
}

// buildUpdateExpression transforms a patch into "SET #f0 = :v0, ... REMOVE #f2, ...".
// Fields are visited in sorted order; nil values are removed.
func (b *exprBuilder) buildUpdateExpression(patch rest.Item) (string, error) {
	fields := make([]string, 0, len(patch))
	for f := range patch {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	var sets, removes []string
	for _, f := range fields {
		if patch[f] == nil {
			removes = append(removes, b.name(f))
			continue
		}
		v, err := b.value(patch[f])
		if err != nil {
			return "", err
		}
		sets = append(sets, fmt.Sprintf("%s = %s", b.name(f), v))
	}

	var parts []string
	if len(sets) > 0 {
		parts = append(parts, "SET "+strings.Join(sets, ", "))
	}
	if len(removes) > 0 {
		parts = append(parts, "REMOVE "+strings.Join(removes, ", "))
	}
	return strings.Join(parts, " "), nil
}

// projection renders a ProjectionExpression for fields, nil when all fields are wanted.
func (b *exprBuilder) projection(fields []string) *string {
	if len(fields) == 0 {
		return nil
	}
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = b.name(f)
	}
	p := strings.Join(names, ", ")
	return &p
}

// condition renders one criterion as a DynamoDB condition.
func (b *exprBuilder) condition(c rest.Criterion) (string, error) {
	f := b.name(c.Field)

	switch c.Op {
	case rest.OpEq, rest.OpNe:
		if c.Value == nil {
			if c.Op == rest.OpEq {
				return fmt.Sprintf("attribute_not_exists(%s)", f), nil
			}
			return fmt.Sprintf("attribute_exists(%s)", f), nil
		}
		v, err := b.value(c.Value)
		if err != nil {
			return "", err
		}
		op := "="
		if c.Op == rest.OpNe {
			op = "<>"
		}
		return fmt.Sprintf("%s %s %s", f, op, v), nil

	case rest.OpGt, rest.OpGe, rest.OpLt, rest.OpLe:
		v, err := b.value(c.Value)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %s %s", f, c.Op, v), nil

	case rest.OpIn:
		list, _ := rest.ValueList(c.Value)
		placeholders := make([]string, len(list))
		for i, e := range list {
			v, err := b.value(e)
			if err != nil {
				return "", err
			}
			placeholders[i] = v
		}
		return fmt.Sprintf("%s IN (%s)", f, strings.Join(placeholders, ", ")), nil

	case rest.OpLike:
		fn, text, err := likeFunction(c.Value)
		if err != nil {
			return "", err
		}
		if fn == likeAny {
			return fmt.Sprintf("attribute_exists(%s)", f), nil
		}
		v, err := b.value(text)
		if err != nil {
			return "", err
		}
		if fn == "=" {
			return fmt.Sprintf("%s = %s", f, v), nil
		}
		return fmt.Sprintf("%s(%s, %s)", fn, f, v), nil
	}
	return "", errors.NewValidationError(c.Field, fmt.Sprintf("unsupported operator %q", c.Op))
}

// likeAny is the likeFunction result for patterns made only of "%", which match any value.
const likeAny = "any"

// likeFunction maps the LIKE patterns DynamoDB can evaluate: "abc" (equality), "abc%"
// (begins_with), "%abc%" (contains) and "%" (any value). Matching is case-sensitive.
func likeFunction(v any) (fn, text string, err error) {
	pattern, ok := v.(string)
	if !ok {
		return "", "", errors.NewValidationError("like", "pattern must be a string")
	}
	if pattern != "" && strings.Trim(pattern, "%") == "" {
		return likeAny, "", nil
	}
	if strings.Contains(pattern, "_") {
		return "", "", errors.NewNotSupportedError(backendName, "like pattern "+pattern)
	}
	inner := strings.Trim(pattern, "%")
	if strings.Contains(inner, "%") {
		return "", "", errors.NewNotSupportedError(backendName, "like pattern "+pattern)
	}
	leading := strings.HasPrefix(pattern, "%")
	trailing := strings.HasSuffix(pattern, "%") && len(pattern) > 1
	switch {
	case !leading && !trailing:
		return "=", pattern, nil
	case !leading && trailing:
		return "begins_with", inner, nil
	case leading && trailing:
		return "contains", inner, nil
	}
	return "", "", errors.NewNotSupportedError(backendName, "like pattern "+pattern)
}

// emptyIn reports whether some criterion is an IN over an empty list, which matches nothing.
func emptyIn(criteria []rest.Criterion) bool {
	for _, c := range criteria {
		if c.Op != rest.OpIn {
			continue
		}
		if list, _ := rest.ValueList(c.Value); len(list) == 0 {
			return true
		}
	}
	return false
}
