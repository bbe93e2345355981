/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package rest

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/suparena/resourcestore/errors"
)

// Operator compares a field against a criterion value.
type Operator string

const (
	OpEq   Operator = "="
	OpNe   Operator = "!="
	OpGt   Operator = ">"
	OpGe   Operator = ">="
	OpLt   Operator = "<"
	OpLe   Operator = "<="
	OpLike Operator = "like"
	OpIn   Operator = "in"
)

var operators = map[Operator]bool{
	OpEq: true, OpNe: true, OpGt: true, OpGe: true, OpLt: true, OpLe: true, OpLike: true, OpIn: true,
}

// Criterion filters resources on one field. A list of criteria is a conjunction.
type Criterion struct {
	Field string
	Op    Operator
	Value any
}

// Where builds an equality criterion.
func Where(field string, value any) Criterion {
	return Criterion{Field: field, Op: OpEq, Value: value}
}

// Validate checks the field name, the operator and the value shape the operator needs.
func (c Criterion) Validate() error {
	if c.Field == "" {
		return errors.NewValidationError("criteria", "criterion has no field")
	}
	if !operators[c.Op] {
		return errors.NewValidationError("criteria", fmt.Sprintf("unknown operator %q", c.Op))
	}
	switch c.Op {
	case OpIn:
		if _, ok := valueList(c.Value); !ok {
			return errors.NewValidationError("criteria", fmt.Sprintf("%q needs a list value for %q", c.Field, c.Op))
		}
	case OpLike:
		if _, ok := c.Value.(string); !ok {
			return errors.NewValidationError("criteria", fmt.Sprintf("%q needs a string pattern for %q", c.Field, c.Op))
		}
	case OpGt, OpGe, OpLt, OpLe:
		if c.Value == nil {
			return errors.NewValidationError("criteria", fmt.Sprintf("%q cannot be compared with null using %q", c.Field, c.Op))
		}
	}
	return nil
}

// ParseCriterion reads the tuple form: ["field", value] for equality or
// ["field", "op", value].
func ParseCriterion(tuple []any) (Criterion, error) {
	if len(tuple) < 2 || len(tuple) > 3 {
		return Criterion{}, errors.NewValidationError("criteria", fmt.Sprintf("criterion needs 2 or 3 tokens, got %d", len(tuple)))
	}
	field, ok := tuple[0].(string)
	if !ok {
		return Criterion{}, errors.NewValidationError("criteria", fmt.Sprintf("criterion field must be a string, got %T", tuple[0]))
	}
	c := Criterion{Field: field, Op: OpEq, Value: tuple[1]}
	if len(tuple) == 3 {
		op, ok := tuple[1].(string)
		if !ok {
			return Criterion{}, errors.NewValidationError("criteria", fmt.Sprintf("criterion operator must be a string, got %T", tuple[1]))
		}
		c.Op = Operator(strings.ToLower(strings.TrimSpace(op)))
		c.Value = tuple[2]
	}
	return c, c.Validate()
}

// ParseCriteria reads a list of criterion tuples.
func ParseCriteria(raw []any) ([]Criterion, error) {
	out := make([]Criterion, 0, len(raw))
	for i, r := range raw {
		tuple, ok := r.([]any)
		if !ok {
			return nil, errors.NewValidationError("criteria", fmt.Sprintf("criterion %d is %T, not a list", i, r))
		}
		c, err := ParseCriterion(tuple)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// Match reports whether item satisfies every criterion.
// A missing field only matches equality with nil and inequality with a non-nil value.
func Match(item Item, criteria []Criterion) bool {
	for _, c := range criteria {
		if !matchOne(item, c) {
			return false
		}
	}
	return true
}

func matchOne(item Item, c Criterion) bool {
	v, present := item[c.Field]
	if !present {
		v = nil
	}
	switch c.Op {
	case OpEq:
		return equalValues(v, c.Value)
	case OpNe:
		return !equalValues(v, c.Value)
	case OpGt, OpGe, OpLt, OpLe:
		cmp, ok := compareValues(v, c.Value)
		if !ok {
			return false
		}
		switch c.Op {
		case OpGt:
			return cmp > 0
		case OpGe:
			return cmp >= 0
		case OpLt:
			return cmp < 0
		default:
			return cmp <= 0
		}
	case OpLike:
		s, ok := v.(string)
		pattern, pok := c.Value.(string)
		return ok && pok && likePattern(pattern).MatchString(s)
	case OpIn:
		list, _ := valueList(c.Value)
		for _, candidate := range list {
			if equalValues(v, candidate) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func equalValues(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if cmp, ok := compareValues(a, b); ok {
		return cmp == 0
	}
	if x, ok := a.(bool); ok {
		y, ok := b.(bool)
		return ok && x == y
	}
	// Composite values of the same type compare by their rendering; different kinds never match.
	return fmt.Sprintf("%T", a) == fmt.Sprintf("%T", b) && fmt.Sprint(a) == fmt.Sprint(b)
}

// compareValues orders two numbers or two strings; ok is false for any other pairing.
func compareValues(a, b any) (int, bool) {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		if !ok {
			return 0, false
		}
		switch {
		case fa < fb:
			return -1, true
		case fa > fb:
			return 1, true
		default:
			return 0, true
		}
	}
	sa, ok := a.(string)
	if !ok {
		return 0, false
	}
	sb, ok := b.(string)
	if !ok {
		return 0, false
	}
	return strings.Compare(sa, sb), true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func valueList(v any) ([]any, bool) {
	switch l := v.(type) {
	case []any:
		return l, true
	case []string:
		out := make([]any, len(l))
		for i, s := range l {
			out[i] = s
		}
		return out, true
	case []int:
		out := make([]any, len(l))
		for i, n := range l {
			out[i] = n
		}
		return out, true
	case []int64:
		out := make([]any, len(l))
		for i, n := range l {
			out[i] = n
		}
		return out, true
	case []float64:
		out := make([]any, len(l))
		for i, n := range l {
			out[i] = n
		}
		return out, true
	case []ID:
		out := make([]any, len(l))
		for i, n := range l {
			out[i] = n
		}
		return out, true
	default:
		return nil, false
	}
}

// ValueList exposes the list forms accepted by OpIn to backends compiling criteria.
func ValueList(v any) ([]any, bool) {
	return valueList(v)
}

// likePattern translates a SQL LIKE pattern (% and _ wildcards) into an anchored,
// case-insensitive regexp.
func likePattern(pattern string) *regexp.Regexp {
	var b strings.Builder
	b.WriteString("(?is)^")
	for _, r := range pattern {
		switch r {
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return regexp.MustCompile(b.String())
}
