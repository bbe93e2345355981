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
	"github.com/suparena/resourcestore/registry"
	"github.com/suparena/resourcestore/rest"
	"github.com/suparena/resourcestore/storagemodels"
)

// Querier renders the PartiQL statements equivalent to the Store operations.
// Parameters the store would only know at execution time are left as "?".
type Querier struct {
	tableName string
	def       registry.Definition
}

// NewQuerier constructs a PartiQL Querier for def on tableName.
func NewQuerier(tableName string, def registry.Definition) (*Querier, error) {
	normalized, err := def.Normalize()
	if err != nil {
		return nil, err
	}
	if err := checkKeyTemplates(normalized); err != nil {
		return nil, err
	}
	return &Querier{tableName: tableName, def: normalized}, nil
}

// Replace renders a DELETE and INSERT per identified item and a parameterized INSERT per new one.
func (q *Querier) Replace(items []rest.Item, opts rest.Options) (string, error) {
	entries, err := q.prepare(items)
	if err != nil {
		return "", err
	}

	var script storagemodels.Script
	for _, e := range entries {
		insert, err := q.insert(e)
		if err != nil {
			return "", err
		}
		if e.HasID() {
			where, err := q.keyCondition(e.ID)
			if err != nil {
				return "", err
			}
			script = append(script, storagemodels.Statement{
				Text: fmt.Sprintf("DELETE FROM %s WHERE %s", quoteName(q.tableName), where),
			})
		}
		script = append(script, insert)
	}
	return script.String(), nil
}

// Create renders one INSERT per item. PartiQL INSERT fails on an existing key.
func (q *Querier) Create(items []rest.Item, opts rest.Options) (string, error) {
	entries, err := q.prepare(items)
	if err != nil {
		return "", err
	}

	var script storagemodels.Script
	for _, e := range entries {
		insert, err := q.insert(e)
		if err != nil {
			return "", err
		}
		script = append(script, insert)
	}
	return script.String(), nil
}

func (q *Querier) prepare(items []rest.Item) ([]registry.Entry, error) {
	entries, err := q.def.PrepareBatch(items, false)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if err := checkReserved(q.def, e.Item); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

// insert renders INSERT ... VALUE {...}. When the identifier is unknown the identifier and
// every attribute derived from it become parameters.
func (q *Querier) insert(e registry.Entry) (storagemodels.Statement, error) {
	av, err := attributevalue.MarshalMap(e.Item)
	if err != nil {
		return storagemodels.Statement{}, fmt.Errorf("failed to marshal item: %w", err)
	}
	params := make(map[string]bool)

	if e.HasID() {
		expanded, err := expandMacros(q.def.IndexMap, e.Item)
		if err != nil {
			return storagemodels.Statement{}, err
		}
		for k, v := range expanded {
			if v != "" {
				av[k] = &types.AttributeValueMemberS{Value: v}
			}
		}
	} else {
		params[q.def.IDField] = true
		for k, tmpl := range q.def.IndexMap {
			if strings.Contains(tmpl, "{"+q.def.IDField+"}") {
				params[k] = true
				continue
			}
			expanded, err := expandMacros(map[string]string{k: tmpl}, e.Item)
			if err != nil {
				return storagemodels.Statement{}, err
			}
			if expanded[k] != "" {
				av[k] = &types.AttributeValueMemberS{Value: expanded[k]}
			}
		}
	}
	av[EntityTypeAttribute] = &types.AttributeValueMemberS{Value: q.def.Name}

	names := make([]string, 0, len(av)+len(params))
	for k := range av {
		names = append(names, k)
	}
	for k := range params {
		if _, ok := av[k]; !ok {
			names = append(names, k)
		}
	}
	sort.Strings(names)

	pairs := make([]string, len(names))
	for i, k := range names {
		value := "?"
		if !params[k] {
			lit, err := literal(av[k])
			if err != nil {
				return storagemodels.Statement{}, err
			}
			value = lit
		}
		pairs[i] = fmt.Sprintf("%s: %s", quoteString(k), value)
	}
	return storagemodels.Statement{
		Text: fmt.Sprintf("INSERT INTO %s VALUE {%s}", quoteName(q.tableName), strings.Join(pairs, ", ")),
	}, nil
}

// Retrieve renders the SELECT by primary key.
func (q *Querier) Retrieve(id rest.ID, fields []string, opts rest.Options) (string, error) {
	key, err := q.def.ValidateID(id)
	if err != nil {
		return "", err
	}
	if err := q.def.CheckFields(fields); err != nil {
		return "", err
	}
	where, err := q.liveKeyCondition(key)
	if err != nil {
		return "", err
	}
	stmt := storagemodels.Statement{
		Text: fmt.Sprintf("SELECT %s FROM %s WHERE %s", selectList(fields), quoteName(q.tableName), where),
	}
	return storagemodels.Script{stmt}.String(), nil
}

// Update renders one UPDATE per patch, in order.
func (q *Querier) Update(id rest.ID, patches []rest.Item, opts rest.Options) (string, error) {
	key, err := q.def.ValidateID(id)
	if err != nil {
		return "", err
	}
	prepared, err := q.def.PreparePatches(key, patches)
	if err != nil {
		return "", err
	}
	where, err := q.liveKeyCondition(key)
	if err != nil {
		return "", err
	}

	var script storagemodels.Script
	for _, p := range prepared {
		if len(p) == 0 {
			continue
		}
		if err := checkReserved(q.def, p); err != nil {
			return "", err
		}
		fields := make([]string, 0, len(p))
		for f := range p {
			fields = append(fields, f)
		}
		sort.Strings(fields)

		var clauses []string
		for _, f := range fields {
			if p[f] == nil {
				clauses = append(clauses, "REMOVE "+quoteName(f))
				continue
			}
			lit, err := literalOf(p[f])
			if err != nil {
				return "", err
			}
			clauses = append(clauses, fmt.Sprintf("SET %s = %s", quoteName(f), lit))
		}
		script = append(script, storagemodels.Statement{
			Text: fmt.Sprintf("UPDATE %s %s WHERE %s", quoteName(q.tableName), strings.Join(clauses, " "), where),
		})
	}
	return script.String(), nil
}

// Delete renders a DELETE, or a soft delete UPDATE, per identifier. PartiQL has no
// statement deleting by a non-key condition.
func (q *Querier) Delete(ids []rest.ID, criteria []rest.Criterion, opts rest.Options) (string, error) {
	soft, err := q.def.CheckSoftDelete(opts)
	if err != nil {
		return "", err
	}
	keys, err := q.def.ValidateIDs(ids)
	if err != nil {
		return "", err
	}
	if len(keys) == 0 {
		return "", errors.NewNotSupportedError(backendName, "delete by criteria")
	}

	var script storagemodels.Script
	for _, k := range keys {
		where, err := q.liveKeyCondition(k)
		if err != nil {
			return "", err
		}
		text := fmt.Sprintf("DELETE FROM %s WHERE %s", quoteName(q.tableName), where)
		if soft {
			text = fmt.Sprintf("UPDATE %s SET %s = ? WHERE %s", quoteName(q.tableName), quoteName(q.def.SoftDelete), where)
		}
		script = append(script, storagemodels.Statement{Text: text})
	}
	return script.String(), nil
}

// Fetch renders the SELECT over the entity type. Counting is not expressible in PartiQL.
func (q *Querier) Fetch(criteria []rest.Criterion, fields []string, opts rest.Options) (string, error) {
	if opts.Bool(rest.OptionCount) {
		return "", errors.NewNotSupportedError(backendName, "count")
	}
	if err := q.def.CheckCriteria(criteria); err != nil {
		return "", err
	}
	if err := q.def.CheckFields(fields); err != nil {
		return "", err
	}

	parts := []string{fmt.Sprintf("%s = %s", quoteName(EntityTypeAttribute), quoteString(q.def.Name))}
	if q.def.SoftDelete != "" {
		parts = append(parts, quoteName(q.def.SoftDelete)+" IS MISSING")
	}
	for _, c := range criteria {
		cond, err := partiqlCondition(c)
		if err != nil {
			return "", err
		}
		parts = append(parts, cond)
	}
	stmt := storagemodels.Statement{
		Text: fmt.Sprintf("SELECT %s FROM %s WHERE %s", selectList(fields), quoteName(q.tableName), strings.Join(parts, " AND ")),
	}
	return storagemodels.Script{stmt}.String(), nil
}

func (q *Querier) keyCondition(id rest.ID) (string, error) {
	key, err := keyFor(q.def, id)
	if err != nil {
		return "", err
	}
	pk := key[partitionKey].(*types.AttributeValueMemberS).Value
	sk := key[sortKey].(*types.AttributeValueMemberS).Value
	return fmt.Sprintf("%s = %s AND %s = %s",
		quoteName(partitionKey), quoteString(pk), quoteName(sortKey), quoteString(sk)), nil
}

func (q *Querier) liveKeyCondition(id rest.ID) (string, error) {
	where, err := q.keyCondition(id)
	if err != nil {
		return "", err
	}
	if q.def.SoftDelete != "" {
		where += " AND " + quoteName(q.def.SoftDelete) + " IS MISSING"
	}
	return where, nil
}

func partiqlCondition(c rest.Criterion) (string, error) {
	f := quoteName(c.Field)

	switch c.Op {
	case rest.OpEq, rest.OpNe:
		if c.Value == nil {
			if c.Op == rest.OpEq {
				return f + " IS MISSING", nil
			}
			return f + " IS NOT MISSING", nil
		}
		lit, err := literalOf(c.Value)
		if err != nil {
			return "", err
		}
		op := "="
		if c.Op == rest.OpNe {
			op = "<>"
		}
		return fmt.Sprintf("%s %s %s", f, op, lit), nil

	case rest.OpGt, rest.OpGe, rest.OpLt, rest.OpLe:
		lit, err := literalOf(c.Value)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %s %s", f, c.Op, lit), nil

	case rest.OpIn:
		list, _ := rest.ValueList(c.Value)
		lits := make([]string, len(list))
		for i, e := range list {
			lit, err := literalOf(e)
			if err != nil {
				return "", err
			}
			lits[i] = lit
		}
		return fmt.Sprintf("%s IN [%s]", f, strings.Join(lits, ", ")), nil

	case rest.OpLike:
		fn, text, err := likeFunction(c.Value)
		if err != nil {
			return "", err
		}
		if fn == likeAny {
			return f + " IS NOT MISSING", nil
		}
		if fn == "=" {
			return fmt.Sprintf("%s = %s", f, quoteString(text)), nil
		}
		return fmt.Sprintf("%s(%s, %s)", fn, f, quoteString(text)), nil
	}
	return "", errors.NewValidationError(c.Field, fmt.Sprintf("unsupported operator %q", c.Op))
}

func selectList(fields []string) string {
	if len(fields) == 0 {
		return "*"
	}
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = quoteName(f)
	}
	return strings.Join(quoted, ", ")
}

func quoteName(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func literalOf(v any) (string, error) {
	av, err := attributevalue.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal value: %w", err)
	}
	return literal(av)
}

// literal renders an attribute value as a PartiQL literal. Map keys are sorted.
func literal(av types.AttributeValue) (string, error) {
	switch tv := av.(type) {
	case *types.AttributeValueMemberS:
		return quoteString(tv.Value), nil
	case *types.AttributeValueMemberN:
		return tv.Value, nil
	case *types.AttributeValueMemberBOOL:
		return fmt.Sprintf("%t", tv.Value), nil
	case *types.AttributeValueMemberNULL:
		return "NULL", nil
	case *types.AttributeValueMemberL:
		elems := make([]string, len(tv.Value))
		for i, e := range tv.Value {
			lit, err := literal(e)
			if err != nil {
				return "", err
			}
			elems[i] = lit
		}
		return "[" + strings.Join(elems, ", ") + "]", nil
	case *types.AttributeValueMemberM:
		keys := make([]string, 0, len(tv.Value))
		for k := range tv.Value {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		pairs := make([]string, len(keys))
		for i, k := range keys {
			lit, err := literal(tv.Value[k])
			if err != nil {
				return "", err
			}
			pairs[i] = fmt.Sprintf("%s: %s", quoteString(k), lit)
		}
		return "{" + strings.Join(pairs, ", ") + "}", nil
	case *types.AttributeValueMemberSS:
		elems := make([]string, len(tv.Value))
		for i, s := range tv.Value {
			elems[i] = quoteString(s)
		}
		return "<<" + strings.Join(elems, ", ") + ">>", nil
	case *types.AttributeValueMemberNS:
		return "<<" + strings.Join(tv.Value, ", ") + ">>", nil
	}
	return "", errors.NewNotSupportedError(backendName, fmt.Sprintf("PartiQL literal for %T", av))
}
