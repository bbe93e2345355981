/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sqlstore

import (
	"fmt"
	"sort"
	"strings"

	"github.com/suparena/resourcestore/errors"
	"github.com/suparena/resourcestore/registry"
	"github.com/suparena/resourcestore/rest"
	"github.com/suparena/resourcestore/storagemodels"
)

// compiler turns operations on one resource into SQL statements. The same code path serves
// execution, where values are bound, and display, where they are inlined.
type compiler struct {
	dialect Dialect
	def     registry.Definition
	types   map[string]string
}

func newCompiler(dialect Dialect, def registry.Definition) (*compiler, error) {
	if dialect == nil {
		return nil, errors.NewValidationError("dialect", "sql dialect is required")
	}
	normalized, err := def.Normalize()
	if err != nil {
		return nil, err
	}
	if normalized.Schemaless() {
		return nil, errors.NewValidationError("fields", fmt.Sprintf("%s must declare its fields to be stored in SQL", normalized.Name))
	}

	types := make(map[string]string, len(normalized.Fields))
	for k, v := range normalized.Types {
		types[k] = v
	}
	if types[normalized.IDField] == "" {
		types[normalized.IDField] = TypeText
		if normalized.Strategy().Sequential {
			types[normalized.IDField] = TypeInteger
		}
	}
	if normalized.SoftDelete != "" && types[normalized.SoftDelete] == "" {
		types[normalized.SoftDelete] = TypeText
	}
	return &compiler{dialect: dialect, def: normalized, types: types}, nil
}

// stmtBuilder collects arguments, or inlines them when rendering for display.
type stmtBuilder struct {
	dialect Dialect
	inline  bool
	args    []any
}

func (c *compiler) builder(inline bool) *stmtBuilder {
	return &stmtBuilder{dialect: c.dialect, inline: inline}
}

// pendingID stands for an identifier generated when the statement runs.
type pendingID struct{}

func (b *stmtBuilder) bind(v any) (string, error) {
	if _, ok := v.(pendingID); ok {
		return "?", nil
	}
	encoded, err := encodeValue(v)
	if err != nil {
		return "", err
	}
	if b.inline {
		return b.dialect.Literal(encoded), nil
	}
	b.args = append(b.args, encoded)
	return b.dialect.Placeholder(len(b.args)), nil
}

func (b *stmtBuilder) statement(text string) storagemodels.Statement {
	return storagemodels.Statement{Text: text, Args: b.args}
}

func (c *compiler) table() string {
	return c.dialect.QuoteIdent(c.def.Table)
}

func (c *compiler) id() string {
	return c.dialect.QuoteIdent(c.def.IDField)
}

func (c *compiler) columnList(fields []string) string {
	if len(fields) == 0 {
		fields = c.def.Fields
	}
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = c.dialect.QuoteIdent(f)
	}
	return strings.Join(quoted, ", ")
}

func (c *compiler) selected(fields []string) []string {
	if len(fields) == 0 {
		return c.def.Fields
	}
	return fields
}

// live is the condition hiding soft deleted rows, "" without a soft delete field.
func (c *compiler) live() string {
	if c.def.SoftDelete == "" {
		return ""
	}
	return c.dialect.QuoteIdent(c.def.SoftDelete) + " IS NULL"
}

func where(conds ...string) string {
	var parts []string
	for _, cond := range conds {
		if cond != "" {
			parts = append(parts, cond)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(parts, " AND ")
}

// insert renders an INSERT of the fields present in item. With upsert every declared column
// is written, so fields missing from item are cleared on overwrite.
func (c *compiler) insert(item rest.Item, upsert, inline bool) (storagemodels.Statement, error) {
	var columns []string
	if upsert {
		columns = append(columns, c.def.Fields...)
	} else {
		for f := range item {
			columns = append(columns, f)
		}
	}
	sort.Strings(columns)

	b := c.builder(inline)
	values := make([]string, len(columns))
	for i, col := range columns {
		v, err := b.bind(item[col])
		if err != nil {
			return storagemodels.Statement{}, err
		}
		values[i] = v
	}

	var text string
	if len(columns) == 0 {
		text = fmt.Sprintf("INSERT INTO %s %s", c.table(), c.dialect.DefaultValues())
	} else {
		text = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", c.table(), c.columnList(columns), strings.Join(values, ", "))
	}
	if upsert {
		text += " " + c.dialect.Upsert(c.def.IDField, columns)
	}
	if _, ok := item[c.def.IDField]; !ok && c.dialect.Returning() {
		text += " RETURNING " + c.id()
	}
	return b.statement(text), nil
}

// writes renders the statements storing one prepared entry.
func (c *compiler) writes(e registry.Entry, upsert, inline bool) ([]storagemodels.Statement, error) {
	stmt, err := c.insert(e.Item, upsert && e.HasID(), inline)
	if err != nil {
		return nil, err
	}
	stmts := []storagemodels.Statement{stmt}
	if _, ok := e.ID.(int64); ok && c.def.Strategy().Sequential {
		if sync := c.dialect.SyncSequence(c.def.Table, c.def.IDField); sync != "" {
			stmts = append(stmts, storagemodels.Statement{Text: sync})
		}
	}
	return stmts, nil
}

// selectByID renders the read of one live row.
func (c *compiler) selectByID(id rest.ID, fields []string, inline bool) (storagemodels.Statement, error) {
	b := c.builder(inline)
	p, err := b.bind(id)
	if err != nil {
		return storagemodels.Statement{}, err
	}
	text := fmt.Sprintf("SELECT %s FROM %s%s", c.columnList(fields), c.table(), where(c.id()+" = "+p, c.live()))
	return b.statement(text), nil
}

// selectIDs renders the identifier lookup used before writes that must report what they touched.
// Soft deleted rows are included only when includeDeleted is set.
func (c *compiler) selectIDs(ids []rest.ID, criteria []rest.Criterion, includeDeleted bool) (storagemodels.Statement, error) {
	b := c.builder(false)
	cond, err := c.filter(b, ids, criteria)
	if err != nil {
		return storagemodels.Statement{}, err
	}
	live := c.live()
	if includeDeleted {
		live = ""
	}
	text := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s", c.id(), c.table(), where(cond, live), c.id())
	return b.statement(text), nil
}

// update renders one patch. Nil values set the column to NULL.
func (c *compiler) update(id rest.ID, patch rest.Item, inline bool) (storagemodels.Statement, error) {
	fields := make([]string, 0, len(patch))
	for f := range patch {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	b := c.builder(inline)
	sets := make([]string, len(fields))
	for i, f := range fields {
		v, err := b.bind(patch[f])
		if err != nil {
			return storagemodels.Statement{}, err
		}
		sets[i] = fmt.Sprintf("%s = %s", c.dialect.QuoteIdent(f), v)
	}
	p, err := b.bind(id)
	if err != nil {
		return storagemodels.Statement{}, err
	}
	text := fmt.Sprintf("UPDATE %s SET %s%s", c.table(), strings.Join(sets, ", "), where(c.id()+" = "+p, c.live()))
	return b.statement(text), nil
}

// remove renders the delete, or soft delete, of live rows selected by ids or criteria.
func (c *compiler) remove(ids []rest.ID, criteria []rest.Criterion, soft, inline bool) (storagemodels.Statement, error) {
	b := c.builder(inline)
	cond, err := c.filter(b, ids, criteria)
	if err != nil {
		return storagemodels.Statement{}, err
	}
	if soft {
		text := fmt.Sprintf("UPDATE %s SET %s = CURRENT_TIMESTAMP%s",
			c.table(), c.dialect.QuoteIdent(c.def.SoftDelete), where(cond, c.live()))
		return b.statement(text), nil
	}
	return b.statement(fmt.Sprintf("DELETE FROM %s%s", c.table(), where(cond, c.live()))), nil
}

// fetch renders the listing, or the count, of live rows matching criteria.
func (c *compiler) fetch(criteria []rest.Criterion, fields []string, count, inline bool) (storagemodels.Statement, error) {
	b := c.builder(inline)
	cond, err := c.filter(b, nil, criteria)
	if err != nil {
		return storagemodels.Statement{}, err
	}
	if count {
		return b.statement(fmt.Sprintf("SELECT COUNT(*) FROM %s%s", c.table(), where(c.live(), cond))), nil
	}
	text := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s", c.columnList(fields), c.table(), where(c.live(), cond), c.id())
	return b.statement(text), nil
}

// filter renders "id IN (...)" when ids are given, the ANDed criteria otherwise.
func (c *compiler) filter(b *stmtBuilder, ids []rest.ID, criteria []rest.Criterion) (string, error) {
	if len(ids) > 0 {
		values := make([]any, len(ids))
		for i, id := range ids {
			values[i] = id
		}
		return c.in(b, c.id(), values)
	}

	parts := make([]string, 0, len(criteria))
	for _, cr := range criteria {
		cond, err := c.condition(b, cr)
		if err != nil {
			return "", err
		}
		parts = append(parts, cond)
	}
	return strings.Join(parts, " AND "), nil
}

func (c *compiler) in(b *stmtBuilder, col string, values []any) (string, error) {
	if len(values) == 0 {
		return "1 = 0", nil
	}
	ps := make([]string, len(values))
	for i, v := range values {
		p, err := b.bind(v)
		if err != nil {
			return "", err
		}
		ps[i] = p
	}
	return fmt.Sprintf("%s IN (%s)", col, strings.Join(ps, ", ")), nil
}

// condition renders one criterion. A missing value compares like NULL, so inequality also
// matches NULL columns.
func (c *compiler) condition(b *stmtBuilder, cr rest.Criterion) (string, error) {
	col := c.dialect.QuoteIdent(cr.Field)

	switch cr.Op {
	case rest.OpEq, rest.OpNe:
		if cr.Value == nil {
			if cr.Op == rest.OpEq {
				return col + " IS NULL", nil
			}
			return col + " IS NOT NULL", nil
		}
		p, err := b.bind(cr.Value)
		if err != nil {
			return "", err
		}
		if cr.Op == rest.OpEq {
			return fmt.Sprintf("%s = %s", col, p), nil
		}
		return fmt.Sprintf("(%s <> %s OR %s IS NULL)", col, p, col), nil

	case rest.OpGt, rest.OpGe, rest.OpLt, rest.OpLe:
		p, err := b.bind(cr.Value)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %s %s", col, cr.Op, p), nil

	case rest.OpLike:
		p, err := b.bind(cr.Value)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %s %s", col, c.dialect.LikeOperator(), p), nil

	case rest.OpIn:
		list, _ := rest.ValueList(cr.Value)
		return c.in(b, col, list)
	}
	return "", errors.NewValidationError(cr.Field, fmt.Sprintf("unsupported operator %q", cr.Op))
}

// createTable renders the table bootstrap from the definition's fields and types.
func (c *compiler) createTable() string {
	cols := make([]string, 0, len(c.def.Fields))
	for _, f := range c.def.Fields {
		var typ string
		switch {
		case f == c.def.IDField && c.def.Strategy().Sequential:
			typ = c.dialect.IdentityColumn()
		case f == c.def.IDField:
			typ = c.dialect.ColumnType(c.types[f]) + " PRIMARY KEY"
			if c.dialect.Name() == "mysql" && c.types[f] != TypeInteger {
				typ = "VARCHAR(191) PRIMARY KEY"
			}
		default:
			typ = c.dialect.ColumnType(c.types[f])
		}
		cols = append(cols, strings.TrimSpace(c.dialect.QuoteIdent(f)+" "+typ))
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", c.table(), strings.Join(cols, ", "))
}
