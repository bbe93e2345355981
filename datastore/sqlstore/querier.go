/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sqlstore

import (
	"github.com/suparena/resourcestore/registry"
	"github.com/suparena/resourcestore/rest"
	"github.com/suparena/resourcestore/storagemodels"
)

// Querier renders the statements a Store would execute, with values inlined as literals.
type Querier struct {
	c *compiler
}

// NewQuerier constructs a Querier for def in the given dialect.
func NewQuerier(dialect Dialect, def registry.Definition) (*Querier, error) {
	c, err := newCompiler(dialect, def)
	if err != nil {
		return nil, err
	}
	return &Querier{c: c}, nil
}

// Replace renders one upsert per identified item and one INSERT per new item. Items with
// identifiers come first.
func (q *Querier) Replace(items []rest.Item, opts rest.Options) (string, error) {
	return q.writes(items, true)
}

// Create renders one INSERT per item.
func (q *Querier) Create(items []rest.Item, opts rest.Options) (string, error) {
	return q.writes(items, false)
}

// writes renders the statements of a write batch in the order the Store runs them.
// Identifiers generated client side at execution time are shown as "?".
func (q *Querier) writes(items []rest.Item, upsert bool) (string, error) {
	entries, err := q.c.def.PrepareBatch(items, false)
	if err != nil {
		return "", err
	}
	strategy := q.c.def.Strategy()
	var script storagemodels.Script
	for _, i := range registry.WriteOrder(entries) {
		e := entries[i]
		if !e.HasID() && !strategy.Sequential && strategy.Generate != nil {
			e.ID = pendingID{}
			e.Item[q.c.def.IDField] = e.ID
		}
		stmts, err := q.c.writes(e, upsert, true)
		if err != nil {
			return "", err
		}
		script = append(script, stmts...)
	}
	return script.String(), nil
}

// Retrieve renders the SELECT of one live row.
func (q *Querier) Retrieve(id rest.ID, fields []string, opts rest.Options) (string, error) {
	key, err := q.c.def.ValidateID(id)
	if err != nil {
		return "", err
	}
	if err := q.c.def.CheckFields(fields); err != nil {
		return "", err
	}
	stmt, err := q.c.selectByID(key, fields, true)
	if err != nil {
		return "", err
	}
	return storagemodels.Script{stmt}.String(), nil
}

// Update renders one UPDATE per patch, in order.
func (q *Querier) Update(id rest.ID, patches []rest.Item, opts rest.Options) (string, error) {
	key, err := q.c.def.ValidateID(id)
	if err != nil {
		return "", err
	}
	prepared, err := q.c.def.PreparePatches(key, patches)
	if err != nil {
		return "", err
	}
	var script storagemodels.Script
	for _, p := range prepared {
		if len(p) == 0 {
			continue
		}
		stmt, err := q.c.update(key, p, true)
		if err != nil {
			return "", err
		}
		script = append(script, stmt)
	}
	return script.String(), nil
}

// Delete renders the DELETE, or soft delete UPDATE, of the selected live rows.
func (q *Querier) Delete(ids []rest.ID, criteria []rest.Criterion, opts rest.Options) (string, error) {
	soft, err := q.c.def.CheckSoftDelete(opts)
	if err != nil {
		return "", err
	}
	keys, err := q.c.def.ValidateIDs(ids)
	if err != nil {
		return "", err
	}
	if len(keys) > 0 {
		criteria = nil
	} else if err := q.c.def.CheckCriteria(criteria); err != nil {
		return "", err
	}
	stmt, err := q.c.remove(keys, criteria, soft, true)
	if err != nil {
		return "", err
	}
	return storagemodels.Script{stmt}.String(), nil
}

// Fetch renders the SELECT, or SELECT COUNT(*), of live rows matching criteria.
func (q *Querier) Fetch(criteria []rest.Criterion, fields []string, opts rest.Options) (string, error) {
	if err := q.c.def.CheckCriteria(criteria); err != nil {
		return "", err
	}
	if err := q.c.def.CheckFields(fields); err != nil {
		return "", err
	}
	stmt, err := q.c.fetch(criteria, fields, opts.Bool(rest.OptionCount), true)
	if err != nil {
		return "", err
	}
	return storagemodels.Script{stmt}.String(), nil
}
