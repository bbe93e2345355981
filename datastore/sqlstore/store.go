/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sqlstore

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"

	"github.com/suparena/resourcestore/errors"
	"github.com/suparena/resourcestore/registry"
	"github.com/suparena/resourcestore/rest"
	"github.com/suparena/resourcestore/storagemodels"
)

// Store implements datastore.Store for one resource type on a SQL table.
// Every operation runs in its own transaction.
type Store struct {
	db *sql.DB
	c  *compiler
}

// New constructs a Store for def. The definition must declare its fields.
func New(db *sql.DB, dialect Dialect, def registry.Definition) (*Store, error) {
	if db == nil {
		return nil, errors.NewValidationError("db", "database handle is required")
	}
	c, err := newCompiler(dialect, def)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, c: c}, nil
}

// Definition returns the normalized definition the store serves.
func (s *Store) Definition() registry.Definition {
	return s.c.def
}

// Dialect returns the dialect statements are compiled for.
func (s *Store) Dialect() Dialect {
	return s.c.dialect
}

// EnsureTable creates the resource table when it does not exist.
func (s *Store) EnsureTable(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.c.createTable()); err != nil {
		return fmt.Errorf("failed to create table %s: %w", s.c.def.Table, err)
	}
	return nil
}

// withTx runs fn in a transaction, rolling back when it fails.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Replace upserts every item in one transaction. Items with identifiers are written first, so
// the database sequence has moved past them before it generates new ones.
func (s *Store) Replace(ctx context.Context, items []rest.Item, opts rest.Options) ([]rest.ID, error) {
	entries, err := s.c.def.PrepareBatch(items, true)
	if err != nil {
		return nil, err
	}

	ids := make([]rest.ID, len(entries))
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		for _, i := range registry.WriteOrder(entries) {
			id, err := s.write(ctx, tx, entries[i], true)
			if err != nil {
				return err
			}
			ids[i] = id
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Create inserts every item in one transaction, failing on any identifier already taken.
func (s *Store) Create(ctx context.Context, items []rest.Item, opts rest.Options) ([]rest.ID, error) {
	entries, err := s.c.def.PrepareBatch(items, true)
	if err != nil {
		return nil, err
	}
	var explicit []rest.ID
	for _, e := range entries {
		if e.HasID() {
			explicit = append(explicit, e.ID)
		}
	}

	ids := make([]rest.ID, len(entries))
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		if len(explicit) > 0 {
			taken, err := s.selectIDs(ctx, tx, explicit, nil, true)
			if err != nil {
				return err
			}
			if len(taken) > 0 {
				return errors.NewConflictError(s.c.def.Name, taken[0], "already exists")
			}
		}
		for _, i := range registry.WriteOrder(entries) {
			e := entries[i]
			id, err := s.write(ctx, tx, e, false)
			if err != nil {
				if s.c.dialect.IsUniqueViolation(err) {
					return errors.NewConflictError(s.c.def.Name, e.ID, "already exists")
				}
				return err
			}
			ids[i] = id
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// write stores one entry and returns its identifier, reading back generated ones.
func (s *Store) write(ctx context.Context, tx *sql.Tx, e registry.Entry, upsert bool) (rest.ID, error) {
	stmts, err := s.c.writes(e, upsert, false)
	if err != nil {
		return nil, err
	}

	id := e.ID
	first := stmts[0]
	switch {
	case e.HasID():
		if _, err := tx.ExecContext(ctx, first.Text, first.Args...); err != nil {
			return nil, fmt.Errorf("insert %s: %w", s.c.def.Name, err)
		}
	case s.c.dialect.Returning():
		var n int64
		if err := tx.QueryRowContext(ctx, first.Text, first.Args...).Scan(&n); err != nil {
			return nil, fmt.Errorf("insert %s: %w", s.c.def.Name, err)
		}
		id = n
	default:
		res, err := tx.ExecContext(ctx, first.Text, first.Args...)
		if err != nil {
			return nil, fmt.Errorf("insert %s: %w", s.c.def.Name, err)
		}
		n, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("insert %s: read generated identifier: %w", s.c.def.Name, err)
		}
		id = n
	}

	for _, st := range stmts[1:] {
		if _, err := tx.ExecContext(ctx, st.Text, st.Args...); err != nil {
			return nil, fmt.Errorf("sync sequence of %s: %w", s.c.def.Name, err)
		}
	}
	return id, nil
}

// Retrieve reads one live row.
func (s *Store) Retrieve(ctx context.Context, id rest.ID, fields []string, opts rest.Options) (rest.Item, error) {
	key, err := s.c.def.ValidateID(id)
	if err != nil {
		return nil, err
	}
	if err := s.c.def.CheckFields(fields); err != nil {
		return nil, err
	}

	item, err := s.retrieve(ctx, s.db, key, fields)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, errors.NewNotFoundError(s.c.def.Name, key)
	}
	return item, nil
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// retrieve returns the live row, or nil when there is none.
func (s *Store) retrieve(ctx context.Context, q queryer, id rest.ID, fields []string) (rest.Item, error) {
	stmt, err := s.c.selectByID(id, fields, false)
	if err != nil {
		return nil, err
	}
	items, err := s.query(ctx, q, stmt, s.c.selected(fields))
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return items[0], nil
}

// Update applies the patches in order inside one transaction and returns the final row.
func (s *Store) Update(ctx context.Context, id rest.ID, patches []rest.Item, opts rest.Options) (rest.Item, error) {
	key, err := s.c.def.ValidateID(id)
	if err != nil {
		return nil, err
	}
	prepared, err := s.c.def.PreparePatches(key, patches)
	if err != nil {
		return nil, err
	}

	var result rest.Item
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		current, err := s.retrieve(ctx, tx, key, []string{s.c.def.IDField})
		if err != nil {
			return err
		}
		if current == nil {
			return errors.NewNotFoundError(s.c.def.Name, key)
		}

		for _, p := range prepared {
			if len(p) == 0 {
				continue
			}
			stmt, err := s.c.update(key, p, false)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, stmt.Text, stmt.Args...); err != nil {
				return fmt.Errorf("update %s: %w", s.c.def.Name, err)
			}
		}

		result, err = s.retrieve(ctx, tx, key, nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Delete removes, or soft deletes, live rows by identifier or criteria.
func (s *Store) Delete(ctx context.Context, ids []rest.ID, criteria []rest.Criterion, opts rest.Options) ([]rest.ID, error) {
	soft, err := s.c.def.CheckSoftDelete(opts)
	if err != nil {
		return nil, err
	}
	keys, err := s.c.def.ValidateIDs(ids)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		if err := s.c.def.CheckCriteria(criteria); err != nil {
			return nil, err
		}
	}

	var deleted []rest.ID
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		found, err := s.selectIDs(ctx, tx, keys, criteria, false)
		if err != nil {
			return err
		}
		if len(found) == 0 {
			return nil
		}
		stmt, err := s.c.remove(found, nil, soft, false)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, stmt.Text, stmt.Args...); err != nil {
			return fmt.Errorf("delete %s: %w", s.c.def.Name, err)
		}
		deleted = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	if deleted == nil {
		deleted = []rest.ID{}
	}
	return deleted, nil
}

// selectIDs returns the identifiers matching ids or criteria, ordered.
func (s *Store) selectIDs(ctx context.Context, q queryer, ids []rest.ID, criteria []rest.Criterion, includeDeleted bool) ([]rest.ID, error) {
	stmt, err := s.c.selectIDs(ids, criteria, includeDeleted)
	if err != nil {
		return nil, err
	}
	items, err := s.query(ctx, q, stmt, []string{s.c.def.IDField})
	if err != nil {
		return nil, err
	}
	out := make([]rest.ID, 0, len(items))
	for _, item := range items {
		id, err := rest.NormalizeID(item[s.c.def.IDField])
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

// Fetch lists or counts live rows matching criteria, ordered by identifier.
func (s *Store) Fetch(ctx context.Context, criteria []rest.Criterion, fields []string, opts rest.Options) (rest.FetchResult, error) {
	if err := s.c.def.CheckCriteria(criteria); err != nil {
		return rest.FetchResult{}, err
	}
	if err := s.c.def.CheckFields(fields); err != nil {
		return rest.FetchResult{}, err
	}

	if opts.Bool(rest.OptionCount) {
		stmt, err := s.c.fetch(criteria, nil, true, false)
		if err != nil {
			return rest.FetchResult{}, err
		}
		var n int64
		if err := s.db.QueryRowContext(ctx, stmt.Text, stmt.Args...).Scan(&n); err != nil {
			return rest.FetchResult{}, fmt.Errorf("count %s: %w", s.c.def.Name, err)
		}
		return rest.FetchResult{Count: int(n)}, nil
	}

	stmt, err := s.c.fetch(criteria, fields, false, false)
	if err != nil {
		return rest.FetchResult{}, err
	}
	items, err := s.query(ctx, s.db, stmt, s.c.selected(fields))
	if err != nil {
		return rest.FetchResult{}, err
	}
	return rest.FetchResult{Items: items, Count: len(items)}, nil
}

// query runs stmt and decodes every row into an item with the given columns.
func (s *Store) query(ctx context.Context, q queryer, stmt storagemodels.Statement, columns []string) ([]rest.Item, error) {
	rows, err := q.QueryContext(ctx, stmt.Text, stmt.Args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", s.c.def.Name, err)
	}
	defer rows.Close()

	var items []rest.Item
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", s.c.def.Name, err)
		}
		item, err := decodeRow(s.c.types, columns, values)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil && !stderrors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("read %s: %w", s.c.def.Name, err)
	}
	return items, nil
}
