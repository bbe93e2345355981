/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package memory provides an in-memory implementation of datastore.Store.
// It is the reference behaviour other backends are tested against, and its error
// injection hooks make it a convenient stand-in for tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/go-openapi/strfmt"

	"github.com/suparena/resourcestore/errors"
	"github.com/suparena/resourcestore/registry"
	"github.com/suparena/resourcestore/rest"
)

// Store keeps resources of one type in a map guarded by a RWMutex.
type Store struct {
	mu   sync.RWMutex
	def  registry.Definition
	data map[rest.ID]rest.Item
	seq  int64
	now  func() time.Time

	replaceError  error
	retrieveError error
	updateError   error
	createError   error
	deleteError   error
	fetchError    error
}

// New creates an empty store for the resource described by def.
func New(def registry.Definition) (*Store, error) {
	normalized, err := def.Normalize()
	if err != nil {
		return nil, err
	}
	return &Store{
		def:  normalized,
		data: make(map[rest.ID]rest.Item),
		now:  time.Now,
	}, nil
}

// WithClock sets the clock used to stamp soft deletes
func (m *Store) WithClock(now func() time.Time) *Store {
	m.now = now
	return m
}

// WithReplaceError makes Replace operations return an error
func (m *Store) WithReplaceError(err error) *Store {
	m.replaceError = err
	return m
}

// WithRetrieveError makes Retrieve operations return an error
func (m *Store) WithRetrieveError(err error) *Store {
	m.retrieveError = err
	return m
}

// WithUpdateError makes Update operations return an error
func (m *Store) WithUpdateError(err error) *Store {
	m.updateError = err
	return m
}

// WithCreateError makes Create operations return an error
func (m *Store) WithCreateError(err error) *Store {
	m.createError = err
	return m
}

// WithDeleteError makes Delete operations return an error
func (m *Store) WithDeleteError(err error) *Store {
	m.deleteError = err
	return m
}

// WithFetchError makes Fetch operations return an error
func (m *Store) WithFetchError(err error) *Store {
	m.fetchError = err
	return m
}

// Definition returns the normalized definition the store serves.
func (m *Store) Definition() registry.Definition {
	return m.def
}

// Replace upserts items and returns their identifiers in input order.
func (m *Store) Replace(ctx context.Context, items []rest.Item, opts rest.Options) ([]rest.ID, error) {
	if m.replaceError != nil {
		return nil, m.replaceError
	}
	entries, err := m.def.PrepareBatch(items, true)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if highest := m.def.MaxSequenceID(entries); highest > m.seq {
		m.seq = highest
	}
	ids := make([]rest.ID, len(entries))
	for i, e := range entries {
		ids[i] = m.store(e)
	}
	return ids, nil
}

// Create inserts items, failing with a conflict if any identifier is taken.
func (m *Store) Create(ctx context.Context, items []rest.Item, opts rest.Options) ([]rest.ID, error) {
	if m.createError != nil {
		return nil, m.createError
	}
	entries, err := m.def.PrepareBatch(items, true)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range entries {
		if !e.HasID() {
			continue
		}
		if _, exists := m.data[e.ID]; exists {
			return nil, errors.NewConflictError(m.def.Name, e.ID, "already exists")
		}
	}

	if highest := m.def.MaxSequenceID(entries); highest > m.seq {
		m.seq = highest
	}
	ids := make([]rest.ID, len(entries))
	for i, e := range entries {
		ids[i] = m.store(e)
	}
	return ids, nil
}

// store writes one prepared entry, assigning a sequence identifier when needed.
// Callers hold the write lock.
func (m *Store) store(e registry.Entry) rest.ID {
	item := e.Item
	id := e.ID
	if id == nil {
		m.seq++
		id = m.seq
		item[m.def.IDField] = id
	} else if n, ok := id.(int64); ok && m.def.Strategy().Sequential && n > m.seq {
		m.seq = n
	}
	m.data[id] = item
	return id
}

// Retrieve returns the resource projected to fields.
func (m *Store) Retrieve(ctx context.Context, id rest.ID, fields []string, opts rest.Options) (rest.Item, error) {
	if m.retrieveError != nil {
		return nil, m.retrieveError
	}
	key, err := m.def.ValidateID(id)
	if err != nil {
		return nil, err
	}
	if err := m.def.CheckFields(fields); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	item, ok := m.live(key)
	if !ok {
		return nil, errors.NewNotFoundError(m.def.Name, key)
	}
	return rest.Project(item, fields), nil
}

// Update applies patches in order and returns the final resource.
func (m *Store) Update(ctx context.Context, id rest.ID, patches []rest.Item, opts rest.Options) (rest.Item, error) {
	if m.updateError != nil {
		return nil, m.updateError
	}
	key, err := m.def.ValidateID(id)
	if err != nil {
		return nil, err
	}
	prepared, err := m.def.PreparePatches(key, patches)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.live(key)
	if !ok {
		return nil, errors.NewNotFoundError(m.def.Name, key)
	}
	for _, p := range prepared {
		item = rest.ApplyPatch(item, p)
	}
	m.data[key] = item
	return rest.Clone(item), nil
}

// Delete removes or soft deletes resources by identifier or criteria.
func (m *Store) Delete(ctx context.Context, ids []rest.ID, criteria []rest.Criterion, opts rest.Options) ([]rest.ID, error) {
	if m.deleteError != nil {
		return nil, m.deleteError
	}
	soft, err := m.def.CheckSoftDelete(opts)
	if err != nil {
		return nil, err
	}
	keys, err := m.def.ValidateIDs(ids)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		if err := m.def.CheckCriteria(criteria); err != nil {
			return nil, err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(keys) == 0 {
		for _, k := range m.sortedKeys() {
			if item, ok := m.live(k); ok && rest.Match(item, criteria) {
				keys = append(keys, k)
			}
		}
	}

	deleted := make([]rest.ID, 0, len(keys))
	for _, k := range keys {
		item, ok := m.live(k)
		if !ok {
			continue
		}
		if soft {
			item[m.def.SoftDelete] = strfmt.DateTime(m.now().UTC()).String()
		} else {
			delete(m.data, k)
		}
		deleted = append(deleted, k)
	}
	return deleted, nil
}

// Fetch lists or counts the resources matching criteria.
func (m *Store) Fetch(ctx context.Context, criteria []rest.Criterion, fields []string, opts rest.Options) (rest.FetchResult, error) {
	if m.fetchError != nil {
		return rest.FetchResult{}, m.fetchError
	}
	if err := m.def.CheckCriteria(criteria); err != nil {
		return rest.FetchResult{}, err
	}
	if err := m.def.CheckFields(fields); err != nil {
		return rest.FetchResult{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var result rest.FetchResult
	countOnly := opts.Bool(rest.OptionCount)
	for _, k := range m.sortedKeys() {
		item, ok := m.live(k)
		if !ok || !rest.Match(item, criteria) {
			continue
		}
		result.Count++
		if !countOnly {
			result.Items = append(result.Items, rest.Project(item, fields))
		}
	}
	return result, nil
}

// live returns the stored item unless it is missing or soft deleted.
func (m *Store) live(key rest.ID) (rest.Item, bool) {
	item, ok := m.data[key]
	if !ok {
		return nil, false
	}
	if m.def.SoftDelete != "" && item[m.def.SoftDelete] != nil {
		return nil, false
	}
	return item, true
}

func (m *Store) sortedKeys() []rest.ID {
	keys := make([]rest.ID, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	rest.SortIDs(keys)
	return keys
}
