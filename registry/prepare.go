/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"fmt"

	"github.com/suparena/resourcestore/errors"
	"github.com/suparena/resourcestore/rest"
)

// Entry is one validated item of a write batch.
type Entry struct {
	// Item is a private copy of the caller's item. When ID is known it is stored under IDField.
	Item rest.Item
	// ID is the canonical identifier, nil when the backend still has to assign one.
	ID rest.ID
	// Explicit reports that the caller supplied the identifier.
	Explicit bool
}

// HasID reports whether the identifier is known before the write.
func (e Entry) HasID() bool {
	return e.ID != nil
}

// PrepareBatch validates a Replace or Create batch before anything is written.
//
// Nil values are dropped, so a field set to nil is a field left out. It rejects an empty
// batch, undeclared fields, malformed identifiers and identifiers repeated within the batch.
// Items without identifier get one from the strategy's generator when generate is true;
// otherwise, or for sequential strategies, ID stays nil. Strategies that can neither
// generate nor sequence require every identifier.
func (d Definition) PrepareBatch(items []rest.Item, generate bool) ([]Entry, error) {
	if len(items) == 0 {
		return nil, errors.NewValidationError("items", "no items given")
	}
	strategy := d.Strategy()
	entries := make([]Entry, len(items))
	seen := make(map[rest.ID]int, len(items))

	for i, item := range items {
		if item == nil {
			return nil, errors.NewValidationError("items", fmt.Sprintf("item %d is empty", i))
		}
		if err := d.CheckItem(item); err != nil {
			return nil, err
		}
		entry := Entry{Item: rest.Clone(item)}
		for k, v := range entry.Item {
			if v == nil && k != d.IDField {
				delete(entry.Item, k)
			}
		}

		if raw, ok := item[d.IDField]; ok && raw != nil {
			id, err := d.ValidateID(raw)
			if err != nil {
				return nil, err
			}
			if prev, dup := seen[id]; dup {
				return nil, errors.NewConflictError(d.Name, id, fmt.Sprintf("identifier used by items %d and %d", prev, i))
			}
			seen[id] = i
			entry.ID = id
			entry.Explicit = true
		} else {
			delete(entry.Item, d.IDField)
			switch {
			case strategy.Sequential:
			case strategy.Generate != nil:
				if generate {
					id, err := strategy.Generate()
					if err != nil {
						return nil, err
					}
					entry.ID = id
				}
			default:
				return nil, errors.NewValidationError(d.IDField, fmt.Sprintf("item %d has no identifier and %s identifiers are not generated", i, d.IDStrategy))
			}
		}

		if entry.ID != nil {
			entry.Item[d.IDField] = entry.ID
		}
		entries[i] = entry
	}
	return entries, nil
}

// MaxSequenceID returns the largest explicit integer identifier in entries, or 0 when the
// definition is not sequential or no entry carries one. Backends move their sequence past it
// before allocating, so a new identifier never lands on one used later in the batch.
func (d Definition) MaxSequenceID(entries []Entry) int64 {
	if !d.Strategy().Sequential {
		return 0
	}
	var highest int64
	for _, e := range entries {
		if n, ok := e.ID.(int64); ok && e.Explicit && n > highest {
			highest = n
		}
	}
	return highest
}

// WriteOrder returns the indexes of entries with known identifiers first, then the others,
// each group in input order.
func WriteOrder(entries []Entry) []int {
	order := make([]int, 0, len(entries))
	for i, e := range entries {
		if e.HasID() {
			order = append(order, i)
		}
	}
	for i, e := range entries {
		if !e.HasID() {
			order = append(order, i)
		}
	}
	return order
}

// PreparePatches validates Update patches for the resource id.
//
// Every patch must be non-empty and only name declared fields. A patch may repeat the
// resource's own identifier, which is dropped; any other identifier is a conflict.
// The returned patches are private copies.
func (d Definition) PreparePatches(id rest.ID, patches []rest.Item) ([]rest.Item, error) {
	if len(patches) == 0 {
		return nil, errors.NewValidationError("items", "no patches given")
	}
	out := make([]rest.Item, 0, len(patches))
	for i, patch := range patches {
		if len(patch) == 0 {
			return nil, errors.NewValidationError("items", fmt.Sprintf("patch %d is empty", i))
		}
		if err := d.CheckItem(patch); err != nil {
			return nil, err
		}
		p := rest.Clone(patch)
		if raw, ok := p[d.IDField]; ok {
			if raw == nil {
				return nil, errors.NewConflictError(d.Name, id, "identifier cannot be removed")
			}
			other, err := rest.NormalizeID(raw)
			if err != nil {
				return nil, err
			}
			if other != id {
				return nil, errors.NewConflictError(d.Name, id, fmt.Sprintf("patch %d changes identifier to %v", i, other))
			}
			delete(p, d.IDField)
		}
		if d.SoftDelete != "" {
			if _, ok := p[d.SoftDelete]; ok {
				return nil, errors.NewValidationError(d.SoftDelete, "soft delete marker is managed by Delete")
			}
		}
		out = append(out, p)
	}
	return out, nil
}

// CheckSoftDelete validates the soft delete option against the definition.
func (d Definition) CheckSoftDelete(opts rest.Options) (bool, error) {
	if !opts.Bool(rest.OptionSoftDelete) {
		return false, nil
	}
	if d.SoftDelete == "" {
		return false, errors.NewValidationError(rest.OptionSoftDelete, fmt.Sprintf("%s has no soft delete field", d.Name))
	}
	return true, nil
}
