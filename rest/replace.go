/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package rest

import "context"

// Replacer upserts resources.
//
// For each item, in order: an item carrying an identifier overwrites the resource with that
// identifier entirely, or creates it with that identifier when absent. An item without an
// identifier creates a new resource with a freshly assigned identifier.
//
//	ids, err := todos.Replace(ctx, []rest.Item{
//	    {"id": 10, "text": "I really have to iron"},
//	    {"text": "Do laundry"},
//	}, nil)
//	// ids == []rest.ID{int64(10), int64(11)}
//
// The returned identifiers follow input order. Empty input is rejected with
// errors.ErrInvalidInput and an identifier repeated within one call with errors.ErrConflict.
type Replacer interface {
	Replace(ctx context.Context, items []Item, opts Options) ([]ID, error)
}

// ReplaceQuerier renders the query a Replacer would run for the same input, without running it.
// Identical input yields an identical string.
type ReplaceQuerier interface {
	Replace(items []Item, opts Options) (string, error)
}
