/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package rest

import "context"

// Retriever reads a single resource.
//
// fields restricts the returned attributes; an empty selector returns every field.
// A missing resource yields errors.ErrNotFound.
type Retriever interface {
	Retrieve(ctx context.Context, id ID, fields []string, opts Options) (Item, error)
}

// RetrieveQuerier renders the query a Retriever would run.
type RetrieveQuerier interface {
	Retrieve(id ID, fields []string, opts Options) (string, error)
}
