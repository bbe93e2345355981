/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package rest

import "context"

// Creator inserts new resources and never overwrites: an identifier that already exists
// yields errors.ErrConflict.
type Creator interface {
	Create(ctx context.Context, items []Item, opts Options) ([]ID, error)
}

// CreateQuerier renders the query a Creator would run.
type CreateQuerier interface {
	Create(items []Item, opts Options) (string, error)
}
